package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/domain/model"
)

// Commit writes the changeset in one transaction. Inserts expect no existing
// row and updates are guarded by "WHERE version = expected"; any statement
// that affects no row fails the commit with model.ErrConflict.
func (p *Postgres) Commit(ctx context.Context, cs *model.Changeset) (err error) {
	if cs.IsEmpty() {
		return nil
	}
	// timestamptz keeps microseconds
	next := cs.Stamped(cs.CommitTime().Truncate(time.Microsecond))

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for _, v := range next.Studies {
		if err = put(ctx, tx, studiesTable, v.ID.String(), v.Version, studyValues(v)); err != nil {
			return err
		}
	}
	for _, v := range next.Nodes {
		if err = put(ctx, tx, nodesTable, v.ID.String(), v.Version, nodeValues(v)); err != nil {
			return err
		}
	}
	for _, v := range next.Deviations {
		if err = put(ctx, tx, deviationsTable, v.ID.String(), v.Version, deviationValues(v)); err != nil {
			return err
		}
	}
	for _, v := range next.Recommendations {
		if err = put(ctx, tx, recommendationsTable, v.ID.String(), v.Version, recommendationValues(v)); err != nil {
			return err
		}
	}
	for _, v := range next.Assignments {
		if err = put(ctx, tx, assignmentsTable, v.ID.String(), v.Version, assignmentValues(v)); err != nil {
			return err
		}
	}
	for _, v := range next.TargetDates {
		if err = put(ctx, tx, targetDatesTable, v.ID.String(), v.Version, targetDateValues(v)); err != nil {
			return err
		}
	}
	for _, v := range next.Challenges {
		if err = put(ctx, tx, challengesTable, v.ID.String(), v.Version, challengeValues(v)); err != nil {
			return err
		}
	}
	for _, v := range next.DeleteRecommendations {
		if err = remove(ctx, tx, recommendationsTable, v.ID.String(), v.Version); err != nil {
			return err
		}
	}
	for _, v := range next.DeleteDeviations {
		if err = remove(ctx, tx, deviationsTable, v.ID.String(), v.Version); err != nil {
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return goerr.Wrap(err, "failed to commit transaction")
	}

	cs.Apply(next)
	return nil
}

// put writes a row stamped with newVersion, expecting newVersion-1 stored
func put(ctx context.Context, tx pgx.Tx, t table, id string, newVersion int64, values []any) error {
	expected := newVersion - 1

	var (
		sql  string
		args []any
	)
	if expected == 0 {
		sql, args = t.insertSQL(), values
	} else {
		sql, args = t.updateSQL(), append(values, expected)
	}

	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return goerr.Wrap(err, "failed to write "+t.entity, goerr.V(model.IDKey, id))
	}
	if tag.RowsAffected() == 0 {
		return model.NewConflictError(t.entity, id, expected)
	}
	return nil
}

func remove(ctx context.Context, tx pgx.Tx, t table, id string, expected int64) error {
	tag, err := tx.Exec(ctx, t.deleteSQL(), id, expected)
	if err != nil {
		return goerr.Wrap(err, "failed to delete "+t.entity, goerr.V(model.IDKey, id))
	}
	if tag.RowsAffected() == 0 {
		return model.NewConflictError(t.entity, id, expected)
	}
	return nil
}

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/types"
)

func getOne[T any](ctx context.Context, pool *pgxpool.Pool, t table, id string, scan func(pgx.Row) (*T, error)) (*T, error) {
	row := pool.QueryRow(ctx, t.selectSQL()+" WHERE id = $1", id)
	v, err := scan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, goerr.Wrap(model.ErrNotFound, t.entity+" not found", goerr.V(model.IDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get "+t.entity, goerr.V(model.IDKey, id))
	}
	return v, nil
}

func listWhere[T any](ctx context.Context, pool *pgxpool.Pool, t table, where string, scan func(pgx.Row) (*T, error), args ...any) ([]*T, error) {
	rows, err := pool.Query(ctx, t.selectSQL()+" "+where, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list "+t.name)
	}
	defer rows.Close()

	var result []*T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan "+t.entity)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "error iterating "+t.name)
	}
	return result, nil
}

type studyRepository struct{ pool *pgxpool.Pool }

func (r *studyRepository) Get(ctx context.Context, id types.StudyID) (*model.Study, error) {
	return getOne(ctx, r.pool, studiesTable, id.String(), scanStudy)
}

func (r *studyRepository) List(ctx context.Context) ([]*model.Study, error) {
	return listWhere(ctx, r.pool, studiesTable, "ORDER BY created_at, id", scanStudy)
}

type nodeRepository struct{ pool *pgxpool.Pool }

func (r *nodeRepository) Get(ctx context.Context, id types.NodeID) (*model.Node, error) {
	return getOne(ctx, r.pool, nodesTable, id.String(), scanNode)
}

func (r *nodeRepository) ListByStudy(ctx context.Context, studyID types.StudyID) ([]*model.Node, error) {
	return listWhere(ctx, r.pool, nodesTable, "WHERE study_id = $1 ORDER BY node_number", scanNode, studyID.String())
}

type deviationRepository struct{ pool *pgxpool.Pool }

func (r *deviationRepository) Get(ctx context.Context, id types.DeviationID) (*model.Deviation, error) {
	return getOne(ctx, r.pool, deviationsTable, id.String(), scanDeviation)
}

func (r *deviationRepository) ListByNode(ctx context.Context, nodeID types.NodeID) ([]*model.Deviation, error) {
	return listWhere(ctx, r.pool, deviationsTable, "WHERE node_id = $1 ORDER BY sequence_number", scanDeviation, nodeID.String())
}

type recommendationRepository struct{ pool *pgxpool.Pool }

func (r *recommendationRepository) Get(ctx context.Context, id types.RecommendationID) (*model.Recommendation, error) {
	return getOne(ctx, r.pool, recommendationsTable, id.String(), scanRecommendation)
}

func (r *recommendationRepository) ListByDeviation(ctx context.Context, deviationID types.DeviationID) ([]*model.Recommendation, error) {
	return listWhere(ctx, r.pool, recommendationsTable, "WHERE deviation_id = $1 ORDER BY position", scanRecommendation, deviationID.String())
}

func (r *recommendationRepository) ListByNode(ctx context.Context, nodeID types.NodeID) ([]*model.Recommendation, error) {
	return listWhere(ctx, r.pool, recommendationsTable, "WHERE node_id = $1 ORDER BY deviation_id, position", scanRecommendation, nodeID.String())
}

type assignmentRepository struct{ pool *pgxpool.Pool }

func (r *assignmentRepository) Get(ctx context.Context, id types.AssignmentID) (*model.Assignment, error) {
	return getOne(ctx, r.pool, assignmentsTable, id.String(), scanAssignment)
}

func (r *assignmentRepository) ListByRecommendation(ctx context.Context, recID types.RecommendationID) ([]*model.Assignment, error) {
	return listWhere(ctx, r.pool, assignmentsTable, "WHERE recommendation_id = $1 ORDER BY seq", scanAssignment, recID.String())
}

func (r *assignmentRepository) ListTargetDates(ctx context.Context, assignmentID types.AssignmentID) ([]*model.TargetDateRecord, error) {
	return listWhere(ctx, r.pool, targetDatesTable, "WHERE assignment_id = $1 ORDER BY seq", scanTargetDate, assignmentID.String())
}

type challengeRepository struct{ pool *pgxpool.Pool }

func (r *challengeRepository) Get(ctx context.Context, id types.ChallengeID) (*model.Challenge, error) {
	return getOne(ctx, r.pool, challengesTable, id.String(), scanChallenge)
}

package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// write is one guarded document operation of a changeset
type write struct {
	ref      *firestore.DocumentRef
	entity   string
	expected int64
	data     any // nil means delete
}

func (f *Firestore) writes(next *model.Changeset) []write {
	var ws []write
	for _, v := range next.Studies {
		ws = append(ws, write{f.collection(studiesCollection).Doc(v.ID.String()), "study", v.Version - 1, toStudyDoc(v)})
	}
	for _, v := range next.Nodes {
		ws = append(ws, write{f.collection(nodesCollection).Doc(v.ID.String()), "node", v.Version - 1, toNodeDoc(v)})
	}
	for _, v := range next.Deviations {
		ws = append(ws, write{f.collection(deviationsCollection).Doc(v.ID.String()), "deviation", v.Version - 1, toDeviationDoc(v)})
	}
	for _, v := range next.Recommendations {
		ws = append(ws, write{f.collection(recommendationsCollection).Doc(v.ID.String()), "recommendation", v.Version - 1, toRecommendationDoc(v)})
	}
	for _, v := range next.Assignments {
		ws = append(ws, write{f.collection(assignmentsCollection).Doc(v.ID.String()), "assignment", v.Version - 1, toAssignmentDoc(v)})
	}
	for _, v := range next.TargetDates {
		ws = append(ws, write{f.collection(targetDatesCollection).Doc(v.ID.String()), "target_date", v.Version - 1, toTargetDateDoc(v)})
	}
	for _, v := range next.Challenges {
		ws = append(ws, write{f.collection(challengesCollection).Doc(v.ID.String()), "challenge", v.Version - 1, toChallengeDoc(v)})
	}
	for _, v := range next.DeleteDeviations {
		ws = append(ws, write{f.collection(deviationsCollection).Doc(v.ID.String()), "deviation", v.Version, nil})
	}
	for _, v := range next.DeleteRecommendations {
		ws = append(ws, write{f.collection(recommendationsCollection).Doc(v.ID.String()), "recommendation", v.Version, nil})
	}
	return ws
}

// Commit runs the changeset in one transaction. All version reads happen
// before any write as Firestore transactions require.
func (f *Firestore) Commit(ctx context.Context, cs *model.Changeset) error {
	if cs.IsEmpty() {
		return nil
	}
	next := cs.Stamped(cs.CommitTime())
	ws := f.writes(next)

	err := f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, w := range ws {
			stored, err := storedVersion(tx, w.ref)
			if err != nil {
				return err
			}
			if stored != w.expected {
				return model.NewConflictError(w.entity, w.ref.ID, w.expected)
			}
		}

		for _, w := range ws {
			if w.data == nil {
				if err := tx.Delete(w.ref); err != nil {
					return goerr.Wrap(err, "failed to delete document", goerr.V("path", w.ref.Path))
				}
				continue
			}
			if err := tx.Set(w.ref, w.data); err != nil {
				return goerr.Wrap(err, "failed to set document", goerr.V("path", w.ref.Path))
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			return err
		}
		return goerr.Wrap(err, "failed to commit changeset")
	}

	cs.Apply(next)
	return nil
}

func storedVersion(tx *firestore.Transaction, ref *firestore.DocumentRef) (int64, error) {
	doc, err := tx.Get(ref)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return 0, nil
		}
		return 0, goerr.Wrap(err, "failed to read document version", goerr.V("path", ref.Path))
	}
	v, err := doc.DataAt("version")
	if err != nil {
		return 0, goerr.Wrap(err, "failed to get version field", goerr.V("path", ref.Path))
	}
	version, ok := v.(int64)
	if !ok {
		return 0, goerr.New("version is not of type int64", goerr.V("path", ref.Path), goerr.V("value", v))
	}
	return version, nil
}

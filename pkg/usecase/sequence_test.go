package usecase_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/types"
	"github.com/secmon-lab/hazop/pkg/repository/memory"
	"github.com/secmon-lab/hazop/pkg/usecase"
)

func seedDeviations(t *testing.T, f *fixture, nodeID types.NodeID, n int) []types.DeviationID {
	t.Helper()
	ids := make([]types.DeviationID, 0, n)
	for range n {
		d, err := f.uc.Deviation.Create(t.Context(), nodeID, lowRiskInput(), false)
		gt.NoError(t, err).Required()
		ids = append(ids, d.ID)
	}
	return ids
}

func sequenceOf(t *testing.T, f *fixture, nodeID types.NodeID) map[types.DeviationID]int {
	t.Helper()
	list, err := f.uc.Deviation.List(t.Context(), nodeID)
	gt.NoError(t, err).Required()
	seq := make(map[types.DeviationID]int, len(list))
	for _, d := range list {
		seq[d.ID] = d.SequenceNumber
	}
	return seq
}

func TestSequenceUseCase_Reorder(t *testing.T) {
	t.Run("assigns positions in input order", func(t *testing.T) {
		f := newFixture(t)
		_, node := f.seedNode(t)
		ids := seedDeviations(t, f, node.ID, 3)

		ordered, err := f.uc.Sequence.Reorder(t.Context(), node.ID, []types.DeviationID{ids[2], ids[0], ids[1]})
		gt.NoError(t, err).Required()
		gt.A(t, ordered).Length(3).Required()

		seq := sequenceOf(t, f, node.ID)
		gt.Value(t, seq[ids[2]]).Equal(1)
		gt.Value(t, seq[ids[0]]).Equal(2)
		gt.Value(t, seq[ids[1]]).Equal(3)
	})

	t.Run("retrying the same order is a no-op", func(t *testing.T) {
		f := newFixture(t)
		_, node := f.seedNode(t)
		ids := seedDeviations(t, f, node.ID, 3)
		order := []types.DeviationID{ids[1], ids[2], ids[0]}

		_, err := f.uc.Sequence.Reorder(t.Context(), node.ID, order)
		gt.NoError(t, err).Required()
		before, err := f.repo.Node().Get(t.Context(), node.ID)
		gt.NoError(t, err).Required()

		_, err = f.uc.Sequence.Reorder(t.Context(), node.ID, order)
		gt.NoError(t, err).Required()
		after, err := f.repo.Node().Get(t.Context(), node.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, after.Version).Equal(before.Version)
	})

	t.Run("result is a bijection onto 1..n", func(t *testing.T) {
		f := newFixture(t)
		_, node := f.seedNode(t)
		ids := seedDeviations(t, f, node.ID, 5)

		order := []types.DeviationID{ids[3], ids[1], ids[4], ids[0], ids[2]}
		_, err := f.uc.Sequence.Reorder(t.Context(), node.ID, order)
		gt.NoError(t, err).Required()

		seen := map[int]bool{}
		for _, n := range sequenceOf(t, f, node.ID) {
			gt.Bool(t, n >= 1 && n <= 5).True()
			gt.Bool(t, seen[n]).False()
			seen[n] = true
		}
		gt.Number(t, len(seen)).Equal(5)
	})

	mismatches := []struct {
		name  string
		order func(ids []types.DeviationID) []types.DeviationID
	}{
		{"missing member", func(ids []types.DeviationID) []types.DeviationID { return ids[:2] }},
		{"duplicate member", func(ids []types.DeviationID) []types.DeviationID {
			return []types.DeviationID{ids[0], ids[0], ids[1]}
		}},
		{"unknown member", func(ids []types.DeviationID) []types.DeviationID {
			return []types.DeviationID{ids[0], ids[1], "other"}
		}},
		{"extra member", func(ids []types.DeviationID) []types.DeviationID { return append(ids, "other") }},
	}
	for _, tt := range mismatches {
		t.Run(tt.name+" leaves ordering untouched", func(t *testing.T) {
			f := newFixture(t)
			_, node := f.seedNode(t)
			ids := seedDeviations(t, f, node.ID, 3)
			before := sequenceOf(t, f, node.ID)

			order := tt.order(append([]types.DeviationID{}, ids...))
			_, err := f.uc.Sequence.Reorder(t.Context(), node.ID, order)
			gt.Error(t, err).Is(model.ErrSequenceMismatch)
			gt.Value(t, sequenceOf(t, f, node.ID)).Equal(before)
		})
	}

	t.Run("concurrent create surfaces as mismatch", func(t *testing.T) {
		f := newFixture(t)
		_, node := f.seedNode(t)
		ids := seedDeviations(t, f, node.ID, 2)
		before := sequenceOf(t, f, node.ID)

		hooked := &hookRepository{Repository: f.repo}
		racer := usecase.New(hooked)
		hooked.beforeCommit = func() {
			_, err := f.uc.Deviation.Create(t.Context(), node.ID, lowRiskInput(), false)
			gt.NoError(t, err).Required()
		}

		_, err := racer.Sequence.Reorder(t.Context(), node.ID, []types.DeviationID{ids[1], ids[0]})
		gt.Error(t, err).Is(model.ErrSequenceMismatch)

		after := sequenceOf(t, f, node.ID)
		gt.Value(t, after[ids[0]]).Equal(before[ids[0]])
		gt.Value(t, after[ids[1]]).Equal(before[ids[1]])
		gt.Number(t, len(after)).Equal(3)
	})

	t.Run("completed node cannot be reordered", func(t *testing.T) {
		f := newFixture(t)
		_, node := f.seedNode(t)
		ids := seedDeviations(t, f, node.ID, 2)
		_, err := f.uc.Hazop.CompleteNode(t.Context(), node.ID)
		gt.NoError(t, err).Required()

		_, err = f.uc.Sequence.Reorder(t.Context(), node.ID, []types.DeviationID{ids[1], ids[0]})
		gt.Error(t, err).Is(model.ErrIllegalTransition)
	})

	t.Run("works against a fresh repository", func(t *testing.T) {
		uc := usecase.New(memory.New())
		_, err := uc.Sequence.Reorder(t.Context(), "missing", nil)
		gt.Error(t, err).Is(model.ErrNotFound)
	})
}

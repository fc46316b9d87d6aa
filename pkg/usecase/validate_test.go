package usecase_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/model/config"
	"github.com/secmon-lab/hazop/pkg/usecase"
)

func TestValidateDB(t *testing.T) {
	t.Run("consistent workflow has no issues", func(t *testing.T) {
		f := newFixture(t)
		_, rec := f.seedRecommendation(t)
		f.completeRecommendation(t, rec.ID)

		result, err := f.uc.ValidateDB(t.Context())
		gt.NoError(t, err).Required()
		gt.Bool(t, result.HasIssues()).False()
	})

	t.Run("reports sequence gaps and stale ratings", func(t *testing.T) {
		f := newFixture(t)
		_, node := f.seedNode(t)
		ids := seedDeviations(t, f, node.ID, 2)

		d, err := f.repo.Deviation().Get(t.Context(), ids[1])
		gt.NoError(t, err).Required()
		d.SequenceNumber = 5
		d.InitialRisk = 25
		gt.NoError(t, f.repo.Commit(t.Context(), &model.Changeset{Deviations: []*model.Deviation{d}})).Required()

		result, err := f.uc.ValidateDB(t.Context())
		gt.NoError(t, err).Required()
		gt.A(t, result.Issues).Length(2).Required()
		gt.Value(t, result.Issues[0].EntityID).Equal(ids[1].String())
		gt.Value(t, result.Issues[0].Expected).Equal("2")
		gt.Value(t, result.Issues[0].Actual).Equal("5")
	})

	t.Run("reports unknown departments", func(t *testing.T) {
		f := newFixture(t)
		_, rec := f.seedRecommendation(t)
		_, err := f.uc.Recommendation.SetDetails(t.Context(), rec.ID, "finance", "")
		gt.NoError(t, err).Required()

		strict := usecase.New(f.repo, usecase.WithHazopConfig(&config.HazopConfig{
			Departments: []config.Department{{ID: "maintenance", Name: "Maintenance"}},
		}))
		result, err := strict.ValidateDB(t.Context())
		gt.NoError(t, err).Required()
		gt.A(t, result.Issues).Length(1).Required()
		gt.Value(t, result.Issues[0].Entity).Equal("recommendation")
	})
}

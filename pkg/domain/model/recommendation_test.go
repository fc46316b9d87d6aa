package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/types"
)

func TestRecommendationTransitions(t *testing.T) {
	tests := []struct {
		from types.RecommendationStatus
		to   types.RecommendationStatus
		ok   bool
	}{
		{types.RecommendationStatusUnassigned, types.RecommendationStatusAssigned, true},
		{types.RecommendationStatusUnassigned, types.RecommendationStatusCompleted, false},
		{types.RecommendationStatusAssigned, types.RecommendationStatusAccepted, true},
		{types.RecommendationStatusAssigned, types.RecommendationStatusCompleted, false},
		{types.RecommendationStatusAccepted, types.RecommendationStatusCompleted, true},
		{types.RecommendationStatusCompleted, types.RecommendationStatusVerifiedApproved, true},
		{types.RecommendationStatusVerifiedApproved, types.RecommendationStatusAssigned, false},
		{types.RecommendationStatusRejected, types.RecommendationStatusAssigned, false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			r := &model.Recommendation{ID: "r1", Status: tt.from}
			err := r.TransitionTo(tt.to)
			if tt.ok {
				gt.NoError(t, err)
				gt.Value(t, r.Status).Equal(tt.to)
				return
			}
			gt.Error(t, err).Is(model.ErrIllegalTransition)
			gt.Value(t, r.Status).Equal(tt.from)
			from, _ := model.ErrorValue(err, model.FromKey)
			gt.Value(t, from).Equal(tt.from.String())
		})
	}
}

func TestRecommendationRevokeCompletion(t *testing.T) {
	r := &model.Recommendation{ID: "r1", Status: types.RecommendationStatusAccepted, ActiveAssignmentID: "a1"}
	gt.NoError(t, r.MarkCompleted(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))).Required()
	gt.Bool(t, r.CompletionStatus).True()

	gt.NoError(t, r.RevokeCompletion("photos missing")).Required()
	gt.Value(t, r.Status).Equal(types.RecommendationStatusUnassigned)
	gt.Bool(t, r.CompletionStatus).False()
	gt.Value(t, r.CompletionDate).Nil()
	gt.Bool(t, r.PendingReassignment).True()
	gt.Value(t, r.ActiveAssignmentID).Equal(types.AssignmentID(""))
	gt.Value(t, r.SendForVerificationAction).Equal(types.VerificationActionRejected)
	gt.Bool(t, r.IsEditable()).False()
}

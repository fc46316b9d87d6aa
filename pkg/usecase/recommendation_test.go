package usecase_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/model/config"
	"github.com/secmon-lab/hazop/pkg/domain/types"
	"github.com/secmon-lab/hazop/pkg/usecase"
)

func TestRecommendationUseCase_Assign(t *testing.T) {
	t.Run("creates a pending assignment", func(t *testing.T) {
		f := newFixture(t)
		_, rec := f.seedRecommendation(t)

		a, err := f.uc.Recommendation.Assign(actorCtx(t, leadID), rec.ID, assigneeID, time.Time{})
		gt.NoError(t, err).Required()
		gt.Value(t, a.AcceptanceStatus).Equal(types.AcceptanceStatusPending)
		gt.Value(t, a.AssignedBy).Equal(leadID)
		gt.Value(t, a.Seq).Equal(1)
		gt.Value(t, a.AssignWorkDate).Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))

		got, err := f.uc.Recommendation.Get(t.Context(), rec.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.RecommendationStatusAssigned)
		gt.Value(t, got.ActiveAssignmentID).Equal(a.ID)
		gt.A(t, f.notifier.kinds(assigneeID)).Length(1)
	})

	t.Run("re-assigning a pending assignment replaces the assignee in place", func(t *testing.T) {
		f := newFixture(t)
		_, rec := f.seedRecommendation(t)

		first, err := f.uc.Recommendation.Assign(t.Context(), rec.ID, assigneeID, time.Time{})
		gt.NoError(t, err).Required()
		second, err := f.uc.Recommendation.Assign(t.Context(), rec.ID, otherID, time.Time{})
		gt.NoError(t, err).Required()
		gt.Value(t, second.ID).Equal(first.ID)
		gt.Value(t, second.AssigneeID).Equal(otherID)

		again, err := f.uc.Recommendation.Assign(t.Context(), rec.ID, otherID, time.Time{})
		gt.NoError(t, err).Required()
		gt.Value(t, again.Version).Equal(second.Version)

		history, err := f.uc.Recommendation.History(t.Context(), rec.ID)
		gt.NoError(t, err).Required()
		gt.A(t, history).Length(1)
		gt.Value(t, f.notifier.kinds(assigneeID)).Equal([]model.NotificationKind{
			model.NotificationAssigned, model.NotificationUnassigned,
		})
	})

	t.Run("accepted recommendation cannot be assigned", func(t *testing.T) {
		f := newFixture(t)
		_, rec := f.seedRecommendation(t)

		a, err := f.uc.Recommendation.Assign(t.Context(), rec.ID, assigneeID, time.Time{})
		gt.NoError(t, err).Required()
		_, err = f.uc.Recommendation.AcceptOrReject(t.Context(), a.ID, true)
		gt.NoError(t, err).Required()

		_, err = f.uc.Recommendation.Assign(t.Context(), rec.ID, otherID, time.Time{})
		gt.Error(t, err).Is(model.ErrIllegalTransition)
	})

	t.Run("assignee is required", func(t *testing.T) {
		f := newFixture(t)
		_, rec := f.seedRecommendation(t)

		_, err := f.uc.Recommendation.Assign(t.Context(), rec.ID, " ", time.Time{})
		gt.Error(t, err).Is(model.ErrValidationFailed)
	})

	t.Run("notification failure does not fail the assignment", func(t *testing.T) {
		f := newFixture(t)
		f.notifier.err = errDeliveryFailed
		_, rec := f.seedRecommendation(t)

		_, err := f.uc.Recommendation.Assign(t.Context(), rec.ID, assigneeID, time.Time{})
		gt.NoError(t, err)
	})
}

func TestRecommendationUseCase_AcceptOrReject(t *testing.T) {
	t.Run("reject returns the recommendation to the pool", func(t *testing.T) {
		f := newFixture(t)
		_, rec := f.seedRecommendation(t)

		a, err := f.uc.Recommendation.Assign(actorCtx(t, leadID), rec.ID, assigneeID, time.Time{})
		gt.NoError(t, err).Required()
		answered, err := f.uc.Recommendation.AcceptOrReject(actorCtx(t, assigneeID), a.ID, false)
		gt.NoError(t, err).Required()
		gt.Value(t, answered.AcceptanceStatus).Equal(types.AcceptanceStatusRejected)
		gt.Bool(t, answered.IsActive()).False()

		got, err := f.uc.Recommendation.Get(t.Context(), rec.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.RecommendationStatusUnassigned)
		gt.Value(t, got.ActiveAssignmentID).Equal(types.AssignmentID(""))
		gt.Value(t, f.notifier.kinds(leadID)).Equal([]model.NotificationKind{model.NotificationAssignmentAnswered})

		// a fresh assignment starts a new link in the chain
		next, err := f.uc.Recommendation.Assign(t.Context(), rec.ID, otherID, time.Time{})
		gt.NoError(t, err).Required()
		gt.Value(t, next.Seq).Equal(2)
	})

	t.Run("answering twice is illegal", func(t *testing.T) {
		f := newFixture(t)
		_, rec := f.seedRecommendation(t)

		a, err := f.uc.Recommendation.Assign(t.Context(), rec.ID, assigneeID, time.Time{})
		gt.NoError(t, err).Required()
		_, err = f.uc.Recommendation.AcceptOrReject(t.Context(), a.ID, true)
		gt.NoError(t, err).Required()

		_, err = f.uc.Recommendation.AcceptOrReject(t.Context(), a.ID, false)
		gt.Error(t, err).Is(model.ErrIllegalTransition)
	})

	t.Run("active alias answers the current assignment", func(t *testing.T) {
		f := newFixture(t)
		_, rec := f.seedRecommendation(t)

		_, err := f.uc.Recommendation.AcceptOrRejectActive(t.Context(), rec.ID, true)
		gt.Error(t, err).Is(model.ErrIllegalTransition)

		_, err = f.uc.Recommendation.Assign(t.Context(), rec.ID, assigneeID, time.Time{})
		gt.NoError(t, err).Required()
		a, err := f.uc.Recommendation.AcceptOrRejectActive(t.Context(), rec.ID, true)
		gt.NoError(t, err).Required()
		gt.Value(t, a.AcceptanceStatus).Equal(types.AcceptanceStatusAccepted)
	})
}

func TestRecommendationUseCase_SetTargetDate(t *testing.T) {
	f := newFixture(t)
	_, rec := f.seedRecommendation(t)
	ctx := actorCtx(t, assigneeID)

	a, err := f.uc.Recommendation.Assign(ctx, rec.ID, assigneeID, time.Time{})
	gt.NoError(t, err).Required()

	target := time.Date(2026, 4, 1, 15, 30, 0, 0, time.UTC)
	_, err = f.uc.Recommendation.SetTargetDate(ctx, a.ID, target)
	gt.Error(t, err).Is(model.ErrIllegalTransition)

	_, err = f.uc.Recommendation.AcceptOrReject(ctx, a.ID, true)
	gt.NoError(t, err).Required()

	_, err = f.uc.Recommendation.SetTargetDate(ctx, a.ID, time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC))
	gt.Error(t, err).Is(model.ErrValidationFailed)
	field, _ := model.ErrorValue(err, model.FieldKey)
	gt.Value(t, field).Equal(any("targetDate"))

	today, err := f.uc.Recommendation.SetTargetDate(ctx, a.ID, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	gt.NoError(t, err).Required()
	gt.Value(t, today.Seq).Equal(1)

	first, err := f.uc.Recommendation.SetTargetDate(ctx, a.ID, target)
	gt.NoError(t, err).Required()
	gt.Value(t, first.Seq).Equal(2)
	gt.Value(t, first.Date).Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	gt.Value(t, first.SetBy).Equal(assigneeID)

	repeat, err := f.uc.Recommendation.SetTargetDate(ctx, a.ID, target)
	gt.NoError(t, err).Required()
	gt.Value(t, repeat.ID).Equal(first.ID)

	history, err := f.uc.Recommendation.History(ctx, rec.ID)
	gt.NoError(t, err).Required()
	gt.A(t, history).Length(1).Required()
	gt.A(t, history[0].TargetDates).Length(2)
	gt.Value(t, *history[0].Assignment.TargetDate).Equal(first.Date)
}

func TestRecommendationUseCase_Complete(t *testing.T) {
	t.Run("only accepted assignments complete", func(t *testing.T) {
		f := newFixture(t)
		_, rec := f.seedRecommendation(t)

		a, err := f.uc.Recommendation.Assign(t.Context(), rec.ID, assigneeID, time.Time{})
		gt.NoError(t, err).Required()
		_, err = f.uc.Recommendation.Complete(t.Context(), a.ID, time.Time{})
		gt.Error(t, err).Is(model.ErrIllegalTransition)

		_, err = f.uc.Recommendation.AcceptOrReject(t.Context(), a.ID, true)
		gt.NoError(t, err).Required()

		done, err := f.uc.Recommendation.Complete(t.Context(), a.ID, time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC))
		gt.NoError(t, err).Required()
		gt.Value(t, done.Status).Equal(types.RecommendationStatusCompleted)
		gt.Bool(t, done.CompletionStatus).True()
		gt.Value(t, *done.CompletionDate).Equal(time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC))

		again, err := f.uc.Recommendation.Complete(t.Context(), a.ID, time.Time{})
		gt.NoError(t, err).Required()
		gt.Value(t, again.Version).Equal(done.Version)

		stored, err := f.repo.Assignment().Get(t.Context(), a.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, *stored.CompletionDate).Equal(*done.CompletionDate)
	})

	t.Run("unassigned recommendation cannot complete through the alias", func(t *testing.T) {
		f := newFixture(t)
		_, rec := f.seedRecommendation(t)

		_, err := f.uc.Recommendation.CompleteActive(t.Context(), rec.ID, time.Time{})
		gt.Error(t, err).Is(model.ErrIllegalTransition)
	})
}

func TestRecommendationUseCase_Verify(t *testing.T) {
	t.Run("approve is terminal", func(t *testing.T) {
		f := newFixture(t)
		_, rec := f.seedRecommendation(t)
		f.completeRecommendation(t, rec.ID)

		ch, code := f.issue(t, types.ApprovalActionVerifyRecommendation, rec.ID.String())
		got, err := f.uc.Recommendation.Verify(actorCtx(t, verifierID), rec.ID, usecase.VerifyInput{
			Approve: true, Remark: "Checked on site", ChallengeID: ch.ID, Code: code,
		})
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.RecommendationStatusVerifiedApproved)
		gt.Value(t, got.SendForVerificationAction).Equal(types.VerificationActionApproved)

		stored, err := f.repo.Challenge().Get(t.Context(), ch.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, stored.Consumed).True()

		// already approved: no-op success without a fresh code
		again, err := f.uc.Recommendation.Verify(t.Context(), rec.ID, usecase.VerifyInput{Approve: true})
		gt.NoError(t, err).Required()
		gt.Value(t, again.Version).Equal(got.Version)

		_, err = f.uc.Recommendation.Reassign(t.Context(), rec.ID, otherID, "redo")
		gt.Error(t, err).Is(model.ErrIllegalTransition)
		gt.Value(t, f.notifier.kinds(assigneeID)[len(f.notifier.kinds(assigneeID))-1]).Equal(model.NotificationVerified)
	})

	t.Run("reject revokes completion and requires reassignment", func(t *testing.T) {
		f := newFixture(t)
		_, rec := f.seedRecommendation(t)
		first := f.completeRecommendation(t, rec.ID)

		ch, code := f.issue(t, types.ApprovalActionVerifyRecommendation, rec.ID.String())
		_, err := f.uc.Recommendation.Verify(t.Context(), rec.ID, usecase.VerifyInput{
			Approve: false, ChallengeID: ch.ID, Code: code,
		})
		gt.Error(t, err).Is(model.ErrValidationFailed)

		got, err := f.uc.Recommendation.Verify(t.Context(), rec.ID, usecase.VerifyInput{
			Approve: false, Remark: "Valve not replaced", ChallengeID: ch.ID, Code: code,
		})
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.RecommendationStatusUnassigned)
		gt.Bool(t, got.PendingReassignment).True()
		gt.Bool(t, got.CompletionStatus).False()
		gt.Value(t, got.CompletionDate).Nil()
		gt.Value(t, got.VerificationRemark).Equal("Valve not replaced")
		gt.Value(t, got.SendForVerificationAction).Equal(types.VerificationActionRejected)

		superseded, err := f.repo.Assignment().Get(t.Context(), first.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, superseded.Superseded).True()

		// retrying the rejection is a no-op
		_, err = f.uc.Recommendation.Verify(t.Context(), rec.ID, usecase.VerifyInput{Approve: false, Remark: "again"})
		gt.NoError(t, err)

		_, err = f.uc.Recommendation.Assign(t.Context(), rec.ID, otherID, time.Time{})
		gt.Error(t, err).Is(model.ErrIllegalTransition)

		_, err = f.uc.Recommendation.Reassign(t.Context(), rec.ID, otherID, " ")
		gt.Error(t, err).Is(model.ErrValidationFailed)

		next, err := f.uc.Recommendation.Reassign(actorCtx(t, leadID), rec.ID, otherID, "Bob owns the valve now")
		gt.NoError(t, err).Required()
		gt.Value(t, next.Seq).Equal(2)
		gt.Value(t, next.Comment).Equal("Bob owns the valve now")

		got, err = f.uc.Recommendation.Get(t.Context(), rec.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.RecommendationStatusAssigned)
		gt.Bool(t, got.PendingReassignment).False()
		gt.Value(t, got.ActiveAssignmentID).Equal(next.ID)
	})

	t.Run("rejected recommendation cannot be dismissed", func(t *testing.T) {
		f := newFixture(t)
		_, rec := f.seedRecommendation(t)
		f.completeRecommendation(t, rec.ID)

		ch, code := f.issue(t, types.ApprovalActionVerifyRecommendation, rec.ID.String())
		_, err := f.uc.Recommendation.Verify(t.Context(), rec.ID, usecase.VerifyInput{
			Approve: false, Remark: "Valve not replaced", ChallengeID: ch.ID, Code: code,
		})
		gt.NoError(t, err).Required()

		_, err = f.uc.Recommendation.Dismiss(t.Context(), rec.ID, "Close it anyway")
		gt.Error(t, err).Is(model.ErrIllegalTransition)

		got, err := f.uc.Recommendation.Get(t.Context(), rec.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.RecommendationStatusUnassigned)
		gt.Bool(t, got.PendingReassignment).True()

		p, err := f.uc.Hazop.Progress(t.Context(), rec.StudyID)
		gt.NoError(t, err).Required()
		gt.Bool(t, p.RecommendationsComplete).False()
	})

	t.Run("not completed", func(t *testing.T) {
		f := newFixture(t)
		_, rec := f.seedRecommendation(t)

		ch, code := f.issue(t, types.ApprovalActionVerifyRecommendation, rec.ID.String())
		_, err := f.uc.Recommendation.Verify(t.Context(), rec.ID, usecase.VerifyInput{
			Approve: true, ChallengeID: ch.ID, Code: code,
		})
		gt.Error(t, err).Is(model.ErrIllegalTransition)

		// the code survives a refused transition
		stored, err := f.repo.Challenge().Get(t.Context(), ch.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, stored.Consumed).False()
	})

	t.Run("code for another recommendation is invalid", func(t *testing.T) {
		f := newFixture(t)
		node, rec := f.seedRecommendation(t)
		f.completeRecommendation(t, rec.ID)

		d, err := f.uc.Deviation.Create(t.Context(), node.ID, escalatedInput("Other action"), false)
		gt.NoError(t, err).Required()
		others, err := f.uc.Deviation.Recommendations(t.Context(), d.ID)
		gt.NoError(t, err).Required()

		ch, code := f.issue(t, types.ApprovalActionVerifyRecommendation, others[0].ID.String())
		_, err = f.uc.Recommendation.Verify(t.Context(), rec.ID, usecase.VerifyInput{
			Approve: true, ChallengeID: ch.ID, Code: code,
		})
		gt.Error(t, err).Is(model.ErrOtpInvalid)

		got, err := f.uc.Recommendation.Get(t.Context(), rec.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.RecommendationStatusCompleted)
	})
}

func TestRecommendationUseCase_Reassign(t *testing.T) {
	t.Run("mid-acceptance reassign keeps history on the old assignment", func(t *testing.T) {
		f := newFixture(t)
		_, rec := f.seedRecommendation(t)

		a, err := f.uc.Recommendation.Assign(t.Context(), rec.ID, assigneeID, time.Time{})
		gt.NoError(t, err).Required()
		_, err = f.uc.Recommendation.AcceptOrReject(t.Context(), a.ID, true)
		gt.NoError(t, err).Required()
		_, err = f.uc.Recommendation.SetTargetDate(t.Context(), a.ID, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
		gt.NoError(t, err).Required()

		next, err := f.uc.Recommendation.Reassign(t.Context(), rec.ID, otherID, "Alice moved to another site")
		gt.NoError(t, err).Required()

		history, err := f.uc.Recommendation.History(t.Context(), rec.ID)
		gt.NoError(t, err).Required()
		gt.A(t, history).Length(2).Required()
		gt.Value(t, history[0].Assignment.ID).Equal(a.ID)
		gt.Bool(t, history[0].Assignment.Superseded).True()
		gt.A(t, history[0].TargetDates).Length(1)
		gt.Value(t, history[1].Assignment.ID).Equal(next.ID)
		gt.A(t, history[1].TargetDates).Length(0)

		gt.Value(t, f.notifier.kinds(assigneeID)[len(f.notifier.kinds(assigneeID))-1]).Equal(model.NotificationUnassigned)
		gt.Value(t, f.notifier.kinds(otherID)).Equal([]model.NotificationKind{model.NotificationReassigned})

		// the old assignment can no longer be driven
		_, err = f.uc.Recommendation.Complete(t.Context(), a.ID, time.Time{})
		gt.Error(t, err).Is(model.ErrIllegalTransition)
	})
}

func TestRecommendationUseCase_Details(t *testing.T) {
	f := newFixture(t, usecase.WithHazopConfig(&config.HazopConfig{
		Departments: []config.Department{{ID: "maintenance", Name: "Maintenance"}},
	}))
	_, rec := f.seedRecommendation(t)

	_, err := f.uc.Recommendation.SetDetails(t.Context(), rec.ID, "finance", "")
	gt.Error(t, err).Is(model.ErrValidationFailed)

	got, err := f.uc.Recommendation.SetDetails(t.Context(), rec.ID, "maintenance", "Needs shutdown window")
	gt.NoError(t, err).Required()
	gt.Value(t, got.Department).Equal("maintenance")
	gt.Value(t, got.Remark).Equal("Needs shutdown window")

	_, err = f.uc.Recommendation.Dismiss(t.Context(), rec.ID, "")
	gt.Error(t, err).Is(model.ErrValidationFailed)
	dismissed, err := f.uc.Recommendation.Dismiss(t.Context(), rec.ID, "Covered by another node")
	gt.NoError(t, err).Required()
	gt.Value(t, dismissed.Status).Equal(types.RecommendationStatusRejected)

	_, err = f.uc.Recommendation.SetDetails(t.Context(), rec.ID, "maintenance", "")
	gt.Error(t, err).Is(model.ErrIllegalTransition)
}

func TestRecommendationUseCase_SendForVerification(t *testing.T) {
	f := newFixture(t)
	_, rec := f.seedRecommendation(t)

	_, err := f.uc.Recommendation.SendForVerification(t.Context(), rec.ID)
	gt.Error(t, err).Is(model.ErrIllegalTransition)

	f.completeRecommendation(t, rec.ID)
	got, err := f.uc.Recommendation.SendForVerification(t.Context(), rec.ID)
	gt.NoError(t, err).Required()
	gt.Bool(t, got.SendForVerification).True()
}

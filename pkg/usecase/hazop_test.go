package usecase_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/types"
	"github.com/secmon-lab/hazop/pkg/usecase"
)

func TestHazopUseCase_Study(t *testing.T) {
	t.Run("create requires a title", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.Hazop.CreateStudy(t.Context(), usecase.StudyInput{Title: " "})
		gt.Error(t, err).Is(model.ErrValidationFailed)
	})

	t.Run("team is deduplicated", func(t *testing.T) {
		f := newFixture(t)
		study, err := f.uc.Hazop.CreateStudy(actorCtx(t, leadID), usecase.StudyInput{Title: "Tank farm"})
		gt.NoError(t, err).Required()
		gt.Value(t, study.CreatedBy).Equal(leadID)

		updated, err := f.uc.Hazop.SetTeam(t.Context(), study.ID, []types.EmployeeID{leadID, " ", assigneeID, leadID})
		gt.NoError(t, err).Required()
		gt.Value(t, updated.Team).Equal([]types.EmployeeID{leadID, assigneeID})
		gt.Bool(t, updated.HasMember(assigneeID)).True()
	})

	t.Run("retired studies are hidden by default", func(t *testing.T) {
		f := newFixture(t)
		a, err := f.uc.Hazop.CreateStudy(t.Context(), usecase.StudyInput{Title: "A"})
		gt.NoError(t, err).Required()
		_, err = f.uc.Hazop.CreateStudy(t.Context(), usecase.StudyInput{Title: "B"})
		gt.NoError(t, err).Required()

		_, err = f.uc.Hazop.RetireStudy(t.Context(), a.ID)
		gt.NoError(t, err).Required()
		_, err = f.uc.Hazop.RetireStudy(t.Context(), a.ID)
		gt.NoError(t, err).Required()

		active, err := f.uc.Hazop.ListStudies(t.Context(), false)
		gt.NoError(t, err).Required()
		gt.A(t, active).Length(1)
		all, err := f.uc.Hazop.ListStudies(t.Context(), true)
		gt.NoError(t, err).Required()
		gt.A(t, all).Length(2)

		_, err = f.uc.Hazop.CreateNode(t.Context(), a.ID, usecase.NodeInput{Title: "N"})
		gt.Error(t, err).Is(model.ErrIllegalTransition)
	})
}

func TestHazopUseCase_Nodes(t *testing.T) {
	t.Run("numbers nodes in creation order", func(t *testing.T) {
		f := newFixture(t)
		study, first := f.seedNode(t)

		second, err := f.uc.Hazop.CreateNode(t.Context(), study.ID, usecase.NodeInput{
			Title:             "Heater H-201",
			ProcessParameters: []string{"Temperature", " ", "Pressure"},
		})
		gt.NoError(t, err).Required()
		gt.Value(t, first.NodeNumber).Equal(1)
		gt.Value(t, second.NodeNumber).Equal(2)
		gt.Value(t, second.ProcessParameters).Equal([]string{"Temperature", "Pressure"})

		nodes, err := f.uc.Hazop.ListNodes(t.Context(), study.ID)
		gt.NoError(t, err).Required()
		gt.A(t, nodes).Length(2).Required()
		gt.Value(t, nodes[1].ID).Equal(second.ID)
	})

	t.Run("complete requires saved deviations", func(t *testing.T) {
		f := newFixture(t)
		_, node := f.seedNode(t)

		_, err := f.uc.Hazop.CompleteNode(t.Context(), node.ID)
		gt.Error(t, err).Is(model.ErrNotReady)

		draft, err := f.uc.Deviation.Create(t.Context(), node.ID, model.DeviationInput{GuideWord: "No"}, true)
		gt.NoError(t, err).Required()
		_, err = f.uc.Hazop.CompleteNode(t.Context(), node.ID)
		gt.Error(t, err).Is(model.ErrNotReady)

		_, err = f.uc.Deviation.Update(t.Context(), draft.ID, 0, lowRiskInput(), false)
		gt.NoError(t, err).Required()

		done, err := f.uc.Hazop.CompleteNode(t.Context(), node.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, done.CompletionStatus).True()
		gt.Value(t, done.CompletedAt).NotNil()

		locked, err := f.uc.Deviation.Get(t.Context(), draft.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, locked.Status).Equal(types.DeviationStatusLocked)

		again, err := f.uc.Hazop.CompleteNode(t.Context(), node.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, again.Version).Equal(done.Version)

		gt.Error(t, f.uc.Deviation.Delete(t.Context(), draft.ID)).Is(model.ErrIllegalTransition)
	})
}

func TestHazopUseCase_Progress(t *testing.T) {
	f := newFixture(t)
	ctx := actorCtx(t, leadID)

	study, err := f.uc.Hazop.CreateStudy(ctx, usecase.StudyInput{Title: "Crude unit"})
	gt.NoError(t, err).Required()

	p, err := f.uc.Hazop.Progress(ctx, study.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, *p).Equal(model.Progress{StudyID: study.ID, RecommendationsComplete: true})

	_, err = f.uc.Hazop.SetTeam(ctx, study.ID, []types.EmployeeID{leadID})
	gt.NoError(t, err).Required()
	n1, err := f.uc.Hazop.CreateNode(ctx, study.ID, usecase.NodeInput{Title: "N1"})
	gt.NoError(t, err).Required()
	n2, err := f.uc.Hazop.CreateNode(ctx, study.ID, usecase.NodeInput{Title: "N2"})
	gt.NoError(t, err).Required()

	_, err = f.uc.Deviation.Create(ctx, n1.ID, escalatedInput("Fix valve\nTrain staff"), false)
	gt.NoError(t, err).Required()

	p, err = f.uc.Hazop.Progress(ctx, study.ID)
	gt.NoError(t, err).Required()
	gt.Bool(t, p.TeamCreated).True()
	gt.Bool(t, p.NodesCreated).True()
	gt.Bool(t, p.NodeDetailsCreated).False()
	gt.Bool(t, p.RecommendationsCreated).True()
	gt.Bool(t, p.RecommendationsAssigned).False()
	gt.Bool(t, p.RecommendationsComplete).False()

	_, err = f.uc.Deviation.Create(ctx, n2.ID, lowRiskInput(), false)
	gt.NoError(t, err).Required()
	recs, err := f.repo.Recommendation().ListByNode(ctx, n1.ID)
	gt.NoError(t, err).Required()
	gt.A(t, recs).Length(2).Required()

	f.completeRecommendation(t, recs[0].ID)
	_, err = f.uc.Recommendation.Assign(ctx, recs[1].ID, assigneeID, time.Time{})
	gt.NoError(t, err).Required()

	p, err = f.uc.Hazop.Progress(ctx, study.ID)
	gt.NoError(t, err).Required()
	gt.Bool(t, p.NodeDetailsCreated).True()
	gt.Bool(t, p.RecommendationsAssigned).True()
	gt.Bool(t, p.RecommendationsComplete).False()

	_, err = f.uc.Recommendation.Reassign(ctx, recs[1].ID, otherID, "handover")
	gt.NoError(t, err).Required()
	_, err = f.uc.Recommendation.AcceptOrRejectActive(ctx, recs[1].ID, false)
	gt.NoError(t, err).Required()
	_, err = f.uc.Recommendation.Dismiss(ctx, recs[1].ID, "Not required after redesign")
	gt.NoError(t, err).Required()

	p, err = f.uc.Hazop.Progress(ctx, study.ID)
	gt.NoError(t, err).Required()
	gt.Bool(t, p.RecommendationsAssigned).True()
	gt.Bool(t, p.RecommendationsComplete).True()
	gt.Bool(t, p.HazopFinalCompleted).False()
}

func TestHazopUseCase_SignOff(t *testing.T) {
	t.Run("full approval flow", func(t *testing.T) {
		f := newFixture(t)
		ctx := actorCtx(t, verifierID)
		_, rec := f.seedRecommendation(t)
		studyID := rec.StudyID

		ch, code := f.issue(t, types.ApprovalActionSendForVerification, studyID.String())
		_, err := f.uc.Hazop.SendForVerification(ctx, studyID, ch.ID, code)
		gt.Error(t, err).Is(model.ErrNotReady)

		ch, code = f.issue(t, types.ApprovalActionFinalSignOff, studyID.String())
		_, err = f.uc.Hazop.FinalSignOff(ctx, studyID, ch.ID, code)
		gt.Error(t, err).Is(model.ErrNotReady)

		f.completeRecommendation(t, rec.ID)

		sfv, code := f.issue(t, types.ApprovalActionSendForVerification, studyID.String())
		// a sign-off code cannot stand in for send-for-verification
		_, err = f.uc.Hazop.SendForVerification(ctx, studyID, ch.ID, code)
		gt.Error(t, err).Is(model.ErrOtpInvalid)

		study, err := f.uc.Hazop.SendForVerification(ctx, studyID, sfv.ID, code)
		gt.NoError(t, err).Required()
		gt.Bool(t, study.SendForVerification).True()

		signOff, code := f.issue(t, types.ApprovalActionFinalSignOff, studyID.String())
		f.clock.Advance(time.Hour)
		_, err = f.uc.Hazop.FinalSignOff(ctx, studyID, signOff.ID, code)
		gt.Error(t, err).Is(model.ErrOtpExpired)

		signOff, code = f.issue(t, types.ApprovalActionFinalSignOff, studyID.String())
		study, err = f.uc.Hazop.FinalSignOff(ctx, studyID, signOff.ID, code)
		gt.NoError(t, err).Required()
		gt.Bool(t, study.CompletionStatus).True()
		gt.Bool(t, study.VerificationActionTaken).True()
		gt.Value(t, study.SignedOffBy).Equal(verifierID)
		gt.Value(t, *study.SignedOffAt).Equal(f.clock.Now())

		p, err := f.uc.Hazop.Progress(ctx, studyID)
		gt.NoError(t, err).Required()
		gt.Bool(t, p.HazopFinalCompleted).True()

		again, err := f.uc.Hazop.FinalSignOff(ctx, studyID, "", "")
		gt.NoError(t, err).Required()
		gt.Value(t, again.Version).Equal(study.Version)

		_, err = f.uc.Hazop.SetTeam(ctx, studyID, []types.EmployeeID{otherID})
		gt.Error(t, err).Is(model.ErrIllegalTransition)
	})
}

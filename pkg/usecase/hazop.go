package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/model/auth"
	"github.com/secmon-lab/hazop/pkg/domain/types"
	"golang.org/x/sync/errgroup"
)

// progressConcurrency bounds the per-node loads of Progress
const progressConcurrency = 8

// HazopUseCase covers the study level of the workflow: team setup, nodes,
// progress and the final approvals.
type HazopUseCase struct {
	env      *env
	approval *ApprovalUseCase
}

func NewHazopUseCase(env *env, approval *ApprovalUseCase) *HazopUseCase {
	return &HazopUseCase{
		env:      env,
		approval: approval,
	}
}

// Progress recomputes the completion flags of the study from current state
func (uc *HazopUseCase) Progress(ctx context.Context, studyID types.StudyID) (*model.Progress, error) {
	study, err := uc.GetStudy(ctx, studyID)
	if err != nil {
		return nil, err
	}
	return uc.progress(ctx, study)
}

func (uc *HazopUseCase) progress(ctx context.Context, study *model.Study) (*model.Progress, error) {
	nodes, err := uc.env.repo.Node().ListByStudy(ctx, study.ID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list nodes", goerr.V(StudyIDKey, study.ID))
	}

	results := make([]model.NodeProgress, len(nodes))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(progressConcurrency)
	for i, node := range nodes {
		eg.Go(func() error {
			deviations, err := uc.env.repo.Deviation().ListByNode(ctx, node.ID)
			if err != nil {
				return goerr.Wrap(err, "failed to list deviations", goerr.V(NodeIDKey, node.ID))
			}
			recs, err := uc.env.repo.Recommendation().ListByNode(ctx, node.ID)
			if err != nil {
				return goerr.Wrap(err, "failed to list recommendations", goerr.V(NodeIDKey, node.ID))
			}
			results[i] = model.NodeProgress{
				Node:            node,
				DeviationCount:  len(deviations),
				Recommendations: recs,
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return model.ComputeProgress(study, results), nil
}

// SendForVerification hands the study to the verifier once every
// recommendation is resolved. Guarded by an OTP for the study.
func (uc *HazopUseCase) SendForVerification(ctx context.Context, studyID types.StudyID, challengeID types.ChallengeID, code string) (*model.Study, error) {
	study, err := uc.GetStudy(ctx, studyID)
	if err != nil {
		return nil, err
	}
	if study.SendForVerification {
		return study, nil
	}
	if err := requireOpenStudy(study); err != nil {
		return nil, err
	}

	if err := uc.requireResolved(ctx, study); err != nil {
		return nil, err
	}

	action := model.ActionRef{Kind: types.ApprovalActionSendForVerification, SubjectID: studyID.String()}
	challenge, err := uc.approval.Guard(ctx, challengeID, code, action)
	if err != nil {
		return nil, err
	}

	study.SendForVerification = true
	cs := &model.Changeset{Studies: []*model.Study{study}}
	if err := uc.approval.commitGuarded(ctx, cs, challenge); err != nil {
		return nil, goerr.Wrap(err, "failed to send study for verification", goerr.V(StudyIDKey, studyID))
	}
	return study, nil
}

// FinalSignOff closes the study. It requires a prior SendForVerification
// and is guarded by an OTP for the study. Signing off twice is a no-op.
func (uc *HazopUseCase) FinalSignOff(ctx context.Context, studyID types.StudyID, challengeID types.ChallengeID, code string) (*model.Study, error) {
	study, err := uc.GetStudy(ctx, studyID)
	if err != nil {
		return nil, err
	}
	if study.CompletionStatus {
		return study, nil
	}
	if study.Retired {
		return nil, model.NewTransitionError("retired", "signed_off", goerr.V(StudyIDKey, studyID))
	}
	if !study.SendForVerification {
		return nil, goerr.Wrap(model.ErrNotReady, "study has not been sent for verification",
			goerr.V(StudyIDKey, studyID))
	}

	if err := uc.requireResolved(ctx, study); err != nil {
		return nil, err
	}

	action := model.ActionRef{Kind: types.ApprovalActionFinalSignOff, SubjectID: studyID.String()}
	challenge, err := uc.approval.Guard(ctx, challengeID, code, action)
	if err != nil {
		return nil, err
	}

	now := uc.env.now()
	study.CompletionStatus = true
	study.VerificationActionTaken = true
	study.SignedOffBy = auth.ActorID(ctx)
	study.SignedOffAt = &now

	cs := &model.Changeset{Studies: []*model.Study{study}}
	if err := uc.approval.commitGuarded(ctx, cs, challenge); err != nil {
		return nil, goerr.Wrap(err, "failed to sign off study", goerr.V(StudyIDKey, studyID))
	}
	return study, nil
}

func (uc *HazopUseCase) requireResolved(ctx context.Context, study *model.Study) error {
	progress, err := uc.progress(ctx, study)
	if err != nil {
		return err
	}
	if !progress.RecommendationsComplete {
		return goerr.Wrap(model.ErrNotReady, "recommendations are not completed",
			goerr.V(StudyIDKey, study.ID))
	}
	return nil
}

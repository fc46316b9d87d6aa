package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/model/auth"
	"github.com/secmon-lab/hazop/pkg/domain/types"
	"github.com/secmon-lab/hazop/pkg/utils/logging"
)

// ApprovalUseCase issues and redeems one-time passcodes for guarded actions
type ApprovalUseCase struct {
	env *env
}

func NewApprovalUseCase(env *env) *ApprovalUseCase {
	return &ApprovalUseCase{env: env}
}

// Issue creates a challenge for the action and sends the code to the
// recipient. Delivery is best-effort: the challenge is returned even when
// the notifier fails.
func (uc *ApprovalUseCase) Issue(ctx context.Context, action model.ActionRef, recipient types.EmployeeID) (*model.Challenge, error) {
	if err := action.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(recipient.String()) == "" {
		return nil, model.NewValidationError("recipient")
	}
	if err := uc.checkSubject(ctx, action); err != nil {
		return nil, err
	}

	otp := uc.env.cfg.OTP
	challenge, code, err := model.NewChallenge(action, recipient, uc.env.now(), otp.TTL, otp.Digits, otp.MaxAttempts)
	if err != nil {
		return nil, err
	}

	if err := uc.env.commit(ctx, &model.Changeset{Challenges: []*model.Challenge{challenge}}); err != nil {
		return nil, goerr.Wrap(err, "failed to save challenge", goerr.V(ChallengeIDKey, challenge.ID))
	}

	logging.From(ctx).Info("otp challenge issued",
		"challenge_id", challenge.ID,
		"action", action.String(),
		"recipient", recipient,
	)

	uc.env.notify(ctx, &model.Notification{
		Kind:      model.NotificationOTP,
		Recipient: recipient,
		Subject:   "Approval code",
		Body: fmt.Sprintf("Your approval code for %s is %s. It expires at %s.",
			describeAction(action), code, challenge.ExpiresAt.Format("15:04 MST")),
		Code: code,
	})

	return challenge, nil
}

// Redeem consumes the challenge without applying any transition
func (uc *ApprovalUseCase) Redeem(ctx context.Context, challengeID types.ChallengeID, code string, action model.ActionRef) error {
	challenge, err := uc.Guard(ctx, challengeID, code, action)
	if err != nil {
		return err
	}
	return uc.commitGuarded(ctx, &model.Changeset{}, challenge)
}

// Guard checks the code for the action and returns the challenge marked as
// consumed. The caller adds it to the changeset of the guarded transition
// with commitGuarded, so the gate and the transition are written together.
// A wrong code counts against the challenge's attempt budget. An
// authenticated caller other than the recipient is refused.
func (uc *ApprovalUseCase) Guard(ctx context.Context, challengeID types.ChallengeID, code string, action model.ActionRef) (*model.Challenge, error) {
	if challengeID == "" {
		return nil, goerr.Wrap(model.ErrOtpInvalid, "challenge id is required")
	}

	challenge, err := uc.env.repo.Challenge().Get(ctx, challengeID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, goerr.Wrap(model.ErrOtpInvalid, "unknown challenge", goerr.V(ChallengeIDKey, challengeID))
		}
		return nil, goerr.Wrap(err, "failed to get challenge", goerr.V(ChallengeIDKey, challengeID))
	}

	// Only the recipient may redeem. Anonymous contexts are internal callers.
	if actor := auth.ActorID(ctx); actor != "" && actor != challenge.Recipient {
		return nil, goerr.Wrap(model.ErrOtpInvalid, "challenge issued to another employee",
			goerr.V(ChallengeIDKey, challengeID), goerr.V("actor", actor))
	}

	now := uc.env.now()
	if err := challenge.Check(code, action, now); err != nil {
		if errors.Is(err, model.ErrOtpInvalid) {
			uc.recordFailure(ctx, challenge)
		}
		return nil, err
	}

	challenge.Consume(now)
	return challenge, nil
}

func (uc *ApprovalUseCase) recordFailure(ctx context.Context, challenge *model.Challenge) {
	challenge.RecordFailure(uc.env.now())
	cs := &model.Changeset{Challenges: []*model.Challenge{challenge}}
	if err := uc.env.commit(ctx, cs); err != nil {
		// A concurrent redemption already moved the challenge on
		logging.From(ctx).Warn("failed to record otp failure",
			"challenge_id", challenge.ID, "error", err.Error())
		return
	}
	if challenge.Consumed {
		logging.From(ctx).Warn("otp challenge burned after failed attempts",
			"challenge_id", challenge.ID, "attempts", challenge.FailedAttempts)
	}
}

// commitGuarded commits cs together with the consumed challenge. When the
// commit loses a race and the challenge turns out to be consumed by someone
// else, ErrOtpAlreadyConsumed is returned instead of ErrConflict.
func (uc *ApprovalUseCase) commitGuarded(ctx context.Context, cs *model.Changeset, challenge *model.Challenge) error {
	cs.Challenges = append(cs.Challenges, challenge)
	cs.At = uc.env.now()
	err := uc.env.repo.Commit(ctx, cs)
	if err == nil || !errors.Is(err, model.ErrConflict) {
		return err
	}

	current, getErr := uc.env.repo.Challenge().Get(ctx, challenge.ID)
	if getErr != nil {
		return goerr.Wrap(err, "failed to re-read challenge after conflict",
			goerr.V(ChallengeIDKey, challenge.ID), goerr.V("get_error", getErr.Error()))
	}
	if current.Consumed {
		return goerr.Wrap(model.ErrOtpAlreadyConsumed, "challenge consumed concurrently",
			goerr.V(ChallengeIDKey, challenge.ID))
	}
	return err
}

func (uc *ApprovalUseCase) checkSubject(ctx context.Context, action model.ActionRef) error {
	switch action.Kind {
	case types.ApprovalActionVerifyRecommendation:
		if _, err := uc.env.repo.Recommendation().Get(ctx, types.RecommendationID(action.SubjectID)); err != nil {
			return goerr.Wrap(err, "failed to get recommendation", goerr.V(RecommendationIDKey, action.SubjectID))
		}
	default:
		if _, err := uc.env.repo.Study().Get(ctx, types.StudyID(action.SubjectID)); err != nil {
			return goerr.Wrap(err, "failed to get study", goerr.V(StudyIDKey, action.SubjectID))
		}
	}
	return nil
}

func describeAction(action model.ActionRef) string {
	switch action.Kind {
	case types.ApprovalActionVerifyRecommendation:
		return "recommendation verification"
	case types.ApprovalActionSendForVerification:
		return "sending the study for verification"
	case types.ApprovalActionFinalSignOff:
		return "final sign-off"
	default:
		return action.Kind.String()
	}
}

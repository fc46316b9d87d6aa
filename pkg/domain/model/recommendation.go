package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/domain/types"
)

// Recommendation is one corrective action derived from a line of a
// deviation's additional-control text.
type Recommendation struct {
	ID          types.RecommendationID
	DeviationID types.DeviationID
	NodeID      types.NodeID
	StudyID     types.StudyID
	Position    int // line index in the additional-control text
	Action      string
	Remark      string
	Department  string
	Status      types.RecommendationStatus

	SendForVerification       bool
	SendForVerificationAction types.VerificationAction
	VerificationRemark        string
	CompletionStatus          bool
	CompletionDate            *time.Time

	ActiveAssignmentID  types.AssignmentID
	PendingReassignment bool

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewRecommendation creates an unassigned recommendation for a deviation line
func NewRecommendation(d *Deviation, position int, action string) *Recommendation {
	return &Recommendation{
		ID:          types.NewRecommendationID(),
		DeviationID: d.ID,
		NodeID:      d.NodeID,
		StudyID:     d.StudyID,
		Position:    position,
		Action:      action,
		Status:      types.RecommendationStatusUnassigned,
	}
}

var recommendationTransitions = map[types.RecommendationStatus][]types.RecommendationStatus{
	types.RecommendationStatusUnassigned: {
		types.RecommendationStatusAssigned,
		types.RecommendationStatusRejected,
	},
	types.RecommendationStatusAssigned: {
		types.RecommendationStatusAssigned,
		types.RecommendationStatusAccepted,
		types.RecommendationStatusUnassigned,
	},
	types.RecommendationStatusAccepted: {
		types.RecommendationStatusAssigned,
		types.RecommendationStatusCompleted,
	},
	types.RecommendationStatusCompleted: {
		types.RecommendationStatusAssigned,
		types.RecommendationStatusUnassigned,
		types.RecommendationStatusVerifiedApproved,
	},
}

// CanTransition reports whether the recommendation may move to the status
func (r *Recommendation) CanTransition(to types.RecommendationStatus) bool {
	for _, s := range recommendationTransitions[r.Status] {
		if s == to {
			return true
		}
	}
	return false
}

// TransitionTo moves the recommendation to the status or returns
// ErrIllegalTransition without changing it.
func (r *Recommendation) TransitionTo(to types.RecommendationStatus) error {
	if !r.CanTransition(to) {
		return NewTransitionError(r.Status.String(), to.String(),
			goerr.V(IDKey, r.ID.String()))
	}
	r.Status = to
	return nil
}

// IsEditable reports whether the action text may still follow its source line
func (r *Recommendation) IsEditable() bool {
	return r.Status == types.RecommendationStatusUnassigned && !r.PendingReassignment
}

// MarkCompleted records completion on the recommendation
func (r *Recommendation) MarkCompleted(date time.Time) error {
	if err := r.TransitionTo(types.RecommendationStatusCompleted); err != nil {
		return err
	}
	r.CompletionStatus = true
	r.CompletionDate = &date
	return nil
}

// RevokeCompletion returns a completed recommendation to the pool after the
// verifier rejected it. A new assignee must be chosen with a reassignment.
func (r *Recommendation) RevokeCompletion(remark string) error {
	if err := r.TransitionTo(types.RecommendationStatusUnassigned); err != nil {
		return err
	}
	r.CompletionStatus = false
	r.CompletionDate = nil
	r.PendingReassignment = true
	r.ActiveAssignmentID = ""
	r.SendForVerificationAction = types.VerificationActionRejected
	r.VerificationRemark = remark
	return nil
}

// Approve closes the recommendation as verified
func (r *Recommendation) Approve(remark string) error {
	if err := r.TransitionTo(types.RecommendationStatusVerifiedApproved); err != nil {
		return err
	}
	r.SendForVerificationAction = types.VerificationActionApproved
	r.VerificationRemark = remark
	return nil
}

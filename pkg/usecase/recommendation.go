package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/model/auth"
	"github.com/secmon-lab/hazop/pkg/domain/types"
	"github.com/secmon-lab/hazop/pkg/utils/logging"
)

// RecommendationUseCase drives a recommendation through assignment,
// completion and verification
type RecommendationUseCase struct {
	env      *env
	approval *ApprovalUseCase
}

func NewRecommendationUseCase(env *env, approval *ApprovalUseCase) *RecommendationUseCase {
	return &RecommendationUseCase{
		env:      env,
		approval: approval,
	}
}

func (uc *RecommendationUseCase) Get(ctx context.Context, id types.RecommendationID) (*model.Recommendation, error) {
	r, err := uc.env.repo.Recommendation().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get recommendation", goerr.V(RecommendationIDKey, id))
	}
	return r, nil
}

// History returns every assignment of the recommendation, oldest first,
// with the target dates set under each
func (uc *RecommendationUseCase) History(ctx context.Context, id types.RecommendationID) ([]*model.AssignmentHistory, error) {
	if _, err := uc.Get(ctx, id); err != nil {
		return nil, err
	}

	chain, err := uc.env.repo.Assignment().ListByRecommendation(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list assignments", goerr.V(RecommendationIDKey, id))
	}

	history := make([]*model.AssignmentHistory, 0, len(chain))
	for _, a := range chain {
		dates, err := uc.env.repo.Assignment().ListTargetDates(ctx, a.ID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list target dates", goerr.V(AssignmentIDKey, a.ID))
		}
		history = append(history, &model.AssignmentHistory{Assignment: a, TargetDates: dates})
	}
	return history, nil
}

// GetAssignment returns one assignment of any recommendation
func (uc *RecommendationUseCase) GetAssignment(ctx context.Context, id types.AssignmentID) (*model.Assignment, error) {
	a, err := uc.env.repo.Assignment().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get assignment", goerr.V(AssignmentIDKey, id))
	}
	return a, nil
}

// Assign hands an unassigned recommendation to assignee. Calling it again
// while the assignment is still pending replaces the assignee in place.
// A recommendation rejected at verification must go through Reassign.
func (uc *RecommendationUseCase) Assign(ctx context.Context, id types.RecommendationID, assignee types.EmployeeID, workDate time.Time) (*model.Assignment, error) {
	if strings.TrimSpace(assignee.String()) == "" {
		return nil, model.NewValidationError("assigneeId")
	}

	r, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.PendingReassignment {
		return nil, model.NewTransitionError(r.Status.String(), types.RecommendationStatusAssigned.String(),
			goerr.V(RecommendationIDKey, id), goerr.V("reason", "reassignment required"))
	}
	if workDate.IsZero() {
		workDate = uc.env.now()
	}
	workDate = model.DateOf(workDate)

	switch r.Status {
	case types.RecommendationStatusAssigned:
		return uc.replacePendingAssignee(ctx, r, assignee, workDate)
	case types.RecommendationStatusUnassigned:
	default:
		return nil, model.NewTransitionError(r.Status.String(), types.RecommendationStatusAssigned.String(),
			goerr.V(RecommendationIDKey, id))
	}

	chain, err := uc.env.repo.Assignment().ListByRecommendation(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list assignments", goerr.V(RecommendationIDKey, id))
	}

	a := model.NewAssignment(id, len(chain)+1, assignee, auth.ActorID(ctx), workDate, "")
	if err := r.TransitionTo(types.RecommendationStatusAssigned); err != nil {
		return nil, err
	}
	r.ActiveAssignmentID = a.ID

	cs := &model.Changeset{
		Recommendations: []*model.Recommendation{r},
		Assignments:     []*model.Assignment{a},
	}
	if err := uc.env.commit(ctx, cs); err != nil {
		return nil, goerr.Wrap(err, "failed to assign recommendation", goerr.V(RecommendationIDKey, id))
	}

	uc.env.notify(ctx, recommendationNotice(model.NotificationAssigned, assignee, r,
		"You have been assigned a HAZOP recommendation"))
	return a, nil
}

func (uc *RecommendationUseCase) replacePendingAssignee(ctx context.Context, r *model.Recommendation, assignee types.EmployeeID, workDate time.Time) (*model.Assignment, error) {
	a, err := uc.activeAssignment(ctx, r)
	if err != nil {
		return nil, err
	}
	if a.AcceptanceStatus != types.AcceptanceStatusPending {
		return nil, model.NewTransitionError(a.AcceptanceStatus.String(), types.RecommendationStatusAssigned.String(),
			goerr.V(RecommendationIDKey, r.ID), goerr.V(AssignmentIDKey, a.ID))
	}
	if a.AssigneeID == assignee {
		return a, nil
	}

	previous := a.AssigneeID
	a.AssigneeID = assignee
	a.AssignedBy = auth.ActorID(ctx)
	a.AssignWorkDate = workDate

	if err := uc.env.commit(ctx, &model.Changeset{Assignments: []*model.Assignment{a}}); err != nil {
		return nil, goerr.Wrap(err, "failed to replace assignee", goerr.V(AssignmentIDKey, a.ID))
	}

	uc.env.notify(ctx, recommendationNotice(model.NotificationUnassigned, previous, r,
		"A HAZOP recommendation assigned to you has been given to someone else"))
	uc.env.notify(ctx, recommendationNotice(model.NotificationAssigned, assignee, r,
		"You have been assigned a HAZOP recommendation"))
	return a, nil
}

// AcceptOrReject records the assignee's answer to a pending assignment.
// Rejecting returns the recommendation to the unassigned pool.
func (uc *RecommendationUseCase) AcceptOrReject(ctx context.Context, assignmentID types.AssignmentID, accept bool) (*model.Assignment, error) {
	a, r, err := uc.loadAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	to := types.AcceptanceStatusRejected
	if accept {
		to = types.AcceptanceStatusAccepted
	}
	if !a.IsActive() || a.AcceptanceStatus != types.AcceptanceStatusPending ||
		r.Status != types.RecommendationStatusAssigned || r.ActiveAssignmentID != a.ID {
		return nil, model.NewTransitionError(a.AcceptanceStatus.String(), to.String(),
			goerr.V(AssignmentIDKey, a.ID), goerr.V(RecommendationIDKey, r.ID))
	}

	a.AcceptanceStatus = to
	if accept {
		err = r.TransitionTo(types.RecommendationStatusAccepted)
	} else {
		err = r.TransitionTo(types.RecommendationStatusUnassigned)
		r.ActiveAssignmentID = ""
	}
	if err != nil {
		return nil, err
	}

	cs := &model.Changeset{
		Recommendations: []*model.Recommendation{r},
		Assignments:     []*model.Assignment{a},
	}
	if err := uc.env.commit(ctx, cs); err != nil {
		return nil, goerr.Wrap(err, "failed to answer assignment", goerr.V(AssignmentIDKey, a.ID))
	}

	uc.env.notify(ctx, recommendationNotice(model.NotificationAssignmentAnswered, a.AssignedBy, r,
		fmt.Sprintf("<@%s> %s the recommendation", a.AssigneeID, to)))
	return a, nil
}

// AcceptOrRejectActive answers the recommendation's active assignment
func (uc *RecommendationUseCase) AcceptOrRejectActive(ctx context.Context, id types.RecommendationID, accept bool) (*model.Assignment, error) {
	assignmentID, err := uc.activeAssignmentID(ctx, id, "answered")
	if err != nil {
		return nil, err
	}
	return uc.AcceptOrReject(ctx, assignmentID, accept)
}

// SetTargetDate appends a target date to an accepted assignment. The date
// must not be before today. Repeating the latest date is a no-op.
func (uc *RecommendationUseCase) SetTargetDate(ctx context.Context, assignmentID types.AssignmentID, date time.Time) (*model.TargetDateRecord, error) {
	a, r, err := uc.loadAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if !a.IsActive() || a.AcceptanceStatus != types.AcceptanceStatusAccepted ||
		r.Status != types.RecommendationStatusAccepted || r.ActiveAssignmentID != a.ID {
		return nil, model.NewTransitionError(r.Status.String(), "target_date_set",
			goerr.V(AssignmentIDKey, a.ID), goerr.V(RecommendationIDKey, r.ID))
	}

	if date.IsZero() {
		return nil, model.NewValidationError("targetDate")
	}
	date = model.DateOf(date)
	if date.Before(model.DateOf(uc.env.now())) {
		return nil, model.NewValidationError("targetDate", goerr.V("date", date.Format(time.DateOnly)))
	}

	records, err := uc.env.repo.Assignment().ListTargetDates(ctx, a.ID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list target dates", goerr.V(AssignmentIDKey, a.ID))
	}
	if n := len(records); n > 0 && records[n-1].Date.Equal(date) {
		return records[n-1], nil
	}

	record := &model.TargetDateRecord{
		ID:           types.NewTargetDateID(),
		AssignmentID: a.ID,
		Seq:          len(records) + 1,
		Date:         date,
		SetBy:        auth.ActorID(ctx),
	}
	a.TargetDate = &date

	cs := &model.Changeset{
		Assignments: []*model.Assignment{a},
		TargetDates: []*model.TargetDateRecord{record},
	}
	if err := uc.env.commit(ctx, cs); err != nil {
		return nil, goerr.Wrap(err, "failed to set target date", goerr.V(AssignmentIDKey, a.ID))
	}
	return record, nil
}

// Complete marks the work of an accepted assignment as done. Completing the
// same assignment again is a no-op.
func (uc *RecommendationUseCase) Complete(ctx context.Context, assignmentID types.AssignmentID, date time.Time) (*model.Recommendation, error) {
	a, r, err := uc.loadAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if r.Status == types.RecommendationStatusCompleted && r.ActiveAssignmentID == a.ID {
		return r, nil
	}
	if !a.IsActive() || a.AcceptanceStatus != types.AcceptanceStatusAccepted || r.ActiveAssignmentID != a.ID {
		return nil, model.NewTransitionError(r.Status.String(), types.RecommendationStatusCompleted.String(),
			goerr.V(AssignmentIDKey, a.ID), goerr.V(RecommendationIDKey, r.ID))
	}

	if date.IsZero() {
		date = uc.env.now()
	}
	date = model.DateOf(date)
	if err := r.MarkCompleted(date); err != nil {
		return nil, err
	}
	a.CompletionDate = &date

	cs := &model.Changeset{
		Recommendations: []*model.Recommendation{r},
		Assignments:     []*model.Assignment{a},
	}
	if err := uc.env.commit(ctx, cs); err != nil {
		return nil, goerr.Wrap(err, "failed to complete recommendation", goerr.V(RecommendationIDKey, r.ID))
	}
	return r, nil
}

// CompleteActive completes the recommendation's active assignment
func (uc *RecommendationUseCase) CompleteActive(ctx context.Context, id types.RecommendationID, date time.Time) (*model.Recommendation, error) {
	r, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status == types.RecommendationStatusCompleted {
		return r, nil
	}
	assignmentID, err := uc.activeAssignmentID(ctx, id, types.RecommendationStatusCompleted.String())
	if err != nil {
		return nil, err
	}
	return uc.Complete(ctx, assignmentID, date)
}

// SendForVerification flags a completed recommendation for the verifier
func (uc *RecommendationUseCase) SendForVerification(ctx context.Context, id types.RecommendationID) (*model.Recommendation, error) {
	r, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status != types.RecommendationStatusCompleted {
		return nil, model.NewTransitionError(r.Status.String(), "sent_for_verification",
			goerr.V(RecommendationIDKey, id))
	}
	if r.SendForVerification {
		return r, nil
	}
	r.SendForVerification = true

	if err := uc.env.commit(ctx, &model.Changeset{Recommendations: []*model.Recommendation{r}}); err != nil {
		return nil, goerr.Wrap(err, "failed to send recommendation for verification", goerr.V(RecommendationIDKey, id))
	}
	return r, nil
}

// VerifyInput is the verifier's decision together with the OTP proving it
type VerifyInput struct {
	Approve     bool
	Remark      string
	ChallengeID types.ChallengeID
	Code        string
}

// Verify approves or rejects a completed recommendation. Rejection revokes
// the completion and requires a Reassign before work resumes. The OTP is
// consumed in the same commit as the decision.
func (uc *RecommendationUseCase) Verify(ctx context.Context, id types.RecommendationID, in VerifyInput) (*model.Recommendation, error) {
	r, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	remark := strings.TrimSpace(in.Remark)
	switch {
	case in.Approve && r.Status == types.RecommendationStatusVerifiedApproved:
		return r, nil
	case !in.Approve && r.PendingReassignment && r.SendForVerificationAction == types.VerificationActionRejected:
		return r, nil
	}

	target := types.RecommendationStatusVerifiedApproved
	if !in.Approve {
		target = types.RecommendationStatusUnassigned
	}
	if r.Status != types.RecommendationStatusCompleted {
		return nil, model.NewTransitionError(r.Status.String(), target.String(), goerr.V(RecommendationIDKey, id))
	}
	if !in.Approve && remark == "" {
		return nil, model.NewValidationError("remark")
	}

	action := model.ActionRef{Kind: types.ApprovalActionVerifyRecommendation, SubjectID: id.String()}
	challenge, err := uc.approval.Guard(ctx, in.ChallengeID, in.Code, action)
	if err != nil {
		return nil, err
	}

	cs := &model.Changeset{Recommendations: []*model.Recommendation{r}}
	var assignee types.EmployeeID
	if in.Approve {
		if err := r.Approve(remark); err != nil {
			return nil, err
		}
	} else {
		a, err := uc.activeAssignment(ctx, r)
		if err != nil {
			return nil, err
		}
		a.Supersede(uc.env.now())
		cs.Assignments = append(cs.Assignments, a)
		if err := r.RevokeCompletion(remark); err != nil {
			return nil, err
		}
	}
	if a, err := uc.lastAssignment(ctx, r.ID); err == nil && a != nil {
		assignee = a.AssigneeID
	}

	if err := uc.approval.commitGuarded(ctx, cs, challenge); err != nil {
		return nil, goerr.Wrap(err, "failed to verify recommendation", goerr.V(RecommendationIDKey, id))
	}

	logging.From(ctx).Info("recommendation verified",
		"recommendation_id", r.ID,
		"approved", in.Approve,
		"verifier", auth.ActorID(ctx),
	)

	if in.Approve {
		uc.env.notify(ctx, recommendationNotice(model.NotificationVerified, assignee, r,
			"Your completed HAZOP recommendation was approved"))
	} else {
		uc.env.notify(ctx, recommendationNotice(model.NotificationVerifyRejected, assignee, r,
			"Your completed HAZOP recommendation was rejected at verification: "+remark))
	}
	return r, nil
}

// Reassign moves a recommendation to a new assignee. The active assignment,
// if any, is superseded with its target date history; the new one starts
// pending and empty.
func (uc *RecommendationUseCase) Reassign(ctx context.Context, id types.RecommendationID, assignee types.EmployeeID, comment string) (*model.Assignment, error) {
	if strings.TrimSpace(assignee.String()) == "" {
		return nil, model.NewValidationError("assigneeId")
	}
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, model.NewValidationError("comment")
	}

	r, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status.IsTerminal() {
		return nil, model.NewTransitionError(r.Status.String(), types.RecommendationStatusAssigned.String(),
			goerr.V(RecommendationIDKey, id))
	}

	chain, err := uc.env.repo.Assignment().ListByRecommendation(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list assignments", goerr.V(RecommendationIDKey, id))
	}

	cs := &model.Changeset{Recommendations: []*model.Recommendation{r}}
	var previous types.EmployeeID
	for _, a := range chain {
		if a.ID == r.ActiveAssignmentID && a.IsActive() {
			a.Supersede(uc.env.now())
			cs.Assignments = append(cs.Assignments, a)
			previous = a.AssigneeID
		}
	}

	next := model.NewAssignment(id, len(chain)+1, assignee, auth.ActorID(ctx), model.DateOf(uc.env.now()), comment)
	cs.Assignments = append(cs.Assignments, next)

	if err := r.TransitionTo(types.RecommendationStatusAssigned); err != nil {
		return nil, err
	}
	r.ActiveAssignmentID = next.ID
	r.PendingReassignment = false
	r.CompletionStatus = false
	r.CompletionDate = nil
	r.SendForVerification = false

	if err := uc.env.commit(ctx, cs); err != nil {
		return nil, goerr.Wrap(err, "failed to reassign recommendation", goerr.V(RecommendationIDKey, id))
	}

	if previous != "" && previous != assignee {
		uc.env.notify(ctx, recommendationNotice(model.NotificationUnassigned, previous, r,
			"A HAZOP recommendation has been reassigned away from you: "+comment))
	}
	uc.env.notify(ctx, recommendationNotice(model.NotificationReassigned, assignee, r,
		"A HAZOP recommendation has been reassigned to you: "+comment))
	return next, nil
}

// Dismiss closes an unassigned recommendation without action. One awaiting
// reassignment after a failed verification must be reassigned instead.
func (uc *RecommendationUseCase) Dismiss(ctx context.Context, id types.RecommendationID, remark string) (*model.Recommendation, error) {
	remark = strings.TrimSpace(remark)
	if remark == "" {
		return nil, model.NewValidationError("remark")
	}

	r, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status == types.RecommendationStatusRejected {
		return r, nil
	}
	// A verify-rejected recommendation must be reassigned, not closed
	if !isPristine(r) {
		return nil, model.NewTransitionError(r.Status.String(), types.RecommendationStatusRejected.String(),
			goerr.V(RecommendationIDKey, id))
	}
	if err := r.TransitionTo(types.RecommendationStatusRejected); err != nil {
		return nil, err
	}
	r.Remark = remark

	if err := uc.env.commit(ctx, &model.Changeset{Recommendations: []*model.Recommendation{r}}); err != nil {
		return nil, goerr.Wrap(err, "failed to dismiss recommendation", goerr.V(RecommendationIDKey, id))
	}
	return r, nil
}

// SetDetails updates the routing department and the remark
func (uc *RecommendationUseCase) SetDetails(ctx context.Context, id types.RecommendationID, department, remark string) (*model.Recommendation, error) {
	department = strings.TrimSpace(department)
	if department != "" && !uc.env.cfg.HasDepartment(department) {
		return nil, model.NewValidationError("department", goerr.V("department", department))
	}

	r, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status.IsTerminal() {
		return nil, model.NewTransitionError(r.Status.String(), "updated", goerr.V(RecommendationIDKey, id))
	}

	r.Department = department
	r.Remark = strings.TrimSpace(remark)
	if err := uc.env.commit(ctx, &model.Changeset{Recommendations: []*model.Recommendation{r}}); err != nil {
		return nil, goerr.Wrap(err, "failed to update recommendation", goerr.V(RecommendationIDKey, id))
	}
	return r, nil
}

func (uc *RecommendationUseCase) loadAssignment(ctx context.Context, id types.AssignmentID) (*model.Assignment, *model.Recommendation, error) {
	a, err := uc.env.repo.Assignment().Get(ctx, id)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to get assignment", goerr.V(AssignmentIDKey, id))
	}
	r, err := uc.Get(ctx, a.RecommendationID)
	if err != nil {
		return nil, nil, err
	}
	return a, r, nil
}

func (uc *RecommendationUseCase) activeAssignment(ctx context.Context, r *model.Recommendation) (*model.Assignment, error) {
	if r.ActiveAssignmentID == "" {
		return nil, model.NewTransitionError(r.Status.String(), "no_active_assignment",
			goerr.V(RecommendationIDKey, r.ID))
	}
	a, err := uc.env.repo.Assignment().Get(ctx, r.ActiveAssignmentID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get active assignment",
			goerr.V(RecommendationIDKey, r.ID), goerr.V(AssignmentIDKey, r.ActiveAssignmentID))
	}
	return a, nil
}

func (uc *RecommendationUseCase) activeAssignmentID(ctx context.Context, id types.RecommendationID, to string) (types.AssignmentID, error) {
	r, err := uc.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if r.ActiveAssignmentID == "" {
		return "", model.NewTransitionError(r.Status.String(), to, goerr.V(RecommendationIDKey, id))
	}
	return r.ActiveAssignmentID, nil
}

func (uc *RecommendationUseCase) lastAssignment(ctx context.Context, id types.RecommendationID) (*model.Assignment, error) {
	chain, err := uc.env.repo.Assignment().ListByRecommendation(ctx, id)
	if err != nil || len(chain) == 0 {
		return nil, err
	}
	return chain[len(chain)-1], nil
}

func recommendationNotice(kind model.NotificationKind, to types.EmployeeID, r *model.Recommendation, headline string) *model.Notification {
	return &model.Notification{
		Kind:           kind,
		Recipient:      to,
		Subject:        headline,
		Body:           fmt.Sprintf("%s %s\n>%s", r.Status.Emoji(), headline, r.Action),
		Recommendation: r,
	}
}

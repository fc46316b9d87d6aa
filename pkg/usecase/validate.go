package usecase

import (
	"context"
	"fmt"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/types"
)

// ValidationIssue represents a single inconsistency found in stored data
type ValidationIssue struct {
	StudyID  types.StudyID
	Entity   string
	EntityID string
	Message  string
	Expected string
	Actual   string
}

// ValidationResult holds the results of DB validation
type ValidationResult struct {
	Issues []ValidationIssue
}

// HasIssues returns true if there are any validation issues
func (r *ValidationResult) HasIssues() bool {
	return len(r.Issues) > 0
}

// AddIssue adds a validation issue to the result
func (r *ValidationResult) AddIssue(issue ValidationIssue) {
	r.Issues = append(r.Issues, issue)
}

// ValidateDB walks every study and reports records that break the workflow
// rules: gaps in deviation sequences, ratings that disagree with their
// selectors, lock state out of step with the node, and recommendations
// whose active assignment or department is inconsistent.
// It does NOT modify any data.
func (uc *UseCases) ValidateDB(ctx context.Context) (*ValidationResult, error) {
	result := &ValidationResult{}

	studies, err := uc.repo.Study().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list studies")
	}

	for _, study := range studies {
		nodes, err := uc.repo.Node().ListByStudy(ctx, study.ID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list nodes", goerr.V(StudyIDKey, study.ID))
		}
		for _, node := range nodes {
			if err := uc.validateNode(ctx, study, node, result); err != nil {
				return nil, err
			}
		}
	}

	return result, nil
}

func (uc *UseCases) validateNode(ctx context.Context, study *model.Study, node *model.Node, result *ValidationResult) error {
	deviations, err := uc.repo.Deviation().ListByNode(ctx, node.ID)
	if err != nil {
		return goerr.Wrap(err, "failed to list deviations", goerr.V(NodeIDKey, node.ID))
	}

	issue := func(entity, id, msg, expected, actual string) {
		result.AddIssue(ValidationIssue{
			StudyID:  study.ID,
			Entity:   entity,
			EntityID: id,
			Message:  msg,
			Expected: expected,
			Actual:   actual,
		})
	}

	for i, d := range deviations {
		if d.SequenceNumber != i+1 {
			issue("deviation", d.ID.String(), "sequence number is not dense",
				strconv.Itoa(i+1), strconv.Itoa(d.SequenceNumber))
		}
		if node.CompletionStatus != d.IsLocked() {
			issue("deviation", d.ID.String(), "lock state differs from node completion",
				fmt.Sprintf("locked=%t", node.CompletionStatus), d.Status.String())
		}
		if d.Status == types.DeviationStatusDraft {
			continue
		}

		if r, err := types.Score(d.ExistingProbability, d.ExistingSeverity); err != nil || r != d.InitialRisk {
			issue("deviation", d.ID.String(), "initial risk does not match selectors",
				fmt.Sprintf("%d", int(d.ExistingProbability)*int(d.ExistingSeverity)), strconv.Itoa(int(d.InitialRisk)))
		}
		if !d.IsEscalated() && (d.AdditionalProbability != 0 || d.AdditionalSeverity != 0 || d.FinalRisk != 0) {
			issue("deviation", d.ID.String(), "additional assessment set below escalation threshold",
				"0", strconv.Itoa(int(d.FinalRisk)))
		}
	}

	recs, err := uc.repo.Recommendation().ListByNode(ctx, node.ID)
	if err != nil {
		return goerr.Wrap(err, "failed to list recommendations", goerr.V(NodeIDKey, node.ID))
	}
	for _, r := range recs {
		if r.Department != "" && !uc.hazopConfig.HasDepartment(r.Department) {
			issue("recommendation", r.ID.String(), "department is not configured", "configured department", r.Department)
		}
		if r.Status == types.RecommendationStatusCompleted && r.CompletionDate == nil {
			issue("recommendation", r.ID.String(), "completed without completion date", "date", "<nil>")
		}

		chain, err := uc.repo.Assignment().ListByRecommendation(ctx, r.ID)
		if err != nil {
			return goerr.Wrap(err, "failed to list assignments", goerr.V(RecommendationIDKey, r.ID))
		}
		active := 0
		for _, a := range chain {
			if a.IsActive() {
				active++
				if a.ID != r.ActiveAssignmentID {
					issue("assignment", a.ID.String(), "active assignment is not referenced by its recommendation",
						a.ID.String(), r.ActiveAssignmentID.String())
				}
			}
		}
		if active > 1 {
			issue("recommendation", r.ID.String(), "more than one active assignment", "1", strconv.Itoa(active))
		}

		needsActive := r.Status == types.RecommendationStatusAssigned ||
			r.Status == types.RecommendationStatusAccepted ||
			r.Status == types.RecommendationStatusCompleted
		if needsActive && r.ActiveAssignmentID == "" {
			issue("recommendation", r.ID.String(), "status requires an active assignment", "assignment id", "<empty>")
		}
		if r.Status == types.RecommendationStatusUnassigned && r.ActiveAssignmentID != "" {
			issue("recommendation", r.ID.String(), "unassigned recommendation references an assignment",
				"<empty>", r.ActiveAssignmentID.String())
		}
	}
	return nil
}

package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/model/auth"
	"github.com/secmon-lab/hazop/pkg/domain/types"
)

// DeviationUseCase manages deviation records and the recommendations derived
// from their additional-control text
type DeviationUseCase struct {
	env *env
}

func NewDeviationUseCase(env *env) *DeviationUseCase {
	return &DeviationUseCase{env: env}
}

// Create appends a deviation to the node. A draft skips the required-field
// checks and derives no recommendations until it is saved.
func (uc *DeviationUseCase) Create(ctx context.Context, nodeID types.NodeID, in model.DeviationInput, draft bool) (*model.Deviation, error) {
	node, err := uc.env.repo.Node().Get(ctx, nodeID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get node", goerr.V(NodeIDKey, nodeID))
	}
	if node.CompletionStatus {
		return nil, model.NewTransitionError("node_completed", "deviation_created", goerr.V(NodeIDKey, nodeID))
	}

	d := &model.Deviation{
		ID:        types.NewDeviationID(),
		NodeID:    node.ID,
		StudyID:   node.StudyID,
		CreatedBy: auth.ActorID(ctx),
	}
	in.Apply(d)
	if err := evaluate(d, draft); err != nil {
		return nil, err
	}

	members, err := uc.env.repo.Deviation().ListByNode(ctx, nodeID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list deviations", goerr.V(NodeIDKey, nodeID))
	}
	d.SequenceNumber = len(members) + 1

	cs := &model.Changeset{
		Nodes:      []*model.Node{node},
		Deviations: []*model.Deviation{d},
	}
	if !draft {
		cs.Recommendations = syncRecommendations(d, nil)
	}

	if err := uc.env.commit(ctx, cs); err != nil {
		return nil, goerr.Wrap(err, "failed to create deviation", goerr.V(NodeIDKey, nodeID))
	}
	return d, nil
}

// Update replaces the author fields of an unlocked deviation. version must
// be the version the caller read; 0 skips the check.
func (uc *DeviationUseCase) Update(ctx context.Context, id types.DeviationID, version int64, in model.DeviationInput, draft bool) (*model.Deviation, error) {
	d, err := uc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if version != 0 && version != d.Version {
		return nil, model.NewConflictError("deviation", id.String(), version)
	}
	if d.IsLocked() {
		return nil, model.NewTransitionError(d.Status.String(), "updated", goerr.V(DeviationIDKey, id))
	}
	// A saved deviation already has recommendations; it cannot go back to draft
	if draft && d.Status == types.DeviationStatusSaved {
		return nil, model.NewTransitionError(d.Status.String(), types.DeviationStatusDraft.String(), goerr.V(DeviationIDKey, id))
	}

	in.Apply(d)
	if err := evaluate(d, draft); err != nil {
		return nil, err
	}

	cs := &model.Changeset{Deviations: []*model.Deviation{d}}
	if !draft {
		existing, err := uc.env.repo.Recommendation().ListByDeviation(ctx, id)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list recommendations", goerr.V(DeviationIDKey, id))
		}
		cs.Recommendations = syncRecommendations(d, existing)
	}

	if err := uc.env.commit(ctx, cs); err != nil {
		return nil, goerr.Wrap(err, "failed to update deviation", goerr.V(DeviationIDKey, id))
	}
	return d, nil
}

func (uc *DeviationUseCase) Get(ctx context.Context, id types.DeviationID) (*model.Deviation, error) {
	d, err := uc.env.repo.Deviation().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get deviation", goerr.V(DeviationIDKey, id))
	}
	return d, nil
}

// List returns the node's deviations in sequence order
func (uc *DeviationUseCase) List(ctx context.Context, nodeID types.NodeID) ([]*model.Deviation, error) {
	if _, err := uc.env.repo.Node().Get(ctx, nodeID); err != nil {
		return nil, goerr.Wrap(err, "failed to get node", goerr.V(NodeIDKey, nodeID))
	}
	deviations, err := uc.env.repo.Deviation().ListByNode(ctx, nodeID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list deviations", goerr.V(NodeIDKey, nodeID))
	}
	return deviations, nil
}

// Recommendations returns the deviation's recommendations in line order
func (uc *DeviationUseCase) Recommendations(ctx context.Context, id types.DeviationID) ([]*model.Recommendation, error) {
	if _, err := uc.Get(ctx, id); err != nil {
		return nil, err
	}
	recs, err := uc.env.repo.Recommendation().ListByDeviation(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list recommendations", goerr.V(DeviationIDKey, id))
	}
	return recs, nil
}

// Delete removes an unlocked deviation together with its recommendations and
// closes the gap in the node's sequence. Recommendations that have left the
// unassigned pool block the delete.
func (uc *DeviationUseCase) Delete(ctx context.Context, id types.DeviationID) error {
	d, err := uc.Get(ctx, id)
	if err != nil {
		return err
	}
	if d.IsLocked() {
		return model.NewTransitionError(d.Status.String(), "deleted", goerr.V(DeviationIDKey, id))
	}

	recs, err := uc.env.repo.Recommendation().ListByDeviation(ctx, id)
	if err != nil {
		return goerr.Wrap(err, "failed to list recommendations", goerr.V(DeviationIDKey, id))
	}
	for _, r := range recs {
		if !isPristine(r) {
			return model.NewTransitionError(r.Status.String(), "deleted",
				goerr.V(DeviationIDKey, id), goerr.V(RecommendationIDKey, r.ID))
		}
	}

	node, err := uc.env.repo.Node().Get(ctx, d.NodeID)
	if err != nil {
		return goerr.Wrap(err, "failed to get node", goerr.V(NodeIDKey, d.NodeID))
	}
	members, err := uc.env.repo.Deviation().ListByNode(ctx, d.NodeID)
	if err != nil {
		return goerr.Wrap(err, "failed to list deviations", goerr.V(NodeIDKey, d.NodeID))
	}

	cs := &model.Changeset{
		Nodes:                 []*model.Node{node},
		DeleteDeviations:      []*model.Deviation{d},
		DeleteRecommendations: recs,
	}
	seq := 0
	for _, m := range members {
		if m.ID == d.ID {
			continue
		}
		seq++
		if m.SequenceNumber != seq {
			m.SequenceNumber = seq
			cs.Deviations = append(cs.Deviations, m)
		}
	}

	if err := uc.env.commit(ctx, cs); err != nil {
		return goerr.Wrap(err, "failed to delete deviation", goerr.V(DeviationIDKey, id))
	}
	return nil
}

// DeleteRecommendation removes a recommendation that was never assigned.
// Saving the deviation again derives it anew while its line is still in the
// additional-control text.
func (uc *DeviationUseCase) DeleteRecommendation(ctx context.Context, id types.RecommendationID) error {
	r, err := uc.env.repo.Recommendation().Get(ctx, id)
	if err != nil {
		return goerr.Wrap(err, "failed to get recommendation", goerr.V(RecommendationIDKey, id))
	}
	if !isPristine(r) {
		return model.NewTransitionError(r.Status.String(), "deleted", goerr.V(RecommendationIDKey, id))
	}

	d, err := uc.Get(ctx, r.DeviationID)
	if err != nil {
		return err
	}
	if d.IsLocked() {
		return model.NewTransitionError(d.Status.String(), "recommendation_deleted", goerr.V(DeviationIDKey, d.ID))
	}

	if err := uc.env.commit(ctx, &model.Changeset{DeleteRecommendations: []*model.Recommendation{r}}); err != nil {
		return goerr.Wrap(err, "failed to delete recommendation", goerr.V(RecommendationIDKey, id))
	}
	return nil
}

func evaluate(d *model.Deviation, draft bool) error {
	if draft {
		d.Status = types.DeviationStatusDraft
		return d.EvaluateDraft()
	}
	d.Status = types.DeviationStatusSaved
	return d.Evaluate()
}

// isPristine reports whether the recommendation has never been handed out
func isPristine(r *model.Recommendation) bool {
	return r.Status == types.RecommendationStatusUnassigned &&
		!r.PendingReassignment && r.ActiveAssignmentID == ""
}

// syncRecommendations diffs the derived lines of d against the existing
// recommendations by position and returns the ones to write. Text follows
// its line only while the recommendation is editable; lines that disappear
// leave their recommendation in place.
func syncRecommendations(d *model.Deviation, existing []*model.Recommendation) []*model.Recommendation {
	if !d.IsEscalated() {
		return nil
	}

	byPosition := make(map[int]*model.Recommendation, len(existing))
	for _, r := range existing {
		byPosition[r.Position] = r
	}

	var changed []*model.Recommendation
	for i, line := range model.DeriveRecommendations(d.AdditionalControl) {
		r, ok := byPosition[i]
		switch {
		case !ok:
			changed = append(changed, model.NewRecommendation(d, i, line))
		case r.IsEditable() && r.Action != line:
			r.Action = line
			changed = append(changed, r)
		}
	}
	return changed
}

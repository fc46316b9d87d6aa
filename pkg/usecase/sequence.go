package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/types"
)

// SequenceUseCase owns the display order of deviations within a node
type SequenceUseCase struct {
	env *env
}

func NewSequenceUseCase(env *env) *SequenceUseCase {
	return &SequenceUseCase{env: env}
}

// Reorder assigns sequence numbers 1..n in the order of orderedIDs, which
// must be a permutation of the node's current deviations. The node is
// committed with them; if the member set changed since it was read the
// commit fails with ErrSequenceMismatch and nothing is written.
func (uc *SequenceUseCase) Reorder(ctx context.Context, nodeID types.NodeID, orderedIDs []types.DeviationID) ([]*model.Deviation, error) {
	node, err := uc.env.repo.Node().Get(ctx, nodeID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get node", goerr.V(NodeIDKey, nodeID))
	}
	if node.CompletionStatus {
		return nil, model.NewTransitionError("node_completed", "reordered", goerr.V(NodeIDKey, nodeID))
	}

	members, err := uc.env.repo.Deviation().ListByNode(ctx, nodeID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list deviations", goerr.V(NodeIDKey, nodeID))
	}

	byID := make(map[types.DeviationID]*model.Deviation, len(members))
	for _, d := range members {
		byID[d.ID] = d
	}
	if len(orderedIDs) != len(members) {
		return nil, goerr.Wrap(model.ErrSequenceMismatch, "deviation count does not match",
			goerr.V(NodeIDKey, nodeID), goerr.V("expected", len(members)), goerr.V("actual", len(orderedIDs)))
	}

	ordered := make([]*model.Deviation, 0, len(orderedIDs))
	var changed []*model.Deviation
	for i, id := range orderedIDs {
		d, ok := byID[id]
		if !ok {
			return nil, goerr.Wrap(model.ErrSequenceMismatch, "unknown or repeated deviation",
				goerr.V(NodeIDKey, nodeID), goerr.V(DeviationIDKey, id))
		}
		delete(byID, id)

		if d.SequenceNumber != i+1 {
			d.SequenceNumber = i + 1
			changed = append(changed, d)
		}
		ordered = append(ordered, d)
	}

	if len(changed) == 0 {
		return ordered, nil
	}

	cs := &model.Changeset{
		Nodes:      []*model.Node{node},
		Deviations: changed,
	}
	if err := uc.env.commit(ctx, cs); err != nil {
		if errors.Is(err, model.ErrConflict) {
			return nil, goerr.Wrap(model.ErrSequenceMismatch, "deviations changed during reorder",
				goerr.V(NodeIDKey, nodeID), goerr.V("cause", err.Error()))
		}
		return nil, goerr.Wrap(err, "failed to reorder deviations", goerr.V(NodeIDKey, nodeID))
	}
	return ordered, nil
}

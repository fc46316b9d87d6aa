package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/types"
)

// NodeInput holds the descriptive fields of a node
type NodeInput struct {
	Title             string
	DesignIntent      string
	Drawing           string
	DrawingRevision   string
	ProcessParameters []string
}

// CreateNode appends a node to the study. The study is committed with the
// node so that concurrent creates cannot take the same node number.
func (uc *HazopUseCase) CreateNode(ctx context.Context, studyID types.StudyID, in NodeInput) (*model.Node, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, model.NewValidationError("title")
	}

	study, err := uc.GetStudy(ctx, studyID)
	if err != nil {
		return nil, err
	}
	if err := requireOpenStudy(study); err != nil {
		return nil, err
	}

	nodes, err := uc.env.repo.Node().ListByStudy(ctx, studyID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list nodes", goerr.V(StudyIDKey, studyID))
	}

	params := make([]string, 0, len(in.ProcessParameters))
	for _, p := range in.ProcessParameters {
		if p = strings.TrimSpace(p); p != "" {
			params = append(params, p)
		}
	}

	node := &model.Node{
		ID:                types.NewNodeID(),
		StudyID:           studyID,
		NodeNumber:        len(nodes) + 1,
		Title:             title,
		DesignIntent:      strings.TrimSpace(in.DesignIntent),
		Drawing:           strings.TrimSpace(in.Drawing),
		DrawingRevision:   strings.TrimSpace(in.DrawingRevision),
		ProcessParameters: params,
	}

	cs := &model.Changeset{
		Studies: []*model.Study{study},
		Nodes:   []*model.Node{node},
	}
	if err := uc.env.commit(ctx, cs); err != nil {
		return nil, goerr.Wrap(err, "failed to create node", goerr.V(StudyIDKey, studyID))
	}
	return node, nil
}

func (uc *HazopUseCase) GetNode(ctx context.Context, id types.NodeID) (*model.Node, error) {
	node, err := uc.env.repo.Node().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get node", goerr.V(NodeIDKey, id))
	}
	return node, nil
}

func (uc *HazopUseCase) ListNodes(ctx context.Context, studyID types.StudyID) ([]*model.Node, error) {
	if _, err := uc.GetStudy(ctx, studyID); err != nil {
		return nil, err
	}
	nodes, err := uc.env.repo.Node().ListByStudy(ctx, studyID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list nodes", goerr.V(StudyIDKey, studyID))
	}
	return nodes, nil
}

// CompleteNode closes authoring on the node. Every deviation must be saved;
// they are locked together with the node. Completing a completed node is a
// no-op.
func (uc *HazopUseCase) CompleteNode(ctx context.Context, id types.NodeID) (*model.Node, error) {
	node, err := uc.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}
	if node.CompletionStatus {
		return node, nil
	}

	deviations, err := uc.env.repo.Deviation().ListByNode(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list deviations", goerr.V(NodeIDKey, id))
	}
	if len(deviations) == 0 {
		return nil, goerr.Wrap(model.ErrNotReady, "node has no deviations", goerr.V(NodeIDKey, id))
	}
	for _, d := range deviations {
		if d.Status != types.DeviationStatusSaved {
			return nil, goerr.Wrap(model.ErrNotReady, "node has unsaved deviations",
				goerr.V(NodeIDKey, id), goerr.V(DeviationIDKey, d.ID), goerr.V("status", d.Status))
		}
		d.Status = types.DeviationStatusLocked
	}

	now := uc.env.now()
	node.CompletionStatus = true
	node.CompletedAt = &now

	cs := &model.Changeset{
		Nodes:      []*model.Node{node},
		Deviations: deviations,
	}
	if err := uc.env.commit(ctx, cs); err != nil {
		return nil, goerr.Wrap(err, "failed to complete node", goerr.V(NodeIDKey, id))
	}
	return node, nil
}

package memory

import (
	"context"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/types"
)

type studyRepository struct{ s *store }

func (r *studyRepository) Get(ctx context.Context, id types.StudyID) (*model.Study, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	v, ok := r.s.studies[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "study not found", goerr.V(model.IDKey, id))
	}
	return copyStudy(v), nil
}

func (r *studyRepository) List(ctx context.Context) ([]*model.Study, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]*model.Study, 0, len(r.s.studies))
	for _, v := range r.s.studies {
		result = append(result, copyStudy(v))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

type nodeRepository struct{ s *store }

func (r *nodeRepository) Get(ctx context.Context, id types.NodeID) (*model.Node, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	v, ok := r.s.nodes[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "node not found", goerr.V(model.IDKey, id))
	}
	return copyNode(v), nil
}

func (r *nodeRepository) ListByStudy(ctx context.Context, studyID types.StudyID) ([]*model.Node, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []*model.Node
	for _, v := range r.s.nodes {
		if v.StudyID == studyID {
			result = append(result, copyNode(v))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].NodeNumber < result[j].NodeNumber
	})
	return result, nil
}

type deviationRepository struct{ s *store }

func (r *deviationRepository) Get(ctx context.Context, id types.DeviationID) (*model.Deviation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	v, ok := r.s.deviations[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "deviation not found", goerr.V(model.IDKey, id))
	}
	return copyDeviation(v), nil
}

func (r *deviationRepository) ListByNode(ctx context.Context, nodeID types.NodeID) ([]*model.Deviation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []*model.Deviation
	for _, v := range r.s.deviations {
		if v.NodeID == nodeID {
			result = append(result, copyDeviation(v))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].SequenceNumber < result[j].SequenceNumber
	})
	return result, nil
}

type recommendationRepository struct{ s *store }

func (r *recommendationRepository) Get(ctx context.Context, id types.RecommendationID) (*model.Recommendation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	v, ok := r.s.recommendations[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "recommendation not found", goerr.V(model.IDKey, id))
	}
	return copyRecommendation(v), nil
}

func (r *recommendationRepository) ListByDeviation(ctx context.Context, deviationID types.DeviationID) ([]*model.Recommendation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []*model.Recommendation
	for _, v := range r.s.recommendations {
		if v.DeviationID == deviationID {
			result = append(result, copyRecommendation(v))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Position < result[j].Position
	})
	return result, nil
}

func (r *recommendationRepository) ListByNode(ctx context.Context, nodeID types.NodeID) ([]*model.Recommendation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []*model.Recommendation
	for _, v := range r.s.recommendations {
		if v.NodeID == nodeID {
			result = append(result, copyRecommendation(v))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DeviationID != result[j].DeviationID {
			return result[i].DeviationID < result[j].DeviationID
		}
		return result[i].Position < result[j].Position
	})
	return result, nil
}

type assignmentRepository struct{ s *store }

func (r *assignmentRepository) Get(ctx context.Context, id types.AssignmentID) (*model.Assignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	v, ok := r.s.assignments[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "assignment not found", goerr.V(model.IDKey, id))
	}
	return copyAssignment(v), nil
}

func (r *assignmentRepository) ListByRecommendation(ctx context.Context, recID types.RecommendationID) ([]*model.Assignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []*model.Assignment
	for _, v := range r.s.assignments {
		if v.RecommendationID == recID {
			result = append(result, copyAssignment(v))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Seq < result[j].Seq
	})
	return result, nil
}

func (r *assignmentRepository) ListTargetDates(ctx context.Context, assignmentID types.AssignmentID) ([]*model.TargetDateRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var result []*model.TargetDateRecord
	for _, v := range r.s.targetDates {
		if v.AssignmentID == assignmentID {
			result = append(result, copyTargetDate(v))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Seq < result[j].Seq
	})
	return result, nil
}

type challengeRepository struct{ s *store }

func (r *challengeRepository) Get(ctx context.Context, id types.ChallengeID) (*model.Challenge, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	v, ok := r.s.challenges[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "challenge not found", goerr.V(model.IDKey, id))
	}
	return copyChallenge(v), nil
}

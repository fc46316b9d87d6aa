package memory

import (
	"context"
	"sync"

	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/types"
)

// store holds every workflow entity behind one lock so that a changeset is
// checked and applied as a unit.
type store struct {
	mu              sync.RWMutex
	studies         map[types.StudyID]*model.Study
	nodes           map[types.NodeID]*model.Node
	deviations      map[types.DeviationID]*model.Deviation
	recommendations map[types.RecommendationID]*model.Recommendation
	assignments     map[types.AssignmentID]*model.Assignment
	targetDates     map[types.TargetDateID]*model.TargetDateRecord
	challenges      map[types.ChallengeID]*model.Challenge
}

func newStore() *store {
	return &store{
		studies:         make(map[types.StudyID]*model.Study),
		nodes:           make(map[types.NodeID]*model.Node),
		deviations:      make(map[types.DeviationID]*model.Deviation),
		recommendations: make(map[types.RecommendationID]*model.Recommendation),
		assignments:     make(map[types.AssignmentID]*model.Assignment),
		targetDates:     make(map[types.TargetDateID]*model.TargetDateRecord),
		challenges:      make(map[types.ChallengeID]*model.Challenge),
	}
}

// Commit applies the changeset if every expected version matches
func (m *Memory) Commit(ctx context.Context, cs *model.Changeset) error {
	if cs.IsEmpty() {
		return nil
	}
	next := cs.Stamped(cs.CommitTime())

	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(next); err != nil {
		return err
	}

	for _, v := range next.Studies {
		s.studies[v.ID] = copyStudy(v)
	}
	for _, v := range next.Nodes {
		s.nodes[v.ID] = copyNode(v)
	}
	for _, v := range next.Deviations {
		s.deviations[v.ID] = copyDeviation(v)
	}
	for _, v := range next.Recommendations {
		s.recommendations[v.ID] = copyRecommendation(v)
	}
	for _, v := range next.Assignments {
		s.assignments[v.ID] = copyAssignment(v)
	}
	for _, v := range next.TargetDates {
		s.targetDates[v.ID] = copyTargetDate(v)
	}
	for _, v := range next.Challenges {
		s.challenges[v.ID] = copyChallenge(v)
	}
	for _, v := range next.DeleteDeviations {
		delete(s.deviations, v.ID)
	}
	for _, v := range next.DeleteRecommendations {
		delete(s.recommendations, v.ID)
	}

	cs.Apply(next)
	return nil
}

func (s *store) check(next *model.Changeset) error {
	for _, v := range next.Studies {
		if err := checkVersion(s.studies, v.ID, v.Version-1, "study", studyVersion); err != nil {
			return err
		}
	}
	for _, v := range next.Nodes {
		if err := checkVersion(s.nodes, v.ID, v.Version-1, "node", nodeVersion); err != nil {
			return err
		}
	}
	for _, v := range next.Deviations {
		if err := checkVersion(s.deviations, v.ID, v.Version-1, "deviation", deviationVersion); err != nil {
			return err
		}
	}
	for _, v := range next.Recommendations {
		if err := checkVersion(s.recommendations, v.ID, v.Version-1, "recommendation", recommendationVersion); err != nil {
			return err
		}
	}
	for _, v := range next.Assignments {
		if err := checkVersion(s.assignments, v.ID, v.Version-1, "assignment", assignmentVersion); err != nil {
			return err
		}
	}
	for _, v := range next.TargetDates {
		if err := checkVersion(s.targetDates, v.ID, v.Version-1, "target_date", targetDateVersion); err != nil {
			return err
		}
	}
	for _, v := range next.Challenges {
		if err := checkVersion(s.challenges, v.ID, v.Version-1, "challenge", challengeVersion); err != nil {
			return err
		}
	}
	for _, v := range next.DeleteDeviations {
		if err := checkVersion(s.deviations, v.ID, v.Version, "deviation", deviationVersion); err != nil {
			return err
		}
	}
	for _, v := range next.DeleteRecommendations {
		if err := checkVersion(s.recommendations, v.ID, v.Version, "recommendation", recommendationVersion); err != nil {
			return err
		}
	}
	return nil
}

func checkVersion[K ~string, T any](m map[K]*T, id K, expected int64, entity string, version func(*T) int64) error {
	var stored int64
	if cur, ok := m[id]; ok {
		stored = version(cur)
	}
	if stored != expected {
		return model.NewConflictError(entity, string(id), expected)
	}
	return nil
}

func studyVersion(v *model.Study) int64                   { return v.Version }
func nodeVersion(v *model.Node) int64                     { return v.Version }
func deviationVersion(v *model.Deviation) int64           { return v.Version }
func recommendationVersion(v *model.Recommendation) int64 { return v.Version }
func assignmentVersion(v *model.Assignment) int64         { return v.Version }
func targetDateVersion(v *model.TargetDateRecord) int64   { return v.Version }
func challengeVersion(v *model.Challenge) int64           { return v.Version }

package memory

import (
	"github.com/secmon-lab/hazop/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

type Memory struct {
	store    *store
	employee *employeeRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		store:    newStore(),
		employee: newEmployeeRepository(),
	}
}

func (m *Memory) Study() interfaces.StudyRepository {
	return &studyRepository{s: m.store}
}

func (m *Memory) Node() interfaces.NodeRepository {
	return &nodeRepository{s: m.store}
}

func (m *Memory) Deviation() interfaces.DeviationRepository {
	return &deviationRepository{s: m.store}
}

func (m *Memory) Recommendation() interfaces.RecommendationRepository {
	return &recommendationRepository{s: m.store}
}

func (m *Memory) Assignment() interfaces.AssignmentRepository {
	return &assignmentRepository{s: m.store}
}

func (m *Memory) Challenge() interfaces.ChallengeRepository {
	return &challengeRepository{s: m.store}
}

func (m *Memory) Employee() interfaces.EmployeeRepository {
	return m.employee
}

func (m *Memory) Close() error {
	return nil
}

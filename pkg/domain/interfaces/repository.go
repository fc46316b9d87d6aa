package interfaces

import (
	"context"

	"github.com/secmon-lab/hazop/pkg/domain/model"
)

// Repository defines the interface for data persistence.
//
// Reads go through the per-entity repositories. Every write except the
// employee cache goes through Commit so that a transition, its side records
// and an OTP consumption land together or not at all.
type Repository interface {
	Study() StudyRepository
	Node() NodeRepository
	Deviation() DeviationRepository
	Recommendation() RecommendationRepository
	Assignment() AssignmentRepository
	Challenge() ChallengeRepository
	Employee() EmployeeRepository

	// Commit writes the changeset atomically. A stored version that differs
	// from the one carried by an entity fails the whole commit with
	// model.ErrConflict. On success the entities of cs carry their new
	// Version and timestamps.
	Commit(ctx context.Context, cs *model.Changeset) error

	Close() error
}

package interfaces

import (
	"context"

	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/types"
)

// Get methods return an error wrapping model.ErrNotFound when the entity
// does not exist.

type StudyRepository interface {
	Get(ctx context.Context, id types.StudyID) (*model.Study, error)
	// List returns all studies ordered by creation time
	List(ctx context.Context) ([]*model.Study, error)
}

type NodeRepository interface {
	Get(ctx context.Context, id types.NodeID) (*model.Node, error)
	// ListByStudy returns nodes ordered by NodeNumber
	ListByStudy(ctx context.Context, studyID types.StudyID) ([]*model.Node, error)
}

type DeviationRepository interface {
	Get(ctx context.Context, id types.DeviationID) (*model.Deviation, error)
	// ListByNode returns deviations ordered by SequenceNumber
	ListByNode(ctx context.Context, nodeID types.NodeID) ([]*model.Deviation, error)
}

type RecommendationRepository interface {
	Get(ctx context.Context, id types.RecommendationID) (*model.Recommendation, error)
	// ListByDeviation returns recommendations ordered by Position
	ListByDeviation(ctx context.Context, deviationID types.DeviationID) ([]*model.Recommendation, error)
	// ListByNode returns recommendations of every deviation of the node
	ListByNode(ctx context.Context, nodeID types.NodeID) ([]*model.Recommendation, error)
}

type AssignmentRepository interface {
	Get(ctx context.Context, id types.AssignmentID) (*model.Assignment, error)
	// ListByRecommendation returns the assignment chain, oldest first
	ListByRecommendation(ctx context.Context, recID types.RecommendationID) ([]*model.Assignment, error)
	// ListTargetDates returns target date records ordered by Seq
	ListTargetDates(ctx context.Context, assignmentID types.AssignmentID) ([]*model.TargetDateRecord, error)
}

type ChallengeRepository interface {
	Get(ctx context.Context, id types.ChallengeID) (*model.Challenge, error)
}

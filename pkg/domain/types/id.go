package types

import "github.com/google/uuid"

// StudyID represents a unique identifier for a HAZOP study
type StudyID string

// NodeID represents a unique identifier for a node of a study
type NodeID string

// DeviationID represents a unique identifier for a deviation record
type DeviationID string

// RecommendationID represents a unique identifier for a recommendation
type RecommendationID string

// AssignmentID represents a unique identifier for an assignment
type AssignmentID string

// TargetDateID represents a unique identifier for a target date record
type TargetDateID string

// ChallengeID represents a unique identifier for an OTP challenge
type ChallengeID string

// EmployeeID represents a directory identifier of a person (team member,
// assignee, verifier). It is the Slack user ID when Slack backs the directory.
type EmployeeID string

func NewStudyID() StudyID                   { return StudyID(uuid.NewString()) }
func NewNodeID() NodeID                     { return NodeID(uuid.NewString()) }
func NewDeviationID() DeviationID           { return DeviationID(uuid.NewString()) }
func NewRecommendationID() RecommendationID { return RecommendationID(uuid.NewString()) }
func NewAssignmentID() AssignmentID         { return AssignmentID(uuid.NewString()) }
func NewTargetDateID() TargetDateID         { return TargetDateID(uuid.NewString()) }
func NewChallengeID() ChallengeID           { return ChallengeID(uuid.NewString()) }

func (x StudyID) String() string          { return string(x) }
func (x NodeID) String() string           { return string(x) }
func (x DeviationID) String() string      { return string(x) }
func (x RecommendationID) String() string { return string(x) }
func (x AssignmentID) String() string     { return string(x) }
func (x TargetDateID) String() string     { return string(x) }
func (x ChallengeID) String() string      { return string(x) }
func (x EmployeeID) String() string       { return string(x) }

package usecase

// Context keys for error values
const (
	StudyIDKey          = "study_id"
	NodeIDKey           = "node_id"
	DeviationIDKey      = "deviation_id"
	RecommendationIDKey = "recommendation_id"
	AssignmentIDKey     = "assignment_id"
	ChallengeIDKey      = "challenge_id"
)

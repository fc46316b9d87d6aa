package usecase

// SyncRecommendations is exported for testing
var SyncRecommendations = syncRecommendations

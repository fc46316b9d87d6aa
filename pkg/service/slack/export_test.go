package slack

// Export internal functions for testing
var (
	TruncateToMaxBytes      = truncateToMaxBytes
	BuildNotificationBlocks = buildNotificationBlocks
	MaxSectionTextBytes     = maxSectionTextBytes
)

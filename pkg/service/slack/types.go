package slack

import (
	"context"

	"github.com/slack-go/slack"
)

// Service provides the Slack API operations used for notifications and the
// employee directory
type Service interface {
	// GetUserInfo retrieves user information for the given user ID
	GetUserInfo(ctx context.Context, userID string) (*User, error)

	// ListUsers retrieves all non-deleted, non-bot users in the workspace
	ListUsers(ctx context.Context) ([]*User, error)

	// OpenDirectMessage returns the DM channel ID with the user, opening it
	// if needed. Results are cached.
	OpenDirectMessage(ctx context.Context, userID string) (string, error)

	// PostMessage posts a Block Kit message to a channel and returns the message timestamp.
	// The text parameter is used as a fallback for notifications.
	PostMessage(ctx context.Context, channelID string, blocks []slack.Block, text string) (string, error)
}

// User represents a Slack user
type User struct {
	ID       string
	Name     string
	RealName string
	Email    string
	Title    string
	ImageURL string
}

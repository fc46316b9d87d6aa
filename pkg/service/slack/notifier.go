package slack

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/slack-go/slack"
)

// Block action IDs of the assignment answer buttons. The button value is the
// assignment ID.
const (
	ActionIDAcceptAssignment = "hazop_assignment_accept"
	ActionIDRejectAssignment = "hazop_assignment_reject"
)

// Notifier delivers workflow notifications as Slack direct messages. The
// recipient's employee ID is their Slack user ID.
type Notifier struct {
	svc Service
}

func NewNotifier(svc Service) *Notifier {
	return &Notifier{svc: svc}
}

// Notify opens a DM with the recipient and posts the notification
func (n *Notifier) Notify(ctx context.Context, msg *model.Notification) error {
	channelID, err := n.svc.OpenDirectMessage(ctx, msg.Recipient.String())
	if err != nil {
		return goerr.Wrap(err, "failed to open DM for notification",
			goerr.V("kind", msg.Kind), goerr.V("recipient", msg.Recipient))
	}

	blocks := buildNotificationBlocks(msg)
	if _, err := n.svc.PostMessage(ctx, channelID, blocks, msg.Subject); err != nil {
		return goerr.Wrap(err, "failed to post notification",
			goerr.V("kind", msg.Kind), goerr.V("recipient", msg.Recipient))
	}
	return nil
}

func buildNotificationBlocks(msg *model.Notification) []slack.Block {
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, truncateToMaxBytes(msg.Subject, 150), true, false)),
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, truncateToMaxBytes(msg.Body, maxSectionTextBytes), false, false),
			nil, nil,
		),
	}

	if r := msg.Recommendation; r != nil {
		fields := []*slack.TextBlockObject{
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Status*\n%s %s", r.Status.Emoji(), r.Status), false, false),
		}
		if r.Department != "" {
			fields = append(fields, slack.NewTextBlockObject(slack.MarkdownType, "*Department*\n"+r.Department, false, false))
		}
		blocks = append(blocks,
			slack.NewSectionBlock(nil, fields, nil),
			slack.NewContextBlock("",
				slack.NewTextBlockObject(slack.MarkdownType, "Recommendation `"+r.ID.String()+"`", false, false),
			),
		)
		if answerable(msg) {
			blocks = append(blocks, slack.NewActionBlock("hazop_assignment_answer",
				slack.NewButtonBlockElement(ActionIDAcceptAssignment, r.ActiveAssignmentID.String(),
					slack.NewTextBlockObject(slack.PlainTextType, "Accept", false, false)).WithStyle(slack.StylePrimary),
				slack.NewButtonBlockElement(ActionIDRejectAssignment, r.ActiveAssignmentID.String(),
					slack.NewTextBlockObject(slack.PlainTextType, "Reject", false, false)).WithStyle(slack.StyleDanger),
			))
		}
	}
	return blocks
}

// answerable reports whether the recipient can accept or reject from the message
func answerable(msg *model.Notification) bool {
	switch msg.Kind {
	case model.NotificationAssigned, model.NotificationReassigned:
		return msg.Recommendation.ActiveAssignmentID != ""
	}
	return false
}

package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/model/auth"
	"github.com/secmon-lab/hazop/pkg/domain/types"
	slacksvc "github.com/secmon-lab/hazop/pkg/service/slack"
	"github.com/secmon-lab/hazop/pkg/utils/errutil"
	"github.com/secmon-lab/hazop/pkg/utils/logging"
	"github.com/slack-go/slack"
)

// AssignmentAnswerer is the part of the recommendation use case driven by
// Slack buttons
type AssignmentAnswerer interface {
	GetAssignment(ctx context.Context, id types.AssignmentID) (*model.Assignment, error)
	AcceptOrReject(ctx context.Context, id types.AssignmentID, accept bool) (*model.Assignment, error)
}

// SlackInteractionHandler handles the accept/reject buttons of assignment
// notifications
type SlackInteractionHandler struct {
	answerer AssignmentAnswerer
}

func NewSlackInteractionHandler(answerer AssignmentAnswerer) *SlackInteractionHandler {
	return &SlackInteractionHandler{
		answerer: answerer,
	}
}

// ServeHTTP handles Slack interaction webhook requests
func (h *SlackInteractionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Slack sends interaction payloads as application/x-www-form-urlencoded
	// with a "payload" field containing JSON
	payload := r.FormValue("payload")
	if payload == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("missing payload field in interaction request"), http.StatusBadRequest)
		return
	}

	var callback slack.InteractionCallback
	if err := json.Unmarshal([]byte(payload), &callback); err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to parse interaction payload"), http.StatusBadRequest)
		return
	}

	if callback.Type != slack.InteractionTypeBlockActions {
		w.WriteHeader(http.StatusOK)
		return
	}

	userID := types.EmployeeID(callback.User.ID)
	ctx = auth.ContextWithToken(ctx, &auth.Token{Sub: callback.User.ID, Name: callback.User.Name})

	for _, action := range callback.ActionCallback.BlockActions {
		var accept bool
		switch action.ActionID {
		case slacksvc.ActionIDAcceptAssignment:
			accept = true
		case slacksvc.ActionIDRejectAssignment:
			accept = false
		default:
			continue
		}

		if err := h.answer(ctx, userID, types.AssignmentID(action.Value), accept); err != nil {
			logging.From(ctx).Warn("failed to handle Slack interaction",
				"error", err.Error(),
				"action_id", action.ActionID,
				"assignment_id", action.Value,
				"user_id", userID,
			)
		}
	}

	w.WriteHeader(http.StatusOK)
}

// answer applies the button only when it was pressed by the assignee
func (h *SlackInteractionHandler) answer(ctx context.Context, userID types.EmployeeID, id types.AssignmentID, accept bool) error {
	a, err := h.answerer.GetAssignment(ctx, id)
	if err != nil {
		return err
	}
	if a.AssigneeID != userID {
		return goerr.New("button pressed by someone other than the assignee",
			goerr.V("assignee_id", a.AssigneeID))
	}

	_, err = h.answerer.AcceptOrReject(ctx, id, accept)
	return err
}

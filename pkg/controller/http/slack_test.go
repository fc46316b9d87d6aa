package http_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	httpctrl "github.com/secmon-lab/hazop/pkg/controller/http"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/model/auth"
	"github.com/secmon-lab/hazop/pkg/domain/types"
	"github.com/secmon-lab/hazop/pkg/repository/memory"
	slacksvc "github.com/secmon-lab/hazop/pkg/service/slack"
	"github.com/secmon-lab/hazop/pkg/usecase"
	goslack "github.com/slack-go/slack"
)

// computeSlackSignature computes the Slack signature for testing
func computeSlackSignature(signingSecret, timestamp, body string) string {
	h := hmac.New(sha256.New, []byte(signingSecret))
	fmt.Fprintf(h, "v0:%s:%s", timestamp, body)
	return "v0=" + hex.EncodeToString(h.Sum(nil))
}

func TestVerifySlackSignature(t *testing.T) {
	const signingSecret = "test-signing-secret"
	body := []byte("payload=%7B%7D")
	now := time.Now()
	fresh := strconv.FormatInt(now.Unix(), 10)

	testCases := []struct {
		name      string
		timestamp string
		signature string
		wantErr   bool
	}{
		{name: "valid signature", timestamp: fresh, signature: computeSlackSignature(signingSecret, fresh, string(body))},
		{name: "invalid signature", timestamp: fresh, signature: "v0=invalid_signature", wantErr: true},
		{name: "missing timestamp", timestamp: "", signature: computeSlackSignature(signingSecret, "123456", string(body)), wantErr: true},
		{name: "missing signature", timestamp: fresh, signature: "", wantErr: true},
		{name: "non numeric timestamp", timestamp: "abc", signature: computeSlackSignature(signingSecret, "abc", string(body)), wantErr: true},
		{
			name:      "timestamp too old",
			timestamp: strconv.FormatInt(now.Add(-10*time.Minute).Unix(), 10),
			signature: computeSlackSignature(signingSecret, strconv.FormatInt(now.Add(-10*time.Minute).Unix(), 10), string(body)),
			wantErr:   true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := httpctrl.VerifySlackSignature(signingSecret, tc.timestamp, tc.signature, body, now)
			if tc.wantErr {
				gt.Value(t, err).NotNil()
			} else {
				gt.NoError(t, err)
			}
		})
	}
}

func TestSlackInteractionHandler(t *testing.T) {
	const signingSecret = "test-signing-secret"

	setup := func(t *testing.T) (*usecase.UseCases, *httptest.Server, *model.Assignment) {
		t.Helper()
		uc := usecase.New(memory.New())
		ctx := auth.ContextWithToken(t.Context(), &auth.Token{Sub: leadID})

		study, err := uc.Hazop.CreateStudy(ctx, usecase.StudyInput{Title: "Crude unit revamp"})
		gt.NoError(t, err).Required()
		node, err := uc.Hazop.CreateNode(ctx, study.ID, usecase.NodeInput{Title: "Feed pump P-101"})
		gt.NoError(t, err).Required()
		d, err := uc.Deviation.Create(ctx, node.ID, model.DeviationInput{
			GeneralParameter:      "Flow",
			SpecificParameter:     "Crude feed",
			GuideWord:             "Less",
			Deviation:             "Less flow",
			Causes:                "Strainer blockage",
			Consequences:          "Pump cavitation",
			ExistingControl:       "Low flow alarm",
			ExistingProbability:   4,
			ExistingSeverity:      4,
			AdditionalControl:     "Install check valve",
			AdditionalProbability: 2,
			AdditionalSeverity:    2,
		}, false)
		gt.NoError(t, err).Required()
		recs, err := uc.Deviation.Recommendations(ctx, d.ID)
		gt.NoError(t, err).Required()
		gt.A(t, recs).Length(1).Required()

		a, err := uc.Recommendation.Assign(ctx, recs[0].ID, assigneeID, time.Time{})
		gt.NoError(t, err).Required()

		srv := httptest.NewServer(httpctrl.New(uc, httpctrl.WithSlackInteraction(signingSecret)))
		t.Cleanup(srv.Close)
		return uc, srv, a
	}

	post := func(t *testing.T, srv *httptest.Server, user, actionID, value string) int {
		t.Helper()
		callback := goslack.InteractionCallback{
			Type: goslack.InteractionTypeBlockActions,
			User: goslack.User{ID: user},
			ActionCallback: goslack.ActionCallbacks{
				BlockActions: []*goslack.BlockAction{{ActionID: actionID, Value: value}},
			},
		}
		payloadJSON, err := json.Marshal(callback)
		gt.NoError(t, err).Required()

		body := url.Values{"payload": {string(payloadJSON)}}.Encode()
		ts := strconv.FormatInt(time.Now().Unix(), 10)
		req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, srv.URL+"/hooks/slack/interaction", strings.NewReader(body))
		gt.NoError(t, err).Required()
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Slack-Request-Timestamp", ts)
		req.Header.Set("X-Slack-Signature", computeSlackSignature(signingSecret, ts, body))

		resp, err := srv.Client().Do(req)
		gt.NoError(t, err).Required()
		defer resp.Body.Close()
		return resp.StatusCode
	}

	t.Run("assignee accepts from the button", func(t *testing.T) {
		uc, srv, a := setup(t)

		status := post(t, srv, assigneeID, slacksvc.ActionIDAcceptAssignment, a.ID.String())
		gt.Number(t, status).Equal(http.StatusOK)

		got, err := uc.Recommendation.GetAssignment(t.Context(), a.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.AcceptanceStatus).Equal(types.AcceptanceStatusAccepted)
	})

	t.Run("assignee rejects from the button", func(t *testing.T) {
		uc, srv, a := setup(t)

		status := post(t, srv, assigneeID, slacksvc.ActionIDRejectAssignment, a.ID.String())
		gt.Number(t, status).Equal(http.StatusOK)

		rec, err := uc.Recommendation.Get(t.Context(), a.RecommendationID)
		gt.NoError(t, err).Required()
		gt.Value(t, rec.Status).Equal(types.RecommendationStatusUnassigned)
	})

	t.Run("button pressed by someone else is ignored", func(t *testing.T) {
		uc, srv, a := setup(t)

		status := post(t, srv, "U_INTRUDER", slacksvc.ActionIDAcceptAssignment, a.ID.String())
		gt.Number(t, status).Equal(http.StatusOK)

		got, err := uc.Recommendation.GetAssignment(t.Context(), a.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.AcceptanceStatus).Equal(types.AcceptanceStatusPending)
	})

	t.Run("unsigned request is rejected", func(t *testing.T) {
		_, srv, _ := setup(t)

		resp, err := srv.Client().Post(srv.URL+"/hooks/slack/interaction", "application/x-www-form-urlencoded",
			strings.NewReader("payload=%7B%7D"))
		gt.NoError(t, err).Required()
		defer resp.Body.Close()
		gt.Number(t, resp.StatusCode).Equal(http.StatusUnauthorized)
	})
}

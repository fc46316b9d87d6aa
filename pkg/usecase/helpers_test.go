package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/hazop/pkg/domain/interfaces"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/model/auth"
	"github.com/secmon-lab/hazop/pkg/domain/types"
	"github.com/secmon-lab/hazop/pkg/repository/memory"
	"github.com/secmon-lab/hazop/pkg/usecase"
)

var errDeliveryFailed = errors.New("delivery failed")

type fakeNotifier struct {
	mu   sync.Mutex
	sent []*model.Notification
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, n *model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return f.err
}

func (f *fakeNotifier) lastCode(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].Kind == model.NotificationOTP {
			return f.sent[i].Code
		}
	}
	t.Fatal("no otp notification sent")
	return ""
}

func (f *fakeNotifier) kinds(to types.EmployeeID) []model.NotificationKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	var kinds []model.NotificationKind
	for _, n := range f.sent {
		if n.Recipient == to {
			kinds = append(kinds, n.Kind)
		}
	}
	return kinds
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// hookRepository runs beforeCommit once, right before the next commit
type hookRepository struct {
	interfaces.Repository
	once         sync.Once
	beforeCommit func()
}

func (r *hookRepository) Commit(ctx context.Context, cs *model.Changeset) error {
	if r.beforeCommit != nil {
		r.once.Do(r.beforeCommit)
	}
	return r.Repository.Commit(ctx, cs)
}

const (
	leadID     types.EmployeeID = "U_LEAD"
	assigneeID types.EmployeeID = "U_ALICE"
	otherID    types.EmployeeID = "U_BOB"
	verifierID types.EmployeeID = "U_VERIFIER"
)

type fixture struct {
	uc       *usecase.UseCases
	repo     *memory.Memory
	notifier *fakeNotifier
	clock    *testClock
}

func newFixture(t *testing.T, opts ...usecase.Option) *fixture {
	t.Helper()
	f := &fixture{
		repo:     memory.New(),
		notifier: &fakeNotifier{},
		clock:    &testClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)},
	}
	opts = append([]usecase.Option{
		usecase.WithNotifier(f.notifier),
		usecase.WithClock(f.clock.Now),
	}, opts...)
	f.uc = usecase.New(f.repo, opts...)
	return f
}

func actorCtx(t *testing.T, id types.EmployeeID) context.Context {
	return auth.ContextWithToken(t.Context(), &auth.Token{Sub: string(id)})
}

func (f *fixture) seedNode(t *testing.T) (*model.Study, *model.Node) {
	t.Helper()
	ctx := actorCtx(t, leadID)
	study, err := f.uc.Hazop.CreateStudy(ctx, usecase.StudyInput{
		Title: "Crude unit revamp",
		Site:  "North plant",
		Team:  []types.EmployeeID{leadID, assigneeID},
	})
	gt.NoError(t, err).Required()

	node, err := f.uc.Hazop.CreateNode(ctx, study.ID, usecase.NodeInput{
		Title:        "Feed pump P-101",
		DesignIntent: "Transfer crude at 40 m3/h",
	})
	gt.NoError(t, err).Required()
	return study, node
}

func lowRiskInput() model.DeviationInput {
	return model.DeviationInput{
		GeneralParameter:    "Flow",
		SpecificParameter:   "Crude feed",
		GuideWord:           "Less",
		Deviation:           "Less flow",
		Causes:              "Strainer blockage",
		Consequences:        "Pump cavitation",
		ExistingControl:     "Low flow alarm",
		ExistingProbability: 2,
		ExistingSeverity:    3,
	}
}

func escalatedInput(controls string) model.DeviationInput {
	in := lowRiskInput()
	in.ExistingProbability = 4
	in.ExistingSeverity = 4
	in.AdditionalControl = controls
	in.AdditionalProbability = 2
	in.AdditionalSeverity = 2
	return in
}

// seedRecommendation creates an escalated deviation with one recommendation
func (f *fixture) seedRecommendation(t *testing.T) (*model.Node, *model.Recommendation) {
	t.Helper()
	_, node := f.seedNode(t)
	ctx := actorCtx(t, leadID)

	d, err := f.uc.Deviation.Create(ctx, node.ID, escalatedInput("Install check valve"), false)
	gt.NoError(t, err).Required()
	recs, err := f.uc.Deviation.Recommendations(ctx, d.ID)
	gt.NoError(t, err).Required()
	gt.A(t, recs).Length(1).Required()
	return node, recs[0]
}

// completeRecommendation drives the recommendation to completed by assigneeID
func (f *fixture) completeRecommendation(t *testing.T, id types.RecommendationID) *model.Assignment {
	t.Helper()
	ctx := actorCtx(t, leadID)

	a, err := f.uc.Recommendation.Assign(ctx, id, assigneeID, time.Time{})
	gt.NoError(t, err).Required()
	_, err = f.uc.Recommendation.AcceptOrReject(actorCtx(t, assigneeID), a.ID, true)
	gt.NoError(t, err).Required()
	_, err = f.uc.Recommendation.Complete(actorCtx(t, assigneeID), a.ID, time.Time{})
	gt.NoError(t, err).Required()
	return a
}

// issue creates a challenge for the action and returns it with its code
func (f *fixture) issue(t *testing.T, kind types.ApprovalActionKind, subject string) (*model.Challenge, string) {
	t.Helper()
	ch, err := f.uc.Approval.Issue(actorCtx(t, verifierID), model.ActionRef{Kind: kind, SubjectID: subject}, verifierID)
	gt.NoError(t, err).Required()
	return ch, f.notifier.lastCode(t)
}

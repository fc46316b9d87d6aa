package usecase

import (
	"context"
	"time"

	"github.com/secmon-lab/hazop/pkg/domain/interfaces"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/model/config"
	"github.com/secmon-lab/hazop/pkg/utils/async"
	"github.com/secmon-lab/hazop/pkg/utils/errutil"
	"github.com/secmon-lab/hazop/pkg/utils/logging"
)

type UseCases struct {
	repo        interfaces.Repository
	hazopConfig *config.HazopConfig
	notifier    interfaces.Notifier
	directory   interfaces.Directory
	clock       func() time.Time
	asyncNotify bool

	Hazop          *HazopUseCase
	Deviation      *DeviationUseCase
	Sequence       *SequenceUseCase
	Recommendation *RecommendationUseCase
	Approval       *ApprovalUseCase
	Employee       *EmployeeUseCase
	Risk           *RiskUseCase
}

type Option func(*UseCases)

func WithHazopConfig(cfg *config.HazopConfig) Option {
	return func(uc *UseCases) {
		uc.hazopConfig = cfg
	}
}

// WithNotifier sets the delivery channel for assignment and OTP messages
func WithNotifier(n interfaces.Notifier) Option {
	return func(uc *UseCases) {
		uc.notifier = n
	}
}

func WithDirectory(d interfaces.Directory) Option {
	return func(uc *UseCases) {
		uc.directory = d
	}
}

// WithClock replaces time.Now. Target dates and OTP expiry follow this clock.
func WithClock(clock func() time.Time) Option {
	return func(uc *UseCases) {
		uc.clock = clock
	}
}

// WithAsyncNotify delivers notifications in the background instead of
// inline with the request
func WithAsyncNotify() Option {
	return func(uc *UseCases) {
		uc.asyncNotify = true
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:        repo,
		hazopConfig: &config.HazopConfig{},
		clock:       time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	env := &env{
		repo:        repo,
		cfg:         uc.hazopConfig,
		notifier:    uc.notifier,
		clock:       uc.clock,
		asyncNotify: uc.asyncNotify,
	}

	uc.Approval = NewApprovalUseCase(env)
	uc.Hazop = NewHazopUseCase(env, uc.Approval)
	uc.Deviation = NewDeviationUseCase(env)
	uc.Sequence = NewSequenceUseCase(env)
	uc.Recommendation = NewRecommendationUseCase(env, uc.Approval)
	uc.Employee = NewEmployeeUseCase(repo, uc.directory)
	uc.Risk = NewRiskUseCase(uc.hazopConfig)

	return uc
}

// env is the state shared by the workflow use cases
type env struct {
	repo        interfaces.Repository
	cfg         *config.HazopConfig
	notifier    interfaces.Notifier
	clock       func() time.Time
	asyncNotify bool
}

func (e *env) now() time.Time {
	return e.clock().UTC()
}

// commit writes the changeset stamped with the use case clock. Empty
// changesets are a no-op.
func (e *env) commit(ctx context.Context, cs *model.Changeset) error {
	if cs.IsEmpty() {
		return nil
	}
	cs.At = e.now()
	return e.repo.Commit(ctx, cs)
}

// notify delivers n best-effort. Failures are logged and never returned.
func (e *env) notify(ctx context.Context, n *model.Notification) {
	if e.notifier == nil || n.Recipient == "" {
		return
	}

	send := func(ctx context.Context) error {
		return e.notifier.Notify(ctx, n)
	}

	if e.asyncNotify {
		async.Dispatch(ctx, "notify:"+string(n.Kind), send)
		return
	}

	if err := send(ctx); err != nil {
		_ = errutil.Handle(ctx, err, "failed to send notification")
		return
	}
	logging.From(ctx).Debug("notification sent", "kind", n.Kind, "recipient", n.Recipient)
}

package worker

import (
	"context"
	"time"

	"github.com/secmon-lab/hazop/pkg/utils/logging"
)

// Refresher performs one synchronization cycle
type Refresher interface {
	Refresh(ctx context.Context) error
}

// EmployeeRefreshWorker keeps the local employee cache in sync with the
// directory.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - For future horizontal scaling, implement distributed locking or leader election
type EmployeeRefreshWorker struct {
	refresher Refresher
	interval  time.Duration
	stopCh    chan struct{}
	doneCh    chan struct{}
}

func NewEmployeeRefreshWorker(refresher Refresher, interval time.Duration) *EmployeeRefreshWorker {
	return &EmployeeRefreshWorker{
		refresher: refresher,
		interval:  interval,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background refresh loop. The initial sync also runs in
// the background and does not block server startup.
func (w *EmployeeRefreshWorker) Start(ctx context.Context) {
	logging.Default().Info("Employee refresh worker starting",
		"interval", w.interval.String())

	go w.run(ctx)
}

// Stop signals the worker to stop and waits for completion
func (w *EmployeeRefreshWorker) Stop() {
	logging.Default().Info("Employee refresh worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Employee refresh worker stopped")
}

func (w *EmployeeRefreshWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	if err := w.refresher.Refresh(ctx); err != nil {
		logging.Default().Error("Initial employee refresh failed (will retry next interval)",
			"error", err.Error())
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.refresher.Refresh(ctx); err != nil {
				logging.Default().Error("Employee refresh failed (will retry next interval)",
					"error", err.Error())
			}

		case <-w.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("Employee refresh worker context cancelled")
			return
		}
	}
}

package interfaces

import (
	"context"

	"github.com/secmon-lab/hazop/pkg/domain/model"
)

// Notifier delivers a message to one person. Delivery is best-effort;
// callers log failures and carry on.
type Notifier interface {
	Notify(ctx context.Context, n *model.Notification) error
}

// Directory is the external source of employee records
type Directory interface {
	ListEmployees(ctx context.Context) ([]*model.Employee, error)
}

package interfaces

import (
	"context"

	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/types"
)

// EmployeeRepository caches the external employee directory.
//
// The refresh worker replaces the whole set with DeleteAll then SaveMany;
// there is no single-entry Save.
type EmployeeRepository interface {
	GetAll(ctx context.Context) ([]*model.Employee, error)

	GetByID(ctx context.Context, id types.EmployeeID) (*model.Employee, error)

	// GetByIDs returns a map of ID to employee. Unknown IDs are omitted.
	GetByIDs(ctx context.Context, ids []types.EmployeeID) (map[types.EmployeeID]*model.Employee, error)

	SaveMany(ctx context.Context, employees []*model.Employee) error

	DeleteAll(ctx context.Context) error

	GetMetadata(ctx context.Context) (*model.EmployeeMetadata, error)

	SaveMetadata(ctx context.Context, metadata *model.EmployeeMetadata) error
}

package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/types"
)

type employeeRepository struct {
	mu        sync.RWMutex
	employees map[types.EmployeeID]*model.Employee
	metadata  *model.EmployeeMetadata
}

func newEmployeeRepository() *employeeRepository {
	return &employeeRepository{
		employees: make(map[types.EmployeeID]*model.Employee),
		metadata:  &model.EmployeeMetadata{},
	}
}

func (r *employeeRepository) GetAll(ctx context.Context) ([]*model.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	employees := make([]*model.Employee, 0, len(r.employees))
	for _, e := range r.employees {
		c := *e
		employees = append(employees, &c)
	}
	return employees, nil
}

func (r *employeeRepository) GetByID(ctx context.Context, id types.EmployeeID) (*model.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.employees[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "employee not found", goerr.V(model.IDKey, id))
	}
	c := *e
	return &c, nil
}

func (r *employeeRepository) GetByIDs(ctx context.Context, ids []types.EmployeeID) (map[types.EmployeeID]*model.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[types.EmployeeID]*model.Employee, len(ids))
	for _, id := range ids {
		if e, ok := r.employees[id]; ok {
			c := *e
			result[id] = &c
		}
	}
	return result, nil
}

func (r *employeeRepository) SaveMany(ctx context.Context, employees []*model.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range employees {
		c := *e
		r.employees[e.ID] = &c
	}
	return nil
}

func (r *employeeRepository) DeleteAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.employees = make(map[types.EmployeeID]*model.Employee)
	return nil
}

func (r *employeeRepository) GetMetadata(ctx context.Context) (*model.EmployeeMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := *r.metadata
	return &c, nil
}

func (r *employeeRepository) SaveMetadata(ctx context.Context, metadata *model.EmployeeMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *metadata
	r.metadata = &c
	return nil
}

package slack

import (
	"context"

	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/types"
)

// Directory lists workspace members as employees. The Slack profile title is
// used as the department.
type Directory struct {
	svc Service
}

func NewDirectory(svc Service) *Directory {
	return &Directory{svc: svc}
}

func (d *Directory) ListEmployees(ctx context.Context) ([]*model.Employee, error) {
	users, err := d.svc.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	employees := make([]*model.Employee, len(users))
	for i, u := range users {
		employees[i] = &model.Employee{
			ID:         types.EmployeeID(u.ID),
			Name:       u.Name,
			RealName:   u.RealName,
			Email:      u.Email,
			Department: u.Title,
			ImageURL:   u.ImageURL,
		}
	}
	return employees, nil
}

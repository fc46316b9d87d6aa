package usecase

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/domain/interfaces"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/types"
	"github.com/secmon-lab/hazop/pkg/utils/logging"
)

// ErrNoDirectory is returned by Refresh when no directory is configured
var ErrNoDirectory = goerr.New("employee directory is not configured")

// EmployeeUseCase serves the cached employee directory
type EmployeeUseCase struct {
	repo      interfaces.Repository
	directory interfaces.Directory
}

func NewEmployeeUseCase(repo interfaces.Repository, directory interfaces.Directory) *EmployeeUseCase {
	return &EmployeeUseCase{
		repo:      repo,
		directory: directory,
	}
}

// Search returns employees matching the query, sorted by display name
func (uc *EmployeeUseCase) Search(ctx context.Context, query string, limit int) ([]*model.Employee, error) {
	all, err := uc.repo.Employee().GetAll(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get employees")
	}

	result := make([]*model.Employee, 0, len(all))
	for _, e := range all {
		if e.Matches(query) {
			result = append(result, e)
		}
	}
	slices.SortFunc(result, func(a, b *model.Employee) int {
		if c := strings.Compare(strings.ToLower(a.DisplayName()), strings.ToLower(b.DisplayName())); c != 0 {
			return c
		}
		return strings.Compare(string(a.ID), string(b.ID))
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (uc *EmployeeUseCase) Get(ctx context.Context, id types.EmployeeID) (*model.Employee, error) {
	e, err := uc.repo.Employee().GetByID(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get employee", goerr.V("employee_id", id))
	}
	return e, nil
}

// Refresh replaces the cached employees with the directory's current list.
// On a directory failure the cache is left as it was and only the attempt
// time is recorded.
func (uc *EmployeeUseCase) Refresh(ctx context.Context) error {
	if uc.directory == nil {
		return ErrNoDirectory
	}

	startTime := time.Now()
	logger := logging.From(ctx)
	logger.Info("Starting employee refresh")

	existing, err := uc.repo.Employee().GetMetadata(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to get existing metadata")
	}

	attempt := &model.EmployeeMetadata{
		LastRefreshSuccess: existing.LastRefreshSuccess,
		LastRefreshAttempt: startTime,
		EmployeeCount:      existing.EmployeeCount,
	}
	if err := uc.repo.Employee().SaveMetadata(ctx, attempt); err != nil {
		return goerr.Wrap(err, "failed to save refresh attempt metadata")
	}

	employees, err := uc.directory.ListEmployees(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list employees from directory")
	}
	for _, e := range employees {
		e.UpdatedAt = startTime
	}

	// Replace strategy: DeleteAll → SaveMany
	if err := uc.repo.Employee().DeleteAll(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete existing employees")
	}
	if err := uc.repo.Employee().SaveMany(ctx, employees); err != nil {
		return goerr.Wrap(err, "failed to save employees", goerr.V("count", len(employees)))
	}

	success := &model.EmployeeMetadata{
		LastRefreshSuccess: startTime,
		LastRefreshAttempt: startTime,
		EmployeeCount:      len(employees),
	}
	if err := uc.repo.Employee().SaveMetadata(ctx, success); err != nil {
		return goerr.Wrap(err, "failed to save refresh success metadata")
	}

	logger.Info("Employee refresh completed",
		"count", len(employees),
		"duration", time.Since(startTime).String())
	return nil
}

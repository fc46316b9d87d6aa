package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/hazop/pkg/domain/interfaces"
	"github.com/secmon-lab/hazop/pkg/domain/model"
	"github.com/secmon-lab/hazop/pkg/domain/types"
)

const refreshStatusID = "refresh_status"

type employeeRepository struct{ pool *pgxpool.Pool }

var _ interfaces.EmployeeRepository = &employeeRepository{}

const employeeColumns = "id, name, real_name, email, department, image_url, updated_at"

func scanEmployee(row pgx.Row) (*model.Employee, error) {
	var (
		e  model.Employee
		id string
	)
	if err := row.Scan(&id, &e.Name, &e.RealName, &e.Email, &e.Department, &e.ImageURL, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.ID = types.EmployeeID(id)
	return &e, nil
}

func (r *employeeRepository) GetAll(ctx context.Context) ([]*model.Employee, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+employeeColumns+" FROM employees ORDER BY id")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list employees")
	}
	defer rows.Close()

	var employees []*model.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan employee")
		}
		employees = append(employees, e)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "error iterating employees")
	}
	return employees, nil
}

func (r *employeeRepository) GetByID(ctx context.Context, id types.EmployeeID) (*model.Employee, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = $1", id.String())
	e, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, goerr.Wrap(model.ErrNotFound, "employee not found", goerr.V(model.IDKey, id))
		}
		return nil, goerr.Wrap(err, "failed to get employee", goerr.V(model.IDKey, id))
	}
	return e, nil
}

func (r *employeeRepository) GetByIDs(ctx context.Context, ids []types.EmployeeID) (map[types.EmployeeID]*model.Employee, error) {
	result := make(map[types.EmployeeID]*model.Employee, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	rows, err := r.pool.Query(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = ANY($1)", keys)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to batch get employees", goerr.V("count", len(ids)))
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan employee")
		}
		result[e.ID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "error iterating employees")
	}
	return result, nil
}

func (r *employeeRepository) SaveMany(ctx context.Context, employees []*model.Employee) error {
	if len(employees) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range employees {
		batch.Queue(`INSERT INTO employees (`+employeeColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, real_name = EXCLUDED.real_name,
			email = EXCLUDED.email, department = EXCLUDED.department,
			image_url = EXCLUDED.image_url, updated_at = EXCLUDED.updated_at`,
			e.ID.String(), e.Name, e.RealName, e.Email, e.Department, e.ImageURL, e.UpdatedAt)
	}

	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return goerr.Wrap(err, "failed to save employees", goerr.V("count", len(employees)))
	}
	return nil
}

func (r *employeeRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM employees"); err != nil {
		return goerr.Wrap(err, "failed to delete employees")
	}
	return nil
}

func (r *employeeRepository) GetMetadata(ctx context.Context) (*model.EmployeeMetadata, error) {
	var m model.EmployeeMetadata
	err := r.pool.QueryRow(ctx,
		"SELECT last_refresh_success, last_refresh_attempt, employee_count FROM employee_metadata WHERE id = $1",
		refreshStatusID,
	).Scan(&m.LastRefreshSuccess, &m.LastRefreshAttempt, &m.EmployeeCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.EmployeeMetadata{}, nil
		}
		return nil, goerr.Wrap(err, "failed to get employee metadata")
	}
	return &m, nil
}

func (r *employeeRepository) SaveMetadata(ctx context.Context, metadata *model.EmployeeMetadata) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO employee_metadata (id, last_refresh_success, last_refresh_attempt, employee_count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET last_refresh_success = EXCLUDED.last_refresh_success,
		last_refresh_attempt = EXCLUDED.last_refresh_attempt, employee_count = EXCLUDED.employee_count`,
		refreshStatusID, metadata.LastRefreshSuccess, metadata.LastRefreshAttempt, metadata.EmployeeCount)
	if err != nil {
		return goerr.Wrap(err, "failed to save employee metadata")
	}
	return nil
}

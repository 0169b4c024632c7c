package repository

import (
	"database/sql"

	"github.com/Rashi-Foundation/Migdalor/backend/internal/domain"
)

const employeeColumns = `id, person_id, first_name, last_name, email, phone, department, role, status, created_at, version`

func scanEmployee(row interface{ Scan(dest ...any) error }) (*domain.Employee, error) {
	e := &domain.Employee{}
	var email, phone sql.NullString
	dst := []any{&e.ID, &e.PersonID, &e.FirstName, &e.LastName, &email, &phone, &e.Department, &e.Role, &e.Status, &e.CreatedAt, &e.Version}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}
	e.Email = email.String
	e.Phone = phone.String
	return e, nil
}

func (r *Repository) queryEmployees(query string, args ...any) ([]*domain.Employee, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]*domain.Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return employees, nil
}

// GetAllEmployees returns the active roster ordered by person_id.
func (r *Repository) GetAllEmployees() ([]*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE status = 'active' ORDER BY person_id`
	return r.queryEmployees(query)
}

// GetEmployeesByPersonIDs keeps the order of personIDs and skips ids that do
// not exist.
func (r *Repository) GetEmployeesByPersonIDs(personIDs []string) ([]*domain.Employee, error) {
	query := `
		SELECT ` + employeeColumns + `
		FROM employees
		WHERE person_id = ANY($1)
		ORDER BY array_position($1, person_id)
	`
	return r.queryEmployees(query, personIDs)
}

func (r *Repository) GetEmployeeByPersonID(personID string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE person_id = $1`

	ctx, cancel := r.queryContext()
	defer cancel()

	return scanEmployee(r.dbpool.QueryRowContext(ctx, query, personID))
}

func (r *Repository) CreateEmployee(e *domain.Employee) error {
	query := `
		INSERT INTO employees (person_id, first_name, last_name, email, phone, department, role, status)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8)
		RETURNING id, created_at, version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	args := []any{e.PersonID, e.FirstName, e.LastName, e.Email, e.Phone, e.Department, e.Role, e.Status}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&e.ID, &e.CreatedAt, &e.Version); err != nil {
		return err
	}

	return nil
}

// UpdateEmployee uses optimistic locking on version; a stale version yields sql.ErrNoRows.
func (r *Repository) UpdateEmployee(e *domain.Employee) error {
	query := `
		UPDATE employees
		SET
			first_name = $1,
			last_name = $2,
			email = NULLIF($3, ''),
			phone = NULLIF($4, ''),
			department = $5,
			role = $6,
			status = $7,
			version = version + 1
		WHERE person_id = $8 AND version = $9
		RETURNING id, created_at, version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	args := []any{e.FirstName, e.LastName, e.Email, e.Phone, e.Department, e.Role, e.Status, e.PersonID, e.Version}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&e.ID, &e.CreatedAt, &e.Version)
}

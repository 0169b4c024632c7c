package repository

import (
	"database/sql"
	"time"

	"github.com/Rashi-Foundation/Migdalor/backend/internal/domain"
)

// GetAssignmentsBetween returns assignments with from <= date < to, oldest first.
func (r *Repository) GetAssignmentsBetween(from, to time.Time) ([]*domain.Assignment, error) {
	query := `
		SELECT id, date, working_station_name, person_id, number_of_hours, created_at
		FROM assignments
		WHERE date >= $1 AND date < $2
		ORDER BY date, id
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make([]*domain.Assignment, 0)
	for rows.Next() {
		a := &domain.Assignment{}
		if err := rows.Scan(&a.ID, &a.Date, &a.StationName, &a.PersonID, &a.NumberOfHours, &a.CreatedAt); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *Repository) CreateAssignment(a *domain.Assignment) error {
	query := `
		INSERT INTO assignments (date, working_station_name, person_id, number_of_hours)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	args := []any{a.Date, a.StationName, a.PersonID, a.NumberOfHours}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&a.ID, &a.CreatedAt)
}

// InsertAssignments stores a confirmed optimization result. Either every
// assignment is written or none is.
func (r *Repository) InsertAssignments(assignments []*domain.Assignment) error {
	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO assignments (date, working_station_name, person_id, number_of_hours)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	for _, a := range assignments {
		args := []any{a.Date, a.StationName, a.PersonID, a.NumberOfHours}
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&a.ID, &a.CreatedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteNthAssignment removes the n-th (1-based) assignment of a worker within
// [from, to). It returns sql.ErrNoRows when there is no such assignment.
func (r *Repository) DeleteNthAssignment(personID string, from, to time.Time, n int) error {
	query := `
		DELETE FROM assignments
		WHERE id = (
			SELECT id FROM assignments
			WHERE person_id = $1 AND date >= $2 AND date < $3
			ORDER BY date, id
			OFFSET $4 LIMIT 1
		)
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	res, err := r.dbpool.ExecContext(ctx, query, personID, from, to, n-1)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

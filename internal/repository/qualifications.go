package repository

import (
	"github.com/Rashi-Foundation/Migdalor/backend/internal/domain"
)

func (r *Repository) queryQualifications(query string, args ...any) ([]domain.Qualification, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quals := make([]domain.Qualification, 0)
	for rows.Next() {
		var q domain.Qualification
		if err := rows.Scan(&q.PersonID, &q.StationID, &q.Score); err != nil {
			return nil, err
		}
		quals = append(quals, q)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return quals, nil
}

func (r *Repository) GetAllQualifications() ([]domain.Qualification, error) {
	return r.queryQualifications(`SELECT person_id, station_id, avg FROM qualifications ORDER BY id`)
}

func (r *Repository) GetQualificationsByStation(stationID string) ([]domain.Qualification, error) {
	query := `SELECT person_id, station_id, avg FROM qualifications WHERE station_id = $1 ORDER BY id`
	return r.queryQualifications(query, stationID)
}

func (r *Repository) GetQualificationsByPersonID(personID string) ([]domain.Qualification, error) {
	query := `SELECT person_id, station_id, avg FROM qualifications WHERE person_id = $1 ORDER BY id`
	return r.queryQualifications(query, personID)
}

// GetQualificationsFor loads the records restricted to the given workers and
// stations, which is all an optimization run needs.
func (r *Repository) GetQualificationsFor(personIDs, stationIDs []string) ([]domain.Qualification, error) {
	query := `
		SELECT person_id, station_id, avg
		FROM qualifications
		WHERE person_id = ANY($1) AND station_id = ANY($2)
		ORDER BY id
	`
	return r.queryQualifications(query, personIDs, stationIDs)
}

// UpsertQualification records the score of a worker at a station, replacing
// any earlier score for the same pair.
func (r *Repository) UpsertQualification(q *domain.Qualification) error {
	query := `
		INSERT INTO qualifications (person_id, station_id, avg)
		VALUES ($1, $2, $3)
		ON CONFLICT (person_id, station_id) DO UPDATE SET avg = EXCLUDED.avg
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, q.PersonID, q.StationID, q.Score)
	return err
}

// ReplaceQualifications upserts a whole matrix in one transaction.
func (r *Repository) ReplaceQualifications(quals []domain.Qualification) error {
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
		INSERT INTO qualifications (person_id, station_id, avg)
		VALUES ($1, $2, $3)
		ON CONFLICT (person_id, station_id) DO UPDATE SET avg = EXCLUDED.avg
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, q := range quals {
		if _, err := stmt.ExecContext(ctx, q.PersonID, q.StationID, q.Score); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// CreateQualification fails on the qualifications_person_station_key
// constraint when the pair already has a score.
func (r *Repository) CreateQualification(q *domain.Qualification) error {
	query := `INSERT INTO qualifications (person_id, station_id, avg) VALUES ($1, $2, $3)`

	ctx, cancel := r.queryContext()
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, q.PersonID, q.StationID, q.Score)
	return err
}

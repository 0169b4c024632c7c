package repository

import (
	"github.com/Rashi-Foundation/Migdalor/backend/internal/domain"
)

func (r *Repository) GetAllStations() ([]*domain.Station, error) {
	query := `SELECT id, name, product, department FROM stations ORDER BY name`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stations := make([]*domain.Station, 0)
	for rows.Next() {
		s := &domain.Station{}
		if err := rows.Scan(&s.ID, &s.Name, &s.Product, &s.Department); err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stations, nil
}

func (r *Repository) GetStationByName(name string) (*domain.Station, error) {
	query := `SELECT id, product, department FROM stations WHERE name = $1`

	ctx, cancel := r.queryContext()
	defer cancel()

	s := &domain.Station{
		Name: name,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, name).Scan(&s.ID, &s.Product, &s.Department); err != nil {
		return nil, err
	}

	return s, nil
}

// GetStationsByNames resolves display names to stations in the order given.
// Unknown names are skipped; callers compare lengths to detect them.
func (r *Repository) GetStationsByNames(names []string) ([]*domain.Station, error) {
	query := `
		SELECT id, name, product, department
		FROM stations
		WHERE name = ANY($1)
		ORDER BY array_position($1, name)
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stations := make([]*domain.Station, 0, len(names))
	for rows.Next() {
		s := &domain.Station{}
		if err := rows.Scan(&s.ID, &s.Name, &s.Product, &s.Department); err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stations, nil
}

func (r *Repository) CreateStation(s *domain.Station) error {
	query := `INSERT INTO stations (id, name, product, department) VALUES ($1, $2, $3, $4)`

	ctx, cancel := r.queryContext()
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, s.ID, s.Name, s.Product, s.Department)
	return err
}

// GetAllProducts lists every product some station builds.
func (r *Repository) GetAllProducts() ([]domain.Product, error) {
	query := `
		SELECT product, COUNT(*)
		FROM stations
		WHERE product <> ''
		GROUP BY product
		ORDER BY product
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.Name, &p.StationCount); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (r *Repository) GetWorkingStationsByStation(stationID string) ([]domain.WorkingStation, error) {
	query := `SELECT id, name, station_id FROM working_stations WHERE station_id = $1 ORDER BY name`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, stationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workingStations := make([]domain.WorkingStation, 0)
	for rows.Next() {
		var ws domain.WorkingStation
		if err := rows.Scan(&ws.ID, &ws.Name, &ws.StationID); err != nil {
			return nil, err
		}
		workingStations = append(workingStations, ws)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return workingStations, nil
}

func (r *Repository) CreateWorkingStation(ws *domain.WorkingStation) error {
	query := `INSERT INTO working_stations (name, station_id) VALUES ($1, $2) RETURNING id`

	ctx, cancel := r.queryContext()
	defer cancel()

	return r.dbpool.QueryRowContext(ctx, query, ws.Name, ws.StationID).Scan(&ws.ID)
}

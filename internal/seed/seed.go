// Package seed imports a qualification matrix from CSV.
//
// The header starts with the info columns personID, firstName, lastName and
// optionally email. Every other column is a station name and its cells hold
// the score of the row's employee at that station. Empty cells mean the
// employee has no qualification there.
package seed

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/Rashi-Foundation/Migdalor/backend/internal/domain"
	"github.com/Rashi-Foundation/Migdalor/backend/internal/utils"
)

var requiredInfoHeaders = []string{"personID", "firstName", "lastName"}
var infoHeaders = []string{"personID", "firstName", "lastName", "email"}

// Rating is one non-empty cell of the matrix.
type Rating struct {
	PersonID    string
	StationName string
	Score       float64
}

type Matrix struct {
	Employees    []*domain.Employee
	StationNames []string
	Ratings      []Rating
}

// Parse reads a qualification matrix. Rows are numbered from 1 after the
// header in error messages.
func Parse(r io.Reader) (*Matrix, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	for _, h := range requiredInfoHeaders {
		if !slices.Contains(headers, h) {
			return nil, fmt.Errorf("%w: missing %q column", domain.ErrMalformedRecord, h)
		}
	}

	m := &Matrix{
		Employees:    make([]*domain.Employee, 0),
		StationNames: make([]string, 0),
		Ratings:      make([]Rating, 0),
	}
	for _, h := range headers {
		if slices.Contains(infoHeaders, h) {
			continue
		}
		if h == "" {
			return nil, fmt.Errorf("%w: empty station column", domain.ErrMalformedRecord)
		}
		if slices.Contains(m.StationNames, h) {
			return nil, fmt.Errorf("%w: station column %q appears twice", domain.ErrMalformedRecord, h)
		}
		m.StationNames = append(m.StationNames, h)
	}

	seen := make(map[string]bool)
	for row := 1; ; row++ {
		fields, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", row, err)
		}

		record := make(map[string]string, len(headers))
		for i, value := range fields {
			record[headers[i]] = strings.TrimSpace(value)
		}

		personID := record["personID"]
		if personID == "" {
			return nil, fmt.Errorf("%w: row %d has no personID", domain.ErrMalformedRecord, row)
		}
		if seen[personID] {
			return nil, fmt.Errorf("%w: row %d repeats personID %q", domain.ErrMalformedRecord, row, personID)
		}
		seen[personID] = true

		m.Employees = append(m.Employees, &domain.Employee{
			PersonID:  personID,
			FirstName: record["firstName"],
			LastName:  record["lastName"],
			Email:     strings.ToLower(record["email"]),
			Status:    "active",
		})

		for _, station := range m.StationNames {
			cell := record[station]
			if cell == "" {
				continue
			}

			score, err := strconv.ParseFloat(cell, 64)
			if err != nil || math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
				return nil, fmt.Errorf("%w: row %d has invalid score %q for station %q", domain.ErrMalformedRecord, row, cell, station)
			}

			m.Ratings = append(m.Ratings, Rating{
				PersonID:    personID,
				StationName: station,
				Score:       score,
			})
		}
	}

	return m, nil
}

// Store is the persistence an import needs. *repository.Repository
// implements it.
type Store interface {
	GetEmployeeByPersonID(personID string) (*domain.Employee, error)
	CreateEmployee(e *domain.Employee) error
	GetStationByName(name string) (*domain.Station, error)
	CreateStation(s *domain.Station) error
	UpsertQualification(q *domain.Qualification) error
}

type Summary struct {
	EmployeesCreated int
	StationsCreated  int
	Qualifications   int
}

// Import creates the employees and stations of the matrix that do not exist
// yet and upserts every rating. Existing employees are left unchanged.
func Import(store Store, m *Matrix) (*Summary, error) {
	summary := &Summary{}

	for _, e := range m.Employees {
		_, err := store.GetEmployeeByPersonID(e.PersonID)
		switch {
		case err == nil:
			continue
		case errors.Is(err, sql.ErrNoRows):
			if err := store.CreateEmployee(e); err != nil {
				return summary, fmt.Errorf("create employee %q: %w", e.PersonID, err)
			}
			summary.EmployeesCreated++
		default:
			return summary, err
		}
	}

	stationIDs := make(map[string]string, len(m.StationNames))
	for _, name := range m.StationNames {
		station, err := store.GetStationByName(name)
		switch {
		case err == nil:
		case errors.Is(err, sql.ErrNoRows):
			station = &domain.Station{
				ID:   "ST" + utils.GenerateRandomID(0, 6),
				Name: name,
			}
			if err := store.CreateStation(station); err != nil {
				return summary, fmt.Errorf("create station %q: %w", name, err)
			}
			summary.StationsCreated++
		default:
			return summary, err
		}
		stationIDs[name] = station.ID
	}

	for _, rating := range m.Ratings {
		q := &domain.Qualification{
			PersonID:  rating.PersonID,
			StationID: stationIDs[rating.StationName],
			Score:     rating.Score,
		}
		if err := store.UpsertQualification(q); err != nil {
			return summary, fmt.Errorf("upsert qualification %s/%s: %w", rating.PersonID, rating.StationName, err)
		}
		summary.Qualifications++
	}

	slog.Info("qualification matrix imported",
		"employeesCreated", summary.EmployeesCreated,
		"stationsCreated", summary.StationsCreated,
		"qualifications", summary.Qualifications,
	)

	return summary, nil
}

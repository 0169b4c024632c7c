package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/Rashi-Foundation/Migdalor/backend/internal/domain"
)

const DateLayout = "2006-01-02"

// ValidateStationAssignments checks that no station and no worker appears twice.
func ValidateStationAssignments(assignments []domain.StationAssignment) error {
	seenStations := make(map[string]bool, len(assignments))
	seenWorkers := make(map[string]bool, len(assignments))

	for i, a := range assignments {
		if seenStations[a.StationID] {
			return fmt.Errorf("assignment %d: station %q is assigned twice", i, a.StationID)
		}
		if seenWorkers[a.PersonID] {
			return fmt.Errorf("assignment %d: worker %q is assigned twice", i, a.PersonID)
		}
		seenStations[a.StationID] = true
		seenWorkers[a.PersonID] = true
	}

	return nil
}

func ValidateUniqueIDs(workers []*domain.Employee, stations []*domain.Station) error {
	seen := make(map[string]bool, len(workers))
	for _, w := range workers {
		if w == nil {
			return errors.New("worker list contains a nil entry")
		}
		if seen[w.PersonID] {
			return fmt.Errorf("worker %q appears more than once", w.PersonID)
		}
		seen[w.PersonID] = true
	}

	seen = make(map[string]bool, len(stations))
	for _, s := range stations {
		if s == nil {
			return errors.New("station list contains a nil entry")
		}
		if seen[s.ID] {
			return fmt.Errorf("station %q appears more than once", s.ID)
		}
		seen[s.ID] = true
	}

	return nil
}

// ParseAssignmentDate parses a YYYY-MM-DD date and returns the start of that
// day together with the start of the next one.
func ParseAssignmentDate(date string) (time.Time, time.Time, error) {
	start, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("date %q must use the YYYY-MM-DD format", date)
	}
	return start, start.AddDate(0, 0, 1), nil
}

func ValidateNumberOfHours(hours int32) error {
	if hours <= 0 || hours > 24 {
		return fmt.Errorf("number of hours must be within 1 and 24, got %d", hours)
	}
	return nil
}

// Package ranker orders a roster of workers by their qualification for one station.
package ranker

import (
	"fmt"
	"slices"

	"github.com/Rashi-Foundation/Migdalor/backend/internal/domain"
	"github.com/Rashi-Foundation/Migdalor/backend/internal/qualification"
)

type Candidate struct {
	Employee *domain.Employee `json:"employee"`
	Score    float64          `json:"score"`
}

// QualifiedCandidate.Score is nil when no qualification was recorded.
type QualifiedCandidate struct {
	Employee *domain.Employee `json:"employee"`
	Score    *float64         `json:"qualificationAvg"`
}

// AllSortedForStation returns every worker sorted by score descending. Equal
// scores keep the input order.
func AllSortedForStation(workers []*domain.Employee, station *domain.Station, idx *qualification.Index) []Candidate {
	candidates := make([]Candidate, 0, len(workers))
	for _, w := range workers {
		candidates = append(candidates, Candidate{
			Employee: w,
			Score:    idx.Score(w.PersonID, station.ID),
		})
	}

	slices.SortStableFunc(candidates, func(a, b Candidate) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	return candidates
}

// TopForStation returns at most k workers with the same ordering as
// AllSortedForStation. k larger than the roster returns the whole roster.
// k <= 0 is rejected even when the roster is empty.
func TopForStation(workers []*domain.Employee, station *domain.Station, idx *qualification.Index, k int) ([]Candidate, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidParameter, k)
	}

	sorted := AllSortedForStation(workers, station, idx)
	if k < len(sorted) {
		sorted = sorted[:k]
	}

	return sorted, nil
}

// QualifiedForStation keeps only the workers that have a recorded
// qualification for the station, in input order.
func QualifiedForStation(workers []*domain.Employee, station *domain.Station, idx *qualification.Index) []QualifiedCandidate {
	result := make([]QualifiedCandidate, 0)
	for _, w := range workers {
		score, ok := idx.Lookup(w.PersonID, station.ID)
		if !ok {
			continue
		}
		result = append(result, QualifiedCandidate{
			Employee: w,
			Score:    &score,
		})
	}
	return result
}

// RankTop builds the index from raw qualification records and ranks the top k.
func RankTop(workers []*domain.Employee, station *domain.Station, quals []domain.Qualification, k int) ([]Candidate, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidParameter, k)
	}

	idx, err := qualification.Build(quals)
	if err != nil {
		return nil, err
	}

	return TopForStation(workers, station, idx, k)
}

func RankAll(workers []*domain.Employee, station *domain.Station, quals []domain.Qualification) ([]Candidate, error) {
	idx, err := qualification.Build(quals)
	if err != nil {
		return nil, err
	}

	return AllSortedForStation(workers, station, idx), nil
}

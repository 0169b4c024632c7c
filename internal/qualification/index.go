// Package qualification builds the (worker, station) score lookup shared by the
// ranker and the assignment optimizer.
package qualification

import (
	"fmt"
	"math"

	"github.com/Rashi-Foundation/Migdalor/backend/internal/domain"
)

// DefaultScore is returned for pairs with no recorded qualification.
const DefaultScore = 0.0

type pairKey struct {
	personID  string
	stationID string
}

// Index is immutable once built and safe for concurrent reads.
type Index struct {
	scores map[pairKey]float64
}

// Build indexes the records in input order, so a later duplicate of the same
// (worker, station) pair replaces an earlier one.
func Build(quals []domain.Qualification) (*Index, error) {
	idx := &Index{
		scores: make(map[pairKey]float64, len(quals)),
	}

	for i, q := range quals {
		if math.IsNaN(q.Score) || math.IsInf(q.Score, 0) {
			return nil, fmt.Errorf("%w: record %d (%s, %s) has non-finite score", domain.ErrMalformedRecord, i, q.PersonID, q.StationID)
		}
		if q.Score < 0 {
			return nil, fmt.Errorf("%w: record %d (%s, %s) has negative score %g", domain.ErrMalformedRecord, i, q.PersonID, q.StationID, q.Score)
		}

		idx.scores[pairKey{personID: q.PersonID, stationID: q.StationID}] = q.Score
	}

	return idx, nil
}

func (idx *Index) Score(personID, stationID string) float64 {
	score, ok := idx.Lookup(personID, stationID)
	if !ok {
		return DefaultScore
	}
	return score
}

// Lookup reports whether a qualification was recorded for the pair.
func (idx *Index) Lookup(personID, stationID string) (float64, bool) {
	if idx == nil {
		return DefaultScore, false
	}
	score, ok := idx.scores[pairKey{personID: personID, stationID: stationID}]
	return score, ok
}

func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.scores)
}

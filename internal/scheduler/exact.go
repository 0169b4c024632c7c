package scheduler

import (
	"math"

	"github.com/Rashi-Foundation/Migdalor/backend/internal/domain"
	"github.com/Rashi-Foundation/Migdalor/backend/internal/qualification"
)

// SolveExact computes the optimal assignment with the Hungarian algorithm in
// O(n²m). It is used as a reference for the genetic search on small inputs.
func SolveExact(workers []*domain.Employee, stations []*domain.Station, index *qualification.Index) (float64, []domain.StationAssignment) {
	if len(workers) == 0 || len(stations) == 0 {
		return 0, []domain.StationAssignment{}
	}

	// rows are the smaller side, the algorithm needs rows <= cols
	rowsAreStations := len(stations) <= len(workers)
	n, m := len(workers), len(stations)
	if rowsAreStations {
		n, m = m, n
	}

	score := func(row, col int) float64 {
		if rowsAreStations {
			return index.Score(workers[col].PersonID, stations[row].ID)
		}
		return index.Score(workers[row].PersonID, stations[col].ID)
	}

	// maximize score by minimizing its negation
	cost := make([][]float64, n)
	for i := range cost {
		cost[i] = make([]float64, m)
		for j := range cost[i] {
			cost[i][j] = -score(i, j)
		}
	}

	match := hungarian(cost)

	total := 0.0
	assignments := make([]domain.StationAssignment, 0, n)
	for row, col := range match {
		s := score(row, col)
		total += s

		a := domain.StationAssignment{Score: s}
		if rowsAreStations {
			a.StationID, a.PersonID = stations[row].ID, workers[col].PersonID
		} else {
			a.StationID, a.PersonID = stations[col].ID, workers[row].PersonID
		}
		assignments = append(assignments, a)
	}

	return total, assignments
}

// hungarian solves the rectangular minimum-cost assignment for an n×m matrix
// with n <= m and returns the column matched to every row.
func hungarian(cost [][]float64) []int {
	n := len(cost)
	m := len(cost[0])

	// potentials and matching are 1-indexed; column 0 is a sentinel
	u := make([]float64, n+1)
	v := make([]float64, m+1)
	p := make([]int, m+1)
	way := make([]int, m+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minv := make([]float64, m+1)
		used := make([]bool, m+1)
		for j := range minv {
			minv[j] = math.Inf(1)
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := math.Inf(1)
			j1 := 0

			for j := 1; j <= m; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}

			for j := 0; j <= m; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}

			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	match := make([]int, n)
	for j := 1; j <= m; j++ {
		if p[j] != 0 {
			match[p[j]-1] = j - 1
		}
	}
	return match
}

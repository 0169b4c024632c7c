package scheduler

import (
	"github.com/Rashi-Foundation/Migdalor/backend/internal/domain"
)

// Genome is a permutation of pool indices. Slot i of the permutation is paired
// with element i of the smaller side; slots past that are left idle.
type Genome struct {
	perm    []int
	fitness float64
}

func (g *Genome) clone() *Genome {
	perm := make([]int, len(g.perm))
	copy(perm, g.perm)
	return &Genome{
		perm:    perm,
		fitness: g.fitness,
	}
}

// Parameters of the genetic algorithm.
type Parameters struct {
	PopulationSize  int     // genomes per generation
	MaxGenerations  int     // generation budget
	StagnationLimit int     // generations without improvement before stopping
	CrossoverRate   float64 // probability that a child is bred by crossover
	MutationRate    float64 // per-genome swap probability
	EliteCount      int     // genomes carried over unmutated
	TournamentSize  int     // contestants per tournament
	GapCheckLimit   int     // pool sizes up to this get an exact optimum for gap reporting, 0 disables
}

type StopReason string

const (
	StopTrivial    StopReason = "trivial"
	StopBudget     StopReason = "budget"
	StopStagnation StopReason = "stagnation"
	StopCancelled  StopReason = "cancelled"
)

// Result is the decoded best genome of a run.
type Result struct {
	Assignments        []domain.StationAssignment `json:"assignments"`
	UnassignedStations []string                   `json:"unassignedStations"`
	IdleWorkers        []string                   `json:"idleWorkers"`
	TotalScore         float64                    `json:"totalScore"`
	Generations        int                        `json:"generations"`
	StopReason         StopReason                 `json:"stopReason"`

	// History holds the best fitness of the initial population followed by
	// the best fitness of every generation that was run.
	History []float64 `json:"history,omitempty"`

	// SearchScore is the best total the genetic search reached on its own.
	// It differs from TotalScore only when ExactFallback is set.
	SearchScore float64 `json:"searchScore"`

	// OptimalScore and Gap are set only when the exact solver ran. Gap
	// measures the returned assignment, so it is 0 after a fallback.
	OptimalScore  *float64 `json:"optimalScore,omitempty"`
	Gap           *float64 `json:"gap,omitempty"`
	ExactFallback bool     `json:"exactFallback,omitempty"`
}

func (r *Result) ByStation() map[string]domain.StationAssignment {
	m := make(map[string]domain.StationAssignment, len(r.Assignments))
	for _, a := range r.Assignments {
		m[a.StationID] = a
	}
	return m
}

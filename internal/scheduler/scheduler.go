// Package scheduler assigns workers to stations one-to-one, maximizing the total
// qualification score with a genetic algorithm over permutation genomes.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"
	"slices"
	"time"

	"github.com/Rashi-Foundation/Migdalor/backend/internal/domain"
	"github.com/Rashi-Foundation/Migdalor/backend/internal/qualification"
	"github.com/Rashi-Foundation/Migdalor/backend/internal/utils"
)

// improvement smaller than this does not reset the stagnation counter
const fitnessEpsilon = 1e-9

type Scheduler struct {
	parameters  *Parameters
	workers     []*domain.Employee
	stations    []*domain.Station
	index       *qualification.Index
	rng         *rand.Rand
	logger      *slog.Logger
	parallelism int

	// the larger side is permuted, the smaller side is walked in input order
	workersArePool bool
	poolSize       int
	slots          int
}

type Option func(*Scheduler)

// WithRand injects the random source. It is not safe for concurrent use, so
// give every Scheduler its own.
func WithRand(rng *rand.Rand) Option {
	return func(s *Scheduler) {
		if rng != nil {
			s.rng = rng
		}
	}
}

func WithSeed(seed int64) Option {
	return func(s *Scheduler) {
		s.rng = rand.New(rand.NewSource(seed))
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithParallelism bounds the goroutines used for fitness evaluation.
func WithParallelism(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

func New(parameters *Parameters, workers []*domain.Employee, stations []*domain.Station, index *qualification.Index, opts ...Option) (*Scheduler, error) {
	if parameters == nil {
		return nil, fmt.Errorf("%w: parameters are required", domain.ErrInvalidParameter)
	}
	if err := parameters.Validate(); err != nil {
		return nil, err
	}
	if err := utils.ValidateUniqueIDs(workers, stations); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidParameter, err)
	}

	s := &Scheduler{
		parameters:  parameters,
		workers:     workers,
		stations:    stations,
		index:       index,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:      slog.Default(),
		parallelism: runtime.GOMAXPROCS(0),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.workersArePool = len(workers) >= len(stations)
	if s.workersArePool {
		s.poolSize = len(workers)
		s.slots = len(stations)
	} else {
		s.poolSize = len(stations)
		s.slots = len(workers)
	}

	return s, nil
}

// Schedule runs the search. Cancelling ctx stops it at the next generation
// boundary and the best genome found so far is returned without an error.
func (s *Scheduler) Schedule(ctx context.Context) (*Result, error) {
	// no workers or no stations
	if s.slots == 0 {
		return s.decode(&Genome{perm: make([]int, s.poolSize)}, StopTrivial, 0, nil)
	}

	// one worker and one station
	if s.poolSize == 1 {
		g := &Genome{perm: []int{0}}
		s.calcFitness(g)
		return s.decode(g, StopTrivial, 0, []float64{g.fitness})
	}

	start := time.Now()
	s.logger.Debug("starting assignment search",
		"workers", len(s.workers),
		"stations", len(s.stations),
		"population", s.parameters.PopulationSize,
		"maxGenerations", s.parameters.MaxGenerations,
	)

	// initial population: one greedy genome, the rest shuffled
	pop := make([]*Genome, s.parameters.PopulationSize)
	pop[0] = s.greedyGenome()
	for i := 1; i < len(pop); i++ {
		pop[i] = s.randomInitGenome()
	}
	if err := s.evaluate(pop[1:]); err != nil {
		return nil, err
	}
	sortByFitness(pop)

	best := pop[0].clone()
	history := []float64{best.fitness}
	stagnant := 0
	generations := 0
	reason := StopBudget

	for gen := 0; gen < s.parameters.MaxGenerations; gen++ {
		if ctx.Err() != nil {
			reason = StopCancelled
			break
		}

		// breed the next generation
		newPop := make([]*Genome, 0, s.parameters.PopulationSize)

		// pop is sorted best first, so the elites are at the front
		for i := 0; i < s.parameters.EliteCount; i++ {
			newPop = append(newPop, pop[i].clone())
		}

		for len(newPop) < s.parameters.PopulationSize {
			p1 := s.selectByTournament(pop)
			p2 := s.selectByTournament(pop)

			var child *Genome
			if s.rng.Float64() < s.parameters.CrossoverRate {
				child = s.orderCrossover(p1, p2)
			} else {
				child = p1.clone()
			}

			s.mutate(child)
			newPop = append(newPop, child)
		}

		// elites keep their fitness, only the offspring need evaluating
		if err := s.evaluate(newPop[s.parameters.EliteCount:]); err != nil {
			return nil, err
		}
		sortByFitness(newPop)
		pop = newPop
		generations++

		history = append(history, pop[0].fitness)
		if pop[0].fitness > best.fitness+fitnessEpsilon {
			best = pop[0].clone()
			stagnant = 0
		} else {
			stagnant++
		}

		if stagnant >= s.parameters.StagnationLimit {
			reason = StopStagnation
			break
		}
	}

	result, err := s.decode(best, reason, generations, history)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("assignment search finished",
		"generations", generations,
		"stopReason", string(reason),
		"totalScore", result.TotalScore,
		"exactFallback", result.ExactFallback,
		"duration", time.Since(start),
	)

	return result, nil
}

// sortByFitness orders genomes best first. Stable so equal genomes keep
// their relative order and seeded runs stay reproducible.
func sortByFitness(pop []*Genome) {
	slices.SortStableFunc(pop, func(a, b *Genome) int {
		switch {
		case a.fitness > b.fitness:
			return -1
		case a.fitness < b.fitness:
			return 1
		default:
			return 0
		}
	})
}

// decode turns the best genome into the Result. When the exact solver runs
// and beats the search, its assignment is returned instead and ExactFallback
// is set; SearchScore keeps what the search itself reached.
func (s *Scheduler) decode(g *Genome, reason StopReason, generations int, history []float64) (*Result, error) {
	result := s.assemble(g)
	result.SearchScore = result.TotalScore
	result.Generations = generations
	result.StopReason = reason
	result.History = history

	if s.slots > 0 && s.parameters.GapCheckLimit > 0 && s.poolSize <= s.parameters.GapCheckLimit {
		optimal, exact := SolveExact(s.workers, s.stations, s.index)
		if optimal > result.TotalScore+fitnessEpsilon {
			if eg := s.genomeFromAssignments(exact); eg != nil {
				fallback := s.assemble(eg)
				result.Assignments = fallback.Assignments
				result.UnassignedStations = fallback.UnassignedStations
				result.IdleWorkers = fallback.IdleWorkers
				result.TotalScore = fallback.TotalScore
				result.ExactFallback = true

				s.logger.Debug("search fell short of the exact optimum",
					"searchScore", result.SearchScore,
					"optimalScore", optimal,
				)
			}
		}

		gap := 0.0
		if optimal > 0 {
			gap = max(0, (optimal-result.TotalScore)/optimal)
		}
		result.OptimalScore = &optimal
		result.Gap = &gap
	}

	if err := utils.ValidateStationAssignments(result.Assignments); err != nil {
		return nil, err
	}

	return result, nil
}

// assemble lists the assignments of a genome in station input order together
// with the stations and workers it leaves out.
func (s *Scheduler) assemble(g *Genome) *Result {
	result := &Result{
		Assignments:        make([]domain.StationAssignment, 0, s.slots),
		UnassignedStations: make([]string, 0),
		IdleWorkers:        make([]string, 0),
	}

	assignedStations := make([]bool, len(s.stations))
	assignedWorkers := make([]bool, len(s.workers))
	stationOrder := make(map[string]int, len(s.stations))

	for slot := 0; slot < s.slots; slot++ {
		personID, stationID := s.pair(g, slot)
		score := s.index.Score(personID, stationID)

		if s.workersArePool {
			assignedWorkers[g.perm[slot]] = true
			assignedStations[slot] = true
			stationOrder[stationID] = slot
		} else {
			assignedWorkers[slot] = true
			assignedStations[g.perm[slot]] = true
			stationOrder[stationID] = g.perm[slot]
		}

		result.Assignments = append(result.Assignments, domain.StationAssignment{
			StationID: stationID,
			PersonID:  personID,
			Score:     score,
		})
		result.TotalScore += score
	}

	slices.SortFunc(result.Assignments, func(a, b domain.StationAssignment) int {
		return stationOrder[a.StationID] - stationOrder[b.StationID]
	})

	for i, station := range s.stations {
		if !assignedStations[i] {
			result.UnassignedStations = append(result.UnassignedStations, station.ID)
		}
	}
	for i, worker := range s.workers {
		if !assignedWorkers[i] {
			result.IdleWorkers = append(result.IdleWorkers, worker.PersonID)
		}
	}

	return result
}

// genomeFromAssignments encodes a complete assignment of the smaller side as
// a genome. It returns nil if some slot is left open.
func (s *Scheduler) genomeFromAssignments(assignments []domain.StationAssignment) *Genome {
	workerIndex := make(map[string]int, len(s.workers))
	for i, w := range s.workers {
		workerIndex[w.PersonID] = i
	}
	stationIndex := make(map[string]int, len(s.stations))
	for i, st := range s.stations {
		stationIndex[st.ID] = i
	}

	perm := make([]int, s.poolSize)
	slotFilled := make([]bool, s.slots)
	memberUsed := make([]bool, s.poolSize)
	for _, a := range assignments {
		w, okW := workerIndex[a.PersonID]
		st, okS := stationIndex[a.StationID]
		if !okW || !okS {
			return nil
		}

		slot, member := st, w
		if !s.workersArePool {
			slot, member = w, st
		}
		if slot >= s.slots || slotFilled[slot] || memberUsed[member] {
			return nil
		}
		perm[slot] = member
		slotFilled[slot] = true
		memberUsed[member] = true
	}
	if slices.Contains(slotFilled, false) {
		return nil
	}

	next := s.slots
	for member, used := range memberUsed {
		if !used {
			perm[next] = member
			next++
		}
	}

	g := &Genome{perm: perm}
	s.calcFitness(g)
	return g
}

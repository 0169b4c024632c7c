package scheduler

import (
	"fmt"
	"math"

	"github.com/Rashi-Foundation/Migdalor/backend/internal/domain"
)

const (
	DefaultMinPopulation        = 20
	DefaultPopulationPerStation = 4
	DefaultMaxGenerations       = 500
	DefaultStagnationLimit      = 50
	DefaultCrossoverRate        = 0.9
	DefaultMutationRate         = 0.2
	DefaultEliteCount           = 1
	DefaultTournamentSize       = 3
	DefaultGapCheckLimit        = 64
)

// PopulationFor returns max(minimum, perStation × stationCount).
func PopulationFor(stationCount, minimum, perStation int) int {
	return max(minimum, perStation*stationCount)
}

func DefaultParameters(stationCount int) Parameters {
	return Parameters{
		PopulationSize:  PopulationFor(stationCount, DefaultMinPopulation, DefaultPopulationPerStation),
		MaxGenerations:  DefaultMaxGenerations,
		StagnationLimit: DefaultStagnationLimit,
		CrossoverRate:   DefaultCrossoverRate,
		MutationRate:    DefaultMutationRate,
		EliteCount:      DefaultEliteCount,
		TournamentSize:  DefaultTournamentSize,
		GapCheckLimit:   DefaultGapCheckLimit,
	}
}

// Validate checks the parameters. EliteCount may equal PopulationSize, which
// carries the seeded population over unchanged and breeds nothing.
func (p *Parameters) Validate() error {
	switch {
	case p.PopulationSize <= 0:
		return fmt.Errorf("%w: population size must be positive, got %d", domain.ErrInvalidParameter, p.PopulationSize)
	case p.MaxGenerations <= 0:
		return fmt.Errorf("%w: max generations must be positive, got %d", domain.ErrInvalidParameter, p.MaxGenerations)
	case p.StagnationLimit <= 0:
		return fmt.Errorf("%w: stagnation limit must be positive, got %d", domain.ErrInvalidParameter, p.StagnationLimit)
	case p.EliteCount < 1:
		return fmt.Errorf("%w: elitism count must be at least 1, got %d", domain.ErrInvalidParameter, p.EliteCount)
	case p.EliteCount > p.PopulationSize:
		return fmt.Errorf("%w: elitism count %d exceeds population size %d", domain.ErrInvalidParameter, p.EliteCount, p.PopulationSize)
	case p.TournamentSize < 1:
		return fmt.Errorf("%w: tournament size must be at least 1, got %d", domain.ErrInvalidParameter, p.TournamentSize)
	case !isRate(p.CrossoverRate):
		return fmt.Errorf("%w: crossover rate must be within [0, 1], got %g", domain.ErrInvalidParameter, p.CrossoverRate)
	case !isRate(p.MutationRate):
		return fmt.Errorf("%w: mutation rate must be within [0, 1], got %g", domain.ErrInvalidParameter, p.MutationRate)
	case p.GapCheckLimit < 0:
		return fmt.Errorf("%w: gap check limit must not be negative, got %d", domain.ErrInvalidParameter, p.GapCheckLimit)
	}
	return nil
}

func isRate(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

// Config holds caller overrides. Nil fields keep the base value, so an
// explicit zero is still validated as a zero.
type Config struct {
	PopulationSize  *int     `json:"populationSize" validate:"omitempty,min=1,max=5000"`
	MaxGenerations  *int     `json:"maxGenerations" validate:"omitempty,min=1,max=100000"`
	StagnationLimit *int     `json:"stagnationLimit" validate:"omitempty,min=1"`
	MutationRate    *float64 `json:"mutationRate" validate:"omitempty,min=0,max=1"`
	CrossoverRate   *float64 `json:"crossoverRate" validate:"omitempty,min=0,max=1"`
	ElitismCount    *int     `json:"elitismCount" validate:"omitempty,min=1"`
	TournamentSize  *int     `json:"tournamentSize" validate:"omitempty,min=1"`
	Seed            *int64   `json:"seed"`
}

func (c *Config) Apply(base Parameters) Parameters {
	if c == nil {
		return base
	}

	p := base
	if c.PopulationSize != nil {
		p.PopulationSize = *c.PopulationSize
	}
	if c.MaxGenerations != nil {
		p.MaxGenerations = *c.MaxGenerations
	}
	if c.StagnationLimit != nil {
		p.StagnationLimit = *c.StagnationLimit
	}
	if c.MutationRate != nil {
		p.MutationRate = *c.MutationRate
	}
	if c.CrossoverRate != nil {
		p.CrossoverRate = *c.CrossoverRate
	}
	if c.ElitismCount != nil {
		p.EliteCount = *c.ElitismCount
	}
	if c.TournamentSize != nil {
		p.TournamentSize = *c.TournamentSize
	}
	return p
}

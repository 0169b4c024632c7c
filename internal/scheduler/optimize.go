package scheduler

import (
	"context"

	"github.com/Rashi-Foundation/Migdalor/backend/internal/domain"
	"github.com/Rashi-Foundation/Migdalor/backend/internal/qualification"
)

// Optimize builds the qualification index from raw records and runs the
// search with DefaultParameters overridden by cfg. A non-nil cfg.Seed takes
// precedence over WithRand and WithSeed options.
func Optimize(ctx context.Context, workers []*domain.Employee, stations []*domain.Station, quals []domain.Qualification, cfg *Config, opts ...Option) (*Result, error) {
	index, err := qualification.Build(quals)
	if err != nil {
		return nil, err
	}

	params := cfg.Apply(DefaultParameters(len(stations)))
	if cfg != nil && cfg.Seed != nil {
		opts = append(opts, WithSeed(*cfg.Seed))
	}

	s, err := New(&params, workers, stations, index, opts...)
	if err != nil {
		return nil, err
	}

	return s.Schedule(ctx)
}

package simulation

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rustyeddy/elfsim/config"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Sweep runs one independent simulation per seed, at most parallel at a
// time, and returns their summaries in seed order. Each run keeps only
// its in-memory history. The first failure cancels the rest.
func Sweep(ctx context.Context, cfg *config.Config, seeds []int64, parallel int, log *logrus.Logger) ([]Summary, error) {
	if parallel < 1 {
		parallel = 1
	}
	out := make([]Summary, len(seeds))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, seed := range seeds {
		i, seed := i, seed
		g.Go(func() error {
			c := *cfg
			c.Simulation.RandomSeed = seed
			s, err := New(&c, log)
			if err != nil {
				return errors.Wrapf(err, "seed %d", seed)
			}
			if err := s.RunSimulation(ctx); err != nil {
				return errors.Wrapf(err, "seed %d", seed)
			}
			out[i] = s.Summary()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

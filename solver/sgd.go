package solver

import (
	"context"
	"log/slog"

	"github.com/hupe1980/recgo/dataset"
	"github.com/hupe1980/recgo/model"
)

// sgd holds the learning-rate schedule of a stochastic solver.
type sgd struct {
	model       model.StochasticModel
	initialRate float64
	rate        float64
	steps       int
}

// NewSGD creates a solver that feeds training records one at a time to
// UpdateOneStep with a possibly decaying learning rate.
func NewSGD(m model.StochasticModel, optFns ...Option) *Solver {
	s := New(m, optFns...)
	state := &sgd{model: m}
	s.sgd = state
	s.preTrain = func() {
		state.initialRate = s.opts.learnRate
		state.rate = s.opts.learnRate
		state.steps = 0
		s.opts.logger.Debug("sgd configured",
			slog.Float64("learn_rate", state.rate),
			slog.Bool("decay", s.opts.decay),
			slog.Int("sample_size", s.opts.sampleSize))
	}
	s.trainOne = func(ctx context.Context, train *dataset.Dataset) error {
		return state.update(ctx, train, s.opts.sampleSize, s.opts.decay)
	}
	return s
}

func (g *sgd) update(ctx context.Context, train *dataset.Dataset, sampleSize int, decay bool) error {
	n := train.Len()
	if sampleSize > 0 && sampleSize < n {
		n = sampleSize
	}
	for pos := range n {
		if pos%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		g.model.UpdateOneStep(train.Record(pos), g.rate)
		if decay {
			g.rate = g.initialRate / (1 + g.initialRate*g.model.RegularizationCoefficient()*float64(g.steps))
		}
		g.steps++
	}
	return nil
}

// LearnRate returns the current SGD learning rate, or zero for a
// non-stochastic solver.
func (s *Solver) LearnRate() float64 {
	if s.sgd == nil {
		return 0
	}
	return s.sgd.rate
}

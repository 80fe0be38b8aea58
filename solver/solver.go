package solver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/recgo/dataset"
	"github.com/hupe1980/recgo/evaluation"
	"github.com/hupe1980/recgo/model"
)

// ErrInvalidState is returned when Train is called on a solver that has
// already started.
var ErrInvalidState = errors.New("solver: invalid state")

// State is the lifecycle state of a Solver.
type State uint8

const (
	StateCreated State = iota
	StateTraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateTraining:
		return "training"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

const ruleWidth = 110

// Iteration is one row of the progress table.
type Iteration struct {
	Iteration int
	Elapsed   time.Duration
	Loss      float64
	Results   []evaluation.Result
}

// History holds the rows of a training run, iteration 0 first.
type History struct {
	Iterations []Iteration
}

// Last returns the final row.
func (h *History) Last() (Iteration, bool) {
	if h == nil || len(h.Iterations) == 0 {
		return Iteration{}, false
	}
	return h.Iterations[len(h.Iterations)-1], true
}

// Solver drives a model through training iterations and evaluates it.
// A Solver trains once.
type Solver struct {
	model model.Model
	opts  options

	mu    sync.Mutex
	state State

	sgd *sgd // nil unless built by NewSGD

	// preTrain runs after Reset; trainOne runs one iteration.
	preTrain func()
	trainOne func(ctx context.Context, train *dataset.Dataset) error
}

// New creates a solver that calls TrainOneIteration once per iteration.
func New(m model.Model, optFns ...Option) *Solver {
	s := &Solver{model: m, opts: defaultOptions()}
	for _, fn := range optFns {
		fn(&s.opts)
	}
	s.preTrain = func() {}
	s.trainOne = m.TrainOneIteration
	return s
}

// Model returns the trained model.
func (s *Solver) Model() model.Model { return s.model }

// State returns the lifecycle state.
func (s *Solver) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Solver) transition(from, to State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != from {
		return fmt.Errorf("%w: %s, want %s", ErrInvalidState, s.state, from)
	}
	s.state = to
	return nil
}

// Train resets the model on train and runs the configured number of
// iterations. When validation is non-empty, metrics are evaluated on
// iteration 0 and every EvalIterations iterations after that.
func (s *Solver) Train(ctx context.Context, train, validation *dataset.Dataset, metrics ...evaluation.Metric) (*History, error) {
	if err := s.transition(StateCreated, StateTraining); err != nil {
		return nil, err
	}
	defer func() {
		s.mu.Lock()
		s.state = StateStopped
		s.mu.Unlock()
	}()

	log := s.opts.logger.With(slog.String("method", s.model.Name()))
	if err := s.model.Reset(train); err != nil {
		return nil, fmt.Errorf("reset %s: %w", s.model.Name(), err)
	}
	s.preTrain()

	evaluate := validation != nil && validation.Len() > 0
	if !evaluate {
		metrics = nil
	}
	log.Info("training started",
		slog.Int("train", train.Len()),
		slog.Int("validation", lenOf(validation)),
		slog.Int("max_iterations", s.opts.maxIterations))

	s.rule()
	s.header([]string{fmt.Sprintf("%5s", "Iters"), fmt.Sprintf("%8s", "Time"), fmt.Sprintf("%10s", "Train Loss")}, metrics)

	history := &History{}
	start := time.Now()
	row := Iteration{}
	emit := func() error {
		if row.Iteration%max(s.opts.evalIterations, 1) != 0 {
			return nil
		}
		results, err := s.evaluate(ctx, metrics, validation, train)
		if err != nil {
			return err
		}
		row.Results = results
		history.Iterations = append(history.Iterations, row)
		s.progressRow([]string{
			fmt.Sprintf("%5d", row.Iteration),
			fmt.Sprintf("%8.3g", row.Elapsed.Seconds()),
			fmt.Sprintf("%10.5g", row.Loss),
		}, results)
		return nil
	}
	if err := emit(); err != nil {
		return history, err
	}

	for iter := 1; iter <= s.opts.maxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			log.Warn("training canceled", slog.Int("iteration", iter), slog.Any("error", err))
			return history, err
		}
		iterStart := time.Now()
		if err := s.trainOne(ctx, train); err != nil {
			return history, fmt.Errorf("iteration %d: %w", iter, err)
		}
		row = Iteration{
			Iteration: iter,
			Elapsed:   time.Since(start),
			Loss:      s.model.DataLoss(train, 0) + s.model.PenaltyLoss(),
		}
		log.Debug("iteration finished",
			slog.Int("iteration", iter),
			slog.Float64("loss", row.Loss),
			slog.Duration("duration", time.Since(iterStart)))
		if s.opts.onIteration != nil {
			s.opts.onIteration(row)
		}
		if err := emit(); err != nil {
			return history, err
		}
	}
	s.rule()
	log.Info("training finished", slog.Duration("elapsed", time.Since(start)))
	return history, nil
}

// Test evaluates the model once without training.
func (s *Solver) Test(ctx context.Context, test, train *dataset.Dataset, metrics ...evaluation.Metric) ([]evaluation.Result, error) {
	start := time.Now()
	results, err := s.evaluate(ctx, metrics, test, train)
	if err != nil {
		return nil, err
	}
	s.rule()
	s.header([]string{fmt.Sprintf("%8s", "Time")}, metrics)
	s.progressRow([]string{fmt.Sprintf("%8.3g", time.Since(start).Seconds())}, results)
	return results, nil
}

func (s *Solver) evaluate(ctx context.Context, metrics []evaluation.Metric, validation, train *dataset.Dataset) ([]evaluation.Result, error) {
	results := make([]evaluation.Result, 0, len(metrics))
	for _, metric := range metrics {
		start := time.Now()
		r, err := metric.Evaluate(ctx, s.model, validation, train)
		if s.opts.onEvaluation != nil {
			s.opts.onEvaluation(metric.Name(), time.Since(start), err)
		}
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", metric.Name(), err)
		}
		results = append(results, r)
	}
	return results, nil
}

func (s *Solver) rule() {
	_, _ = io.WriteString(s.opts.progress, strings.Repeat("-", ruleWidth)+"\n")
}

func (s *Solver) header(lead []string, metrics []evaluation.Metric) {
	for _, m := range metrics {
		lead = append(lead, evaluation.Header(m.Columns()))
	}
	s.line(lead)
}

func (s *Solver) progressRow(lead []string, results []evaluation.Result) {
	for _, r := range results {
		lead = append(lead, r.String())
	}
	s.line(lead)
}

func (s *Solver) line(cells []string) {
	_, _ = io.WriteString(s.opts.progress, strings.Join(cells, "|")+"|\n")
}

func lenOf(ds *dataset.Dataset) int {
	if ds == nil {
		return 0
	}
	return ds.Len()
}

package recgo

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/hupe1980/recgo/blobstore"
	"github.com/hupe1980/recgo/dataset"
	"github.com/hupe1980/recgo/evaluation"
	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/persistence"
	"github.com/hupe1980/recgo/solver"
)

// Report is the outcome of a training run.
type Report struct {
	Method  string
	Model   model.Model
	History *solver.History
	// Final is the last evaluated row; its Results are empty when no
	// validation set was given.
	Final   solver.Iteration
	Elapsed time.Duration
}

// Value returns the named column of the final evaluation, e.g. "RMSE" or "P@10".
func (r *Report) Value(column string) (float64, bool) {
	for _, res := range r.Final.Results {
		if v, ok := res.Value(column); ok {
			return v, true
		}
	}
	return 0, false
}

// Train fits m on train and evaluates it on validation every
// WithEvalIterations iterations. validation may be nil.
//
// Stochastic models are trained record by record when WithSGD is given.
func Train(ctx context.Context, m model.Model, train, validation *dataset.Dataset, optFns ...Option) (*Report, error) {
	o := applyOptions(optFns)
	log := o.logger.WithMethod(m.Name())

	metrics, err := evaluation.NewAll(o.evaluations,
		evaluation.WithWorkers(o.workers),
		evaluation.WithGroups(o.userGroup, o.itemGroup))
	if err != nil {
		return nil, err
	}

	var prev time.Duration
	solverOpts := []solver.Option{
		solver.WithMaxIterations(o.maxIterations),
		solver.WithEvalIterations(o.evalIterations),
		solver.WithSampleSize(o.sampleSize),
		solver.WithLearnRate(o.learnRate),
		solver.WithDecay(o.decay),
		solver.WithLogger(log.Logger),
		solver.WithProgress(o.progress),
		solver.WithIterationHook(func(it solver.Iteration) {
			o.metricsCollector.RecordIteration(it.Iteration, it.Elapsed-prev, it.Loss)
			prev = it.Elapsed
		}),
		solver.WithEvaluationHook(func(metric string, d time.Duration, err error) {
			o.metricsCollector.RecordEvaluation(metric, d, err)
			log.LogEvaluation(ctx, metric, d, err)
		}),
	}

	var s *solver.Solver
	if sm, ok := m.(model.StochasticModel); ok && o.sgd {
		s = solver.NewSGD(sm, solverOpts...)
	} else {
		s = solver.New(m, solverOpts...)
	}

	start := time.Now()
	history, err := s.Train(ctx, train, validation, metrics...)
	elapsed := time.Since(start)
	log.LogTrain(ctx, m.Name(), o.maxIterations, elapsed, err)
	if err != nil {
		last, _ := history.Last()
		return nil, &TrainError{Method: m.Name(), Iteration: last.Iteration, cause: translateError(err)}
	}

	final, _ := history.Last()
	return &Report{
		Method:  m.Name(),
		Model:   m,
		History: history,
		Final:   final,
		Elapsed: elapsed,
	}, nil
}

// Evaluate scores a trained model on test. train supplies the items that
// ranking metrics exclude.
func Evaluate(ctx context.Context, m model.Model, test, train *dataset.Dataset, optFns ...Option) ([]evaluation.Result, error) {
	o := applyOptions(optFns)
	if test == nil || test.Len() == 0 {
		return nil, ErrEmptyValidation
	}
	metrics, err := evaluation.NewAll(o.evaluations,
		evaluation.WithWorkers(o.workers),
		evaluation.WithGroups(o.userGroup, o.itemGroup))
	if err != nil {
		return nil, err
	}
	log := o.logger.WithMethod(m.Name())
	s := solver.New(m,
		solver.WithLogger(log.Logger),
		solver.WithProgress(o.progress),
		solver.WithEvaluationHook(func(metric string, d time.Duration, err error) {
			o.metricsCollector.RecordEvaluation(metric, d, err)
			log.LogEvaluation(ctx, metric, d, err)
		}))
	results, err := s.Test(ctx, test, train, metrics...)
	return results, translateError(err)
}

// Split holds out ratio of the records of every value of group g.
func Split(ctx context.Context, ds *dataset.Dataset, g int, ratio float64, rng *rand.Rand, optFns ...Option) (train, test *dataset.Dataset, err error) {
	o := applyOptions(optFns)
	train, test, err = ds.SplitByGroup(g, ratio, rng)
	if err != nil {
		return nil, nil, err
	}
	o.metricsCollector.RecordSplit(train.Len(), test.Len())
	o.logger.LogSplit(ctx, train.Len(), test.Len())
	return train, test, nil
}

// SaveModel writes a snapshot of m to store under name and returns its size.
func SaveModel(ctx context.Context, store blobstore.BlobStore, name string, m model.Model, optFns ...Option) (int, error) {
	o := applyOptions(optFns)
	start := time.Now()
	n, err := persistence.SaveModel(ctx, store, name, m, o.persistenceOptions()...)
	o.record(ctx, name, n, time.Since(start), err)
	return n, translateError(err)
}

// LoadModel restores a model saved with SaveModel. The restored model
// answers Predict and Recommend but cannot resume training.
func LoadModel(ctx context.Context, store blobstore.BlobStore, name string) (model.Model, error) {
	m, err := persistence.LoadModel(ctx, store, name)
	return m, translateError(err)
}

// SaveDataset writes a snapshot of ds to store under name and returns its size.
func SaveDataset(ctx context.Context, store blobstore.BlobStore, name string, ds *dataset.Dataset, optFns ...Option) (int, error) {
	o := applyOptions(optFns)
	start := time.Now()
	n, err := persistence.SaveDataset(ctx, store, name, ds, o.persistenceOptions()...)
	o.record(ctx, name, n, time.Since(start), err)
	return n, translateError(err)
}

// LoadDataset restores a dataset saved with SaveDataset.
func LoadDataset(ctx context.Context, store blobstore.BlobStore, name string) (*dataset.Dataset, error) {
	ds, err := persistence.LoadDataset(ctx, store, name)
	return ds, translateError(err)
}

// IsNotFound reports whether err means a snapshot does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func (o options) persistenceOptions() []persistence.Option {
	return append([]persistence.Option{
		persistence.WithCodec(o.codec),
		persistence.WithCompression(o.compression),
	}, o.snapshot...)
}

func (o options) record(ctx context.Context, name string, n int, d time.Duration, err error) {
	o.metricsCollector.RecordSnapshot(n, d, err)
	o.logger.LogSnapshot(ctx, name, n, err)
}

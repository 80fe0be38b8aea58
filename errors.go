package recgo

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/recgo/blobstore"
	"github.com/hupe1980/recgo/evaluation"
	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/solver"
)

var (
	// ErrNotFound is returned when a snapshot does not exist.
	ErrNotFound = blobstore.ErrNotFound
	// ErrUnknownEntity is returned for a user or item the model has not seen.
	ErrUnknownEntity = model.ErrUnknownEntity
	// ErrNotExportable is returned when saving a model without a snapshot form.
	ErrNotExportable = model.ErrNotExportable
	// ErrNotTrained is returned when saving an untrained model.
	ErrNotTrained = model.ErrNotTrained
	// ErrEmptyValidation is returned when evaluating on an empty dataset.
	ErrEmptyValidation = evaluation.ErrEmptyValidation
	// ErrInvalidState is returned when a solver is reused.
	ErrInvalidState = solver.ErrInvalidState
	// ErrCanceled is returned when the context ends a run early.
	ErrCanceled = errors.New("recgo: canceled")
)

// TrainError reports the method and the last completed iteration of a
// failed training run.
//
// The original underlying error can be accessed via errors.Unwrap.
type TrainError struct {
	Method    string
	Iteration int
	cause     error
}

func (e *TrainError) Error() string {
	return fmt.Sprintf("train %s after iteration %d: %v", e.Method, e.Iteration, e.cause)
}

func (e *TrainError) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	return err
}

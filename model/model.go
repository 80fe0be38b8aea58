package model

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/recgo/dataset"
)

var (
	// ErrUnknownEntity is returned for a user or item id the model has not seen.
	ErrUnknownEntity = errors.New("model: unknown entity")
	// ErrInsufficientCandidates is returned when fewer than k items remain
	// after exclusion.
	ErrInsufficientCandidates = errors.New("model: insufficient candidates")
	// ErrUnknownMethod is returned for an unknown method name.
	ErrUnknownMethod = errors.New("model: unknown method")
	// ErrNotTrained is returned when a model is used before Reset.
	ErrNotTrained = errors.New("model: not trained")
	// ErrNotExportable is returned when a model has no snapshot form.
	ErrNotExportable = errors.New("model: not exportable")
)

// Model is a scoring model driven by the solver.
type Model interface {
	// Name returns the method name.
	Name() string
	// Reset initializes parameters from the training set.
	Reset(ds *dataset.Dataset) error
	// Predict scores one record.
	Predict(r *dataset.Record) float64
	// Recommend returns the k best items for user, best first, skipping
	// items in exclude. It must be safe for concurrent use after training.
	Recommend(user, k int, exclude *roaring.Bitmap) ([]int, error)
	// TrainOneIteration runs one full pass over the training data.
	TrainOneIteration(ctx context.Context, ds *dataset.Dataset) error
	// DataLoss is the summed loss over the first sampleSize records
	// (all records when sampleSize is 0).
	DataLoss(ds *dataset.Dataset, sampleSize int) float64
	// PenaltyLoss is the regularization term.
	PenaltyLoss() float64
	// RegularizationCoefficient is the lambda used for learning-rate decay.
	RegularizationCoefficient() float64
}

// StochasticModel can be trained one record at a time.
type StochasticModel interface {
	Model
	UpdateOneStep(r *dataset.Record, lr float64)
}

// Method selects a model implementation.
type Method uint8

const (
	MethodPopularity Method = iota
	MethodPMF
	MethodBPR
	MethodWARP
	MethodALS
	MethodItemCF
	MethodUserCF
	MethodFM
	MethodCDAE
)

var methodNames = [...]string{
	MethodPopularity: "popularity",
	MethodPMF:        "pmf",
	MethodBPR:        "bpr",
	MethodWARP:       "warp",
	MethodALS:        "als",
	MethodItemCF:     "itemcf",
	MethodUserCF:     "usercf",
	MethodFM:         "fm",
	MethodCDAE:       "cdae",
}

func (m Method) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return fmt.Sprintf("method(%d)", uint8(m))
}

// ParseMethod parses a method name as produced by Method.String.
func ParseMethod(s string) (Method, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range methodNames {
		if n == name {
			return Method(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Methods lists every known method.
func Methods() []Method {
	out := make([]Method, len(methodNames))
	for i := range methodNames {
		out[i] = Method(i)
	}
	return out
}

// New builds an untrained model.
func New(method Method, cfg Config) (Model, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	switch method {
	case MethodPopularity:
		return NewPopularity(cfg), nil
	case MethodPMF:
		return NewPMF(cfg)
	case MethodBPR:
		return NewBPR(cfg)
	case MethodWARP:
		return NewWARP(cfg)
	case MethodALS:
		return NewALS(cfg)
	case MethodItemCF:
		return NewItemCF(cfg), nil
	case MethodUserCF:
		return NewUserCF(cfg), nil
	case MethodFM:
		return NewFM(cfg)
	case MethodCDAE:
		return NewCDAE(cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
}

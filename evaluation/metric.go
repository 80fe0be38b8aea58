package evaluation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/recgo/dataset"
	"github.com/hupe1980/recgo/model"
)

var (
	// ErrUnknownKind is returned for an unknown metric name.
	ErrUnknownKind = errors.New("evaluation: unknown metric kind")
	// ErrEmptyValidation is returned when the validation set has no records.
	ErrEmptyValidation = errors.New("evaluation: empty validation set")
)

// Metric scores a model against a validation set. train supplies the items
// to exclude from recommendations.
type Metric interface {
	Name() string
	Columns() []string
	Evaluate(ctx context.Context, m model.Model, validation, train *dataset.Dataset) (Result, error)
}

// Result is one evaluated row: a value per column.
type Result struct {
	Columns []string
	Values  []float64
}

// Value returns the value of the named column.
func (r Result) Value(column string) (float64, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return 0, false
}

// String formats every value with %8.5g, joined by "|".
func (r Result) String() string {
	parts := make([]string, len(r.Values))
	for i, v := range r.Values {
		parts[i] = fmt.Sprintf("%8.5g", v)
	}
	return strings.Join(parts, "|")
}

// Header formats column names to line up with String.
func Header(columns []string) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = fmt.Sprintf("%8s", c)
	}
	return strings.Join(parts, "|")
}

// Kind selects a metric.
type Kind uint8

const (
	KindRMSE Kind = iota
	KindMAE
	KindTopN
	KindRanking
)

var kindNames = [...]string{
	KindRMSE:    "rmse",
	KindMAE:     "mae",
	KindTopN:    "topn",
	KindRanking: "ranking",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind parses a metric name as produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Option configures a metric.
type Option func(*options)

type options struct {
	workers   int
	userGroup int
	itemGroup int
}

// WithWorkers sets the TopN worker count (default: NumCPU).
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithGroups sets the user and item groups (default: 0 and 1).
func WithGroups(user, item int) Option {
	return func(o *options) {
		o.userGroup = user
		o.itemGroup = item
	}
}

// New builds the metric of kind k.
func New(k Kind, optFns ...Option) (Metric, error) {
	o := options{userGroup: 0, itemGroup: 1}
	for _, fn := range optFns {
		fn(&o)
	}
	switch k {
	case KindRMSE:
		return RMSE{}, nil
	case KindMAE:
		return MAE{}, nil
	case KindTopN:
		return &TopN{opts: o}, nil
	case KindRanking:
		return &TopN{opts: o, ndcg: true}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, k)
	}
}

// NewAll builds one metric per kind.
func NewAll(kinds []Kind, optFns ...Option) ([]Metric, error) {
	out := make([]Metric, len(kinds))
	for i, k := range kinds {
		m, err := New(k, optFns...)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

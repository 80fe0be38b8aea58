package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/recgo/loss"
)

// DefaultMaxSampleAttempts caps every negative-sampling loop.
const DefaultMaxSampleAttempts = 500

// Similarity selects the neighbor similarity of ItemCF and UserCF.
type Similarity uint8

const (
	Jaccard Similarity = iota
	Cosine
)

func (s Similarity) String() string {
	switch s {
	case Jaccard:
		return "jaccard"
	case Cosine:
		return "cosine"
	default:
		return fmt.Sprintf("similarity(%d)", uint8(s))
	}
}

// ParseSimilarity parses "jaccard" or "cosine".
func ParseSimilarity(s string) (Similarity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jaccard":
		return Jaccard, nil
	case "cosine":
		return Cosine, nil
	default:
		return 0, fmt.Errorf("%w: similarity %q", ErrUnknownMethod, s)
	}
}

// Config holds the hyperparameters of every model. Each model reads the
// fields it needs.
type Config struct {
	Dim        int              `json:"dim"`
	Lambda     float64          `json:"lambda"`
	LearnRate  float64          `json:"learn_rate"`
	Beta       float64          `json:"beta"`
	NumNeg     int              `json:"num_neg"`
	Loss       loss.Kind        `json:"loss"`
	Penalty    loss.PenaltyKind `json:"penalty"`
	UseBias    bool             `json:"use_bias"`
	UseAdaGrad bool             `json:"use_adagrad"`
	Similarity Similarity       `json:"similarity"`
	Neighbors  int              `json:"neighbors"`
	Seed       uint64           `json:"seed"`
	Workers    int              `json:"workers"`
	UserGroup  int              `json:"user_group"`
	ItemGroup  int              `json:"item_group"`

	// CorruptionRatio is the probability that CDAE drops an input item.
	CorruptionRatio float64 `json:"corruption_ratio"`

	// MaxSampleAttempts caps rejection sampling of negatives. A sample
	// that hits the cap is skipped.
	MaxSampleAttempts int `json:"max_sample_attempts"`
}

// DefaultConfig returns the pointwise matrix-factorization defaults.
func DefaultConfig() Config {
	return Config{
		Dim:               10,
		Lambda:            0.01,
		LearnRate:         0.1,
		Beta:              1,
		NumNeg:            5,
		Loss:              loss.Square,
		Penalty:           loss.L2,
		UseBias:           true,
		UseAdaGrad:        true,
		Similarity:        Jaccard,
		Neighbors:         50,
		CorruptionRatio:   0.5,
		Seed:              1,
		UserGroup:         0,
		ItemGroup:         1,
		MaxSampleAttempts: DefaultMaxSampleAttempts,
	}
}

// DefaultConfigFor adjusts DefaultConfig to the customary loss and
// regularization of method.
func DefaultConfigFor(method Method) Config {
	cfg := DefaultConfig()
	switch method {
	case MethodBPR:
		cfg.Loss = loss.Log
	case MethodWARP:
		cfg.Loss = loss.Hinge
		cfg.Lambda = 0.1
	case MethodFM:
		cfg.Dim = 5
	case MethodCDAE:
		cfg.Loss = loss.CrossEntropy
	}
	return cfg
}

func (c Config) validate() error {
	var errs []error
	if c.Dim <= 0 {
		errs = append(errs, fmt.Errorf("dim must be positive, got %d", c.Dim))
	}
	if c.Lambda < 0 {
		errs = append(errs, fmt.Errorf("lambda must be non-negative, got %g", c.Lambda))
	}
	if c.NumNeg < 0 {
		errs = append(errs, fmt.Errorf("num_neg must be non-negative, got %d", c.NumNeg))
	}
	if c.CorruptionRatio < 0 || c.CorruptionRatio >= 1 {
		errs = append(errs, fmt.Errorf("corruption ratio must be in [0, 1), got %g", c.CorruptionRatio))
	}
	if c.UserGroup < 0 || c.ItemGroup < 0 || c.UserGroup == c.ItemGroup {
		errs = append(errs, fmt.Errorf("user group %d and item group %d must be distinct and non-negative", c.UserGroup, c.ItemGroup))
	}
	return errors.Join(errs...)
}

func (c Config) sampleAttempts() int {
	if c.MaxSampleAttempts <= 0 {
		return DefaultMaxSampleAttempts
	}
	return c.MaxSampleAttempts
}

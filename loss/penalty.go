package loss

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Penalty measures the size of a parameter block.
type Penalty interface {
	Kind() PenaltyKind
	// Smooth reports whether the penalty is differentiable everywhere.
	Smooth() bool
	Evaluate(params []float64) float64
}

// PenaltyKind enumerates the available penalties.
type PenaltyKind uint8

const (
	L1 PenaltyKind = iota
	L2
)

func (k PenaltyKind) String() string {
	switch k {
	case L1:
		return "l1"
	case L2:
		return "l2"
	default:
		return fmt.Sprintf("penalty(%d)", uint8(k))
	}
}

// ParsePenalty parses "l1" or "l2".
func ParsePenalty(s string) (PenaltyKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "l1":
		return L1, nil
	case "l2":
		return L2, nil
	default:
		return 0, fmt.Errorf("%w: penalty %q", ErrUnknownKind, s)
	}
}

// NewPenalty returns the penalty for k.
func NewPenalty(k PenaltyKind) (Penalty, error) {
	switch k {
	case L1:
		return L1Penalty{}, nil
	case L2:
		return L2Penalty{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, k)
	}
}

// L2Penalty is the squared Euclidean norm.
type L2Penalty struct{}

func (L2Penalty) Kind() PenaltyKind { return L2 }
func (L2Penalty) Smooth() bool      { return true }

func (L2Penalty) Evaluate(params []float64) float64 {
	if len(params) == 0 {
		return 0
	}
	return floats.Dot(params, params)
}

// L1Penalty is the sum of absolute values.
type L1Penalty struct{}

func (L1Penalty) Kind() PenaltyKind { return L1 }
func (L1Penalty) Smooth() bool      { return false }

func (L1Penalty) Evaluate(params []float64) float64 {
	if len(params) == 0 {
		return 0
	}
	return floats.Norm(params, 1)
}

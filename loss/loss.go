// Package loss provides pointwise loss functions and parameter penalties.
package loss

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnknownKind is returned when parsing an unknown loss or penalty name.
var ErrUnknownKind = errors.New("loss: unknown kind")

// clamp bounds the exp/log regions.
const clamp = 18.0

// Loss scores a prediction against a truth value.
type Loss interface {
	// Kind identifies the loss.
	Kind() Kind
	// Evaluate returns l(pred, truth).
	Evaluate(pred, truth float64) float64
	// Gradient returns dl/dpred.
	Gradient(pred, truth float64) float64
	// Predict maps a raw model score to the loss's output space.
	Predict(x float64) float64
	// PositiveLabel is the truth value of an observed interaction.
	PositiveLabel() float64
	// NegativeLabel is the truth value of a sampled non-interaction.
	NegativeLabel() float64
}

// Kind enumerates the available losses.
type Kind uint8

const (
	Square Kind = iota
	Logistic
	Log
	Hinge
	SquaredHinge
	CrossEntropy
	LogM
)

var kindNames = map[Kind]string{
	Square:       "square",
	Logistic:     "logistic",
	Log:          "log",
	Hinge:        "hinge",
	SquaredHinge: "squared_hinge",
	CrossEntropy: "cross_entropy",
	LogM:         "logm",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("loss(%d)", uint8(k))
}

// ParseKind parses a loss name as produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// New returns the loss for k.
func New(k Kind) (Loss, error) {
	switch k {
	case Square:
		return SquareLoss{}, nil
	case Logistic:
		return LogisticLoss{}, nil
	case Log:
		return LogLoss{}, nil
	case Hinge:
		return HingeLoss{}, nil
	case SquaredHinge:
		return SquaredHingeLoss{}, nil
	case CrossEntropy:
		return CrossEntropyLoss{}, nil
	case LogM:
		return LogMLoss{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, k)
	}
}

// SquareLoss is (truth - pred)^2.
type SquareLoss struct{}

func (SquareLoss) Kind() Kind { return Square }

func (SquareLoss) Evaluate(pred, truth float64) float64 {
	d := truth - pred
	return d * d
}

func (SquareLoss) Gradient(pred, truth float64) float64 { return -2 * (truth - pred) }
func (SquareLoss) Predict(x float64) float64            { return x }
func (SquareLoss) PositiveLabel() float64               { return 1 }
func (SquareLoss) NegativeLabel() float64               { return 0 }

// LogisticLoss is the binary log loss on a probability in (0, 1).
type LogisticLoss struct{}

const minProb = 1e-4

func (LogisticLoss) Kind() Kind { return Logistic }

func (LogisticLoss) Evaluate(pred, truth float64) float64 {
	if truth == 0 {
		return -math.Log(math.Max(minProb, 1-pred))
	}
	return -math.Log(math.Max(minProb, pred))
}

func (LogisticLoss) Gradient(pred, truth float64) float64 {
	p := math.Min(math.Max(pred, minProb), 1-minProb)
	return (p - truth) / (p * (1 - p))
}

func (LogisticLoss) Predict(x float64) float64 { return x }
func (LogisticLoss) PositiveLabel() float64    { return 1 }
func (LogisticLoss) NegativeLabel() float64    { return 0 }

// CrossEntropyLoss is the logistic loss on a raw score a:
// (1-y)*a + log(1 + exp(-a)).
type CrossEntropyLoss struct{}

func (CrossEntropyLoss) Kind() Kind { return CrossEntropy }

func (CrossEntropyLoss) Evaluate(pred, truth float64) float64 {
	ret := (1 - truth) * pred
	switch {
	case pred > clamp:
		return ret + math.Exp(-pred)
	case pred < -clamp:
		return ret - pred
	default:
		return ret + math.Log1p(math.Exp(-pred))
	}
}

func (CrossEntropyLoss) Gradient(pred, truth float64) float64 {
	switch {
	case pred < -clamp:
		return math.Exp(pred) - truth
	case pred > clamp:
		return 1 - truth
	default:
		return 1/(1+math.Exp(-pred)) - truth
	}
}

func (CrossEntropyLoss) Predict(x float64) float64 { return Sigmoid(x) }
func (CrossEntropyLoss) PositiveLabel() float64    { return 1 }
func (CrossEntropyLoss) NegativeLabel() float64    { return 0 }

// LogLoss is log(1 + exp(-a*y)) with labels in {-1, 1}.
type LogLoss struct{}

func (LogLoss) Kind() Kind { return Log }

func (LogLoss) Evaluate(pred, truth float64) float64 {
	return softplusNeg(pred * truth)
}

func (LogLoss) Gradient(pred, truth float64) float64 {
	z := pred * truth
	switch {
	case z > clamp:
		return -truth * math.Exp(-z)
	case z < -clamp:
		return -truth
	default:
		return -truth / (1 + math.Exp(z))
	}
}

func (LogLoss) Predict(x float64) float64 { return x }
func (LogLoss) PositiveLabel() float64    { return 1 }
func (LogLoss) NegativeLabel() float64    { return -1 }

// LogMLoss is y * log(1 + exp(-a)), a confidence-weighted log loss.
type LogMLoss struct{}

func (LogMLoss) Kind() Kind { return LogM }

func (LogMLoss) Evaluate(pred, truth float64) float64 {
	return truth * softplusNeg(pred)
}

func (LogMLoss) Gradient(pred, truth float64) float64 {
	switch {
	case pred > clamp:
		return -truth * math.Exp(-pred)
	case pred < -clamp:
		return -truth
	default:
		return -truth / (1 + math.Exp(pred))
	}
}

func (LogMLoss) Predict(x float64) float64 { return x }
func (LogMLoss) PositiveLabel() float64    { return 1 }
func (LogMLoss) NegativeLabel() float64    { return -1 }

// HingeLoss is max(0, 1 - a*y).
type HingeLoss struct{}

func (HingeLoss) Kind() Kind { return Hinge }

func (HingeLoss) Evaluate(pred, truth float64) float64 {
	if z := pred * truth; z <= 1 {
		return 1 - z
	}
	return 0
}

func (HingeLoss) Gradient(pred, truth float64) float64 {
	if pred*truth > 1 {
		return 0
	}
	return -truth
}

func (HingeLoss) Predict(x float64) float64 { return x }
func (HingeLoss) PositiveLabel() float64    { return 1 }
func (HingeLoss) NegativeLabel() float64    { return -1 }

// SquaredHingeLoss is max(0, 1 - a*y)^2 / 2.
type SquaredHingeLoss struct{}

func (SquaredHingeLoss) Kind() Kind { return SquaredHinge }

func (SquaredHingeLoss) Evaluate(pred, truth float64) float64 {
	z := pred * truth
	if z > 1 {
		return 0
	}
	d := 1 - z
	return 0.5 * d * d
}

func (SquaredHingeLoss) Gradient(pred, truth float64) float64 {
	z := pred * truth
	if z > 1 {
		return 0
	}
	return -truth * (1 - z)
}

func (SquaredHingeLoss) Predict(x float64) float64 { return x }
func (SquaredHingeLoss) PositiveLabel() float64    { return 1 }
func (SquaredHingeLoss) NegativeLabel() float64    { return -1 }

// Sigmoid is 1 / (1 + exp(-x)).
func Sigmoid(x float64) float64 {
	switch {
	case x > clamp:
		return 1
	case x < -clamp:
		return 0
	default:
		return 1 / (1 + math.Exp(-x))
	}
}

// softplusNeg is log(1 + exp(-z)) with clamped tails.
func softplusNeg(z float64) float64 {
	switch {
	case z > clamp:
		return math.Exp(-z)
	case z < -clamp:
		return -z
	default:
		return math.Log1p(math.Exp(-z))
	}
}

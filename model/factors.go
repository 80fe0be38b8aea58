package model

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"

	"github.com/hupe1980/recgo/loss"
)

const (
	initScale   = 0.01
	adagradInit = 1e-4
)

// factors holds user and item latent vectors with biases and their AdaGrad
// accumulators. score(u, i) = bu + bi + <pu, qi>.
type factors struct {
	user, item     *Matrix
	userAG, itemAG *Matrix
	userBias       []float64
	itemBias       []float64
	userBiasAG     []float64
	itemBiasAG     []float64

	// Scratch gradients; training is single-threaded per model.
	ug, ig, jg []float64
}

func newFactors(rng *rand.Rand, numUsers, numItems, dim int) *factors {
	f := &factors{
		user:       RandomMatrix(rng, numUsers, dim, initScale),
		item:       RandomMatrix(rng, numItems, dim, initScale),
		userAG:     NewMatrix(numUsers, dim),
		itemAG:     NewMatrix(numItems, dim),
		userBias:   make([]float64, numUsers),
		itemBias:   make([]float64, numItems),
		userBiasAG: filled(numUsers, adagradInit),
		itemBiasAG: filled(numItems, adagradInit),
	}
	f.userAG.Fill(adagradInit)
	f.itemAG.Fill(adagradInit)
	f.scratch(dim)
	return f
}

func (f *factors) scratch(dim int) {
	f.ug = make([]float64, dim)
	f.ig = make([]float64, dim)
	f.jg = make([]float64, dim)
}

func (f *factors) score(u, i int) float64 {
	return f.userBias[u] + f.itemBias[i] + f.user.Dot(u, f.item, i)
}

// penalty is p(P) + p(Q) over the factor rows.
func (f *factors) penalty(p loss.Penalty) float64 {
	return p.Evaluate(f.user.Data) + p.Evaluate(f.item.Data)
}

// regularized writes g*src + reg*own into dst.
func regularized(dst []float64, g float64, src []float64, reg float64, own []float64) {
	floats.ScaleTo(dst, reg, own)
	floats.AddScaled(dst, g, src)
}

// descend applies row -= lr*grad.
func descend(row []float64, lr float64, grad []float64) {
	floats.AddScaled(row, -lr, grad)
}

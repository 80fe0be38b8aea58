package model

import (
	"context"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/floats"

	"github.com/hupe1980/recgo/dataset"
	"github.com/hupe1980/recgo/loss"
)

// WARP is weighted approximate-rank pairwise factorization. For each
// positive it samples negatives until one violates the margin; the number
// of draws estimates the positive's rank, which selects the update weight.
type WARP struct {
	base
	loss    loss.Loss
	penalty loss.Penalty
	f       *factors
	weights []float64 // weights[r] = sum_{k<=r} 1/(k+1)
}

// NewWARP creates an untrained WARP model.
func NewWARP(cfg Config) (*WARP, error) {
	l, p, err := lossAndPenalty(cfg)
	if err != nil {
		return nil, err
	}
	return &WARP{base: newBase(cfg), loss: l, penalty: p}, nil
}

func (m *WARP) Name() string { return MethodWARP.String() }

func (m *WARP) Reset(ds *dataset.Dataset) error {
	if err := m.reset(ds); err != nil {
		return err
	}
	m.f = newFactors(m.rng, m.numUsers, m.numItems, m.cfg.Dim)
	m.weights = rankWeights(m.numItems)
	return nil
}

// rankWeights returns the harmonic prefix sums 1, 1+1/2, 1+1/2+1/3, ...
func rankWeights(n int) []float64 {
	w := make([]float64, n)
	for idx := range w {
		w[idx] = 1
		if idx > 0 {
			w[idx] = w[idx-1] + 1/float64(idx+1)
		}
	}
	return w
}

// TrainOneIteration visits the rated items of every user in ascending order.
func (m *WARP) TrainOneIteration(ctx context.Context, _ *dataset.Dataset) error {
	for u := range m.numUsers {
		if err := ctx.Err(); err != nil {
			return err
		}
		rated := m.rated[u]
		if rated == nil {
			continue
		}
		for _, i := range rated.ToArray() {
			m.positive(u, int(i), m.cfg.LearnRate)
		}
	}
	return nil
}

// UpdateOneStep trains the record's pair.
func (m *WARP) UpdateOneStep(r *dataset.Record, lr float64) {
	if u, i, ok := m.pair(r); ok {
		m.positive(u, i, lr)
	}
}

func (m *WARP) positive(u, i int, lr float64) {
	rated := m.rated[u]
	if rated == nil {
		return
	}
	itemsLeft := m.numItems - int(rated.GetCardinality())
	if itemsLeft <= 0 {
		return
	}
	yui := m.f.score(u, i)
	attempts := m.cfg.sampleAttempts()
	for range m.cfg.NumNeg {
		for cnt := 1; cnt <= attempts; cnt++ {
			j, ok := m.sampleNegative(m.rng, rated)
			if !ok {
				break
			}
			yuj := m.f.score(u, j)
			if yuj > yui-1 {
				m.step(u, i, j, yui-yuj, m.weights[itemsLeft/cnt], lr)
				break
			}
		}
	}
}

func (m *WARP) step(u, i, j int, diff, weight, lr float64) {
	f := m.f
	g := m.loss.Gradient(diff, 1) * weight
	reg := 2 * m.cfg.Lambda
	pu, qi, qj := f.user.Row(u), f.item.Row(i), f.item.Row(j)

	regularized(f.ug, g, qi, reg, pu)
	floats.AddScaled(f.ug, -g, qj)
	regularized(f.ig, g, pu, reg, qi)
	regularized(f.jg, -g, pu, reg, qj)

	if m.cfg.UseAdaGrad {
		adagrad(f.ug, f.userAG.Row(u), m.cfg.Beta)
		adagrad(f.ig, f.itemAG.Row(i), m.cfg.Beta)
		adagrad(f.jg, f.itemAG.Row(j), m.cfg.Beta)
	}
	descend(pu, lr, f.ug)
	descend(qi, lr, f.ig)
	descend(qj, lr, f.jg)
}

func (m *WARP) Predict(r *dataset.Record) float64 {
	u, i, ok := m.pair(r)
	if !ok || m.f == nil {
		return 0
	}
	return m.f.score(u, i)
}

func (m *WARP) Recommend(user, k int, exclude *roaring.Bitmap) ([]int, error) {
	if err := m.checkUser(user); err != nil {
		return nil, err
	}
	return recommendByScore(m.numItems, k, exclude, func(i int) float64 { return m.f.score(user, i) })
}

// DataLoss is a sampled pairwise loss, one negative per record.
func (m *WARP) DataLoss(ds *dataset.Dataset, sampleSize int) float64 {
	if m.f == nil {
		return 0
	}
	return m.pairwiseLoss(ds, sampleSize, m.loss, m.f.score)
}

func (m *WARP) PenaltyLoss() float64 {
	if m.f == nil {
		return 0
	}
	return m.cfg.Lambda * m.f.penalty(m.penalty)
}

func (m *WARP) RegularizationCoefficient() float64 { return m.cfg.Lambda }

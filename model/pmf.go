package model

import (
	"context"
	"maps"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/recgo/dataset"
	"github.com/hupe1980/recgo/loss"
)

// PMF is pointwise matrix factorization with biases, fitted to the record
// labels with SGD and optional AdaGrad.
type PMF struct {
	base
	loss    loss.Loss
	penalty loss.Penalty
	f       *factors
	labels  map[int]map[int]float64 // user -> item -> label
}

// NewPMF creates an untrained PMF model.
func NewPMF(cfg Config) (*PMF, error) {
	l, p, err := lossAndPenalty(cfg)
	if err != nil {
		return nil, err
	}
	return &PMF{base: newBase(cfg), loss: l, penalty: p}, nil
}

func lossAndPenalty(cfg Config) (loss.Loss, loss.Penalty, error) {
	l, err := loss.New(cfg.Loss)
	if err != nil {
		return nil, nil, err
	}
	p, err := loss.NewPenalty(cfg.Penalty)
	if err != nil {
		return nil, nil, err
	}
	return l, p, nil
}

func (m *PMF) Name() string { return MethodPMF.String() }

// Reset draws small random factors and zero biases.
func (m *PMF) Reset(ds *dataset.Dataset) error {
	if err := m.reset(ds); err != nil {
		return err
	}
	labels, err := ds.PairLabels(m.cfg.UserGroup, m.cfg.ItemGroup)
	if err != nil {
		return err
	}
	m.labels = labels
	m.f = newFactors(m.rng, m.numUsers, m.numItems, m.cfg.Dim)
	return nil
}

// TrainOneIteration visits every observed (user, item) pair once, users and
// items in ascending order.
func (m *PMF) TrainOneIteration(ctx context.Context, _ *dataset.Dataset) error {
	for u := range m.numUsers {
		if err := ctx.Err(); err != nil {
			return err
		}
		items := m.labels[u]
		for _, i := range slices.Sorted(maps.Keys(items)) {
			m.step(u, i, items[i], m.cfg.LearnRate)
		}
	}
	return nil
}

// UpdateOneStep fits one record.
func (m *PMF) UpdateOneStep(r *dataset.Record, lr float64) {
	if u, i, ok := m.pair(r); ok {
		m.step(u, i, r.Label(), lr)
	}
}

func (m *PMF) step(u, i int, label, lr float64) {
	f := m.f
	g := m.loss.Gradient(f.score(u, i), label)
	reg := 2 * m.cfg.Lambda
	pu, qi := f.user.Row(u), f.item.Row(i)

	regularized(f.ug, g, qi, reg, pu)
	regularized(f.ig, g, pu, reg, qi)
	ubg := g + reg*f.userBias[u]
	ibg := g + reg*f.itemBias[i]

	if m.cfg.UseAdaGrad {
		adagrad(f.ug, f.userAG.Row(u), m.cfg.Beta)
		adagrad(f.ig, f.itemAG.Row(i), m.cfg.Beta)
		ubg = adagradScalar(ubg, &f.userBiasAG[u], m.cfg.Beta)
		ibg = adagradScalar(ibg, &f.itemBiasAG[i], m.cfg.Beta)
	}
	if m.cfg.UseBias {
		f.userBias[u] -= lr * ubg
		f.itemBias[i] -= lr * ibg
	}
	descend(pu, lr, f.ug)
	descend(qi, lr, f.ig)
}

func (m *PMF) Predict(r *dataset.Record) float64 {
	u, i, ok := m.pair(r)
	if !ok || m.f == nil {
		return 0
	}
	return m.loss.Predict(m.f.score(u, i))
}

func (m *PMF) Recommend(user, k int, exclude *roaring.Bitmap) ([]int, error) {
	if err := m.checkUser(user); err != nil {
		return nil, err
	}
	return recommendByScore(m.numItems, k, exclude, func(i int) float64 { return m.f.score(user, i) })
}

func (m *PMF) DataLoss(ds *dataset.Dataset, sampleSize int) float64 {
	return pointwiseLoss(ds, sampleSize, m.loss, func(r *dataset.Record) float64 {
		u, i, ok := m.pair(r)
		if !ok {
			return 0
		}
		return m.f.score(u, i)
	})
}

func (m *PMF) PenaltyLoss() float64 {
	if m.f == nil {
		return 0
	}
	return m.cfg.Lambda * m.f.penalty(m.penalty)
}

func (m *PMF) RegularizationCoefficient() float64 { return m.cfg.Lambda }

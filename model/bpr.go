package model

import (
	"context"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/floats"

	"github.com/hupe1980/recgo/dataset"
	"github.com/hupe1980/recgo/loss"
)

// BPR is Bayesian personalized ranking: for each observed (u, i) it samples
// NumNeg unobserved items j and pushes score(u, i) above score(u, j).
type BPR struct {
	base
	loss    loss.Loss
	penalty loss.Penalty
	f       *factors
}

// NewBPR creates an untrained BPR model.
func NewBPR(cfg Config) (*BPR, error) {
	l, p, err := lossAndPenalty(cfg)
	if err != nil {
		return nil, err
	}
	return &BPR{base: newBase(cfg), loss: l, penalty: p}, nil
}

func (m *BPR) Name() string { return MethodBPR.String() }

func (m *BPR) Reset(ds *dataset.Dataset) error {
	if err := m.reset(ds); err != nil {
		return err
	}
	m.f = newFactors(m.rng, m.numUsers, m.numItems, m.cfg.Dim)
	return nil
}

// TrainOneIteration runs UpdateOneStep over ds in order.
func (m *BPR) TrainOneIteration(ctx context.Context, ds *dataset.Dataset) error {
	for pos, r := range ds.Records() {
		if pos%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		m.UpdateOneStep(r, m.cfg.LearnRate)
	}
	return nil
}

// UpdateOneStep trains the record's pair against NumNeg sampled negatives.
func (m *BPR) UpdateOneStep(r *dataset.Record, lr float64) {
	u, i, ok := m.pair(r)
	if !ok {
		return
	}
	for range m.cfg.NumNeg {
		j, ok := m.sampleNegative(m.rng, m.rated[u])
		if !ok {
			continue
		}
		m.step(u, i, j, lr)
	}
}

func (m *BPR) step(u, i, j int, lr float64) {
	f := m.f
	g := m.loss.Gradient(f.score(u, i)-f.score(u, j), 1)
	lambda := m.cfg.Lambda
	pu, qi, qj := f.user.Row(u), f.item.Row(i), f.item.Row(j)

	regularized(f.ug, g, qi, lambda, pu)
	floats.AddScaled(f.ug, -g, qj)
	regularized(f.ig, g, pu, lambda, qi)
	regularized(f.jg, -g, pu, lambda, qj)
	big := g + lambda*f.itemBias[i]
	bjg := -g + lambda*f.itemBias[j]

	if m.cfg.UseAdaGrad {
		adagrad(f.ug, f.userAG.Row(u), m.cfg.Beta)
		adagrad(f.ig, f.itemAG.Row(i), m.cfg.Beta)
		adagrad(f.jg, f.itemAG.Row(j), m.cfg.Beta)
		big = adagradScalar(big, &f.itemBiasAG[i], m.cfg.Beta)
		bjg = adagradScalar(bjg, &f.itemBiasAG[j], m.cfg.Beta)
	}
	if m.cfg.UseBias {
		f.itemBias[i] -= lr * big
		f.itemBias[j] -= lr * bjg
	}
	descend(pu, lr, f.ug)
	descend(qi, lr, f.ig)
	descend(qj, lr, f.jg)
}

func (m *BPR) Predict(r *dataset.Record) float64 {
	u, i, ok := m.pair(r)
	if !ok || m.f == nil {
		return 0
	}
	return m.f.score(u, i)
}

func (m *BPR) Recommend(user, k int, exclude *roaring.Bitmap) ([]int, error) {
	if err := m.checkUser(user); err != nil {
		return nil, err
	}
	return recommendByScore(m.numItems, k, exclude, func(i int) float64 { return m.f.score(user, i) })
}

// DataLoss is a sampled pairwise loss, one negative per record.
func (m *BPR) DataLoss(ds *dataset.Dataset, sampleSize int) float64 {
	if m.f == nil {
		return 0
	}
	return m.pairwiseLoss(ds, sampleSize, m.loss, m.f.score)
}

func (m *BPR) PenaltyLoss() float64 {
	if m.f == nil {
		return 0
	}
	return m.cfg.Lambda * m.f.penalty(m.penalty)
}

func (m *BPR) RegularizationCoefficient() float64 { return m.cfg.Lambda }

package model

import (
	"context"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/floats"

	"github.com/hupe1980/recgo/dataset"
	"github.com/hupe1980/recgo/loss"
)

// FM is a factorization machine over the flat feature space of a record:
//
//	y = mean + sum_a w_a x_a + sum_{a<b, group(a)!=group(b)} <v_a, v_b> x_a x_b
//
// Pairs inside one feature group do not interact.
type FM struct {
	base
	loss    loss.Loss
	penalty loss.Penalty
	schema  *dataset.Schema

	mean      float64
	weights   []float64
	weightsAG []float64
	factors   *Matrix
	factorsAG *Matrix
}

// NewFM creates an untrained factorization machine.
func NewFM(cfg Config) (*FM, error) {
	l, p, err := lossAndPenalty(cfg)
	if err != nil {
		return nil, err
	}
	return &FM{base: newBase(cfg), loss: l, penalty: p}, nil
}

func (m *FM) Name() string { return MethodFM.String() }

// Reset sizes the parameters to the schema's total dimensions.
func (m *FM) Reset(ds *dataset.Dataset) error {
	if err := m.reset(ds); err != nil {
		return err
	}
	m.schema = ds.Schema()
	n := ds.TotalDimensions()
	m.weights = make([]float64, n)
	for i := range m.weights {
		m.weights[i] = (2*m.rng.Float64() - 1) * initScale
	}
	m.weightsAG = filled(n, adagradInit)
	m.factors = RandomMatrix(m.rng, n, m.cfg.Dim, initScale)
	m.factorsAG = NewMatrix(n, m.cfg.Dim)
	m.factorsAG.Fill(adagradInit)

	m.mean = 0
	if m.cfg.UseBias && ds.Len() > 0 {
		for _, r := range ds.Records() {
			m.mean += r.Label()
		}
		m.mean /= float64(ds.Len())
	}
	return nil
}

func (m *FM) collect(r *dataset.Record) []dataset.Feature {
	feats := make([]dataset.Feature, 0, r.Size())
	it := dataset.NewFlatIterator(m.schema, r)
	for f, ok := it.Next(); ok; f, ok = it.Next() {
		feats = append(feats, f)
	}
	return feats
}

func (m *FM) score(feats []dataset.Feature) float64 {
	y := m.mean
	for a, fa := range feats {
		y += m.weights[fa.Index] * fa.Value
		for _, fb := range feats[a+1:] {
			if fa.Group == fb.Group {
				continue
			}
			y += fa.Value * fb.Value * m.factors.Dot(fa.Index, m.factors, fb.Index)
		}
	}
	return y
}

// Predict scores the record through the loss's output mapping.
func (m *FM) Predict(r *dataset.Record) float64 {
	if m.schema == nil {
		return 0
	}
	return m.loss.Predict(m.score(m.collect(r)))
}

// TrainOneIteration runs UpdateOneStep over ds in order.
func (m *FM) TrainOneIteration(ctx context.Context, ds *dataset.Dataset) error {
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

// UpdateOneStep takes one SGD step on the record. Factor gradients are
// computed against the pre-step parameters.
func (m *FM) UpdateOneStep(r *dataset.Record, lr float64) {
	feats := m.collect(r)
	g := m.loss.Gradient(m.score(feats), r.Label())
	lambda := m.cfg.Lambda

	grads := make([][]float64, len(feats))
	for a, fa := range feats {
		grad := make([]float64, m.cfg.Dim)
		floats.ScaleTo(grad, lambda, m.factors.Row(fa.Index))
		for _, fb := range feats {
			if fa.Group == fb.Group {
				continue
			}
			floats.AddScaled(grad, g*fa.Value*fb.Value, m.factors.Row(fb.Index))
		}
		grads[a] = grad
	}

	for a, fa := range feats {
		if m.cfg.UseBias {
			wg := lambda*m.weights[fa.Index] + g*fa.Value
			if m.cfg.UseAdaGrad {
				wg = adagradScalar(wg, &m.weightsAG[fa.Index], m.cfg.Beta)
			}
			m.weights[fa.Index] -= lr * wg
		}
		if m.cfg.UseAdaGrad {
			adagrad(grads[a], m.factorsAG.Row(fa.Index), m.cfg.Beta)
		}
		descend(m.factors.Row(fa.Index), lr, grads[a])
	}
}

// Recommend scores items against the user's own features only.
func (m *FM) Recommend(user, k int, exclude *roaring.Bitmap) ([]int, error) {
	if err := m.checkUser(user); err != nil {
		return nil, err
	}
	u := m.schema.GlobalIndex(m.cfg.UserGroup, user)
	itemOffset := m.schema.Offset(m.cfg.ItemGroup)
	return recommendByScore(m.numItems, k, exclude, func(i int) float64 {
		idx := itemOffset + i
		return m.weights[u] + m.weights[idx] + m.factors.Dot(u, m.factors, idx)
	})
}

func (m *FM) DataLoss(ds *dataset.Dataset, sampleSize int) float64 {
	if m.schema == nil {
		return 0
	}
	return pointwiseLoss(ds, sampleSize, m.loss, func(r *dataset.Record) float64 {
		return m.score(m.collect(r))
	})
}

func (m *FM) PenaltyLoss() float64 {
	if m.schema == nil {
		return 0
	}
	return 0.5 * m.cfg.Lambda * (m.penalty.Evaluate(m.weights) + m.penalty.Evaluate(m.factors.Data))
}

func (m *FM) RegularizationCoefficient() float64 { return m.cfg.Lambda }

package model

import (
	"context"
	"math/rand/v2"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/recgo/dataset"
	"github.com/hupe1980/recgo/loss"
	"github.com/hupe1980/recgo/parallel"
)

const alsInitScale = 0.001

// ALS is alternating least squares. Each half-iteration fixes one factor
// matrix and solves the normal equations of every row of the other:
//
//	(lambda*I + sum_j y_j y_j^T) x = sum_j r_j y_j
//
// Rows are solved concurrently; every task writes only its own row.
type ALS struct {
	base
	loss       loss.Loss
	penalty    loss.Penalty
	p, q       *Matrix
	userLabels map[int]map[int]float64
	itemLabels map[int]map[int]float64
}

// NewALS creates an untrained ALS model.
func NewALS(cfg Config) (*ALS, error) {
	l, p, err := lossAndPenalty(cfg)
	if err != nil {
		return nil, err
	}
	return &ALS{base: newBase(cfg), loss: l, penalty: p}, nil
}

func (m *ALS) Name() string { return MethodALS.String() }

func (m *ALS) Reset(ds *dataset.Dataset) error {
	if err := m.reset(ds); err != nil {
		return err
	}
	var err error
	if m.userLabels, err = ds.PairLabels(m.cfg.UserGroup, m.cfg.ItemGroup); err != nil {
		return err
	}
	if m.itemLabels, err = ds.PairLabels(m.cfg.ItemGroup, m.cfg.UserGroup); err != nil {
		return err
	}
	m.initFactors(m.rng)
	return nil
}

func (m *ALS) initFactors(rng *rand.Rand) {
	m.p = RandomMatrix(rng, m.numUsers, m.cfg.Dim, alsInitScale)
	m.q = RandomMatrix(rng, m.numItems, m.cfg.Dim, alsInitScale)
}

// TrainOneIteration solves all user rows, then all item rows.
func (m *ALS) TrainOneIteration(ctx context.Context, _ *dataset.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.solveAll(m.numUsers, m.userLabels, m.q, m.p)
	if err := ctx.Err(); err != nil {
		return err
	}
	m.solveAll(m.numItems, m.itemLabels, m.p, m.q)
	return nil
}

// solveAll submits one task per row of target that has observations.
// fixed is read-only for the duration of the fan-out.
func (m *ALS) solveAll(n int, labels map[int]map[int]float64, fixed, target *Matrix) {
	pool := parallel.NewTaskPool(m.cfg.Workers)
	for idx := range n {
		obs := labels[idx]
		if len(obs) == 0 {
			continue
		}
		_ = pool.Submit(func() { m.solveRow(idx, obs, fixed, target) })
	}
	pool.Run()
}

func (m *ALS) solveRow(idx int, obs map[int]float64, y, x *Matrix) {
	dim := m.cfg.Dim
	a := mat.NewSymDense(dim, nil)
	for k := range dim {
		a.SetSym(k, k, m.cfg.Lambda)
	}
	b := make([]float64, dim)
	for other, r := range obs {
		row := y.Row(other)
		a.SymRankOne(a, 1, mat.NewVecDense(dim, row))
		floats.AddScaled(b, r, row)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		// Singular system; keep the previous row.
		return
	}
	_ = chol.SolveVecTo(mat.NewVecDense(dim, x.Row(idx)), mat.NewVecDense(dim, b))
}

func (m *ALS) score(u, i int) float64 { return m.p.Dot(u, m.q, i) }

func (m *ALS) Predict(r *dataset.Record) float64 {
	u, i, ok := m.pair(r)
	if !ok || m.p == nil {
		return 0
	}
	return m.score(u, i)
}

func (m *ALS) Recommend(user, k int, exclude *roaring.Bitmap) ([]int, error) {
	if err := m.checkUser(user); err != nil {
		return nil, err
	}
	return recommendByScore(m.numItems, k, exclude, func(i int) float64 { return m.score(user, i) })
}

func (m *ALS) DataLoss(ds *dataset.Dataset, sampleSize int) float64 {
	return pointwiseLoss(ds, sampleSize, m.loss, m.Predict)
}

func (m *ALS) PenaltyLoss() float64 {
	if m.p == nil {
		return 0
	}
	return m.cfg.Lambda * (m.penalty.Evaluate(m.p.Data) + m.penalty.Evaluate(m.q.Data))
}

func (m *ALS) RegularizationCoefficient() float64 { return m.cfg.Lambda }

package model

import (
	"context"
	"maps"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"

	"github.com/hupe1980/recgo/dataset"
	"github.com/hupe1980/recgo/loss"
	"github.com/hupe1980/recgo/parallel"
)

// CDAE is a collaborative denoising auto-encoder. Each user's rated set is
// corrupted, encoded into a hidden layer from the item weights of the kept
// items plus a per-user weight, and decoded back into a score per item.
//
// Training walks users sequentially since every user touches shared item
// rows. DataLoss encodes users in parallel.
type CDAE struct {
	base
	loss    loss.Loss
	penalty loss.Penalty

	item, user          *Matrix
	hiddenBias, outBias []float64
	itemAG, userAG      *Matrix
	hiddenBiasAG        []float64
	outBiasAG           []float64

	// Scratch; training is single-threaded per model.
	z, dz, hg, grad []float64
}

// NewCDAE creates an untrained CDAE model.
func NewCDAE(cfg Config) (*CDAE, error) {
	l, p, err := lossAndPenalty(cfg)
	if err != nil {
		return nil, err
	}
	return &CDAE{base: newBase(cfg), loss: l, penalty: p}, nil
}

func (m *CDAE) Name() string { return MethodCDAE.String() }

func (m *CDAE) Reset(ds *dataset.Dataset) error {
	if err := m.reset(ds); err != nil {
		return err
	}
	dim := m.cfg.Dim
	scale := 4 * math.Sqrt(6/float64(m.numItems+dim))
	m.item = RandomMatrix(m.rng, m.numItems, dim, scale)
	m.user = RandomMatrix(m.rng, m.numUsers, dim, scale)
	m.hiddenBias = make([]float64, dim)
	m.outBias = make([]float64, m.numItems)
	m.itemAG = NewMatrix(m.numItems, dim)
	m.itemAG.Fill(adagradInit)
	m.userAG = NewMatrix(m.numUsers, dim)
	m.userAG.Fill(adagradInit)
	m.hiddenBiasAG = filled(dim, adagradInit)
	m.outBiasAG = filled(m.numItems, adagradInit)
	m.z = make([]float64, dim)
	m.dz = make([]float64, dim)
	m.hg = make([]float64, dim)
	m.grad = make([]float64, dim)
	return nil
}

// inputScale rescales the kept items so the expected input matches the
// uncorrupted set.
func (m *CDAE) inputScale() float64 {
	return 1 / (1 - m.cfg.CorruptionRatio)
}

// corrupt keeps each item of rated with probability 1 - CorruptionRatio.
func (m *CDAE) corrupt(rng *rand.Rand, rated *roaring.Bitmap) *roaring.Bitmap {
	kept := roaring.New()
	it := rated.Iterator()
	for it.HasNext() {
		i := it.Next()
		if rng.Float64() >= m.cfg.CorruptionRatio {
			kept.Add(i)
		}
	}
	return kept
}

// hidden writes sigmoid(b + Wu[u] + scale * sum W[i] over input) into z.
func (m *CDAE) hidden(u int, input *roaring.Bitmap, scale float64, z []float64) {
	copy(z, m.hiddenBias)
	floats.Add(z, m.user.Row(u))
	if input != nil {
		it := input.Iterator()
		for it.HasNext() {
			if i := int(it.Next()); i < m.numItems {
				floats.AddScaled(z, scale, m.item.Row(i))
			}
		}
	}
	for k, v := range z {
		z[k] = loss.Sigmoid(v)
	}
}

func (m *CDAE) output(z []float64, i int) float64 {
	return floats.Dot(m.item.Row(i), z) + m.outBias[i]
}

// TrainOneIteration visits every user with a rated set once, in random
// order.
func (m *CDAE) TrainOneIteration(ctx context.Context, _ *dataset.Dataset) error {
	for pos, u := range m.rng.Perm(m.numUsers) {
		if pos%256 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		m.trainUser(u, m.cfg.LearnRate)
	}
	return nil
}

func (m *CDAE) trainUser(u int, lr float64) {
	rated := m.rated[u]
	if rated == nil || rated.IsEmpty() {
		return
	}
	input := m.corrupt(m.rng, rated)
	scale := m.inputScale()
	m.hidden(u, input, scale, m.z)
	clear(m.hg)

	// Kept items receive their decoder gradient together with the encoder
	// gradient below.
	kept := make(map[int]float64, input.GetCardinality())
	it := rated.Iterator()
	for it.HasNext() {
		i := int(it.Next())
		if i >= m.numItems {
			continue
		}
		g := m.loss.Gradient(m.output(m.z, i), m.loss.PositiveLabel())
		m.stepOutBias(i, g, lr)
		floats.AddScaled(m.hg, g, m.item.Row(i))
		if input.Contains(uint32(i)) {
			kept[i] = g
			continue
		}
		m.stepItem(i, g, m.z, lr)
	}

	negatives := int(rated.GetCardinality()) * m.cfg.NumNeg
	for range negatives {
		j, ok := m.sampleNegative(m.rng, rated)
		if !ok {
			continue
		}
		g := m.loss.Gradient(m.output(m.z, j), m.loss.NegativeLabel())
		m.stepOutBias(j, g, lr)
		floats.AddScaled(m.hg, g, m.item.Row(j))
		m.stepItem(j, g, m.z, lr)
	}

	for k, z := range m.z {
		m.dz[k] = m.hg[k] * z * (1 - z)
	}
	lambda := m.cfg.Lambda
	m.stepRow(m.hiddenBias, m.hiddenBiasAG, 1, m.dz, lr)
	m.stepRow(m.user.Row(u), m.userAG.Row(u), 1, m.dz, lr)
	for _, j := range slices.Sorted(maps.Keys(kept)) {
		regularized(m.grad, scale, m.dz, lambda, m.item.Row(j))
		floats.AddScaled(m.grad, kept[j], m.z)
		m.apply(m.item.Row(j), m.itemAG.Row(j), lr)
	}
}

// stepItem updates W[i] with the decoder gradient g*z.
func (m *CDAE) stepItem(i int, g float64, z []float64, lr float64) {
	m.stepRow(m.item.Row(i), m.itemAG.Row(i), g, z, lr)
}

// stepRow writes g*src + lambda*row into the scratch gradient and applies it.
func (m *CDAE) stepRow(row, acc []float64, g float64, src []float64, lr float64) {
	regularized(m.grad, g, src, m.cfg.Lambda, row)
	m.apply(row, acc, lr)
}

func (m *CDAE) apply(row, acc []float64, lr float64) {
	if m.cfg.UseAdaGrad {
		adagrad(m.grad, acc, m.cfg.Beta)
	}
	descend(row, lr, m.grad)
}

func (m *CDAE) stepOutBias(i int, g, lr float64) {
	bg := g + m.cfg.Lambda*m.outBias[i]
	if m.cfg.UseAdaGrad {
		bg = adagradScalar(bg, &m.outBiasAG[i], m.cfg.Beta)
	}
	m.outBias[i] -= lr * bg
}

// Predict encodes the user's full training set and decodes the item.
func (m *CDAE) Predict(r *dataset.Record) float64 {
	u, i, ok := m.pair(r)
	if !ok || m.item == nil {
		return 0
	}
	z := make([]float64, m.cfg.Dim)
	m.hidden(u, m.rated[u], 1, z)
	return m.output(z, i)
}

// Recommend encodes exclude, or the user's training set when exclude is
// nil, and ranks the remaining items by their decoded score.
func (m *CDAE) Recommend(user, k int, exclude *roaring.Bitmap) ([]int, error) {
	if err := m.checkUser(user); err != nil {
		return nil, err
	}
	input := exclude
	if input == nil {
		input = m.rated[user]
	}
	z := make([]float64, m.cfg.Dim)
	m.hidden(user, input, 1, z)
	return recommendByScore(m.numItems, k, exclude, func(i int) float64 { return m.output(z, i) })
}

// DataLoss corrupts and reconstructs every user of ds and sums the loss of
// the positive items. CDAE scores whole users, so sampleSize caps the
// number of users rather than records. Each user draws its corruption from
// a seed of its own, which keeps the estimate independent of the worker
// count.
func (m *CDAE) DataLoss(ds *dataset.Dataset, sampleSize int) float64 {
	if m.item == nil {
		return 0
	}
	sets, err := ds.ValueSets(m.cfg.UserGroup, m.cfg.ItemGroup)
	if err != nil {
		return 0
	}
	users := lo.Filter(lo.Keys(sets), func(u int, _ int) bool { return u < m.numUsers })
	slices.Sort(users)
	if sampleSize > 0 && sampleSize < len(users) {
		users = users[:sampleSize]
	}
	scale := m.inputScale()
	return parallel.AccumulateAndReduce(parallel.New(m.cfg.Workers), 0, len(users), 0.0,
		func(acc float64, idx int) float64 {
			u := users[idx]
			rng := rand.New(rand.NewPCG(m.cfg.Seed, uint64(u)))
			z := make([]float64, m.cfg.Dim)
			m.hidden(u, m.corrupt(rng, sets[u]), scale, z)
			it := sets[u].Iterator()
			for it.HasNext() {
				if i := int(it.Next()); i < m.numItems {
					acc += m.loss.Evaluate(m.output(z, i), m.loss.PositiveLabel())
				}
			}
			return acc
		},
		func(a, b float64) float64 { return a + b },
	)
}

func (m *CDAE) PenaltyLoss() float64 {
	if m.item == nil {
		return 0
	}
	p := m.penalty
	return 0.5 * m.cfg.Lambda * (p.Evaluate(m.item.Data) + p.Evaluate(m.user.Data) +
		p.Evaluate(m.hiddenBias) + p.Evaluate(m.outBias))
}

func (m *CDAE) RegularizationCoefficient() float64 { return m.cfg.Lambda }

package model

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/recgo/dataset"
)

// Popularity recommends the most frequent items. It is the usual baseline.
type Popularity struct {
	base
	counts  []float64
	ranking []int // items by descending count, ties by id
}

// NewPopularity creates an untrained popularity model.
func NewPopularity(cfg Config) *Popularity {
	return &Popularity{base: newBase(cfg)}
}

func (m *Popularity) Name() string { return MethodPopularity.String() }

// Reset counts item occurrences in ds.
func (m *Popularity) Reset(ds *dataset.Dataset) error {
	if err := m.checkGroups(ds); err != nil {
		return err
	}
	m.numUsers = ds.GroupSize(m.cfg.UserGroup)
	m.numItems = ds.GroupSize(m.cfg.ItemGroup)
	m.counts = make([]float64, m.numItems)
	for pos, r := range ds.Records() {
		item, ok := r.FirstID(m.cfg.ItemGroup)
		if !ok {
			return fmt.Errorf("record %d: %w", pos, &dataset.CardinalityError{Group: m.cfg.ItemGroup, Position: pos})
		}
		m.counts[item]++
	}
	m.rank()
	m.trained = true
	return nil
}

func (m *Popularity) rank() {
	m.ranking = make([]int, m.numItems)
	for i := range m.ranking {
		m.ranking[i] = i
	}
	slices.SortStableFunc(m.ranking, func(a, b int) int {
		return cmp.Compare(m.counts[b], m.counts[a])
	})
}

// Predict returns the item count.
func (m *Popularity) Predict(r *dataset.Record) float64 {
	item, ok := r.FirstID(m.cfg.ItemGroup)
	if !ok || item >= len(m.counts) {
		return 0
	}
	return m.counts[item]
}

// Recommend walks the popularity ranking, skipping excluded items. Users
// are not consulted.
func (m *Popularity) Recommend(_, k int, exclude *roaring.Bitmap) ([]int, error) {
	if !m.trained {
		return nil, ErrNotTrained
	}
	if k <= 0 {
		return nil, nil
	}
	out := make([]int, 0, k)
	for _, item := range m.ranking {
		if len(out) == k {
			break
		}
		if exclude != nil && exclude.Contains(uint32(item)) {
			continue
		}
		out = append(out, item)
	}
	if len(out) < k {
		return nil, fmt.Errorf("%w: %d of %d items remain, want %d", ErrInsufficientCandidates, len(out), m.numItems, k)
	}
	return out, nil
}

func (m *Popularity) TrainOneIteration(context.Context, *dataset.Dataset) error { return nil }
func (m *Popularity) DataLoss(*dataset.Dataset, int) float64                   { return 0 }
func (m *Popularity) PenaltyLoss() float64                                     { return 0 }
func (m *Popularity) RegularizationCoefficient() float64                       { return 0 }

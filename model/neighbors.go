package model

import (
	"context"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/recgo/dataset"
	"github.com/hupe1980/recgo/internal/topk"
	"github.com/hupe1980/recgo/parallel"
)

// neighbors is the shared core of ItemCF and UserCF: for each id of the
// index group it keeps the most similar ids by co-occurrence over the data
// group.
type neighbors struct {
	base
	indexGroup  int
	dataGroup   int
	indexToData map[int][]int
	dataToIndex map[int][]int
	top         [][]topk.Scored // per index id, best first
}

func newNeighbors(cfg Config, indexGroup, dataGroup int) neighbors {
	return neighbors{base: newBase(cfg), indexGroup: indexGroup, dataGroup: dataGroup}
}

func (n *neighbors) build(ds *dataset.Dataset) error {
	if err := n.reset(ds); err != nil {
		return err
	}
	var err error
	if n.indexToData, err = ds.ValueLists(n.indexGroup, n.dataGroup); err != nil {
		return err
	}
	if n.dataToIndex, err = ds.ValueLists(n.dataGroup, n.indexGroup); err != nil {
		return err
	}

	size := ds.GroupSize(n.indexGroup)
	counts := make([]float64, size)
	for idx, data := range n.indexToData {
		counts[idx] = float64(len(data))
	}

	n.top = make([][]topk.Scored, size)
	parallel.DynamicFor(n.cfg.Workers, 0, size, func(idx int) {
		data, ok := n.indexToData[idx]
		if !ok {
			return
		}
		co := make(map[int]float64)
		for _, d := range data {
			for _, other := range n.dataToIndex[d] {
				if other != idx {
					co[other]++
				}
			}
		}
		sel := topk.NewTopK(n.cfg.Neighbors, topk.HigherScore)
		for other, c := range co {
			sel.Offer(topk.Scored{ID: other, Score: n.similarity(c, counts[idx], counts[other])})
		}
		n.top[idx] = sel.Sorted()
	})
	return nil
}

func (n *neighbors) similarity(co, a, b float64) float64 {
	switch n.cfg.Similarity {
	case Cosine:
		return co / math.Sqrt(a*b)
	default:
		return co / (a + b - co)
	}
}

// Neighbors returns the kept neighbors of index id idx, best first.
func (n *neighbors) Neighbors(idx int) []topk.Scored {
	if idx < 0 || idx >= len(n.top) {
		return nil
	}
	return n.top[idx]
}

func (n *neighbors) TrainOneIteration(context.Context, *dataset.Dataset) error { return nil }
func (n *neighbors) DataLoss(*dataset.Dataset, int) float64                   { return 0 }
func (n *neighbors) PenaltyLoss() float64                                     { return 0 }
func (n *neighbors) RegularizationCoefficient() float64                       { return 0 }

// rankAccumulated returns up to k ids of acc ordered by score.
func rankAccumulated(acc map[int]float64, k int) []int {
	if k <= 0 {
		return nil
	}
	sel := topk.NewTopK(k, topk.HigherScore)
	for id, s := range acc {
		sel.Offer(topk.Scored{ID: id, Score: s})
	}
	return ids(sel.Sorted())
}

// ItemCF scores an item by its summed similarity to the user's train items.
type ItemCF struct {
	neighbors
}

// NewItemCF creates an untrained item-based neighbor model.
func NewItemCF(cfg Config) *ItemCF {
	return &ItemCF{neighbors: newNeighbors(cfg, cfg.ItemGroup, cfg.UserGroup)}
}

func (m *ItemCF) Name() string { return MethodItemCF.String() }

// Reset computes the item neighbor lists.
func (m *ItemCF) Reset(ds *dataset.Dataset) error { return m.build(ds) }

func (m *ItemCF) Predict(r *dataset.Record) float64 {
	u, i, ok := m.pair(r)
	if !ok {
		return 0
	}
	rated := m.rated[u]
	score := 0.0
	for _, nb := range m.Neighbors(i) {
		if rated != nil && rated.Contains(uint32(nb.ID)) {
			score += nb.Score
		}
	}
	return score
}

// Recommend accumulates neighbor similarities over the user's train items.
// It returns at most k items; fewer when the neighborhood is small.
func (m *ItemCF) Recommend(user, k int, exclude *roaring.Bitmap) ([]int, error) {
	if err := m.checkUser(user); err != nil {
		return nil, err
	}
	rated := m.rated[user]
	if rated == nil {
		return nil, nil
	}
	acc := make(map[int]float64)
	it := rated.Iterator()
	for it.HasNext() {
		for _, nb := range m.Neighbors(int(it.Next())) {
			if rated.Contains(uint32(nb.ID)) || (exclude != nil && exclude.Contains(uint32(nb.ID))) {
				continue
			}
			acc[nb.ID] += nb.Score
		}
	}
	return rankAccumulated(acc, k), nil
}

// UserCF scores an item by the summed similarity of neighbor users who
// rated it.
type UserCF struct {
	neighbors
}

// NewUserCF creates an untrained user-based neighbor model.
func NewUserCF(cfg Config) *UserCF {
	return &UserCF{neighbors: newNeighbors(cfg, cfg.UserGroup, cfg.ItemGroup)}
}

func (m *UserCF) Name() string { return MethodUserCF.String() }

// Reset computes the user neighbor lists.
func (m *UserCF) Reset(ds *dataset.Dataset) error { return m.build(ds) }

func (m *UserCF) Predict(r *dataset.Record) float64 {
	u, i, ok := m.pair(r)
	if !ok {
		return 0
	}
	score := 0.0
	for _, nb := range m.Neighbors(u) {
		if set := m.rated[nb.ID]; set != nil && set.Contains(uint32(i)) {
			score += nb.Score
		}
	}
	return score
}

// Recommend accumulates neighbor similarities over the neighbors' items.
// It returns at most k items; fewer when the neighborhood is small.
func (m *UserCF) Recommend(user, k int, exclude *roaring.Bitmap) ([]int, error) {
	if err := m.checkUser(user); err != nil {
		return nil, err
	}
	rated := m.rated[user]
	acc := make(map[int]float64)
	for _, nb := range m.Neighbors(user) {
		items, ok := m.indexToData[nb.ID]
		if !ok {
			return nil, fmt.Errorf("%w: neighbor user %d has no items", ErrUnknownEntity, nb.ID)
		}
		for _, item := range items {
			if (rated != nil && rated.Contains(uint32(item))) || (exclude != nil && exclude.Contains(uint32(item))) {
				continue
			}
			acc[item] += nb.Score
		}
	}
	return rankAccumulated(acc, k), nil
}

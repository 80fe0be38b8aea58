package model

import (
	"fmt"
	"math/rand/v2"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/recgo/dataset"
	"github.com/hupe1980/recgo/internal/topk"
	"github.com/hupe1980/recgo/loss"
)

// base carries what every user/item model shares: configuration, the
// random source, entity counts and the training-set rated items.
type base struct {
	cfg      Config
	rng      *rand.Rand
	numUsers int
	numItems int
	rated    map[int]*roaring.Bitmap // user -> train items
	trained  bool
}

func newBase(cfg Config) base {
	return base{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}
}

func (b *base) core() *base { return b }

// reset sizes the model from ds and rebuilds the rated-item sets.
func (b *base) reset(ds *dataset.Dataset) error {
	if err := b.checkGroups(ds); err != nil {
		return err
	}
	rated, err := ds.ValueSets(b.cfg.UserGroup, b.cfg.ItemGroup)
	if err != nil {
		return fmt.Errorf("rated items: %w", err)
	}
	b.numUsers = ds.GroupSize(b.cfg.UserGroup)
	b.numItems = ds.GroupSize(b.cfg.ItemGroup)
	b.rated = rated
	b.trained = true
	return nil
}

func (b *base) checkGroups(ds *dataset.Dataset) error {
	n := ds.NumGroups()
	if b.cfg.UserGroup >= n || b.cfg.ItemGroup >= n {
		return fmt.Errorf("%w: user group %d, item group %d, dataset has %d groups",
			dataset.ErrInvalidGroup, b.cfg.UserGroup, b.cfg.ItemGroup, n)
	}
	return nil
}

// pair extracts the (user, item) local ids of a record.
func (b *base) pair(r *dataset.Record) (user, item int, ok bool) {
	user, ok = r.FirstID(b.cfg.UserGroup)
	if !ok || user >= b.numUsers {
		return 0, 0, false
	}
	item, ok = r.FirstID(b.cfg.ItemGroup)
	if !ok || item >= b.numItems {
		return 0, 0, false
	}
	return user, item, true
}

func (b *base) checkUser(user int) error {
	if !b.trained {
		return ErrNotTrained
	}
	if user < 0 || user >= b.numUsers {
		return fmt.Errorf("%w: user %d (known users: %d)", ErrUnknownEntity, user, b.numUsers)
	}
	return nil
}

// sampleNegative draws an item outside rated, giving up after the
// configured number of attempts.
func (b *base) sampleNegative(rng *rand.Rand, rated *roaring.Bitmap) (int, bool) {
	if b.numItems == 0 {
		return 0, false
	}
	for range b.cfg.sampleAttempts() {
		j := rng.IntN(b.numItems)
		if rated == nil || !rated.Contains(uint32(j)) {
			return j, true
		}
	}
	return 0, false
}

// pointwiseLoss sums l over the first sampleSize records of ds.
func pointwiseLoss(ds *dataset.Dataset, sampleSize int, l loss.Loss, predict func(*dataset.Record) float64) float64 {
	n := ds.Len()
	if sampleSize > 0 && sampleSize < n {
		n = sampleSize
	}
	total := 0.0
	for i := range n {
		r := ds.Record(i)
		total += l.Evaluate(predict(r), r.Label())
	}
	return total
}

// pairwiseLoss estimates a ranking loss: each of the first sampleSize
// records is paired with one sampled negative. A fixed seed keeps the
// estimate comparable across iterations without touching the training rng.
func (b *base) pairwiseLoss(ds *dataset.Dataset, sampleSize int, l loss.Loss, score func(u, i int) float64) float64 {
	n := ds.Len()
	if sampleSize > 0 && sampleSize < n {
		n = sampleSize
	}
	rng := rand.New(rand.NewPCG(b.cfg.Seed, 0))
	total := 0.0
	for idx := range n {
		u, i, ok := b.pair(ds.Record(idx))
		if !ok {
			continue
		}
		j, ok := b.sampleNegative(rng, b.rated[u])
		if !ok {
			continue
		}
		total += l.Evaluate(score(u, i)-score(u, j), 1)
	}
	return total
}

// recommendByScore scans every item, skips exclude, and keeps the k best
// scores.
func recommendByScore(numItems, k int, exclude *roaring.Bitmap, score func(item int) float64) ([]int, error) {
	if k <= 0 {
		return nil, nil
	}
	top := topk.NewTopK(k, topk.HigherScore)
	for item := range numItems {
		if exclude != nil && exclude.Contains(uint32(item)) {
			continue
		}
		top.Offer(topk.Scored{ID: item, Score: score(item)})
	}
	if top.Len() < k {
		return nil, fmt.Errorf("%w: %d of %d items remain, want %d", ErrInsufficientCandidates, top.Len(), numItems, k)
	}
	return ids(top.Sorted()), nil
}

func ids(scored []topk.Scored) []int {
	out := make([]int, len(scored))
	for i, s := range scored {
		out[i] = s.ID
	}
	return out
}

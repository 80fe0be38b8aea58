package evaluation

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/samber/lo"

	"github.com/hupe1980/recgo/dataset"
	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/parallel"
)

// listSize is the length of every evaluated recommendation list.
const listSize = 10

var (
	topNColumns    = []string{"P@1", "P@5", "P@10", "R@1", "R@5", "R@10", "MAP@5", "MAP@10"}
	rankingColumns = append(slices.Clone(topNColumns), "NDCG@5", "NDCG@10")
)

// TopN scores size-10 recommendation lists against the items each user has
// in the validation set. Train items are excluded from the lists. Users
// without validation items are not evaluated and do not count towards the
// averages.
//
// With NDCG enabled the relevance of a recommended item is its validation
// label.
type TopN struct {
	opts options
	ndcg bool
}

func (t *TopN) Name() string {
	if t.ndcg {
		return "Ranking"
	}
	return "TopN"
}

func (t *TopN) Columns() []string {
	if t.ndcg {
		return slices.Clone(rankingColumns)
	}
	return slices.Clone(topNColumns)
}

func (t *TopN) Evaluate(ctx context.Context, m model.Model, validation, train *dataset.Dataset) (Result, error) {
	if validation == nil || validation.Len() == 0 {
		return Result{}, ErrEmptyValidation
	}
	ug, ig := t.opts.userGroup, t.opts.itemGroup

	relevant, err := validation.ValueSets(ug, ig)
	if err != nil {
		return Result{}, fmt.Errorf("validation items: %w", err)
	}
	var labels map[int]map[int]float64
	if t.ndcg {
		if labels, err = validation.PairLabels(ug, ig); err != nil {
			return Result{}, fmt.Errorf("validation labels: %w", err)
		}
	}
	// An empty train set is treated like a missing one.
	trainGiven := train != nil && train.Len() > 0
	rated := map[int]*roaring.Bitmap{}
	if trainGiven {
		if rated, err = train.ValueSets(ug, ig); err != nil {
			return Result{}, fmt.Errorf("train items: %w", err)
		}
	}

	users := lo.Keys(relevant)
	slices.Sort(users)
	columns := t.Columns()
	numItems := validation.GroupSize(ig)
	rows := make([][]float64, len(users))
	errs := make([]error, len(users))

	pool := parallel.NewTaskPool(t.opts.workers)
	for row, user := range users {
		_ = pool.Submit(func() {
			if ctx.Err() != nil {
				return
			}
			exclude, ok := rated[user]
			if trainGiven && !ok {
				errs[row] = fmt.Errorf("%w: validation user %d has no train items", model.ErrUnknownEntity, user)
				return
			}
			list, err := m.Recommend(user, listSize, exclude)
			if err != nil {
				errs[row] = fmt.Errorf("recommend user %d: %w", user, err)
				return
			}
			if item, found := lo.Find(list, func(i int) bool { return i < 0 || i >= numItems }); found {
				errs[row] = fmt.Errorf("%w: user %d recommended item %d of %d", dataset.ErrIDOutOfRange, user, item, numItems)
				return
			}
			scores := make([]float64, 0, len(columns))
			scores = append(scores, scoreList(list, relevant[user])...)
			if t.ndcg {
				scores = append(scores, scoreNDCG(list, labels[user])...)
			}
			rows[row] = scores
		})
	}
	pool.Run()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := errors.Join(errs...); err != nil {
		return Result{}, err
	}

	n := float64(len(users))
	values := make([]float64, len(columns))
	parallel.New(t.opts.workers).For(0, len(columns), func(col int) {
		values[col] = lo.SumBy(rows, func(r []float64) float64 { return r[col] }) / n
	})
	return Result{Columns: columns, Values: values}, nil
}

// scoreList returns P@{1,5,10}, R@{1,5,10} and MAP@{5,10} of list. MAP@k
// sums hits/rank over hit positions within k, normalized by
// min(k, |relevant|).
func scoreList(list []int, relevant *roaring.Bitmap) []float64 {
	numRelevant := float64(relevant.GetCardinality())
	var hitsAt [listSize + 1]float64 // hitsAt[k] = hits within the first k
	var ap5, ap10 float64

	hits := 0.0
	for idx := range listSize {
		if idx < len(list) && relevant.Contains(uint32(list[idx])) {
			hits++
			precision := hits / float64(idx+1)
			if idx < 5 {
				ap5 += precision
			}
			ap10 += precision
		}
		hitsAt[idx+1] = hits
	}

	return []float64{
		hitsAt[1] / 1,
		hitsAt[5] / 5,
		hitsAt[10] / 10,
		hitsAt[1] / numRelevant,
		hitsAt[5] / numRelevant,
		hitsAt[10] / numRelevant,
		ap5 / math.Min(5, numRelevant),
		ap10 / math.Min(10, numRelevant),
	}
}

// scoreNDCG returns NDCG@{5,10} of list with gain 2^label-1 and discount
// log2(rank+1). The ideal ranking sorts the validation labels descending.
func scoreNDCG(list []int, labels map[int]float64) []float64 {
	ideal := lo.Values(labels)
	slices.SortFunc(ideal, func(a, b float64) int { return cmp.Compare(b, a) })

	gains := make([]float64, len(list))
	for idx, item := range list {
		gains[idx] = labels[item]
	}
	return []float64{ndcg(gains, ideal, 5), ndcg(gains, ideal, 10)}
}

func ndcg(gains, ideal []float64, k int) float64 {
	idcg := dcg(ideal, k)
	if idcg == 0 {
		return 0
	}
	return dcg(gains, k) / idcg
}

func dcg(rels []float64, k int) float64 {
	total := 0.0
	for idx, rel := range rels[:min(k, len(rels))] {
		total += (math.Exp2(rel) - 1) / math.Log2(float64(idx+2))
	}
	return total
}

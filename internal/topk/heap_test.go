package topk

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeap_PopOrder(t *testing.T) {
	h := New(func(a, b int) bool { return a < b }, 4)
	for _, v := range []int{5, 1, 4, 2, 3} {
		h.Push(v)
	}
	require.Equal(t, 5, h.Len())

	root, ok := h.Peek()
	require.True(t, ok)
	assert.Equal(t, 1, root)

	var got []int
	for h.Len() > 0 {
		v, err := h.Pop()
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)

	_, err := h.Pop()
	require.ErrorIs(t, err, ErrEmpty)
	_, ok = h.Peek()
	assert.False(t, ok)
}

func TestHeap_PushPop(t *testing.T) {
	h := New(func(a, b int) bool { return a < b }, 3)
	h.Push(3)
	h.Push(5)
	h.Push(7)

	t.Run("loses against root", func(t *testing.T) {
		assert.Equal(t, 1, h.PushPop(1))
		assert.Equal(t, 3, h.Len())
	})

	t.Run("replaces root", func(t *testing.T) {
		assert.Equal(t, 3, h.PushPop(6))
		root, _ := h.Peek()
		assert.Equal(t, 5, root)
	})

	t.Run("empty heap", func(t *testing.T) {
		e := New(func(a, b int) bool { return a < b }, 0)
		assert.Equal(t, 9, e.PushPop(9))
		assert.Equal(t, 0, e.Len())
	})
}

func TestHeap_Sorted(t *testing.T) {
	h := New(func(a, b int) bool { return a < b }, 8)
	for _, v := range []int{4, 8, 1, 6, 2} {
		h.Push(v)
	}
	assert.Equal(t, []int{8, 6, 4, 2, 1}, h.Sorted())
	assert.Equal(t, 0, h.Len())
}

func TestHeap_Items(t *testing.T) {
	h := New(func(a, b int) bool { return a < b }, 3)
	h.Push(2)
	h.Push(1)
	items := h.Items()
	assert.ElementsMatch(t, []int{1, 2}, items)
	assert.Equal(t, 0, h.Len())
}

func TestTopK(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	scores := make([]float64, 200)
	for i := range scores {
		scores[i] = rng.Float64()
	}

	for _, k := range []int{1, 5, 10, 50} {
		top := NewTopK(k, HigherScore)
		for i, s := range scores {
			top.Offer(Scored{ID: i, Score: s})
		}
		got := top.Sorted()
		require.Len(t, got, k)
		for i := 1; i < len(got); i++ {
			assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
		}

		want := slices.Clone(scores)
		slices.Sort(want)
		slices.Reverse(want)
		for i := range got {
			assert.Equal(t, want[i], got[i].Score)
		}
	}

	t.Run("fewer than k", func(t *testing.T) {
		top := NewTopK(10, HigherScore)
		top.Offer(Scored{ID: 1, Score: 0.5})
		top.Offer(Scored{ID: 2, Score: 0.9})
		worst, ok := top.Worst()
		require.True(t, ok)
		assert.Equal(t, 1, worst.ID)
		assert.Equal(t, []Scored{{2, 0.9}, {1, 0.5}}, top.Sorted())
	})

	t.Run("zero k", func(t *testing.T) {
		top := NewTopK(0, HigherScore)
		top.Offer(Scored{ID: 1, Score: 1})
		assert.Equal(t, 0, top.Len())
	})
}

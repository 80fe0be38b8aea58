package topk

// TopK keeps the k best elements seen so far. Its root is the worst kept
// element, so a new candidate only has to beat the root.
type TopK[T any] struct {
	heap *Heap[T]
	k    int
}

// NewTopK creates a selector keeping k elements. better(a, b) reports
// whether a should be preferred over b.
func NewTopK[T any](k int, better func(a, b T) bool) *TopK[T] {
	return &TopK[T]{
		heap: New(func(a, b T) bool { return better(b, a) }, k),
		k:    k,
	}
}

// Offer considers x for the kept set.
func (t *TopK[T]) Offer(x T) {
	if t.k <= 0 {
		return
	}
	if t.heap.Len() < t.k {
		t.heap.Push(x)
		return
	}
	t.heap.PushPop(x)
}

// Len returns the number of kept elements.
func (t *TopK[T]) Len() int { return t.heap.Len() }

// Worst returns the root, the weakest kept element.
func (t *TopK[T]) Worst() (T, bool) { return t.heap.Peek() }

// Sorted returns the kept elements best first and empties the selector.
func (t *TopK[T]) Sorted() []T { return t.heap.Sorted() }

// Scored pairs an id with a score; higher scores win.
type Scored struct {
	ID    int
	Score float64
}

// HigherScore orders Scored values by descending score.
func HigherScore(a, b Scored) bool { return a.Score > b.Score }

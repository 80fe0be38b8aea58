// Package topk implements a generic binary heap and a bounded top-K selector.
package topk

import "errors"

// ErrEmpty is returned when popping an empty heap.
var ErrEmpty = errors.New("topk: heap is empty")

// Heap is a binary heap ordered by less. The root is the element e for which
// less(e, x) holds against every other x.
// It does NOT implement container/heap to avoid interface overhead.
type Heap[T any] struct {
	less  func(a, b T) bool
	items []T
}

// New creates a heap with room for capacity elements.
func New[T any](less func(a, b T) bool, capacity int) *Heap[T] {
	return &Heap[T]{
		less:  less,
		items: make([]T, 0, max(capacity, 0)),
	}
}

// Len returns the number of elements.
func (h *Heap[T]) Len() int { return len(h.items) }

// Push inserts x.
func (h *Heap[T]) Push(x T) {
	h.items = append(h.items, x)
	h.siftUp(len(h.items) - 1)
}

// Peek returns the root without removing it.
func (h *Heap[T]) Peek() (T, bool) {
	if len(h.items) == 0 {
		var zero T
		return zero, false
	}
	return h.items[0], true
}

// Pop removes and returns the root.
func (h *Heap[T]) Pop() (T, error) {
	n := len(h.items)
	if n == 0 {
		var zero T
		return zero, ErrEmpty
	}
	root := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.siftDown(0, len(h.items))
	}
	return root, nil
}

// PushPop offers x against the root. When the root orders before x, x takes
// its place and the old root is returned; otherwise x is returned unchanged.
func (h *Heap[T]) PushPop(x T) T {
	if len(h.items) == 0 || !h.less(h.items[0], x) {
		return x
	}
	root := h.items[0]
	h.items[0] = x
	h.siftDown(0, len(h.items))
	return root
}

// Sorted heap-sorts in place and returns the elements from the last one Pop
// would yield to the first. The heap is empty afterwards.
func (h *Heap[T]) Sorted() []T {
	items := h.items
	for end := len(items) - 1; end > 0; end-- {
		items[0], items[end] = items[end], items[0]
		h.siftDown(0, end)
	}
	h.items = nil
	return items
}

// Items returns the elements in heap order. The heap is empty afterwards.
func (h *Heap[T]) Items() []T {
	items := h.items
	h.items = nil
	return items
}

func (h *Heap[T]) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !h.less(h.items[i], h.items[parent]) {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

// siftDown restores the heap property for items[:n] below i.
func (h *Heap[T]) siftDown(i, n int) {
	for {
		left := 2*i + 1
		if left >= n {
			break
		}
		child := left
		if right := left + 1; right < n && h.less(h.items[right], h.items[left]) {
			child = right
		}
		if !h.less(h.items[child], h.items[i]) {
			break
		}
		h.items[i], h.items[child] = h.items[child], h.items[i]
		i = child
	}
}

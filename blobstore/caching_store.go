package blobstore

import (
	"container/list"
	"context"
	"slices"
	"sync"
	"sync/atomic"
)

// CachingStore wraps a BlobStore and keeps recently read blobs in an LRU
// bounded by total bytes. Writes and deletes go through to the inner store
// and invalidate the cached copy.
type CachingStore struct {
	inner BlobStore

	mu        sync.Mutex
	capacity  int64
	size      int64
	items     map[string]*list.Element
	evictList *list.List

	hits   atomic.Int64
	misses atomic.Int64
}

type entry struct {
	name  string
	value []byte
}

// NewCachingStore creates a new CachingStore holding at most capacity
// bytes of blob content. Blobs larger than capacity are never cached.
func NewCachingStore(inner BlobStore, capacity int64) *CachingStore {
	return &CachingStore{
		inner:     inner,
		capacity:  capacity,
		items:     make(map[string]*list.Element),
		evictList: list.New(),
	}
}

// Put writes through and drops the cached copy.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.invalidate(name)
	return s.inner.Put(ctx, name, data)
}

// Get serves from the cache and falls back to the inner store.
func (s *CachingStore) Get(ctx context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	if ent, ok := s.items[name]; ok {
		s.hits.Add(1)
		s.evictList.MoveToFront(ent)
		data := slices.Clone(ent.Value.(*entry).value)
		s.mu.Unlock()
		return data, nil
	}
	s.mu.Unlock()
	s.misses.Add(1)

	data, err := s.inner.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	s.set(name, slices.Clone(data))
	return data, nil
}

// Delete removes the blob from both the cache and the inner store.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

// List is not cached.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Stats returns cache hit and miss counts.
func (s *CachingStore) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

// Size returns the number of cached bytes.
func (s *CachingStore) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

func (s *CachingStore) set(name string, b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	itemSize := int64(len(b))
	if itemSize > s.capacity {
		return
	}
	if ent, ok := s.items[name]; ok {
		s.removeElement(ent)
	}
	for s.size+itemSize > s.capacity {
		ent := s.evictList.Back()
		if ent == nil {
			break
		}
		s.removeElement(ent)
	}
	s.items[name] = s.evictList.PushFront(&entry{name: name, value: b})
	s.size += itemSize
}

func (s *CachingStore) invalidate(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ent, ok := s.items[name]; ok {
		s.removeElement(ent)
	}
}

func (s *CachingStore) removeElement(e *list.Element) {
	s.evictList.Remove(e)
	kv := e.Value.(*entry)
	delete(s.items, kv.name)
	s.size -= int64(len(kv.value))
}

package redis

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/hupe1980/recgo/blobstore"
	"github.com/redis/go-redis/v9"
)

// scanCount is the COUNT hint passed to SCAN.
const scanCount = 256

// Store implements blobstore.BlobStore on Redis strings.
// Every blob is stored under prefix+name.
type Store struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ blobstore.BlobStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithPrefix namespaces all keys.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// WithTTL expires blobs after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// NewStore wraps an existing client.
func NewStore(client redis.UniversalClient, optFns ...Option) *Store {
	s := &Store{client: client}
	for _, fn := range optFns {
		fn(s)
	}
	return s
}

// Dial connects to a single Redis server and pings it.
func Dial(ctx context.Context, addr string, db int, optFns ...Option) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewStore(client, optFns...), nil
}

func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	return s.client.Set(ctx, s.prefix+name, data, s.ttl).Err()
}

func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.prefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, blobstore.ErrNotFound
	}
	return val, err
}

func (s *Store) Delete(ctx context.Context, name string) error {
	return s.client.Del(ctx, s.prefix+name).Err()
}

// List scans the keyspace with a glob on the escaped prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	iter := s.client.Scan(ctx, 0, escapeGlob(s.prefix+prefix)+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		names = append(names, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	// SCAN may return a key more than once.
	sort.Strings(names)
	return compact(names), nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func compact(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}

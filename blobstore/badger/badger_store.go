package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/hupe1980/recgo/blobstore"
)

// Store implements blobstore.BlobStore on an embedded Badger database.
type Store struct {
	db    *badger.DB
	owned bool
}

var _ blobstore.BlobStore = (*Store)(nil)

// NewStore wraps an open database. Close does not close db.
func NewStore(db *badger.DB) *Store {
	return &Store{db: db}
}

// Open opens (or creates) a database in dir.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	return open(badger.DefaultOptions(dir), logger)
}

// OpenInMemory opens a database that lives only in memory.
func OpenInMemory(logger *slog.Logger) (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), logger)
}

func open(opts badger.Options, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	db, err := badger.Open(opts.WithLogger(badgerLogger{logger}))
	if err != nil {
		return nil, fmt.Errorf("badger: open: %w", err)
	}
	return &Store{db: db, owned: true}, nil
}

func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(name), data)
	})
}

func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return blobstore.ErrNotFound
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(name))
	})
}

// List iterates keys only; Badger keeps them sorted.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			names = append(names, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Close closes the database if the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}

// badgerLogger routes Badger's printf-style logs to slog.
type badgerLogger struct {
	l *slog.Logger
}

func (b badgerLogger) Errorf(format string, args ...any) {
	b.l.Error(fmt.Sprintf(format, args...))
}

func (b badgerLogger) Warningf(format string, args ...any) {
	b.l.Warn(fmt.Sprintf(format, args...))
}

func (b badgerLogger) Infof(format string, args ...any) {
	b.l.Debug(fmt.Sprintf(format, args...))
}

func (b badgerLogger) Debugf(format string, args ...any) {
	b.l.Debug(fmt.Sprintf(format, args...))
}

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hupe1980/recgo/blobstore"
	badgerstore "github.com/hupe1980/recgo/blobstore/badger"
	miniostore "github.com/hupe1980/recgo/blobstore/minio"
	redisstore "github.com/hupe1980/recgo/blobstore/redis"
	s3store "github.com/hupe1980/recgo/blobstore/s3"
	"github.com/hupe1980/recgo/config"
)

// openStore builds the configured snapshot backend and wraps it in the
// throttling and caching layers when they are enabled. The returned
// function releases the backend.
func openStore(ctx context.Context, cfg config.SnapshotConfig, logger *slog.Logger) (blobstore.BlobStore, func() error, error) {
	noop := func() error { return nil }

	var (
		store     blobstore.BlobStore
		closeFunc = noop
	)
	switch cfg.Store {
	case "memory":
		store = blobstore.NewMemoryStore()
	case "local":
		store = blobstore.NewLocalStore(cfg.Path)
	case "s3":
		opts := []s3store.Option{s3store.WithPrefix(cfg.Prefix)}
		if cfg.Region != "" {
			opts = append(opts, s3store.WithRegion(cfg.Region))
		}
		s, err := s3store.New(ctx, cfg.Bucket, opts...)
		if err != nil {
			return nil, nil, err
		}
		store = s
	case "minio":
		s, err := miniostore.Dial(ctx, cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, cfg.Bucket, cfg.Prefix, cfg.Secure)
		if err != nil {
			return nil, nil, err
		}
		store = s
	case "redis":
		s, err := redisstore.Dial(ctx, cfg.Endpoint, 0, redisstore.WithPrefix(cfg.Prefix))
		if err != nil {
			return nil, nil, err
		}
		store, closeFunc = s, s.Close
	case "badger":
		s, err := badgerstore.Open(cfg.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		store, closeFunc = s, s.Close
	default:
		return nil, nil, fmt.Errorf("unknown snapshot store %q", cfg.Store)
	}

	if cfg.MaxConcurrent > 0 || cfg.BytesPerSec > 0 {
		store = blobstore.NewThrottled(store, cfg.MaxConcurrent, cfg.BytesPerSec)
	}
	if cfg.CacheBytes > 0 {
		store = blobstore.NewCachingStore(store, cfg.CacheBytes)
	}
	return store, closeFunc, nil
}

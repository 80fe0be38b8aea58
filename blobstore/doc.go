// Package blobstore provides the storage abstraction for recgo snapshots.
//
// BlobStore reads and writes whole blobs under flat, slash-separated names.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem with atomic rename
//   - MemoryStore: in-memory, for tests
//   - s3.Store: Amazon S3 with multipart uploads
//   - minio.Store: MinIO or any S3-compatible endpoint
//   - redis.Store: Redis strings
//   - badger.Store: embedded Badger key-value store
//
// # Wrappers
//
//   - CachingStore: read-through LRU bounded by bytes
//   - Throttled: concurrency and byte-rate limits
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Put(ctx, name, data) error
//	    Get(ctx, name) ([]byte, error)
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore

package blobstore

import (
	"context"
	"os"
	"strings"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore stores whole blobs (snapshots, datasets) under flat names.
// Implementations must be safe for concurrent use.
type BlobStore interface {
	// Put writes a blob, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error
	// Get returns the content of a blob.
	Get(ctx context.Context, name string) ([]byte, error)
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

func hasPrefix(name, prefix string) bool {
	return prefix == "" || strings.HasPrefix(name, prefix)
}

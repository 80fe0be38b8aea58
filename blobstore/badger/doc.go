// Package badger provides a BlobStore backed by an embedded Badger database.
package badger

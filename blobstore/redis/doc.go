// Package redis provides a BlobStore backed by Redis strings.
package redis

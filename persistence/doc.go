// Package persistence saves datasets and trained models to a blob store.
//
// Every blob is a self-describing envelope:
//
//	magic "RCGO" | version u8 | compression u8 | codec-name len u8 | codec name | payload | crc32 u32le
//
// The payload is the codec encoding of a [dataset.Snapshot] or
// [model.Snapshot], optionally compressed with zstd or lz4. The trailing
// CRC32 (Castagnoli) covers all preceding bytes.
package persistence

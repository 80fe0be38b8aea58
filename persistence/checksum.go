package persistence

import (
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
)

// The envelope trailer is a CRC32 (Castagnoli) over every byte before it.
// It catches torn writes and bit rot in a blob store; it is not a MAC.
var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// CalculateChecksum returns the trailer value for an envelope body.
func CalculateChecksum(body []byte) uint32 {
	return crc32.Checksum(body, castagnoli)
}

// ChecksumWriter tees envelope bytes into w and the running trailer value.
type ChecksumWriter struct {
	w   io.Writer
	crc hash.Hash32
}

// NewChecksumWriter wraps w.
func NewChecksumWriter(w io.Writer) *ChecksumWriter {
	return &ChecksumWriter{w: w, crc: crc32.New(castagnoli)}
}

func (cw *ChecksumWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.crc.Write(p[:n])
	return n, err
}

// Sum is the trailer value for everything written so far.
func (cw *ChecksumWriter) Sum() uint32 { return cw.crc.Sum32() }

// ChecksumMismatchError reports a trailer that does not match the body.
type ChecksumMismatchError struct {
	Stored   uint32
	Computed uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("persistence: envelope checksum %08x, body hashes to %08x", e.Stored, e.Computed)
}

// IsChecksumMismatch reports whether err wraps a *ChecksumMismatchError.
func IsChecksumMismatch(err error) bool {
	var e *ChecksumMismatchError
	return errors.As(err, &e)
}

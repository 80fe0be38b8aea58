package persistence

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/recgo/codec"
)

const (
	// Magic identifies recgo snapshot blobs.
	Magic = "RCGO"
	// Version is the current envelope version.
	Version uint8 = 1

	checksumSize = 4
	// magic + version + compression + codec-name length
	fixedHeaderSize = len(Magic) + 3
)

var (
	ErrBadMagic           = errors.New("persistence: bad magic")
	ErrUnsupportedVersion = errors.New("persistence: unsupported version")
	ErrUnknownCodec       = errors.New("persistence: unknown codec")
	ErrUnknownCompression = errors.New("persistence: unknown compression")
	ErrTruncated          = errors.New("persistence: truncated envelope")
)

// Compression selects the payload compression.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression parses "none", "zstd" or "lz4".
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "none", "":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCompression, s)
	}
}

// Header describes an envelope.
type Header struct {
	Version     uint8
	Compression Compression
	Codec       string
	// PayloadSize is the size of the stored (possibly compressed) payload.
	PayloadSize int
}

// Encode marshals v with c and wraps it in an envelope. When compression
// does not shrink the payload it is stored uncompressed.
func Encode(v any, c codec.Codec, comp Compression) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	name := c.Name()
	if len(name) > 255 {
		return nil, fmt.Errorf("%w: name too long", ErrUnknownCodec)
	}
	raw, err := c.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("persistence: marshal with %s: %w", name, err)
	}
	payload, comp, err := compress(raw, comp)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(fixedHeaderSize + len(name) + len(payload) + checksumSize)
	cw := NewChecksumWriter(&buf)
	_, _ = cw.Write([]byte(Magic))
	_, _ = cw.Write([]byte{Version, byte(comp), byte(len(name))})
	_, _ = cw.Write([]byte(name))
	_, _ = cw.Write(payload)
	buf.Write(binary.LittleEndian.AppendUint32(nil, cw.Sum()))
	return buf.Bytes(), nil
}

// Inspect validates the envelope and returns its header and stored payload.
func Inspect(data []byte) (Header, []byte, error) {
	if len(data) < fixedHeaderSize+checksumSize {
		return Header{}, nil, ErrTruncated
	}
	if string(data[:len(Magic)]) != Magic {
		return Header{}, nil, ErrBadMagic
	}
	body := data[:len(data)-checksumSize]
	want := binary.LittleEndian.Uint32(data[len(body):])
	if got := CalculateChecksum(body); got != want {
		return Header{}, nil, &ChecksumMismatchError{Stored: want, Computed: got}
	}

	h := Header{
		Version:     body[len(Magic)],
		Compression: Compression(body[len(Magic)+1]),
	}
	if h.Version != Version {
		return Header{}, nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	nameLen := int(body[len(Magic)+2])
	if len(body) < fixedHeaderSize+nameLen {
		return Header{}, nil, ErrTruncated
	}
	h.Codec = string(body[fixedHeaderSize : fixedHeaderSize+nameLen])
	payload := body[fixedHeaderSize+nameLen:]
	h.PayloadSize = len(payload)
	return h, payload, nil
}

// Decode reverses Encode, unmarshaling the payload into v.
func Decode(data []byte, v any) (Header, error) {
	h, payload, err := Inspect(data)
	if err != nil {
		return Header{}, err
	}
	c, ok := codec.ByName(h.Codec)
	if !ok {
		return Header{}, fmt.Errorf("%w: %q", ErrUnknownCodec, h.Codec)
	}
	raw, err := decompress(payload, h.Compression)
	if err != nil {
		return Header{}, err
	}
	if err := c.Unmarshal(raw, v); err != nil {
		return Header{}, fmt.Errorf("persistence: unmarshal with %s: %w", h.Codec, err)
	}
	return h, nil
}

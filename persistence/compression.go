package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// lz4 payloads carry the uncompressed size in front of the block.
const lz4SizePrefix = 4

var errSizeMismatch = errors.New("persistence: decompressed size mismatch")

// compress returns the stored payload and the compression actually used.
func compress(data []byte, comp Compression) ([]byte, Compression, error) {
	switch comp {
	case CompressionNone:
		return data, CompressionNone, nil
	case CompressionZstd:
		enc := getZstdEncoder()
		defer putZstdEncoder(enc)
		out := enc.EncodeAll(data, nil)
		if len(out) >= len(data) {
			return data, CompressionNone, nil
		}
		return out, CompressionZstd, nil
	case CompressionLZ4:
		out := make([]byte, lz4SizePrefix+lz4.CompressBlockBound(len(data)))
		binary.LittleEndian.PutUint32(out, uint32(len(data)))
		n, err := lz4.CompressBlock(data, out[lz4SizePrefix:], nil)
		if err != nil {
			return nil, 0, fmt.Errorf("persistence: lz4: %w", err)
		}
		// Incompressible
		if n == 0 || lz4SizePrefix+n >= len(data) {
			return data, CompressionNone, nil
		}
		return out[:lz4SizePrefix+n], CompressionLZ4, nil
	default:
		return nil, 0, fmt.Errorf("%w: %s", ErrUnknownCompression, comp)
	}
}

func decompress(data []byte, comp Compression) ([]byte, error) {
	switch comp {
	case CompressionNone:
		return data, nil
	case CompressionZstd:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)
		out, err := dec.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("persistence: zstd: %w", err)
		}
		return out, nil
	case CompressionLZ4:
		if len(data) < lz4SizePrefix {
			return nil, ErrTruncated
		}
		size := binary.LittleEndian.Uint32(data)
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(data[lz4SizePrefix:], out)
		if err != nil {
			return nil, fmt.Errorf("persistence: lz4: %w", err)
		}
		if uint32(n) != size {
			return nil, errSizeMismatch
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCompression, comp)
	}
}

package persistence

import (
	"context"
	"fmt"

	"github.com/hupe1980/recgo/blobstore"
	"github.com/hupe1980/recgo/codec"
	"github.com/hupe1980/recgo/dataset"
	"github.com/hupe1980/recgo/model"
)

type options struct {
	codec       codec.Codec
	compression Compression
}

// Option configures how snapshots are encoded.
type Option func(*options)

// WithCodec selects the payload codec. Default: codec.Default.
func WithCodec(c codec.Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithCompression selects the payload compression. Default: zstd.
func WithCompression(c Compression) Option {
	return func(o *options) { o.compression = c }
}

func buildOptions(optFns []Option) options {
	o := options{codec: codec.Default, compression: CompressionZstd}
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

// SaveDataset stores ds and its schema under name and returns the number
// of bytes written.
func SaveDataset(ctx context.Context, store blobstore.BlobStore, name string, ds *dataset.Dataset, optFns ...Option) (int, error) {
	o := buildOptions(optFns)
	data, err := Encode(ds.Snapshot(), o.codec, o.compression)
	if err != nil {
		return 0, fmt.Errorf("save dataset %s: %w", name, err)
	}
	if err := store.Put(ctx, name, data); err != nil {
		return 0, fmt.Errorf("save dataset %s: %w", name, err)
	}
	return len(data), nil
}

// LoadDataset reads a dataset saved with SaveDataset. The returned dataset
// owns a fresh finalized schema.
func LoadDataset(ctx context.Context, store blobstore.BlobStore, name string) (*dataset.Dataset, error) {
	data, err := store.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", name, err)
	}
	var s dataset.Snapshot
	if _, err := Decode(data, &s); err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", name, err)
	}
	ds, err := dataset.FromSnapshot(&s)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", name, err)
	}
	return ds, nil
}

// SaveModel exports a trained model and stores it under name. Only models
// supported by model.Export can be saved.
func SaveModel(ctx context.Context, store blobstore.BlobStore, name string, m model.Model, optFns ...Option) (int, error) {
	s, err := model.Export(m)
	if err != nil {
		return 0, fmt.Errorf("save model %s: %w", name, err)
	}
	o := buildOptions(optFns)
	data, err := Encode(s, o.codec, o.compression)
	if err != nil {
		return 0, fmt.Errorf("save model %s: %w", name, err)
	}
	if err := store.Put(ctx, name, data); err != nil {
		return 0, fmt.Errorf("save model %s: %w", name, err)
	}
	return len(data), nil
}

// LoadModel reads a model saved with SaveModel. The restored model serves
// Predict and Recommend.
func LoadModel(ctx context.Context, store blobstore.BlobStore, name string) (model.Model, error) {
	data, err := store.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", name, err)
	}
	var s model.Snapshot
	if _, err := Decode(data, &s); err != nil {
		return nil, fmt.Errorf("load model %s: %w", name, err)
	}
	m, err := model.Restore(&s)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", name, err)
	}
	return m, nil
}

// Package config loads the recgo command configuration.
//
// Sources are layered, later ones winning:
//
//  1. built-in defaults
//  2. an optional YAML file
//  3. environment variables prefixed with RECGO_
//
// Environment names map to keys by dropping the prefix, lower-casing and
// turning the first underscore into a section separator:
// RECGO_SOLVER_MAX_ITERATIONS sets solver.max_iterations.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hupe1980/recgo/codec"
	"github.com/hupe1980/recgo/dataset"
	"github.com/hupe1980/recgo/evaluation"
	"github.com/hupe1980/recgo/loss"
	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/persistence"
)

// Config is the complete command configuration.
type Config struct {
	Data       DataConfig       `koanf:"data"`
	Model      ModelConfig      `koanf:"model"`
	Solver     SolverConfig     `koanf:"solver"`
	Evaluation EvaluationConfig `koanf:"evaluation"`
	Snapshot   SnapshotConfig   `koanf:"snapshot"`
	Log        LogConfig        `koanf:"log"`
	Metrics    MetricsConfig    `koanf:"metrics"`
}

// ColumnConfig declares one input column.
type ColumnConfig struct {
	Name string `koanf:"name" validate:"required"`
	Kind string `koanf:"kind" validate:"omitempty,oneof=dense sparse_valued sparse sparse_binary binary"`
	Role string `koanf:"role" validate:"oneof=group label skip"`
}

// DataConfig describes the input files and the split.
type DataConfig struct {
	Train      string         `koanf:"train"`
	Test       string         `koanf:"test"`
	Columns    []ColumnConfig `koanf:"columns" validate:"min=1,dive"`
	Delimiter  string         `koanf:"delimiter"`
	SkipHeader bool           `koanf:"skip_header"`
	Filter     string         `koanf:"filter"`
	SplitRatio float64        `koanf:"split_ratio" validate:"gt=0,lt=1"`
	SplitGroup int            `koanf:"split_group" validate:"gte=0"`
	Seed       uint64         `koanf:"seed"`
}

// ModelConfig selects the method and its hyperparameters.
type ModelConfig struct {
	Method     string  `koanf:"method" validate:"oneof=popularity pmf bpr warp als itemcf usercf fm cdae"`
	Dim        int     `koanf:"dim" validate:"gt=0"`
	Lambda     float64 `koanf:"lambda" validate:"gte=0"`
	LearnRate  float64 `koanf:"learn_rate" validate:"gt=0"`
	Beta       float64 `koanf:"beta" validate:"gte=0"`
	NumNeg     int     `koanf:"num_neg" validate:"gte=0"`
	Loss       string  `koanf:"loss" validate:"omitempty,oneof=square logistic log hinge squared_hinge cross_entropy logm"`
	Penalty    string  `koanf:"penalty" validate:"omitempty,oneof=l1 l2"`
	UseBias    bool    `koanf:"use_bias"`
	UseAdaGrad bool    `koanf:"use_adagrad"`
	Similarity string  `koanf:"similarity" validate:"oneof=jaccard cosine"`
	Neighbors  int     `koanf:"neighbors" validate:"gte=0"`
	Corruption float64 `koanf:"corruption_ratio" validate:"gte=0,lt=1"`
	Seed       uint64  `koanf:"seed"`
	UserGroup  int     `koanf:"user_group" validate:"gte=0"`
	ItemGroup  int     `koanf:"item_group" validate:"gte=0,nefield=UserGroup"`
}

// SolverConfig drives the training loop.
type SolverConfig struct {
	MaxIterations  int     `koanf:"max_iterations" validate:"gte=0"`
	EvalIterations int     `koanf:"eval_iterations" validate:"gt=0"`
	SGD            bool    `koanf:"sgd"`
	LearnRate      float64 `koanf:"learn_rate" validate:"gt=0"`
	Decay          bool    `koanf:"decay"`
	SampleSize     int     `koanf:"sample_size" validate:"gte=0"`
	Workers        int     `koanf:"workers" validate:"gte=0"`
}

// EvaluationConfig lists the metrics evaluated during training.
type EvaluationConfig struct {
	Metrics []string `koanf:"metrics" validate:"dive,oneof=rmse mae topn ranking"`
}

// SnapshotConfig selects where the trained model is saved.
type SnapshotConfig struct {
	Store       string `koanf:"store" validate:"oneof=none local memory s3 minio redis badger"`
	Path        string `koanf:"path"`
	Bucket      string `koanf:"bucket"`
	Endpoint    string `koanf:"endpoint"`
	Region      string `koanf:"region"`
	AccessKey   string `koanf:"access_key"`
	SecretKey   string `koanf:"secret_key"`
	Secure      bool   `koanf:"secure"`
	Prefix      string `koanf:"prefix"`
	Name        string `koanf:"name"`
	Codec       string `koanf:"codec" validate:"oneof=json go-json"`
	Compression string `koanf:"compression" validate:"oneof=none zstd lz4"`

	MaxConcurrent int64 `koanf:"max_concurrent" validate:"gte=0"`
	BytesPerSec   int   `koanf:"bytes_per_sec" validate:"gte=0"`
	CacheBytes    int64 `koanf:"cache_bytes" validate:"gte=0"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// MetricsConfig configures the Prometheus endpoint. An empty address
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" validate:"omitempty,hostname_port"`
}

// Default returns the built-in defaults.
func Default() *Config {
	mc := model.DefaultConfig()
	return &Config{
		Data: DataConfig{
			Columns: []ColumnConfig{
				{Name: "user", Kind: "sparse_binary", Role: "group"},
				{Name: "item", Kind: "sparse_binary", Role: "group"},
				{Name: "rating", Role: "label"},
			},
			SplitRatio: 0.2,
			SplitGroup: 0,
			Seed:       1,
		},
		Model: ModelConfig{
			Method:     model.MethodPMF.String(),
			Dim:        mc.Dim,
			Lambda:     mc.Lambda,
			LearnRate:  mc.LearnRate,
			Beta:       mc.Beta,
			NumNeg:     mc.NumNeg,
			UseBias:    mc.UseBias,
			UseAdaGrad: mc.UseAdaGrad,
			Similarity: mc.Similarity.String(),
			Neighbors:  mc.Neighbors,
			Corruption: mc.CorruptionRatio,
			Seed:       mc.Seed,
			UserGroup:  0,
			ItemGroup:  1,
		},
		Solver: SolverConfig{
			MaxIterations:  10,
			EvalIterations: 1,
			LearnRate:      0.1,
		},
		Evaluation: EvaluationConfig{
			Metrics: []string{"rmse", "topn"},
		},
		Snapshot: SnapshotConfig{
			Store:       "none",
			Name:        "models/model.snap",
			Codec:       codec.Default.Name(),
			Compression: persistence.CompressionZstd.String(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	var errs []error
	if c.Data.Train == "" {
		errs = append(errs, errors.New("data.train is required"))
	}
	labels := 0
	for _, col := range c.Data.Columns {
		if col.Role == "label" {
			labels++
		}
	}
	if labels > 1 {
		errs = append(errs, fmt.Errorf("data.columns: %d label columns, want at most 1", labels))
	}
	s := c.Snapshot
	switch s.Store {
	case "local", "badger":
		if s.Path == "" {
			errs = append(errs, fmt.Errorf("snapshot.path is required for store %q", s.Store))
		}
	case "s3":
		if s.Bucket == "" {
			errs = append(errs, errors.New("snapshot.bucket is required for store \"s3\""))
		}
	case "minio":
		if s.Bucket == "" || s.Endpoint == "" {
			errs = append(errs, errors.New("snapshot.bucket and snapshot.endpoint are required for store \"minio\""))
		}
	case "redis":
		if s.Endpoint == "" {
			errs = append(errs, errors.New("snapshot.endpoint is required for store \"redis\""))
		}
	}
	if s.Store != "none" && s.Name == "" {
		errs = append(errs, errors.New("snapshot.name is required"))
	}
	return errors.Join(errs...)
}

// LoaderColumns converts the column declarations.
func (d DataConfig) LoaderColumns() ([]dataset.Column, error) {
	cols := make([]dataset.Column, len(d.Columns))
	for i, c := range d.Columns {
		col := dataset.Column{Name: c.Name}
		switch c.Role {
		case "group":
			col.Role = dataset.RoleGroup
			kind, err := dataset.ParseKind(c.Kind)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", c.Name, err)
			}
			col.Kind = kind
		case "label":
			col.Role = dataset.RoleLabel
		default:
			col.Role = dataset.RoleSkip
		}
		cols[i] = col
	}
	return cols, nil
}

// LoaderOptions converts delimiter, header and filter settings.
func (d DataConfig) LoaderOptions(logger *slog.Logger) ([]dataset.LoaderOption, error) {
	opts := []dataset.LoaderOption{
		dataset.WithDelimiter(d.Delimiter),
		dataset.WithSkipHeader(d.SkipHeader),
	}
	if logger != nil {
		opts = append(opts, dataset.WithLoaderLogger(logger))
	}
	if strings.TrimSpace(d.Filter) != "" {
		f, err := dataset.NewFilter(d.Filter)
		if err != nil {
			return nil, err
		}
		opts = append(opts, dataset.WithFilter(f))
	}
	return opts, nil
}

// Build returns the method and its model configuration. Loss and penalty
// fall back to the method's customary defaults when unset.
func (m ModelConfig) Build(workers int) (model.Method, model.Config, error) {
	method, err := model.ParseMethod(m.Method)
	if err != nil {
		return 0, model.Config{}, err
	}
	cfg := model.DefaultConfigFor(method)
	cfg.Dim = m.Dim
	cfg.Lambda = m.Lambda
	cfg.LearnRate = m.LearnRate
	cfg.Beta = m.Beta
	cfg.NumNeg = m.NumNeg
	cfg.UseBias = m.UseBias
	cfg.UseAdaGrad = m.UseAdaGrad
	cfg.Neighbors = m.Neighbors
	cfg.CorruptionRatio = m.Corruption
	cfg.Seed = m.Seed
	cfg.Workers = workers
	cfg.UserGroup = m.UserGroup
	cfg.ItemGroup = m.ItemGroup
	if cfg.Similarity, err = model.ParseSimilarity(m.Similarity); err != nil {
		return 0, model.Config{}, err
	}
	if m.Loss != "" {
		if cfg.Loss, err = loss.ParseKind(m.Loss); err != nil {
			return 0, model.Config{}, err
		}
	}
	if m.Penalty != "" {
		if cfg.Penalty, err = loss.ParsePenalty(m.Penalty); err != nil {
			return 0, model.Config{}, err
		}
	}
	return method, cfg, nil
}

// Kinds parses the metric names.
func (e EvaluationConfig) Kinds() ([]evaluation.Kind, error) {
	kinds := make([]evaluation.Kind, 0, len(e.Metrics))
	for _, name := range e.Metrics {
		k, err := evaluation.ParseKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// PersistenceOptions returns the codec and compression options.
func (s SnapshotConfig) PersistenceOptions() ([]persistence.Option, error) {
	c, ok := codec.ByName(s.Codec)
	if !ok {
		return nil, fmt.Errorf("%w: %q", persistence.ErrUnknownCodec, s.Codec)
	}
	comp, err := persistence.ParseCompression(s.Compression)
	if err != nil {
		return nil, err
	}
	return []persistence.Option{persistence.WithCodec(c), persistence.WithCompression(comp)}, nil
}

// SlogLevel returns the configured level.
func (l LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Role tells the loader what a column holds.
type Role uint8

const (
	// RoleGroup columns become feature groups.
	RoleGroup Role = iota
	// RoleLabel is the single label column.
	RoleLabel
	// RoleSkip columns are ignored.
	RoleSkip
)

// Column declares one field of an input line.
type Column struct {
	Name string
	Kind Kind
	Role Role
}

// LineParser splits one input line into fields. Returning no fields skips the line.
type LineParser func(line string) []string

// RecsysColumns is the classic "user item rating" layout with two binary groups.
func RecsysColumns() []Column {
	return []Column{
		{Name: "user", Kind: SparseBinary, Role: RoleGroup},
		{Name: "item", Kind: SparseBinary, Role: RoleGroup},
		{Name: "rating", Role: RoleLabel},
	}
}

type loaderOptions struct {
	delimiter      string
	valueSeparator string
	parser         LineParser
	skipHeader     bool
	filter         *Filter
	logger         *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*loaderOptions)

// WithDelimiter sets the field delimiter. An empty delimiter splits on whitespace.
func WithDelimiter(delim string) LoaderOption {
	return func(o *loaderOptions) { o.delimiter = delim }
}

// WithValueSeparator sets the separator between entries inside one field
// (dense values, sparse keys). Defaults to ";".
func WithValueSeparator(sep string) LoaderOption {
	return func(o *loaderOptions) { o.valueSeparator = sep }
}

// WithParser replaces the delimiter-based line parser.
func WithParser(p LineParser) LoaderOption {
	return func(o *loaderOptions) { o.parser = p }
}

// WithSkipHeader skips the first line of every input.
func WithSkipHeader(skip bool) LoaderOption {
	return func(o *loaderOptions) { o.skipHeader = skip }
}

// WithFilter drops lines for which f evaluates to false.
func WithFilter(f *Filter) LoaderOption {
	return func(o *loaderOptions) { o.filter = f }
}

// WithLoaderLogger sets the logger used for load summaries.
func WithLoaderLogger(l *slog.Logger) LoaderOption {
	return func(o *loaderOptions) { o.logger = l }
}

// Loader turns line-oriented text into Datasets that share one schema.
//
// All inputs of one Load call grow the same vocabularies; the schema is
// finalized once after the last input. A later Load reuses the frozen
// vocabularies and fails on unseen keys.
type Loader struct {
	columns []Column
	groupOf []int // column -> group index, -1 when not a group
	label   int   // label column, -1 when absent
	builder *SchemaBuilder
	opts    loaderOptions
}

// NewLoader creates a loader for the given column layout.
func NewLoader(columns []Column, optFns ...LoaderOption) (*Loader, error) {
	opts := loaderOptions{
		delimiter:      "\t",
		valueSeparator: ";",
		logger:         slog.New(slog.DiscardHandler),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.parser == nil {
		delim := opts.delimiter
		opts.parser = func(line string) []string {
			if delim == "" {
				return strings.Fields(line)
			}
			return strings.Split(line, delim)
		}
	}

	l := &Loader{
		columns: columns,
		groupOf: make([]int, len(columns)),
		label:   -1,
		builder: NewSchemaBuilder(),
		opts:    opts,
	}
	for i, c := range columns {
		l.groupOf[i] = -1
		switch c.Role {
		case RoleGroup:
			l.groupOf[i] = l.builder.AddGroup(c.Name, c.Kind)
		case RoleLabel:
			if l.label >= 0 {
				return nil, errors.New("loader: more than one label column")
			}
			l.label = i
		}
	}
	if l.builder.NumGroups() == 0 {
		return nil, errors.New("loader: no feature group columns")
	}
	return l, nil
}

// Schema returns the finalized schema after a successful Load.
func (l *Loader) Schema() *Schema { return l.builder.Finalize() }

// Load reads every input and returns one Dataset per reader.
func (l *Loader) Load(readers ...io.Reader) ([]*Dataset, error) {
	parts := make([][]*Record, len(readers))
	for i, r := range readers {
		records, err := l.read(r)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		parts[i] = records
	}

	schema := l.builder.Finalize()
	out := make([]*Dataset, len(parts))
	for i, records := range parts {
		ds, err := New(schema, records)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		out[i] = ds
		l.opts.logger.Info("dataset loaded",
			"input", i,
			"records", ds.Len(),
			"groups", schema.NumGroups(),
			"dimensions", schema.TotalDimensions(),
		)
	}
	return out, nil
}

// LoadFiles opens the given paths and calls Load.
func (l *Loader) LoadFiles(paths ...string) ([]*Dataset, error) {
	readers := make([]io.Reader, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		readers = append(readers, f)
	}
	return l.Load(readers...)
}

func (l *Loader) read(r io.Reader) ([]*Record, error) {
	var records []*Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for lineNum := 0; scanner.Scan(); lineNum++ {
		if l.opts.skipHeader && lineNum == 0 {
			continue
		}
		fields := l.opts.parser(scanner.Text())
		if len(fields) == 0 || (len(fields) == 1 && strings.TrimSpace(fields[0]) == "") {
			continue
		}
		rec, ok, err := l.parseLine(fields, lineNum)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum+1, err)
		}
		if ok {
			records = append(records, rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (l *Loader) parseLine(fields []string, lineNum int) (*Record, bool, error) {
	if len(fields) < len(l.columns) {
		return nil, false, fmt.Errorf("expected %d fields, got %d", len(l.columns), len(fields))
	}

	var label float64
	if l.label >= 0 {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[l.label]), 64)
		if err != nil {
			return nil, false, fmt.Errorf("label: %w", err)
		}
		label = v
	}
	if l.opts.filter != nil {
		keep, err := l.opts.filter.Keep(label, fields, lineNum)
		if err != nil {
			return nil, false, err
		}
		if !keep {
			return nil, false, nil
		}
	}

	groups := make([]GroupValue, l.builder.NumGroups())
	for col, g := range l.groupOf {
		if g < 0 {
			continue
		}
		v, err := l.parseField(g, strings.TrimSpace(fields[col]))
		if err != nil {
			return nil, false, fmt.Errorf("column %q: %w", l.columns[col].Name, err)
		}
		groups[g] = v
	}
	return NewRecord(label, groups...), true, nil
}

func (l *Loader) parseField(g int, field string) (GroupValue, error) {
	gs := l.builder.Group(g)
	var entries []string
	if field != "" {
		entries = strings.Split(field, l.opts.valueSeparator)
	}

	switch gs.Kind() {
	case Dense:
		values := make([]float64, len(entries))
		for i, e := range entries {
			v, err := strconv.ParseFloat(strings.TrimSpace(e), 64)
			if err != nil {
				return GroupValue{}, err
			}
			values[i] = v
		}
		if err := gs.FixLength(len(values), g); err != nil {
			return GroupValue{}, err
		}
		return DenseValue(values...), nil
	case SparseValued:
		ids := make([]int, len(entries))
		values := make([]float64, len(entries))
		for i, e := range entries {
			sep := strings.LastIndexByte(e, ':')
			if sep < 0 {
				return GroupValue{}, fmt.Errorf("entry %q is not key:value", e)
			}
			v, err := strconv.ParseFloat(e[sep+1:], 64)
			if err != nil {
				return GroupValue{}, err
			}
			id, err := gs.Intern(e[:sep])
			if err != nil {
				return GroupValue{}, err
			}
			ids[i], values[i] = id, v
		}
		return SparseValue(ids, values), nil
	default:
		ids := make([]int, len(entries))
		for i, e := range entries {
			id, err := gs.Intern(e)
			if err != nil {
				return GroupValue{}, err
			}
			ids[i] = id
		}
		return BinaryValue(ids...), nil
	}
}

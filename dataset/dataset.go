package dataset

import (
	"fmt"
	"iter"
)

// Dataset is an ordered, read-only sequence of records sharing one schema.
//
// Datasets derived from each other (splits, shuffles) reference the same
// *Schema and the same *Record values.
type Dataset struct {
	schema  *Schema
	records []*Record
}

// New validates records against schema and wraps them in a Dataset.
func New(schema *Schema, records []*Record) (*Dataset, error) {
	for i, r := range records {
		if err := r.validate(schema); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return &Dataset{schema: schema, records: records}, nil
}

// derive wraps already validated records.
func (d *Dataset) derive(records []*Record) *Dataset {
	return &Dataset{schema: d.schema, records: records}
}

// Schema returns the shared schema.
func (d *Dataset) Schema() *Schema { return d.schema }

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.records) }

// Record returns the record at position i.
func (d *Dataset) Record(i int) *Record { return d.records[i] }

// Records iterates positions and records in order.
func (d *Dataset) Records() iter.Seq2[int, *Record] {
	return func(yield func(int, *Record) bool) {
		for i, r := range d.records {
			if !yield(i, r) {
				return
			}
		}
	}
}

// NumGroups returns the schema group count.
func (d *Dataset) NumGroups() int { return d.schema.NumGroups() }

// TotalDimensions returns the size of the flat coordinate space.
func (d *Dataset) TotalDimensions() int { return d.schema.TotalDimensions() }

// GroupSize returns the size of group g.
func (d *Dataset) GroupSize(g int) int { return d.schema.GroupSize(g) }

// Features returns the flat view of the record at position i.
func (d *Dataset) Features(i int) *FlatIterator {
	return NewFlatIterator(d.schema, d.records[i])
}

// Slice returns the records in [begin, end) as a new Dataset.
func (d *Dataset) Slice(begin, end int) *Dataset {
	return d.derive(d.records[begin:end:end])
}

// Summary describes the dataset for logging.
func (d *Dataset) Summary() string {
	return fmt.Sprintf("records: %d, %s", len(d.records), d.schema)
}

package dataset

import "iter"

// Feature is one element of the flat view of a record.
type Feature struct {
	// Group is the feature group the element came from.
	Group int
	// Index is the global index in the schema's flat coordinate space.
	Index int
	// Value is the element value (1 for sparse-binary groups).
	Value float64
}

// FlatIterator walks the (group, global index, value) triples of one record
// in group order. It holds two cursors and no buffers.
type FlatIterator struct {
	schema *Schema
	record *Record
	group  int
	pos    int
}

// NewFlatIterator creates an iterator positioned before the first element.
func NewFlatIterator(schema *Schema, record *Record) *FlatIterator {
	return &FlatIterator{schema: schema, record: record}
}

// Next returns the next feature, or false once exhausted.
func (it *FlatIterator) Next() (Feature, bool) {
	for it.group < it.record.NumGroups() {
		v := it.record.Group(it.group)
		if it.pos < v.Len() {
			f := Feature{
				Group: it.group,
				Index: it.schema.Offset(it.group) + v.ID(it.pos),
				Value: v.Value(it.pos),
			}
			it.pos++
			return f, true
		}
		it.group++
		it.pos = 0
	}
	return Feature{}, false
}

// Reset rewinds the iterator to the first element.
func (it *FlatIterator) Reset() {
	it.group, it.pos = 0, 0
}

// Same reports whether both iterators walk the same record at the same position.
func (it *FlatIterator) Same(other *FlatIterator) bool {
	return it.record == other.record && it.group == other.group && it.pos == other.pos
}

// Features returns the flat view of record as a range-over-func sequence.
func Features(schema *Schema, record *Record) iter.Seq[Feature] {
	return func(yield func(Feature) bool) {
		it := NewFlatIterator(schema, record)
		for f, ok := it.Next(); ok; f, ok = it.Next() {
			if !yield(f) {
				return
			}
		}
	}
}

package dataset

import (
	"fmt"
	"strings"
)

// GroupValue is the payload of one feature group within a record.
//
// Dense groups set Values only, SparseValued groups set IDs and a parallel
// Values slice, SparseBinary groups set IDs only.
type GroupValue struct {
	IDs    []int
	Values []float64
}

// DenseValue builds a dense group payload.
func DenseValue(values ...float64) GroupValue { return GroupValue{Values: values} }

// SparseValue builds a sparse-valued group payload.
func SparseValue(ids []int, values []float64) GroupValue {
	return GroupValue{IDs: ids, Values: values}
}

// BinaryValue builds a sparse-binary group payload.
func BinaryValue(ids ...int) GroupValue { return GroupValue{IDs: ids} }

// Len returns the number of entries.
func (v GroupValue) Len() int {
	if v.IDs != nil {
		return len(v.IDs)
	}
	return len(v.Values)
}

// ID returns the local id of entry j. For dense payloads it is j.
func (v GroupValue) ID(j int) int {
	if v.IDs == nil {
		return j
	}
	return v.IDs[j]
}

// Value returns the value of entry j. Binary entries are 1.
func (v GroupValue) Value(j int) float64 {
	if v.Values == nil {
		return 1
	}
	return v.Values[j]
}

// Record is one labeled example. It is immutable once built.
type Record struct {
	groups []GroupValue
	label  float64
	size   int
}

// NewRecord creates a record from per-group payloads.
func NewRecord(label float64, groups ...GroupValue) *Record {
	size := 0
	for _, g := range groups {
		size += g.Len()
	}
	return &Record{groups: groups, label: label, size: size}
}

// NumGroups returns the number of group payloads.
func (r *Record) NumGroups() int { return len(r.groups) }

// Group returns the payload of group g.
func (r *Record) Group(g int) GroupValue { return r.groups[g] }

// Label returns the record label.
func (r *Record) Label() float64 { return r.label }

// Size returns the total number of entries across all groups.
func (r *Record) Size() int { return r.size }

// FirstID returns the first local id of group g.
func (r *Record) FirstID(g int) (int, bool) {
	if g < 0 || g >= len(r.groups) || r.groups[g].Len() == 0 {
		return 0, false
	}
	return r.groups[g].ID(0), true
}

func (r *Record) validate(s *Schema) error {
	if len(r.groups) != s.NumGroups() {
		return fmt.Errorf("%w: got %d, want %d", ErrGroupCount, len(r.groups), s.NumGroups())
	}
	for g, v := range r.groups {
		gs := s.Group(g)
		switch gs.Kind() {
		case Dense:
			if len(v.Values) != gs.Size() {
				return &DenseLengthError{Group: g, Expected: gs.Size(), Actual: len(v.Values)}
			}
		case SparseValued:
			if len(v.IDs) != len(v.Values) {
				return fmt.Errorf("group %d: %d ids but %d values", g, len(v.IDs), len(v.Values))
			}
		}
		size := gs.Size()
		for _, id := range v.IDs {
			if id < 0 || id >= size {
				return fmt.Errorf("%w: group %d id %d, size %d", ErrIDOutOfRange, g, id, size)
			}
		}
	}
	return nil
}

func (r *Record) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%g", r.label)
	for _, g := range r.groups {
		sb.WriteString(" |")
		for j := 0; j < g.Len(); j++ {
			fmt.Fprintf(&sb, " %d:%g", g.ID(j), g.Value(j))
		}
	}
	return sb.String()
}

package dataset

import (
	"fmt"
	"strings"
)

// Kind is the encoding of a feature group.
type Kind uint8

const (
	// Dense groups store a fixed-length value array; the local id is the position.
	Dense Kind = iota
	// SparseValued groups store ids with a parallel value array.
	SparseValued
	// SparseBinary groups store ids only; every value is 1.
	SparseBinary
)

// String returns the stable name of the kind.
func (k Kind) String() string {
	switch k {
	case Dense:
		return "dense"
	case SparseValued:
		return "sparse_valued"
	case SparseBinary:
		return "sparse_binary"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind parses a kind name as produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dense":
		return Dense, nil
	case "sparse_valued", "sparse":
		return SparseValued, nil
	case "sparse_binary", "binary":
		return SparseBinary, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// GroupSchema holds the vocabulary and encoding of one feature group.
//
// Sparse vocabularies assign local ids in first-seen order. A dense group
// fixes its length on first use. Once the owning schema is finalized the
// vocabulary rejects new keys.
type GroupSchema struct {
	name   string
	kind   Kind
	ids    map[string]int
	keys   []string
	length int // -1 until fixed (dense only)
	frozen bool
}

// NewGroupSchema creates an empty group.
func NewGroupSchema(name string, kind Kind) *GroupSchema {
	return &GroupSchema{
		name:   name,
		kind:   kind,
		ids:    make(map[string]int),
		length: -1,
	}
}

// Name returns the group name.
func (g *GroupSchema) Name() string { return g.name }

// Kind returns the group encoding.
func (g *GroupSchema) Kind() Kind { return g.kind }

// Size returns the dense length or the vocabulary cardinality.
func (g *GroupSchema) Size() int {
	if g.kind == Dense {
		if g.length < 0 {
			return 0
		}
		return g.length
	}
	return len(g.keys)
}

// Intern returns the local id of key, assigning the next id on first sight.
func (g *GroupSchema) Intern(key string) (int, error) {
	if id, ok := g.ids[key]; ok {
		return id, nil
	}
	if g.frozen {
		return 0, fmt.Errorf("%w: group %q cannot add key %q", ErrSchemaFinalized, g.name, key)
	}
	id := len(g.keys)
	g.ids[key] = id
	g.keys = append(g.keys, key)
	return id, nil
}

// Lookup returns the local id of key without growing the vocabulary.
func (g *GroupSchema) Lookup(key string) (int, bool) {
	id, ok := g.ids[key]
	return id, ok
}

// Key returns the raw key of a local id.
func (g *GroupSchema) Key(id int) (string, bool) {
	if id < 0 || id >= len(g.keys) {
		return "", false
	}
	return g.keys[id], true
}

// Keys returns a copy of the vocabulary in id order.
func (g *GroupSchema) Keys() []string {
	out := make([]string, len(g.keys))
	copy(out, g.keys)
	return out
}

// FixLength fixes a dense group length, or checks it against the fixed one.
func (g *GroupSchema) FixLength(n int, group int) error {
	if g.length < 0 {
		if g.frozen {
			return fmt.Errorf("%w: group %q length is unset", ErrSchemaFinalized, g.name)
		}
		g.length = n
		return nil
	}
	if g.length != n {
		return &DenseLengthError{Group: group, Expected: g.length, Actual: n}
	}
	return nil
}

func (g *GroupSchema) String() string {
	return fmt.Sprintf("%s{kind: %s, size: %d}", g.name, g.kind, g.Size())
}

// SchemaBuilder is the mutable schema used while loading.
type SchemaBuilder struct {
	groups []*GroupSchema
	schema *Schema
}

// NewSchemaBuilder creates a builder with the given groups.
func NewSchemaBuilder(groups ...*GroupSchema) *SchemaBuilder {
	return &SchemaBuilder{groups: groups}
}

// AddGroup appends a group and returns its index.
func (b *SchemaBuilder) AddGroup(name string, kind Kind) int {
	b.groups = append(b.groups, NewGroupSchema(name, kind))
	return len(b.groups) - 1
}

// Group returns the group at index i.
func (b *SchemaBuilder) Group(i int) *GroupSchema { return b.groups[i] }

// NumGroups returns the number of groups.
func (b *SchemaBuilder) NumGroups() int { return len(b.groups) }

// Finalize freezes every vocabulary and computes global offsets.
// Calling it again returns the same schema.
func (b *SchemaBuilder) Finalize() *Schema {
	if b.schema != nil {
		return b.schema
	}
	s := &Schema{
		groups:  b.groups,
		offsets: make([]int, len(b.groups)),
	}
	for i, g := range b.groups {
		g.frozen = true
		s.offsets[i] = s.total
		s.total += g.Size()
	}
	b.schema = s
	return s
}

// Schema is a finalized, read-only set of feature groups sharing one flat
// coordinate space. It is shared by every Dataset derived from one load.
type Schema struct {
	groups  []*GroupSchema
	offsets []int
	total   int
}

// NumGroups returns the number of groups.
func (s *Schema) NumGroups() int { return len(s.groups) }

// Group returns the group at index i.
func (s *Schema) Group(i int) *GroupSchema { return s.groups[i] }

// GroupSize returns the size of group i.
func (s *Schema) GroupSize(i int) int { return s.groups[i].Size() }

// Offset returns the global index of local id 0 in group i.
func (s *Schema) Offset(i int) int { return s.offsets[i] }

// Offsets returns a copy of all group offsets.
func (s *Schema) Offsets() []int {
	out := make([]int, len(s.offsets))
	copy(out, s.offsets)
	return out
}

// TotalDimensions returns the size of the flat coordinate space.
func (s *Schema) TotalDimensions() int { return s.total }

// GlobalIndex translates a local id of group g into the flat space.
func (s *Schema) GlobalIndex(g, local int) int { return s.offsets[g] + local }

// GroupIndex returns the index of the group with the given name.
func (s *Schema) GroupIndex(name string) (int, bool) {
	for i, g := range s.groups {
		if g.name == name {
			return i, true
		}
	}
	return -1, false
}

func (s *Schema) checkGroup(g int) error {
	if g < 0 || g >= len(s.groups) {
		return fmt.Errorf("%w: %d (schema has %d groups)", ErrInvalidGroup, g, len(s.groups))
	}
	return nil
}

func (s *Schema) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "schema{groups: %d, dims: %d, offsets: %v", len(s.groups), s.total, s.offsets)
	for _, g := range s.groups {
		sb.WriteString(", ")
		sb.WriteString(g.String())
	}
	sb.WriteString("}")
	return sb.String()
}

package dataset

import "fmt"

// Snapshot is the serializable form of a Dataset and its schema.
type Snapshot struct {
	Groups  []GroupSnapshot  `json:"groups"`
	Records []RecordSnapshot `json:"records"`
}

// GroupSnapshot captures one group vocabulary.
type GroupSnapshot struct {
	Name   string   `json:"name"`
	Kind   Kind     `json:"kind"`
	Keys   []string `json:"keys,omitempty"`
	Length int      `json:"length,omitempty"`
}

// RecordSnapshot captures one record.
type RecordSnapshot struct {
	Label  float64      `json:"label"`
	Groups []GroupValue `json:"groups"`
}

// Snapshot exports the dataset with a copy of its schema.
func (d *Dataset) Snapshot() *Snapshot {
	s := &Snapshot{
		Groups:  make([]GroupSnapshot, d.schema.NumGroups()),
		Records: make([]RecordSnapshot, len(d.records)),
	}
	for i := range s.Groups {
		g := d.schema.Group(i)
		gs := GroupSnapshot{Name: g.Name(), Kind: g.Kind()}
		if g.Kind() == Dense {
			gs.Length = g.Size()
		} else {
			gs.Keys = g.Keys()
		}
		s.Groups[i] = gs
	}
	for i, r := range d.records {
		s.Records[i] = RecordSnapshot{Label: r.label, Groups: r.groups}
	}
	return s
}

// FromSnapshot rebuilds a finalized schema and a validated Dataset.
func FromSnapshot(s *Snapshot) (*Dataset, error) {
	b := NewSchemaBuilder()
	for i, gs := range s.Groups {
		g := b.Group(b.AddGroup(gs.Name, gs.Kind))
		if gs.Kind == Dense {
			if err := g.FixLength(gs.Length, i); err != nil {
				return nil, err
			}
			continue
		}
		for _, key := range gs.Keys {
			if _, err := g.Intern(key); err != nil {
				return nil, err
			}
		}
		if g.Size() != len(gs.Keys) {
			return nil, fmt.Errorf("group %q: duplicate keys in snapshot", gs.Name)
		}
	}
	schema := b.Finalize()

	records := make([]*Record, len(s.Records))
	for i, rs := range s.Records {
		records[i] = NewRecord(rs.Label, rs.Groups...)
	}
	return New(schema, records)
}

package model

import (
	"errors"
	"fmt"
)

// Snapshot is the serializable parameter set of a trained model.
//
// A restored model serves Predict and Recommend. Training state such as
// AdaGrad accumulators is not kept, so call Reset before training again.
type Snapshot struct {
	Method   Method               `json:"method"`
	Config   Config               `json:"config"`
	NumUsers int                  `json:"num_users"`
	NumItems int                  `json:"num_items"`
	Matrices map[string]*Matrix   `json:"matrices,omitempty"`
	Vectors  map[string][]float64 `json:"vectors,omitempty"`
}

type exportable interface {
	Model
	core() *base
	export(s *Snapshot)
	restore(s *Snapshot) error
}

// Export captures the parameters of a trained model.
func Export(m Model) (*Snapshot, error) {
	e, ok := m.(exportable)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotExportable, m.Name())
	}
	method, err := ParseMethod(m.Name())
	if err != nil {
		return nil, err
	}
	b := e.core()
	if !b.trained {
		return nil, ErrNotTrained
	}
	s := &Snapshot{
		Method:   method,
		Config:   b.cfg,
		NumUsers: b.numUsers,
		NumItems: b.numItems,
		Matrices: make(map[string]*Matrix),
		Vectors:  make(map[string][]float64),
	}
	e.export(s)
	return s, nil
}

// Restore rebuilds a model from a snapshot.
func Restore(s *Snapshot) (Model, error) {
	m, err := New(s.Method, s.Config)
	if err != nil {
		return nil, err
	}
	e, ok := m.(exportable)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotExportable, s.Method)
	}
	if s.NumUsers < 0 || s.NumItems < 0 {
		return nil, fmt.Errorf("snapshot: negative entity counts %d/%d", s.NumUsers, s.NumItems)
	}
	if err := e.restore(s); err != nil {
		return nil, fmt.Errorf("restore %s: %w", s.Method, err)
	}
	b := e.core()
	b.numUsers, b.numItems = s.NumUsers, s.NumItems
	b.trained = true
	return m, nil
}

func (s *Snapshot) matrix(name string, rows, cols int) (*Matrix, error) {
	m, ok := s.Matrices[name]
	if !ok || m == nil {
		return nil, fmt.Errorf("missing matrix %q", name)
	}
	if m.Rows != rows || m.Cols != cols || len(m.Data) != rows*cols {
		return nil, fmt.Errorf("matrix %q is %dx%d with %d values, want %dx%d", name, m.Rows, m.Cols, len(m.Data), rows, cols)
	}
	return m, nil
}

func (s *Snapshot) vector(name string, n int) ([]float64, error) {
	v, ok := s.Vectors[name]
	if !ok {
		return nil, fmt.Errorf("missing vector %q", name)
	}
	if len(v) != n {
		return nil, fmt.Errorf("vector %q has %d values, want %d", name, len(v), n)
	}
	return v, nil
}

func (m *Popularity) export(s *Snapshot) {
	s.Vectors["counts"] = m.counts
}

func (m *Popularity) restore(s *Snapshot) error {
	counts, err := s.vector("counts", s.NumItems)
	if err != nil {
		return err
	}
	m.numItems = s.NumItems
	m.counts = counts
	m.rank()
	return nil
}

func (f *factors) export(s *Snapshot) {
	s.Matrices["user"] = f.user
	s.Matrices["item"] = f.item
	s.Vectors["user_bias"] = f.userBias
	s.Vectors["item_bias"] = f.itemBias
}

func restoreFactors(s *Snapshot) (*factors, error) {
	dim := s.Config.Dim
	user, err1 := s.matrix("user", s.NumUsers, dim)
	item, err2 := s.matrix("item", s.NumItems, dim)
	ub, err3 := s.vector("user_bias", s.NumUsers)
	ib, err4 := s.vector("item_bias", s.NumItems)
	if err := errors.Join(err1, err2, err3, err4); err != nil {
		return nil, err
	}
	f := &factors{user: user, item: item, userBias: ub, itemBias: ib}
	f.scratch(dim)
	return f, nil
}

func (m *PMF) export(s *Snapshot) { m.f.export(s) }

func (m *PMF) restore(s *Snapshot) (err error) {
	m.f, err = restoreFactors(s)
	return err
}

func (m *BPR) export(s *Snapshot) { m.f.export(s) }

func (m *BPR) restore(s *Snapshot) (err error) {
	m.f, err = restoreFactors(s)
	return err
}

func (m *WARP) export(s *Snapshot) { m.f.export(s) }

func (m *WARP) restore(s *Snapshot) (err error) {
	m.f, err = restoreFactors(s)
	return err
}

func (m *ALS) export(s *Snapshot) {
	s.Matrices["p"] = m.p
	s.Matrices["q"] = m.q
}

func (m *ALS) restore(s *Snapshot) error {
	p, err1 := s.matrix("p", s.NumUsers, s.Config.Dim)
	q, err2 := s.matrix("q", s.NumItems, s.Config.Dim)
	if err := errors.Join(err1, err2); err != nil {
		return err
	}
	m.p, m.q = p, q
	return nil
}

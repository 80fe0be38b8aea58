package model

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// Matrix is a dense row-major parameter block. Row i is the parameter row
// of entity i; concurrent writers must own disjoint rows.
type Matrix struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

// NewMatrix allocates a zero matrix.
func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// RandomMatrix fills a matrix uniformly from [-scale, scale).
func RandomMatrix(rng *rand.Rand, rows, cols int, scale float64) *Matrix {
	m := NewMatrix(rows, cols)
	for i := range m.Data {
		m.Data[i] = (2*rng.Float64() - 1) * scale
	}
	return m
}

// Row returns row i as a slice aliasing the matrix.
func (m *Matrix) Row(i int) []float64 {
	return m.Data[i*m.Cols : (i+1)*m.Cols : (i+1)*m.Cols]
}

// Fill sets every element to v.
func (m *Matrix) Fill(v float64) {
	for i := range m.Data {
		m.Data[i] = v
	}
}

// Dot returns the inner product of row i of m and row j of o.
func (m *Matrix) Dot(i int, o *Matrix, j int) float64 {
	return floats.Dot(m.Row(i), o.Row(j))
}

// filled returns a vector of n copies of v.
func filled(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// adagrad accumulates squared gradients into acc and rescales grad in place
// by 1/(beta+sqrt(acc)).
func adagrad(grad, acc []float64, beta float64) {
	for k, g := range grad {
		acc[k] += g * g
		grad[k] /= beta + math.Sqrt(acc[k])
	}
}

// adagradScalar is adagrad for a single parameter.
func adagradScalar(grad float64, acc *float64, beta float64) float64 {
	*acc += grad * grad
	return grad / (beta + math.Sqrt(*acc))
}

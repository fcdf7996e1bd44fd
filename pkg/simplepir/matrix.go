package simplepir

import (
	"encoding/binary"
	"hash"

	"github.com/ajitpratap0/colpir/pkg/pirerrors"
)

// Matrix is a dense row-major matrix over Z_q.
type Matrix struct {
	Rows int
	Cols int
	Data []uint32
}

// NewMatrix returns a zero matrix.
func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{Rows: rows, Cols: cols, Data: make([]uint32, rows*cols)}
}

// At returns element (i, j).
func (m *Matrix) At(i, j int) uint32 {
	return m.Data[i*m.Cols+j]
}

// Set sets element (i, j).
func (m *Matrix) Set(i, j int, v uint32) {
	m.Data[i*m.Cols+j] = v
}

// Row returns row i, sharing storage with m.
func (m *Matrix) Row(i int) []uint32 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// SizeBytes returns the encoded size of the matrix.
func (m *Matrix) SizeBytes() int {
	return len(m.Data) * 4
}

// Equal reports whether both matrices have the same shape and elements.
func (m *Matrix) Equal(o *Matrix) bool {
	if m.Rows != o.Rows || m.Cols != o.Cols {
		return false
	}
	for i, v := range m.Data {
		if o.Data[i] != v {
			return false
		}
	}
	return true
}

// Mul returns m*b.
func (m *Matrix) Mul(b *Matrix) (*Matrix, error) {
	if m.Cols != b.Rows {
		return nil, dimensionError("matrix product", m.Cols, b.Rows)
	}
	out := NewMatrix(m.Rows, b.Cols)
	for i := 0; i < m.Rows; i++ {
		dst := out.Row(i)
		for k, a := range m.Row(i) {
			if a == 0 {
				continue
			}
			axpy(dst, a, b.Row(k))
		}
	}
	return out, nil
}

// MulVec returns m*v.
func (m *Matrix) MulVec(v []uint32) ([]uint32, error) {
	if m.Cols != len(v) {
		return nil, dimensionError("matrix-vector product", m.Cols, len(v))
	}
	out := make([]uint32, m.Rows)
	for i := range out {
		out[i] = dot(m.Row(i), v)
	}
	return out, nil
}

// writeTo feeds the shape and elements of m into h.
func (m *Matrix) writeTo(h hash.Hash) {
	var b [8]byte
	binary.LittleEndian.PutUint32(b[:4], uint32(m.Rows))
	binary.LittleEndian.PutUint32(b[4:], uint32(m.Cols))
	h.Write(b[:])
	writeVec(h, m.Data)
}

func writeVec(h hash.Hash, v []uint32) {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], x)
	}
	h.Write(buf)
}

func dot(a, b []uint32) uint32 {
	var acc uint32
	for i, x := range a {
		acc += x * b[i]
	}
	return acc
}

// axpy computes dst += a*x.
func axpy(dst []uint32, a uint32, x []uint32) {
	for j, v := range x {
		dst[j] += a * v
	}
}

func dimensionError(op string, want, got int) error {
	return pirerrors.New(pirerrors.ErrorTypeInternal, "dimension mismatch").
		WithDetail("op", op).
		WithDetail("want", want).
		WithDetail("got", got)
}

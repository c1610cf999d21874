package comp

import "fmt"

// NumberType is the model-wide numeric storage policy.
type NumberType int

const (
	// Float64 stores values at full precision.
	Float64 NumberType = iota
	// Float32 rounds every stored value through float32.
	Float32
)

func (nt NumberType) String() string {
	if nt == Float32 {
		return "float32"
	}
	return "float64"
}

// Array is the dense backing storage for one variable or parameter. The
// shape is fixed at allocation; a rank-0 array holds a single scalar.
// Indices are 0-based; the views in state.go translate from the engine's
// 1-based positions.
type Array struct {
	data    []float64
	shape   []int
	round32 bool
}

// NewArray allocates a zeroed array with the given shape under the numeric
// policy nt. An empty shape allocates a scalar.
func NewArray(nt NumberType, shape ...int) *Array {
	n := 1
	for _, s := range shape {
		if s < 1 {
			panic(fmt.Sprintf("array dimension size must be positive, got %d", s))
		}
		n *= s
	}
	a := &Array{
		data:    make([]float64, n),
		shape:   make([]int, len(shape)),
		round32: nt == Float32,
	}
	copy(a.shape, shape)
	return a
}

// FromValues allocates an array with the given shape and copies values into
// it. The value count must match the shape's product.
func FromValues(nt NumberType, values []float64, shape ...int) (*Array, error) {
	a := NewArray(nt, shape...)
	if len(values) != len(a.data) {
		return nil, fmt.Errorf("value count %d does not match shape product %d", len(values), len(a.data))
	}
	for i, v := range values {
		a.data[i] = a.round(v)
	}
	return a, nil
}

func (a *Array) round(v float64) float64 {
	if a.round32 {
		return float64(float32(v))
	}
	return v
}

// Len returns the total element count.
func (a *Array) Len() int { return len(a.data) }

// Rank returns the number of dimensions.
func (a *Array) Rank() int { return len(a.shape) }

// Shape returns a copy of the dimension sizes.
func (a *Array) Shape() []int {
	out := make([]int, len(a.shape))
	copy(out, a.shape)
	return out
}

// SameShape reports whether b has identical dimension sizes.
func (a *Array) SameShape(b *Array) bool {
	if len(a.shape) != len(b.shape) {
		return false
	}
	for i, s := range a.shape {
		if b.shape[i] != s {
			return false
		}
	}
	return true
}

func (a *Array) offset(idx []int) int {
	if len(idx) != len(a.shape) {
		panic(fmt.Sprintf("array index rank %d does not match shape rank %d", len(idx), len(a.shape)))
	}
	off := 0
	for i, x := range idx {
		if x < 0 || x >= a.shape[i] {
			panic(fmt.Sprintf("array index %d out of range [0,%d) in dimension %d", x, a.shape[i], i))
		}
		off = off*a.shape[i] + x
	}
	return off
}

// At returns the element at the 0-based indices idx.
func (a *Array) At(idx ...int) float64 { return a.data[a.offset(idx)] }

// Set stores v at the 0-based indices idx, applying the numeric policy.
func (a *Array) Set(v float64, idx ...int) { a.data[a.offset(idx)] = a.round(v) }

// AtFlat returns the element at the flat 0-based index i.
func (a *Array) AtFlat(i int) float64 { return a.data[i] }

// SetFlat stores v at the flat 0-based index i.
func (a *Array) SetFlat(v float64, i int) { a.data[i] = a.round(v) }

// Values returns the live backing slice in row-major order. Mutating it
// bypasses the numeric policy; result readers treat it as read-only.
func (a *Array) Values() []float64 { return a.data }

// Fill sets every element to v.
func (a *Array) Fill(v float64) {
	v = a.round(v)
	for i := range a.data {
		a.data[i] = v
	}
}

// Clone returns an independent copy.
func (a *Array) Clone() *Array {
	c := &Array{
		data:    make([]float64, len(a.data)),
		shape:   make([]int, len(a.shape)),
		round32: a.round32,
	}
	copy(c.data, a.data)
	copy(c.shape, a.shape)
	return c
}

package comp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArray_ShapeAndIndexing(t *testing.T) {
	t.Parallel()

	a := NewArray(Float64, 3, 2)
	assert.Equal(t, 6, a.Len())
	assert.Equal(t, 2, a.Rank())
	assert.Equal(t, []int{3, 2}, a.Shape())

	a.Set(1.5, 2, 1)
	assert.Equal(t, 1.5, a.At(2, 1))
	assert.Equal(t, 1.5, a.AtFlat(2*2+1))
}

func TestArray_Float32Rounding(t *testing.T) {
	t.Parallel()

	a := NewArray(Float32, 2)
	a.SetFlat(1.0/3.0, 0)
	assert.Equal(t, float64(float32(1.0/3.0)), a.AtFlat(0))

	b := NewArray(Float64, 2)
	b.SetFlat(1.0/3.0, 0)
	assert.Equal(t, 1.0/3.0, b.AtFlat(0))
}

func TestFromValues(t *testing.T) {
	t.Parallel()

	a, err := FromValues(Float64, []float64{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 6.0, a.At(1, 2))

	_, err = FromValues(Float64, []float64{1, 2}, 2, 3)
	require.Error(t, err)
}

func TestArray_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	a := NewArray(Float64, 2)
	a.Fill(7)
	b := a.Clone()
	b.SetFlat(9, 0)

	assert.Equal(t, 7.0, a.AtFlat(0))
	assert.Equal(t, 9.0, b.AtFlat(0))
	assert.True(t, a.SameShape(b))
	assert.False(t, a.SameShape(NewArray(Float64, 3)))
}

func TestArray_OutOfRangePanics(t *testing.T) {
	t.Parallel()

	a := NewArray(Float64, 2, 2)
	assert.Panics(t, func() { a.At(2, 0) })
	assert.Panics(t, func() { a.At(0) })
}

package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedLabels(t *testing.T) {
	tl, err := NewFixed(2000, 10, 2050)
	require.NoError(t, err)

	assert.Equal(t, 6, tl.Len())
	assert.Equal(t, 2000, tl.Label(1))
	assert.Equal(t, 2030, tl.Label(4))
	assert.Equal(t, 2050, tl.Label(6))

	// One past the declared span yields last + step.
	assert.Equal(t, 2060, tl.Label(7))

	pos, ok := tl.Position(2040)
	require.True(t, ok)
	assert.Equal(t, 5, pos)

	_, ok = tl.Position(2041)
	assert.False(t, ok)
	_, ok = tl.Position(1990)
	assert.False(t, ok)
}

func TestFixedValidation(t *testing.T) {
	_, err := NewFixed(2000, 0, 2050)
	assert.ErrorContains(t, err, "step must be positive")

	_, err = NewFixed(2050, 10, 2000)
	assert.ErrorContains(t, err, "precedes")

	_, err = NewFixed(2000, 10, 2045)
	assert.ErrorContains(t, err, "not a multiple of step")
}

func TestVariableLabels(t *testing.T) {
	tl, err := NewVariable(2000, 2010, 2025, 2050)
	require.NoError(t, err)

	assert.Equal(t, 4, tl.Len())
	assert.Equal(t, 2000, tl.Label(1))
	assert.Equal(t, 2025, tl.Label(3))

	// One past the table is lastLabel + 1, never last + another inferred step.
	assert.Equal(t, 2051, tl.Label(5))

	pos, ok := tl.Position(2025)
	require.True(t, ok)
	assert.Equal(t, 3, pos)

	_, ok = tl.Position(2026)
	assert.False(t, ok)
}

func TestVariableValidation(t *testing.T) {
	_, err := NewVariable()
	assert.Error(t, err)

	_, err = NewVariable(2000, 2000)
	assert.ErrorContains(t, err, "strictly increasing")
}

func TestTimestepWindow(t *testing.T) {
	tl, err := NewFixed(2000, 10, 2050)
	require.NoError(t, err)

	c := NewClock(tl, 2, 4)
	ts := c.Timestep()

	assert.True(t, ts.IsFirst())
	assert.False(t, ts.IsLast())
	assert.Equal(t, 2, ts.Position())
	assert.Equal(t, 1, ts.Index())
	assert.Equal(t, 2010, ts.Label())

	c.Advance()
	assert.False(t, ts.IsFirst())
	assert.Equal(t, 2, ts.Index())

	c.Advance()
	assert.True(t, ts.IsLast())
	assert.False(t, ts.Done())

	c.Advance()
	assert.True(t, ts.Done())
}

func TestClockReset(t *testing.T) {
	tl, err := NewFixed(2000, 10, 2050)
	require.NoError(t, err)

	c := NewClock(tl, 2, 4)
	for !c.Timestep().Done() {
		c.Advance()
	}

	c.Reset()
	ts := c.Timestep()
	assert.True(t, ts.IsFirst())
	assert.Equal(t, 2, ts.Position())
	assert.Equal(t, 1, ts.Index())
	assert.False(t, ts.Done())
}

func TestTimestepCompare(t *testing.T) {
	tl, err := NewFixed(1, 1, 10)
	require.NoError(t, err)

	a := NewTimestep(tl, 1, 10)
	b := NewTimestep(tl, 3, 10)

	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(NewTimestep(tl, 1, 5)))
}

package comp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/composim/clock"
)

func TestModelDefClone(t *testing.T) {
	t.Parallel()

	def := NewModelDef(Float64)
	tl, err := clock.NewFixed(2000, 10, 2020)
	require.NoError(t, err)
	require.NoError(t, def.SetTimeline(tl))
	require.NoError(t, def.SetDimension("regions", "USA", "EU"))

	src := NewLeaf("src", "test_type")
	require.NoError(t, src.AddVariable(VariableDef{Name: "output", Dimensions: []string{TimeDimension}}))
	require.NoError(t, def.AddComponent(src))

	dst := NewLeaf("dst", "test_type")
	require.NoError(t, dst.AddParameter(ParameterDef{Name: "input", Dimensions: []string{TimeDimension}}))
	require.NoError(t, dst.AddParameter(ParameterDef{Name: "rate", Type: cty.Number}))
	require.NoError(t, def.AddComponent(dst))

	require.NoError(t, def.Connect(InternalParameterConnection{
		SrcComponent: "src", SrcVariable: "output",
		DstComponent: "dst", DstParameter: "input",
	}))
	require.NoError(t, def.SetParam("dst", "rate", 2.0))
	require.NoError(t, def.SetGlobalParam("missing", 1.0))

	clone := def.Clone()

	t.Run("structure carried over", func(t *testing.T) {
		assert.Equal(t, def.Root().ExecutionOrder(), clone.Root().ExecutionOrder())
		assert.Len(t, clone.Root().InternalConnections(), 1)
		assert.Len(t, clone.Root().ExternalConnections(), 1)
		assert.Equal(t, []string{"missing"}, clone.LooseParams())

		d, ok := clone.Dimension("regions")
		require.True(t, ok)
		assert.Equal(t, 2, d.Len())
	})

	t.Run("mutating the clone leaves the original alone", func(t *testing.T) {
		extra := NewLeaf("extra", "test_type")
		require.NoError(t, clone.AddComponent(extra))
		require.NoError(t, clone.SetParam("dst", "rate", 9.0))

		_, ok := def.Component("extra")
		assert.False(t, ok)

		stored, ok := def.Root().ExternalParam("dst/rate")
		require.True(t, ok)
		f, _ := stored.(ScalarParam).Value.AsBigFloat().Float64()
		assert.Equal(t, 2.0, f)
	})

	t.Run("clone starts with its own version counter", func(t *testing.T) {
		before := def.Version()
		require.NoError(t, clone.SetGlobalParam("another", 2.0))
		assert.Equal(t, before, def.Version())
	})
}

package builder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/composim/clock"
	"github.com/vk/composim/comp"
)

// newTestDef returns a model over 2000..2090 step 10 (ten positions) with a
// producer leaf "src" and a consumer leaf "dst".
func newTestDef(t *testing.T) *comp.ModelDef {
	t.Helper()
	def := comp.NewModelDef(comp.Float64)
	tl, err := clock.NewFixed(2000, 10, 2090)
	require.NoError(t, err)
	require.NoError(t, def.SetTimeline(tl))

	src := comp.NewLeaf("src", "producer")
	require.NoError(t, src.AddVariable(comp.VariableDef{Name: "output", Dimensions: []string{comp.TimeDimension}}))
	require.NoError(t, def.AddComponent(src))

	dst := comp.NewLeaf("dst", "consumer")
	require.NoError(t, dst.AddParameter(comp.ParameterDef{Name: "input", Dimensions: []string{comp.TimeDimension}}))
	require.NoError(t, def.AddComponent(dst))
	return def
}

func connectSrcDst(t *testing.T, def *comp.ModelDef, conn comp.InternalParameterConnection) {
	t.Helper()
	conn.SrcComponent, conn.SrcVariable = "src", "output"
	conn.DstComponent, conn.DstParameter = "dst", "input"
	require.NoError(t, def.Connect(conn))
}

func TestBuild_NoTimeline(t *testing.T) {
	t.Parallel()

	def := comp.NewModelDef(comp.Float64)
	_, err := Build(context.Background(), def)
	assert.ErrorIs(t, err, comp.ErrNoTimeline)
}

func TestBuild_UnboundParameter(t *testing.T) {
	t.Parallel()

	def := newTestDef(t)
	_, err := Build(context.Background(), def)
	require.ErrorIs(t, err, comp.ErrUnboundParameter)
	assert.Contains(t, err.Error(), "dst.input")
}

func TestBuild_Defaults(t *testing.T) {
	t.Parallel()

	def := comp.NewModelDef(comp.Float64)
	tl, err := clock.NewFixed(1, 1, 3)
	require.NoError(t, err)
	require.NoError(t, def.SetTimeline(tl))

	dflt := cty.NumberFloatVal(2.5)
	leaf := comp.NewLeaf("a", "t")
	require.NoError(t, leaf.AddParameter(comp.ParameterDef{Name: "rate", Type: cty.Number, Default: &dflt}))
	require.NoError(t, def.AddComponent(leaf))

	inst, err := Build(context.Background(), def)
	require.NoError(t, err)

	a, err := inst.Lookup("a")
	require.NoError(t, err)
	assert.Equal(t, 2.5, a.Bindings["rate"].Scalar())
}

func TestBuild_LooseValues(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) *comp.ModelDef {
		def := comp.NewModelDef(comp.Float64)
		tl, err := clock.NewFixed(1, 1, 2)
		require.NoError(t, err)
		require.NoError(t, def.SetTimeline(tl))

		a := comp.NewLeaf("a", "t")
		require.NoError(t, a.AddParameter(comp.ParameterDef{Name: "rate", Type: cty.Number}))
		require.NoError(t, def.AddComponent(a))
		return def
	}

	t.Run("single owner resolves", func(t *testing.T) {
		def := setup(t)
		require.NoError(t, def.SetGlobalParam("rate", 4.0))

		inst, err := Build(context.Background(), def)
		require.NoError(t, err)
		a, err := inst.Lookup("a")
		require.NoError(t, err)
		assert.Equal(t, 4.0, a.Bindings["rate"].Scalar())
	})

	t.Run("no owner fails", func(t *testing.T) {
		def := setup(t)
		require.NoError(t, def.SetGlobalParam("ghost", 1.0))

		_, err := Build(context.Background(), def)
		assert.ErrorIs(t, err, comp.ErrParameterNotFound)
	})

	t.Run("two owners is ambiguous", func(t *testing.T) {
		def := setup(t)
		b := comp.NewLeaf("b", "t")
		require.NoError(t, b.AddParameter(comp.ParameterDef{Name: "rate", Type: cty.Number}))
		require.NoError(t, def.AddComponent(b))
		require.NoError(t, def.SetGlobalParam("rate", 4.0))

		_, err := Build(context.Background(), def)
		assert.ErrorIs(t, err, comp.ErrAmbiguousParameter)
	})

	t.Run("qualified value beats resolution", func(t *testing.T) {
		def := setup(t)
		require.NoError(t, def.SetGlobalParam("rate", 4.0))
		require.NoError(t, def.SetParam("a", "rate", 9.0))

		inst, err := Build(context.Background(), def)
		require.NoError(t, err)
		a, err := inst.Lookup("a")
		require.NoError(t, err)
		assert.Equal(t, 9.0, a.Bindings["rate"].Scalar())
	})
}

func TestBuild_CompatibilityChecks(t *testing.T) {
	t.Parallel()

	t.Run("time indexing must agree", func(t *testing.T) {
		def := comp.NewModelDef(comp.Float64)
		tl, err := clock.NewFixed(1, 1, 2)
		require.NoError(t, err)
		require.NoError(t, def.SetTimeline(tl))

		src := comp.NewLeaf("src", "t")
		require.NoError(t, src.AddVariable(comp.VariableDef{Name: "output"}))
		require.NoError(t, def.AddComponent(src))

		dst := comp.NewLeaf("dst", "t")
		require.NoError(t, dst.AddParameter(comp.ParameterDef{Name: "input", Dimensions: []string{comp.TimeDimension}}))
		require.NoError(t, def.AddComponent(dst))

		require.NoError(t, def.Connect(comp.InternalParameterConnection{
			SrcComponent: "src", SrcVariable: "output",
			DstComponent: "dst", DstParameter: "input",
		}))

		_, err = Build(context.Background(), def)
		assert.ErrorIs(t, err, comp.ErrDimensionMismatch)
	})

	spatial := func(t *testing.T, srcUnit, dstUnit, srcDim, dstDim string) *comp.ModelDef {
		def := comp.NewModelDef(comp.Float64)
		tl, err := clock.NewFixed(1, 1, 2)
		require.NoError(t, err)
		require.NoError(t, def.SetTimeline(tl))
		require.NoError(t, def.SetDimensionRange("regions", 3))
		require.NoError(t, def.SetDimensionRange("zones", 3))
		require.NoError(t, def.SetDimensionRange("sectors", 4))

		src := comp.NewLeaf("src", "t")
		require.NoError(t, src.AddVariable(comp.VariableDef{
			Name: "output", Dimensions: []string{comp.TimeDimension, srcDim}, Unit: srcUnit,
		}))
		require.NoError(t, def.AddComponent(src))

		dst := comp.NewLeaf("dst", "t")
		require.NoError(t, dst.AddParameter(comp.ParameterDef{
			Name: "input", Dimensions: []string{comp.TimeDimension, dstDim}, Unit: dstUnit,
		}))
		require.NoError(t, def.AddComponent(dst))
		return def
	}

	t.Run("unit mismatch", func(t *testing.T) {
		def := spatial(t, "tons", "kg", "regions", "regions")
		connectSrcDst(t, def, comp.InternalParameterConnection{})

		_, err := Build(context.Background(), def)
		assert.ErrorIs(t, err, comp.ErrUnitMismatch)
	})

	t.Run("unit mismatch tolerated with ignore units", func(t *testing.T) {
		def := spatial(t, "tons", "kg", "regions", "regions")
		connectSrcDst(t, def, comp.InternalParameterConnection{IgnoreUnits: true})

		_, err := Build(context.Background(), def)
		require.NoError(t, err)
	})

	t.Run("dimension name mismatch", func(t *testing.T) {
		def := spatial(t, "", "", "regions", "zones")
		connectSrcDst(t, def, comp.InternalParameterConnection{})

		_, err := Build(context.Background(), def)
		assert.ErrorIs(t, err, comp.ErrDimensionMismatch)
	})

	t.Run("name mismatch with aligned sizes accepted under ignore units", func(t *testing.T) {
		def := spatial(t, "", "", "regions", "zones")
		connectSrcDst(t, def, comp.InternalParameterConnection{IgnoreUnits: true})

		_, err := Build(context.Background(), def)
		require.NoError(t, err)
	})

	t.Run("dimension size mismatch never accepted", func(t *testing.T) {
		def := spatial(t, "", "", "regions", "sectors")
		connectSrcDst(t, def, comp.InternalParameterConnection{IgnoreUnits: true})

		_, err := Build(context.Background(), def)
		assert.ErrorIs(t, err, comp.ErrDimensionMismatch)
	})
}

func TestBuild_UnknownDimension(t *testing.T) {
	t.Parallel()

	def := comp.NewModelDef(comp.Float64)
	tl, err := clock.NewFixed(1, 1, 2)
	require.NoError(t, err)
	require.NoError(t, def.SetTimeline(tl))

	leaf := comp.NewLeaf("a", "t")
	require.NoError(t, leaf.AddVariable(comp.VariableDef{Name: "v", Dimensions: []string{"nowhere"}}))
	require.NoError(t, def.AddComponent(leaf))

	_, err = Build(context.Background(), def)
	assert.ErrorIs(t, err, comp.ErrUnknownDimension)
}

func TestBuild_ShortSourceWindow(t *testing.T) {
	t.Parallel()

	// src runs 2020..2070 (positions 3..8) inside a 2000..2090 model; dst
	// covers the full window, so positions 1-2 and 9-10 are uncovered.
	shorten := func(t *testing.T, def *comp.ModelDef) {
		t.Helper()
		src, ok := def.Component("src")
		require.True(t, ok)
		first, last := 2020, 2070
		src.SetWindow(&first, &last)
	}

	t.Run("no backup fails", func(t *testing.T) {
		def := newTestDef(t)
		shorten(t, def)
		connectSrcDst(t, def, comp.InternalParameterConnection{})

		_, err := Build(context.Background(), def)
		require.ErrorIs(t, err, comp.ErrMissingBackup)
		assert.Contains(t, err.Error(), "needs 10 backup values")
	})

	t.Run("backup must cover the destination window", func(t *testing.T) {
		def := newTestDef(t)
		shorten(t, def)
		connectSrcDst(t, def, comp.InternalParameterConnection{Backup: []float64{1, 2}})

		_, err := Build(context.Background(), def)
		assert.ErrorIs(t, err, comp.ErrMissingBackup)
	})

	t.Run("binding reads source inside the window and backup outside", func(t *testing.T) {
		def := newTestDef(t)
		shorten(t, def)
		backup := []float64{101, 102, 103, 104, 105, 106, 107, 108, 109, 110}
		connectSrcDst(t, def, comp.InternalParameterConnection{Backup: backup})

		inst, err := Build(context.Background(), def)
		require.NoError(t, err)

		src, err := inst.Lookup("src")
		require.NoError(t, err)
		require.Equal(t, 3, src.FirstPos)
		require.Equal(t, 8, src.LastPos)
		for p := src.FirstPos; p <= src.LastPos; p++ {
			src.Vars["output"].Arr.SetFlat(float64(p), p-src.FirstPos)
		}

		dst, err := inst.Lookup("dst")
		require.NoError(t, err)
		binding := dst.Bindings["input"]
		assert.Equal(t, 101.0, binding.StepAt(1, 0))
		assert.Equal(t, 102.0, binding.StepAt(2, 0))
		assert.Equal(t, 3.0, binding.StepAt(3, 0))
		assert.Equal(t, 8.0, binding.StepAt(8, 0))
		assert.Equal(t, 109.0, binding.StepAt(9, 0))
		assert.Equal(t, 110.0, binding.StepAt(10, 0))
	})
}

func TestBuild_Windows(t *testing.T) {
	t.Parallel()

	t.Run("label not on the timeline", func(t *testing.T) {
		def := newTestDef(t)
		src, _ := def.Component("src")
		first := 2005
		src.SetWindow(&first, nil)

		_, err := Build(context.Background(), def)
		assert.ErrorContains(t, err, "not on the model timeline")
	})

	t.Run("child window escaping the parent", func(t *testing.T) {
		def := comp.NewModelDef(comp.Float64)
		tl, err := clock.NewFixed(2000, 10, 2090)
		require.NoError(t, err)
		require.NoError(t, def.SetTimeline(tl))

		top := comp.NewComposite("top")
		topFirst, topLast := 2020, 2050
		top.SetWindow(&topFirst, &topLast)

		inner := comp.NewLeaf("inner", "t")
		innerFirst := 2000
		inner.SetWindow(&innerFirst, nil)
		require.NoError(t, top.AddChild(inner))
		require.NoError(t, def.AddComponent(top))

		_, err = Build(context.Background(), def)
		assert.ErrorContains(t, err, "outside enclosing window")
	})

	t.Run("composite window is the union of its children", func(t *testing.T) {
		def := comp.NewModelDef(comp.Float64)
		tl, err := clock.NewFixed(2000, 10, 2090)
		require.NoError(t, err)
		require.NoError(t, def.SetTimeline(tl))

		top := comp.NewComposite("top")
		a := comp.NewLeaf("a", "t")
		aFirst, aLast := 2020, 2040
		a.SetWindow(&aFirst, &aLast)
		b := comp.NewLeaf("b", "t")
		bFirst, bLast := 2030, 2070
		b.SetWindow(&bFirst, &bLast)
		require.NoError(t, top.AddChild(a))
		require.NoError(t, top.AddChild(b))
		require.NoError(t, def.AddComponent(top))

		inst, err := Build(context.Background(), def)
		require.NoError(t, err)

		topInst, err := inst.Lookup("top")
		require.NoError(t, err)
		assert.Equal(t, 3, topInst.FirstPos)
		assert.Equal(t, 8, topInst.LastPos)
	})
}

func TestBuild_SameStepCycles(t *testing.T) {
	t.Parallel()

	cyclic := func(t *testing.T, offset int) *comp.ModelDef {
		def := comp.NewModelDef(comp.Float64)
		tl, err := clock.NewFixed(1, 1, 3)
		require.NoError(t, err)
		require.NoError(t, def.SetTimeline(tl))

		for _, name := range []string{"a", "b"} {
			leaf := comp.NewLeaf(name, "t")
			require.NoError(t, leaf.AddParameter(comp.ParameterDef{Name: "input", Dimensions: []string{comp.TimeDimension}}))
			require.NoError(t, leaf.AddVariable(comp.VariableDef{Name: "output", Dimensions: []string{comp.TimeDimension}}))
			require.NoError(t, def.AddComponent(leaf))
		}

		require.NoError(t, def.Connect(comp.InternalParameterConnection{
			SrcComponent: "a", SrcVariable: "output",
			DstComponent: "b", DstParameter: "input",
		}))
		backup := []float64{0, 0, 0}
		require.NoError(t, def.Connect(comp.InternalParameterConnection{
			SrcComponent: "b", SrcVariable: "output",
			DstComponent: "a", DstParameter: "input",
			Offset:       offset, Backup: backup,
		}))
		return def
	}

	t.Run("zero-offset cycle rejected", func(t *testing.T) {
		_, err := Build(context.Background(), cyclic(t, 0))
		assert.ErrorIs(t, err, comp.ErrSameStepCycle)
	})

	t.Run("lagged edge breaks the cycle", func(t *testing.T) {
		_, err := Build(context.Background(), cyclic(t, 1))
		require.NoError(t, err)
	})
}

func TestBuild_Float32Policy(t *testing.T) {
	t.Parallel()

	def := comp.NewModelDef(comp.Float32)
	tl, err := clock.NewFixed(1, 1, 2)
	require.NoError(t, err)
	require.NoError(t, def.SetTimeline(tl))

	leaf := comp.NewLeaf("a", "t")
	require.NoError(t, leaf.AddParameter(comp.ParameterDef{Name: "rate", Type: cty.Number}))
	require.NoError(t, def.AddComponent(leaf))
	require.NoError(t, def.SetParam("a", "rate", 1.0/3.0))

	inst, err := Build(context.Background(), def)
	require.NoError(t, err)

	a, err := inst.Lookup("a")
	require.NoError(t, err)
	assert.Equal(t, float64(float32(1.0/3.0)), a.Bindings["rate"].Scalar())
}

func TestBuild_DoesNotMutateDefinition(t *testing.T) {
	t.Parallel()

	def := comp.NewModelDef(comp.Float64)
	tl, err := clock.NewFixed(1, 1, 2)
	require.NoError(t, err)
	require.NoError(t, def.SetTimeline(tl))

	leaf := comp.NewLeaf("a", "t")
	require.NoError(t, leaf.AddParameter(comp.ParameterDef{Name: "rate", Type: cty.Number}))
	require.NoError(t, def.AddComponent(leaf))
	require.NoError(t, def.SetGlobalParam("rate", 1.0))

	before := def.Version()
	_, err = Build(context.Background(), def)
	require.NoError(t, err)
	assert.Equal(t, before, def.Version())
}

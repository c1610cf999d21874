package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/composim/builder"
	"github.com/vk/composim/clock"
	"github.com/vk/composim/comp"
)

// chain returns a built two-leaf model: "producer" emits its step index,
// "consumer" copies it to its own output in the same position.
func chain(t *testing.T) (*comp.ModelDef, *comp.ModelInstance) {
	t.Helper()
	def := comp.NewModelDef(comp.Float64)
	tl, err := clock.NewFixed(2000, 10, 2040)
	require.NoError(t, err)
	require.NoError(t, def.SetTimeline(tl))

	producer := comp.NewLeaf("producer", "t")
	require.NoError(t, producer.AddVariable(comp.VariableDef{Name: "output", Dimensions: []string{comp.TimeDimension}}))
	require.NoError(t, producer.SetHooks(nil, func(ctx context.Context, s *comp.State, ts *clock.Timestep) error {
		s.Vars.SetStep("output", ts, float64(ts.Index()))
		return nil
	}))
	require.NoError(t, def.AddComponent(producer))

	consumer := comp.NewLeaf("consumer", "t")
	require.NoError(t, consumer.AddParameter(comp.ParameterDef{Name: "input", Dimensions: []string{comp.TimeDimension}}))
	require.NoError(t, consumer.AddVariable(comp.VariableDef{Name: "output", Dimensions: []string{comp.TimeDimension}}))
	require.NoError(t, consumer.SetHooks(nil, func(ctx context.Context, s *comp.State, ts *clock.Timestep) error {
		s.Vars.SetStep("output", ts, s.Params.Step("input", ts))
		return nil
	}))
	require.NoError(t, def.AddComponent(consumer))

	require.NoError(t, def.Connect(comp.InternalParameterConnection{
		SrcComponent: "producer", SrcVariable: "output",
		DstComponent: "consumer", DstParameter: "input",
	}))

	inst, err := builder.Build(context.Background(), def)
	require.NoError(t, err)
	return def, inst
}

func TestRun_SameStepChaining(t *testing.T) {
	t.Parallel()

	_, inst := chain(t)
	require.NoError(t, Run(context.Background(), inst))

	// The consumer sees the producer's value written earlier in the same
	// position, at every position.
	for pos := 1; pos <= 5; pos++ {
		got, err := inst.ResultAt("consumer", "output", pos)
		require.NoError(t, err)
		assert.Equal(t, float64(pos), got)
	}
}

func TestRun_InstanceIsRerunnable(t *testing.T) {
	t.Parallel()

	_, inst := chain(t)
	require.NoError(t, Run(context.Background(), inst))

	// A second run over the same built instance starts from position 1
	// again and reproduces the same results.
	require.NoError(t, Run(context.Background(), inst))

	for pos := 1; pos <= 5; pos++ {
		got, err := inst.ResultAt("consumer", "output", pos)
		require.NoError(t, err)
		assert.Equal(t, float64(pos), got)
	}
}

func TestRun_WindowSkipping(t *testing.T) {
	t.Parallel()

	def := comp.NewModelDef(comp.Float64)
	tl, err := clock.NewFixed(2000, 10, 2040)
	require.NoError(t, err)
	require.NoError(t, def.SetTimeline(tl))

	var seen []int
	leaf := comp.NewLeaf("short", "t")
	first, last := 2010, 2030
	leaf.SetWindow(&first, &last)
	require.NoError(t, leaf.AddVariable(comp.VariableDef{Name: "output", Dimensions: []string{comp.TimeDimension}}))
	require.NoError(t, leaf.SetHooks(nil, func(ctx context.Context, s *comp.State, ts *clock.Timestep) error {
		seen = append(seen, ts.Label())
		s.Vars.SetStep("output", ts, 1)
		return nil
	}))
	require.NoError(t, def.AddComponent(leaf))

	inst, err := builder.Build(context.Background(), def)
	require.NoError(t, err)
	require.NoError(t, Run(context.Background(), inst))

	assert.Equal(t, []int{2010, 2020, 2030}, seen)
}

func TestRun_InitRunsOnceFirst(t *testing.T) {
	t.Parallel()

	def := comp.NewModelDef(comp.Float64)
	tl, err := clock.NewFixed(1, 1, 3)
	require.NoError(t, err)
	require.NoError(t, def.SetTimeline(tl))

	inits, steps := 0, 0
	leaf := comp.NewLeaf("a", "t")
	require.NoError(t, leaf.AddVariable(comp.VariableDef{Name: "level"}))
	init := func(ctx context.Context, s *comp.State) error {
		inits++
		s.Vars.SetScalar("level", 10)
		return nil
	}
	step := func(ctx context.Context, s *comp.State, ts *clock.Timestep) error {
		steps++
		s.Vars.SetScalar("level", s.Vars.Scalar("level")+1)
		return nil
	}
	require.NoError(t, leaf.SetHooks(init, step))
	require.NoError(t, def.AddComponent(leaf))

	inst, err := builder.Build(context.Background(), def)
	require.NoError(t, err)
	require.NoError(t, Run(context.Background(), inst))

	assert.Equal(t, 1, inits)
	assert.Equal(t, 3, steps)

	got, err := inst.Result("a", "level")
	require.NoError(t, err)
	assert.Equal(t, 13.0, got.AtFlat(0))
}

func TestRun_HookErrorNamesComponentAndPosition(t *testing.T) {
	t.Parallel()

	def := comp.NewModelDef(comp.Float64)
	tl, err := clock.NewFixed(1, 1, 3)
	require.NoError(t, err)
	require.NoError(t, def.SetTimeline(tl))

	boom := errors.New("boom")
	leaf := comp.NewLeaf("fragile", "t")
	require.NoError(t, leaf.AddVariable(comp.VariableDef{Name: "output", Dimensions: []string{comp.TimeDimension}}))
	require.NoError(t, leaf.SetHooks(nil, func(ctx context.Context, s *comp.State, ts *clock.Timestep) error {
		if ts.Index() == 2 {
			return boom
		}
		s.Vars.SetStep("output", ts, 1)
		return nil
	}))
	require.NoError(t, def.AddComponent(leaf))

	inst, err := builder.Build(context.Background(), def)
	require.NoError(t, err)

	runErr := Run(context.Background(), inst)
	require.ErrorIs(t, runErr, boom)
	assert.Contains(t, runErr.Error(), `component "fragile" at position 2`)
}

func TestRun_HookPanicRecovered(t *testing.T) {
	t.Parallel()

	def := comp.NewModelDef(comp.Float64)
	tl, err := clock.NewFixed(1, 1, 2)
	require.NoError(t, err)
	require.NoError(t, def.SetTimeline(tl))

	leaf := comp.NewLeaf("fragile", "t")
	require.NoError(t, leaf.AddVariable(comp.VariableDef{Name: "output", Dimensions: []string{comp.TimeDimension}}))
	require.NoError(t, leaf.SetHooks(nil, func(ctx context.Context, s *comp.State, ts *clock.Timestep) error {
		// Reading an undeclared variable panics in the view; the engine
		// must surface it as an error.
		s.Vars.Scalar("nope")
		return nil
	}))
	require.NoError(t, def.AddComponent(leaf))

	inst, err := builder.Build(context.Background(), def)
	require.NoError(t, err)

	runErr := Run(context.Background(), inst)
	require.Error(t, runErr)
	assert.Contains(t, runErr.Error(), `component "fragile" at position 1 panicked`)
}

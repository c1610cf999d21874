// Package source provides a component emitting a linear ramp over time,
// useful as an exogenous driver for stocks and gains.
package source

import (
	"context"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/composim/clock"
	"github.com/vk/composim/comp"
	"github.com/vk/composim/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

func zero() *cty.Value {
	v := cty.Zero
	return &v
}

// Step writes output = start + growth * (step index - 1) for the current
// timestep.
func Step(ctx context.Context, s *comp.State, ts *clock.Timestep) error {
	start := s.Params.Scalar("start")
	growth := s.Params.Scalar("growth")
	s.Vars.SetStep("output", ts, start+growth*float64(ts.Index()-1))
	return nil
}

// Register registers the source component type.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.ComponentType{
		Name:        "source",
		Description: "Emits a linear ramp starting at 'start' and growing by 'growth' each step.",
		Parameters: []comp.ParameterDef{
			{Name: "start", Type: cty.Number, Description: "value at the first step"},
			{Name: "growth", Type: cty.Number, Default: zero(), Description: "increment per step"},
		},
		Variables: []comp.VariableDef{
			{Name: "output", Dimensions: []string{comp.TimeDimension}},
		},
		Step: Step,
	})
}

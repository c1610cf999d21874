// Package gain provides a component scaling an input series by a constant
// factor.
package gain

import (
	"context"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/composim/clock"
	"github.com/vk/composim/comp"
	"github.com/vk/composim/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

func one() *cty.Value {
	v := cty.NumberIntVal(1)
	return &v
}

// Step writes output[t] = factor * input[t].
func Step(ctx context.Context, s *comp.State, ts *clock.Timestep) error {
	s.Vars.SetStep("output", ts, s.Params.Scalar("factor")*s.Params.Step("input", ts))
	return nil
}

// Register registers the gain component type.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.ComponentType{
		Name:        "gain",
		Description: "Multiplies an input series by a constant factor.",
		Parameters: []comp.ParameterDef{
			{Name: "factor", Type: cty.Number, Default: one(), Description: "scale applied to the input"},
			{Name: "input", Dimensions: []string{comp.TimeDimension}, Description: "series to scale"},
		},
		Variables: []comp.VariableDef{
			{Name: "output", Dimensions: []string{comp.TimeDimension}},
		},
		Step: Step,
	})
}

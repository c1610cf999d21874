// Package stock provides an accumulator component: a level that starts at
// an initial value and integrates an inflow series step by step.
package stock

import (
	"context"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/composim/clock"
	"github.com/vk/composim/comp"
	"github.com/vk/composim/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Step computes level[t] = level[t-1] + inflow[t], with level[1] seeded
// from the initial parameter.
func Step(ctx context.Context, s *comp.State, ts *clock.Timestep) error {
	inflow := s.Params.Step("inflow", ts)
	if ts.IsFirst() {
		s.Vars.SetStep("level", ts, s.Params.Scalar("initial")+inflow)
		return nil
	}
	prev := s.Vars.StepOffset("level", ts, -1)
	s.Vars.SetStep("level", ts, prev+inflow)
	return nil
}

// Register registers the stock component type.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.ComponentType{
		Name:        "stock",
		Description: "Accumulates an inflow series onto an initial level.",
		Parameters: []comp.ParameterDef{
			{Name: "initial", Type: cty.Number, Description: "level before the first step"},
			{Name: "inflow", Dimensions: []string{comp.TimeDimension}, Description: "amount added each step"},
		},
		Variables: []comp.VariableDef{
			{Name: "level", Dimensions: []string{comp.TimeDimension}},
		},
		Step: Step,
	})
}

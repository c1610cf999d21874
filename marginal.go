package composim

import (
	"context"
	"fmt"

	"github.com/vk/composim/comp"
)

// MarginalModel pairs a base model with a marginal copy perturbed by
// delta; the difference of their results divided by delta approximates a
// derivative. The marginal definition is a total deep clone taken at
// construction, so the pair never shares mutable storage.
type MarginalModel struct {
	Base     *Model
	Marginal *Model
	Delta    float64
}

// NewMarginalModel clones base's definition into the marginal model. The
// caller applies the perturbation to Marginal before running.
func NewMarginalModel(base *Model, delta float64) (*MarginalModel, error) {
	if delta == 0 {
		return nil, fmt.Errorf("marginal delta must be non-zero")
	}
	return &MarginalModel{
		Base:     base,
		Marginal: FromDef(base.Def().Clone()),
		Delta:    delta,
	}, nil
}

// Run executes base and marginal independently.
func (mm *MarginalModel) Run(ctx context.Context) error {
	if err := mm.Base.Run(ctx); err != nil {
		return fmt.Errorf("base model: %w", err)
	}
	if err := mm.Marginal.Run(ctx); err != nil {
		return fmt.Errorf("marginal model: %w", err)
	}
	return nil
}

// Result returns (marginal - base) / delta elementwise. Differing result
// shapes are a configuration error, not reconciled here.
func (mm *MarginalModel) Result(component, variable string) (*comp.Array, error) {
	base, err := mm.Base.Result(component, variable)
	if err != nil {
		return nil, err
	}
	marginal, err := mm.Marginal.Result(component, variable)
	if err != nil {
		return nil, err
	}
	if !base.SameShape(marginal) {
		return nil, fmt.Errorf("result shapes differ for %s.%s: base %v vs marginal %v",
			component, variable, base.Shape(), marginal.Shape())
	}

	out := base.Clone()
	bv, mv, ov := base.Values(), marginal.Values(), out.Values()
	for i := range ov {
		ov[i] = (mv[i] - bv[i]) / mm.Delta
	}
	return out, nil
}

package comp

import (
	"context"
	"fmt"

	"github.com/vk/composim/clock"
)

// InitFunc is a leaf's one-time state-seeding hook, invoked at the
// component's first active position before its first step.
type InitFunc func(ctx context.Context, s *State) error

// StepFunc is a leaf's per-step computation hook.
type StepFunc func(ctx context.Context, s *State, ts *clock.Timestep) error

// State bundles the three views a hook receives. View accessors panic with
// a descriptive message on unknown names or shape misuse; the engine turns
// such panics into run errors naming the component and position.
type State struct {
	Params *Params
	Vars   *Vars
	Dims   *Dims
}

// Params is the read-only parameter view of one leaf instance.
type Params struct {
	ci *ComponentInstance
}

func (p *Params) binding(name string) *Binding {
	b, ok := p.ci.Bindings[name]
	if !ok {
		panic(fmt.Sprintf("component %q has no parameter %q", p.ci.Name, name))
	}
	return b
}

// Scalar reads a non-timed scalar parameter.
func (p *Params) Scalar(name string) float64 {
	b := p.binding(name)
	if b.Timed {
		panic(fmt.Sprintf("parameter %q of %q is time-indexed, use Step", name, p.ci.Name))
	}
	return b.Scalar()
}

// At reads a non-timed dimensioned parameter at the 1-based dimension
// indices idx.
func (p *Params) At(name string, idx ...int) float64 {
	b := p.binding(name)
	if b.Timed {
		panic(fmt.Sprintf("parameter %q of %q is time-indexed, use StepAt", name, p.ci.Name))
	}
	return b.AtFlat(p.flat(name, b.Stride, idx))
}

// Step reads a time-indexed parameter at the current timestep.
func (p *Params) Step(name string, ts *clock.Timestep) float64 {
	b := p.binding(name)
	if !b.Timed {
		return b.Scalar()
	}
	return b.StepAt(ts.Position(), 0)
}

// StepAt reads a time-indexed dimensioned parameter at the current
// timestep and 1-based dimension indices idx.
func (p *Params) StepAt(name string, ts *clock.Timestep, idx ...int) float64 {
	b := p.binding(name)
	if !b.Timed {
		return b.AtFlat(p.flat(name, b.Stride, idx))
	}
	return b.StepAt(ts.Position(), p.flat(name, b.Stride, idx))
}

func (p *Params) flat(name string, stride int, idx []int) int {
	return flatIndex(p.ci, name, stride, idx)
}

// Vars is the variable view of one leaf instance.
type Vars struct {
	ci *ComponentInstance
}

func (v *Vars) slot(name string) *VarSlot {
	s, ok := v.ci.Vars[name]
	if !ok {
		panic(fmt.Sprintf("component %q has no variable %q", v.ci.Name, name))
	}
	return s
}

// Scalar reads a non-timed scalar variable.
func (v *Vars) Scalar(name string) float64 {
	s := v.slot(name)
	if s.Timed {
		panic(fmt.Sprintf("variable %q of %q is time-indexed, use Step", name, v.ci.Name))
	}
	return s.Arr.AtFlat(0)
}

// SetScalar writes a non-timed scalar variable.
func (v *Vars) SetScalar(name string, value float64) {
	s := v.slot(name)
	if s.Timed {
		panic(fmt.Sprintf("variable %q of %q is time-indexed, use SetStep", name, v.ci.Name))
	}
	s.Arr.SetFlat(value, 0)
}

func (v *Vars) row(s *VarSlot, ts *clock.Timestep, delta int) int {
	row := ts.Index() - 1 + delta
	if row < 0 || row >= s.Arr.Len()/s.Stride {
		panic(fmt.Sprintf("timestep index %d outside window of %q", row+1, v.ci.Name))
	}
	return row
}

// Step reads a time-indexed variable at the current timestep.
func (v *Vars) Step(name string, ts *clock.Timestep) float64 {
	s := v.slot(name)
	return s.Arr.AtFlat(v.row(s, ts, 0) * s.Stride)
}

// SetStep writes a time-indexed variable at the current timestep.
func (v *Vars) SetStep(name string, ts *clock.Timestep, value float64) {
	s := v.slot(name)
	s.Arr.SetFlat(value, v.row(s, ts, 0)*s.Stride)
}

// StepOffset reads a time-indexed variable delta steps away from the
// current timestep; delta -1 is the previous step's value.
func (v *Vars) StepOffset(name string, ts *clock.Timestep, delta int) float64 {
	s := v.slot(name)
	return s.Arr.AtFlat(v.row(s, ts, delta) * s.Stride)
}

// StepAt reads a time-indexed dimensioned variable at 1-based dimension
// indices idx.
func (v *Vars) StepAt(name string, ts *clock.Timestep, idx ...int) float64 {
	s := v.slot(name)
	return s.Arr.AtFlat(v.row(s, ts, 0)*s.Stride + flatIndex(v.ci, name, s.Stride, idx))
}

// SetStepAt writes a time-indexed dimensioned variable at 1-based dimension
// indices idx.
func (v *Vars) SetStepAt(name string, ts *clock.Timestep, value float64, idx ...int) {
	s := v.slot(name)
	s.Arr.SetFlat(value, v.row(s, ts, 0)*s.Stride+flatIndex(v.ci, name, s.Stride, idx))
}

// Dims is the dimension view: explicit lookup of the 1-based index list for
// a dimension name.
type Dims struct {
	ci *ComponentInstance
}

// Get returns the 1..n index list for the named dimension.
func (d *Dims) Get(name string) []int {
	idx, ok := d.ci.DimIdx[name]
	if !ok {
		panic(fmt.Sprintf("component %q does not use dimension %q", d.ci.Name, name))
	}
	out := make([]int, len(idx))
	copy(out, idx)
	return out
}

// Len returns the size of the named dimension.
func (d *Dims) Len(name string) int {
	idx, ok := d.ci.DimIdx[name]
	if !ok {
		panic(fmt.Sprintf("component %q does not use dimension %q", d.ci.Name, name))
	}
	return len(idx)
}

// flatIndex folds 1-based per-dimension indices into a flat row offset.
// The item's space dimension sizes are recovered from the instance's
// DimIdx map via the definition's declared dimension names.
func flatIndex(ci *ComponentInstance, item string, stride int, idx []int) int {
	var names []string
	if v, ok := ci.Def.Variable(item); ok {
		names = v.SpaceDimensions()
	} else if p, ok := ci.Def.Parameter(item); ok {
		names = p.SpaceDimensions()
	}
	if len(idx) != len(names) {
		panic(fmt.Sprintf("item %q of %q has %d dimensions, got %d indices", item, ci.Name, len(names), len(idx)))
	}
	if len(idx) == 0 {
		return 0
	}
	off := 0
	for i, x := range idx {
		size := len(ci.DimIdx[names[i]])
		if x < 1 || x > size {
			panic(fmt.Sprintf("index %d out of range 1..%d for dimension %q of %q", x, size, names[i], ci.Name))
		}
		off = off*size + (x - 1)
	}
	if off >= stride {
		panic(fmt.Sprintf("flat index %d exceeds row stride %d for %q", off, stride, item))
	}
	return off
}

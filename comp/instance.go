package comp

import (
	"fmt"
	"strings"

	"github.com/vk/composim/clock"
)

// VarSlot is a variable's allocated storage. Timed slots hold one row per
// window position; Stride is the element count of one row.
type VarSlot struct {
	Arr    *Array
	Timed  bool
	Stride int
}

// BindingKind tags how a parameter reads its value.
type BindingKind int

const (
	// BindOwn reads the parameter's own storage (literal or default).
	BindOwn BindingKind = iota
	// BindConnected reads another component's variable storage, optionally
	// falling back to backup rows outside the source window.
	BindConnected
	// BindExternal reads the composite's shared external-parameter store.
	BindExternal
)

// Binding is a parameter's resolved (array, time-offset) binding fixed at
// build.
type Binding struct {
	Kind  BindingKind
	Arr   *Array
	Timed bool

	// Stride is the element count per time row; equal to Arr.Len() for
	// non-timed bindings.
	Stride int

	// RowOrigin is the global position of Arr's first row (timed only).
	RowOrigin int
	// RowCount is the number of rows Arr holds (timed only).
	RowCount int

	// Offset shifts reads: position p reads the source row for p-Offset.
	Offset int

	// Backup covers the destination's full window; BackupOrigin is the
	// global position of its first row.
	Backup       *Array
	BackupOrigin int
}

// Scalar reads a non-timed scalar binding.
func (b *Binding) Scalar() float64 { return b.Arr.AtFlat(0) }

// AtFlat reads a non-timed binding at the flat element index.
func (b *Binding) AtFlat(flat int) float64 { return b.Arr.AtFlat(flat) }

// StepAt reads a timed binding at global position pos and flat element
// index within the row. Positions the source does not cover read backup.
func (b *Binding) StepAt(pos, flat int) float64 {
	row := pos - b.Offset - b.RowOrigin
	if row >= 0 && row < b.RowCount {
		return b.Arr.AtFlat(row*b.Stride + flat)
	}
	if b.Backup == nil {
		panic(fmt.Sprintf("position %d outside source window and no backup bound", pos))
	}
	return b.Backup.AtFlat((pos-b.BackupOrigin)*b.Stride + flat)
}

// ComponentInstance is the built counterpart of a ComponentDef: allocated
// storage, resolved bindings, and a clock scoped to the component's active
// window. Like the definition, it is a tagged Leaf/Composite variant.
type ComponentInstance struct {
	Name string
	Def  *ComponentDef
	Kind Kind

	FirstPos int
	LastPos  int
	Clock    *clock.Clock

	// Leaf only.
	Vars     map[string]*VarSlot
	Bindings map[string]*Binding
	DimIdx   map[string][]int
	Init     InitFunc
	Step     StepFunc

	// Composite only.
	Children   map[string]*ComponentInstance
	ChildOrder []string

	state *State
}

// Active reports whether the global position pos falls inside the
// component's window.
func (ci *ComponentInstance) Active(pos int) bool {
	return pos >= ci.FirstPos && pos <= ci.LastPos
}

// State returns the hook view bundle for a leaf instance.
func (ci *ComponentInstance) State() *State {
	if ci.state == nil {
		ci.state = &State{
			Params: &Params{ci: ci},
			Vars:   &Vars{ci: ci},
			Dims:   &Dims{ci: ci},
		}
	}
	return ci.state
}

// ModelInstance is the built, runnable graph plus a back-reference to the
// definition it was compiled from.
type ModelInstance struct {
	def        *ModelDef
	defVersion uint64

	Root     *ComponentInstance
	Timeline clock.Timeline
}

// NewModelInstance records the definition version so staleness is
// detectable after later mutations.
func NewModelInstance(def *ModelDef, root *ComponentInstance) *ModelInstance {
	return &ModelInstance{
		def:        def,
		defVersion: def.Version(),
		Root:       root,
		Timeline:   def.Timeline(),
	}
}

// Def returns the source definition.
func (mi *ModelInstance) Def() *ModelDef { return mi.def }

// Fresh reports whether the definition is unchanged since the build.
func (mi *ModelInstance) Fresh() bool { return mi.def.Version() == mi.defVersion }

// Lookup resolves a dotted component path from the root.
func (mi *ModelInstance) Lookup(path string) (*ComponentInstance, error) {
	cur := mi.Root
	for _, seg := range strings.Split(path, ".") {
		if cur.Kind != Composite {
			return nil, fmt.Errorf("%w: %q is a leaf, cannot descend to %q", ErrUnknownComponent, cur.Name, seg)
		}
		next, ok := cur.Children[seg]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownComponent, seg)
		}
		cur = next
	}
	return cur, nil
}

// Result returns the full stored array for (component, variable).
func (mi *ModelInstance) Result(component, variable string) (*Array, error) {
	ci, err := mi.Lookup(component)
	if err != nil {
		return nil, err
	}
	slot, ok := ci.Vars[variable]
	if !ok {
		return nil, fmt.Errorf("component %q has no variable %q", component, variable)
	}
	return slot.Arr, nil
}

// ResultAt returns one value of a time-indexed variable at the global
// 1-based position pos.
func (mi *ModelInstance) ResultAt(component, variable string, pos int) (float64, error) {
	ci, err := mi.Lookup(component)
	if err != nil {
		return 0, err
	}
	slot, ok := ci.Vars[variable]
	if !ok {
		return 0, fmt.Errorf("component %q has no variable %q", component, variable)
	}
	if !slot.Timed {
		return 0, fmt.Errorf("variable %s.%s is not time-indexed", component, variable)
	}
	row := pos - ci.FirstPos
	if row < 0 || row >= slot.Arr.Len()/slot.Stride {
		return 0, fmt.Errorf("position %d outside window of %s", pos, component)
	}
	return slot.Arr.AtFlat(row * slot.Stride), nil
}

// ResultDims returns the dimension-name list of a component's parameter or
// variable, for downstream consumers deciding shape semantics.
func (mi *ModelInstance) ResultDims(component, item string) ([]string, error) {
	ci, err := mi.Lookup(component)
	if err != nil {
		return nil, err
	}
	if v, ok := ci.Def.Variable(item); ok {
		return append([]string(nil), v.Dimensions...), nil
	}
	if p, ok := ci.Def.Parameter(item); ok {
		return append([]string(nil), p.Dimensions...), nil
	}
	return nil, fmt.Errorf("component %q has no item %q", component, item)
}

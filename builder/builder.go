// Package builder compiles a ModelDef into an executable instance graph.
// The build runs in passes: instantiate components and allocate storage,
// resolve loose values, bind connections, then validate same-step ordering.
// It either returns a complete ModelInstance or an error, leaving the
// definition untouched.
package builder

import (
	"context"
	"fmt"

	"github.com/vk/composim/clock"
	"github.com/vk/composim/comp"
	"github.com/vk/composim/internal/ctxlog"
)

// Build compiles def into a runnable ModelInstance.
func Build(ctx context.Context, def *comp.ModelDef) (*comp.ModelInstance, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: starting instance graph construction.")

	tl := def.Timeline()
	if tl == nil {
		return nil, comp.ErrNoTimeline
	}

	b := &build{def: def, timeline: tl}

	// First pass: resolve unqualified loose values to a single owner each.
	if err := b.resolveLoose(); err != nil {
		return nil, err
	}
	logger.Debug("Build: loose value resolution complete.", "count", len(b.loose))

	// Second pass: instantiate the graph and allocate storage.
	root, err := b.instantiate(ctx, def.Root(), 1, tl.Len())
	if err != nil {
		return nil, err
	}
	logger.Debug("Build: component instantiation complete.")

	// Third pass: resolve every connection to a concrete binding.
	if err := b.bind(ctx, def.Root(), root); err != nil {
		return nil, err
	}
	logger.Debug("Build: connection resolution complete.")

	// Final validation: reject cyclic same-step wiring.
	if err := b.checkSameStepCycles(def.Root()); err != nil {
		return nil, err
	}
	logger.Debug("Build: same-step cycle check passed.")

	logger.Info("Build: instance graph construction successful.")
	return comp.NewModelInstance(def, root), nil
}

type build struct {
	def      *comp.ModelDef
	timeline clock.Timeline

	// loose maps "path/parameter" to the unqualified value bound to it.
	loose map[string]looseValue
}

type looseValue struct {
	name string // the unqualified name, for error reporting
}

// resolveLoose searches every leaf for each unqualified parameter name.
// Zero owners and multiple owners are both build errors, distinguishable by
// sentinel.
func (b *build) resolveLoose() error {
	b.loose = make(map[string]looseValue)
	for _, name := range b.def.LooseParams() {
		var owners []string
		b.def.WalkLeaves(func(path string, leaf *comp.ComponentDef) {
			if _, ok := leaf.Parameter(name); ok {
				owners = append(owners, path)
			}
		})
		switch len(owners) {
		case 0:
			return fmt.Errorf("%w: %q in model", comp.ErrParameterNotFound, name)
		case 1:
			b.loose[owners[0]+"/"+name] = looseValue{name: name}
		default:
			return fmt.Errorf("%w: %q in %v", comp.ErrAmbiguousParameter, name, owners)
		}
	}
	return nil
}

// instantiate allocates the instance subtree for def. parentFirst and
// parentLast are the enclosing window in global positions; a component
// without an override inherits them.
func (b *build) instantiate(ctx context.Context, def *comp.ComponentDef, parentFirst, parentLast int) (*comp.ComponentInstance, error) {
	first, last, err := b.window(def, parentFirst, parentLast)
	if err != nil {
		return nil, err
	}

	ci := &comp.ComponentInstance{
		Name:     def.Name(),
		Def:      def,
		Kind:     def.Kind(),
		FirstPos: first,
		LastPos:  last,
	}

	if def.IsComposite() {
		ci.Children = make(map[string]*comp.ComponentInstance, len(def.Children()))
		// The cached execution order is computed here: insertion order,
		// memoized on the definition until the next structural mutation.
		ci.ChildOrder = append(ci.ChildOrder, def.ExecutionOrder()...)

		childFirst, childLast := 0, 0
		for _, childDef := range def.Children() {
			child, err := b.instantiate(ctx, childDef, first, last)
			if err != nil {
				return nil, err
			}
			ci.Children[child.Name] = child
			if childFirst == 0 || child.FirstPos < childFirst {
				childFirst = child.FirstPos
			}
			if child.LastPos > childLast {
				childLast = child.LastPos
			}
		}
		// A composite's own window is the union of its children's.
		if len(ci.Children) > 0 {
			ci.FirstPos, ci.LastPos = childFirst, childLast
		}
		ci.Clock = clock.NewClock(b.timeline, ci.FirstPos, ci.LastPos)
		return ci, nil
	}

	if err := b.allocateLeaf(ci); err != nil {
		return nil, err
	}
	ci.Clock = clock.NewClock(b.timeline, first, last)
	ci.Init, ci.Step = def.Hooks()
	return ci, nil
}

// window resolves a component's first/last label overrides into global
// positions and validates them against the enclosing window.
func (b *build) window(def *comp.ComponentDef, parentFirst, parentLast int) (int, int, error) {
	first, last := parentFirst, parentLast
	fl, ll := def.Window()
	if fl != nil {
		pos, ok := b.timeline.Position(*fl)
		if !ok {
			return 0, 0, fmt.Errorf("component %q: first label %d is not on the model timeline", def.Name(), *fl)
		}
		first = pos
	}
	if ll != nil {
		pos, ok := b.timeline.Position(*ll)
		if !ok {
			return 0, 0, fmt.Errorf("component %q: last label %d is not on the model timeline", def.Name(), *ll)
		}
		last = pos
	}
	if first < parentFirst || last > parentLast || first > last {
		return 0, 0, fmt.Errorf("component %q: window [%d,%d] outside enclosing window [%d,%d]",
			def.Name(), first, last, parentFirst, parentLast)
	}
	return first, last, nil
}

// allocateLeaf allocates variable storage and the per-dimension index
// lookup for a leaf instance. Storage is allocated exactly once, here.
func (b *build) allocateLeaf(ci *comp.ComponentInstance) error {
	def := ci.Def
	windowLen := ci.LastPos - ci.FirstPos + 1

	ci.Vars = make(map[string]*comp.VarSlot)
	ci.Bindings = make(map[string]*comp.Binding)
	ci.DimIdx = map[string][]int{comp.TimeDimension: indexList(windowLen)}

	record := func(names []string) error {
		for _, name := range names {
			if name == comp.TimeDimension {
				continue
			}
			if _, done := ci.DimIdx[name]; done {
				continue
			}
			size, err := b.dimSize(def, name)
			if err != nil {
				return err
			}
			ci.DimIdx[name] = indexList(size)
		}
		return nil
	}

	for _, name := range def.DimensionNames() {
		if err := record([]string{name}); err != nil {
			return err
		}
	}

	for _, v := range def.Variables() {
		if err := record(v.Dimensions); err != nil {
			return fmt.Errorf("variable %s.%s: %w", def.Name(), v.Name, err)
		}
		stride := 1
		for _, dn := range v.SpaceDimensions() {
			stride *= len(ci.DimIdx[dn])
		}
		shape := []int{stride}
		if v.TimeIndexed() {
			shape = []int{windowLen, stride}
		}
		ci.Vars[v.Name] = &comp.VarSlot{
			Arr:    comp.NewArray(b.def.Number(), shape...),
			Timed:  v.TimeIndexed(),
			Stride: stride,
		}
	}

	for _, p := range def.Parameters() {
		if err := record(p.Dimensions); err != nil {
			return fmt.Errorf("parameter %s.%s: %w", def.Name(), p.Name, err)
		}
	}
	return nil
}

// dimSize resolves a dimension name against the leaf's local declarations
// first, then the model registry.
func (b *build) dimSize(def *comp.ComponentDef, name string) (int, error) {
	if d, ok := def.Dimension(name); ok && d != nil {
		return d.Len(), nil
	}
	if d, ok := b.def.Dimension(name); ok {
		return d.Len(), nil
	}
	return 0, fmt.Errorf("%w: %q", comp.ErrUnknownDimension, name)
}

func indexList(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

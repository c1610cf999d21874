package comp

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/composim/clock"
	"github.com/vk/composim/dims"
)

// ModelDef is the root of the definition graph: a root composite plus the
// global dimension registry, the timeline, and the numeric type policy.
//
// ModelDef tracks a version counter bumped on every mutation; a built
// instance records the version it was compiled from so the user-facing
// Model can tell when a rebuild is due.
type ModelDef struct {
	root       *ComponentDef
	dimensions map[string]*dims.Dimension
	dimOrder   []string
	timeline   clock.Timeline
	number     NumberType

	// Unqualified parameter values awaiting build-time resolution.
	loose      map[string]cty.Value
	looseOrder []string

	version uint64
}

// NewModelDef creates an empty model definition under the numeric policy nt.
func NewModelDef(nt NumberType) *ModelDef {
	return &ModelDef{
		root:       NewComposite("root"),
		dimensions: make(map[string]*dims.Dimension),
		number:     nt,
		loose:      make(map[string]cty.Value),
	}
}

// Number returns the numeric type policy.
func (m *ModelDef) Number() NumberType { return m.number }

// Root returns the root composite. Mutations should go through the ModelDef
// methods so the version counter stays accurate.
func (m *ModelDef) Root() *ComponentDef { return m.root }

// Version returns the mutation counter.
func (m *ModelDef) Version() uint64 { return m.version }

func (m *ModelDef) touch() { m.version++ }

// SetTimeline installs the model timeline and registers its labels as the
// reserved "time" dimension.
func (m *ModelDef) SetTimeline(tl clock.Timeline) error {
	keys := make([]any, tl.Len())
	for i := range keys {
		keys[i] = tl.Label(i + 1)
	}
	d, err := dims.New(keys...)
	if err != nil {
		return err
	}
	m.timeline = tl
	m.registerDimension(TimeDimension, d)
	m.touch()
	return nil
}

// Timeline returns the model timeline, nil if unset.
func (m *ModelDef) Timeline() clock.Timeline { return m.timeline }

func (m *ModelDef) registerDimension(name string, d *dims.Dimension) {
	if _, exists := m.dimensions[name]; !exists {
		m.dimOrder = append(m.dimOrder, name)
	}
	m.dimensions[name] = d
}

// SetDimension registers a named dimension with an explicit key list.
func (m *ModelDef) SetDimension(name string, keys ...any) error {
	if name == TimeDimension {
		return fmt.Errorf("dimension %q is reserved for the timeline", TimeDimension)
	}
	d, err := dims.New(keys...)
	if err != nil {
		return fmt.Errorf("dimension %q: %w", name, err)
	}
	m.registerDimension(name, d)
	m.touch()
	return nil
}

// SetDimensionRange registers a named dimension over the integers 1..n.
func (m *ModelDef) SetDimensionRange(name string, n int) error {
	if name == TimeDimension {
		return fmt.Errorf("dimension %q is reserved for the timeline", TimeDimension)
	}
	d, err := dims.NewRange(n)
	if err != nil {
		return fmt.Errorf("dimension %q: %w", name, err)
	}
	m.registerDimension(name, d)
	m.touch()
	return nil
}

// Dimension resolves a dimension name against the global registry.
func (m *ModelDef) Dimension(name string) (*dims.Dimension, bool) {
	d, ok := m.dimensions[name]
	return d, ok
}

// DimensionNames returns the registered dimension names in order.
func (m *ModelDef) DimensionNames() []string {
	out := make([]string, len(m.dimOrder))
	copy(out, m.dimOrder)
	return out
}

// AddComponent appends a component definition to the root composite.
func (m *ModelDef) AddComponent(def *ComponentDef) error {
	if err := m.root.AddChild(def); err != nil {
		return err
	}
	m.touch()
	return nil
}

// RemoveComponent removes a top-level component and its connections.
func (m *ModelDef) RemoveComponent(name string) error {
	if err := m.root.RemoveChild(name); err != nil {
		return err
	}
	m.touch()
	return nil
}

// ReplaceComponent swaps a top-level component definition in place.
func (m *ModelDef) ReplaceComponent(name string, def *ComponentDef) error {
	if err := m.root.ReplaceChild(name, def); err != nil {
		return err
	}
	m.touch()
	return nil
}

// Component returns a top-level component definition.
func (m *ModelDef) Component(name string) (*ComponentDef, bool) {
	return m.root.Child(name)
}

// externalName is the store key used for qualified literal values.
func externalName(component, parameter string) string {
	return component + "/" + parameter
}

// SetParam stores a literal or array value for a component's parameter and
// binds the parameter to it. Type coercion into the declared datatype is
// deferred to build; unknown component or parameter fails immediately.
func (m *ModelDef) SetParam(component, parameter string, value any) error {
	child, ok := m.root.Child(component)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownComponent, component)
	}
	pdef, ok := child.Parameter(parameter)
	if !ok {
		return fmt.Errorf("component %q has no parameter %q", component, parameter)
	}

	val, err := ToCty(value)
	if err != nil {
		return err
	}

	name := externalName(component, parameter)
	if val.CanIterateElements() || len(pdef.Dimensions) > 0 {
		elems, err := flatten(val)
		if err != nil {
			return err
		}
		m.root.SetExternalParam(name, ArrayParam{Values: elems, Dimensions: pdef.Dimensions})
	} else {
		m.root.SetExternalParam(name, ScalarParam{Value: val})
	}

	// Setting a value again only refreshes the store; the connection is
	// created once.
	if !m.root.bound(component, parameter) {
		if err := m.root.ConnectExternal(ExternalParameterConnection{
			Component: component,
			Parameter: parameter,
			External:  name,
		}); err != nil {
			return err
		}
	}
	m.touch()
	return nil
}

// SetGlobalParam stores an unqualified value resolved at build: it binds
// the single component declaring the parameter name, and fails the build if
// the name is found in none or in more than one.
func (m *ModelDef) SetGlobalParam(name string, value any) error {
	val, err := ToCty(value)
	if err != nil {
		return err
	}
	if _, exists := m.loose[name]; !exists {
		m.looseOrder = append(m.looseOrder, name)
	}
	m.loose[name] = val
	m.touch()
	return nil
}

// LooseParams returns the unqualified values in the order they were set.
func (m *ModelDef) LooseParams() []string {
	out := make([]string, len(m.looseOrder))
	copy(out, m.looseOrder)
	return out
}

// LooseParam returns one unqualified value.
func (m *ModelDef) LooseParam(name string) (cty.Value, bool) {
	v, ok := m.loose[name]
	return v, ok
}

// Connect wires a destination (component, parameter) to a source
// component's variable at the top level.
func (m *ModelDef) Connect(conn InternalParameterConnection) error {
	if err := m.root.ConnectInternal(conn); err != nil {
		return err
	}
	m.touch()
	return nil
}

// SetExternalScalar stores a named scalar in the root external store.
func (m *ModelDef) SetExternalScalar(name string, value any) error {
	val, err := ToCty(value)
	if err != nil {
		return err
	}
	m.root.SetExternalParam(name, ScalarParam{Value: val})
	m.touch()
	return nil
}

// SetExternalArray stores a named dense array indexed by the given
// dimension names in the root external store.
func (m *ModelDef) SetExternalArray(name string, dimensions []string, values any) error {
	val, err := ToCty(values)
	if err != nil {
		return err
	}
	elems, err := flatten(val)
	if err != nil {
		return err
	}
	dimsCopy := make([]string, len(dimensions))
	copy(dimsCopy, dimensions)
	m.root.SetExternalParam(name, ArrayParam{Values: elems, Dimensions: dimsCopy})
	m.touch()
	return nil
}

// ConnectExternal binds a (component, parameter) to a named external value.
func (m *ModelDef) ConnectExternal(component, parameter, external string) error {
	if err := m.root.ConnectExternal(ExternalParameterConnection{
		Component: component,
		Parameter: parameter,
		External:  external,
	}); err != nil {
		return err
	}
	m.touch()
	return nil
}

// flatten unpacks a cty collection (arbitrarily nested) into a flat element
// list; a scalar becomes a single-element list.
func flatten(val cty.Value) ([]cty.Value, error) {
	if !val.CanIterateElements() {
		return []cty.Value{val}, nil
	}
	var out []cty.Value
	for it := val.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		nested, err := flatten(ev)
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)
	}
	return out, nil
}

// WalkLeaves visits every leaf definition in execution order, passing the
// dotted path from the root.
func (m *ModelDef) WalkLeaves(visit func(path string, leaf *ComponentDef)) {
	var walk func(prefix string, c *ComponentDef)
	walk = func(prefix string, c *ComponentDef) {
		for _, child := range c.Children() {
			path := child.Name()
			if prefix != "" {
				path = prefix + "." + child.Name()
			}
			if child.IsComposite() {
				walk(path, child)
			} else {
				visit(path, child)
			}
		}
	}
	walk("", m.root)
}

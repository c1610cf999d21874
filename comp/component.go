package comp

import (
	"fmt"

	"github.com/vk/composim/dims"
)

// Kind tags the two ComponentDef variants.
type Kind int

const (
	// Leaf is a component with no children and callable hooks.
	Leaf Kind = iota
	// Composite is an ordered container of child components.
	Composite
)

// ComponentDef is the authored blueprint of a component. The Leaf and
// Composite variants share the struct; Kind selects which of the extra
// fields are meaningful.
type ComponentDef struct {
	name     string
	typeName string
	kind     Kind

	dimensions map[string]*dims.Dimension
	dimOrder   []string

	params     map[string]*ParameterDef
	paramOrder []string

	vars     map[string]*VariableDef
	varOrder []string

	// Active window as time labels; nil means the model boundary.
	firstLabel *int
	lastLabel  *int

	// Leaf only. A nil hook means the leaf declares none.
	init InitFunc
	step StepFunc

	// Composite only.
	children   map[string]*ComponentDef
	childOrder []string
	internal   []*InternalParameterConnection
	external   []*ExternalParameterConnection
	extParams  map[string]ModelParameter
	orderCache []string
}

// NewLeaf creates a leaf component definition. typeName records the
// component-type identity it was instantiated from and may be empty.
func NewLeaf(name, typeName string) *ComponentDef {
	return &ComponentDef{
		name:       name,
		typeName:   typeName,
		kind:       Leaf,
		dimensions: make(map[string]*dims.Dimension),
		params:     make(map[string]*ParameterDef),
		vars:       make(map[string]*VariableDef),
	}
}

// NewComposite creates an empty composite component definition.
func NewComposite(name string) *ComponentDef {
	return &ComponentDef{
		name:       name,
		kind:       Composite,
		dimensions: make(map[string]*dims.Dimension),
		params:     make(map[string]*ParameterDef),
		vars:       make(map[string]*VariableDef),
		children:   make(map[string]*ComponentDef),
		extParams:  make(map[string]ModelParameter),
	}
}

// Name returns the component's instance name.
func (c *ComponentDef) Name() string { return c.name }

// Rename changes the instance name. Used when adding a component under a
// name distinct from its definition name.
func (c *ComponentDef) Rename(name string) { c.name = name }

// TypeName returns the component-type identity, if any.
func (c *ComponentDef) TypeName() string { return c.typeName }

// Kind returns the variant tag.
func (c *ComponentDef) Kind() Kind { return c.kind }

// IsComposite reports whether the definition is the composite variant.
func (c *ComponentDef) IsComposite() bool { return c.kind == Composite }

// SetWindow overrides the component's active window with first/last time
// labels. A nil bound keeps the model boundary.
func (c *ComponentDef) SetWindow(first, last *int) {
	c.firstLabel = first
	c.lastLabel = last
}

// Window returns the first/last label overrides; nil means unset.
func (c *ComponentDef) Window() (first, last *int) { return c.firstLabel, c.lastLabel }

// AddParameter declares a parameter on the component.
func (c *ComponentDef) AddParameter(p ParameterDef) error {
	if p.Name == "" {
		return fmt.Errorf("parameter name must not be empty")
	}
	if _, dup := c.params[p.Name]; dup {
		return fmt.Errorf("component %q already declares parameter %q", c.name, p.Name)
	}
	def := p
	c.params[p.Name] = &def
	c.paramOrder = append(c.paramOrder, p.Name)
	return nil
}

// AddVariable declares a variable on the component.
func (c *ComponentDef) AddVariable(v VariableDef) error {
	if v.Name == "" {
		return fmt.Errorf("variable name must not be empty")
	}
	if _, dup := c.vars[v.Name]; dup {
		return fmt.Errorf("component %q already declares variable %q", c.name, v.Name)
	}
	def := v
	c.vars[v.Name] = &def
	c.varOrder = append(c.varOrder, v.Name)
	return nil
}

// Parameter returns the named parameter definition.
func (c *ComponentDef) Parameter(name string) (*ParameterDef, bool) {
	p, ok := c.params[name]
	return p, ok
}

// Variable returns the named variable definition.
func (c *ComponentDef) Variable(name string) (*VariableDef, bool) {
	v, ok := c.vars[name]
	return v, ok
}

// Parameters returns the parameter definitions in declaration order.
func (c *ComponentDef) Parameters() []*ParameterDef {
	out := make([]*ParameterDef, 0, len(c.paramOrder))
	for _, n := range c.paramOrder {
		out = append(out, c.params[n])
	}
	return out
}

// Variables returns the variable definitions in declaration order.
func (c *ComponentDef) Variables() []*VariableDef {
	out := make([]*VariableDef, 0, len(c.varOrder))
	for _, n := range c.varOrder {
		out = append(out, c.vars[n])
	}
	return out
}

// SetDimension declares a component-local dimension. The build resolves a
// dimension name against the local declaration first (a nil Dimension is a
// declaration without keys); the model registry supplies the keys when the
// local entry has none.
func (c *ComponentDef) SetDimension(name string, d *dims.Dimension) {
	if _, exists := c.dimensions[name]; !exists {
		c.dimOrder = append(c.dimOrder, name)
	}
	c.dimensions[name] = d
}

// Dimension returns a component-local dimension declaration.
func (c *ComponentDef) Dimension(name string) (*dims.Dimension, bool) {
	d, ok := c.dimensions[name]
	return d, ok
}

// DimensionNames returns the locally declared dimension names in order.
func (c *ComponentDef) DimensionNames() []string {
	out := make([]string, len(c.dimOrder))
	copy(out, c.dimOrder)
	return out
}

// SetHooks registers the leaf's callable hooks. Either may be nil.
func (c *ComponentDef) SetHooks(init InitFunc, step StepFunc) error {
	if c.kind != Leaf {
		return fmt.Errorf("component %q is a composite and cannot carry hooks", c.name)
	}
	c.init = init
	c.step = step
	return nil
}

// Hooks returns the leaf's registered hooks.
func (c *ComponentDef) Hooks() (InitFunc, StepFunc) { return c.init, c.step }

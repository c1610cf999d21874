package composim

import (
	"context"
	"fmt"

	"github.com/vk/composim/builder"
	"github.com/vk/composim/clock"
	"github.com/vk/composim/comp"
	"github.com/vk/composim/engine"
	"github.com/vk/composim/registry"
)

// Model owns exactly one definition and at most one built instance. Run
// rebuilds from the current definition whenever it changed since the last
// build.
type Model struct {
	def  *comp.ModelDef
	inst *comp.ModelInstance
}

// New creates a model under the default float64 numeric policy.
func New() *Model {
	return NewWithNumberType(comp.Float64)
}

// NewWithNumberType creates a model with an explicit numeric type policy.
func NewWithNumberType(nt comp.NumberType) *Model {
	return &Model{def: comp.NewModelDef(nt)}
}

// FromDef wraps an existing definition.
func FromDef(def *comp.ModelDef) *Model {
	return &Model{def: def}
}

// Def returns the model definition.
func (m *Model) Def() *comp.ModelDef { return m.def }

// Instance returns the built instance, nil before the first build.
func (m *Model) Instance() *comp.ModelInstance { return m.inst }

// SetFixedTimeline installs a uniformly stepped timeline.
func (m *Model) SetFixedTimeline(first, step, last int) error {
	tl, err := clock.NewFixed(first, step, last)
	if err != nil {
		return err
	}
	return m.def.SetTimeline(tl)
}

// SetVariableTimeline installs an explicitly tabulated timeline.
func (m *Model) SetVariableTimeline(labels ...int) error {
	tl, err := clock.NewVariable(labels...)
	if err != nil {
		return err
	}
	return m.def.SetTimeline(tl)
}

// SetDimension registers a named dimension with an explicit key list.
func (m *Model) SetDimension(name string, keys ...any) error {
	return m.def.SetDimension(name, keys...)
}

// AddOption adjusts how a component is added.
type AddOption func(*addConfig)

type addConfig struct {
	name        string
	first, last *int
}

// WithName adds the component under an instance name distinct from its
// type name.
func WithName(name string) AddOption {
	return func(c *addConfig) { c.name = name }
}

// WithFirst overrides the component's first active time label.
func WithFirst(label int) AddOption {
	return func(c *addConfig) { c.first = &label }
}

// WithLast overrides the component's last active time label.
func WithLast(label int) AddOption {
	return func(c *addConfig) { c.last = &label }
}

// AddComponent instantiates a registered component type and appends it to
// the model. Components execute in the order they are added.
func (m *Model) AddComponent(t *registry.ComponentType, opts ...AddOption) error {
	cfg := addConfig{name: t.Name}
	for _, opt := range opts {
		opt(&cfg)
	}
	def, err := t.NewDef(cfg.name)
	if err != nil {
		return err
	}
	def.SetWindow(cfg.first, cfg.last)
	return m.def.AddComponent(def)
}

// AddComponentDef appends a pre-built component definition (leaf or
// composite).
func (m *Model) AddComponentDef(def *comp.ComponentDef) error {
	return m.def.AddComponent(def)
}

// RemoveComponent removes a component and its connections.
func (m *Model) RemoveComponent(name string) error {
	return m.def.RemoveComponent(name)
}

// ReplaceComponent swaps a component's definition in place, keeping its
// execution position and connections.
func (m *Model) ReplaceComponent(name string, t *registry.ComponentType) error {
	def, err := t.NewDef(name)
	if err != nil {
		return err
	}
	return m.def.ReplaceComponent(name, def)
}

// SetParam stores a literal or array value for a component's parameter.
func (m *Model) SetParam(component, parameter string, value any) error {
	return m.def.SetParam(component, parameter, value)
}

// SetGlobalParam stores an unqualified value; the build binds it to the
// single component declaring the name.
func (m *Model) SetGlobalParam(name string, value any) error {
	return m.def.SetGlobalParam(name, value)
}

// ConnectOption adjusts a connection.
type ConnectOption func(*comp.InternalParameterConnection)

// WithBackup supplies fallback values for destination positions the source
// window does not cover.
func WithBackup(values []float64) ConnectOption {
	return func(c *comp.InternalParameterConnection) { c.Backup = values }
}

// WithIgnoreUnits disables the unit and dimension-name equality checks.
func WithIgnoreUnits() ConnectOption {
	return func(c *comp.InternalParameterConnection) { c.IgnoreUnits = true }
}

// WithOffset makes the destination read the source's value offset
// positions back.
func WithOffset(offset int) ConnectOption {
	return func(c *comp.InternalParameterConnection) { c.Offset = offset }
}

// Connect wires (dstComponent, dstParameter) to srcComponent's variable.
func (m *Model) Connect(dstComponent, dstParameter, srcComponent, srcVariable string, opts ...ConnectOption) error {
	conn := comp.InternalParameterConnection{
		SrcComponent: srcComponent,
		SrcVariable:  srcVariable,
		DstComponent: dstComponent,
		DstParameter: dstParameter,
	}
	for _, opt := range opts {
		opt(&conn)
	}
	return m.def.Connect(conn)
}

// Build compiles the current definition into a fresh instance.
func (m *Model) Build(ctx context.Context) error {
	inst, err := builder.Build(ctx, m.def)
	if err != nil {
		return err
	}
	m.inst = inst
	return nil
}

// Run executes the model for its full timeline, rebuilding first when the
// definition changed since the last build.
func (m *Model) Run(ctx context.Context) error {
	if m.inst == nil || !m.inst.Fresh() {
		if err := m.Build(ctx); err != nil {
			return err
		}
	}
	return engine.Run(ctx, m.inst)
}

func (m *Model) built() (*comp.ModelInstance, error) {
	if m.inst == nil {
		return nil, fmt.Errorf("model has not been built; call Run or Build first")
	}
	return m.inst, nil
}

// Result returns the full stored array for (component, variable).
func (m *Model) Result(component, variable string) (*comp.Array, error) {
	inst, err := m.built()
	if err != nil {
		return nil, err
	}
	return inst.Result(component, variable)
}

// ResultAt returns one value of a time-indexed variable at the global
// 1-based position.
func (m *Model) ResultAt(component, variable string, pos int) (float64, error) {
	inst, err := m.built()
	if err != nil {
		return 0, err
	}
	return inst.ResultAt(component, variable, pos)
}

// ResultDims returns the dimension-name list for a component's parameter
// or variable.
func (m *Model) ResultDims(component, item string) ([]string, error) {
	inst, err := m.built()
	if err != nil {
		return nil, err
	}
	return inst.ResultDims(component, item)
}

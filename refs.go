package composim

// ComponentRef is a component-scoped handle: an ergonomic alias for the
// explicit SetParam and Connect calls. ref.Set assigns a parameter,
// ref.Get obtains a variable handle usable as the source in another
// component's Bind.
type ComponentRef struct {
	model *Model
	name  string
}

// Component returns a handle scoped to the named component.
func (m *Model) Component(name string) *ComponentRef {
	return &ComponentRef{model: m, name: name}
}

// Name returns the component name the handle is scoped to.
func (r *ComponentRef) Name() string { return r.name }

// Set assigns a literal or array value to a parameter.
func (r *ComponentRef) Set(parameter string, value any) error {
	return r.model.SetParam(r.name, parameter, value)
}

// Get returns a handle for one of the component's variables.
func (r *ComponentRef) Get(variable string) *VariableRef {
	return &VariableRef{component: r.name, variable: variable}
}

// Bind connects a parameter to another component's variable handle.
func (r *ComponentRef) Bind(parameter string, src *VariableRef, opts ...ConnectOption) error {
	return r.model.Connect(r.name, parameter, src.component, src.variable, opts...)
}

// VariableRef names a (component, variable) pair for the right-hand side
// of a Bind.
type VariableRef struct {
	component string
	variable  string
}

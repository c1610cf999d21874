// Package registry holds the component types available to a model. A
// component type supplies its init/step hooks as Go function values at
// registration; nothing is resolved by name from a global namespace at
// build time.
package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/vk/composim/comp"
)

// Module is the interface built-in component packages implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// ComponentType is the reusable template a component definition is
// instantiated from: declared parameters, variables, dimensions, and the
// callable hooks.
type ComponentType struct {
	Name        string
	Description string

	Dimensions []string
	Parameters []comp.ParameterDef
	Variables  []comp.VariableDef

	// Init may be nil; Step may be nil for purely declarative components.
	Init comp.InitFunc
	Step comp.StepFunc
}

// NewDef instantiates a leaf definition under the given instance name.
func (t *ComponentType) NewDef(name string) (*comp.ComponentDef, error) {
	def := comp.NewLeaf(name, t.Name)
	for _, dn := range t.Dimensions {
		def.SetDimension(dn, nil)
	}
	for _, p := range t.Parameters {
		if err := def.AddParameter(p); err != nil {
			return nil, fmt.Errorf("component type %q: %w", t.Name, err)
		}
	}
	for _, v := range t.Variables {
		if err := def.AddVariable(v); err != nil {
			return nil, fmt.Errorf("component type %q: %w", t.Name, err)
		}
	}
	if err := def.SetHooks(t.Init, t.Step); err != nil {
		return nil, err
	}
	return def, nil
}

// Registry holds the registered component types for a single application
// instance.
type Registry struct {
	components map[string]*ComponentType
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{components: make(map[string]*ComponentType)}
}

// Register adds a component type. Registering the same name twice is a
// programmer error and panics.
func (r *Registry) Register(t *ComponentType) {
	if _, exists := r.components[t.Name]; exists {
		panic(fmt.Sprintf("component type with name '%s' already registered", t.Name))
	}
	slog.Debug("Registering component type.", "name", t.Name)
	r.components[t.Name] = t
}

// Component looks up a registered component type.
func (r *Registry) Component(name string) (*ComponentType, bool) {
	t, ok := r.components[name]
	return t, ok
}

// Names returns the registered type names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.components))
	for name := range r.components {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

package comp

import "github.com/zclconf/go-cty/cty"

// TimeDimension is the reserved dimension name that marks a parameter or
// variable as time-indexed. It must appear first in the dimension list.
const TimeDimension = "time"

// ParameterDef describes one typed, dimensioned input of a component.
type ParameterDef struct {
	// Name identifies the parameter within its component.
	Name string

	// Type is the element datatype a literal value is coerced into. A zero
	// Type means cty.Number.
	Type cty.Type

	// Dimensions is the ordered dimension-name list; empty means scalar.
	// A leading "time" dimension makes the parameter time-indexed.
	Dimensions []string

	// Default, when non-nil, is the literal fallback used if no connection
	// binds the parameter. Coercion into Type happens at build.
	Default *cty.Value

	Unit        string
	Description string
}

// ElementType returns the declared datatype, defaulting to cty.Number.
func (p ParameterDef) ElementType() cty.Type {
	if p.Type == cty.NilType {
		return cty.Number
	}
	return p.Type
}

// TimeIndexed reports whether the parameter's first dimension is time.
func (p ParameterDef) TimeIndexed() bool {
	return len(p.Dimensions) > 0 && p.Dimensions[0] == TimeDimension
}

// SpaceDimensions returns the dimension names excluding the leading time
// dimension.
func (p ParameterDef) SpaceDimensions() []string {
	if p.TimeIndexed() {
		return p.Dimensions[1:]
	}
	return p.Dimensions
}

// VariableDef describes one typed, dimensioned output of a component.
type VariableDef struct {
	Name        string
	Type        cty.Type
	Dimensions  []string
	Unit        string
	Description string
}

// TimeIndexed reports whether the variable's first dimension is time.
func (v VariableDef) TimeIndexed() bool {
	return len(v.Dimensions) > 0 && v.Dimensions[0] == TimeDimension
}

// SpaceDimensions returns the dimension names excluding the leading time
// dimension.
func (v VariableDef) SpaceDimensions() []string {
	if v.TimeIndexed() {
		return v.Dimensions[1:]
	}
	return v.Dimensions
}

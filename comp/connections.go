package comp

import "github.com/zclconf/go-cty/cty"

// InternalParameterConnection wires a destination parameter to a source
// component's variable.
type InternalParameterConnection struct {
	SrcComponent string
	SrcVariable  string
	DstComponent string
	DstParameter string

	// IgnoreUnits disables the unit and dimension-name equality checks;
	// sizes must still align.
	IgnoreUnits bool

	// Backup supplies the destination for positions where the source is
	// inactive. When present it must cover the destination's full window.
	Backup []float64

	// Offset shifts the read position: the destination reads the source's
	// value at position - Offset.
	Offset int
}

// ExternalParameterConnection binds a parameter to a named value in the
// composite's external-parameter store.
type ExternalParameterConnection struct {
	Component string
	Parameter string
	External  string
}

// ModelParameter is a stored external value, either scalar or array.
// Authored values stay as cty values until the build coerces them into the
// destination parameter's declared type.
type ModelParameter interface {
	isModelParameter()
}

// ScalarParam is the scalar ModelParameter variant.
type ScalarParam struct {
	Value cty.Value
}

func (ScalarParam) isModelParameter() {}

// ArrayParam is the dense ModelParameter variant: values in row-major order
// over the named dimensions.
type ArrayParam struct {
	Values     []cty.Value
	Dimensions []string
}

func (ArrayParam) isModelParameter() {}

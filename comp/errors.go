package comp

import "errors"

// Definition errors surface at author time; binding errors surface at
// build. Callers match them with errors.Is.
var (
	// ErrDuplicateComponent indicates a child name collision inside a composite.
	ErrDuplicateComponent = errors.New("duplicate component name")

	// ErrUnknownComponent indicates a reference to a component that does not exist.
	ErrUnknownComponent = errors.New("unknown component")

	// ErrUnknownDimension indicates a dimension referenced by a parameter or
	// variable that was never declared.
	ErrUnknownDimension = errors.New("unknown dimension")

	// ErrUnboundParameter indicates a parameter with no default, no internal
	// connection, and no external connection at build time.
	ErrUnboundParameter = errors.New("unbound parameter")

	// ErrParameterNotFound indicates an unqualified parameter name found in no
	// component at build time.
	ErrParameterNotFound = errors.New("parameter not found in any component")

	// ErrAmbiguousParameter indicates an unqualified parameter name found in
	// more than one component at build time.
	ErrAmbiguousParameter = errors.New("parameter found in more than one component")

	// ErrAlreadyBound indicates a destination parameter that already has an
	// active connection.
	ErrAlreadyBound = errors.New("parameter already bound")

	// ErrDimensionMismatch indicates incompatible dimension lists between a
	// connected variable and parameter.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrUnitMismatch indicates differing units on a connection that was not
	// marked ignore-units.
	ErrUnitMismatch = errors.New("unit mismatch")

	// ErrMissingBackup indicates a window-mismatched connection without backup
	// data covering the destination's full window.
	ErrMissingBackup = errors.New("missing backup data")

	// ErrTypeConversion indicates a literal value that cannot be coerced into
	// the parameter's declared type.
	ErrTypeConversion = errors.New("type conversion failed")

	// ErrSameStepCycle indicates a cyclic zero-offset dependency between
	// components, which the build rejects rather than silently reading stale
	// values.
	ErrSameStepCycle = errors.New("same-step dependency cycle")

	// ErrNoTimeline indicates a build attempt on a model with no timeline set.
	ErrNoTimeline = errors.New("model has no timeline")
)

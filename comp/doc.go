// Package comp holds the component graph: the authored definition layer
// (component definitions, connections, external parameter values) and the
// built instance layer (allocated storage, resolved bindings, hook views).
//
// Definitions are mutable blueprints authored incrementally through the
// ModelDef mutation methods. Instances are produced only by the builder,
// are immutable in structure, and become stale as soon as their definition
// is mutated again.
//
// Positions are 1-based throughout, matching the clock package.
package comp

// Package composim is a component-composition and stepped-execution engine
// for simulation models. Independently authored calculation units declare
// typed, dimensioned parameters and variables; a model wires them into a
// dependency graph and executes them in a fixed order across a shared
// discretized timeline.
//
// The definition layer (comp, dims, clock) is authored incrementally,
// compiled by the builder into an instance graph, and advanced by the
// engine. This package is the user-facing handle tying those together.
package composim

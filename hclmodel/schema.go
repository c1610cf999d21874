package hclmodel

import "github.com/zclconf/go-cty/cty"

// modelFile is the top-level structure of one .hcl model file for
// decoding. Blocks from multiple files merge in parse order; component
// order across files is execution order.
type modelFile struct {
	Model      *modelBlock       `hcl:"model,block"`
	Timeline   *timelineBlock    `hcl:"timeline,block"`
	Dimensions []*dimensionBlock `hcl:"dimension,block"`
	Components []*componentBlock `hcl:"component,block"`
	Sets       []*setBlock       `hcl:"set,block"`
	Connects   []*connectBlock   `hcl:"connect,block"`
}

// modelBlock carries model-wide policy.
type modelBlock struct {
	Number string `hcl:"number,optional"`
}

// timelineBlock declares the model timeline, either fixed (first/step/last)
// or tabulated (labels). Exactly one timeline block may appear across all
// loaded files.
type timelineBlock struct {
	First  *int  `hcl:"first,optional"`
	Step   *int  `hcl:"step,optional"`
	Last   *int  `hcl:"last,optional"`
	Labels []int `hcl:"labels,optional"`
}

// dimensionBlock declares a named dimension with an explicit key list.
type dimensionBlock struct {
	Name   string    `hcl:"name,label"`
	Values cty.Value `hcl:"values"`
}

// componentBlock instantiates a registered component type. The optional
// name attribute gives the instance a name distinct from its type.
type componentBlock struct {
	Type  string `hcl:"type,label"`
	Name  string `hcl:"name,optional"`
	First *int   `hcl:"first,optional"`
	Last  *int   `hcl:"last,optional"`
}

// setBlock assigns a literal or array value to a component's parameter.
type setBlock struct {
	Component string    `hcl:"component,label"`
	Parameter string    `hcl:"parameter,label"`
	Value     cty.Value `hcl:"value"`
}

// connectBlock wires a source variable to a destination parameter, both
// written as "component.item".
type connectBlock struct {
	From        string    `hcl:"from"`
	To          string    `hcl:"to"`
	Backup      []float64 `hcl:"backup,optional"`
	IgnoreUnits bool      `hcl:"ignore_units,optional"`
	Offset      int       `hcl:"offset,optional"`
}

package comp

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/composim/dims"
)

// Clone produces a total deep copy of the definition graph: every node is
// cloned and internal references remapped, so the copy shares no mutable
// storage with the original. Hook function values are shared; they carry no
// state. A marginal model perturbs such a clone without ever reaching back
// into its base.
func (m *ModelDef) Clone() *ModelDef {
	c := NewModelDef(m.number)
	c.timeline = m.timeline
	for _, name := range m.dimOrder {
		c.registerDimension(name, m.dimensions[name].Clone())
	}
	c.root = m.root.clone()
	for _, name := range m.looseOrder {
		c.looseOrder = append(c.looseOrder, name)
		c.loose[name] = m.loose[name]
	}
	return c
}

func (c *ComponentDef) clone() *ComponentDef {
	out := &ComponentDef{
		name:       c.name,
		typeName:   c.typeName,
		kind:       c.kind,
		dimensions: make(map[string]*dims.Dimension, len(c.dimensions)),
		params:     make(map[string]*ParameterDef, len(c.params)),
		vars:       make(map[string]*VariableDef, len(c.vars)),
		init:       c.init,
		step:       c.step,
	}

	out.dimOrder = append(out.dimOrder, c.dimOrder...)
	for name, d := range c.dimensions {
		if d != nil {
			out.dimensions[name] = d.Clone()
		} else {
			out.dimensions[name] = nil
		}
	}

	out.paramOrder = append(out.paramOrder, c.paramOrder...)
	for name, p := range c.params {
		def := *p
		def.Dimensions = append([]string(nil), p.Dimensions...)
		out.params[name] = &def
	}

	out.varOrder = append(out.varOrder, c.varOrder...)
	for name, v := range c.vars {
		def := *v
		def.Dimensions = append([]string(nil), v.Dimensions...)
		out.vars[name] = &def
	}

	if c.firstLabel != nil {
		first := *c.firstLabel
		out.firstLabel = &first
	}
	if c.lastLabel != nil {
		last := *c.lastLabel
		out.lastLabel = &last
	}

	if c.kind != Composite {
		return out
	}

	out.children = make(map[string]*ComponentDef, len(c.children))
	out.childOrder = append(out.childOrder, c.childOrder...)
	for name, child := range c.children {
		out.children[name] = child.clone()
	}

	for _, conn := range c.internal {
		cc := *conn
		if conn.Backup != nil {
			cc.Backup = append([]float64(nil), conn.Backup...)
		}
		out.internal = append(out.internal, &cc)
	}
	for _, conn := range c.external {
		cc := *conn
		out.external = append(out.external, &cc)
	}

	out.extParams = make(map[string]ModelParameter, len(c.extParams))
	for name, p := range c.extParams {
		switch v := p.(type) {
		case ScalarParam:
			out.extParams[name] = ScalarParam{Value: v.Value}
		case ArrayParam:
			out.extParams[name] = ArrayParam{
				Values:     append([]cty.Value(nil), v.Values...),
				Dimensions: append([]string(nil), v.Dimensions...),
			}
		}
	}

	return out
}

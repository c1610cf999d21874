package comp

import "fmt"

// invalidateOrder clears the memoized execution order. Every structural
// mutation routes through here so a stale order can never survive a change.
func (c *ComponentDef) invalidateOrder() {
	c.orderCache = nil
}

// AddChild appends a child definition. Children execute in insertion order;
// the author adds producers before consumers.
func (c *ComponentDef) AddChild(child *ComponentDef) error {
	if c.kind != Composite {
		return fmt.Errorf("component %q is a leaf and cannot contain children", c.name)
	}
	if _, dup := c.children[child.name]; dup {
		return fmt.Errorf("%w: %q in composite %q", ErrDuplicateComponent, child.name, c.name)
	}
	c.children[child.name] = child
	c.childOrder = append(c.childOrder, child.name)
	c.invalidateOrder()
	return nil
}

// RemoveChild removes a child and every connection that references it.
func (c *ComponentDef) RemoveChild(name string) error {
	if _, ok := c.children[name]; !ok {
		return fmt.Errorf("%w: cannot remove %q from composite %q", ErrUnknownComponent, name, c.name)
	}
	delete(c.children, name)
	for i, n := range c.childOrder {
		if n == name {
			c.childOrder = append(c.childOrder[:i], c.childOrder[i+1:]...)
			break
		}
	}

	kept := c.internal[:0]
	for _, conn := range c.internal {
		if conn.SrcComponent != name && conn.DstComponent != name {
			kept = append(kept, conn)
		}
	}
	c.internal = kept

	keptExt := c.external[:0]
	for _, conn := range c.external {
		if conn.Component != name {
			keptExt = append(keptExt, conn)
		}
	}
	c.external = keptExt

	c.invalidateOrder()
	return nil
}

// ReplaceChild swaps the named child's definition in place, keeping its
// position in the execution order. Connections referencing the child are
// kept; the build revalidates them against the new definition.
func (c *ComponentDef) ReplaceChild(name string, child *ComponentDef) error {
	if _, ok := c.children[name]; !ok {
		return fmt.Errorf("%w: cannot replace %q in composite %q", ErrUnknownComponent, name, c.name)
	}
	child.name = name
	c.children[name] = child
	c.invalidateOrder()
	return nil
}

// Child returns the named child definition.
func (c *ComponentDef) Child(name string) (*ComponentDef, bool) {
	child, ok := c.children[name]
	return child, ok
}

// Children returns the child definitions in insertion order.
func (c *ComponentDef) Children() []*ComponentDef {
	out := make([]*ComponentDef, 0, len(c.childOrder))
	for _, n := range c.childOrder {
		out = append(out, c.children[n])
	}
	return out
}

// ExecutionOrder returns the cached child execution order, recomputing it
// lazily after a structural mutation. The order is insertion order.
func (c *ComponentDef) ExecutionOrder() []string {
	if c.orderCache == nil {
		c.orderCache = make([]string, len(c.childOrder))
		copy(c.orderCache, c.childOrder)
	}
	return c.orderCache
}

// binding lookup shared by ConnectInternal and ConnectExternal: a
// destination parameter may carry at most one active connection.
func (c *ComponentDef) bound(component, parameter string) bool {
	for _, conn := range c.internal {
		if conn.DstComponent == component && conn.DstParameter == parameter {
			return true
		}
	}
	for _, conn := range c.external {
		if conn.Component == component && conn.Parameter == parameter {
			return true
		}
	}
	return false
}

// ConnectInternal records a variable-to-parameter wiring between children.
// The endpoints must exist; deeper validation (dimensions, units, windows,
// backup coverage) happens at build.
func (c *ComponentDef) ConnectInternal(conn InternalParameterConnection) error {
	src, ok := c.children[conn.SrcComponent]
	if !ok {
		return fmt.Errorf("%w: connection source %q", ErrUnknownComponent, conn.SrcComponent)
	}
	dst, ok := c.children[conn.DstComponent]
	if !ok {
		return fmt.Errorf("%w: connection destination %q", ErrUnknownComponent, conn.DstComponent)
	}
	if _, ok := src.Variable(conn.SrcVariable); !ok {
		return fmt.Errorf("component %q has no variable %q", conn.SrcComponent, conn.SrcVariable)
	}
	if _, ok := dst.Parameter(conn.DstParameter); !ok {
		return fmt.Errorf("component %q has no parameter %q", conn.DstComponent, conn.DstParameter)
	}
	if c.bound(conn.DstComponent, conn.DstParameter) {
		return fmt.Errorf("%w: %s.%s", ErrAlreadyBound, conn.DstComponent, conn.DstParameter)
	}
	stored := conn
	if conn.Backup != nil {
		stored.Backup = make([]float64, len(conn.Backup))
		copy(stored.Backup, conn.Backup)
	}
	c.internal = append(c.internal, &stored)
	c.invalidateOrder()
	return nil
}

// DisconnectParameter removes any connection targeting the given
// destination parameter.
func (c *ComponentDef) DisconnectParameter(component, parameter string) {
	kept := c.internal[:0]
	changed := false
	for _, conn := range c.internal {
		if conn.DstComponent == component && conn.DstParameter == parameter {
			changed = true
			continue
		}
		kept = append(kept, conn)
	}
	c.internal = kept

	keptExt := c.external[:0]
	for _, conn := range c.external {
		if conn.Component == component && conn.Parameter == parameter {
			changed = true
			continue
		}
		keptExt = append(keptExt, conn)
	}
	c.external = keptExt

	if changed {
		c.invalidateOrder()
	}
}

// ConnectExternal binds a child's parameter to a named value in the
// external-parameter store. The value itself may be stored before or after
// the connection; its presence is enforced at build.
func (c *ComponentDef) ConnectExternal(conn ExternalParameterConnection) error {
	dst, ok := c.children[conn.Component]
	if !ok {
		return fmt.Errorf("%w: connection destination %q", ErrUnknownComponent, conn.Component)
	}
	if _, ok := dst.Parameter(conn.Parameter); !ok {
		return fmt.Errorf("component %q has no parameter %q", conn.Component, conn.Parameter)
	}
	if c.bound(conn.Component, conn.Parameter) {
		return fmt.Errorf("%w: %s.%s", ErrAlreadyBound, conn.Component, conn.Parameter)
	}
	c.external = append(c.external, &conn)
	c.invalidateOrder()
	return nil
}

// SetExternalParam stores a value in the external-parameter store,
// replacing any previous value under the same name.
func (c *ComponentDef) SetExternalParam(name string, p ModelParameter) {
	c.extParams[name] = p
	c.invalidateOrder()
}

// ExternalParam returns a stored external value.
func (c *ComponentDef) ExternalParam(name string) (ModelParameter, bool) {
	p, ok := c.extParams[name]
	return p, ok
}

// InternalConnections returns the internal connection list.
func (c *ComponentDef) InternalConnections() []*InternalParameterConnection { return c.internal }

// ExternalConnections returns the external connection list.
func (c *ComponentDef) ExternalConnections() []*ExternalParameterConnection { return c.external }

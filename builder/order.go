package builder

import (
	"fmt"

	"github.com/vk/composim/comp"
)

// checkSameStepCycles rejects cyclic zero-offset wiring within each
// composite. Components execute in insertion order, so a same-step cycle
// would make at least one consumer read a value its producer has not
// written this position; the build refuses it rather than silently serving
// stale values. Lagged connections (offset != 0) never participate.
func (b *build) checkSameStepCycles(def *comp.ComponentDef) error {
	edges := make(map[string][]string)
	for _, conn := range def.InternalConnections() {
		if conn.Offset == 0 {
			edges[conn.SrcComponent] = append(edges[conn.SrcComponent], conn.DstComponent)
		}
	}

	// Depth-first search with permanent and in-stack marks.
	permanent := make(map[string]bool)
	inStack := make(map[string]bool)

	var visit func(name string) error
	visit = func(name string) error {
		if permanent[name] {
			return nil
		}
		if inStack[name] {
			return fmt.Errorf("%w: involving component %q", comp.ErrSameStepCycle, name)
		}
		inStack[name] = true
		for _, next := range edges[name] {
			if err := visit(next); err != nil {
				return err
			}
		}
		delete(inStack, name)
		permanent[name] = true
		return nil
	}

	for name := range edges {
		if err := visit(name); err != nil {
			return err
		}
	}

	for _, child := range def.Children() {
		if child.IsComposite() {
			if err := b.checkSameStepCycles(child); err != nil {
				return err
			}
		}
	}
	return nil
}

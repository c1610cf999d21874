// Package engine advances a built model instance across its timeline.
// Execution is single-threaded and strictly sequential: one clock position
// at a time, components in their cached order within each position. The
// ordering contract is what makes same-step chaining safe; no locking is
// involved and none is needed.
package engine

import (
	"context"
	"fmt"

	"github.com/vk/composim/comp"
	"github.com/vk/composim/internal/ctxlog"
)

// Run executes inst across its full timeline. It fails fast on the first
// hook error, identifying the offending component and position.
func Run(ctx context.Context, inst *comp.ModelInstance) error {
	logger := ctxlog.FromContext(ctx)
	last := inst.Timeline.Len()
	logger.Debug("Run: starting execution.", "positions", last)

	// Clocks advance monotonically during a run; rewind them so a built
	// instance can run again (reruns, marginal pairs, retry after a hook
	// error).
	resetClocks(inst.Root)

	for pos := 1; pos <= last; pos++ {
		if err := step(ctx, inst.Root, pos); err != nil {
			return err
		}
	}

	logger.Debug("Run: execution finished.")
	return nil
}

// resetClocks rewinds every clock in the instance tree to its window start.
func resetClocks(ci *comp.ComponentInstance) {
	ci.Clock.Reset()
	for _, child := range ci.Children {
		resetClocks(child)
	}
}

// step runs one component (recursing into composites) for one global
// position, skipping it entirely when the position is outside its window.
func step(ctx context.Context, ci *comp.ComponentInstance, pos int) error {
	if !ci.Active(pos) {
		return nil
	}

	if ci.Kind == comp.Composite {
		for _, name := range ci.ChildOrder {
			if err := step(ctx, ci.Children[name], pos); err != nil {
				return err
			}
		}
		ci.Clock.Advance()
		return nil
	}

	ts := ci.Clock.Timestep()
	state := ci.State()

	if ts.IsFirst() && ci.Init != nil {
		if err := invokeInit(ctx, ci, state, pos); err != nil {
			return err
		}
	}

	if ci.Step != nil {
		if err := invokeStep(ctx, ci, state, pos); err != nil {
			return err
		}
	}

	ci.Clock.Advance()
	return nil
}

// invokeInit calls the one-time seeding hook, turning panics from view
// misuse into errors carrying the component and position.
func invokeInit(ctx context.Context, ci *comp.ComponentInstance, state *comp.State, pos int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("init of component %q at position %d panicked: %v", ci.Name, pos, r)
		}
	}()
	if hookErr := ci.Init(ctx, state); hookErr != nil {
		return fmt.Errorf("init of component %q at position %d: %w", ci.Name, pos, hookErr)
	}
	return nil
}

func invokeStep(ctx context.Context, ci *comp.ComponentInstance, state *comp.State, pos int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("component %q at position %d panicked: %v", ci.Name, pos, r)
		}
	}()
	if hookErr := ci.Step(ctx, state, ci.Clock.Timestep()); hookErr != nil {
		return fmt.Errorf("component %q at position %d: %w", ci.Name, pos, hookErr)
	}
	return nil
}

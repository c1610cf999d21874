package app

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/vk/composim/comp"
	"github.com/vk/composim/hclmodel"
	"github.com/vk/composim/internal/ctxlog"
)

// Run loads the model from the configured path, builds it, runs it, and
// prints each leaf's time-indexed results.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	loader := hclmodel.NewLoader(a.registry)
	model, err := loader.LoadPath(ctx, a.config.ModelPath)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	a.logger.Debug("Model loaded.", "path", a.config.ModelPath)

	a.logger.Info("Component types registered:", "names", a.registry.Names())

	a.logger.Info("🚀 Starting model run...")
	if err := model.Run(ctx); err != nil {
		return fmt.Errorf("model run failed: %w", err)
	}
	a.logger.Info("🏁 Model run finished.")

	printResults(a.outW, model.Instance())
	a.logger.Debug("App.Run method finished.")
	return nil
}

// printResults walks the instance tree and writes every leaf's
// time-indexed variables, one labelled row per step.
func printResults(w io.Writer, inst *comp.ModelInstance) {
	walkInstances(inst.Root, "", func(path string, ci *comp.ComponentInstance) {
		names := make([]string, 0, len(ci.Vars))
		for name := range ci.Vars {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			slot := ci.Vars[name]
			if !slot.Timed {
				fmt.Fprintf(w, "%s.%s = %g\n", path, name, slot.Arr.AtFlat(0))
				continue
			}
			fmt.Fprintf(w, "%s.%s:\n", path, name)
			rows := slot.Arr.Shape()[0]
			for row := 0; row < rows; row++ {
				pos := ci.FirstPos + row
				label := inst.Timeline.Label(pos)
				if slot.Stride == 1 {
					fmt.Fprintf(w, "  %d  %g\n", label, slot.Arr.AtFlat(row))
					continue
				}
				fmt.Fprintf(w, "  %d ", label)
				for k := 0; k < slot.Stride; k++ {
					fmt.Fprintf(w, " %g", slot.Arr.AtFlat(row*slot.Stride+k))
				}
				fmt.Fprintln(w)
			}
		}
	})
}

func walkInstances(ci *comp.ComponentInstance, prefix string, visit func(path string, leaf *comp.ComponentInstance)) {
	for _, name := range ci.ChildOrder {
		child := ci.Children[name]
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		if child.Kind == comp.Composite {
			walkInstances(child, path, visit)
			continue
		}
		visit(path, child)
	}
}

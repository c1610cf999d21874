// Package hclmodel loads model definitions authored in HCL. Component
// logic stays in Go behind the registry; the files contribute the wiring:
// timeline, dimensions, component instances, parameter values, and
// connections.
package hclmodel

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	composim "github.com/vk/composim"
	"github.com/vk/composim/comp"
	"github.com/vk/composim/internal/ctxlog"
	"github.com/vk/composim/internal/fsutil"
	"github.com/vk/composim/registry"
)

// Loader translates .hcl model files into a Model against a registry of
// component types.
type Loader struct {
	registry *registry.Registry
}

// NewLoader creates a loader resolving component types from reg.
func NewLoader(reg *registry.Registry) *Loader {
	return &Loader{registry: reg}
}

// LoadPath loads a single .hcl file or every .hcl file under a directory
// and assembles one model from them.
func (l *Loader) LoadPath(ctx context.Context, path string) (*composim.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading model from path", "path", path)

	files, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to find model files in %s: %w", path, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl model files found in %s", path)
	}

	parser := hclparse.NewParser()
	parsed := make([]*modelFile, 0, len(files))
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		var mf modelFile
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &mf); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		parsed = append(parsed, &mf)
	}

	return l.assemble(ctx, parsed)
}

// LoadSource loads a model from one in-memory HCL document. Used by tests
// and embedding callers.
func (l *Loader) LoadSource(ctx context.Context, src, filename string) (*composim.Model, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL([]byte(src), filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL source %s: %w", filename, diags)
	}
	var mf modelFile
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &mf); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL source %s: %w", filename, diags)
	}
	return l.assemble(ctx, []*modelFile{&mf})
}

func (l *Loader) assemble(ctx context.Context, files []*modelFile) (*composim.Model, error) {
	logger := ctxlog.FromContext(ctx)

	number := comp.Float64
	var timeline *timelineBlock
	for _, mf := range files {
		if mf.Model != nil && mf.Model.Number != "" {
			switch strings.ToLower(mf.Model.Number) {
			case "float64":
				number = comp.Float64
			case "float32":
				number = comp.Float32
			default:
				return nil, fmt.Errorf("unknown number policy %q, want 'float64' or 'float32'", mf.Model.Number)
			}
		}
		if mf.Timeline != nil {
			if timeline != nil {
				return nil, fmt.Errorf("timeline declared more than once")
			}
			timeline = mf.Timeline
		}
	}
	if timeline == nil {
		return nil, comp.ErrNoTimeline
	}

	model := composim.NewWithNumberType(number)
	if err := applyTimeline(model, timeline); err != nil {
		return nil, err
	}

	for _, mf := range files {
		for _, d := range mf.Dimensions {
			keys, err := dimensionKeys(d.Values)
			if err != nil {
				return nil, fmt.Errorf("dimension %q: %w", d.Name, err)
			}
			if err := model.SetDimension(d.Name, keys...); err != nil {
				return nil, err
			}
		}
	}

	for _, mf := range files {
		for _, c := range mf.Components {
			t, ok := l.registry.Component(c.Type)
			if !ok {
				return nil, fmt.Errorf("unknown component type %q, registered: %v", c.Type, l.registry.Names())
			}
			opts := []composim.AddOption{}
			if c.Name != "" {
				opts = append(opts, composim.WithName(c.Name))
			}
			if c.First != nil {
				opts = append(opts, composim.WithFirst(*c.First))
			}
			if c.Last != nil {
				opts = append(opts, composim.WithLast(*c.Last))
			}
			if err := model.AddComponent(t, opts...); err != nil {
				return nil, err
			}
			logger.Debug("Added component.", "type", c.Type, "name", c.Name)
		}
	}

	for _, mf := range files {
		for _, s := range mf.Sets {
			if err := model.SetParam(s.Component, s.Parameter, s.Value); err != nil {
				return nil, err
			}
		}
		for _, c := range mf.Connects {
			srcComp, srcVar, err := splitEndpoint(c.From)
			if err != nil {
				return nil, fmt.Errorf("connect from: %w", err)
			}
			dstComp, dstParam, err := splitEndpoint(c.To)
			if err != nil {
				return nil, fmt.Errorf("connect to: %w", err)
			}
			var opts []composim.ConnectOption
			if c.Backup != nil {
				opts = append(opts, composim.WithBackup(c.Backup))
			}
			if c.IgnoreUnits {
				opts = append(opts, composim.WithIgnoreUnits())
			}
			if c.Offset != 0 {
				opts = append(opts, composim.WithOffset(c.Offset))
			}
			if err := model.Connect(dstComp, dstParam, srcComp, srcVar, opts...); err != nil {
				return nil, err
			}
		}
	}

	return model, nil
}

func applyTimeline(model *composim.Model, tb *timelineBlock) error {
	if len(tb.Labels) > 0 {
		if tb.First != nil || tb.Step != nil || tb.Last != nil {
			return fmt.Errorf("timeline declares both labels and first/step/last")
		}
		return model.SetVariableTimeline(tb.Labels...)
	}
	if tb.First == nil || tb.Step == nil || tb.Last == nil {
		return fmt.Errorf("fixed timeline needs first, step, and last")
	}
	return model.SetFixedTimeline(*tb.First, *tb.Step, *tb.Last)
}

// dimensionKeys converts an HCL value list into dimension keys: strings
// stay strings, whole numbers become ints.
func dimensionKeys(val cty.Value) ([]any, error) {
	if !val.CanIterateElements() {
		return nil, fmt.Errorf("values must be a list")
	}
	var keys []any
	for it := val.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		switch ev.Type() {
		case cty.String:
			keys = append(keys, ev.AsString())
		case cty.Number:
			n, acc := ev.AsBigFloat().Int64()
			if acc != big.Exact {
				return nil, fmt.Errorf("numeric key %s is not a whole number", ev.AsBigFloat().Text('g', -1))
			}
			keys = append(keys, int(n))
		default:
			return nil, fmt.Errorf("unsupported key type %s", ev.Type().FriendlyName())
		}
	}
	return keys, nil
}

func splitEndpoint(s string) (string, string, error) {
	i := strings.LastIndex(s, ".")
	if i <= 0 || i == len(s)-1 {
		return "", "", fmt.Errorf("endpoint %q is not of the form component.item", s)
	}
	return s[:i], s[i+1:], nil
}

package builder

import (
	"context"
	"fmt"

	"github.com/vk/composim/comp"
	"github.com/vk/composim/internal/ctxlog"
)

// bind walks the composite tree and resolves every parameter to a concrete
// binding: internal connection first, then external connection, then loose
// or default value, else an unbound-parameter error.
func (b *build) bind(ctx context.Context, def *comp.ComponentDef, ci *comp.ComponentInstance) error {
	return b.bindComposite(ctx, "", def, ci)
}

func (b *build) bindComposite(ctx context.Context, prefix string, def *comp.ComponentDef, ci *comp.ComponentInstance) error {
	logger := ctxlog.FromContext(ctx)

	for _, conn := range def.InternalConnections() {
		if err := b.bindInternal(ci, conn); err != nil {
			return err
		}
		logger.Debug("Bound internal connection.",
			"src", conn.SrcComponent+"."+conn.SrcVariable,
			"dst", conn.DstComponent+"."+conn.DstParameter)
	}

	for _, conn := range def.ExternalConnections() {
		if err := b.bindExternal(def, ci, conn); err != nil {
			return err
		}
		logger.Debug("Bound external connection.",
			"dst", conn.Component+"."+conn.Parameter, "external", conn.External)
	}

	for _, childDef := range def.Children() {
		child := ci.Children[childDef.Name()]
		path := childDef.Name()
		if prefix != "" {
			path = prefix + "." + childDef.Name()
		}
		if childDef.IsComposite() {
			if err := b.bindComposite(ctx, path, childDef, child); err != nil {
				return err
			}
			continue
		}
		if err := b.bindDefaults(path, childDef, child); err != nil {
			return err
		}
	}
	return nil
}

// bindInternal resolves a variable-to-parameter connection, enforcing
// dimension compatibility, unit agreement, and window coverage.
func (b *build) bindInternal(ci *comp.ComponentInstance, conn *comp.InternalParameterConnection) error {
	src := ci.Children[conn.SrcComponent]
	dst := ci.Children[conn.DstComponent]
	if src == nil || dst == nil {
		return fmt.Errorf("%w: connection %s.%s -> %s.%s", comp.ErrUnknownComponent,
			conn.SrcComponent, conn.SrcVariable, conn.DstComponent, conn.DstParameter)
	}
	if src.Kind == comp.Composite || dst.Kind == comp.Composite {
		return fmt.Errorf("connection endpoints must be leaves: %s -> %s", conn.SrcComponent, conn.DstComponent)
	}

	vdef, _ := src.Def.Variable(conn.SrcVariable)
	pdef, _ := dst.Def.Parameter(conn.DstParameter)
	slot := src.Vars[conn.SrcVariable]

	if err := b.checkCompatibility(conn, vdef, pdef, src, dst); err != nil {
		return err
	}

	binding := &comp.Binding{
		Kind:   comp.BindConnected,
		Arr:    slot.Arr,
		Timed:  slot.Timed,
		Stride: slot.Stride,
		Offset: conn.Offset,
	}

	if slot.Timed {
		binding.RowOrigin = src.FirstPos
		binding.RowCount = src.LastPos - src.FirstPos + 1

		if uncovered(dst, src, conn.Offset) {
			dstLen := dst.LastPos - dst.FirstPos + 1
			need := dstLen * slot.Stride
			if len(conn.Backup) != need {
				return fmt.Errorf("%w: connection %s.%s -> %s.%s needs %d backup values covering the destination window, got %d",
					comp.ErrMissingBackup, conn.SrcComponent, conn.SrcVariable,
					conn.DstComponent, conn.DstParameter, need, len(conn.Backup))
			}
			backup, err := comp.FromValues(b.def.Number(), conn.Backup, dstLen, slot.Stride)
			if err != nil {
				return err
			}
			binding.Backup = backup
			binding.BackupOrigin = dst.FirstPos
		}
	}

	dst.Bindings[conn.DstParameter] = binding
	return nil
}

// uncovered reports whether any destination position falls outside the
// source window after applying the connection offset.
func uncovered(dst, src *comp.ComponentInstance, offset int) bool {
	for p := dst.FirstPos; p <= dst.LastPos; p++ {
		q := p - offset
		if q < src.FirstPos || q > src.LastPos {
			return true
		}
	}
	return false
}

// checkCompatibility enforces the connection invariants between a source
// variable and destination parameter.
func (b *build) checkCompatibility(conn *comp.InternalParameterConnection, vdef *comp.VariableDef, pdef *comp.ParameterDef, src, dst *comp.ComponentInstance) error {
	where := fmt.Sprintf("%s.%s -> %s.%s", conn.SrcComponent, conn.SrcVariable, conn.DstComponent, conn.DstParameter)

	if vdef.TimeIndexed() != pdef.TimeIndexed() {
		return fmt.Errorf("%w: %s: time-indexing differs", comp.ErrDimensionMismatch, where)
	}

	vdims, pdims := vdef.SpaceDimensions(), pdef.SpaceDimensions()
	if len(vdims) != len(pdims) {
		return fmt.Errorf("%w: %s: %d dimensions vs %d", comp.ErrDimensionMismatch, where, len(vdims), len(pdims))
	}
	for i := range vdims {
		vsize, err := b.dimSize(src.Def, vdims[i])
		if err != nil {
			return err
		}
		psize, err := b.dimSize(dst.Def, pdims[i])
		if err != nil {
			return err
		}
		if vsize != psize {
			return fmt.Errorf("%w: %s: dimension %q size %d vs %q size %d",
				comp.ErrDimensionMismatch, where, vdims[i], vsize, pdims[i], psize)
		}
		// A name mismatch with aligned sizes is tolerated only when the
		// connection is explicitly marked ignore-units.
		if vdims[i] != pdims[i] && !conn.IgnoreUnits {
			return fmt.Errorf("%w: %s: dimension name %q vs %q (use ignore units to accept)",
				comp.ErrDimensionMismatch, where, vdims[i], pdims[i])
		}
	}

	if !conn.IgnoreUnits && vdef.Unit != pdef.Unit {
		return fmt.Errorf("%w: %s: %q vs %q", comp.ErrUnitMismatch, where, vdef.Unit, pdef.Unit)
	}
	return nil
}

// bindExternal resolves a parameter bound to the composite's shared
// external-parameter store, coercing the stored value into the parameter's
// declared type.
func (b *build) bindExternal(def *comp.ComponentDef, ci *comp.ComponentInstance, conn *comp.ExternalParameterConnection) error {
	dst := ci.Children[conn.Component]
	if dst == nil || dst.Kind == comp.Composite {
		return fmt.Errorf("%w: external connection destination %q", comp.ErrUnknownComponent, conn.Component)
	}
	value, ok := def.ExternalParam(conn.External)
	if !ok {
		return fmt.Errorf("external parameter %q for %s.%s is not in the store", conn.External, conn.Component, conn.Parameter)
	}
	pdef, _ := dst.Def.Parameter(conn.Parameter)

	binding, err := b.materialize(dst, pdef, value, comp.BindExternal)
	if err != nil {
		return fmt.Errorf("external parameter %q: %w", conn.External, err)
	}
	dst.Bindings[conn.Parameter] = binding
	return nil
}

// bindDefaults gives every still-unbound parameter its loose or default
// value, or fails with an unbound-parameter error.
func (b *build) bindDefaults(path string, def *comp.ComponentDef, ci *comp.ComponentInstance) error {
	for _, pdef := range def.Parameters() {
		if _, done := ci.Bindings[pdef.Name]; done {
			continue
		}

		if lv, ok := b.loose[path+"/"+pdef.Name]; ok {
			val, _ := b.def.LooseParam(lv.name)
			binding, err := b.materialize(ci, pdef, comp.ScalarParam{Value: val}, comp.BindOwn)
			if err != nil {
				return fmt.Errorf("parameter %s.%s: %w", path, pdef.Name, err)
			}
			ci.Bindings[pdef.Name] = binding
			continue
		}

		if pdef.Default != nil {
			binding, err := b.materialize(ci, pdef, comp.ScalarParam{Value: *pdef.Default}, comp.BindOwn)
			if err != nil {
				return fmt.Errorf("default for %s.%s: %w", path, pdef.Name, err)
			}
			ci.Bindings[pdef.Name] = binding
			continue
		}

		return fmt.Errorf("%w: %s.%s has no connection and no default", comp.ErrUnboundParameter, path, pdef.Name)
	}
	return nil
}

// materialize coerces a stored value into the parameter's declared type and
// allocates the owning storage for it.
func (b *build) materialize(ci *comp.ComponentInstance, pdef *comp.ParameterDef, value comp.ModelParameter, kind comp.BindingKind) (*comp.Binding, error) {
	stride := 1
	for _, dn := range pdef.SpaceDimensions() {
		size, err := b.dimSize(ci.Def, dn)
		if err != nil {
			return nil, err
		}
		stride *= size
	}

	rows := 1
	timed := pdef.TimeIndexed()
	if timed {
		rows = ci.LastPos - ci.FirstPos + 1
	}

	var flat []float64
	switch v := value.(type) {
	case comp.ScalarParam:
		if v.Value.CanIterateElements() {
			series, err := comp.CoerceSeries(v.Value, pdef.ElementType())
			if err != nil {
				return nil, err
			}
			flat = series
		} else {
			f, err := comp.CoerceScalar(v.Value, pdef.ElementType())
			if err != nil {
				return nil, err
			}
			if timed || stride > 1 {
				return nil, fmt.Errorf("%w: parameter %q is dimensioned but the value is scalar",
					comp.ErrTypeConversion, pdef.Name)
			}
			flat = []float64{f}
		}
	case comp.ArrayParam:
		if len(v.Dimensions) > 0 && !sameDims(v.Dimensions, pdef.Dimensions) {
			return nil, fmt.Errorf("%w: value indexed by %v, parameter %q declares %v",
				comp.ErrDimensionMismatch, v.Dimensions, pdef.Name, pdef.Dimensions)
		}
		flat = make([]float64, 0, len(v.Values))
		for _, ev := range v.Values {
			f, err := comp.CoerceScalar(ev, pdef.ElementType())
			if err != nil {
				return nil, err
			}
			flat = append(flat, f)
		}
	}

	if len(flat) != rows*stride {
		return nil, fmt.Errorf("%w: parameter %q needs %d values, got %d",
			comp.ErrDimensionMismatch, pdef.Name, rows*stride, len(flat))
	}

	shape := []int{stride}
	if timed {
		shape = []int{rows, stride}
	}
	arr, err := comp.FromValues(b.def.Number(), flat, shape...)
	if err != nil {
		return nil, err
	}

	binding := &comp.Binding{
		Kind:   kind,
		Arr:    arr,
		Timed:  timed,
		Stride: stride,
	}
	if timed {
		binding.RowOrigin = ci.FirstPos
		binding.RowCount = rows
	}
	return binding, nil
}

func sameDims(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

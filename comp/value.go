package comp

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ToCty lifts a Go value into a cty.Value. cty.Value passes through
// unchanged; numeric slices become tuples so per-element coercion can apply
// later.
func ToCty(value any) (cty.Value, error) {
	switch v := value.(type) {
	case cty.Value:
		return v, nil
	case []float64:
		elems := make([]cty.Value, len(v))
		for i, f := range v {
			elems[i] = cty.NumberFloatVal(f)
		}
		return cty.TupleVal(elems), nil
	case []int:
		elems := make([]cty.Value, len(v))
		for i, n := range v {
			elems[i] = cty.NumberIntVal(int64(n))
		}
		return cty.TupleVal(elems), nil
	}
	ty, err := gocty.ImpliedType(value)
	if err != nil {
		return cty.NilVal, fmt.Errorf("%w: cannot imply type for %T: %v", ErrTypeConversion, value, err)
	}
	val, err := gocty.ToCtyValue(value, ty)
	if err != nil {
		return cty.NilVal, fmt.Errorf("%w: %v", ErrTypeConversion, err)
	}
	return val, nil
}

// CoerceScalar converts val into the element type want and unpacks it as a
// float64 for storage.
func CoerceScalar(val cty.Value, want cty.Type) (float64, error) {
	converted, err := convert.Convert(val, want)
	if err != nil {
		return 0, fmt.Errorf("%w: cannot convert %s to %s: %v",
			ErrTypeConversion, val.Type().FriendlyName(), want.FriendlyName(), err)
	}
	num, err := convert.Convert(converted, cty.Number)
	if err != nil {
		return 0, fmt.Errorf("%w: declared type %s is not numeric: %v",
			ErrTypeConversion, want.FriendlyName(), err)
	}
	f, _ := num.AsBigFloat().Float64()
	return f, nil
}

// CoerceSeries converts val, which must be a collection, into a flat
// float64 slice with per-element coercion into want.
func CoerceSeries(val cty.Value, want cty.Type) ([]float64, error) {
	if !val.CanIterateElements() {
		return nil, fmt.Errorf("%w: expected a collection, got %s", ErrTypeConversion, val.Type().FriendlyName())
	}
	out := make([]float64, 0, val.LengthInt())
	for it := val.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		if ev.CanIterateElements() {
			nested, err := CoerceSeries(ev, want)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
			continue
		}
		f, err := CoerceScalar(ev, want)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Package dims provides the ordered index spaces that dimensioned
// parameters and variables are indexed by. Positions are 1-based and stable
// for the lifetime of a model: the position assigned at construction is the
// sole index used by storage.
package dims

import "fmt"

// Dimension maps domain keys (ints, strings, or time labels) to dense
// 1-based positions, preserving input order.
type Dimension struct {
	keys  []any
	index map[any]int
}

// New builds a Dimension from an explicit ordered key list. At least one
// key is required; keys must be unique and comparable.
func New(keys ...any) (*Dimension, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("dimension needs at least one key")
	}
	d := &Dimension{
		keys:  make([]any, 0, len(keys)),
		index: make(map[any]int, len(keys)),
	}
	for _, k := range keys {
		if _, dup := d.index[k]; dup {
			return nil, fmt.Errorf("duplicate dimension key %v", k)
		}
		d.keys = append(d.keys, k)
		d.index[k] = len(d.keys)
	}
	return d, nil
}

// NewRange builds a Dimension whose keys are the integers 1..n.
func NewRange(n int) (*Dimension, error) {
	if n < 1 {
		return nil, fmt.Errorf("dimension range must be positive, got %d", n)
	}
	keys := make([]any, n)
	for i := range keys {
		keys[i] = i + 1
	}
	return New(keys...)
}

// NewSpan builds a Dimension from the contiguous integer span first..last.
func NewSpan(first, last int) (*Dimension, error) {
	if last < first {
		return nil, fmt.Errorf("invalid dimension span %d..%d", first, last)
	}
	keys := make([]any, 0, last-first+1)
	for k := first; k <= last; k++ {
		keys = append(keys, k)
	}
	return New(keys...)
}

// Len returns the number of keys in the dimension.
func (d *Dimension) Len() int { return len(d.keys) }

// Position returns the 1-based position of key.
func (d *Dimension) Position(key any) (int, error) {
	pos, ok := d.index[key]
	if !ok {
		return 0, fmt.Errorf("dimension key not found: %v", key)
	}
	return pos, nil
}

// Key returns the key stored at the 1-based position pos.
func (d *Dimension) Key(pos int) (any, error) {
	if pos < 1 || pos > len(d.keys) {
		return nil, fmt.Errorf("dimension position %d out of range 1..%d", pos, len(d.keys))
	}
	return d.keys[pos-1], nil
}

// Keys returns a copy of the ordered key list.
func (d *Dimension) Keys() []any {
	out := make([]any, len(d.keys))
	copy(out, d.keys)
	return out
}

// Clone returns an independent copy of the dimension.
func (d *Dimension) Clone() *Dimension {
	c, _ := New(d.keys...)
	return c
}

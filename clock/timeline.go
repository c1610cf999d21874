// Package clock provides the timeline abstraction and the position cursor
// the execution engine advances. A timeline maps 1-based positions to time
// labels; the mapping is either uniformly stepped or driven by an explicit
// label table. Positions one past the end are legal and carry a sentinel
// label so components whose window ends early can still be compared against
// "after the model ends".
package clock

import "fmt"

// Timeline maps 1-based positions to time labels.
type Timeline interface {
	// Len returns the number of positions in the timeline.
	Len() int
	// Label returns the time label at the 1-based position pos. Positions
	// past the end yield the variant's one-past-end sentinel.
	Label(pos int) int
	// Position returns the 1-based position of label, or false if the label
	// is not on the timeline.
	Position(label int) (int, bool)
	// First and Last return the boundary labels.
	First() int
	Last() int
}

// Fixed is the uniformly stepped timeline variant: labels are
// first + step*(pos-1). Advancing past the declared last position yields
// last + step.
type Fixed struct {
	first, step, last int
	length            int
}

// NewFixed builds a Fixed timeline. The span last-first must be a whole
// number of steps.
func NewFixed(first, step, last int) (*Fixed, error) {
	if step <= 0 {
		return nil, fmt.Errorf("timeline step must be positive, got %d", step)
	}
	if last < first {
		return nil, fmt.Errorf("timeline last %d precedes first %d", last, first)
	}
	if (last-first)%step != 0 {
		return nil, fmt.Errorf("timeline span %d..%d is not a multiple of step %d", first, last, step)
	}
	return &Fixed{first: first, step: step, last: last, length: (last-first)/step + 1}, nil
}

func (f *Fixed) Len() int   { return f.length }
func (f *Fixed) First() int { return f.first }
func (f *Fixed) Last() int  { return f.last }

// Step returns the uniform step size.
func (f *Fixed) Step() int { return f.step }

func (f *Fixed) Label(pos int) int {
	if pos > f.length {
		return f.last + f.step
	}
	return f.first + f.step*(pos-1)
}

func (f *Fixed) Position(label int) (int, bool) {
	if label < f.first || label > f.last || (label-f.first)%f.step != 0 {
		return 0, false
	}
	return (label-f.first)/f.step + 1, true
}

// Variable is the explicitly tabulated timeline variant with non-uniform
// spacing. Advancing past the table yields lastLabel + 1, not the last
// observed step size.
type Variable struct {
	labels []int
	index  map[int]int
}

// NewVariable builds a Variable timeline from an ordered label list. Labels
// must be strictly increasing.
func NewVariable(labels ...int) (*Variable, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("variable timeline needs at least one label")
	}
	v := &Variable{
		labels: make([]int, len(labels)),
		index:  make(map[int]int, len(labels)),
	}
	copy(v.labels, labels)
	for i, l := range labels {
		if i > 0 && l <= labels[i-1] {
			return nil, fmt.Errorf("timeline labels must be strictly increasing, got %d after %d", l, labels[i-1])
		}
		v.index[l] = i + 1
	}
	return v, nil
}

func (v *Variable) Len() int   { return len(v.labels) }
func (v *Variable) First() int { return v.labels[0] }
func (v *Variable) Last() int  { return v.labels[len(v.labels)-1] }

func (v *Variable) Label(pos int) int {
	if pos > len(v.labels) {
		return v.labels[len(v.labels)-1] + 1
	}
	return v.labels[pos-1]
}

func (v *Variable) Position(label int) (int, bool) {
	pos, ok := v.index[label]
	return pos, ok
}

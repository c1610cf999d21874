package clock

// Timestep is an opaque cursor over a timeline, scoped to one component's
// active window. The position is global (shared with every other
// component); first/last describe the owning component's window, so IsFirst
// and IsLast answer relative to that window rather than the whole model.
type Timestep struct {
	timeline Timeline
	pos      int
	first    int
	last     int
}

// NewTimestep returns a cursor positioned at the window's first position.
func NewTimestep(tl Timeline, first, last int) *Timestep {
	return &Timestep{timeline: tl, pos: first, first: first, last: last}
}

// Position returns the current global 1-based position.
func (ts *Timestep) Position() int { return ts.pos }

// Label returns the time label of the current position.
func (ts *Timestep) Label() int { return ts.timeline.Label(ts.pos) }

// Index returns the 1-based position relative to the window start. It is
// the index used to address window-length storage.
func (ts *Timestep) Index() int { return ts.pos - ts.first + 1 }

// IsFirst reports whether the cursor sits on the window's first position.
func (ts *Timestep) IsFirst() bool { return ts.pos == ts.first }

// IsLast reports whether the cursor sits on the window's last position.
func (ts *Timestep) IsLast() bool { return ts.pos == ts.last }

// Done reports whether the cursor has advanced past the window.
func (ts *Timestep) Done() bool { return ts.pos > ts.last }

// Compare orders two cursors by global position: -1, 0, or 1.
func (ts *Timestep) Compare(other *Timestep) int {
	switch {
	case ts.pos < other.pos:
		return -1
	case ts.pos > other.pos:
		return 1
	default:
		return 0
	}
}

// advance moves the cursor forward by one position. Movement is monotonic;
// there is no way back.
func (ts *Timestep) advance() { ts.pos++ }

// Clock wraps one Timestep and exposes advance-by-one. Composites hold one
// Clock per child so each child keeps an independent active window over the
// shared position-to-label mapping.
type Clock struct {
	ts *Timestep
}

// NewClock builds a clock for the window [first, last] on tl.
func NewClock(tl Timeline, first, last int) *Clock {
	return &Clock{ts: NewTimestep(tl, first, last)}
}

// Timestep returns the clock's cursor.
func (c *Clock) Timestep() *Timestep { return c.ts }

// Advance moves the clock forward by one position.
func (c *Clock) Advance() { c.ts.advance() }

// Reset rewinds the clock to the first position of its window, making the
// owning component runnable again. The cursor itself stays monotonic within
// one run; only a full rewind is possible.
func (c *Clock) Reset() { c.ts.pos = c.ts.first }

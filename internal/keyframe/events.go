package keyframe

// Event is a notification emitted by a curve. Events carry no payload;
// listeners read the curve back.
type Event int

const (
	Changed    Event = iota // Point list mutated, redraw needed
	HoverEnter              // Pointer moved onto the curve line
	HoverExit               // Pointer left the curve line
)

func (e Event) String() string {
	switch e {
	case Changed:
		return "changed"
	case HoverEnter:
		return "hover-enter"
	case HoverExit:
		return "hover-exit"
	default:
		return "unknown"
	}
}

// observers is a synchronous listener list
type observers struct {
	fns []func(Event)
}

// subscribe registers fn and returns a function removing it again
func (o *observers) subscribe(fn func(Event)) func() {
	idx := len(o.fns)
	o.fns = append(o.fns, fn)
	return func() {
		if idx < len(o.fns) {
			o.fns[idx] = nil
		}
	}
}

func (o *observers) emit(e Event) {
	for _, fn := range o.fns {
		if fn != nil {
			fn(e)
		}
	}
}

// hover tracks whether the pointer is over the line and reports transitions
type hover struct {
	over bool
}

func (h *hover) update(onLine bool, o *observers) {
	switch {
	case onLine && !h.over:
		h.over = true
		o.emit(HoverEnter)
	case !onLine && h.over:
		h.over = false
		o.emit(HoverExit)
	}
}

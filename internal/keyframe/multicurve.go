package keyframe

import (
	"errors"
	"fmt"
)

// lineValue is where the shared line of a MultiCurve is drawn
const lineValue = 0.5

// MultiCurve keeps several curves in lockstep: every member carries the same
// timestamps while keeping its own values. The shared line it exposes has
// no meaningful value, so clicking it never creates keyframes.
type MultiCurve struct {
	members []*Curve

	observers observers
	hover     hover
	cancels   []func()
	busy      bool
}

// NewMultiCurve links members and reconciles their timestamps
func NewMultiCurve(members ...*Curve) (*MultiCurve, error) {
	if len(members) == 0 {
		return nil, ErrNoMembers
	}

	m := &MultiCurve{
		members: members,
	}
	m.reconcile()

	for _, c := range members {
		m.cancels = append(m.cancels, c.Subscribe(m.memberEvent))
	}
	return m, nil
}

// Members returns the linked curves
func (m *MultiCurve) Members() []*Curve {
	return append([]*Curve(nil), m.members...)
}

// Names lists the member property names
func (m *MultiCurve) Names() []string {
	names := make([]string, len(m.members))
	for i, c := range m.members {
		names[i] = c.Name()
	}
	return names
}

// Mapping is the mapping of the first member; the view zooms every member
// together through SetMapping.
func (m *MultiCurve) Mapping() Mapping { return m.members[0].Mapping() }

// SetMapping changes the time to pixel mapping of every member
func (m *MultiCurve) SetMapping(mapping Mapping) {
	m.mutate(func() {
		for _, c := range m.members {
			c.SetMapping(mapping)
		}
	})
}

// Close detaches the multi curve from its members
func (m *MultiCurve) Close() {
	for _, cancel := range m.cancels {
		cancel()
	}
	m.cancels = nil
}

func (m *MultiCurve) Subscribe(fn func(Event)) (cancel func()) {
	return m.observers.subscribe(fn)
}

// Points returns the shared timestamps drawn at the line value
func (m *MultiCurve) Points() []Point {
	src := m.members[0].points
	out := make([]Point, len(src))
	for i, p := range src {
		out[i] = Point{Timestamp: p.Timestamp, Value: lineValue}
	}
	return out
}

func (m *MultiCurve) IsBoundary(ts int64) bool {
	return m.members[0].IsBoundary(ts)
}

// Add inserts ts into every member; each member keeps the value its own
// line already has there, value is ignored.
func (m *MultiCurve) Add(ts int64, value float64) (Point, error) {
	values := make([]float64, len(m.members))
	for i, c := range m.members {
		if err := c.checkAdd(ts); err != nil {
			return Point{}, fmt.Errorf("%s: %w", c.Name(), err)
		}
		v, err := c.ValueAt(ts)
		if err != nil && len(c.points) >= 2 {
			return Point{}, fmt.Errorf("%s: %w", c.Name(), err)
		}
		values[i] = v
	}

	m.mutate(func() {
		for i, c := range m.members {
			c.insert(ts, values[i])
		}
	})
	return Point{Timestamp: ts, Value: lineValue}, nil
}

// Remove drops ts from every member
func (m *MultiCurve) Remove(ts int64) error {
	lead := m.members[0]
	i, ok := lead.index(ts)
	if !ok {
		return nil
	}
	if lead.isEdge(i) {
		return fmt.Errorf("remove %d: %w", ts, ErrBoundaryPointProtected)
	}

	m.mutate(func() {
		for _, c := range m.members {
			if j, ok := c.index(ts); ok {
				c.points = append(c.points[:j], c.points[j+1:]...)
			}
		}
	})
	return nil
}

// MoveTimestamp retimes ts in every member with the single-curve rules
func (m *MultiCurve) MoveTimestamp(old, candidate int64) (int64, error) {
	_, dst, err := m.members[0].resolveMove(old, candidate)
	if err != nil || dst == old {
		return old, err
	}

	m.mutate(func() {
		for _, c := range m.members {
			if j, ok := c.index(old); ok {
				c.retime(j, dst)
			}
		}
	})
	return dst, nil
}

// SetValue is a no-op: the shared line carries no value of its own
func (m *MultiCurve) SetValue(ts int64, value float64) error {
	if _, ok := m.members[0].index(ts); !ok {
		return fmt.Errorf("set value at %d: %w", ts, ErrPointNotFound)
	}
	return nil
}

// ValueAt returns the line value inside the shared bounds
func (m *MultiCurve) ValueAt(ts int64) (float64, error) {
	if _, err := m.members[0].ValueAt(ts); err != nil {
		return 0, err
	}
	return lineValue, nil
}

// MaybeCreateAt never creates keyframes on a multi curve
func (m *MultiCurve) MaybeCreateAt(px, py float64, hit Hit) (Point, bool, error) {
	return Point{}, false, nil
}

func (m *MultiCurve) Hover(onLine bool) {
	m.hover.update(onLine, &m.observers)
}

func (m *MultiCurve) PixelToValue(py float64) float64 {
	return lineValue
}

// PixelPoints returns the shared timestamps in view coordinates
func (m *MultiCurve) PixelPoints() []PixelPoint {
	s := valueScale{min: 0, max: 1, height: m.members[0].height}
	pts := m.Points()
	out := make([]PixelPoint, len(pts))
	for i, p := range pts {
		out[i] = PixelPoint{X: m.Mapping().ToPixel(p.Timestamp), Y: s.toPixel(p.Value)}
	}
	return out
}

// Populate re-reads the members and restores the shared timestamp set
func (m *MultiCurve) Populate() {
	m.mutate(m.reconcile)
}

func (m *MultiCurve) Snapshot() Snapshot {
	s := make(Snapshot, len(m.members))
	for i, c := range m.members {
		s[i] = c.Points()
	}
	return s
}

func (m *MultiCurve) Restore(s Snapshot) {
	if len(s) != len(m.members) {
		return
	}
	m.mutate(func() {
		for i, c := range m.members {
			c.points = append([]Point(nil), s[i]...)
		}
	})
}

// Timestamps returns the shared timestamps, or an error when members drifted
func (m *MultiCurve) Timestamps() ([]int64, error) {
	lead := m.members[0].points
	out := make([]int64, len(lead))
	for i, p := range lead {
		out[i] = p.Timestamp
	}

	var errs []error
	for _, c := range m.members[1:] {
		if len(c.points) != len(lead) {
			errs = append(errs, fmt.Errorf("%s has %d keyframes, want %d", c.Name(), len(c.points), len(lead)))
			continue
		}
		for i, p := range c.points {
			if p.Timestamp != out[i] {
				errs = append(errs, fmt.Errorf("%s keyframe %d at %d, want %d", c.Name(), i, p.Timestamp, out[i]))
				break
			}
		}
	}
	return out, errors.Join(errs...)
}

// reconcile adds every timestamp missing from a member, valued from that
// member's own line. Timestamps outside a member's bounds take the
// nearest boundary value.
func (m *MultiCurve) reconcile() {
	union := map[int64]struct{}{}
	for _, c := range m.members {
		for _, p := range c.points {
			union[p.Timestamp] = struct{}{}
		}
	}

	for _, c := range m.members {
		if len(c.points) == 0 {
			continue
		}
		merged := c.Points()
		for ts := range union {
			if _, ok := c.index(ts); ok {
				continue
			}
			merged = append(merged, Point{Timestamp: ts, Value: edgeValue(c.points, ts)})
		}
		c.points = normalize(merged)
	}
}

func (m *MultiCurve) memberEvent(e Event) {
	if e != Changed || m.busy {
		return
	}
	m.mutate(m.reconcile)
}

// mutate runs fn with member notifications muted and emits one Changed
func (m *MultiCurve) mutate(fn func()) {
	m.busy = true
	fn()
	m.busy = false
	m.observers.emit(Changed)
}

// edgeValue is valueAt with clamping to the first and last keyframes
func edgeValue(points []Point, ts int64) float64 {
	if ts <= points[0].Timestamp {
		return points[0].Value
	}
	if last := points[len(points)-1]; ts >= last.Timestamp {
		return last.Value
	}
	v, _ := valueAt(points, ts)
	return v
}

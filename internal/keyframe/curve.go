package keyframe

import (
	"fmt"
)

// Curve is the ordered keyframe list of one animated property.
// Timestamps are unique and ascending; once initialized the first and
// last points are boundary anchors whose timestamps never move.
type Curve struct {
	name    string
	points  []Point
	yMin    float64
	yMax    float64
	mapping Mapping
	height  float64

	observers observers
	hover     hover
}

// Option configures a Curve
type Option func(*Curve)

// WithRange overrides the default [0, 1] value range
func WithRange(min, max float64) Option {
	return func(c *Curve) {
		if max < min {
			min, max = max, min
		}
		c.yMin, c.yMax = min, max
	}
}

// WithMapping sets the time<->pixel mapping used for pointer input
func WithMapping(m Mapping) Option {
	return func(c *Curve) {
		c.mapping = m
	}
}

// WithHeight sets the plot height in pixels used for value<->pixel conversion
func WithHeight(px float64) Option {
	return func(c *Curve) {
		c.height = px
	}
}

// WithName labels the curve with the property it animates
func WithName(name string) Option {
	return func(c *Curve) {
		c.name = name
	}
}

// NewCurve creates an empty curve; call Initialize or Populate before editing
func NewCurve(opts ...Option) *Curve {
	c := &Curve{
		yMin:    0.0,
		yMax:    1.0,
		mapping: Zoom{NsPerPixel: 1},
		height:  1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Curve) Name() string { return c.name }

// Range returns the value range [min, max]
func (c *Curve) Range() (float64, float64) { return c.yMin, c.yMax }

func (c *Curve) Mapping() Mapping { return c.mapping }

// SetMapping swaps the mapping, e.g. after a zoom change
func (c *Curve) SetMapping(m Mapping) {
	c.mapping = m
	c.observers.emit(Changed)
}

// SetHeight updates the plot height in pixels
func (c *Curve) SetHeight(px float64) {
	c.height = px
	c.observers.emit(Changed)
}

func (c *Curve) Len() int { return len(c.points) }

// Points returns a copy of the point list
func (c *Curve) Points() []Point {
	out := make([]Point, len(c.points))
	copy(out, c.points)
	return out
}

// Bounds returns the first and last timestamps
func (c *Curve) Bounds() (start, end int64, ok bool) {
	if len(c.points) == 0 {
		return 0, 0, false
	}
	return c.points[0].Timestamp, c.points[len(c.points)-1].Timestamp, true
}

// IsBoundary reports whether ts is the first or last point of the curve
func (c *Curve) IsBoundary(ts int64) bool {
	i, ok := c.index(ts)
	return ok && c.isEdge(i)
}

// Subscribe registers a listener for curve events
func (c *Curve) Subscribe(fn func(Event)) (cancel func()) {
	return c.observers.subscribe(fn)
}

// Initialize resets the curve to two boundary points carrying defaultValue
// when it holds fewer than two points. Initialized curves are left alone.
func (c *Curve) Initialize(defaultValue float64, start, end int64) error {
	if end <= start {
		return fmt.Errorf("initialize [%d, %d]: %w", start, end, ErrInvalidRange)
	}
	if len(c.points) >= 2 {
		return nil
	}

	v := clamp(defaultValue, c.yMin, c.yMax)
	c.points = []Point{
		{Timestamp: start, Value: v},
		{Timestamp: end, Value: v},
	}
	c.observers.emit(Changed)
	return nil
}

// Populate replaces the whole list, as after an external change of the
// control source. Points are sorted, de-duplicated and clamped.
func (c *Curve) Populate(points []Point) {
	c.points = normalize(points)
	for i := range c.points {
		c.points[i].Value = clamp(c.points[i].Value, c.yMin, c.yMax)
	}
	c.observers.emit(Changed)
}

// Add inserts a keyframe with its value clamped to the curve range
func (c *Curve) Add(ts int64, value float64) (Point, error) {
	if err := c.checkAdd(ts); err != nil {
		return Point{}, err
	}
	p := c.insert(ts, value)
	c.observers.emit(Changed)
	return p, nil
}

// Remove deletes the keyframe at ts. Missing timestamps are ignored;
// boundary keyframes are protected.
func (c *Curve) Remove(ts int64) error {
	i, ok := c.index(ts)
	if !ok {
		return nil
	}
	if c.isEdge(i) {
		return fmt.Errorf("remove %d: %w", ts, ErrBoundaryPointProtected)
	}
	c.points = append(c.points[:i], c.points[i+1:]...)
	c.observers.emit(Changed)
	return nil
}

// MoveTimestamp retimes the keyframe at old towards candidate and returns
// where it actually landed. Boundary keyframes stay put and interior ones
// are clamped strictly between their neighbours.
func (c *Curve) MoveTimestamp(old, candidate int64) (int64, error) {
	i, dst, err := c.resolveMove(old, candidate)
	if err != nil || dst == old {
		return old, err
	}
	c.retime(i, dst)
	c.observers.emit(Changed)
	return dst, nil
}

// SetValue updates the value of the keyframe at ts, clamped to the range
func (c *Curve) SetValue(ts int64, value float64) error {
	i, ok := c.index(ts)
	if !ok {
		return fmt.Errorf("set value at %d: %w", ts, ErrPointNotFound)
	}
	v := clamp(value, c.yMin, c.yMax)
	if c.points[i].Value == v {
		return nil
	}
	c.points[i].Value = v
	c.observers.emit(Changed)
	return nil
}

// ValueAt linearly interpolates between the keyframes bracketing ts
func (c *Curve) ValueAt(ts int64) (float64, error) {
	return valueAt(c.points, ts)
}

// MustValueAt is ValueAt for callers that control the query domain
func (c *Curve) MustValueAt(ts int64) float64 {
	v, err := c.ValueAt(ts)
	if err != nil {
		panic(err)
	}
	return v
}

// MaybeCreateAt adds a keyframe where the pointer clicked the line.
// The value is read from the line itself, py only locates the click.
func (c *Curve) MaybeCreateAt(px, py float64, hit Hit) (Point, bool, error) {
	if !hit.OnLine || hit.OnPoint {
		return Point{}, false, nil
	}

	ts := c.mapping.ToTime(px)
	if _, exists := c.index(ts); exists {
		return Point{}, false, nil
	}
	v, err := c.ValueAt(ts)
	if err != nil {
		return Point{}, false, err
	}
	p, err := c.Add(ts, v)
	if err != nil {
		return Point{}, false, err
	}
	return p, true, nil
}

// Hover reports whether the pointer is over the line
func (c *Curve) Hover(onLine bool) {
	c.hover.update(onLine, &c.observers)
}

// Hovered reports the last hover state
func (c *Curve) Hovered() bool { return c.hover.over }

// PixelToValue converts a pixel row to a value, clamped to the range
func (c *Curve) PixelToValue(py float64) float64 {
	return clamp(c.scale().toValue(py), c.yMin, c.yMax)
}

// ValueToPixel converts a value to a pixel row
func (c *Curve) ValueToPixel(v float64) float64 {
	return c.scale().toPixel(v)
}

// PixelPoints returns the point list in view coordinates
func (c *Curve) PixelPoints() []PixelPoint {
	out := make([]PixelPoint, len(c.points))
	for i, p := range c.points {
		out[i] = PixelPoint{
			X: c.mapping.ToPixel(p.Timestamp),
			Y: c.ValueToPixel(p.Value),
		}
	}
	return out
}

// Snapshot captures the point list
func (c *Curve) Snapshot() Snapshot {
	return Snapshot{c.Points()}
}

// Restore reinstates a snapshot taken from this curve
func (c *Curve) Restore(s Snapshot) {
	if len(s) != 1 {
		return
	}
	c.points = append([]Point(nil), s[0]...)
	c.observers.emit(Changed)
}

func (c *Curve) scale() valueScale {
	return valueScale{min: c.yMin, max: c.yMax, height: c.height}
}

func (c *Curve) index(ts int64) (int, bool) {
	i := search(c.points, ts)
	return i, i < len(c.points) && c.points[i].Timestamp == ts
}

func (c *Curve) isEdge(i int) bool {
	return i == 0 || i == len(c.points)-1
}

func (c *Curve) checkAdd(ts int64) error {
	if _, exists := c.index(ts); exists {
		return fmt.Errorf("add %d: %w", ts, ErrDuplicateTimestamp)
	}
	if len(c.points) >= 2 {
		start, end := c.points[0].Timestamp, c.points[len(c.points)-1].Timestamp
		if ts < start || ts > end {
			return fmt.Errorf("add %d outside [%d, %d]: %w", ts, start, end, ErrOutOfRange)
		}
	}
	return nil
}

func (c *Curve) insert(ts int64, value float64) Point {
	p := Point{Timestamp: ts, Value: clamp(value, c.yMin, c.yMax)}
	i := search(c.points, ts)
	c.points = append(c.points, Point{})
	copy(c.points[i+1:], c.points[i:])
	c.points[i] = p
	return p
}

// resolveMove computes the clamped destination of the keyframe at old
func (c *Curve) resolveMove(old, candidate int64) (int, int64, error) {
	i, ok := c.index(old)
	if !ok {
		return 0, old, fmt.Errorf("move %d: %w", old, ErrPointNotFound)
	}
	if c.isEdge(i) {
		return i, old, nil
	}

	prev, next := c.points[i-1].Timestamp, c.points[i+1].Timestamp
	dst := candidate
	if dst >= next {
		dst = next - 1
	}
	if dst <= prev {
		dst = prev + 1
	}
	return i, dst, nil
}

// retime moves point i to dst, which must lie strictly between its
// neighbours, so the slice order is unchanged.
func (c *Curve) retime(i int, dst int64) {
	c.points[i].Timestamp = dst
}

// valueAt interpolates over a sorted point list
func valueAt(points []Point, ts int64) (float64, error) {
	n := len(points)
	if n == 0 || ts < points[0].Timestamp || ts > points[n-1].Timestamp {
		return 0, fmt.Errorf("value at %d: %w", ts, ErrOutOfRange)
	}

	i := search(points, ts)
	if points[i].Timestamp == ts {
		return points[i].Value, nil
	}

	prev, next := points[i-1], points[i]
	t := float64(ts-prev.Timestamp) / float64(next.Timestamp-prev.Timestamp)
	return lerp(prev.Value, next.Value, t), nil
}

package timeline

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ivlev/kfcurve/internal/config"
	"github.com/ivlev/kfcurve/internal/keyframe"
	"github.com/ivlev/kfcurve/internal/source"
)

var (
	ErrUnknownElement    = errors.New("unknown element")
	ErrDuplicateElement  = errors.New("element already exists")
	ErrUnknownProperty   = errors.New("unknown property")
	ErrDuplicateProperty = errors.New("property listed twice")
	ErrUnknownKind       = errors.New("unknown element kind")
	ErrInvalidDuration   = errors.New("duration must be positive")
	ErrNoKeyframes       = errors.New("element has no keyframe curve")
)

// Kind is the type of a timeline element
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
	KindTitle Kind = "title"
)

// ParseKind validates a kind name
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindVideo, KindAudio, KindTitle:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// DefaultMixingProperty is the property animated when nothing else was
// picked: alpha for video, volume for audio, nothing for titles.
func (k Kind) DefaultMixingProperty() string {
	switch k {
	case KindVideo:
		return "alpha"
	case KindAudio:
		return "volume"
	default:
		return ""
	}
}

// Element is one clip of the timeline together with its keyframe state
type Element struct {
	ID       string
	Kind     Kind
	InPoint  int64
	Duration int64

	sources    map[string]source.ControlSource
	controlled []string

	editor     keyframe.Editor
	multi      *keyframe.MultiCurve
	bindings   []*source.Binding
	committer  keyframe.Committer
	controller *keyframe.Controller
	cancel     func()

	// curves handed out for properties that are not displayed
	detached map[string]*source.Binding
}

// End is the timestamp of the element's last boundary keyframe
func (e *Element) End() int64 { return e.InPoint + e.Duration }

// Controlled lists the properties of the displayed curve
func (e *Element) Controlled() []string {
	return append([]string(nil), e.controlled...)
}

// Properties lists every property with a control source, sorted
func (e *Element) Properties() []string {
	names := make([]string, 0, len(e.sources))
	for name := range e.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Source returns the control source of property
func (e *Element) Source(property string) (source.ControlSource, bool) {
	src, ok := e.sources[property]
	return src, ok
}

// Editor returns the displayed curve, nil when keyframes are hidden
func (e *Element) Editor() keyframe.Editor { return e.editor }

// Controller returns the pointer controller of the displayed curve
func (e *Element) Controller() *keyframe.Controller { return e.controller }

// Committer writes the displayed curve back to its control sources
func (e *Element) Committer() keyframe.Committer { return e.committer }

// Timeline maps element identities to their keyframe curves. Views look
// curves up here instead of hanging them off the elements they draw.
type Timeline struct {
	cfg       *config.Config
	mapping   keyframe.Mapping
	elements  map[string]*Element
	listeners []func(id string, e keyframe.Event)
}

// New creates an empty timeline
func New(cfg *config.Config) *Timeline {
	if cfg == nil {
		cfg = config.New()
	}
	return &Timeline{
		cfg:      cfg,
		mapping:  keyframe.NewZoom(cfg.PixelsPerSecond, 0),
		elements: make(map[string]*Element),
	}
}

func (t *Timeline) Config() *config.Config { return t.cfg }

// SetMapping changes the zoom of every curve handed out so far and of
// curves created later.
func (t *Timeline) SetMapping(m keyframe.Mapping) {
	t.mapping = m
	for _, e := range t.elements {
		if e.multi != nil {
			e.multi.SetMapping(m)
		} else {
			for _, b := range e.bindings {
				b.Curve().SetMapping(m)
			}
		}
		for _, b := range e.detached {
			b.Curve().SetMapping(m)
		}
	}
}

// Subscribe registers fn for curve events of every element
func (t *Timeline) Subscribe(fn func(id string, e keyframe.Event)) {
	t.listeners = append(t.listeners, fn)
}

// AddElement registers a clip and shows its default mixing curve
func (t *Timeline) AddElement(id string, kind Kind, inPoint, duration int64) (*Element, error) {
	if _, exists := t.elements[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateElement, id)
	}
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	if duration <= 0 {
		return nil, fmt.Errorf("element %s: %w", id, ErrInvalidDuration)
	}

	e := &Element{
		ID:       id,
		Kind:     kind,
		InPoint:  inPoint,
		Duration: duration,
		sources:  make(map[string]source.ControlSource),
	}
	t.elements[id] = e

	if prop := kind.DefaultMixingProperty(); prop != "" {
		if err := t.show(e, []string{prop}); err != nil {
			delete(t.elements, id)
			return nil, err
		}
	}
	return e, nil
}

// Element looks up an element by ID
func (t *Timeline) Element(id string) (*Element, error) {
	e, ok := t.elements[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownElement, id)
	}
	return e, nil
}

// Elements returns all elements ordered by ID
func (t *Timeline) Elements() []*Element {
	out := make([]*Element, 0, len(t.elements))
	for _, e := range t.elements {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// SetSource attaches an existing control source, e.g. one read from a
// project file. It overrides any source created for the property so far.
func (t *Timeline) SetSource(id, property string, src source.ControlSource) error {
	e, err := t.Element(id)
	if err != nil {
		return err
	}
	if _, ok := t.cfg.Property(property); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProperty, property)
	}

	e.sources[property] = src
	t.closeDetached(e, property)
	for _, name := range e.controlled {
		if name == property {
			return t.show(e, e.controlled)
		}
	}
	return nil
}

// ShowKeyframes displays the curve of one property
func (t *Timeline) ShowKeyframes(id, property string) error {
	e, err := t.Element(id)
	if err != nil {
		return err
	}
	return t.show(e, []string{property})
}

// ShowMultipleKeyframes displays one lockstep curve over several properties
func (t *Timeline) ShowMultipleKeyframes(id string, properties ...string) error {
	e, err := t.Element(id)
	if err != nil {
		return err
	}
	if len(properties) == 0 {
		return keyframe.ErrNoMembers
	}
	return t.show(e, properties)
}

// HideKeyframes drops the displayed curve and falls back to the default
// mixing property of the element.
func (t *Timeline) HideKeyframes(id string) error {
	e, err := t.Element(id)
	if err != nil {
		return err
	}
	t.teardown(e)
	e.controlled = nil

	if prop := e.Kind.DefaultMixingProperty(); prop != "" {
		return t.show(e, []string{prop})
	}
	return nil
}

// Release forgets an element and detaches its curves
func (t *Timeline) Release(id string) {
	if e, ok := t.elements[id]; ok {
		t.teardown(e)
		for property := range e.detached {
			t.closeDetached(e, property)
		}
		delete(t.elements, id)
	}
}

// Controller returns the pointer controller of an element's curve
func (t *Timeline) Controller(id string) (*keyframe.Controller, error) {
	e, err := t.Element(id)
	if err != nil {
		return nil, err
	}
	if e.controller == nil {
		return nil, fmt.Errorf("element %s: %w", id, ErrNoKeyframes)
	}
	return e.controller, nil
}

// Curve returns a curve bound to property without changing what the
// element displays. The displayed curve is returned when it shows property;
// otherwise a detached curve is kept in sync with the source. A source with
// fewer than two values gets its boundary keyframes in the curve only, the
// returned committer writes them.
func (t *Timeline) Curve(id, property string) (*keyframe.Curve, keyframe.Committer, error) {
	e, err := t.Element(id)
	if err != nil {
		return nil, nil, err
	}
	for _, b := range e.bindings {
		if b.Property() == property {
			return b.Curve(), b, nil
		}
	}
	if b, ok := e.detached[property]; ok {
		return b.Curve(), detachedCommitter{e: e, binding: b}, nil
	}

	prop, ok := t.cfg.Property(property)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownProperty, property)
	}
	src, ok := e.sources[property]
	if !ok {
		src = source.NewInterpolationSource()
	}
	b, _, err := t.newBinding(e, prop, src)
	if err != nil {
		return nil, nil, err
	}
	if e.detached == nil {
		e.detached = make(map[string]*source.Binding)
	}
	e.detached[property] = b
	return b.Curve(), detachedCommitter{e: e, binding: b}, nil
}

// detachedCommitter registers the source of a detached curve with its
// element on the first commit.
type detachedCommitter struct {
	e       *Element
	binding *source.Binding
}

func (d detachedCommitter) Commit() error {
	if err := d.binding.Commit(); err != nil {
		return err
	}
	if _, ok := d.e.sources[d.binding.Property()]; !ok {
		d.e.sources[d.binding.Property()] = d.binding.Source()
	}
	return nil
}

func (t *Timeline) show(e *Element, properties []string) error {
	props := make([]config.Property, len(properties))
	seen := make(map[string]bool, len(properties))
	for i, name := range properties {
		if seen[name] {
			return fmt.Errorf("%w: %s", ErrDuplicateProperty, name)
		}
		seen[name] = true

		prop, ok := t.cfg.Property(name)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownProperty, name)
		}
		props[i] = prop
	}

	t.teardown(e)
	e.controlled = nil

	var bindings []*source.Binding
	fail := func(err error) error {
		for _, b := range bindings {
			b.Close()
		}
		return err
	}

	curves := make([]*keyframe.Curve, len(props))
	committers := make(source.Group, len(props))
	for i, prop := range props {
		src, ok := e.sources[prop.Name]
		if !ok {
			if d, ok := e.detached[prop.Name]; ok {
				src = d.Source()
			} else {
				src = source.NewInterpolationSource()
			}
			e.sources[prop.Name] = src
		}
		b, initialized, err := t.newBinding(e, prop, src)
		if err != nil {
			return fail(err)
		}
		bindings = append(bindings, b)
		if initialized {
			if err := b.Commit(); err != nil {
				return fail(err)
			}
		}
		curves[i] = b.Curve()
		committers[i] = b
	}

	var (
		editor    keyframe.Editor    = curves[0]
		committer keyframe.Committer = bindings[0]
		multi     *keyframe.MultiCurve
	)
	if len(curves) > 1 {
		m, err := keyframe.NewMultiCurve(curves...)
		if err != nil {
			return fail(err)
		}
		if err := committers.Commit(); err != nil {
			m.Close()
			return fail(err)
		}
		multi = m
		editor = m
		committer = committers
	}

	mode := keyframe.CommitOnRelease
	if t.cfg.LiveCommit {
		mode = keyframe.CommitLive
	}

	e.controlled = append([]string(nil), properties...)
	e.bindings = bindings
	e.multi = multi
	e.editor = editor
	e.committer = committer
	e.controller = keyframe.NewController(editor,
		keyframe.WithCommitter(committer),
		keyframe.WithCommitMode(mode),
	)

	id := e.ID
	e.cancel = editor.Subscribe(func(ev keyframe.Event) {
		for _, fn := range t.listeners {
			fn(id, ev)
		}
	})
	return nil
}

// newBinding binds a new curve of prop to src. When src holds fewer than
// two values the curve is initialized with two boundary keyframes at the
// normalized default; src itself is left untouched.
func (t *Timeline) newBinding(e *Element, prop config.Property, src source.ControlSource) (*source.Binding, bool, error) {
	curve := keyframe.NewCurve(
		keyframe.WithName(prop.Name),
		keyframe.WithRange(prop.YMin, prop.YMax),
		keyframe.WithMapping(t.mapping),
		keyframe.WithHeight(t.cfg.CurveHeight),
	)
	b := source.Bind(prop.Name, src, curve)
	if curve.Len() >= 2 {
		return b, false, nil
	}

	if err := curve.Initialize(prop.NormalizedDefault(), e.InPoint, e.End()); err != nil {
		b.Close()
		return nil, false, fmt.Errorf("element %s: %w", e.ID, err)
	}
	return b, true, nil
}

// teardown drops the displayed curve. Detached curves survive.
func (t *Timeline) teardown(e *Element) {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	if e.multi != nil {
		e.multi.Close()
		e.multi = nil
	}
	for _, b := range e.bindings {
		b.Close()
	}
	e.bindings = nil
	e.editor = nil
	e.committer = nil
	e.controller = nil
}

func (t *Timeline) closeDetached(e *Element, property string) {
	if b, ok := e.detached[property]; ok {
		b.Close()
		delete(e.detached, property)
	}
}

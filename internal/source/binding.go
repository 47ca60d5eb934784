package source

import (
	"errors"
	"fmt"

	"github.com/ivlev/kfcurve/internal/keyframe"
)

// Binding ties a curve to the control source of one property. Changes made
// to the source by anyone else are pulled into the curve; the last writer
// wins.
type Binding struct {
	property   string
	source     ControlSource
	curve      *keyframe.Curve
	committing bool
	cancel     func()
}

// Bind loads src into curve and keeps the curve in sync with it
func Bind(property string, src ControlSource, curve *keyframe.Curve) *Binding {
	b := &Binding{
		property: property,
		source:   src,
		curve:    curve,
	}
	b.Load()
	b.cancel = src.Subscribe(b.sourceChanged)
	return b
}

func (b *Binding) Property() string { return b.property }

func (b *Binding) Source() ControlSource { return b.source }

func (b *Binding) Curve() *keyframe.Curve { return b.curve }

// Load replaces the curve's points with the source's values
func (b *Binding) Load() {
	b.curve.Populate(b.source.All())
}

// Commit writes the curve to the source, touching only what differs
func (b *Binding) Commit() error {
	b.committing = true
	defer func() { b.committing = false }()

	want := b.curve.Points()
	have := b.source.All()

	wanted := make(map[int64]float64, len(want))
	for _, p := range want {
		wanted[p.Timestamp] = p.Value
	}
	stored := make(map[int64]float64, len(have))
	for _, p := range have {
		stored[p.Timestamp] = p.Value
	}

	var errs []error
	for _, p := range have {
		if _, ok := wanted[p.Timestamp]; !ok {
			if err := b.source.Unset(p.Timestamp); err != nil {
				errs = append(errs, err)
			}
		}
	}
	for _, p := range want {
		if v, ok := stored[p.Timestamp]; !ok || v != p.Value {
			if err := b.source.Set(p.Timestamp, p.Value); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("commit %s: %w", b.property, err)
	}
	return nil
}

// Close stops following the source
func (b *Binding) Close() {
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
}

func (b *Binding) sourceChanged(Change) {
	if b.committing {
		return
	}
	b.Load()
}

// Group commits several committers together, e.g. the members of a multi curve
type Group []keyframe.Committer

func (g Group) Commit() error {
	var errs []error
	for _, c := range g {
		if err := c.Commit(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ keyframe.Committer = (*Binding)(nil)
	_ keyframe.Committer = Group(nil)
)

package project

import (
	"fmt"
	"sort"

	"github.com/ivlev/kfcurve/internal/config"
	"github.com/ivlev/kfcurve/internal/keyframe"
	"github.com/ivlev/kfcurve/internal/source"
	"github.com/ivlev/kfcurve/internal/timeline"
)

const Version = "1.0"

// Project is the persisted form of a timeline
type Project struct {
	Version    string            `yaml:"version"`
	Properties []config.Property `yaml:"properties,omitempty"`
	Elements   []ElementSpec     `yaml:"elements"`
}

// ElementSpec describes one clip and its keyframes
type ElementSpec struct {
	ID         string        `yaml:"id"`
	Kind       string        `yaml:"kind"`
	InPoint    int64         `yaml:"in_point"` // nanoseconds
	Duration   int64         `yaml:"duration"`
	Controlled []string      `yaml:"controlled,omitempty"`
	Bindings   []BindingSpec `yaml:"bindings,omitempty"`
}

// BindingSpec holds the control source values of one property
type BindingSpec struct {
	Property string           `yaml:"property"`
	Points   []keyframe.Point `yaml:"points"`
}

// New returns an empty project
func New() *Project {
	return &Project{Version: Version}
}

// Build recreates the timeline described by p. Property definitions stored
// in the project are merged into cfg.
func Build(p *Project, cfg *config.Config) (*timeline.Timeline, error) {
	if cfg == nil {
		cfg = config.New()
	}
	if cfg.Properties == nil {
		cfg.Properties = config.DefaultProperties()
	}
	if err := config.Merge(cfg.Properties, p.Properties); err != nil {
		return nil, err
	}

	tl := timeline.New(cfg)
	for _, spec := range p.Elements {
		kind, err := timeline.ParseKind(spec.Kind)
		if err != nil {
			return nil, fmt.Errorf("element %s: %w", spec.ID, err)
		}
		if _, err := tl.AddElement(spec.ID, kind, spec.InPoint, spec.Duration); err != nil {
			return nil, err
		}

		for _, b := range spec.Bindings {
			src := source.NewInterpolationSource(b.Points...)
			if err := tl.SetSource(spec.ID, b.Property, src); err != nil {
				return nil, fmt.Errorf("element %s: %w", spec.ID, err)
			}
		}

		switch len(spec.Controlled) {
		case 0:
		case 1:
			err = tl.ShowKeyframes(spec.ID, spec.Controlled[0])
		default:
			err = tl.ShowMultipleKeyframes(spec.ID, spec.Controlled...)
		}
		if err != nil {
			return nil, fmt.Errorf("element %s: %w", spec.ID, err)
		}
	}
	return tl, nil
}

// Snapshot captures the current state of tl
func Snapshot(tl *timeline.Timeline) *Project {
	p := New()

	cfg := tl.Config()
	builtin := config.DefaultProperties()
	for name, prop := range cfg.Properties {
		if def, ok := builtin[name]; ok && def == prop {
			continue
		}
		p.Properties = append(p.Properties, prop)
	}
	sort.Slice(p.Properties, func(i, j int) bool {
		return p.Properties[i].Name < p.Properties[j].Name
	})

	for _, e := range tl.Elements() {
		spec := ElementSpec{
			ID:         e.ID,
			Kind:       string(e.Kind),
			InPoint:    e.InPoint,
			Duration:   e.Duration,
			Controlled: e.Controlled(),
		}
		for _, name := range e.Properties() {
			src, _ := e.Source(name)
			spec.Bindings = append(spec.Bindings, BindingSpec{
				Property: name,
				Points:   src.All(),
			})
		}
		p.Elements = append(p.Elements, spec)
	}
	return p
}

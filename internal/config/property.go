package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Property describes a controllable element property
type Property struct {
	Name    string  `yaml:"name"`
	Default float64 `yaml:"default"`
	Minimum float64 `yaml:"minimum"`
	Maximum float64 `yaml:"maximum"`
	YMin    float64 `yaml:"ylim_min"` // Displayed/editable value range
	YMax    float64 `yaml:"ylim_max"`
}

// NormalizedDefault maps the default into the curve's value space
func (p Property) NormalizedDefault() float64 {
	span := p.Maximum - p.Minimum
	if span == 0 {
		return p.Default
	}
	return p.Default / span
}

// DefaultProperties returns the mixing properties known out of the box
func DefaultProperties() map[string]Property {
	return map[string]Property{
		"alpha": {
			Name:    "alpha",
			Default: 1.0,
			Minimum: 0.0,
			Maximum: 1.0,
			YMin:    0.0,
			YMax:    1.0,
		},
		"volume": {
			Name:    "volume",
			Default: 1.0,
			Minimum: 0.0,
			Maximum: 10.0,
			YMin:    0.0,
			YMax:    0.2,
		},
	}
}

type propertyFile struct {
	Properties []Property `yaml:"properties"`
}

// LoadProperties reads a YAML property table and merges it over the built-ins
func LoadProperties(path string) (map[string]Property, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file propertyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	props := DefaultProperties()
	if err := Merge(props, file.Properties); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return props, nil
}

// Merge validates extra and adds it to props, replacing same-named entries
func Merge(props map[string]Property, extra []Property) error {
	for _, p := range extra {
		if p.Name == "" {
			return fmt.Errorf("property without name")
		}
		if p.YMin == 0 && p.YMax == 0 {
			p.YMax = 1.0
		}
		if p.YMax <= p.YMin {
			return fmt.Errorf("property %s: ylim_max %.3f must exceed ylim_min %.3f", p.Name, p.YMax, p.YMin)
		}
		props[p.Name] = p
	}
	return nil
}

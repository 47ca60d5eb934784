package project

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/kfcurve/internal/system"
)

// WriteProject writes a project to a YAML file
func WriteProject(p *Project, path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// ReadProject reads a project from a YAML file
func ReadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if p.Version == "" {
		p.Version = Version
	}

	return &p, nil
}

// GenerateProjectPath creates a timestamped project filename in dir
func GenerateProjectPath(dir string) string {
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("project_%s.yaml", timestamp))
}

// FindLatestProject finds the most recent project file in dir
func FindLatestProject(dir string) (string, error) {
	return system.FindLatest(dir, ".yaml", ".yml")
}

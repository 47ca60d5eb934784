package project

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ivlev/kfcurve/internal/config"
	"github.com/ivlev/kfcurve/internal/keyframe"
)

const second = int64(1e9)

func sampleProject() *Project {
	return &Project{
		Version: Version,
		Properties: []config.Property{
			{Name: "blur", Default: 0, Minimum: 0, Maximum: 20, YMin: 0, YMax: 1},
		},
		Elements: []ElementSpec{
			{
				ID:         "clip",
				Kind:       "video",
				InPoint:    0,
				Duration:   2 * second,
				Controlled: []string{"alpha", "blur"},
				Bindings: []BindingSpec{
					{Property: "alpha", Points: []keyframe.Point{{Timestamp: 0, Value: 0}, {Timestamp: second, Value: 0.8}, {Timestamp: 2 * second, Value: 1}}},
					{Property: "blur", Points: []keyframe.Point{{Timestamp: 0, Value: 0.5}, {Timestamp: 2 * second, Value: 0}}},
				},
			},
			{
				ID:       "music",
				Kind:     "audio",
				InPoint:  second,
				Duration: 3 * second,
			},
		},
	}
}

func TestProjectWriteRead(t *testing.T) {
	p := sampleProject()

	path := filepath.Join(t.TempDir(), "projects", "test_project.yaml")
	if err := WriteProject(p, path); err != nil {
		t.Fatalf("WriteProject failed: %v", err)
	}

	read, err := ReadProject(path)
	if err != nil {
		t.Fatalf("ReadProject failed: %v", err)
	}

	if read.Version != p.Version {
		t.Errorf("Version mismatch: expected %s, got %s", p.Version, read.Version)
	}
	if !reflect.DeepEqual(read, p) {
		t.Errorf("project mismatch:\nexpected %+v\ngot      %+v", p, read)
	}
}

func TestReadProjectInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	os.WriteFile(path, []byte("elements: [\n"), 0644)

	if _, err := ReadProject(path); err == nil {
		t.Error("expected a parse error")
	}
}

func TestBuild(t *testing.T) {
	tl, err := Build(sampleProject(), config.New())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	clip, err := tl.Element("clip")
	if err != nil {
		t.Fatalf("Element failed: %v", err)
	}
	if got := clip.Controlled(); !reflect.DeepEqual(got, []string{"alpha", "blur"}) {
		t.Errorf("expected alpha and blur controlled, got %v", got)
	}
	if _, ok := clip.Editor().(*keyframe.MultiCurve); !ok {
		t.Errorf("expected a multi curve, got %T", clip.Editor())
	}

	// The multi curve pulls blur onto alpha's keyframe times.
	blur, _ := clip.Source("blur")
	if got := blur.All(); len(got) != 3 || got[1].Timestamp != second || got[1].Value != 0.25 {
		t.Errorf("expected blur reconciled at 1s with 0.25, got %v", got)
	}

	music, _ := tl.Element("music")
	volume, _ := music.Source("volume")
	want := []keyframe.Point{{Timestamp: second, Value: 0.1}, {Timestamp: 4 * second, Value: 0.1}}
	if got := volume.All(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected default volume keyframes %v, got %v", want, got)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *Project)
	}{
		{"unknown kind", func(p *Project) { p.Elements[0].Kind = "image" }},
		{"unknown property", func(p *Project) { p.Elements[0].Controlled = []string{"hue"} }},
		{"duplicate element", func(p *Project) { p.Elements[1].ID = "clip" }},
		{"invalid property", func(p *Project) { p.Properties[0].YMax = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := sampleProject()
			tt.modify(p)
			if _, err := Build(p, config.New()); err == nil {
				t.Error("expected Build to fail")
			}
		})
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	tl, err := Build(sampleProject(), config.New())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	curve, committer, err := tl.Curve("music", "volume")
	if err != nil {
		t.Fatalf("Curve failed: %v", err)
	}
	curve.Add(2*second, 0.05)
	if err := committer.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	snap := Snapshot(tl)
	if len(snap.Properties) != 1 || snap.Properties[0].Name != "blur" {
		t.Errorf("expected only the custom property saved, got %v", snap.Properties)
	}

	rebuilt, err := Build(snap, config.New())
	if err != nil {
		t.Fatalf("Build of snapshot failed: %v", err)
	}
	if !reflect.DeepEqual(Snapshot(rebuilt), snap) {
		t.Errorf("snapshot changed after rebuild")
	}

	music, _ := rebuilt.Element("music")
	volume, _ := music.Source("volume")
	if got := volume.All(); len(got) != 3 || got[1].Value != 0.05 {
		t.Errorf("expected committed keyframe to survive, got %v", got)
	}
}

func TestBuildEmptyTimeline(t *testing.T) {
	tl, err := Build(New(), nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(tl.Elements()) != 0 {
		t.Errorf("expected no elements, got %d", len(tl.Elements()))
	}
}

func TestGenerateProjectPath(t *testing.T) {
	path := GenerateProjectPath("projects")

	if !strings.HasPrefix(path, filepath.Join("projects", "project_")) {
		t.Errorf("Path should be a project file in projects: %s", path)
	}
	if filepath.Ext(path) != ".yaml" {
		t.Errorf("Path should be a YAML file: %s", path)
	}

	t.Logf("Generated path: %s", path)
}

func TestFindLatestProject(t *testing.T) {
	dir := t.TempDir()

	files := []string{
		filepath.Join(dir, "project_2026-02-12_10-00-00.yaml"),
		filepath.Join(dir, "project_2026-02-13_01-00-00.yaml"),
		filepath.Join(dir, "project_2026-02-11_15-30-00.yaml"),
	}
	for i, f := range files {
		os.WriteFile(f, []byte("version: \"1.0\"\n"), 0644)
		modTime := time.Now().Add(time.Duration(i) * time.Hour)
		os.Chtimes(f, modTime, modTime)
	}

	latest, err := FindLatestProject(dir)
	if err != nil {
		t.Fatalf("FindLatestProject failed: %v", err)
	}

	t.Logf("Latest project: %s", latest)

	if latest != files[len(files)-1] {
		t.Errorf("Expected latest to be %s, got %s", files[len(files)-1], latest)
	}
}

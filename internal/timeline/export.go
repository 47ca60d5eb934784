package timeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/kfcurve/internal/export"
)

// ExportAll writes one FFmpeg filter per controlled property into dir,
// named <element>_<property>.txt, and returns the written paths.
func (t *Timeline) ExportAll(ctx context.Context, dir string, workers int) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	type job struct {
		path   string
		filter string
	}

	// Snapshot the sources before fanning out; editing stays single-threaded.
	var jobs []job
	for _, e := range t.Elements() {
		for _, name := range e.Properties() {
			prop, ok := t.cfg.Property(name)
			if !ok {
				log.Printf("[!] Skipping %s of element %s: unknown property", name, e.ID)
				continue
			}
			points := e.sources[name].All()
			if len(points) == 0 {
				continue
			}
			jobs = append(jobs, job{
				path:   filepath.Join(dir, fmt.Sprintf("%s_%s.txt", e.ID, name)),
				filter: export.Filter(prop, points, e.InPoint),
			})
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	paths := make([]string, len(jobs))
	for i, j := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := os.WriteFile(j.path, []byte(j.filter+"\n"), 0644); err != nil {
				return fmt.Errorf("write %s: %w", j.path, err)
			}
			paths[i] = j.path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

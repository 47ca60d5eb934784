package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"runtime"
	"slices"
	"strings"
	"syscall"

	"github.com/ivlev/kfcurve/internal/config"
	"github.com/ivlev/kfcurve/internal/export"
	"github.com/ivlev/kfcurve/internal/keyframe"
	"github.com/ivlev/kfcurve/internal/project"
	"github.com/ivlev/kfcurve/internal/system"
	"github.com/ivlev/kfcurve/internal/timeline"
)

const usage = `Usage: kfcurve [flags] <command>

Commands:
  new              create an empty project
  add-element      add a clip (-element, -kind, -in, -duration)
  release          remove a clip (-element)
  show             print every clip and its keyframes
  show-keyframes   display the curve of -property (comma separated for a linked curve)
  hide-keyframes   fall back to the clip's default curve
  add              add a keyframe at -t with value -v
  remove           remove the keyframe at -t
  move             move the keyframe at -t to -to
  set              set the value of the keyframe at -t to -v
  value            print the interpolated value at -t
  sample           print the curve every -step seconds over the clip
  export           write FFmpeg filters for every clip into -out

Times are given in seconds, values in the property's display range.

Flags:
`

func main() {
	cfg := config.New()

	projectPtr := flag.String("project", "", "Project file (default: latest in -project-dir)")
	projectDirPtr := flag.String("project-dir", cfg.ProjectDir, "Directory holding project files")
	propertiesPtr := flag.String("properties", "", "YAML file with extra controllable properties")
	elementPtr := flag.String("element", "", "Clip ID")
	kindPtr := flag.String("kind", string(timeline.KindVideo), "Clip kind: video, audio, title")
	propertyPtr := flag.String("property", "", "Property name (default: the displayed curve)")
	inPtr := flag.Float64("in", 0, "Clip in-point (seconds)")
	durationPtr := flag.Float64("duration", 5, "Clip duration (seconds)")
	tPtr := flag.Float64("t", 0, "Keyframe time (seconds)")
	toPtr := flag.Float64("to", 0, "Destination time for move (seconds)")
	valuePtr := flag.Float64("v", 0, "Keyframe value")
	stepPtr := flag.Float64("step", 0.1, "Sampling step (seconds)")
	outPtr := flag.String("out", cfg.OutputDir, "Export directory")
	workersPtr := flag.Int("workers", runtime.NumCPU(), "Export workers")

	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	op := flag.Arg(0)

	cfg.ProjectDir = *projectDirPtr
	cfg.OutputDir = *outPtr
	cfg.Workers = *workersPtr
	if *propertiesPtr != "" {
		props, err := config.LoadProperties(*propertiesPtr)
		if err != nil {
			log.Fatalf("[-] Failed to load properties: %v", err)
		}
		cfg.Properties = props
		cfg.PropertiesPath = *propertiesPtr
	}

	cfg.ProjectPath = *projectPtr
	proj := project.New()
	if op == "new" {
		if cfg.ProjectPath == "" {
			cfg.ProjectPath = project.GenerateProjectPath(cfg.ProjectDir)
		}
	} else {
		if cfg.ProjectPath == "" {
			latest, err := project.FindLatestProject(cfg.ProjectDir)
			if err != nil {
				log.Fatalf("[-] No project: %v. Run 'kfcurve new' first", err)
			}
			cfg.ProjectPath = latest
		}
		p, err := project.ReadProject(cfg.ProjectPath)
		if err != nil {
			log.Fatalf("[-] Failed to read project: %v", err)
		}
		proj = p
		fmt.Printf("[*] Project: %s\n", cfg.ProjectPath)
	}

	tl, err := project.Build(proj, cfg)
	if err != nil {
		log.Fatalf("[-] Failed to load project: %v", err)
	}

	cmd := command{
		tl:       tl,
		element:  *elementPtr,
		property: *propertyPtr,
		ts:       seconds(*tPtr),
	}

	changed := true
	switch op {
	case "new":
	case "add-element":
		err = cmd.addElement(*kindPtr, seconds(*inPtr), seconds(*durationPtr))
	case "release":
		tl.Release(cmd.element)
	case "show-keyframes":
		err = cmd.showKeyframes()
	case "hide-keyframes":
		err = tl.HideKeyframes(cmd.element)
	case "add":
		err = cmd.add(*valuePtr)
	case "remove":
		err = cmd.remove()
	case "move":
		err = cmd.move(seconds(*toPtr))
	case "set":
		err = cmd.set(*valuePtr)
	case "show":
		changed = false
		cmd.show()
	case "value":
		changed = false
		err = cmd.value()
	case "sample":
		changed = false
		err = cmd.sample(seconds(*stepPtr))
	case "export":
		changed = false
		err = exportFilters(tl, cfg)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("[-] %s: %v", op, err)
	}

	if changed {
		if err := project.WriteProject(project.Snapshot(tl), cfg.ProjectPath); err != nil {
			log.Fatalf("[-] Failed to save project: %v", err)
		}
		fmt.Printf("[+++] Saved: %s\n", cfg.ProjectPath)
	}
}

func exportFilters(tl *timeline.Timeline, cfg *config.Config) error {
	system.InitResourceLimits(uint64(cfg.Workers) * 4)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths, err := tl.ExportAll(ctx, cfg.OutputDir, cfg.Workers)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Printf("[>] %s\n", p)
	}
	fmt.Printf("[+++] Exported %d filters to %s\n", len(paths), cfg.OutputDir)
	return nil
}

type command struct {
	tl       *timeline.Timeline
	element  string
	property string
	ts       int64
}

func (c command) addElement(kind string, in, duration int64) error {
	k, err := timeline.ParseKind(kind)
	if err != nil {
		return err
	}
	e, err := c.tl.AddElement(c.element, k, in, duration)
	if err != nil {
		return err
	}
	fmt.Printf("[*] Added %s %s [%s, %s]\n", e.Kind, e.ID, formatTime(e.InPoint), formatTime(e.End()))
	return nil
}

func (c command) showKeyframes() error {
	props := strings.Split(c.property, ",")
	if len(props) > 1 {
		return c.tl.ShowMultipleKeyframes(c.element, props...)
	}
	return c.tl.ShowKeyframes(c.element, c.property)
}

// editor resolves the curve an edit applies to: the named property, or
// the displayed curve when no property was given. Edits to one member of
// a linked curve are committed through the whole group; other properties
// are edited without changing what the clip displays.
func (c command) editor() (keyframe.Editor, keyframe.Committer, error) {
	e, err := c.tl.Element(c.element)
	if err != nil {
		return nil, nil, err
	}

	if c.property == "" {
		if e.Editor() == nil {
			return nil, nil, fmt.Errorf("element %s: %w", c.element, timeline.ErrNoKeyframes)
		}
		return e.Editor(), e.Committer(), nil
	}

	curve, committer, err := c.tl.Curve(c.element, c.property)
	if err != nil {
		return nil, nil, err
	}
	controlled := e.Controlled()
	if len(controlled) > 1 && slices.Contains(controlled, c.property) {
		return curve, e.Committer(), nil
	}
	return curve, committer, nil
}

func (c command) add(v float64) error {
	ed, committer, err := c.editor()
	if err != nil {
		return err
	}
	p, err := ed.Add(c.ts, v)
	if err != nil {
		return err
	}
	fmt.Printf("[*] Keyframe at %s = %.4f\n", formatTime(p.Timestamp), p.Value)
	return committer.Commit()
}

func (c command) remove() error {
	ed, committer, err := c.editor()
	if err != nil {
		return err
	}
	if err := ed.Remove(c.ts); err != nil {
		return err
	}
	return committer.Commit()
}

func (c command) move(to int64) error {
	ed, committer, err := c.editor()
	if err != nil {
		return err
	}
	realized, err := ed.MoveTimestamp(c.ts, to)
	if err != nil {
		return err
	}
	if realized != to {
		log.Printf("[!] Keyframe clamped to %s", formatTime(realized))
	}
	fmt.Printf("[*] Keyframe moved to %s\n", formatTime(realized))
	return committer.Commit()
}

func (c command) set(v float64) error {
	ed, committer, err := c.editor()
	if err != nil {
		return err
	}
	if err := ed.SetValue(c.ts, v); err != nil {
		return err
	}
	return committer.Commit()
}

func (c command) value() error {
	ed, _, err := c.editor()
	if err != nil {
		return err
	}
	v, err := ed.ValueAt(c.ts)
	if err != nil {
		return err
	}
	fmt.Printf("%.6f\n", v)
	return nil
}

func (c command) sample(step int64) error {
	e, err := c.tl.Element(c.element)
	if err != nil {
		return err
	}
	ed, _, err := c.editor()
	if err != nil {
		return err
	}
	points, err := export.Sample(ed, e.InPoint, e.End(), step)
	if err != nil {
		return err
	}
	for _, p := range points {
		fmt.Printf("%s\t%.6f\n", formatTime(p.Timestamp), p.Value)
	}
	return nil
}

func (c command) show() {
	for _, e := range c.tl.Elements() {
		fmt.Printf("%s (%s) [%s, %s] curve: %s\n", e.ID, e.Kind,
			formatTime(e.InPoint), formatTime(e.End()), strings.Join(e.Controlled(), "+"))
		for _, name := range e.Properties() {
			src, _ := e.Source(name)
			fmt.Printf("  %s:", name)
			for _, p := range src.All() {
				fmt.Printf(" %s=%.4f", formatTime(p.Timestamp), p.Value)
			}
			fmt.Println()
		}
	}
}

func seconds(s float64) int64 {
	return int64(math.Round(s * 1e9))
}

func formatTime(ns int64) string {
	return fmt.Sprintf("%.3fs", float64(ns)/1e9)
}

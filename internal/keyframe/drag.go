package keyframe

import (
	"errors"
	"fmt"
)

// DragState is the state of the pointer protocol
type DragState int

const (
	Idle     DragState = iota // No keyframe captured
	Armed                     // Pointer pressed on a keyframe, not moved yet
	Dragging                  // Keyframe follows the pointer
)

func (s DragState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Dragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// CommitMode decides when drag results reach the Committer
type CommitMode int

const (
	// CommitOnRelease commits once on pointer-up; Cancel rolls the drag back
	CommitOnRelease CommitMode = iota
	// CommitLive commits after every pointer move; Cancel only stops the drag
	CommitLive
)

// Pointer is one pointer event in view coordinates
type Pointer struct {
	X, Y        float64
	Hit         Hit
	ButtonHeld  bool
	DoubleClick bool
}

// Controller drives an Editor from pointer events. At most one drag is in
// flight; the anchor is always the realized timestamp of the dragged
// keyframe, never the raw pointer position.
type Controller struct {
	editor    Editor
	committer Committer
	mode      CommitMode

	state    DragState
	anchor   int64
	snapshot Snapshot
}

// ControllerOption configures a Controller
type ControllerOption func(*Controller)

// WithCommitter sets where finished edits are persisted
func WithCommitter(c Committer) ControllerOption {
	return func(ctl *Controller) {
		ctl.committer = c
	}
}

// WithCommitMode selects live or on-release commits
func WithCommitMode(mode CommitMode) ControllerOption {
	return func(ctl *Controller) {
		ctl.mode = mode
	}
}

// NewController creates an idle controller for e
func NewController(e Editor, opts ...ControllerOption) *Controller {
	ctl := &Controller{editor: e, mode: CommitOnRelease}
	for _, opt := range opts {
		opt(ctl)
	}
	return ctl
}

func (ctl *Controller) Editor() Editor { return ctl.editor }

func (ctl *Controller) State() DragState { return ctl.state }

// Anchor returns the timestamp of the captured keyframe
func (ctl *Controller) Anchor() (int64, bool) {
	return ctl.anchor, ctl.state != Idle
}

// PointerDown captures the keyframe under the pointer. A double click on
// an interior keyframe removes it instead.
func (ctl *Controller) PointerDown(p Pointer) error {
	if err := ctl.finishDrag(); err != nil {
		return err
	}
	ctl.reset()
	if !p.Hit.OnPoint {
		return nil
	}

	points := ctl.editor.Points()
	if p.Hit.Index < 0 || p.Hit.Index >= len(points) {
		return nil
	}
	ts := points[p.Hit.Index].Timestamp
	edge := p.Hit.Index == 0 || p.Hit.Index == len(points)-1

	if p.DoubleClick && !edge {
		if err := ctl.editor.Remove(ts); err != nil {
			return err
		}
		return ctl.commit()
	}

	ctl.state = Armed
	ctl.anchor = ts
	return nil
}

// PointerMove updates hover state and, with the button held, drags the
// captured keyframe.
func (ctl *Controller) PointerMove(p Pointer) error {
	ctl.editor.Hover(p.Hit.OnLine)

	if ctl.state == Dragging && !p.ButtonHeld {
		return ctl.finishDrag()
	}
	if ctl.state == Idle || !p.ButtonHeld {
		return nil
	}
	if ctl.state == Armed {
		ctl.snapshot = ctl.editor.Snapshot()
		ctl.state = Dragging
	}

	realized, err := ctl.editor.MoveTimestamp(ctl.anchor, ctl.editor.Mapping().ToTime(p.X))
	if err != nil {
		return fmt.Errorf("drag %d: %w", ctl.anchor, err)
	}
	ctl.anchor = realized

	if err := ctl.editor.SetValue(ctl.anchor, ctl.editor.PixelToValue(p.Y)); err != nil {
		return fmt.Errorf("drag %d: %w", ctl.anchor, err)
	}

	if ctl.mode == CommitLive {
		return ctl.commit()
	}
	return nil
}

// PointerUp ends the gesture. A plain click on the line that captured
// nothing creates a keyframe there.
func (ctl *Controller) PointerUp(p Pointer) error {
	state := ctl.state
	ctl.reset()

	switch state {
	case Dragging:
		if ctl.mode == CommitOnRelease {
			return ctl.commit()
		}
		return nil
	case Idle:
		if p.Hit.OnPoint {
			return nil
		}
		_, created, err := ctl.editor.MaybeCreateAt(p.X, p.Y, p.Hit)
		if err != nil {
			if errors.Is(err, ErrOutOfRange) {
				return nil
			}
			return err
		}
		if created {
			return ctl.commit()
		}
	}
	return nil
}

// Cancel aborts the gesture. With CommitOnRelease the points are restored
// to what they were before the drag started.
func (ctl *Controller) Cancel() {
	if ctl.state == Dragging && ctl.mode == CommitOnRelease && ctl.snapshot != nil {
		ctl.editor.Restore(ctl.snapshot)
	}
	ctl.reset()
}

// finishDrag ends a drag whose release was never delivered, e.g. after a
// focus loss, the same way PointerUp would.
func (ctl *Controller) finishDrag() error {
	if ctl.state != Dragging {
		return nil
	}
	ctl.reset()
	if ctl.mode == CommitOnRelease {
		return ctl.commit()
	}
	return nil
}

func (ctl *Controller) reset() {
	ctl.state = Idle
	ctl.anchor = 0
	ctl.snapshot = nil
}

func (ctl *Controller) commit() error {
	if ctl.committer == nil {
		return nil
	}
	if err := ctl.committer.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

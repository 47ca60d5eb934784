package keyframe

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

type countingCommitter struct {
	commits int
	err     error
}

func (c *countingCommitter) Commit() error {
	c.commits++
	return c.err
}

func newDragCurve() *Curve {
	c := NewCurve(WithMapping(Zoom{NsPerPixel: 10}), WithHeight(100))
	c.Populate([]Point{{0, 0.5}, {500, 0.5}, {1000, 0.5}})
	return c
}

func TestControllerDrag(t *testing.T) {
	c := newDragCurve()
	committer := &countingCommitter{}
	ctl := NewController(c, WithCommitter(committer))

	if err := ctl.PointerDown(Pointer{X: 50, Y: 50, Hit: HitPoint(1)}); err != nil {
		t.Fatalf("PointerDown failed: %v", err)
	}
	if ctl.State() != Armed {
		t.Fatalf("expected armed, got %s", ctl.State())
	}
	if anchor, ok := ctl.Anchor(); !ok || anchor != 500 {
		t.Fatalf("expected anchor 500, got %d", anchor)
	}

	if err := ctl.PointerMove(Pointer{X: 60, Y: 20, ButtonHeld: true, Hit: HitPoint(1)}); err != nil {
		t.Fatalf("PointerMove failed: %v", err)
	}
	if ctl.State() != Dragging {
		t.Fatalf("expected dragging, got %s", ctl.State())
	}
	if anchor, _ := ctl.Anchor(); anchor != 600 {
		t.Errorf("expected anchor 600, got %d", anchor)
	}
	if v := c.MustValueAt(600); math.Abs(v-0.8) > 1e-9 {
		t.Errorf("expected value 0.8, got %f", v)
	}

	// Past the right boundary the keyframe stops one tick before it.
	if err := ctl.PointerMove(Pointer{X: 200, Y: -30, ButtonHeld: true}); err != nil {
		t.Fatalf("PointerMove failed: %v", err)
	}
	if anchor, _ := ctl.Anchor(); anchor != 999 {
		t.Errorf("expected anchor 999, got %d", anchor)
	}
	if v := c.MustValueAt(999); v != 1 {
		t.Errorf("expected value clamped to 1, got %f", v)
	}
	if committer.commits != 0 {
		t.Errorf("expected no commit before release, got %d", committer.commits)
	}

	if err := ctl.PointerUp(Pointer{X: 200, Y: -30}); err != nil {
		t.Fatalf("PointerUp failed: %v", err)
	}
	if ctl.State() != Idle {
		t.Errorf("expected idle, got %s", ctl.State())
	}
	if _, ok := ctl.Anchor(); ok {
		t.Error("anchor must be cleared after release")
	}
	if committer.commits != 1 {
		t.Errorf("expected one commit, got %d", committer.commits)
	}
	if c.Len() != 3 {
		t.Errorf("expected 3 points, got %v", c.Points())
	}
}

func TestControllerBoundaryDrag(t *testing.T) {
	c := newDragCurve()
	ctl := NewController(c)

	ctl.PointerDown(Pointer{Hit: HitPoint(0)})
	if err := ctl.PointerMove(Pointer{X: 30, Y: 0, ButtonHeld: true}); err != nil {
		t.Fatalf("PointerMove failed: %v", err)
	}
	ctl.PointerUp(Pointer{X: 30, Y: 0})

	points := c.Points()
	if points[0].Timestamp != 0 {
		t.Errorf("boundary retimed to %d", points[0].Timestamp)
	}
	if points[0].Value != 1 {
		t.Errorf("expected boundary value 1, got %f", points[0].Value)
	}
}

func TestControllerDoubleClick(t *testing.T) {
	c := newDragCurve()
	committer := &countingCommitter{}
	ctl := NewController(c, WithCommitter(committer))

	if err := ctl.PointerDown(Pointer{Hit: HitPoint(1), DoubleClick: true}); err != nil {
		t.Fatalf("PointerDown failed: %v", err)
	}
	if ctl.State() != Idle {
		t.Errorf("expected idle after removal, got %s", ctl.State())
	}
	if c.Len() != 2 {
		t.Errorf("expected interior keyframe removed, got %v", c.Points())
	}
	if committer.commits != 1 {
		t.Errorf("expected one commit, got %d", committer.commits)
	}

	if err := ctl.PointerDown(Pointer{Hit: HitPoint(1), DoubleClick: true}); err != nil {
		t.Fatalf("PointerDown on edge failed: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("edge keyframe must survive a double click, got %v", c.Points())
	}
	if ctl.State() != Armed {
		t.Errorf("expected armed on edge keyframe, got %s", ctl.State())
	}
}

func TestControllerClickCreates(t *testing.T) {
	c := newDragCurve()
	committer := &countingCommitter{}
	ctl := NewController(c, WithCommitter(committer))

	line := Hit{OnLine: true}
	ctl.PointerDown(Pointer{X: 25, Y: 50, Hit: line})
	if err := ctl.PointerUp(Pointer{X: 25, Y: 50, Hit: line}); err != nil {
		t.Fatalf("PointerUp failed: %v", err)
	}

	want := []Point{{0, 0.5}, {250, 0.5}, {500, 0.5}, {1000, 0.5}}
	if got := c.Points(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if committer.commits != 1 {
		t.Errorf("expected one commit, got %d", committer.commits)
	}

	// Clicking empty space does nothing.
	ctl.PointerDown(Pointer{X: 75})
	ctl.PointerUp(Pointer{X: 75})
	if c.Len() != 4 {
		t.Errorf("expected no keyframe off the line, got %v", c.Points())
	}
}

func TestControllerClickWithoutMove(t *testing.T) {
	c := newDragCurve()
	committer := &countingCommitter{}
	ctl := NewController(c, WithCommitter(committer))

	ctl.PointerDown(Pointer{X: 50, Hit: HitPoint(1)})
	ctl.PointerUp(Pointer{X: 50, Hit: HitPoint(1)})

	if c.Len() != 3 || committer.commits != 0 {
		t.Errorf("plain click on a keyframe must not edit, got %v (%d commits)", c.Points(), committer.commits)
	}
}

func TestControllerCancel(t *testing.T) {
	t.Run("on release rolls back", func(t *testing.T) {
		c := newDragCurve()
		committer := &countingCommitter{}
		ctl := NewController(c, WithCommitter(committer))
		before := c.Points()

		ctl.PointerDown(Pointer{Hit: HitPoint(1)})
		ctl.PointerMove(Pointer{X: 80, Y: 10, ButtonHeld: true})
		ctl.Cancel()

		if got := c.Points(); !reflect.DeepEqual(got, before) {
			t.Errorf("expected %v after cancel, got %v", before, got)
		}
		if committer.commits != 0 {
			t.Errorf("expected no commit, got %d", committer.commits)
		}
		if ctl.State() != Idle {
			t.Errorf("expected idle, got %s", ctl.State())
		}
	})

	t.Run("live keeps applied moves", func(t *testing.T) {
		c := newDragCurve()
		committer := &countingCommitter{}
		ctl := NewController(c, WithCommitter(committer), WithCommitMode(CommitLive))

		ctl.PointerDown(Pointer{Hit: HitPoint(1)})
		ctl.PointerMove(Pointer{X: 70, Y: 50, ButtonHeld: true})
		ctl.PointerMove(Pointer{X: 80, Y: 50, ButtonHeld: true})
		ctl.Cancel()

		if committer.commits != 2 {
			t.Errorf("expected a commit per move, got %d", committer.commits)
		}
		if c.Points()[1].Timestamp != 800 {
			t.Errorf("expected keyframe left at 800, got %v", c.Points())
		}
		if err := ctl.PointerUp(Pointer{X: 80}); err != nil {
			t.Fatalf("PointerUp failed: %v", err)
		}
		if committer.commits != 2 {
			t.Errorf("release after cancel must not commit, got %d", committer.commits)
		}
	})
}

func TestControllerHover(t *testing.T) {
	c := newDragCurve()
	ctl := NewController(c)

	var events []Event
	c.Subscribe(func(e Event) { events = append(events, e) })

	ctl.PointerMove(Pointer{X: 10, Hit: Hit{OnLine: true}})
	ctl.PointerMove(Pointer{X: 11, Hit: Hit{OnLine: true}})
	ctl.PointerMove(Pointer{X: 12})

	want := []Event{HoverEnter, HoverExit}
	if !reflect.DeepEqual(events, want) {
		t.Errorf("expected %v, got %v", want, events)
	}
	if c.Len() != 3 {
		t.Errorf("moves without a capture must not edit, got %v", c.Points())
	}
}

func TestControllerCommitError(t *testing.T) {
	c := newDragCurve()
	boom := errors.New("source gone")
	ctl := NewController(c, WithCommitter(&countingCommitter{err: boom}))

	ctl.PointerDown(Pointer{Hit: HitPoint(1)})
	ctl.PointerMove(Pointer{X: 70, Y: 50, ButtonHeld: true})
	if err := ctl.PointerUp(Pointer{X: 70}); !errors.Is(err, boom) {
		t.Errorf("expected commit error, got %v", err)
	}
}

func TestControllerMultiCurve(t *testing.T) {
	alpha := NewCurve(WithName("alpha"), WithMapping(Zoom{NsPerPixel: 10}))
	alpha.Populate([]Point{{0, 0}, {500, 0.3}, {1000, 1}})
	volume := NewCurve(WithName("volume"), WithMapping(Zoom{NsPerPixel: 10}))
	volume.Populate([]Point{{0, 1}, {500, 0.7}, {1000, 0}})

	m, err := NewMultiCurve(alpha, volume)
	if err != nil {
		t.Fatalf("NewMultiCurve failed: %v", err)
	}
	ctl := NewController(m)

	ctl.PointerDown(Pointer{Hit: HitPoint(1)})
	if err := ctl.PointerMove(Pointer{X: 30, Y: 0, ButtonHeld: true}); err != nil {
		t.Fatalf("PointerMove failed: %v", err)
	}
	ctl.PointerUp(Pointer{X: 30})

	if v := alpha.MustValueAt(300); v != 0.3 {
		t.Errorf("alpha keyframe should keep 0.3, got %f", v)
	}
	if v := volume.MustValueAt(300); v != 0.7 {
		t.Errorf("volume keyframe should keep 0.7, got %f", v)
	}

	ctl.PointerDown(Pointer{X: 60, Hit: Hit{OnLine: true}})
	ctl.PointerUp(Pointer{X: 60, Hit: Hit{OnLine: true}})
	if alpha.Len() != 3 {
		t.Errorf("line click on a multi curve must not add keyframes, got %v", alpha.Points())
	}
}

func TestControllerInterruptedDrag(t *testing.T) {
	tests := []struct {
		name      string
		interrupt func(ctl *Controller) error
		wantState DragState
	}{
		{
			name: "pointer down without release",
			interrupt: func(ctl *Controller) error {
				return ctl.PointerDown(Pointer{X: 0, Hit: HitPoint(0)})
			},
			wantState: Armed,
		},
		{
			name: "move with the button up",
			interrupt: func(ctl *Controller) error {
				return ctl.PointerMove(Pointer{X: 90})
			},
			wantState: Idle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newDragCurve()
			committer := &countingCommitter{}
			ctl := NewController(c, WithCommitter(committer))

			ctl.PointerDown(Pointer{Hit: HitPoint(1)})
			ctl.PointerMove(Pointer{X: 70, Y: 50, ButtonHeld: true})
			if err := tt.interrupt(ctl); err != nil {
				t.Fatalf("interrupt failed: %v", err)
			}

			if committer.commits != 1 {
				t.Errorf("expected the lost release to commit once, got %d", committer.commits)
			}
			if ctl.State() != tt.wantState {
				t.Errorf("expected %s, got %s", tt.wantState, ctl.State())
			}
			if got := c.Points()[1].Timestamp; got != 700 {
				t.Errorf("expected keyframe kept at 700, got %d", got)
			}

			// A later release or cancel must not roll the committed drag back.
			ctl.Cancel()
			ctl.PointerUp(Pointer{X: 0})
			if got := c.Points()[1].Timestamp; got != 700 {
				t.Errorf("committed drag rolled back to %d", got)
			}
			if committer.commits != 1 {
				t.Errorf("expected no further commit, got %d", committer.commits)
			}
		})
	}
}

func TestControllerFollowsZoom(t *testing.T) {
	c := newDragCurve()
	ctl := NewController(c)

	c.SetMapping(Zoom{NsPerPixel: 5})
	ctl.PointerDown(Pointer{Hit: HitPoint(1)})
	ctl.PointerMove(Pointer{X: 120, Y: 50, ButtonHeld: true})
	ctl.PointerUp(Pointer{X: 120})

	if got := c.Points()[1].Timestamp; got != 600 {
		t.Errorf("expected the new zoom to place the keyframe at 600, got %d", got)
	}
}

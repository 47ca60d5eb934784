package source

import (
	"github.com/ivlev/kfcurve/internal/keyframe"
)

// ControlSource owns the authoritative keyframes of one bound property.
// Curves read from it on load and write to it on commit.
type ControlSource interface {
	All() []keyframe.Point
	Set(ts int64, value float64) error
	Unset(ts int64) error
	UnsetAll()
	Subscribe(fn func(Change)) (cancel func())
}

// ChangeKind identifies a control source notification
type ChangeKind int

const (
	ValueAdded ChangeKind = iota
	ValueRemoved
	ValuesCleared
)

func (k ChangeKind) String() string {
	switch k {
	case ValueAdded:
		return "value-added"
	case ValueRemoved:
		return "value-removed"
	case ValuesCleared:
		return "values-cleared"
	default:
		return "unknown"
	}
}

// Change is emitted by a ControlSource after it was modified
type Change struct {
	Kind  ChangeKind
	Point keyframe.Point
}

package keyframe

// Snapshot holds the point lists of every curve behind an Editor
type Snapshot [][]Point

// Editor is the editing surface shared by single and multi curves.
// Views and the drag Controller work against it and never touch points
// directly.
type Editor interface {
	Points() []Point
	PixelPoints() []PixelPoint
	IsBoundary(ts int64) bool

	Add(ts int64, value float64) (Point, error)
	Remove(ts int64) error
	MoveTimestamp(old, candidate int64) (int64, error)
	SetValue(ts int64, value float64) error
	ValueAt(ts int64) (float64, error)
	MaybeCreateAt(px, py float64, hit Hit) (Point, bool, error)

	Mapping() Mapping
	PixelToValue(py float64) float64
	Hover(onLine bool)
	Subscribe(fn func(Event)) (cancel func())

	Snapshot() Snapshot
	Restore(s Snapshot)
}

var (
	_ Editor = (*Curve)(nil)
	_ Editor = (*MultiCurve)(nil)
)

// Committer persists an editor's points, typically into a control source
type Committer interface {
	Commit() error
}

// CommitterFunc adapts a function to Committer
type CommitterFunc func() error

func (f CommitterFunc) Commit() error { return f() }

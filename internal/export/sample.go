package export

import (
	"fmt"

	"github.com/ivlev/kfcurve/internal/keyframe"
)

// Valuer is anything that can be evaluated at a timestamp
type Valuer interface {
	ValueAt(ts int64) (float64, error)
}

// Sample evaluates v every step nanoseconds over [start, end], end included
func Sample(v Valuer, start, end, step int64) ([]keyframe.Point, error) {
	if step <= 0 {
		return nil, fmt.Errorf("sample step must be positive, got %d", step)
	}
	if end < start {
		return nil, fmt.Errorf("sample range [%d, %d] is empty", start, end)
	}

	out := make([]keyframe.Point, 0, (end-start)/step+2)
	for ts := start; ; ts += step {
		if ts > end {
			ts = end
		}
		value, err := v.ValueAt(ts)
		if err != nil {
			return nil, fmt.Errorf("sample at %d: %w", ts, err)
		}
		out = append(out, keyframe.Point{Timestamp: ts, Value: value})
		if ts == end {
			break
		}
	}
	return out, nil
}

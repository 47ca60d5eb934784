package keyframe

import "sort"

// Point is a single control point of a curve
type Point struct {
	Timestamp int64   `yaml:"timestamp"` // Nanoseconds
	Value     float64 `yaml:"value"`
}

// PixelPoint is a control point expressed in view coordinates
type PixelPoint struct {
	X, Y float64
}

// clamp keeps v inside [min, max]
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// search returns the index of the first point at or after ts
func search(points []Point, ts int64) int {
	return sort.Search(len(points), func(i int) bool {
		return points[i].Timestamp >= ts
	})
}

// normalize sorts points by timestamp and drops duplicates, keeping the last one seen
func normalize(points []Point) []Point {
	out := make([]Point, len(points))
	copy(out, points)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})

	dedup := out[:0]
	for _, p := range out {
		if n := len(dedup); n > 0 && dedup[n-1].Timestamp == p.Timestamp {
			dedup[n-1] = p
			continue
		}
		dedup = append(dedup, p)
	}
	return dedup
}

package keyframe

import "math"

// Mapping converts between timeline nanoseconds and horizontal pixels.
// It is owned by the view (zoom and scroll state); curves only consult it.
type Mapping interface {
	ToPixel(ns int64) float64
	ToTime(px float64) int64
}

// Zoom is a linear Mapping: Origin is the timestamp drawn at pixel 0
type Zoom struct {
	NsPerPixel float64
	Origin     int64
}

// NewZoom creates a Zoom from a pixels-per-second ratio
func NewZoom(pixelsPerSecond float64, origin int64) Zoom {
	if pixelsPerSecond <= 0 {
		pixelsPerSecond = 1
	}
	return Zoom{NsPerPixel: 1e9 / pixelsPerSecond, Origin: origin}
}

func (z Zoom) ToPixel(ns int64) float64 {
	return float64(ns-z.Origin) / z.ratio()
}

func (z Zoom) ToTime(px float64) int64 {
	return z.Origin + int64(math.Round(px*z.ratio()))
}

func (z Zoom) ratio() float64 {
	if z.NsPerPixel <= 0 {
		return 1
	}
	return z.NsPerPixel
}

// Hit is the view's hit-test result for a pointer position
type Hit struct {
	OnLine  bool // Pointer is over the interpolated line
	OnPoint bool // Pointer is over an existing keyframe
	Index   int  // Index of that keyframe when OnPoint is set
}

// HitPoint is a helper for views reporting a keyframe hit
func HitPoint(index int) Hit {
	return Hit{OnLine: true, OnPoint: true, Index: index}
}

// valueScale converts between values in [min, max] and pixel rows of a
// plot that is height pixels tall, with y growing downwards.
type valueScale struct {
	min, max float64
	height   float64
}

func (s valueScale) toPixel(v float64) float64 {
	span := s.max - s.min
	if span == 0 {
		return s.h()
	}
	return (1 - (v-s.min)/span) * s.h()
}

func (s valueScale) toValue(py float64) float64 {
	return s.max - (py/s.h())*(s.max-s.min)
}

func (s valueScale) h() float64 {
	if s.height <= 0 {
		return 1
	}
	return s.height
}

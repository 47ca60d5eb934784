package export

import (
	"fmt"
	"strings"

	"github.com/ivlev/kfcurve/internal/config"
	"github.com/ivlev/kfcurve/internal/keyframe"
)

// Filter builds an FFmpeg filter applying the keyframes of prop.
// Curve values are normalized and scaled back by the property range.
func Filter(prop config.Property, points []keyframe.Point, origin int64) string {
	if len(points) == 0 {
		return ""
	}

	scaled := make([]keyframe.Point, len(points))
	factor := prop.Maximum - prop.Minimum
	if factor == 0 {
		factor = 1
	}
	for i, p := range points {
		scaled[i] = keyframe.Point{Timestamp: p.Timestamp, Value: p.Value * factor}
	}

	switch prop.Name {
	case "volume":
		return fmt.Sprintf("volume=volume='%s':eval=frame", Expression(scaled, origin, "t"))
	case "alpha":
		return fmt.Sprintf("format=rgba,geq=r='r(X,Y)':g='g(X,Y)':b='b(X,Y)':a='alpha(X,Y)*(%s)'",
			Expression(scaled, origin, "T"))
	default:
		return fmt.Sprintf("%s='%s'", prop.Name, Expression(scaled, origin, "t"))
	}
}

// Expression creates a piecewise linear FFmpeg expression over timeVar,
// measured in seconds from origin. Outside the keyframes the edge values hold.
func Expression(points []keyframe.Point, origin int64, timeVar string) string {
	if len(points) == 0 {
		return ""
	}
	if len(points) == 1 {
		return fmt.Sprintf("%.6f", points[0].Value)
	}

	var b strings.Builder
	first := points[0]
	fmt.Fprintf(&b, "if(lt(%s,%.6f),%.6f,", timeVar, seconds(first.Timestamp, origin), first.Value)
	open := 1

	for i := 0; i < len(points)-1; i++ {
		start, end := points[i], points[i+1]
		startSec := seconds(start.Timestamp, origin)
		endSec := seconds(end.Timestamp, origin)

		// Linear interpolation between keyframes
		// if(lte(t,end),startValue+(t-start)/(end-start)*(endValue-startValue),...)
		fmt.Fprintf(&b, "if(lte(%s,%.6f),%.6f+(%s-%.6f)/%.6f*(%.6f-%.6f),",
			timeVar, endSec, start.Value, timeVar, startSec, endSec-startSec, end.Value, start.Value)
		open++
	}

	fmt.Fprintf(&b, "%.6f", points[len(points)-1].Value)
	b.WriteString(strings.Repeat(")", open))
	return b.String()
}

func seconds(ts, origin int64) float64 {
	return float64(ts-origin) / 1e9
}

// Package spline resamples sparse control points along a Catmull-Rom curve.
package spline

import (
	"fmt"
	"math"

	"welltwin-renderer/internal/dataset"
	"welltwin-renderer/internal/mathutil"
)

// Tension is the Catmull-Rom tangent scale.
const Tension = 0.5

// Interpolate returns n+1 points evenly parameterized on t in [0, 1] along
// a non-looping Catmull-Rom curve through controls. Values are linearly
// interpolated between the two nearest controls at the same t. The first
// and last outputs equal the first and last controls.
func Interpolate(controls []dataset.SamplePoint, n int) ([]dataset.SamplePoint, error) {
	if len(controls) < 2 {
		return nil, fmt.Errorf("spline: %d control points: %w", len(controls), dataset.ErrInsufficientData)
	}
	if n < 1 {
		n = 1
	}

	pos := make([]mathutil.Vec3, len(controls))
	vals := make([]float64, len(controls))
	for i, c := range controls {
		pos[i] = mathutil.Vec3{c.X, c.Y, c.Z}
		vals[i] = c.Value
	}

	out := make([]dataset.SamplePoint, n+1)
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		p := pointAt(pos, t)
		out[i] = dataset.SamplePoint{X: p[0], Y: p[1], Z: p[2], Value: valueAt(vals, t)}
	}

	// Clamp the ends so rounding never pushes them off the controls.
	out[0] = controls[0]
	out[n] = controls[len(controls)-1]
	return out, nil
}

// pointAt evaluates the curve at t. The segment index and local weight are
// derived from t*(len-1); missing neighbours at the ends are reflected
// (2*p0 - p1) so the curve stays clamped to the first/last control.
func pointAt(pts []mathutil.Vec3, t float64) mathutil.Vec3 {
	l := len(pts)
	p := float64(l-1) * t
	seg := int(math.Floor(p))
	w := p - float64(seg)
	if seg >= l-1 {
		seg = l - 2
		w = 1
	}
	if seg < 0 {
		seg, w = 0, 0
	}

	var p0, p3 mathutil.Vec3
	if seg > 0 {
		p0 = pts[seg-1]
	} else {
		p0 = pts[0].Scale(2).Sub(pts[1])
	}
	p1 := pts[seg]
	p2 := pts[seg+1]
	if seg+2 < l {
		p3 = pts[seg+2]
	} else {
		p3 = pts[l-1].Scale(2).Sub(pts[l-2])
	}

	var out mathutil.Vec3
	for k := 0; k < 3; k++ {
		out[k] = catmullRom(p0[k], p1[k], p2[k], p3[k], w)
	}
	return out
}

// catmullRom evaluates the cubic Hermite segment between x1 and x2 with
// tangents Tension*(x2-x0) and Tension*(x3-x1).
func catmullRom(x0, x1, x2, x3, t float64) float64 {
	t0 := Tension * (x2 - x0)
	t1 := Tension * (x3 - x1)
	c0 := x1
	c1 := t0
	c2 := -3*x1 + 3*x2 - 2*t0 - t1
	c3 := 2*x1 - 2*x2 + t0 + t1
	return c0 + t*(c1+t*(c2+t*c3))
}

func valueAt(vals []float64, t float64) float64 {
	scaled := t * float64(len(vals)-1)
	i := int(math.Floor(scaled))
	f := scaled - float64(i)
	if i >= len(vals)-1 {
		return vals[len(vals)-1]
	}
	return vals[i]*(1-f) + vals[i+1]*f
}

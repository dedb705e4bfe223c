// Package geometry turns scattered sample points into a colored,
// triangulated surface mesh.
package geometry

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"welltwin-renderer/internal/dataset"
	"welltwin-renderer/internal/delaunay"
	"welltwin-renderer/internal/mathutil"
	"welltwin-renderer/internal/spline"
)

// Options controls surface construction.
type Options struct {
	// Inputs with fewer points than ResampleBelow are first resampled
	// through the spline to ResampleCount+1 points.
	ResampleBelow int
	ResampleCount int

	// Offset is added to every position.
	Offset mathutil.Vec3

	// HueSpan is the hue range in turns: low values map to HueSpan, high
	// values to 0 (red).
	HueSpan    float64
	Saturation float64
	Lightness  float64
}

// DefaultOptions matches the surface plots: resample below 10 points to
// 300 segments, center unit-cube exports on the origin.
func DefaultOptions() Options {
	return Options{
		ResampleBelow: 10,
		ResampleCount: 300,
		Offset:        mathutil.Vec3{-0.5, -0.5, -0.5},
		HueSpan:       0.7,
		Saturation:    1.0,
		Lightness:     0.7,
	}
}

// Mesh is a flat, non-indexed triangle list. Every three consecutive
// positions form one triangle; Colors and Points run parallel to Positions.
type Mesh struct {
	Positions []mathutil.Vec3
	Colors    []colorful.Color
	// Points holds the source sample behind each vertex (after any
	// resampling) so hit-tests can report the original coordinates.
	Points []dataset.SamplePoint
	Bounds mathutil.Box
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Positions) / 3
}

// Build triangulates points over their (x, y) projection and colors each
// vertex from its value.
func Build(points []dataset.SamplePoint, opts Options) (*Mesh, error) {
	if len(points) < 3 {
		return nil, fmt.Errorf("geometry: %d points: %w", len(points), dataset.ErrInsufficientData)
	}

	data := points
	if len(points) < opts.ResampleBelow {
		var err error
		data, err = spline.Interpolate(points, opts.ResampleCount)
		if err != nil {
			return nil, fmt.Errorf("geometry: resample: %w", err)
		}
	}

	flat := make([]delaunay.Point, len(data))
	for i, p := range data {
		flat[i] = delaunay.Point{X: p.X, Y: p.Y}
	}
	tris := delaunay.Triangulate(flat)
	if len(tris) == 0 {
		return nil, fmt.Errorf("geometry: no triangles from %d points: %w", len(data), dataset.ErrInsufficientData)
	}

	minV, maxV := valueRange(data)

	n := len(tris) * 3
	m := &Mesh{
		Positions: make([]mathutil.Vec3, 0, n),
		Colors:    make([]colorful.Color, 0, n),
		Points:    make([]dataset.SamplePoint, 0, n),
		Bounds:    mathutil.EmptyBox(),
	}
	for _, tr := range tris {
		for _, idx := range tr {
			p := data[idx]
			pos := mathutil.Vec3{p.X, p.Y, p.Z}.Add(opts.Offset)
			m.Positions = append(m.Positions, pos)
			m.Colors = append(m.Colors, ValueColor(p.Value, minV, maxV, opts))
			m.Points = append(m.Points, p)
			m.Bounds = m.Bounds.Extend(pos)
		}
	}
	return m, nil
}

// Normalize maps v into [0, 1] over [min, max]. A zero-width range maps
// every value to 0.5.
func Normalize(v, min, max float64) float64 {
	span := max - min
	if span == 0 || math.IsNaN(span) {
		return 0.5
	}
	n := (v - min) / span
	return math.Max(0, math.Min(1, n))
}

// ValueColor returns the heat color for v within [min, max].
func ValueColor(v, min, max float64, opts Options) colorful.Color {
	norm := Normalize(v, min, max)
	hue := (1 - norm) * opts.HueSpan * 360
	return colorful.Hsl(hue, opts.Saturation, opts.Lightness).Clamped()
}

func valueRange(pts []dataset.SamplePoint) (float64, float64) {
	minV, maxV := math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		minV = math.Min(minV, p.Value)
		maxV = math.Max(maxV, p.Value)
	}
	return minV, maxV
}

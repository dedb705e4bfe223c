package raster

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"welltwin-renderer/internal/mathutil"
	"welltwin-renderer/internal/scene"
)

// Lighting is the per-frame lighting state derived from the scene lights.
type Lighting struct {
	Ambient colorful.Color // summed ambient contribution
	dirs    []directional
}

type directional struct {
	dir   mathutil.Vec3
	color colorful.Color // color × intensity
}

// NewLighting precomputes light directions and scaled colors.
func NewLighting(lights []scene.Light) Lighting {
	var lc Lighting
	for _, l := range lights {
		c := colorful.Color{R: l.Color.R * l.Intensity, G: l.Color.G * l.Intensity, B: l.Color.B * l.Intensity}
		switch l.Kind {
		case scene.Ambient:
			lc.Ambient = colorful.Color{R: lc.Ambient.R + c.R, G: lc.Ambient.G + c.G, B: lc.Ambient.B + c.B}
		case scene.Directional:
			lc.dirs = append(lc.dirs, directional{dir: l.Direction(), color: c})
		}
	}
	if len(lights) == 0 {
		lc.Ambient = colorful.Color{R: 1, G: 1, B: 1}
	}
	return lc
}

// Shade returns the light reaching a face with the given unit normal.
// Faces are lit from both sides.
func (lc *Lighting) Shade(normal mathutil.Vec3) colorful.Color {
	s := lc.Ambient
	for _, d := range lc.dirs {
		ndl := math.Abs(normal.Dot(d.dir))
		s.R += d.color.R * ndl
		s.G += d.color.G * ndl
		s.B += d.color.B * ndl
	}
	return s
}

// FaceNormal returns the unit normal of triangle (a, b, c), or the zero
// vector for degenerate triangles.
func FaceNormal(a, b, c mathutil.Vec3) mathutil.Vec3 {
	return b.Sub(a).Cross(c.Sub(a)).Normalize()
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// Package scene assembles the renderable elements around a surface mesh or
// a voxel set: lights, reference grids, axes, labels, camera framing and
// pointer hit-testing.
package scene

import (
	"image"

	"github.com/lucasb-eyer/go-colorful"

	"welltwin-renderer/internal/geometry"
	"welltwin-renderer/internal/mathutil"
)

// LightKind distinguishes light sources.
type LightKind int

const (
	Ambient LightKind = iota
	Directional
)

// Light is an ambient or directional light. Position is only used by
// directional lights, which shine from Position towards the origin.
type Light struct {
	Kind      LightKind
	Color     colorful.Color
	Intensity float64
	Position  mathutil.Vec3
}

// Direction returns the unit vector pointing from the surface to the light.
func (l Light) Direction() mathutil.Vec3 {
	return l.Position.Normalize()
}

// Line is a colored segment.
type Line struct {
	A, B  mathutil.Vec3
	Color colorful.Color
}

// Label is screen-facing text anchored at a world position.
type Label struct {
	Text  string
	Pos   mathutil.Vec3
	Color colorful.Color
}

// Cube is an axis-aligned box drawn for one voxel.
type Cube struct {
	Center mathutil.Vec3
	Size   float64
	Color  colorful.Color
	Info   HitInfo
}

// Bounds returns the cube's extent.
func (c Cube) Bounds() mathutil.Box {
	h := c.Size / 2
	d := mathutil.Vec3{h, h, h}
	return mathutil.Box{Min: c.Center.Sub(d), Max: c.Center.Add(d)}
}

// Floor is a textured quad; corners run counter-clockwise from UV (0,0).
type Floor struct {
	Corners [4]mathutil.Vec3
	Texture *image.NRGBA
}

// Gizmo is the corner axes indicator rendered with the camera's rotation.
type Gizmo struct {
	Size   int // viewport edge in pixels
	Labels [3]string
	Colors [3]colorful.Color
}

// HitInfo is the metadata reported for the primitive under the cursor.
type HitInfo struct {
	Kind     string        `json:"kind"`
	Label    string        `json:"label"`
	Original mathutil.Vec3 `json:"original"`
	Value    float64       `json:"value"`
}

// Scene is everything the renderer draws for one frame.
type Scene struct {
	Background colorful.Color
	Lights     []Light
	Surfaces   []*geometry.Mesh
	Cubes      []Cube
	Lines      []Line
	Labels     []Label
	Floor      *Floor
	Gizmo      *Gizmo

	// CubeBounds caches the union of all cube bounds for hit-test culling.
	CubeBounds mathutil.Box
}

// New returns an empty scene with the given background.
func New(bg colorful.Color) *Scene {
	return &Scene{Background: bg, CubeBounds: mathutil.EmptyBox()}
}

// AddCube appends a cube and grows the cached bounds.
func (s *Scene) AddCube(c Cube) {
	s.Cubes = append(s.Cubes, c)
	s.CubeBounds = s.CubeBounds.Union(c.Bounds())
}

// Bounds returns the extent of all surfaces and cubes.
func (s *Scene) Bounds() mathutil.Box {
	b := s.CubeBounds
	for _, m := range s.Surfaces {
		b = b.Union(m.Bounds)
	}
	return b
}

// IsEmpty reports whether the scene holds no data primitives.
func (s *Scene) IsEmpty() bool {
	return len(s.Surfaces) == 0 && len(s.Cubes) == 0
}

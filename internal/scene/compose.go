package scene

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"welltwin-renderer/internal/dataset"
	"welltwin-renderer/internal/geometry"
	"welltwin-renderer/internal/mathutil"
	"welltwin-renderer/internal/palette"
	"welltwin-renderer/internal/voxel"
)

var (
	white    = colorful.Color{R: 1, G: 1, B: 1}
	gridGray = colorful.Color{R: 0.53, G: 0.53, B: 0.53}
	axisX    = colorful.Color{R: 1, G: 0, B: 0}
	axisY    = colorful.Color{R: 0, G: 1, B: 0}
	axisZ    = colorful.Color{R: 0, G: 0, B: 1}
	pathRed  = colorful.Color{R: 1, G: 0, B: 0}
	ink      = colorful.Color{R: 0, G: 0, B: 0}
)

// SurfaceOptions configures ComposeSurface.
type SurfaceOptions struct {
	Aspect float64
	// PathOffset is added to path points; it should match the mesh offset.
	PathOffset mathutil.Vec3
}

// ComposeSurface places a surface mesh in a unit-sized frame: key and fill
// lights, three reference grid planes, an axes helper with Lat/Long/Dept
// labels and an optional path polyline. mesh may be nil for a placeholder
// scene. The returned camera frames the unit cube.
func ComposeSurface(mesh *geometry.Mesh, path []dataset.SamplePoint, opts SurfaceOptions) (*Scene, *Camera) {
	s := New(colorful.Color{R: 0xfa / 255.0, G: 0xfa / 255.0, B: 0xfa / 255.0})
	s.Lights = []Light{
		{Kind: Directional, Color: white, Intensity: 1, Position: mathutil.Vec3{0, 0, 5}},
		{Kind: Ambient, Color: white, Intensity: 0.5},
	}

	if mesh != nil {
		s.Surfaces = append(s.Surfaces, mesh)
	}

	// Grids: floor (XZ), back wall (XY), side wall (YZ).
	s.Lines = append(s.Lines, GridLines(2, 10, mathutil.Mat3Identity(), mathutil.Vec3{0, -0.5, 0}, gridGray)...)
	s.Lines = append(s.Lines, GridLines(2, 10, mathutil.RotX(math.Pi/2), mathutil.Vec3{0, 0, -0.5}, gridGray)...)
	s.Lines = append(s.Lines, GridLines(2, 10, mathutil.RotZ(math.Pi/2), mathutil.Vec3{-0.5, 0, 0}, gridGray)...)
	s.Lines = append(s.Lines, AxesLines(mathutil.Vec3{}, 1)...)

	s.Labels = append(s.Labels,
		Label{Text: "Lat", Pos: mathutil.Vec3{1.1, 0, 0}, Color: ink},
		Label{Text: "Long", Pos: mathutil.Vec3{0, 1.1, 0}, Color: ink},
		Label{Text: "Dept", Pos: mathutil.Vec3{0, 0, 1.1}, Color: ink},
	)

	s.Lines = append(s.Lines, PathLines(path, opts.PathOffset, pathRed)...)

	cam := NewCamera(60, aspectOr1(opts.Aspect), 0.1, 1000)
	cam.Position = mathutil.Vec3{0.5, 0.5, 3}
	return s, cam
}

// VoxelOptions configures ComposeVoxels.
type VoxelOptions struct {
	Aspect float64
	// Basemap is drawn on the floor of the display cube when set.
	Basemap *Floor
}

// ComposeVoxels draws one unit cube per voxel colored by label, adds
// lights, a floor grid and the corner axes gizmo, and frames the camera at
// center+50 looking at the voxel group's center.
func ComposeVoxels(voxels []voxel.Scaled, pal palette.Palette, opts VoxelOptions) (*Scene, *Camera) {
	s := New(colorful.Color{R: 0xee / 255.0, G: 0xee / 255.0, B: 0xee / 255.0})
	s.Lights = []Light{
		{Kind: Directional, Color: white, Intensity: 1, Position: mathutil.Vec3{50, 100, 50}},
		{Kind: Ambient, Color: white, Intensity: 0x40 / 255.0},
	}

	for _, v := range voxels {
		s.AddCube(Cube{
			Center: v.Pos,
			Size:   1,
			Color:  pal.Color(v.Label),
			Info: HitInfo{
				Kind:     "voxel",
				Label:    v.Label,
				Original: mathutil.Vec3{v.X, v.Y, v.Z},
			},
		})
	}

	half := voxel.BoxSize / 2
	s.Lines = append(s.Lines, GridLines(voxel.BoxSize, 10, mathutil.Mat3Identity(), mathutil.Vec3{half, -0.5, half}, gridGray)...)
	if opts.Basemap != nil {
		s.Floor = opts.Basemap
	}
	s.Gizmo = &Gizmo{
		Size:   100,
		Labels: [3]string{"X", "Y", "Z"},
		Colors: [3]colorful.Color{axisX, axisY, axisZ},
	}

	center := mathutil.Vec3{}
	if !s.CubeBounds.IsEmpty() {
		center = s.CubeBounds.Center()
	}
	cam := NewCamera(75, aspectOr1(opts.Aspect), 0.1, 10000)
	cam.Target = center
	cam.Position = center.Add(mathutil.Vec3{50, 50, 50})
	return s, cam
}

// FloorQuad returns a floor spanning [0, size] in X and Z at height y.
func FloorQuad(size, y float64) [4]mathutil.Vec3 {
	return [4]mathutil.Vec3{
		{0, y, size},
		{size, y, size},
		{size, y, 0},
		{0, y, 0},
	}
}

// GridLines returns a square grid of the given size and divisions in the
// XZ plane, rotated by rot and centered at center.
func GridLines(size float64, divisions int, rot mathutil.Mat3, center mathutil.Vec3, c colorful.Color) []Line {
	if divisions < 1 {
		divisions = 1
	}
	half := size / 2
	step := size / float64(divisions)
	lines := make([]Line, 0, 2*(divisions+1))
	for i := 0; i <= divisions; i++ {
		k := -half + float64(i)*step
		a := mathutil.Vec3{-half, 0, k}
		b := mathutil.Vec3{half, 0, k}
		lines = append(lines, Line{A: rot.MulVec3(a).Add(center), B: rot.MulVec3(b).Add(center), Color: c})
		a = mathutil.Vec3{k, 0, -half}
		b = mathutil.Vec3{k, 0, half}
		lines = append(lines, Line{A: rot.MulVec3(a).Add(center), B: rot.MulVec3(b).Add(center), Color: c})
	}
	return lines
}

// AxesLines returns X (red), Y (green) and Z (blue) segments from origin.
func AxesLines(origin mathutil.Vec3, length float64) []Line {
	return []Line{
		{A: origin, B: origin.Add(mathutil.Vec3{length, 0, 0}), Color: axisX},
		{A: origin, B: origin.Add(mathutil.Vec3{0, length, 0}), Color: axisY},
		{A: origin, B: origin.Add(mathutil.Vec3{0, 0, length}), Color: axisZ},
	}
}

// PathLines joins consecutive path points into segments.
func PathLines(path []dataset.SamplePoint, offset mathutil.Vec3, c colorful.Color) []Line {
	if len(path) < 2 {
		return nil
	}
	lines := make([]Line, 0, len(path)-1)
	for i := 1; i < len(path); i++ {
		a, b := path[i-1], path[i]
		lines = append(lines, Line{
			A:     mathutil.Vec3{a.X, a.Y, a.Z}.Add(offset),
			B:     mathutil.Vec3{b.X, b.Y, b.Z}.Add(offset),
			Color: c,
		})
	}
	return lines
}

func aspectOr1(a float64) float64 {
	if a <= 0 || math.IsNaN(a) {
		return 1
	}
	return a
}

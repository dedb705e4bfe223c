package raster

import (
	"image"

	"github.com/lucasb-eyer/go-colorful"

	"welltwin-renderer/internal/mathutil"
	"welltwin-renderer/internal/postprocess"
	"welltwin-renderer/internal/scene"
)

// projector maps world points into a w×h framebuffer for one camera.
type projector struct {
	cam  *scene.Camera
	w, h float64
}

func (p projector) project(v mathutil.Vec3) (Vertex, bool) {
	x, y, depth, ok := p.cam.Project(v)
	if !ok {
		return Vertex{}, false
	}
	return Vertex{
		X:    (x + 1) * 0.5 * p.w,
		Y:    (1 - y) * 0.5 * p.h,
		InvZ: 1 / depth,
	}, true
}

// Render draws the scene's geometry and overlays into fb.
func Render(s *scene.Scene, cam *scene.Camera, fb *FrameBuffer) {
	RenderGeometry(s, cam, fb)
	DrawOverlays(fb.View(), s, cam)
}

// RenderGeometry clears fb and rasterizes the floor, surfaces, cubes and
// lines with depth testing. Labels and the gizmo are left to DrawOverlays
// so they stay crisp after supersampling.
func RenderGeometry(s *scene.Scene, cam *scene.Camera, fb *FrameBuffer) {
	fb.Clear(s.Background)
	p := projector{cam: cam, w: float64(fb.Width), h: float64(fb.Height)}
	lc := NewLighting(s.Lights)

	if f := s.Floor; f != nil && f.Texture != nil {
		var v [4]Vertex
		visible := true
		for i, c := range f.Corners {
			var ok bool
			if v[i], ok = p.project(c); !ok {
				visible = false
				break
			}
		}
		if visible {
			uv := [4][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
			RasterizeTexturedTriangle(fb, [3]Vertex{v[0], v[1], v[2]}, [3][2]float64{uv[0], uv[1], uv[2]}, f.Texture)
			RasterizeTexturedTriangle(fb, [3]Vertex{v[0], v[2], v[3]}, [3][2]float64{uv[0], uv[2], uv[3]}, f.Texture)
		}
	}

	for _, m := range s.Surfaces {
		for i := 0; i+2 < len(m.Positions); i += 3 {
			a, b, c := m.Positions[i], m.Positions[i+1], m.Positions[i+2]
			va, ok1 := p.project(a)
			vb, ok2 := p.project(b)
			vc, ok3 := p.project(c)
			if !ok1 || !ok2 || !ok3 {
				continue
			}
			shade := lc.Shade(FaceNormal(a, b, c))
			RasterizeTriangle(fb, [3]Vertex{va, vb, vc}, [3]colorful.Color{m.Colors[i], m.Colors[i+1], m.Colors[i+2]}, shade)
		}
	}

	for i := range s.Cubes {
		drawCube(fb, p, &lc, &s.Cubes[i])
	}

	for _, l := range s.Lines {
		a, b, ok := clipLine(cam, l.A, l.B)
		if !ok {
			continue
		}
		va, ok1 := p.project(a)
		vb, ok2 := p.project(b)
		if !ok1 || !ok2 {
			continue
		}
		RasterizeLine(fb, va, vb, l.Color)
	}
}

// Cube faces as corner quads; corner index bits are x | y<<1 | z<<2.
var cubeFaces = [6][4]int{
	{0, 4, 6, 2}, {1, 3, 7, 5},
	{0, 1, 5, 4}, {2, 6, 7, 3},
	{0, 2, 3, 1}, {4, 5, 7, 6},
}

func drawCube(fb *FrameBuffer, p projector, lc *Lighting, c *scene.Cube) {
	h := c.Size / 2
	var corners [8]mathutil.Vec3
	var verts [8]Vertex
	for i := 0; i < 8; i++ {
		d := mathutil.Vec3{-h, -h, -h}
		if i&1 != 0 {
			d[0] = h
		}
		if i&2 != 0 {
			d[1] = h
		}
		if i&4 != 0 {
			d[2] = h
		}
		corners[i] = c.Center.Add(d)
		var ok bool
		if verts[i], ok = p.project(corners[i]); !ok {
			return
		}
	}

	cols := [3]colorful.Color{c.Color, c.Color, c.Color}
	for _, f := range cubeFaces {
		shade := lc.Shade(FaceNormal(corners[f[0]], corners[f[1]], corners[f[2]]))
		RasterizeTriangle(fb, [3]Vertex{verts[f[0]], verts[f[1]], verts[f[2]]}, cols, shade)
		RasterizeTriangle(fb, [3]Vertex{verts[f[0]], verts[f[2]], verts[f[3]]}, cols, shade)
	}
}

// clipLine trims a segment to the camera's near plane.
func clipLine(cam *scene.Camera, a, b mathutil.Vec3) (mathutil.Vec3, mathutil.Vec3, bool) {
	_, _, f := cam.Basis()
	near := cam.Near * 1.001
	da := a.Sub(cam.Position).Dot(f)
	db := b.Sub(cam.Position).Dot(f)
	if da < near && db < near {
		return a, b, false
	}
	if da < near {
		a = a.Lerp(b, (near-da)/(db-da))
	} else if db < near {
		b = b.Lerp(a, (near-db)/(da-db))
	}
	return a, b, true
}

// Snapshot renders the scene to a w×h image. Geometry is rendered at
// supersample× resolution and downsampled before overlays are drawn.
func Snapshot(s *scene.Scene, cam *scene.Camera, w, h, supersample int) *image.NRGBA {
	if supersample < 1 {
		supersample = 1
	}
	fb := NewFrameBuffer(w*supersample, h*supersample)
	RenderGeometry(s, cam, fb)

	img := fb.Image()
	if supersample > 1 {
		img = postprocess.Downsample(img, w, h)
	}
	DrawOverlays(img, s, cam)
	return img
}

package raster

import (
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"welltwin-renderer/internal/mathutil"
	"welltwin-renderer/internal/scene"
)

// DrawOverlays writes scene labels and the corner axes gizmo on top of img
// without depth testing.
func DrawOverlays(img *image.NRGBA, s *scene.Scene, cam *scene.Camera) {
	b := img.Bounds()
	p := projector{cam: cam, w: float64(b.Dx()), h: float64(b.Dy())}

	for _, l := range s.Labels {
		v, ok := p.project(l.Pos)
		if !ok {
			continue
		}
		x := int(v.X) - TextWidth(l.Text)/2
		DrawText(img, x, int(v.Y)+4, l.Text, l.Color)
	}

	if s.Gizmo != nil {
		drawGizmo(img, cam, s.Gizmo)
	}
}

// drawGizmo draws the three world axes in a square viewport anchored 10px
// from the bottom-left corner, rotated with the camera.
func drawGizmo(img *image.NRGBA, cam *scene.Camera, g *scene.Gizmo) {
	b := img.Bounds()
	size := g.Size
	if size > b.Dx()/2 {
		size = b.Dx() / 2
	}
	if size > b.Dy()/2 {
		size = b.Dy() / 2
	}
	if size < 20 {
		return
	}

	cx := float64(b.Min.X + 10 + size/2)
	cy := float64(b.Max.Y - 10 - size/2)
	arm := float64(size) * 0.35

	rot := cam.Rotation()
	axes := [3]mathutil.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for k, a := range axes {
		d := rot.MulVec3(a)
		ex := cx + d[0]*arm
		ey := cy - d[1]*arm
		drawLine(img, cx, cy, ex, ey, g.Colors[k])

		lx := cx + d[0]*arm*1.25
		ly := cy - d[1]*arm*1.25
		DrawText(img, int(lx)-TextWidth(g.Labels[k])/2, int(ly)+4, g.Labels[k], g.Colors[k])
	}
}

// drawLine is an unclipped DDA line straight into an image.
func drawLine(img *image.NRGBA, x0, y0, x1, y1 float64, c colorful.Color) {
	r, g, bl := c.Clamped().RGB255()
	steps := int(math.Ceil(math.Max(math.Abs(x1-x0), math.Abs(y1-y0))))
	if steps == 0 {
		steps = 1
	}
	b := img.Bounds()
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := int(x0 + (x1-x0)*t)
		y := int(y0 + (y1-y0)*t)
		if !(image.Point{x, y}.In(b)) {
			continue
		}
		o := img.PixOffset(x, y)
		img.Pix[o] = r
		img.Pix[o+1] = g
		img.Pix[o+2] = bl
		img.Pix[o+3] = 255
	}
}

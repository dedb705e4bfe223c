package raster

import (
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Vertex is a projected vertex: screen position and inverse view depth.
type Vertex struct {
	X, Y float64
	InvZ float64
}

// RasterizeTriangle fills a triangle with per-vertex colors interpolated
// across the face, multiplied by a flat shade, with z-buffer testing.
//
// This is the HOT PATH; no allocation in the pixel loop.
func RasterizeTriangle(fb *FrameBuffer, v [3]Vertex, c [3]colorful.Color, shade colorful.Color) {
	minX, maxX, minY, maxY, ok := bounds(fb, v)
	if !ok {
		return
	}

	x0, y0 := v[0].X, v[0].Y
	x1, y1 := v[1].X, v[1].Y
	x2, y2 := v[2].X, v[2].Y

	// Barycentric setup
	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	// Precompute edge deltas
	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	// Pre-multiply vertex colors by the shade, in 0..255.
	var cr, cg, cb [3]float64
	for k := 0; k < 3; k++ {
		cr[k] = c[k].R * shade.R * 255
		cg[k] = c[k].G * shade.G * 255
		cb[k] = c[k].B * shade.B * 255
	}

	w := fb.Width
	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) + 0.5 - y2
		rowOff := sy * w
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1

			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*v[0].InvZ + w1*v[1].InvZ + w2*v[2].InvZ
			zIdx := rowOff + sx
			if z <= fb.ZBuf[zIdx] {
				continue
			}
			fb.ZBuf[zIdx] = z

			fb.set(zIdx,
				clamp255(w0*cr[0]+w1*cr[1]+w2*cr[2]),
				clamp255(w0*cg[0]+w1*cg[1]+w2*cg[2]),
				clamp255(w0*cb[0]+w1*cb[1]+w2*cb[2]),
			)
		}
	}
}

// RasterizeTexturedTriangle fills a triangle from a texture with bilinear
// sampling. UVs are interpolated perspective-correctly. Texels with alpha
// below 8 are skipped.
func RasterizeTexturedTriangle(fb *FrameBuffer, v [3]Vertex, uv [3][2]float64, tex *image.NRGBA) {
	minX, maxX, minY, maxY, ok := bounds(fb, v)
	if !ok || tex == nil {
		return
	}

	x0, y0 := v[0].X, v[0].Y
	x1, y1 := v[1].X, v[1].Y
	x2, y2 := v[2].X, v[2].Y

	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	w := fb.Width
	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) + 0.5 - y2
		rowOff := sy * w
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1

			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*v[0].InvZ + w1*v[1].InvZ + w2*v[2].InvZ
			zIdx := rowOff + sx
			if z <= fb.ZBuf[zIdx] || z <= 0 {
				continue
			}

			// Perspective-correct UV: interpolate uv/z then divide by 1/z.
			u := (w0*uv[0][0]*v[0].InvZ + w1*uv[1][0]*v[1].InvZ + w2*uv[2][0]*v[2].InvZ) / z
			vv := (w0*uv[0][1]*v[0].InvZ + w1*uv[1][1]*v[1].InvZ + w2*uv[2][1]*v[2].InvZ) / z
			r, g, b, a := SampleTexture(tex, u, vv)
			if a < 8 {
				continue
			}
			fb.ZBuf[zIdx] = z
			fb.set(zIdx, r, g, b)
		}
	}
}

// bounds clips the triangle's bounding box to the framebuffer.
func bounds(fb *FrameBuffer, v [3]Vertex) (minX, maxX, minY, maxY int, ok bool) {
	minX = int(math.Floor(math.Min(math.Min(v[0].X, v[1].X), v[2].X)))
	maxX = int(math.Ceil(math.Max(math.Max(v[0].X, v[1].X), v[2].X)))
	minY = int(math.Floor(math.Min(math.Min(v[0].Y, v[1].Y), v[2].Y)))
	maxY = int(math.Ceil(math.Max(math.Max(v[0].Y, v[1].Y), v[2].Y)))

	if minX < 0 {
		minX = 0
	}
	if maxX >= fb.Width {
		maxX = fb.Width - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= fb.Height {
		maxY = fb.Height - 1
	}
	if minX > maxX || minY > maxY {
		return 0, 0, 0, 0, false
	}
	return minX, maxX, minY, maxY, true
}

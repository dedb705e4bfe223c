package raster

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// RasterizeLine draws a one-pixel segment with depth testing.
func RasterizeLine(fb *FrameBuffer, a, b Vertex, c colorful.Color) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps == 0 {
		steps = 1
	}
	// Guard against segments projected absurdly far off-screen.
	if steps > 4*(fb.Width+fb.Height) {
		steps = 4 * (fb.Width + fb.Height)
	}

	r, g, bl := c.Clamped().RGB255()
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := int(a.X + dx*t)
		y := int(a.Y + dy*t)
		if x < 0 || y < 0 || x >= fb.Width || y >= fb.Height {
			continue
		}
		idx := y*fb.Width + x
		// Small bias keeps grid lines visible on coplanar faces.
		z := (a.InvZ + (b.InvZ-a.InvZ)*t) * 1.0005
		if z < fb.ZBuf[idx] {
			continue
		}
		fb.ZBuf[idx] = z
		fb.set(idx, r, g, bl)
	}
}

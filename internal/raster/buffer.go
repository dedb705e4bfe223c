package raster

import (
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// FrameBuffer holds the rendering target as flat slices for cache locality.
type FrameBuffer struct {
	Width  int
	Height int
	Color  []uint8   // RGBA interleaved, len = W*H*4
	ZBuf   []float64 // inverse view depth per pixel, larger is closer
}

// NewFrameBuffer allocates a zeroed color buffer and -inf z-buffer.
func NewFrameBuffer(w, h int) *FrameBuffer {
	fb := &FrameBuffer{
		Width:  w,
		Height: h,
		Color:  make([]uint8, w*h*4),
		ZBuf:   make([]float64, w*h),
	}
	fb.ClearDepth()
	return fb
}

// Clear fills the color buffer with bg (opaque) and resets depth.
func (fb *FrameBuffer) Clear(bg colorful.Color) {
	r, g, b := bg.Clamped().RGB255()
	for i := 0; i < len(fb.Color); i += 4 {
		fb.Color[i] = r
		fb.Color[i+1] = g
		fb.Color[i+2] = b
		fb.Color[i+3] = 255
	}
	fb.ClearDepth()
}

// ClearDepth resets the z-buffer so later draws ignore earlier depth.
func (fb *FrameBuffer) ClearDepth() {
	for i := range fb.ZBuf {
		fb.ZBuf[i] = math.Inf(-1)
	}
}

// Image copies the color buffer into an NRGBA image.
func (fb *FrameBuffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	copy(img.Pix, fb.Color)
	return img
}

func (fb *FrameBuffer) set(idx int, r, g, b uint8) {
	p := idx * 4
	fb.Color[p] = r
	fb.Color[p+1] = g
	fb.Color[p+2] = b
	fb.Color[p+3] = 255
}

// View returns an image sharing the color buffer, for overlays drawn
// straight into the frame.
func (fb *FrameBuffer) View() *image.NRGBA {
	return &image.NRGBA{
		Pix:    fb.Color,
		Stride: fb.Width * 4,
		Rect:   image.Rect(0, 0, fb.Width, fb.Height),
	}
}

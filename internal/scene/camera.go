package scene

import (
	"math"

	"welltwin-renderer/internal/mathutil"
)

// Camera is a perspective camera looking from Position at Target.
type Camera struct {
	Position mathutil.Vec3
	Target   mathutil.Vec3
	Up       mathutil.Vec3
	FOV      float64 // vertical, degrees
	Aspect   float64
	Near     float64
	Far      float64
}

// NewCamera returns a camera with a Y-up orientation.
func NewCamera(fov, aspect, near, far float64) *Camera {
	return &Camera{
		Position: mathutil.Vec3{0, 0, 1},
		Up:       mathutil.Vec3{0, 1, 0},
		FOV:      fov,
		Aspect:   aspect,
		Near:     near,
		Far:      far,
	}
}

// Basis returns the camera's right, up and forward unit vectors.
func (c *Camera) Basis() (right, up, forward mathutil.Vec3) {
	forward = c.Target.Sub(c.Position).Normalize()
	right = forward.Cross(c.Up).Normalize()
	if right == (mathutil.Vec3{}) {
		// Looking straight along Up; pick any perpendicular.
		right = forward.Cross(mathutil.Vec3{0, 0, 1}).Normalize()
	}
	up = right.Cross(forward)
	return right, up, forward
}

// Rotation maps world directions into view space (x right, y up, z back).
func (c *Camera) Rotation() mathutil.Mat3 {
	r, u, f := c.Basis()
	return mathutil.Mat3Rows(r, u, f.Scale(-1))
}

func (c *Camera) tanHalf() float64 {
	return math.Tan(mathutil.Deg2Rad(c.FOV) / 2)
}

// Project maps a world point to normalized device coordinates in [-1, 1]
// (y up) plus its view depth. ok is false when the point is in front of the
// near plane or beyond the far plane.
func (c *Camera) Project(p mathutil.Vec3) (ndcX, ndcY, depth float64, ok bool) {
	r, u, f := c.Basis()
	d := p.Sub(c.Position)
	depth = d.Dot(f)
	if depth < c.Near || depth > c.Far {
		return 0, 0, depth, false
	}
	th := c.tanHalf()
	ndcX = d.Dot(r) / (depth * th * c.Aspect)
	ndcY = d.Dot(u) / (depth * th)
	return ndcX, ndcY, depth, true
}

// Ray returns the world ray through normalized device coordinates.
func (c *Camera) Ray(ndcX, ndcY float64) mathutil.Ray {
	r, u, f := c.Basis()
	th := c.tanHalf()
	dir := f.Add(r.Scale(ndcX * th * c.Aspect)).Add(u.Scale(ndcY * th))
	return mathutil.Ray{Origin: c.Position, Dir: dir.Normalize()}
}

// PixelToNDC converts a pixel position inside a w×h viewport to device
// coordinates, flipping y.
func PixelToNDC(px, py float64, w, h int) (float64, float64) {
	return px/float64(w)*2 - 1, -(py/float64(h)*2 - 1)
}

package mathutil

import "math"

// RotX returns a 3×3 rotation matrix around the X axis. Angle in radians.
func RotX(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	}
}

// RotZ returns a 3×3 rotation matrix around the Z axis.
func RotZ(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	}
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180
}

// Spherical is a Y-up spherical coordinate: Theta is the azimuth around +Y
// measured from +Z, Phi the polar angle from +Y.
type Spherical struct {
	Radius float64
	Theta  float64
	Phi    float64
}

// ToSpherical converts an offset vector to spherical coordinates.
func ToSpherical(v Vec3) Spherical {
	r := v.Len()
	if r < 1e-12 {
		return Spherical{}
	}
	y := math.Max(-1, math.Min(1, v[1]/r))
	return Spherical{
		Radius: r,
		Theta:  math.Atan2(v[0], v[2]),
		Phi:    math.Acos(y),
	}
}

// Vec3 converts back to a cartesian offset.
func (s Spherical) Vec3() Vec3 {
	sinPhi := math.Sin(s.Phi)
	return Vec3{
		s.Radius * sinPhi * math.Sin(s.Theta),
		s.Radius * math.Cos(s.Phi),
		s.Radius * sinPhi * math.Cos(s.Theta),
	}
}

package mathutil

import "math"

// Ray is a half-line with a unit direction.
type Ray struct {
	Origin Vec3
	Dir    Vec3
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Dir.Scale(t))
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min, Max Vec3
}

// EmptyBox returns an inverted box that any Extend call will replace.
func EmptyBox() Box {
	inf := math.Inf(1)
	return Box{Min: Vec3{inf, inf, inf}, Max: Vec3{-inf, -inf, -inf}}
}

// Extend grows the box to contain p.
func (b Box) Extend(p Vec3) Box {
	return Box{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Union returns the smallest box containing both.
func (b Box) Union(o Box) Box {
	return Box{Min: b.Min.Min(o.Min), Max: b.Max.Max(o.Max)}
}

// IsEmpty reports whether the box contains no points.
func (b Box) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

func (b Box) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

func (b Box) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// IntersectBox returns the entry distance of r into b using the slab test.
// A ray starting inside the box reports t = 0.
func (r Ray) IntersectBox(b Box) (float64, bool) {
	tMin, tMax := 0.0, math.Inf(1)
	for k := 0; k < 3; k++ {
		if math.Abs(r.Dir[k]) < 1e-12 {
			if r.Origin[k] < b.Min[k] || r.Origin[k] > b.Max[k] {
				return 0, false
			}
			continue
		}
		inv := 1.0 / r.Dir[k]
		t0 := (b.Min[k] - r.Origin[k]) * inv
		t1 := (b.Max[k] - r.Origin[k]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tMin {
			tMin = t0
		}
		if t1 < tMax {
			tMax = t1
		}
		if tMin > tMax {
			return 0, false
		}
	}
	return tMin, true
}

// IntersectTriangle returns the hit distance of r against triangle (a, b, c)
// using Möller–Trumbore. Both faces count as hits.
func (r Ray) IntersectTriangle(a, b, c Vec3) (float64, bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	p := r.Dir.Cross(e2)
	det := e1.Dot(p)
	if det > -1e-12 && det < 1e-12 {
		return 0, false
	}
	invDet := 1.0 / det
	s := r.Origin.Sub(a)
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := r.Dir.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := e2.Dot(q) * invDet
	if t <= 1e-9 {
		return 0, false
	}
	return t, true
}

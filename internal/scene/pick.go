package scene

import (
	"math"

	"welltwin-renderer/internal/mathutil"
)

// Hit is the closest primitive under a ray.
type Hit struct {
	HitInfo
	Distance float64 `json:"distance"`
}

// Pick casts ray against the scene's cubes and surface triangles and
// returns only the nearest intersection.
func Pick(s *Scene, ray mathutil.Ray) (Hit, bool) {
	best := Hit{Distance: math.Inf(1)}
	found := false

	if len(s.Cubes) > 0 {
		if _, ok := ray.IntersectBox(s.CubeBounds); ok {
			for i := range s.Cubes {
				c := &s.Cubes[i]
				t, ok := ray.IntersectBox(c.Bounds())
				if ok && t < best.Distance {
					best = Hit{HitInfo: c.Info, Distance: t}
					found = true
				}
			}
		}
	}

	for _, m := range s.Surfaces {
		if _, ok := ray.IntersectBox(m.Bounds); !ok {
			continue
		}
		for i := 0; i+2 < len(m.Positions); i += 3 {
			a, b, c := m.Positions[i], m.Positions[i+1], m.Positions[i+2]
			t, ok := ray.IntersectTriangle(a, b, c)
			if !ok || t >= best.Distance {
				continue
			}
			// Report the vertex nearest the hit point.
			p := ray.At(t)
			near := i
			nd := p.Sub(a).Len()
			if d := p.Sub(b).Len(); d < nd {
				near, nd = i+1, d
			}
			if d := p.Sub(c).Len(); d < nd {
				near = i + 2
			}
			src := m.Points[near]
			best = Hit{
				HitInfo: HitInfo{
					Kind:     "surface",
					Original: mathutil.Vec3{src.X, src.Y, src.Z},
					Value:    src.Value,
				},
				Distance: t,
			}
			found = true
		}
	}

	if !found {
		return Hit{}, false
	}
	return best, true
}

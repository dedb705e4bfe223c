// Package delaunay triangulates scattered 2D points.
package delaunay

import (
	"math"
	"sort"
)

// Point is a 2D input location.
type Point struct {
	X, Y float64
}

// Triangle holds three indices into the input slice, counter-clockwise.
type Triangle [3]int

type tri struct {
	v      [3]int
	cx, cy float64 // circumcenter
	r2     float64 // squared circumradius
}

type edge [2]int

func key(a, b int) edge {
	if a > b {
		a, b = b, a
	}
	return edge{a, b}
}

// Triangulate returns the Delaunay triangulation of points using the
// Bowyer-Watson insertion algorithm. Exact duplicates are skipped. Fewer
// than three distinct points, or a collinear set, yield no triangles.
// The result is deterministic for a given input order.
func Triangulate(points []Point) []Triangle {
	n := len(points)
	if n < 3 {
		return nil
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	d := math.Max(maxX-minX, maxY-minY)
	if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return nil
	}
	midX, midY := (minX+maxX)/2, (minY+maxY)/2

	// Working copy with the super triangle appended at n, n+1, n+2.
	pts := make([]Point, n, n+3)
	copy(pts, points)
	pts = append(pts,
		Point{midX - 20*d, midY - d},
		Point{midX, midY + 20*d},
		Point{midX + 20*d, midY - d},
	)

	tris := []tri{makeTri(pts, n, n+1, n+2)}
	seen := make(map[Point]struct{}, n)

	for i := 0; i < n; i++ {
		p := pts[i]
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}

		// Triangles whose circumcircle contains p form the cavity.
		counts := make(map[edge]int)
		var order []edge
		kept := tris[:0]
		var bad []tri
		for _, t := range tris {
			dx, dy := p.X-t.cx, p.Y-t.cy
			if dx*dx+dy*dy < t.r2 {
				bad = append(bad, t)
				continue
			}
			kept = append(kept, t)
		}
		for _, t := range bad {
			for k := 0; k < 3; k++ {
				e := key(t.v[k], t.v[(k+1)%3])
				if counts[e] == 0 {
					order = append(order, e)
				}
				counts[e]++
			}
		}
		tris = kept

		// Re-fan the cavity boundary to p.
		for _, e := range order {
			if counts[e] != 1 {
				continue
			}
			tris = append(tris, makeTri(pts, e[0], e[1], i))
		}
	}

	out := make([]Triangle, 0, len(tris))
	for _, t := range tris {
		if t.v[0] >= n || t.v[1] >= n || t.v[2] >= n {
			continue
		}
		if orient(pts[t.v[0]], pts[t.v[1]], pts[t.v[2]]) == 0 {
			continue
		}
		out = append(out, Triangle(t.v))
	}

	sort.Slice(out, func(a, b int) bool {
		for k := 0; k < 3; k++ {
			if out[a][k] != out[b][k] {
				return out[a][k] < out[b][k]
			}
		}
		return false
	})
	return out
}

// makeTri builds a counter-clockwise triangle with its circumcircle.
// Degenerate triangles get an infinite circle so the next insertion
// removes them.
func makeTri(pts []Point, a, b, c int) tri {
	if orient(pts[a], pts[b], pts[c]) < 0 {
		b, c = c, b
	}
	// Rotate so the smallest index leads; keeps output stable.
	v := [3]int{a, b, c}
	for v[0] > v[1] || v[0] > v[2] {
		v = [3]int{v[1], v[2], v[0]}
	}

	pa, pb, pc := pts[v[0]], pts[v[1]], pts[v[2]]
	bx, by := pb.X-pa.X, pb.Y-pa.Y
	cx, cy := pc.X-pa.X, pc.Y-pa.Y
	det := 2 * (bx*cy - by*cx)
	if math.Abs(det) < 1e-18 {
		return tri{v: v, r2: math.Inf(1)}
	}
	b2 := bx*bx + by*by
	c2 := cx*cx + cy*cy
	ux := (cy*b2 - by*c2) / det
	uy := (bx*c2 - cx*b2) / det
	return tri{v: v, cx: pa.X + ux, cy: pa.Y + uy, r2: ux*ux + uy*uy}
}

// orient returns >0 for counter-clockwise, <0 for clockwise, 0 if collinear.
func orient(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

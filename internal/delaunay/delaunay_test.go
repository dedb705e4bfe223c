package delaunay

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriangulateSquare(t *testing.T) {
	pts := []Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	tris := Triangulate(pts)
	require.Len(t, tris, 2)
	for _, tr := range tris {
		assert.Greater(t, orient(pts[tr[0]], pts[tr[1]], pts[tr[2]]), 0.0)
	}
}

func TestTriangulateDegenerate(t *testing.T) {
	assert.Empty(t, Triangulate(nil))
	assert.Empty(t, Triangulate([]Point{{0, 0}, {1, 1}}))
	assert.Empty(t, Triangulate([]Point{{0, 0}, {1, 1}, {2, 2}, {3, 3}}))
	assert.Empty(t, Triangulate([]Point{{1, 1}, {1, 1}, {1, 1}}))
}

func TestTriangulateSkipsDuplicates(t *testing.T) {
	pts := []Point{{0, 0}, {1, 0}, {0, 1}, {1, 0}}
	tris := Triangulate(pts)
	require.Len(t, tris, 1)
	for _, idx := range tris[0] {
		assert.NotEqual(t, 3, idx)
	}
}

func TestTriangulateEmptyCircumcircle(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	pts := make([]Point, 60)
	for i := range pts {
		pts[i] = Point{rng.Float64(), rng.Float64()}
	}
	tris := Triangulate(pts)
	require.NotEmpty(t, tris)

	// Euler: a triangulation of n points with h hull vertices has 2n-2-h
	// triangles, so the count is bounded by 2n-5.
	assert.LessOrEqual(t, len(tris), 2*len(pts)-5)

	for _, tr := range tris {
		c := makeTri(pts, tr[0], tr[1], tr[2])
		for i, p := range pts {
			if i == tr[0] || i == tr[1] || i == tr[2] {
				continue
			}
			dx, dy := p.X-c.cx, p.Y-c.cy
			assert.GreaterOrEqual(t, dx*dx+dy*dy, c.r2*(1-1e-9), "point %d inside circumcircle of %v", i, tr)
		}
	}
}

func TestTriangulateDeterministic(t *testing.T) {
	pts := []Point{{0, 0}, {2, 0}, {1, 1.5}, {0.5, 0.4}, {1.7, 0.9}, {1, -1}}
	assert.Equal(t, Triangulate(pts), Triangulate(pts))
}

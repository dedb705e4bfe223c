package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"welltwin-renderer/internal/dataset"
)

func sparse() []dataset.SamplePoint {
	return []dataset.SamplePoint{
		{X: 0, Y: 0, Z: 0, Value: 0},
		{X: 1, Y: 0, Z: 0, Value: 10},
		{X: 0, Y: 1, Z: 0, Value: 5},
	}
}

func grid(n int, value func(i, j int) float64) []dataset.SamplePoint {
	var pts []dataset.SamplePoint
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			pts = append(pts, dataset.SamplePoint{
				X:     float64(i) / float64(n-1),
				Y:     float64(j) / float64(n-1),
				Z:     float64(i*j) / float64(n*n),
				Value: value(i, j),
			})
		}
	}
	return pts
}

func TestBuildResamplesSparseInput(t *testing.T) {
	m, err := Build(sparse(), DefaultOptions())
	require.NoError(t, err)
	require.NotZero(t, m.TriangleCount())
	assert.Zero(t, len(m.Positions)%3)
	assert.Len(t, m.Colors, len(m.Positions))

	// Resampled vertices come from the 301-point curve, not the 3 controls.
	distinct := map[dataset.SamplePoint]struct{}{}
	for _, p := range m.Points {
		distinct[p] = struct{}{}
	}
	assert.Greater(t, len(distinct), 3)
}

func TestBuildDeterministic(t *testing.T) {
	pts := grid(5, func(i, j int) float64 { return float64(i + j) })
	a, err := Build(pts, DefaultOptions())
	require.NoError(t, err)
	b, err := Build(pts, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, a.Positions, b.Positions)
	assert.Equal(t, a.Colors, b.Colors)
}

func TestBuildConstantField(t *testing.T) {
	pts := grid(4, func(int, int) float64 { return 42 })
	m, err := Build(pts, DefaultOptions())
	require.NoError(t, err)

	first := m.Colors[0]
	for _, c := range m.Colors {
		assert.Equal(t, first, c)
		for _, ch := range []float64{c.R, c.G, c.B} {
			assert.False(t, math.IsNaN(ch))
		}
	}
	assert.Equal(t, ValueColor(0, 1, 1, DefaultOptions()), first)
}

func TestBuildOffset(t *testing.T) {
	pts := grid(4, func(i, j int) float64 { return float64(i) })
	m, err := Build(pts, DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, -0.5, m.Bounds.Min[0], 1e-9)
	assert.InDelta(t, 0.5, m.Bounds.Max[0], 1e-9)
}

func TestBuildInsufficient(t *testing.T) {
	_, err := Build(sparse()[:2], DefaultOptions())
	assert.True(t, errors.Is(err, dataset.ErrInsufficientData))

	line := make([]dataset.SamplePoint, 12)
	for i := range line {
		line[i] = dataset.SamplePoint{X: float64(i), Y: float64(i)}
	}
	_, err = Build(line, DefaultOptions())
	assert.True(t, errors.Is(err, dataset.ErrInsufficientData))
}

func TestValueColorRange(t *testing.T) {
	opts := DefaultOptions()
	hot := ValueColor(10, 0, 10, opts)
	cold := ValueColor(0, 0, 10, opts)

	h, _, _ := hot.Hsl()
	assert.InDelta(t, 0, h, 1e-6)
	h, _, _ = cold.Hsl()
	assert.InDelta(t, 0.7*360, h, 1e-6)
	assert.Equal(t, 0.5, Normalize(3, 3, 3))
}

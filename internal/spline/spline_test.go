package spline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"welltwin-renderer/internal/dataset"
)

func TestInterpolateTwoControls(t *testing.T) {
	a := dataset.SamplePoint{X: 0, Y: 0, Z: 0, Value: 0}
	b := dataset.SamplePoint{X: 1, Y: 2, Z: 3, Value: 10}

	out, err := Interpolate([]dataset.SamplePoint{a, b}, 10)
	require.NoError(t, err)
	require.Len(t, out, 11)
	assert.Equal(t, a, out[0])
	assert.Equal(t, b, out[10])

	// Two controls give a straight segment with linear values.
	assert.InDelta(t, 0.5, out[5].X, 1e-9)
	assert.InDelta(t, 1.0, out[5].Y, 1e-9)
	assert.InDelta(t, 5.0, out[5].Value, 1e-9)
}

func TestInterpolatePassesThroughControls(t *testing.T) {
	ctl := []dataset.SamplePoint{
		{X: 0, Y: 0, Z: 0, Value: 0},
		{X: 1, Y: 0, Z: 0, Value: 10},
		{X: 0, Y: 1, Z: 0, Value: 5},
	}
	out, err := Interpolate(ctl, 300)
	require.NoError(t, err)
	require.Len(t, out, 301)

	mid := out[150]
	assert.InDelta(t, 1, mid.X, 1e-9)
	assert.InDelta(t, 0, mid.Y, 1e-9)
	assert.InDelta(t, 10, mid.Value, 1e-9)
}

func TestInterpolateInsufficient(t *testing.T) {
	_, err := Interpolate([]dataset.SamplePoint{{X: 1}}, 10)
	assert.True(t, errors.Is(err, dataset.ErrInsufficientData))

	_, err = Interpolate(nil, 10)
	assert.True(t, errors.Is(err, dataset.ErrInsufficientData))
}

func TestInterpolateMinimumCount(t *testing.T) {
	out, err := Interpolate([]dataset.SamplePoint{{X: 0}, {X: 1}}, 0)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

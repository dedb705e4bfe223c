package batch

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"welltwin-renderer/internal/dataset"
	"welltwin-renderer/internal/palette"
	"welltwin-renderer/internal/scene"
	"welltwin-renderer/internal/voxel"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func voxelScene() (*scene.Scene, *scene.Camera) {
	vs := []dataset.Voxel{
		{X: -95, Y: 35, Z: 100, Label: "Shale"},
		{X: -93, Y: 37, Z: 900, Label: "Sand"},
	}
	return scene.ComposeVoxels(voxel.Apply(vs, voxel.DefaultFilterRange()), palette.New([]string{"Sand", "Shale"}), scene.VoxelOptions{Aspect: 1})
}

func TestTurntableKeepsDistance(t *testing.T) {
	s, cam := voxelScene()
	jobs := Turntable("voxel", s, *cam, 4)
	require.Len(t, jobs, 4)

	r := cam.Position.Sub(cam.Target).Len()
	for i, j := range jobs {
		assert.Equal(t, i, j.Frame)
		assert.Equal(t, cam.Target, j.Camera.Target)
		assert.InDelta(t, r, j.Camera.Position.Sub(j.Camera.Target).Len(), 1e-9)
	}
	assert.InDelta(t, cam.Position[1], jobs[2].Camera.Position[1], 1e-9)
	assert.NotEqual(t, jobs[0].Camera.Position, jobs[1].Camera.Position)
	for k := 0; k < 3; k++ {
		assert.InDelta(t, cam.Position[k], jobs[0].Camera.Position[k], 1e-9)
	}
}

func TestRunWritesWebP(t *testing.T) {
	s, cam := voxelScene()
	out := t.TempDir()
	cfg := Config{OutputDir: out, Width: 48, Height: 32, Supersample: 2, Workers: 2}

	results := Run(context.Background(), cfg, Turntable("voxel", s, *cam, 3))
	require.Len(t, results, 3)
	for i, r := range results {
		require.True(t, r.Success, r.Error)
		assert.Equal(t, i, r.Frame)

		data, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(r.Image)))
		require.NoError(t, err)
		require.Greater(t, len(data), 12)
		assert.Equal(t, "RIFF", string(data[0:4]))
		assert.Equal(t, "WEBP", string(data[8:12]))
	}
	assert.Equal(t, "voxel/1.webp", results[1].Image)

	manifest := filepath.Join(out, "manifest.json")
	require.NoError(t, WriteManifest(manifest, results))
	raw, err := os.ReadFile(manifest)
	require.NoError(t, err)
	var entries []ManifestEntry
	require.NoError(t, json.Unmarshal(raw, &entries))
	require.Len(t, entries, 3)
	assert.Equal(t, 120.0, entries[1].AzimuthDeg)
}

func TestRunCancelled(t *testing.T) {
	s, cam := voxelScene()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := Run(ctx, Config{OutputDir: t.TempDir(), Width: 8, Height: 8, Workers: 1}, Turntable("voxel", s, *cam, 2))
	for _, r := range results {
		assert.False(t, r.Success)
		assert.Equal(t, context.Canceled.Error(), r.Error)
	}
}

func TestRunMissingScene(t *testing.T) {
	results := Run(context.Background(), Config{OutputDir: t.TempDir(), Width: 8, Height: 8}, []Job{{View: "surface"}})
	require.Len(t, results, 1)
	assert.Equal(t, "no scene", results[0].Error)

	manifest := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, WriteManifest(manifest, results))
	raw, err := os.ReadFile(manifest)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}

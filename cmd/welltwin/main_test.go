package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"welltwin-renderer/internal/config"
)

func TestInspectVoxels(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "voxels.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"voxels":[
		{"x":-95,"y":35,"z":100,"label":"Shale"},
		{"x":-94,"y":36,"z":200,"label":"Shale"},
		{"x":-80,"y":37,"z":300,"label":"Sand"}]}`), 0o644))

	t.Cleanup(func() { flags = config.Flags{} })
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"inspect", "--voxels", path})
	require.NoError(t, rootCmd.Execute())

	s := out.String()
	assert.Contains(t, s, "Count: 3")
	assert.Contains(t, s, "Shale")
	assert.Contains(t, s, "-> 2 kept")
}

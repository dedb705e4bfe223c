package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"welltwin-renderer/internal/dataset"
	"welltwin-renderer/internal/voxel"
)

// Config holds dataset sources and render settings.
type Config struct {
	// Sources. Relative paths resolve against BaseDir; URLs are kept.
	BaseDir string `json:"base_dir" yaml:"base_dir"`
	Surface string `json:"surface" yaml:"surface"`
	Voxels  string `json:"voxels" yaml:"voxels"`
	Path    string `json:"path" yaml:"path"`
	Basemap string `json:"basemap" yaml:"basemap"`

	APIBaseURL string `json:"api_base_url" yaml:"api_base_url"`
	OutputDir  string `json:"output_dir" yaml:"output_dir"`

	// Render settings
	Width       int `json:"width" yaml:"width"`
	Height      int `json:"height" yaml:"height"`
	Supersample int `json:"supersample" yaml:"supersample"`
	Workers     int `json:"workers" yaml:"workers"`
	Frames      int `json:"frames" yaml:"frames"` // turntable frames per view

	// Live viewer
	Listen string `json:"listen" yaml:"listen"`
	FPS    int    `json:"fps" yaml:"fps"`

	Filter voxel.FilterRange `json:"filter" yaml:"filter"`
}

// Default returns the settings used before any file or flag applies.
// Filter starts at the full slider extents so a file that sets only some
// of its fields keeps the rest.
func Default() Config {
	return Config{Filter: voxel.DefaultFilterRange()}
}

// Load reads a JSON or YAML config file, chosen by extension, over
// Default. When base_dir is unset, the file's directory is used.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if cfg.BaseDir == "" {
		cfg.BaseDir = filepath.Dir(path)
	}
	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	BaseDir   string
	Surface   string
	Voxels    string
	Path      string
	Basemap   string
	OutputDir string
	Listen    string
	Workers   int
	Frames    int
	Width     int
	Height    int
}

// Resolve applies flags and environment overrides, resolves relative
// paths against BaseDir and fills defaults. CLI flags take priority when
// non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&c.BaseDir, flags.BaseDir)
	override(&c.Surface, flags.Surface)
	override(&c.Voxels, flags.Voxels)
	override(&c.Path, flags.Path)
	override(&c.Basemap, flags.Basemap)
	override(&c.OutputDir, flags.OutputDir)
	override(&c.Listen, flags.Listen)
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Frames > 0 {
		c.Frames = flags.Frames
	}
	if flags.Width > 0 {
		c.Width = flags.Width
	}
	if flags.Height > 0 {
		c.Height = flags.Height
	}
	override(&c.APIBaseURL, os.Getenv("WELLTWIN_API_URL"))

	if c.BaseDir == "" {
		c.BaseDir, _ = os.Getwd()
	}
	for _, p := range []*string{&c.Surface, &c.Voxels, &c.Path, &c.Basemap} {
		*p = c.resolvePath(*p)
	}
	if c.OutputDir == "" {
		c.OutputDir = "renders"
	}
	c.OutputDir = c.resolvePath(c.OutputDir)

	if c.Width <= 0 {
		c.Width = 800
	}
	if c.Height <= 0 {
		c.Height = 600
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Frames <= 0 {
		c.Frames = 12
	}
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.FPS <= 0 {
		c.FPS = 30
	}
}

func (c *Config) resolvePath(p string) string {
	if p == "" || dataset.IsRemote(p) || filepath.IsAbs(p) || c.BaseDir == "" {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

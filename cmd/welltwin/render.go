package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"welltwin-renderer/internal/batch"
	"welltwin-renderer/internal/texture"
	"welltwin-renderer/internal/view"
)

var (
	renderViews   []string
	renderOutput  string
	renderFrames  int
	renderWorkers int
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render turntable WebP snapshots of each view",
	Long: `Loads the configured datasets, composes each requested view and renders
--frames evenly spaced orbits around it to <output>/<view>/<frame>.webp,
plus a manifest.json listing every written image.`,
	RunE: runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringSliceVar(&renderViews, "views", []string{"surface", "voxel"}, "Views to render: surface, voxel")
	f.StringVar(&renderOutput, "output", "", "Output directory (default: renders)")
	f.IntVar(&renderFrames, "frames", 0, "Turntable frames per view (default 12)")
	f.IntVar(&renderWorkers, "workers", 0, "Number of worker goroutines (default: NumCPU)")
}

func runRender(cmd *cobra.Command, args []string) error {
	flags.OutputDir = renderOutput
	flags.Frames = renderFrames
	flags.Workers = renderWorkers
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	tmpl := viewConfig(cfg, texture.NewCache())
	var jobs []batch.Job
	for _, name := range renderViews {
		kind, err := view.ParseKind(strings.TrimSpace(name))
		if err != nil {
			return err
		}
		vc := tmpl
		vc.Kind = kind
		v := view.New(vc)
		if err := v.Load(ctx); err != nil {
			// The placeholder scene is still rendered.
			logger.Warn("view has no data", zap.Stringer("view", kind), zap.Error(err))
		}
		s, cam := v.Snapshot()
		jobs = append(jobs, batch.Turntable(kind.String(), s, cam, cfg.Frames)...)
		v.Dispose()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Views: %s, Frames: %d, Workers: %d\n", strings.Join(renderViews, ","), len(jobs), cfg.Workers)
	fmt.Fprintf(out, "Output: %s\n", cfg.OutputDir)
	fmt.Fprintln(out, "------------------------------------------------------------")

	start := time.Now()
	results := batch.Run(ctx, batch.Config{
		OutputDir:   cfg.OutputDir,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Supersample: cfg.Supersample,
		Workers:     cfg.Workers,
		Logger:      logger,
	}, jobs)

	fmt.Fprintln(out, "------------------------------------------------------------")
	fmt.Fprintf(out, "Done in %.1fs\n", time.Since(start).Seconds())

	var failed []batch.Result
	for _, r := range results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	fmt.Fprintf(out, "Rendered: %d/%d\n", len(results)-len(failed), len(results))
	if len(failed) > 0 {
		fmt.Fprintf(out, "\nFailed (%d):\n", len(failed))
		for i, r := range failed {
			if i == 20 {
				fmt.Fprintf(out, "  ... and %d more\n", len(failed)-20)
				break
			}
			fmt.Fprintf(out, "  %s/%d: %s\n", r.View, r.Frame, r.Error)
		}
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	fmt.Fprintf(out, "Manifest: %s\n", manifestPath)

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d frames failed", len(failed), len(results))
	}
	return ctx.Err()
}

package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/spf13/cobra"

	"welltwin-renderer/internal/config"
	"welltwin-renderer/internal/dataset"
	"welltwin-renderer/internal/geometry"
	"welltwin-renderer/internal/voxel"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print dataset statistics",
	Long: `Fetches the configured surface and voxel datasets and prints point
counts, bounds, value range, triangle count, label histogram and how many
voxels pass the configured filter.`,
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	f := dataset.SourceFetcher{}

	if cfg.Surface == "" && cfg.Voxels == "" {
		return errors.New("nothing to inspect: set --surface or --voxels")
	}
	if cfg.Surface != "" {
		pts, err := dataset.FetchSamples(cmd.Context(), f, cfg.Surface)
		if err != nil {
			return err
		}
		printSurface(out, cfg.Surface, pts)
	}
	if cfg.Voxels != "" {
		vs, err := dataset.FetchVoxels(cmd.Context(), f, cfg.Voxels)
		if err != nil {
			return err
		}
		printVoxels(out, cfg, vs)
	}
	return nil
}

func printSurface(out io.Writer, source string, pts []dataset.SamplePoint) {
	fmt.Fprintf(out, "Surface: %s\n", source)
	fmt.Fprintf(out, "  Points: %d\n", len(pts))
	if len(pts) == 0 {
		return
	}
	minX, minY, minZ, minV := math.Inf(1), math.Inf(1), math.Inf(1), math.Inf(1)
	maxX, maxY, maxZ, maxV := math.Inf(-1), math.Inf(-1), math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		minZ, maxZ = math.Min(minZ, p.Z), math.Max(maxZ, p.Z)
		minV, maxV = math.Min(minV, p.Value), math.Max(maxV, p.Value)
	}
	fmt.Fprintf(out, "  BBox: X[%.3f, %.3f] Y[%.3f, %.3f] Z[%.3f, %.3f]\n", minX, maxX, minY, maxY, minZ, maxZ)
	fmt.Fprintf(out, "  Value: [%.3f, %.3f]\n", minV, maxV)

	mesh, err := geometry.Build(pts, geometry.DefaultOptions())
	if err != nil {
		fmt.Fprintf(out, "  Mesh: %v\n", err)
		return
	}
	fmt.Fprintf(out, "  Mesh: %d triangles from %d points\n", mesh.TriangleCount(), countDistinct(mesh.Points))
}

func countDistinct(pts []dataset.SamplePoint) int {
	seen := make(map[dataset.SamplePoint]struct{}, len(pts))
	for _, p := range pts {
		seen[p] = struct{}{}
	}
	return len(seen)
}

func printVoxels(out io.Writer, cfg config.Config, vs []dataset.Voxel) {
	fmt.Fprintf(out, "Voxels: %s\n", cfg.Voxels)
	fmt.Fprintf(out, "  Count: %d\n", len(vs))

	counts := make(map[string]int)
	for _, v := range vs {
		counts[v.Label]++
	}
	labels := voxel.Labels(vs)
	sort.Strings(labels)
	for _, l := range labels {
		fmt.Fprintf(out, "  %-20s %d\n", l, counts[l])
	}

	r := cfg.Filter
	kept := voxel.Filter(vs, r)
	fmt.Fprintf(out, "  Filter: depth[%g, %g] lat[%g, %g] long[%g, %g] label=%q -> %d kept\n",
		r.Depth.Min, r.Depth.Max, r.Lat.Min, r.Lat.Max, r.Long.Min, r.Long.Max, r.Label, len(kept))
}

// Package voxel filters labeled voxels by range and rescales the survivors
// into a fixed display cube.
package voxel

import (
	"math"

	"welltwin-renderer/internal/dataset"
	"welltwin-renderer/internal/mathutil"
	"welltwin-renderer/internal/palette"
)

// ShowAll disables the label predicate. The empty label does the same.
const ShowAll = "All"

// BoxSize is the edge length of the display cube.
const BoxSize = 100.0

// Range is an inclusive [Min, Max] interval.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Contains reports whether v lies in the interval.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// FilterRange selects voxels by depth (Z), latitude (Y), longitude (X) and
// optionally an exact label.
type FilterRange struct {
	Depth Range  `json:"depth" yaml:"depth"`
	Lat   Range  `json:"lat" yaml:"lat"`
	Long  Range  `json:"long" yaml:"long"`
	Label string `json:"label" yaml:"label"`
}

// DefaultFilterRange covers the full slider extents of the viewer.
func DefaultFilterRange() FilterRange {
	return FilterRange{
		Depth: Range{Min: 0, Max: 15000},
		Lat:   Range{Min: 30, Max: 40},
		Long:  Range{Min: -100, Max: -90},
		Label: ShowAll,
	}
}

// Match reports whether v satisfies every predicate of r.
func (r FilterRange) Match(v dataset.Voxel) bool {
	if !r.Depth.Contains(v.Z) || !r.Lat.Contains(v.Y) || !r.Long.Contains(v.X) {
		return false
	}
	if r.Label == "" || r.Label == ShowAll {
		return true
	}
	return v.Label == r.Label
}

// Filter returns the voxels matching r in their original order. The input
// is not modified.
func Filter(vs []dataset.Voxel, r FilterRange) []dataset.Voxel {
	out := make([]dataset.Voxel, 0, len(vs))
	for _, v := range vs {
		if r.Match(v) {
			out = append(out, v)
		}
	}
	return out
}

// Scaled is a voxel placed inside the display cube.
type Scaled struct {
	dataset.Voxel
	Pos mathutil.Vec3
}

// Rescale maps each axis independently onto [0, size] by min-max over vs.
// An axis with no spread divides by 1, which puts every voxel at 0.
func Rescale(vs []dataset.Voxel, size float64) []Scaled {
	if len(vs) == 0 {
		return nil
	}
	lo := mathutil.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := mathutil.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, v := range vs {
		p := mathutil.Vec3{v.X, v.Y, v.Z}
		lo = lo.Min(p)
		hi = hi.Max(p)
	}
	span := hi.Sub(lo)
	for k := range span {
		if span[k] == 0 {
			span[k] = 1
		}
	}

	out := make([]Scaled, len(vs))
	for i, v := range vs {
		p := mathutil.Vec3{v.X, v.Y, v.Z}
		var s mathutil.Vec3
		for k := 0; k < 3; k++ {
			s[k] = (p[k] - lo[k]) / span[k] * size
		}
		out[i] = Scaled{Voxel: v, Pos: s}
	}
	return out
}

// Apply filters then rescales into the default cube.
func Apply(vs []dataset.Voxel, r FilterRange) []Scaled {
	return Rescale(Filter(vs, r), BoxSize)
}

// Labels returns the distinct labels in first-seen order.
func Labels(vs []dataset.Voxel) []string {
	labels := make([]string, len(vs))
	for i, v := range vs {
		labels[i] = v.Label
	}
	return palette.Distinct(labels)
}

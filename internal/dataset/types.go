// Package dataset holds the point and voxel records consumed by the
// visualization pipeline and the fetch/decode path that produces them.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInsufficientData is returned when a stage receives fewer points than
// it needs (interpolation, triangulation).
var ErrInsufficientData = errors.New("insufficient data")

// ErrTooLarge is returned when a remote dataset exceeds the download limit.
var ErrTooLarge = errors.New("dataset too large")

// SamplePoint is a measured location plus a scalar such as cumulative oil.
type SamplePoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Value float64 `json:"value"`
}

// UnmarshalJSON accepts the legacy "cumoil" key when "value" is absent.
func (p *SamplePoint) UnmarshalJSON(data []byte) error {
	var raw struct {
		X      float64  `json:"x"`
		Y      float64  `json:"y"`
		Z      float64  `json:"z"`
		Value  *float64 `json:"value"`
		CumOil *float64 `json:"cumoil"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.X, p.Y, p.Z = raw.X, raw.Y, raw.Z
	switch {
	case raw.Value != nil:
		p.Value = *raw.Value
	case raw.CumOil != nil:
		p.Value = *raw.CumOil
	default:
		p.Value = 0
	}
	return nil
}

// Voxel is a labeled geological cell. X is longitude, Y latitude, Z depth.
type Voxel struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Label string  `json:"label"`
}

// VoxelFile is the on-disk voxel export: {"voxels": [...]}.
type VoxelFile struct {
	Voxels []Voxel `json:"voxels"`
}

// FetchError wraps any failure retrieving or parsing a dataset. It is
// surfaced by leaving the view empty and is never retried.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("dataset: fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

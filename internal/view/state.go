package view

import (
	"fmt"

	"welltwin-renderer/internal/loop"
	"welltwin-renderer/internal/scene"
	"welltwin-renderer/internal/voxel"
)

// Kind selects which dataset a view renders.
type Kind int

const (
	Surface Kind = iota
	Voxels
)

func (k Kind) String() string {
	if k == Voxels {
		return "voxel"
	}
	return "surface"
}

// ParseKind accepts "surface" and "voxel".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "surface", "":
		return Surface, nil
	case "voxel", "voxels":
		return Voxels, nil
	}
	return Surface, fmt.Errorf("view: unknown kind %q", s)
}

// State is the mutable per-view widget state. It belongs to one View and
// is reset when the view is mounted again.
type State struct {
	Filter   voxel.FilterRange
	Controls *scene.OrbitControls

	pointer      loop.PointerEvent
	pointerDirty bool
	hover        *scene.Hit
}

// Reset restores the filter defaults and forgets camera and pointer state.
func (s *State) Reset(filter voxel.FilterRange) {
	*s = State{Filter: filter}
}

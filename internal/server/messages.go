package server

import (
	"encoding/json"

	"welltwin-renderer/internal/dataset"
	"welltwin-renderer/internal/scene"
	"welltwin-renderer/internal/voxel"
)

// clientMessage is any JSON message a viewer sends. Type selects which
// fields are meaningful.
type clientMessage struct {
	Type string `json:"type"`

	// pointer
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Inside bool    `json:"inside"`

	// orbit
	DTheta float64 `json:"dTheta"`
	DPhi   float64 `json:"dPhi"`

	// zoom
	Factor float64 `json:"factor"`

	// filter: decoded over the view's current filter, so omitted fields
	// keep their values.
	Filter json.RawMessage `json:"filter,omitempty"`

	// optimize
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Text messages sent to the viewer. Rendered frames go out as binary WebP
// messages.
type hoverMessage struct {
	Type string     `json:"type"`
	Hit  *scene.Hit `json:"hit"`
}

type labelsMessage struct {
	Type   string            `json:"type"`
	Labels []string          `json:"labels"`
	Filter voxel.FilterRange `json:"filter"`
}

type pathMessage struct {
	Type string                `json:"type"`
	Path []dataset.SamplePoint `json:"path"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

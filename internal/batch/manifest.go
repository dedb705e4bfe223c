package batch

import (
	"encoding/json"
	"math"
	"os"
)

// ManifestEntry represents one rendered frame in the output manifest.
type ManifestEntry struct {
	View       string  `json:"view"`
	Frame      int     `json:"frame"`
	AzimuthDeg float64 `json:"azimuth_deg"`
	Image      string  `json:"image"`
}

// WriteManifest writes the successful results to path as JSON.
func WriteManifest(path string, results []Result) error {
	entries := make([]ManifestEntry, 0, len(results))
	for _, r := range results {
		if !r.Success {
			continue
		}
		entries = append(entries, ManifestEntry{
			View:       r.View,
			Frame:      r.Frame,
			AzimuthDeg: math.Round(r.Azimuth*180/math.Pi*100) / 100,
			Image:      r.Image,
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

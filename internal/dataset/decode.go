package dataset

import (
	"encoding/json"
	"fmt"
	"io"
)

// DecodeSamples parses a JSON array of {x,y,z,value} objects.
func DecodeSamples(r io.Reader) ([]SamplePoint, error) {
	var pts []SamplePoint
	if err := json.NewDecoder(r).Decode(&pts); err != nil {
		return nil, fmt.Errorf("dataset: decode samples: %w", err)
	}
	return pts, nil
}

// DecodeVoxels parses a {"voxels": [...]} document. A missing key yields an
// empty list, matching exports that carry no cells.
func DecodeVoxels(r io.Reader) ([]Voxel, error) {
	var f VoxelFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("dataset: decode voxels: %w", err)
	}
	return f.Voxels, nil
}

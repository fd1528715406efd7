package puzzle

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Serialization helpers for converting between records and Redis hashes
//
// Redis stores hashes as string-to-string maps. The matrix and color map are
// JSON-encoded into single fields; the identifier and dimensions stay plain so
// they remain readable from redis-cli.

// RecordToHash converts a Record to a Redis hash.
func RecordToHash(r *Record) (map[string]interface{}, error) {
	matrixJSON, err := json.Marshal(r.Matrix)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal matrix: %w", err)
	}

	colorMap := r.ColorMap
	if colorMap == nil {
		colorMap = ColorMap{}
	}
	colorMapJSON, err := json.Marshal(colorMap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal color map: %w", err)
	}

	rows, cols := r.Matrix.Size()
	return map[string]interface{}{
		"id":        r.ID,
		"rows":      rows,
		"cols":      cols,
		"matrix":    string(matrixJSON),
		"color_map": string(colorMapJSON),
	}, nil
}

// HashToRecord converts a Redis hash back to a Record.
func HashToRecord(hash map[string]string) (*Record, error) {
	id, err := strconv.Atoi(hash["id"])
	if err != nil {
		return nil, fmt.Errorf("invalid id field: %w", err)
	}

	var matrix Matrix
	if raw := hash["matrix"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &matrix); err != nil {
			return nil, fmt.Errorf("failed to unmarshal matrix: %w", err)
		}
	}
	if matrix == nil {
		matrix = Matrix{}
	}

	colorMap := ColorMap{}
	if raw := hash["color_map"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &colorMap); err != nil {
			return nil, fmt.Errorf("failed to unmarshal color_map: %w", err)
		}
	}

	return &Record{ID: id, Matrix: matrix, ColorMap: colorMap}, nil
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"layerkbd/layer"
)

// LoadMatrix reads and validates a matrix.json file, mapping stringified
// event codes to [row, col] pairs, and builds the engine's StateMatrix
// from it.
func LoadMatrix(path string) (*layer.StateMatrix, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	if err := validateAgainstSchema("matrix.schema.json", raw); err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	var fields map[string][2]int
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &Error{Path: path, Err: fmt.Errorf("parsing matrix: %w", err)}
	}

	codeToPos := make(map[uint16]layer.RowCol, len(fields))
	rows, cols := 0, 0
	for codeStr, rc := range fields {
		code, err := strconv.ParseUint(codeStr, 10, 16)
		if err != nil {
			return nil, &Error{Path: path, Err: fmt.Errorf("event code %q is not a uint16: %w", codeStr, err)}
		}
		row, col := rc[0], rc[1]
		codeToPos[uint16(code)] = layer.RowCol{Row: row, Col: col}
		if row+1 > rows {
			rows = row + 1
		}
		if col+1 > cols {
			cols = col + 1
		}
	}

	return layer.NewStateMatrix(rows, cols, codeToPos), nil
}

package config

import (
	"path/filepath"
	"testing"
)

func TestLoadMatrix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "matrix.json")
	writeFile(t, path, `{"30": [0, 0], "57": [0, 1]}`)

	m, err := LoadMatrix(path)
	if err != nil {
		t.Fatalf("LoadMatrix: %v", err)
	}
	rows, cols := m.Dim()
	if rows != 1 || cols != 2 {
		t.Fatalf("Dim() = (%d,%d), want (1,2)", rows, cols)
	}
	if _, ok := m.Apply(30, true); !ok {
		t.Fatalf("expected code 30 to map into the matrix")
	}
}

func TestLoadMatrixRejectsSchemaViolation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "matrix.json")
	writeFile(t, path, `{"30": [0, 0, 0]}`)

	if _, err := LoadMatrix(path); err == nil {
		t.Fatalf("expected a schema validation error for a 3-element position")
	}
}

// Package config loads and validates the two JSON files that describe a
// keyboard's geometry and behavior (matrix.json, layers.json) and the
// TOML file that describes the driver harness's own settings
// (layerkbd.conf). None of this runs at dispatch time: every error here
// is a configuration error the driver reports before it ever opens a
// device.
package config

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/matrix.schema.json schema/layers.schema.json
var schemaFS embed.FS

// Error wraps a configuration failure with the file it came from.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("config: %s: %v", e.Path, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

func compileSchema(name string) (*jsonschema.Schema, error) {
	data, err := schemaFS.ReadFile("schema/" + name)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return compiler.Compile(name)
}

func validateAgainstSchema(schemaName string, raw []byte) error {
	schema, err := compileSchema(schemaName)
	if err != nil {
		return fmt.Errorf("compiling embedded schema %s: %w", schemaName, err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}

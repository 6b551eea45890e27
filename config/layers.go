package config

import (
	"encoding/json"
	"fmt"
	"os"

	"layerkbd/layer"
	"layerkbd/scancodes"
)

const maxCompositeDepth = 8

// defaultHoldMs is used when a layer config's LT entry omits hold_ms.
// SpaceCadet has no hold timer, so it never reads hold_ms.
const defaultHoldMs = 200

type layerDoc struct {
	Name    string            `json:"name"`
	Enabled bool              `json:"enabled"`
	Keys    [][]json.RawMessage `json:"keys"`
}

// ExecRunner is the callback an Exec key-kind fires on press. It is
// supplied by the caller (normally shellexec.Runner.Run) rather than
// imported directly, so config has no dependency on how commands run.
type ExecRunner func(command string, args []string)

// LoadLayers reads and validates a layers.json file and builds the
// engine's LayerStack from it. rows/cols come from the already-loaded
// matrix: every layer's grid must match them exactly, or the config is
// rejected before the driver ever opens a device. run is wired into
// every Exec token found; pass nil if the deployment never binds Exec
// (any Exec token is then rejected at load for lacking a runner to fire
// its command).
func LoadLayers(path string, rows, cols int, run ExecRunner) (*layer.LayerStack, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	if err := validateAgainstSchema("layers.schema.json", raw); err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	var docs []layerDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, &Error{Path: path, Err: fmt.Errorf("parsing layers: %w", err)}
	}
	if len(docs) == 0 {
		return nil, &Error{Path: path, Err: fmt.Errorf("layers.json must define at least one layer")}
	}

	layers := make([]*layer.Layer, 0, len(docs))
	for id, doc := range docs {
		if len(doc.Keys) != rows {
			return nil, &Error{Path: path, Err: fmt.Errorf("layer %q has %d rows, matrix has %d", doc.Name, len(doc.Keys), rows)}
		}
		grid := make([][]layer.KeyCode, len(doc.Keys))
		for r, row := range doc.Keys {
			if len(row) != cols {
				return nil, &Error{Path: path, Err: fmt.Errorf("layer %q row %d has %d columns, matrix has %d", doc.Name, r, len(row), cols)}
			}
			grid[r] = make([]layer.KeyCode, len(row))
			for c, tok := range row {
				code, err := decodeKeyCode(tok, run, 0)
				if err != nil {
					return nil, &Error{Path: path, Err: fmt.Errorf("layer %q, cell (%d,%d): %w", doc.Name, r, c, err)}
				}
				grid[r][c] = code
			}
		}
		enabled := doc.Enabled
		if id == 0 {
			enabled = true // the bottom layer is always enabled
		}
		layers = append(layers, layer.NewLayer(id, doc.Name, grid, enabled))
	}

	if hasTransparentCell(layers[0]) {
		return nil, &Error{Path: path, Err: fmt.Errorf("layer 0 (%q) may not contain a Transparent cell", layers[0].Name)}
	}

	return layer.NewLayerStack(layers), nil
}

func hasTransparentCell(l *layer.Layer) bool {
	for _, row := range l.Grid {
		for _, c := range row {
			if c != nil && c.IsTransparent() {
				return true
			}
		}
	}
	return false
}

// decodeKeyCode turns one JSON KeyCode token (a string or a structured
// object) into a layer.KeyCode, recursing into composite forms and
// rejecting overdepth nesting at load time.
func decodeKeyCode(tok json.RawMessage, run ExecRunner, depth int) (layer.KeyCode, error) {
	if depth > maxCompositeDepth {
		return nil, fmt.Errorf("composite key-kind nesting exceeds depth %d", maxCompositeDepth)
	}

	var asString string
	if err := json.Unmarshal(tok, &asString); err == nil {
		return decodeStringToken(asString)
	}

	var obj struct {
		Kind    string            `json:"kind"`
		Layer   int               `json:"layer"`
		Tap     json.RawMessage   `json:"tap"`
		Hold    json.RawMessage   `json:"hold"`
		HoldMs  *int              `json:"hold_ms"`
		Outer   json.RawMessage   `json:"outer"`
		Inner   json.RawMessage   `json:"inner"`
		Seq     []json.RawMessage `json:"seq"`
		Command string            `json:"command"`
		Args    []string          `json:"args"`
	}
	if err := json.Unmarshal(tok, &obj); err != nil {
		return nil, fmt.Errorf("not a valid KeyCode token: %w", err)
	}

	switch obj.Kind {
	case "TG":
		return &layer.TG{LayerID: obj.Layer}, nil
	case "AL":
		return &layer.AL{LayerID: obj.Layer}, nil
	case "MO":
		return &layer.MO{LayerID: obj.Layer}, nil
	case "OSL":
		return &layer.OSL{LayerID: obj.Layer}, nil
	case "Wrap":
		outer, err := decodeRegularOnly(obj.Outer, depth)
		if err != nil {
			return nil, fmt.Errorf("Wrap.outer: %w", err)
		}
		inner, err := decodeRegularOnly(obj.Inner, depth)
		if err != nil {
			return nil, fmt.Errorf("Wrap.inner: %w", err)
		}
		return &layer.Wrap{Outer: outer, Inner: inner}, nil
	case "LT":
		tap, err := decodeRegularOnly(obj.Tap, depth)
		if err != nil {
			return nil, fmt.Errorf("LT.tap: %w", err)
		}
		holdMs := defaultHoldMs
		if obj.HoldMs != nil {
			holdMs = *obj.HoldMs
		}
		return &layer.LT{LayerID: obj.Layer, Tap: tap, HoldMs: holdMs}, nil
	case "SpaceCadet":
		tap, err := decodeKeyCode(obj.Tap, run, depth+1)
		if err != nil {
			return nil, fmt.Errorf("SpaceCadet.tap: %w", err)
		}
		hold, err := decodeKeyCode(obj.Hold, run, depth+1)
		if err != nil {
			return nil, fmt.Errorf("SpaceCadet.hold: %w", err)
		}
		return &layer.SpaceCadet{TapKey: tap, HoldKey: hold}, nil
	case "Macro":
		seq := make([]uint16, len(obj.Seq))
		for i, tok := range obj.Seq {
			code, err := decodeRegularOnly(tok, depth)
			if err != nil {
				return nil, fmt.Errorf("Macro.seq[%d]: %w", i, err)
			}
			seq[i] = code
		}
		return &layer.Macro{Seq: seq}, nil
	case "Exec":
		if obj.Command == "" {
			return nil, fmt.Errorf("Exec.command must not be empty")
		}
		if run == nil {
			return nil, fmt.Errorf("Exec has no runner to fire its command")
		}
		return &layer.Exec{Command: obj.Command, Args: obj.Args, Run: run}, nil
	default:
		return nil, fmt.Errorf("unknown key-kind tag %q", obj.Kind)
	}
}

// decodeRegularOnly decodes a token that must resolve to a Regular code
// (Wrap's outer/inner, LT's tap, Macro's sequence) and unwraps it to the
// raw uint16, rejecting any composite misuse at load time.
func decodeRegularOnly(tok json.RawMessage, depth int) (uint16, error) {
	code, err := decodeKeyCode(tok, nil, depth+1)
	if err != nil {
		return 0, err
	}
	reg, ok := code.(*layer.Regular)
	if !ok {
		return 0, fmt.Errorf("expected a regular key code, got a composite key-kind")
	}
	return reg.Code, nil
}

func decodeStringToken(s string) (layer.KeyCode, error) {
	switch {
	case isAllRune(s, '_'):
		return layer.Transparent, nil
	case isAllRune(s, 'X'):
		return layer.Opaque, nil
	default:
		code, err := scancodes.Code(s)
		if err != nil {
			return nil, err
		}
		return &layer.Regular{Code: code}, nil
	}
}

func isAllRune(s string, r rune) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c != r {
			return false
		}
	}
	return true
}

// Package scancodes resolves between Linux evdev KEY_* names and the
// numeric codes the engine and the physical devices exchange. Nothing in
// layer/ imports this package: it exists for config files (which name keys
// by string) and for logging (which wants names back out of uint16s).
package scancodes

import (
	"fmt"
	"strings"
)

var codeToName map[uint16]string
var foldedAliases map[string]string

func init() {
	codeToName = make(map[uint16]string, len(nameToCode))
	for name, code := range nameToCode {
		codeToName[code] = name
	}
	foldedAliases = make(map[string]string, len(aliases))
	for alias, canon := range aliases {
		foldedAliases[strings.ToUpper(alias)] = canon
	}
}

// Code resolves a key name (a canonical KEY_* name, or one of the short
// aliases, case-insensitively) to its evdev code.
func Code(name string) (uint16, error) {
	if canon, ok := foldedAliases[strings.ToUpper(name)]; ok {
		name = canon
	}
	// Config files write keys QMK-style ("KC_A"); normalize onto the
	// kernel's own KEY_* spelling before the table lookup.
	name = strings.TrimPrefix(name, "KC_")
	if !strings.HasPrefix(name, "KEY_") {
		name = "KEY_" + strings.ToUpper(name)
	}
	code, ok := nameToCode[name]
	if !ok {
		return 0, fmt.Errorf("scancodes: unknown key name %q", name)
	}
	return code, nil
}

// Name returns the canonical KEY_* name for a code, or a numeric
// placeholder ("KEY_0x<hex>") if the code isn't in the table. Name never
// fails: it backs log lines for codes the engine passes through without
// ever resolving a name for them.
func Name(code uint16) string {
	if name, ok := codeToName[code]; ok {
		return name
	}
	return fmt.Sprintf("KEY_0x%x", code)
}

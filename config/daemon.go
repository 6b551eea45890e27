package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/pelletier/go-toml"
)

// ScanDevices controls which evdev nodes the input collaborator opens,
// mirroring xswitcher's TScanDevices ([ScanDevices] TOML section).
type ScanDevices struct {
	Search  string `toml:"search"`
	Bypass  string `toml:"bypass"`
	Respawn int    `toml:"respawn"`

	BypassRE *regexp.Regexp `toml:"-"`
}

// Daemon is the driver harness's own settings, layered on top of the
// engine-level matrix.json/layers.json: everything cmd/layerkbd needs
// besides the engine's own config.
type Daemon struct {
	ScanDevices ScanDevices `toml:"ScanDevices"`
	LogFormat   string      `toml:"log_format"`
	LogLevel    string      `toml:"log_level"`
}

// DefaultDaemon matches what a freshly-installed layerkbd.conf would
// produce if every key were omitted.
func DefaultDaemon() Daemon {
	return Daemon{
		ScanDevices: ScanDevices{Search: "*", Bypass: "(?i)video|camera|webcam", Respawn: 2},
		LogFormat:   "text",
		LogLevel:    "info",
	}
}

// LoadDaemon parses a TOML daemon config file, falling back to
// DefaultDaemon for any field the file omits.
func LoadDaemon(path string) (Daemon, error) {
	d := DefaultDaemon()

	raw, err := os.ReadFile(path)
	if err != nil {
		return d, &Error{Path: path, Err: err}
	}
	if err := toml.Unmarshal(raw, &d); err != nil {
		return d, &Error{Path: path, Err: fmt.Errorf("parsing TOML: %w", err)}
	}

	re, err := regexp.Compile(d.ScanDevices.Bypass)
	if err != nil {
		return d, &Error{Path: path, Err: fmt.Errorf("ScanDevices.bypass is not a valid regexp: %w", err)}
	}
	d.ScanDevices.BypassRE = re

	return d, nil
}

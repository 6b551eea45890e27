package config

import (
	"path/filepath"
	"testing"
)

func TestLoadDaemonDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layerkbd.conf")
	writeFile(t, path, "")

	d, err := LoadDaemon(path)
	if err != nil {
		t.Fatalf("LoadDaemon: %v", err)
	}
	if d.ScanDevices.Search != "*" {
		t.Errorf("expected the default device search glob to survive an empty file")
	}
	if d.ScanDevices.BypassRE == nil || !d.ScanDevices.BypassRE.MatchString("HD Webcam") {
		t.Errorf("expected the default bypass regex to match a camera device name")
	}
}

func TestLoadDaemonOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layerkbd.conf")
	writeFile(t, path, `
log_level = "debug"

[ScanDevices]
search = "/dev/input/event*"
bypass = "mouse"
respawn = 5
`)

	d, err := LoadDaemon(path)
	if err != nil {
		t.Fatalf("LoadDaemon: %v", err)
	}
	if d.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", d.LogLevel)
	}
	if d.ScanDevices.Respawn != 5 {
		t.Errorf("ScanDevices.Respawn = %d, want 5", d.ScanDevices.Respawn)
	}
	if !d.ScanDevices.BypassRE.MatchString("Logitech mouse") {
		t.Errorf("expected the overridden bypass regex to take effect")
	}
}

func TestLoadDaemonRejectsBadRegexp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layerkbd.conf")
	writeFile(t, path, "[ScanDevices]\nbypass = \"(unterminated\"\n")

	if _, err := LoadDaemon(path); err == nil {
		t.Fatalf("expected an invalid bypass regexp to be rejected at load")
	}
}

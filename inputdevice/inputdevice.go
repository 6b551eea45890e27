// Package inputdevice enumerates and grabs physical keyboards through
// evdev, and decodes their raw key reports into the (code, down) edges
// the layer engine consumes.
package inputdevice

import (
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	evdev "github.com/gvalkov/golang-evdev"
)

// Event is one decoded key report. It carries no timestamp; the driver
// loop stamps each event as it receives it.
type Event struct {
	Code uint16
	Down bool
}

// Device wraps a single grabbed evdev keyboard and streams its decoded
// key events on Events.
type Device struct {
	Name    string
	Events  chan Event
	raw     *evdev.InputDevice
	log     *slog.Logger
}

// Scan lists every evdev device node matching the search glob whose name
// does not match bypass, keeping only ones that report EV_KEY: mice and other
// non-keyboard devices are skipped, the same filter xswitcher's
// connectEvents used.
func Scan(search string, bypass *regexp.Regexp, log *slog.Logger) ([]*Device, error) {
	all, err := evdev.ListInputDevices(search)
	if err != nil {
		return nil, fmt.Errorf("inputdevice: listing devices: %w", err)
	}

	var devices []*Device
	for _, raw := range all {
		if bypass != nil && bypass.MatchString(raw.Name) {
			continue
		}
		isKeyboard := false
		for ev := range raw.Capabilities {
			if ev.Type == evdev.EV_KEY {
				isKeyboard = true
				break
			}
		}
		if !isKeyboard {
			continue
		}
		devices = append(devices, &Device{
			Name:   raw.Name,
			Events: make(chan Event, 16),
			raw:    raw,
			log:    log,
		})
	}
	return devices, nil
}

// Open opens a single device node directly, bypassing Scan's name
// filtering. Used by cmd/matrixcollector, which is pointed at a specific
// device path rather than a search glob.
func Open(path string, log *slog.Logger) (*Device, error) {
	raw, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("inputdevice: opening %s: %w", path, err)
	}
	return &Device{Name: raw.Name, Events: make(chan Event, 16), raw: raw, log: log}, nil
}

// Grab takes exclusive control of the device: the kernel stops delivering
// its events to any other reader (X11, the console, another process)
// once this succeeds.
func (d *Device) Grab() error {
	return d.raw.Grab()
}

// Release gives the device back to the rest of the system.
func (d *Device) Release() error {
	return d.raw.Release()
}

// Run reads the device until it errors or closes, decoding EV_KEY
// reports onto Events. It should run in its own goroutine; it closes
// Events before returning.
func (d *Device) Run() {
	defer close(d.Events)
	for {
		event, err := d.raw.ReadOne()
		if err != nil {
			if d.log != nil {
				d.log.Info("inputdevice: device closed", "device", d.Name, "error", err)
			}
			return
		}
		if event.Type != evdev.EV_KEY {
			continue
		}
		// evdev reports 2 ("autorepeat") for held keys; the engine's
		// own edge detection already drops repeats, but there is no
		// reason to even enqueue them.
		if event.Value == 2 {
			continue
		}
		d.Events <- Event{Code: uint16(event.Code), Down: event.Value == 1}
	}
}

// Merge fans every device's Events into one channel, so the driver loop
// can select over a single case regardless of how many physical
// keyboards were grabbed.
func Merge(devices []*Device) <-chan Event {
	out := make(chan Event, 16)
	var wg sync.WaitGroup
	wg.Add(len(devices))
	for _, d := range devices {
		go func(d *Device) {
			defer wg.Done()
			for ev := range d.Events {
				out <- ev
			}
		}(d)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

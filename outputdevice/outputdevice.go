// Package outputdevice drives the virtual keyboard the engine's dispatch
// output is replayed onto, via a uinput-backed key-bonding device.
package outputdevice

import (
	"fmt"
	"time"

	"github.com/micmonay/keybd_event"

	"layerkbd/layer"
)

// Device is a virtual keyboard that the engine's OutputEvent stream is
// flushed onto, one key at a time. keybd_event models a key action as an
// atomic SetKeys-then-Press/Release pair rather than an independently
// addressable Down/Up per code, so each event gets its own call with a
// single-element key set.
type Device struct {
	kb keybd_event.KeyBonding
}

func New() (*Device, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("outputdevice: creating virtual keyboard: %w", err)
	}
	return &Device{kb: kb}, nil
}

// Flush replays a batch of resolved output events in order, pausing
// after each one so downstream consumers never observe a half-applied
// chord.
func (d *Device) Flush(events []layer.OutputEvent) error {
	for _, ev := range events {
		d.kb.SetKeys(int(ev.Code))
		var err error
		switch ev.Edge {
		case layer.Down:
			err = d.kb.Press()
		case layer.Up:
			err = d.kb.Release()
		}
		if err != nil {
			return fmt.Errorf("outputdevice: %s code %d: %w", ev.Edge, ev.Code, err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	return nil
}

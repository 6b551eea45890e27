package inputdevice

import "testing"

func TestMergeFansInAllDevicesAndClosesOnExit(t *testing.T) {
	a := &Device{Name: "a", Events: make(chan Event, 2)}
	b := &Device{Name: "b", Events: make(chan Event, 2)}

	a.Events <- Event{Code: 30, Down: true}
	b.Events <- Event{Code: 57, Down: true}
	close(a.Events)
	close(b.Events)

	out := Merge([]*Device{a, b})

	seen := map[uint16]bool{}
	for ev := range out {
		seen[ev.Code] = true
	}
	if !seen[30] || !seen[57] {
		t.Fatalf("expected events from both devices, got %v", seen)
	}
}

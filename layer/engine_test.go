package layer

import (
	"reflect"
	"testing"
	"time"
)

func grid1x1(code KeyCode) [][]KeyCode {
	return [][]KeyCode{{code}}
}

func newTestEngine(bottom, top [][]KeyCode, topEnabled bool) (*Engine, *LayerStack) {
	layers := []*Layer{{ID: 0, Name: "base", Grid: bottom, toggled: true}}
	if top != nil {
		layers = append(layers, &Layer{ID: 1, Name: "top", Grid: top, toggled: topEnabled})
	}
	stack := NewLayerStack(layers)
	codeToPos := map[uint16]RowCol{
		10: {0, 0},
		11: {0, 1},
	}
	matrix := NewStateMatrix(1, 2, codeToPos)
	return New(matrix, stack, NewManualClock()), stack
}

func assertEvents(t *testing.T, got []OutputEvent, want ...OutputEvent) {
	t.Helper()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

// Scenario 1: regular passthrough.
func TestRegularPassthrough(t *testing.T) {
	e, _ := newTestEngine(grid1x1(&Regular{Code: 30}), nil, false)

	out := e.OnInputEvent(10, true, 0)
	assertEvents(t, out, OutputEvent{30, Down})

	out = e.OnInputEvent(10, false, 10)
	assertEvents(t, out, OutputEvent{30, Up})
}

// Scenario 2: transparent fall-through.
func TestTransparentFallThrough(t *testing.T) {
	bottom := grid1x1(&Regular{Code: 30})
	top := grid1x1(Transparent)
	e, _ := newTestEngine(bottom, top, true)

	out := e.OnInputEvent(10, true, 0)
	assertEvents(t, out, OutputEvent{30, Down})
	out = e.OnInputEvent(10, false, 10)
	assertEvents(t, out, OutputEvent{30, Up})
}

// Scenario 3: MO momentary layer.
func TestMOMomentaryLayer(t *testing.T) {
	layerB := &Regular{Code: 66} // KC_B
	layerD := &Regular{Code: 68} // KC_D
	bottom := [][]KeyCode{{&MO{LayerID: 1}, layerB}}
	top := [][]KeyCode{{Transparent, layerD}}
	e, _ := newTestEngine(bottom, top, false)

	// press MO key, press (0,1) -> resolves to D on layer 1, release both.
	e.OnInputEvent(10, true, 0)
	out := e.OnInputEvent(11, true, 1)
	assertEvents(t, out, OutputEvent{68, Down})
	out = e.OnInputEvent(11, false, 2)
	assertEvents(t, out, OutputEvent{68, Up})
	out = e.OnInputEvent(10, false, 3)
	assertEvents(t, out, []OutputEvent{}...)

	// now layer 1 is disabled again; same physical key resolves to B.
	out = e.OnInputEvent(11, true, 4)
	assertEvents(t, out, OutputEvent{66, Down})
	out = e.OnInputEvent(11, false, 5)
	assertEvents(t, out, OutputEvent{66, Up})
}

// Scenario 4: LT tap.
func TestLTTap(t *testing.T) {
	const space = 57
	bottom := grid1x1(&LT{LayerID: 1, Tap: space, HoldMs: 150})
	top := grid1x1(Transparent)
	e, stack := newTestEngine(bottom, top, false)

	out := e.OnInputEvent(10, true, 0)
	assertEvents(t, out, []OutputEvent{}...)
	out = e.OnInputEvent(10, false, 50*time.Millisecond)
	assertEvents(t, out, OutputEvent{space, Down}, OutputEvent{space, Up})
	if stack.Layer(1).Enabled() {
		t.Fatalf("layer 1 should never have been enabled")
	}
}

// Scenario 5: LT hold by timeout.
func TestLTHoldByTimeout(t *testing.T) {
	const space = 57
	bottom := grid1x1(&LT{LayerID: 1, Tap: space, HoldMs: 150})
	top := grid1x1(Transparent)
	e, stack := newTestEngine(bottom, top, false)

	out := e.OnInputEvent(10, true, 0)
	assertEvents(t, out, []OutputEvent{}...)

	// No input event arrives until the deadline; the driver loop's timer
	// wakeup calls Tick.
	out = e.Tick(150 * time.Millisecond)
	assertEvents(t, out, []OutputEvent{}...)
	if !stack.Layer(1).Enabled() {
		t.Fatalf("layer 1 should be enabled once the hold deadline elapses")
	}

	out = e.OnInputEvent(10, false, 300*time.Millisecond)
	assertEvents(t, out, []OutputEvent{}...)
	if stack.Layer(1).Enabled() {
		t.Fatalf("layer 1 should be disabled after release")
	}
}

// Scenario 6: SPACECADET composite, tap and hold.
func TestSpaceCadetTapAndHold(t *testing.T) {
	const lshift, kc9, kcA = 42, 10, 30
	mkSC := func() *SpaceCadet {
		return &SpaceCadet{
			TapKey:  &Wrap{Outer: lshift, Inner: kc9},
			HoldKey: &Regular{Code: lshift},
		}
	}

	t.Run("tap", func(t *testing.T) {
		bottom := [][]KeyCode{{mkSC(), &Regular{Code: kcA}}}
		e, _ := newTestEngine(bottom, nil, false)

		out := e.OnInputEvent(10, true, 0)
		assertEvents(t, out, []OutputEvent{}...)
		out = e.OnInputEvent(10, false, 10)
		assertEvents(t, out,
			OutputEvent{lshift, Down}, OutputEvent{kc9, Down}, OutputEvent{kc9, Up}, OutputEvent{lshift, Up})
	})

	t.Run("hold", func(t *testing.T) {
		bottom := [][]KeyCode{{mkSC(), &Regular{Code: kcA}}}
		e, _ := newTestEngine(bottom, nil, false)

		out := e.OnInputEvent(10, true, 0)
		assertEvents(t, out, []OutputEvent{}...)

		out = e.OnInputEvent(11, true, 1)
		assertEvents(t, out, OutputEvent{lshift, Down}, OutputEvent{kcA, Down})

		out = e.OnInputEvent(11, false, 2)
		assertEvents(t, out, OutputEvent{kcA, Up})

		out = e.OnInputEvent(10, false, 3)
		assertEvents(t, out, OutputEvent{lshift, Up})
	})
}

// Balanced output and active-binding symmetry for an ordinary key.
func TestBalancedOutputAndActiveBindingSymmetry(t *testing.T) {
	e, _ := newTestEngine(grid1x1(&Regular{Code: 30}), nil, false)
	rc := RowCol{0, 0}

	if e.IsActive(rc) {
		t.Fatalf("cell should not be active before any press")
	}
	e.OnInputEvent(10, true, 0)
	if !e.IsActive(rc) {
		t.Fatalf("cell should be active after an accepted press")
	}
	e.OnInputEvent(10, false, 1)
	if e.IsActive(rc) {
		t.Fatalf("cell should not be active after the matching release")
	}
}

// Auto-repeat (same code, same edge) must be dropped by the matrix.
func TestAutoRepeatDropped(t *testing.T) {
	e, _ := newTestEngine(grid1x1(&Regular{Code: 30}), nil, false)

	out := e.OnInputEvent(10, true, 0)
	assertEvents(t, out, OutputEvent{30, Down})

	// Auto-repeat: another "down" report for the same code.
	out = e.OnInputEvent(10, true, 1)
	assertEvents(t, out, []OutputEvent{}...)

	out = e.OnInputEvent(10, false, 2)
	assertEvents(t, out, OutputEvent{30, Up})
}

// Unknown codes are dropped silently but counted.
func TestUnknownCodeDropped(t *testing.T) {
	e, _ := newTestEngine(grid1x1(&Regular{Code: 30}), nil, false)

	out := e.OnInputEvent(999, true, 0)
	assertEvents(t, out, []OutputEvent{}...)
	if e.Matrix.UnknownCount(999) != 1 {
		t.Fatalf("expected unknown code to be counted once")
	}
}

// Opaque absorbs the press; the release is never dispatched to a
// handler (there is nothing in the active-binding map to look up).
func TestOpaqueAbsorbsPress(t *testing.T) {
	e, _ := newTestEngine(grid1x1(Opaque), nil, false)

	out := e.OnInputEvent(10, true, 0)
	assertEvents(t, out, []OutputEvent{}...)
	if e.IsActive(RowCol{0, 0}) {
		t.Fatalf("Opaque press must not be recorded in the active-binding map")
	}
	out = e.OnInputEvent(10, false, 1)
	assertEvents(t, out, []OutputEvent{}...)
}

// OSL disarms on the next full press+release of a different key, and
// is not disarmed by its own release.
func TestOneShotLayer(t *testing.T) {
	layerD := &Regular{Code: 68}
	bottom := [][]KeyCode{{&OSL{LayerID: 1}, &Regular{Code: 66}}}
	top := [][]KeyCode{{Transparent, layerD}}
	e, stack := newTestEngine(bottom, top, false)

	e.OnInputEvent(10, true, 0)
	e.OnInputEvent(10, false, 1)
	if !stack.Layer(1).Enabled() {
		t.Fatalf("OSL should arm the layer immediately on press")
	}

	out := e.OnInputEvent(11, true, 2)
	assertEvents(t, out, OutputEvent{68, Down})
	out = e.OnInputEvent(11, false, 3)
	assertEvents(t, out, OutputEvent{68, Up})

	if stack.Layer(1).Enabled() {
		t.Fatalf("OSL should disarm after the next key's full press+release")
	}
}

// Macro fires on release, not on press.
func TestMacroFiresOnRelease(t *testing.T) {
	bottom := grid1x1(&Macro{Seq: []uint16{30, 48}})
	e, _ := newTestEngine(bottom, nil, false)

	out := e.OnInputEvent(10, true, 0)
	assertEvents(t, out, []OutputEvent{}...)

	out = e.OnInputEvent(10, false, 1)
	assertEvents(t, out,
		OutputEvent{30, Down}, OutputEvent{30, Up},
		OutputEvent{48, Down}, OutputEvent{48, Up})
}

// TG toggles on release, and flips back on the next press+release.
func TestTGToggle(t *testing.T) {
	layerD := &Regular{Code: 68}
	bottom := [][]KeyCode{{&TG{LayerID: 1}, &Regular{Code: 66}}}
	top := [][]KeyCode{{Transparent, layerD}}
	e, stack := newTestEngine(bottom, top, false)

	e.OnInputEvent(10, true, 0)
	e.OnInputEvent(10, false, 1)
	if !stack.Layer(1).Enabled() {
		t.Fatalf("TG should enable the layer after the first press+release")
	}

	e.OnInputEvent(10, true, 2)
	e.OnInputEvent(10, false, 3)
	if stack.Layer(1).Enabled() {
		t.Fatalf("TG should disable the layer after the second press+release")
	}
}

package layer

import "time"

// activeEntry is the active-binding map's value: the exact resolved
// binding that a currently-held cell's press received, plus any Timed
// undecided/decided state.
type activeEntry struct {
	rc      RowCol
	layerID int
	code    KeyCode
	timed   *timedState
}

// Engine is the dispatcher: the single entry point that routes physical
// edges through the layer stack (on press) or the active-binding map (on
// release) to a key-kind handler, and owns the output queue, the
// active-binding map, and the deadline queue.
type Engine struct {
	Matrix *StateMatrix
	Layers *LayerStack
	Clock  Clock

	active       map[RowCol]*activeEntry
	out          []OutputEvent
	deadlines    deadlineQueue
	nextToken    uint64
	oneShotQueue []int
}

// New builds a dispatcher over an already-loaded matrix and layer stack.
// Clock is optional; pass nil if every call site supplies its own "now"
// via OnInputEvent/Tick rather than using OnKeyEvent.
func New(matrix *StateMatrix, layers *LayerStack, clock Clock) *Engine {
	return &Engine{
		Matrix: matrix,
		Layers: layers,
		Clock:  clock,
		active: make(map[RowCol]*activeEntry),
	}
}

// ActiveLen reports the number of cells currently recorded as held with
// an accepted binding.
func (e *Engine) ActiveLen() int { return len(e.active) }

// IsActive reports whether a given cell currently has a recorded
// active-binding entry.
func (e *Engine) IsActive(rc RowCol) bool {
	_, ok := e.active[rc]
	return ok
}

// OnKeyEvent is a convenience wrapper over OnInputEvent that timestamps
// the event using the engine's Clock.
func (e *Engine) OnKeyEvent(code uint16, down bool) []OutputEvent {
	return e.OnInputEvent(code, down, e.Clock.Now())
}

// OnInputEvent is the dispatcher's entry point: it updates the state
// matrix, routes the resulting edge (if any) through press or release
// handling, drains elapsed deadlines, and flushes the output queue.
func (e *Engine) OnInputEvent(code uint16, down bool, now time.Duration) []OutputEvent {
	rc, ok := e.Matrix.Apply(code, down)
	if ok {
		if down {
			e.onPress(rc, now)
		} else {
			e.onRelease(rc, now)
		}
	}
	e.drainDeadlines(now)
	return e.flush()
}

// Tick drains any deadlines that have elapsed without a new input event
// (the driver loop's timer-only wakeup) and flushes the output queue.
func (e *Engine) Tick(now time.Duration) []OutputEvent {
	e.drainDeadlines(now)
	return e.flush()
}

func (e *Engine) flush() []OutputEvent {
	out := e.out
	e.out = nil
	return out
}

func (e *Engine) onPress(rc RowCol, now time.Duration) {
	// Any other undecided Timed binding is forced into its hold
	// interpretation by this new physical press.
	for other, entry := range e.active {
		if other == rc {
			continue
		}
		e.forceHold(entry, now)
	}

	layerID, code, ok := e.Layers.Resolve(rc.Row, rc.Col)
	if !ok {
		// The lowest layer resolved to a transparent cell, which a
		// correctly loaded config never produces. An engine bug, not
		// a runtime error; drop the edge.
		return
	}

	ctx := &Context{Engine: e, RC: rc, Now: now}
	if code.OnPress(ctx) {
		return // absorbed: no active-binding entry (Opaque)
	}
	e.active[rc] = &activeEntry{rc: rc, layerID: layerID, code: code, timed: ctx.timed}
}

func (e *Engine) onRelease(rc RowCol, now time.Duration) {
	entry, ok := e.active[rc]
	if !ok {
		return // press was absorbed; nothing to release
	}
	delete(e.active, rc)
	ctx := &Context{Engine: e, RC: rc, Now: now, timed: entry.timed}
	entry.code.OnRelease(ctx)
	e.completeOneShot(entry.code)
}

// forceHold decides "hold" for an undecided Timed entry, idempotently.
func (e *Engine) forceHold(entry *activeEntry, now time.Duration) {
	if entry.timed == nil || entry.timed.decided {
		return
	}
	entry.timed.decided = true
	entry.timed.hold = true
	tk, ok := entry.code.(Timed)
	if !ok {
		return
	}
	ctx := &Context{Engine: e, RC: entry.rc, Now: now, timed: entry.timed}
	tk.decideHold(ctx)
}

func (e *Engine) armOneShot(layerID int) {
	e.Layers.armOneShot(layerID)
	e.oneShotQueue = append(e.oneShotQueue, layerID)
}

// completeOneShot runs whenever any key's full press+release cycle
// finishes. It disarms the oldest armed one-shot, unless the completing
// key is itself an OSL targeting that same layer.
func (e *Engine) completeOneShot(code KeyCode) {
	if len(e.oneShotQueue) == 0 {
		return
	}
	front := e.oneShotQueue[0]
	if osl, ok := code.(*OSL); ok && osl.LayerID == front {
		return
	}
	e.oneShotQueue = e.oneShotQueue[1:]
	e.Layers.disarmOneShot(front)
}

package layer

import "time"

// timedState is the mutable undecided/decided state attached to an
// active-binding entry produced by a Timed key-kind.
type timedState struct {
	token   uint64
	decided bool
	hold    bool
}

// Context is handed to a KeyCode's handler methods. It exposes the
// engine's output queue and layer stack, and (for Timed key-kinds) the
// entry's tap/hold decision state.
type Context struct {
	Engine *Engine
	RC     RowCol
	Now    time.Duration

	timed *timedState
}

// Emit appends a synthesized output event, preserving handler-issued
// order within this edge.
func (ctx *Context) Emit(code uint16, edge Edge) {
	ctx.Engine.out = append(ctx.Engine.out, OutputEvent{Code: code, Edge: edge})
}

// markTimed opens an undecided tap-vs-hold window for the binding being
// pressed. holdMs == 0 means no deadline; only an intervening key press
// can force the hold decision (SpaceCadet).
func (ctx *Context) markTimed(holdMs int) {
	ctx.Engine.nextToken++
	token := ctx.Engine.nextToken
	ts := &timedState{token: token}
	ctx.timed = ts
	if holdMs > 0 {
		ctx.Engine.scheduleDeadline(ctx.RC, token, ctx.Now+time.Duration(holdMs)*time.Millisecond)
	}
}

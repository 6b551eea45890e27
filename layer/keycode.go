package layer

// KeyCode is the uniform interface every key-kind handler implements: a
// tagged variant with a uniform dispatch function rather than an
// inheritance hierarchy.
type KeyCode interface {
	// OnPress runs when the physical cell transitions 0->1. It returns
	// true if the press should be absorbed: not recorded in the
	// active-binding map, so the matching release is never dispatched.
	OnPress(ctx *Context) (absorb bool)
	// OnRelease runs when the physical cell transitions 1->0, but only
	// if the matching press was not absorbed.
	OnRelease(ctx *Context)
	// IsTransparent reports whether layer resolution should skip this
	// cell and continue searching the layer below.
	IsTransparent() bool
}

// Timed is implemented by key-kinds whose press opens an undecided
// tap-vs-hold window (LT, SpaceCadet).
type Timed interface {
	KeyCode
	// decideHold runs once, the moment the undecided window is forced
	// into the hold interpretation (deadline elapsed, or another
	// physical key was pressed).
	decideHold(ctx *Context)
	// decideTap runs once, if the physical release arrives before the
	// window is decided.
	decideTap(ctx *Context)
	// decideHoldRelease runs on the physical release, but only after
	// decideHold already ran.
	decideHoldRelease(ctx *Context)
}

type base struct{}

func (base) IsTransparent() bool { return false }

// Regular is an opaque keyboard code delivered verbatim.
type Regular struct {
	base
	Code uint16
}

func (r *Regular) OnPress(ctx *Context) bool {
	ctx.Emit(r.Code, Down)
	return false
}
func (r *Regular) OnRelease(ctx *Context) { ctx.Emit(r.Code, Up) }

// OpaqueKey absorbs the edge with no effect and no active-binding entry.
type OpaqueKey struct{ base }

func (*OpaqueKey) OnPress(ctx *Context) bool { return true }
func (*OpaqueKey) OnRelease(ctx *Context)    {}

// Opaque is the shared, stateless Opaque binding.
var Opaque = &OpaqueKey{}

// TransparentKey declines the edge; resolution continues downward.
type TransparentKey struct{ base }

func (*TransparentKey) IsTransparent() bool    { return true }
func (*TransparentKey) OnPress(ctx *Context) bool {
	panic("layer: Transparent reached a handler; resolution should have skipped it")
}
func (*TransparentKey) OnRelease(ctx *Context) {}

// Transparent is the shared, stateless Transparent binding.
var Transparent = &TransparentKey{}

// Macro plays a finite ordered sequence of regular codes, pressed then
// released in order, fired on release of the physical key (so chording
// can cancel it before it fires, matching QMK convention).
type Macro struct {
	base
	Seq []uint16
}

func (m *Macro) OnPress(ctx *Context) bool { return false }
func (m *Macro) OnRelease(ctx *Context) {
	for _, c := range m.Seq {
		ctx.Emit(c, Down)
		ctx.Emit(c, Up)
	}
}

// Wrap presses an outer code, taps an inner code, and releases the outer
// code on physical release. Outer and Inner must be Regular codes; that
// is enforced at configuration load, never at dispatch.
type Wrap struct {
	base
	Outer, Inner uint16
}

func (w *Wrap) OnPress(ctx *Context) bool {
	ctx.Emit(w.Outer, Down)
	ctx.Emit(w.Inner, Down)
	ctx.Emit(w.Inner, Up)
	return false
}
func (w *Wrap) OnRelease(ctx *Context) { ctx.Emit(w.Outer, Up) }

// Exec runs an external command on press of the physical key, firing it
// in its own goroutine so the dispatcher never blocks on a collaborator.
// Run is supplied by the shellexec package at wiring time; the engine
// only knows it as a callback.
type Exec struct {
	base
	Command string
	Args    []string
	Run     func(command string, args []string)
}

func (ex *Exec) OnPress(ctx *Context) bool {
	if ex.Run != nil {
		go ex.Run(ex.Command, ex.Args)
	}
	return false
}
func (ex *Exec) OnRelease(ctx *Context) {}

// TG toggles a layer on physical release.
type TG struct {
	base
	LayerID int
}

func (tg *TG) OnPress(ctx *Context) bool { return false }
func (tg *TG) OnRelease(ctx *Context)    { ctx.Engine.Layers.Toggle(tg.LayerID) }

// AL unconditionally enables a layer on physical press. It never
// disables it again: a release is a no-op.
type AL struct {
	base
	LayerID int
}

func (al *AL) OnPress(ctx *Context) bool {
	ctx.Engine.Layers.Incref(al.LayerID)
	return false
}
func (al *AL) OnRelease(ctx *Context) {}

// MO enables a layer for the duration of the physical hold.
type MO struct {
	base
	LayerID int
}

func (mo *MO) OnPress(ctx *Context) bool {
	ctx.Engine.Layers.Incref(mo.LayerID)
	return false
}
func (mo *MO) OnRelease(ctx *Context) { ctx.Engine.Layers.Decref(mo.LayerID) }

// OSL enables a layer until the next full press+release of a key whose
// resolved binding is not itself an OSL on the same layer.
type OSL struct {
	base
	LayerID int
}

func (osl *OSL) OnPress(ctx *Context) bool {
	ctx.Engine.armOneShot(osl.LayerID)
	return false
}
func (osl *OSL) OnRelease(ctx *Context) {}

// LT behaves as MO(LayerID) if held at least HoldMs, otherwise taps Tap.
type LT struct {
	base
	LayerID int
	Tap     uint16
	HoldMs  int
}

func (lt *LT) OnPress(ctx *Context) bool {
	ctx.markTimed(lt.HoldMs)
	return false
}
func (lt *LT) OnRelease(ctx *Context) { releaseTimed(lt, ctx) }

func (lt *LT) decideHold(ctx *Context)        { ctx.Engine.Layers.Incref(lt.LayerID) }
func (lt *LT) decideTap(ctx *Context)         { ctx.Emit(lt.Tap, Down); ctx.Emit(lt.Tap, Up) }
func (lt *LT) decideHoldRelease(ctx *Context) { ctx.Engine.Layers.Decref(lt.LayerID) }

// SpaceCadet behaves as TapKey on a short tap, else HoldKey on a hold.
// Arbitration is identical to LT but with no explicit deadline: only an
// intervening physical key press can force the hold decision.
type SpaceCadet struct {
	base
	TapKey, HoldKey KeyCode
}

func (sc *SpaceCadet) OnPress(ctx *Context) bool {
	ctx.markTimed(0)
	return false
}
func (sc *SpaceCadet) OnRelease(ctx *Context) { releaseTimed(sc, ctx) }

func (sc *SpaceCadet) decideHold(ctx *Context)        { sc.HoldKey.OnPress(ctx) }
func (sc *SpaceCadet) decideTap(ctx *Context) {
	sc.TapKey.OnPress(ctx)
	sc.TapKey.OnRelease(ctx)
}
func (sc *SpaceCadet) decideHoldRelease(ctx *Context) { sc.HoldKey.OnRelease(ctx) }

// releaseTimed implements the shared {Idle,Undecided,DecidedTap,DecidedHold}
// state machine transition for a physical release.
func releaseTimed(tk Timed, ctx *Context) {
	ts := ctx.timed
	if ts == nil {
		return
	}
	if !ts.decided {
		ts.decided = true
		ts.hold = false
		tk.decideTap(ctx)
		return
	}
	if ts.hold {
		tk.decideHoldRelease(ctx)
	}
}

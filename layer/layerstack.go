package layer

// Layer is one overlay grid of key codes, individually enable-able. A
// layer is enabled iff its refcount is positive, it was explicitly
// toggled on (TG), or it has an armed one-shot.
type Layer struct {
	ID       int
	Name     string
	Grid     [][]KeyCode
	refcount int
	toggled  bool
	oneShot  int
}

func (l *Layer) Enabled() bool {
	return l.refcount > 0 || l.toggled || l.oneShot > 0
}

// NewLayer builds a layer outside package layer (the config loader's
// entry point): enabled sets the initial explicit-toggle flag, the same
// flag TG flips at runtime.
func NewLayer(id int, name string, grid [][]KeyCode, enabled bool) *Layer {
	return &Layer{ID: id, Name: name, Grid: grid, toggled: enabled}
}

// LayerStack is the ordered, individually-enable-able overlay stack.
// Index 0 is the bottom of the stack and is always enabled.
type LayerStack struct {
	layers []*Layer
	byID   map[int]*Layer
}

// NewLayerStack builds a stack from layers already in bottom-to-top
// order. The bottom layer's initial Enabled flag should be true; the
// constructor does not enforce this — the config loader does, at load
// time.
func NewLayerStack(layers []*Layer) *LayerStack {
	byID := make(map[int]*Layer, len(layers))
	for _, l := range layers {
		byID[l.ID] = l
	}
	return &LayerStack{layers: layers, byID: byID}
}

func (ls *LayerStack) Layer(id int) *Layer { return ls.byID[id] }

func (ls *LayerStack) Len() int { return len(ls.layers) }

// Resolve walks the stack from the top down, returning the first
// non-transparent binding found in an enabled layer. Opaque resolves as
// an ordinary binding; Transparent is skipped and resolution continues
// downward.
func (ls *LayerStack) Resolve(row, col int) (layerID int, code KeyCode, ok bool) {
	for i := len(ls.layers) - 1; i >= 0; i-- {
		l := ls.layers[i]
		if !l.Enabled() {
			continue
		}
		if row >= len(l.Grid) || col >= len(l.Grid[row]) {
			continue
		}
		c := l.Grid[row][col]
		if c == nil || c.IsTransparent() {
			continue
		}
		return l.ID, c, true
	}
	return 0, nil, false
}

// SetEnabled forces a layer's explicit-toggle flag, independent of any
// held MO/LT/AL refcount. TG/MO/AL/LT manipulate layers via
// Incref/Decref/Toggle instead, so that concurrent holds on the same
// layer compose correctly.
func (ls *LayerStack) SetEnabled(id int, enabled bool) {
	if l := ls.byID[id]; l != nil {
		l.toggled = enabled
	}
}

func (ls *LayerStack) Incref(id int) {
	if l := ls.byID[id]; l != nil {
		l.refcount++
	}
}

func (ls *LayerStack) Decref(id int) {
	if l := ls.byID[id]; l != nil && l.refcount > 0 {
		l.refcount--
	}
}

func (ls *LayerStack) Toggle(id int) {
	if l := ls.byID[id]; l != nil {
		l.toggled = !l.toggled
	}
}

func (ls *LayerStack) armOneShot(id int) {
	if l := ls.byID[id]; l != nil {
		l.oneShot++
	}
}

func (ls *LayerStack) disarmOneShot(id int) {
	if l := ls.byID[id]; l != nil && l.oneShot > 0 {
		l.oneShot--
	}
}

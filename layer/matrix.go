package layer

// StateMatrix tracks the binary up/down state of every physical cell and
// turns a raw (code, down) input report into an edge, dropping OS
// auto-repeat and any report that doesn't actually change the cell's
// state.
type StateMatrix struct {
	rows, cols int
	codeToPos  map[uint16]RowCol
	state      [][]bool
	unknown    map[uint16]uint64
}

// NewStateMatrix builds a matrix of the given dimensions, with codeToPos
// mapping physical event codes to their (row, col) position. Codes absent
// from codeToPos are dropped silently by Apply.
func NewStateMatrix(rows, cols int, codeToPos map[uint16]RowCol) *StateMatrix {
	state := make([][]bool, rows)
	for r := range state {
		state[r] = make([]bool, cols)
	}
	return &StateMatrix{
		rows:      rows,
		cols:      cols,
		codeToPos: codeToPos,
		state:     state,
		unknown:   make(map[uint16]uint64),
	}
}

func (m *StateMatrix) Dim() (rows, cols int) { return m.rows, m.cols }

// Apply records a physical (code, down) report. It returns the matrix
// position and true only when the cell's state actually transitioned
// (a true edge); repeated reports of the same level (auto-repeat) and
// codes outside the matrix both return ok=false.
func (m *StateMatrix) Apply(code uint16, down bool) (RowCol, bool) {
	pos, known := m.codeToPos[code]
	if !known {
		m.unknown[code]++
		return RowCol{}, false
	}
	if m.state[pos.Row][pos.Col] == down {
		return RowCol{}, false
	}
	m.state[pos.Row][pos.Col] = down
	return pos, true
}

// UnknownCount returns how many times a code outside the matrix has been
// seen, for diagnostics.
func (m *StateMatrix) UnknownCount(code uint16) uint64 { return m.unknown[code] }

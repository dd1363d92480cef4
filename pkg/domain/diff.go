package domain

// SnapshotDiff represents the changes between two snapshots of the same grid.
// It is designed to be serialized to JSON for partial updates on the client.
type SnapshotDiff struct {
	// Status is set when the engine status changed.
	Status *Status `json:"status,omitempty"`

	// Steps is always present so clients can order diffs.
	Steps int `json:"steps"`

	// Current is set when the considered cell moved.
	Current *Coord `json:"current,omitempty"`

	// Cells lists every cell whose tag or weight changed.
	Cells []CellDelta `json:"cells,omitempty"`

	// Resized signals that the grid dimensions changed and clients should reload everything.
	Resized bool `json:"resized,omitempty"`
}

// CellDelta is the new state of one cell.
type CellDelta struct {
	Coord
	State  CellState `json:"state"`
	Weight int       `json:"weight"`
}

// Diff calculates the difference between oldSnap and newSnap.
// If oldSnap is nil, it returns a diff describing every cell of newSnap (initial load).
// It returns nil when nothing changed.
func Diff(oldSnap, newSnap *Snapshot) *SnapshotDiff {
	if newSnap == nil {
		return nil
	}

	diff := &SnapshotDiff{Steps: newSnap.Steps}

	if oldSnap == nil || oldSnap.Columns != newSnap.Columns || oldSnap.Rows != newSnap.Rows {
		diff.Resized = oldSnap != nil
		diff.Status = &newSnap.Status
		diff.Current = newSnap.Current
		diff.Cells = allCells(newSnap)
		return diff
	}

	if oldSnap.Status != newSnap.Status {
		diff.Status = &newSnap.Status
	}
	if !sameCoord(oldSnap.Current, newSnap.Current) {
		diff.Current = newSnap.Current
	}

	for i := range newSnap.States {
		if oldSnap.States[i] != newSnap.States[i] || oldSnap.Weights[i] != newSnap.Weights[i] {
			diff.Cells = append(diff.Cells, cellDelta(newSnap, i))
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func allCells(s *Snapshot) []CellDelta {
	cells := make([]CellDelta, len(s.States))
	for i := range s.States {
		cells[i] = cellDelta(s, i)
	}
	return cells
}

func cellDelta(s *Snapshot, i int) CellDelta {
	return CellDelta{
		Coord:  Coord{Col: i % s.Columns, Row: i / s.Columns},
		State:  s.States[i],
		Weight: s.Weights[i],
	}
}

func sameCoord(a, b *Coord) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SnapshotDiff) IsEmpty() bool {
	return d.Status == nil &&
		d.Current == nil &&
		len(d.Cells) == 0 &&
		!d.Resized
}

package domain

import (
	"fmt"
	"strings"
)

// CellState is the semantic tag carried by every cell.
type CellState uint8

const (
	StateDefault     CellState = iota // Unvisited, passable
	StateBarrier                      // Impassable
	StateStart                        // Unique search origin
	StateEnd                          // Unique search target
	StateInQueue                      // Discovered, waiting in the frontier
	StateActive                       // Popped in the current step
	StateClosed                       // Expanded in a previous step
	StatePathElement                  // Part of the reconstructed path
)

var cellStateNames = [...]string{
	StateDefault:     "DEFAULT",
	StateBarrier:     "BARRIER",
	StateStart:       "START",
	StateEnd:         "END",
	StateInQueue:     "IN_QUEUE",
	StateActive:      "ACTIVE",
	StateClosed:      "CLOSED",
	StatePathElement: "PATH_ELEMENT",
}

// String returns the canonical upper-case name of the state.
func (s CellState) String() string {
	if int(s) < len(cellStateNames) {
		return cellStateNames[s]
	}
	return fmt.Sprintf("CellState(%d)", uint8(s))
}

// ParseCellState resolves a state name case-insensitively.
func ParseCellState(name string) (CellState, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for i, n := range cellStateNames {
		if n == name {
			return CellState(i), nil
		}
	}
	return StateDefault, fmt.Errorf("unknown cell state %q", name)
}

// MarshalText implements encoding.TextMarshaler so states serialize by name.
func (s CellState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *CellState) UnmarshalText(text []byte) error {
	parsed, err := ParseCellState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// IsTransient reports whether the state is written by a search pass and cleared by a reset.
func (s CellState) IsTransient() bool {
	switch s {
	case StateInQueue, StateActive, StateClosed, StatePathElement:
		return true
	}
	return false
}

// IsEndpoint reports whether the state is START or END.
func (s CellState) IsEndpoint() bool {
	return s == StateStart || s == StateEnd
}

// Coord addresses a cell by column and row.
type Coord struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// String formats the coordinate as "(col,row)".
func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Col, c.Row)
}

// Manhattan returns |x1-x2| + |y1-y2|.
func Manhattan(a, b Coord) int {
	return abs(a.Col-b.Col) + abs(a.Row-b.Row)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Weight bounds for passable cells.
const (
	MinWeight = 1
	MaxWeight = 254
	// BarrierWeight is read as a barrier in layouts, the way older saved grids mark them.
	BarrierWeight = 255
)

// Cell is one square of the grid. Its coordinate never changes after construction.
type Cell struct {
	coord   Coord
	state   CellState
	visited bool
	weight  int
}

// Coord returns the cell position.
func (c *Cell) Coord() Coord { return c.coord }

// State returns the current tag.
func (c *Cell) State() CellState { return c.state }

// Weight returns the cost to enter this cell.
func (c *Cell) Weight() int { return c.weight }

// Visited reports whether a BFS/DFS pass already enqueued this cell.
func (c *Cell) Visited() bool { return c.visited }

// SetVisited flags the cell during a BFS/DFS pass.
func (c *Cell) SetVisited(v bool) { c.visited = v }

// Mark writes a search tag. It is a no-op on START, END and BARRIER cells and
// reports whether the tag was written.
func (c *Cell) Mark(s CellState) bool {
	if c.state.IsEndpoint() || c.state == StateBarrier {
		return false
	}
	c.state = s
	return true
}

package domain

import (
	"fmt"
	"math/rand/v2"
)

// Grid is a fixed-size rectangular grid of cells with exactly one START and one END.
// It is not safe for concurrent use.
type Grid struct {
	cols  int
	rows  int
	cells []Cell

	start Coord
	end   Coord

	// neighbors is derived from barrier placement; stale is set by every
	// topology mutation and cleared by RefreshNeighbors.
	neighbors [][]Coord
	stale     bool
}

// NewGrid builds a cols×rows grid of DEFAULT cells with MinWeight, placing START and END.
func NewGrid(cols, rows int, start, end Coord) (*Grid, error) {
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("%w: grid must be at least 1x1, got %dx%d", ErrInvalidTemplate, cols, rows)
	}
	g := newBlankGrid(cols, rows)
	if !g.InBounds(start) {
		return nil, fmt.Errorf("%w: start %s", ErrOutOfBounds, start)
	}
	if !g.InBounds(end) {
		return nil, fmt.Errorf("%w: end %s", ErrOutOfBounds, end)
	}
	if start == end {
		return nil, fmt.Errorf("%w: start and end both at %s", ErrInvalidPlacement, start)
	}
	g.start, g.end = start, end
	g.At(start).state = StateStart
	g.At(end).state = StateEnd
	return g, nil
}

func newBlankGrid(cols, rows int) *Grid {
	g := &Grid{
		cols:  cols,
		rows:  rows,
		cells: make([]Cell, cols*rows),
		stale: true,
	}
	for i := range g.cells {
		g.cells[i] = Cell{coord: g.CoordOf(i), weight: MinWeight}
	}
	return g
}

// Columns returns C.
func (g *Grid) Columns() int { return g.cols }

// Rows returns R.
func (g *Grid) Rows() int { return g.rows }

// Len returns the number of cells.
func (g *Grid) Len() int { return len(g.cells) }

// Start returns the coordinate of the START cell.
func (g *Grid) Start() Coord { return g.start }

// End returns the coordinate of the END cell.
func (g *Grid) End() Coord { return g.end }

// InBounds reports whether c lies within [0,C)×[0,R).
func (g *Grid) InBounds(c Coord) bool {
	return c.Col >= 0 && c.Col < g.cols && c.Row >= 0 && c.Row < g.rows
}

// Index maps an in-bounds coordinate to its dense index (row-major).
func (g *Grid) Index(c Coord) int {
	return c.Row*g.cols + c.Col
}

// CoordOf is the inverse of Index.
func (g *Grid) CoordOf(i int) Coord {
	return Coord{Col: i % g.cols, Row: i / g.cols}
}

// At returns the cell at c. The caller must ensure c is in bounds.
func (g *Grid) At(c Coord) *Cell {
	return &g.cells[g.Index(c)]
}

// Cell returns the cell at c, or ErrOutOfBounds.
func (g *Grid) Cell(c Coord) (*Cell, error) {
	if !g.InBounds(c) {
		return nil, fmt.Errorf("%w: %s on %dx%d grid", ErrOutOfBounds, c, g.cols, g.rows)
	}
	return g.At(c), nil
}

// Each calls fn for every cell in row-major order.
func (g *Grid) Each(fn func(*Cell)) {
	for i := range g.cells {
		fn(&g.cells[i])
	}
}

// Neighbors returns the passable neighbors of c in the fixed order up, left, down, right.
// The list comes from the cache built by RefreshNeighbors; callers that mutate
// topology must refresh before relying on it.
func (g *Grid) Neighbors(c Coord) []Coord {
	if g.neighbors == nil {
		g.RefreshNeighbors()
	}
	return g.neighbors[g.Index(c)]
}

// Stale reports whether a barrier or weight changed since the last RefreshNeighbors.
func (g *Grid) Stale() bool { return g.stale }

// RefreshNeighbors recomputes the neighbor list of every cell.
func (g *Grid) RefreshNeighbors() {
	if g.neighbors == nil {
		g.neighbors = make([][]Coord, len(g.cells))
	}
	for i := range g.cells {
		g.neighbors[i] = g.computeNeighbors(g.CoordOf(i), g.neighbors[i][:0])
	}
	g.stale = false
}

var neighborOffsets = [4]Coord{
	{Col: 0, Row: -1}, // up
	{Col: -1, Row: 0}, // left
	{Col: 0, Row: 1},  // down
	{Col: 1, Row: 0},  // right
}

func (g *Grid) computeNeighbors(c Coord, dst []Coord) []Coord {
	for _, off := range neighborOffsets {
		n := Coord{Col: c.Col + off.Col, Row: c.Row + off.Row}
		if !g.InBounds(n) || g.At(n).state == StateBarrier {
			continue
		}
		dst = append(dst, n)
	}
	return dst
}

// SetStart moves START to c. The previous START reverts to DEFAULT.
func (g *Grid) SetStart(c Coord) error {
	return g.placeEndpoint(c, StateStart)
}

// SetEnd moves END to c. The previous END reverts to DEFAULT.
func (g *Grid) SetEnd(c Coord) error {
	return g.placeEndpoint(c, StateEnd)
}

func (g *Grid) placeEndpoint(c Coord, role CellState) error {
	cell, err := g.Cell(c)
	if err != nil {
		return err
	}

	current := &g.start
	if role == StateEnd {
		current = &g.end
	}

	switch cell.state {
	case role:
		return nil
	case StateStart, StateEnd:
		return fmt.Errorf("%w: %s already holds %s", ErrInvalidPlacement, c, cell.state)
	case StateBarrier:
		return fmt.Errorf("%w: %s is a barrier", ErrInvalidPlacement, c)
	}

	g.At(*current).state = StateDefault
	cell.state = role
	cell.weight = MinWeight
	*current = c
	return nil
}

// SetBarrier makes c impassable. It is a no-op on START and END.
func (g *Grid) SetBarrier(c Coord) error {
	cell, err := g.Cell(c)
	if err != nil {
		return err
	}
	if cell.state.IsEndpoint() || cell.state == StateBarrier {
		return nil
	}
	cell.state = StateBarrier
	cell.visited = false
	g.stale = true
	return nil
}

// SetDefault clears any tag on c back to DEFAULT. It is a no-op on START and END.
func (g *Grid) SetDefault(c Coord) error {
	cell, err := g.Cell(c)
	if err != nil {
		return err
	}
	if cell.state.IsEndpoint() {
		return nil
	}
	if cell.state == StateBarrier {
		g.stale = true
	}
	cell.state = StateDefault
	return nil
}

// SetWeight sets the cost to enter c. START and END always keep MinWeight,
// so the call is a no-op on them.
func (g *Grid) SetWeight(c Coord, w int) error {
	cell, err := g.Cell(c)
	if err != nil {
		return err
	}
	if w < MinWeight || w > MaxWeight {
		return fmt.Errorf("%w: %d outside [%d,%d]", ErrInvalidWeight, w, MinWeight, MaxWeight)
	}
	if cell.state.IsEndpoint() || cell.weight == w {
		return nil
	}
	cell.weight = w
	g.stale = true
	return nil
}

// AdjustWeight adds delta to the weight of c, clamping to [MinWeight, MaxWeight].
func (g *Grid) AdjustWeight(c Coord, delta int) error {
	cell, err := g.Cell(c)
	if err != nil {
		return err
	}
	return g.SetWeight(c, min(MaxWeight, max(MinWeight, cell.weight+delta)))
}

// ClearSearch drops every transient tag and visited flag, preserving BARRIER, START and END.
func (g *Grid) ClearSearch() {
	for i := range g.cells {
		cell := &g.cells[i]
		cell.visited = false
		if cell.state.IsTransient() {
			cell.state = StateDefault
		}
	}
}

// ClearAll runs ClearSearch, removes every barrier and resets every weight to MinWeight.
func (g *Grid) ClearAll() {
	g.ClearSearch()
	for i := range g.cells {
		cell := &g.cells[i]
		if cell.state == StateBarrier {
			cell.state = StateDefault
		}
		cell.weight = MinWeight
	}
	g.stale = true
}

// RandomizeOptions controls Grid.Randomize.
type RandomizeOptions struct {
	// RelocateEndpoints moves START and END to distinct random cells.
	RelocateEndpoints bool `json:"relocate_endpoints" mapstructure:"relocate_endpoints"`
	// BarrierDensity is the probability in [0,1] that a non-endpoint cell becomes a barrier.
	BarrierDensity float64 `json:"barrier_density" mapstructure:"barrier_density"`
	// RandomWeights draws a uniform weight in [MinWeight, MaxWeight] for every passable cell.
	RandomWeights bool `json:"random_weights" mapstructure:"random_weights"`
}

// Randomize clears the grid and redraws endpoints, barriers and weights from rng.
func (g *Grid) Randomize(rng *rand.Rand, opts RandomizeOptions) {
	g.ClearAll()

	if opts.RelocateEndpoints && len(g.cells) > 1 {
		g.At(g.start).state = StateDefault
		g.At(g.end).state = StateDefault

		s := rng.IntN(len(g.cells))
		e := rng.IntN(len(g.cells) - 1)
		if e >= s {
			e++
		}
		g.start, g.end = g.CoordOf(s), g.CoordOf(e)
		g.At(g.start).state = StateStart
		g.At(g.end).state = StateEnd
	}

	density := min(1, max(0, opts.BarrierDensity))
	for i := range g.cells {
		cell := &g.cells[i]
		if cell.state.IsEndpoint() {
			continue
		}
		if density > 0 && rng.Float64() < density {
			cell.state = StateBarrier
			continue
		}
		if opts.RandomWeights {
			cell.weight = MinWeight + rng.IntN(MaxWeight-MinWeight+1)
		}
	}
}

// Clone returns a deep copy of the grid. The neighbor cache is rebuilt lazily.
func (g *Grid) Clone() *Grid {
	c := &Grid{
		cols:  g.cols,
		rows:  g.rows,
		cells: make([]Cell, len(g.cells)),
		start: g.start,
		end:   g.end,
		stale: true,
	}
	copy(c.cells, g.cells)
	return c
}

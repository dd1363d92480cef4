package search

import "github.com/aretw0/stepgrid/pkg/domain"

// Reconstructor walks the parent table of a finished pass from END back to START,
// one cell per Step.
type Reconstructor struct {
	pass    *Pass
	pos     domain.Coord
	started bool
	done    bool
}

// NewReconstructor returns a walker over p. p must have reached the goal.
func NewReconstructor(p *Pass) *Reconstructor {
	return &Reconstructor{pass: p}
}

// Step moves to the parent of the current position and tags it PATH_ELEMENT.
// It reports true once the parent resolved to START; later calls are no-ops.
func (r *Reconstructor) Step() bool {
	if r.done {
		return true
	}
	if !r.started {
		r.pos = r.pass.grid.End()
		r.started = true
	}

	parent, ok := r.pass.Parent(r.pos)
	if !ok || parent == r.pass.grid.Start() {
		r.done = true
		return true
	}
	r.pos = parent
	r.pass.grid.At(parent).Mark(domain.StatePathElement)
	return false
}

// Done reports whether the walk reached START.
func (r *Reconstructor) Done() bool { return r.done }

// Position returns the cell tagged by the latest Step.
func (r *Reconstructor) Position() (domain.Coord, bool) {
	return r.pos, r.started
}

// Trace returns the full path from START to END without tagging anything.
// It returns nil when the pass has not reached END.
func Trace(p *Pass) []domain.Coord {
	if !p.found {
		return nil
	}
	start, end := p.grid.Start(), p.grid.End()

	path := []domain.Coord{end}
	for c := end; c != start; {
		parent, ok := p.Parent(c)
		if !ok {
			return nil
		}
		path = append(path, parent)
		c = parent
		if len(path) > p.grid.Len() {
			return nil
		}
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Cost sums the weight of every cell entered along path, START excluded.
func Cost(g *domain.Grid, path []domain.Coord) int {
	total := 0
	for i, c := range path {
		if i == 0 {
			continue
		}
		total += g.At(c).Weight()
	}
	return total
}

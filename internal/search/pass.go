// Package search holds the working memory of one search pass and the per-algorithm
// step transitions. A Pass only stores cell indices into the grid it was created for;
// the grid keeps ownership of every cell.
package search

import (
	"fmt"

	"github.com/aretw0/stepgrid/pkg/domain"
)

// Outcome is the result of one Pass.Step.
type Outcome int

const (
	Continue    Outcome = iota // Frontier still holds live entries
	GoalReached                // END discovered or popped
	Exhausted                  // Frontier emptied without reaching END
)

func (o Outcome) String() string {
	switch o {
	case Continue:
		return "continue"
	case GoalReached:
		return "goal_reached"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

const noParent = -1

// strategy is the algorithm-specific part of a pass.
type strategy interface {
	// seed pushes the start cell.
	seed(p *Pass)
	// pop removes the next live cell from the frontier.
	pop(p *Pass) (int, bool)
	// expand discovers the neighbors of from and reports whether END was discovered.
	expand(p *Pass, from int) bool
	// hasLive reports whether the frontier still holds a live entry.
	hasLive(p *Pass) bool
	// frontier lists the live entries in pop order when cheap, heap order otherwise.
	frontier(p *Pass) []int
	// goalOnPop reports whether END is detected when popped rather than discovered.
	goalOnPop() bool
}

// Pass is the working memory of one search from START to END.
type Pass struct {
	grid      *domain.Grid
	algorithm domain.Algorithm
	strategy  strategy

	parent  []int
	current int
	steps   int
	seq     uint64

	found     bool
	exhausted bool
}

// NewPass prepares a pass over g. The grid must not change topology while the pass
// is in progress without a reset.
func NewPass(g *domain.Grid, algorithm domain.Algorithm) (*Pass, error) {
	p := &Pass{
		grid:      g,
		algorithm: algorithm,
		parent:    make([]int, g.Len()),
		current:   noParent,
	}
	for i := range p.parent {
		p.parent[i] = noParent
	}

	switch algorithm {
	case domain.AlgorithmBFS:
		p.strategy = &bfs{}
	case domain.AlgorithmDFS:
		p.strategy = &dfs{}
	case domain.AlgorithmDijkstra:
		p.strategy = newDijkstra(g.Len())
	case domain.AlgorithmAStar:
		p.strategy = newAStar(g.Len())
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAlgorithm, algorithm)
	}
	return p, nil
}

// Step advances the search by one frontier pop. The first call seeds the frontier
// with START and pops it in the same call. Once the pass has an outcome other than
// Continue, further calls return that outcome without touching the grid.
func (p *Pass) Step() Outcome {
	if p.found {
		return GoalReached
	}
	if p.exhausted {
		return Exhausted
	}

	if p.steps == 0 {
		p.strategy.seed(p)
	} else if p.current != noParent {
		p.mark(p.current, domain.StateClosed)
	}
	p.steps++

	cur, ok := p.strategy.pop(p)
	if !ok {
		p.exhausted = true
		return Exhausted
	}
	p.current = cur
	p.mark(cur, domain.StateActive)

	end := p.grid.Index(p.grid.End())
	if p.strategy.goalOnPop() && cur == end {
		p.found = true
		return GoalReached
	}
	if p.strategy.expand(p, cur) {
		p.found = true
		return GoalReached
	}

	if !p.strategy.hasLive(p) {
		p.mark(cur, domain.StateClosed)
		p.exhausted = true
		return Exhausted
	}
	return Continue
}

// Algorithm returns the algorithm driving the pass.
func (p *Pass) Algorithm() domain.Algorithm { return p.algorithm }

// Steps counts the Step calls that did work. Zero means the frontier is not seeded yet.
func (p *Pass) Steps() int { return p.steps }

// Found reports whether END was reached.
func (p *Pass) Found() bool { return p.found }

// Exhausted reports whether the frontier emptied without reaching END.
func (p *Pass) Exhausted() bool { return p.exhausted }

// Current returns the cell considered by the latest step.
func (p *Pass) Current() (domain.Coord, bool) {
	if p.current == noParent {
		return domain.Coord{}, false
	}
	return p.grid.CoordOf(p.current), true
}

// CloseCurrent tags the current cell CLOSED. Used when the pass hands over to path
// reconstruction.
func (p *Pass) CloseCurrent() {
	if p.current != noParent {
		p.mark(p.current, domain.StateClosed)
	}
}

// Parent returns the cell that discovered c. START and undiscovered cells have none.
func (p *Pass) Parent(c domain.Coord) (domain.Coord, bool) {
	i := p.parent[p.grid.Index(c)]
	if i == noParent {
		return domain.Coord{}, false
	}
	return p.grid.CoordOf(i), true
}

// Frontier returns the live frontier entries.
func (p *Pass) Frontier() []domain.Coord {
	if p.steps == 0 {
		return nil
	}
	idx := p.strategy.frontier(p)
	out := make([]domain.Coord, len(idx))
	for i, c := range idx {
		out[i] = p.grid.CoordOf(c)
	}
	return out
}

func (p *Pass) mark(i int, s domain.CellState) {
	p.grid.At(p.grid.CoordOf(i)).Mark(s)
}

func (p *Pass) cell(i int) *domain.Cell {
	return p.grid.At(p.grid.CoordOf(i))
}

func (p *Pass) nextSeq() uint64 {
	p.seq++
	return p.seq
}

// neighbors returns the passable neighbors of i as indices, in grid order.
func (p *Pass) neighbors(i int, dst []int) []int {
	for _, n := range p.grid.Neighbors(p.grid.CoordOf(i)) {
		dst = append(dst, p.grid.Index(n))
	}
	return dst
}

type scorer interface {
	Score(c int) (int, bool)
}

// Score returns the best known cost from START to c for weighted passes.
func (p *Pass) Score(c domain.Coord) (int, bool) {
	if s, ok := p.strategy.(scorer); ok {
		return s.Score(p.grid.Index(c))
	}
	return 0, false
}

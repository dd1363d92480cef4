package search

import (
	"container/heap"
	"math"

	"github.com/aretw0/stepgrid/pkg/domain"
)

const infinity = math.MaxInt

// weighted is the shared core of Dijkstra and A*: a score map, a lazily pruned heap and
// the set of cells holding a live entry. Entering a cell costs its weight.
type weighted struct {
	score     []int
	open      []bool
	queue     priorityQueue
	heuristic func(domain.Coord) int
}

func newWeighted(n int) weighted {
	w := weighted{
		score: make([]int, n),
		open:  make([]bool, n),
	}
	for i := range w.score {
		w.score[i] = infinity
	}
	return w
}

func (s *weighted) priority(p *Pass, cell, score int) int {
	if s.heuristic == nil {
		return score
	}
	return score + s.heuristic(p.grid.CoordOf(cell))
}

func (s *weighted) push(p *Pass, cell, score int) {
	s.score[cell] = score
	s.open[cell] = true
	heap.Push(&s.queue, queueItem{
		Cell:     cell,
		Score:    score,
		Priority: s.priority(p, cell, score),
		Seq:      p.nextSeq(),
	})
}

func (s *weighted) seed(p *Pass) {
	s.push(p, p.grid.Index(p.grid.Start()), 0)
}

// live reports whether item is the authoritative entry for its cell.
func (s *weighted) live(item queueItem) bool {
	return s.open[item.Cell] && item.Score == s.score[item.Cell]
}

func (s *weighted) prune() {
	for s.queue.Len() > 0 && !s.live(s.queue[0]) {
		heap.Pop(&s.queue)
	}
}

func (s *weighted) pop(p *Pass) (int, bool) {
	s.prune()
	if s.queue.Len() == 0 {
		return 0, false
	}
	item := heap.Pop(&s.queue).(queueItem)
	s.open[item.Cell] = false
	return item.Cell, true
}

// expand relaxes every neighbor of from. A neighbor is re-pushed only on strict
// improvement; its older entry becomes stale and is dropped when it surfaces.
func (s *weighted) expand(p *Pass, from int) bool {
	var buf [4]int
	for _, n := range p.neighbors(from, buf[:0]) {
		candidate := s.score[from] + p.cell(n).Weight()
		if candidate >= s.score[n] {
			continue
		}
		p.parent[n] = from
		s.push(p, n, candidate)
		p.mark(n, domain.StateInQueue)
	}
	return false
}

func (s *weighted) hasLive(p *Pass) bool {
	s.prune()
	return s.queue.Len() > 0
}

func (s *weighted) frontier(p *Pass) []int {
	var out []int
	for _, item := range s.queue {
		if s.live(item) {
			out = append(out, item.Cell)
		}
	}
	return out
}

func (s *weighted) goalOnPop() bool { return true }

// Score returns the best known cost from START to c, or false if c was never reached.
func (s *weighted) Score(c int) (int, bool) {
	if s.score[c] == infinity {
		return 0, false
	}
	return s.score[c], true
}

// dijkstra orders the frontier by cost-so-far.
type dijkstra struct {
	weighted
}

func newDijkstra(n int) *dijkstra {
	return &dijkstra{weighted: newWeighted(n)}
}

// astar orders the frontier by cost-so-far plus the Manhattan distance to END.
// With every weight at least 1 the heuristic is consistent, so the first pop of END
// carries the optimal cost.
type astar struct {
	weighted
}

func newAStar(n int) *astar {
	return &astar{weighted: newWeighted(n)}
}

func (s *astar) seed(p *Pass) {
	end := p.grid.End()
	s.heuristic = func(c domain.Coord) int { return domain.Manhattan(c, end) }
	s.weighted.seed(p)
}

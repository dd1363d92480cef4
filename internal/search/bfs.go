package search

import "github.com/aretw0/stepgrid/pkg/domain"

// bfs expands cells in discovery order.
type bfs struct {
	queue []int
	head  int
}

func (s *bfs) seed(p *Pass) {
	start := seedVisited(p)
	s.queue = append(s.queue[:0], start)
	s.head = 0
}

func (s *bfs) pop(p *Pass) (int, bool) {
	if s.head >= len(s.queue) {
		return 0, false
	}
	c := s.queue[s.head]
	s.head++
	return c, true
}

func (s *bfs) expand(p *Pass, from int) bool {
	return discover(p, from, func(n int) { s.queue = append(s.queue, n) })
}

func (s *bfs) hasLive(p *Pass) bool { return s.head < len(s.queue) }

func (s *bfs) frontier(p *Pass) []int {
	return append([]int(nil), s.queue[s.head:]...)
}

func (s *bfs) goalOnPop() bool { return false }

// dfs expands the most recently discovered cell first.
type dfs struct {
	stack []int
}

func (s *dfs) seed(p *Pass) {
	s.stack = append(s.stack[:0], seedVisited(p))
}

func (s *dfs) pop(p *Pass) (int, bool) {
	n := len(s.stack)
	if n == 0 {
		return 0, false
	}
	c := s.stack[n-1]
	s.stack = s.stack[:n-1]
	return c, true
}

func (s *dfs) expand(p *Pass, from int) bool {
	return discover(p, from, func(n int) { s.stack = append(s.stack, n) })
}

func (s *dfs) hasLive(p *Pass) bool { return len(s.stack) > 0 }

// frontier lists the stack top first.
func (s *dfs) frontier(p *Pass) []int {
	out := make([]int, len(s.stack))
	for i, c := range s.stack {
		out[len(s.stack)-1-i] = c
	}
	return out
}

func (s *dfs) goalOnPop() bool { return false }

// seedVisited clears leftover visited flags and marks START visited.
func seedVisited(p *Pass) int {
	p.grid.Each(func(c *domain.Cell) { c.SetVisited(false) })
	start := p.grid.Index(p.grid.Start())
	p.cell(start).SetVisited(true)
	return start
}

// discover marks every unvisited neighbor of from visited, records from as its parent
// and hands it to push. It stops and reports true as soon as END is discovered; END
// itself is never queued.
func discover(p *Pass, from int, push func(int)) bool {
	end := p.grid.Index(p.grid.End())
	var buf [4]int
	for _, n := range p.neighbors(from, buf[:0]) {
		c := p.cell(n)
		if c.Visited() {
			continue
		}
		c.SetVisited(true)
		p.parent[n] = from
		if n == end {
			return true
		}
		c.Mark(domain.StateInQueue)
		push(n)
	}
	return false
}

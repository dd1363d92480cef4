package domain

import (
	"fmt"
	"strings"
)

// Algorithm names a search strategy.
type Algorithm string

const (
	AlgorithmBFS      Algorithm = "BFS"
	AlgorithmDFS      Algorithm = "DFS"
	AlgorithmDijkstra Algorithm = "DIJKSTRA"
	AlgorithmAStar    Algorithm = "A*"
)

// Algorithms lists every supported algorithm in presentation order.
var Algorithms = []Algorithm{AlgorithmBFS, AlgorithmDFS, AlgorithmDijkstra, AlgorithmAStar}

// ParseAlgorithm resolves a name case-insensitively. "ASTAR" and "A-STAR" are accepted for A*.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "BFS":
		return AlgorithmBFS, nil
	case "DFS":
		return AlgorithmDFS, nil
	case "DIJKSTRA":
		return AlgorithmDijkstra, nil
	case "A*", "ASTAR", "A-STAR":
		return AlgorithmAStar, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// Weighted reports whether the algorithm charges the weight of the entered cell.
func (a Algorithm) Weighted() bool {
	return a == AlgorithmDijkstra || a == AlgorithmAStar
}

/*
Package stepgrid is an interruptible pathfinding engine for weighted 2D grids.

It runs breadth-first search, depth-first search, Dijkstra and A* one bounded step at a time,
so a host can draw the search as it unfolds, pause it, or abandon it at any point. Every cell
carries a semantic tag (START, END, BARRIER, IN_QUEUE, ACTIVE, CLOSED, PATH_ELEMENT) that a
renderer reads between steps.

# Concept

The engine is a small state machine: IDLE, RUNNING, GOAL_FOUND, then PATH_DONE or EXHAUSTED.
While running, each Step pops one frontier entry and expands it. Once END is reached, each Step
tags one more cell of the path, walking back from END to START. Terminal steps are no-ops.

Any edit to the grid while a pass is in flight (toggling barriers, moving endpoints, changing
weights, switching algorithm) resets the pass first.

# Usage

	eng, err := stepgrid.New([]byte("START 1 1\n#  # 1\n1  1 END\n"),
		stepgrid.WithAlgorithm(domain.AlgorithmAStar),
	)
	if err != nil {
		log.Fatal(err)
	}

	for !eng.IsDone() {
		eng.Step()
		draw(eng.Snapshot())
	}
	fmt.Println(eng.Path(), eng.PathCost())

Templates can also be read from a Loam repository of Markdown documents with Load, and
servers host many engines through pkg/session.
*/
package stepgrid

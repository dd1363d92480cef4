package search

// queueItem is one heap entry. A cell may be present several times; only the entry whose
// score still matches the authoritative score map is live.
type queueItem struct {
	Cell     int
	Score    int // cost-so-far when pushed
	Priority int // Score for Dijkstra, Score + heuristic for A*
	Seq      uint64
}

// priorityQueue is a container/heap min-heap ordered by priority, then insertion order.
type priorityQueue []queueItem

func (queue priorityQueue) Len() int { return len(queue) }
func (queue priorityQueue) Less(i, j int) bool {
	if queue[i].Priority != queue[j].Priority {
		return queue[i].Priority < queue[j].Priority
	}
	return queue[i].Seq < queue[j].Seq
}
func (queue priorityQueue) Swap(i, j int) { queue[i], queue[j] = queue[j], queue[i] }

func (queue *priorityQueue) Push(x any) {
	*queue = append(*queue, x.(queueItem))
}

func (queue *priorityQueue) Pop() any {
	oldQueue := *queue
	n := len(oldQueue)
	item := oldQueue[n-1]
	*queue = oldQueue[:n-1]
	return item
}

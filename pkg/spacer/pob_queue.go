package spacer

import (
	"container/heap"
)

// PobQueue orders open obligations by ascending level, then descending
// depth, then fewer post literals, then creation order.
type PobQueue struct {
	root     *Pob
	heap     pobHeap
	maxLevel int
	minDepth int
}

type pobHeap []*Pob

func (h pobHeap) Len() int { return len(h) }

func (h pobHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.level != b.level {
		return a.level < b.level
	}
	if a.depth != b.depth {
		return a.depth > b.depth
	}
	if len(a.post) != len(b.post) {
		return len(a.post) < len(b.post)
	}
	return a.id < b.id
}

func (h pobHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}

func (h *pobHeap) Push(x interface{}) {
	n := x.(*Pob)
	n.heapIndex = len(*h)
	*h = append(*h, n)
}

func (h *pobHeap) Pop() interface{} {
	old := *h
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*h = old[:len(old)-1]
	n.heapIndex = -1
	return n
}

func (q *PobQueue) Len() int      { return q.heap.Len() }
func (q *PobQueue) MaxLevel() int { return q.maxLevel }
func (q *PobQueue) MinDepth() int { return q.minDepth }
func (q *PobQueue) Root() *Pob    { return q.root }

func (q *PobQueue) IsRoot(n *Pob) bool {
	return n != nil && n == q.root
}

// SetRoot installs the query obligation and empties the queue.
func (q *PobQueue) SetRoot(root *Pob, maxLevel, minDepth int) {
	q.clear()
	q.root = root
	q.maxLevel = maxLevel
	q.minDepth = minDepth
	q.Reset()
}

// Push enqueues n. Closed and already queued obligations are ignored.
func (q *PobQueue) Push(n *Pob) {
	if n.IsClosed() || n.heapIndex >= 0 {
		return
	}
	heap.Push(&q.heap, n)
}

// Top returns the next obligation, or nil when the queue is empty or
// the next obligation is above the current level.
func (q *PobQueue) Top() *Pob {
	if q.heap.Len() == 0 {
		return nil
	}
	n := q.heap[0]
	if n.IsClosed() {
		panic("spacer: closed " + n.String() + " at the top of the queue")
	}
	if n.level > q.maxLevel {
		return nil
	}
	return n
}

func (q *PobQueue) Pop() *Pob {
	if q.heap.Len() == 0 {
		return nil
	}
	return heap.Pop(&q.heap).(*Pob)
}

// Remove takes n out of the queue if it is queued.
func (q *PobQueue) Remove(n *Pob) {
	if n.heapIndex < 0 {
		return
	}
	heap.Remove(&q.heap, n.heapIndex)
}

// Fix restores the order after the post or level of a queued n changed.
func (q *PobQueue) Fix(n *Pob) {
	if n.heapIndex >= 0 {
		heap.Fix(&q.heap, n.heapIndex)
	}
}

// IncLevel opens the next level. A root that left the queue is raised to
// the new level and queued again.
func (q *PobQueue) IncLevel() {
	q.maxLevel++
	q.minDepth++
	r := q.root
	if r == nil || r.IsClosed() || r.heapIndex >= 0 {
		return
	}
	for r.level < q.maxLevel {
		r.IncLevel()
	}
	q.Push(r)
}

// Reset drops every obligation but the root.
func (q *PobQueue) Reset() {
	q.clear()
	if q.root != nil {
		q.Push(q.root)
	}
}

func (q *PobQueue) clear() {
	for _, n := range q.heap {
		n.heapIndex = -1
	}
	q.heap = q.heap[:0]
}

package search

import "container/heap"

// openEntry is one frontier slot: a node id plus its f(n) priority
// (SPEC_FULL.md §4.5 "a priority queue keyed by node id with priority
// f(n)"). The heap pattern mirrors the teacher's astar.go/cbs.go
// index-tracked heap.Interface implementations.
type openEntry struct {
	nodeID int
	value  float64
	index  int
}

type openHeap []*openEntry

func (h openHeap) Len() int           { return len(h) }
func (h openHeap) Less(i, j int) bool { return h[i].value < h[j].value }
func (h openHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *openHeap) Push(x interface{}) {
	e := x.(*openEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *openHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return e
}

func newOpen() *openHeap {
	h := &openHeap{}
	heap.Init(h)
	return h
}

func (h *openHeap) push(nodeID int, value float64) {
	heap.Push(h, &openEntry{nodeID: nodeID, value: value})
}

func (h *openHeap) pop() (int, bool) {
	if h.Len() == 0 {
		return 0, false
	}
	return heap.Pop(h).(*openEntry).nodeID, true
}

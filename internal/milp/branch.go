package milp

import (
	"container/heap"
	"context"

	"github.com/elektrokombinacija/itags-scheduler/internal/domain"
	"github.com/elektrokombinacija/itags-scheduler/internal/mutexset"
	"github.com/elektrokombinacija/itags-scheduler/internal/taskinfo"
)

// fractionalTolerance decides when a relaxed mutex variable counts as
// integral, matching the kind of tolerance GoMILP threads through as `tol`.
const fractionalTolerance = 1e-6

// layout fixes the column index of every LP variable so every node in the
// branch-and-bound tree solves against the same variable ordering.
type layout struct {
	starts   map[domain.TaskID]int
	makespan int
	mutex    map[mutexset.Pair]int
	order    []mutexset.Pair // stable iteration order matching mutex's values
}

type mutexBounds map[mutexset.Pair][2]float64

// branchAndBound explores mutex-indicator assignments best-first, using
// the LP relaxation objective as the bound, following the
// enumeration-tree architecture of the jjhbw/GoMILP `ilp` package
// (SPEC_FULL.md "DOMAIN STACK"). The open frontier is a container/heap
// priority queue, the same pattern the teacher repo uses for A* and CBS
// search frontiers.
type branchAndBound struct {
	inst         *domain.Instance
	alloc        domain.Allocation
	ti           *taskinfo.AllTasksInfo
	xi           *taskinfo.AllTransitionsInfo
	mset         *mutexset.Set
	bigM         float64
	hierarchical bool
	layout       layout
}

func newBranchAndBound(inst *domain.Instance, alloc domain.Allocation, ti *taskinfo.AllTasksInfo, xi *taskinfo.AllTransitionsInfo, mset *mutexset.Set, bigM float64, hierarchical bool) *branchAndBound {
	lo := layout{starts: make(map[domain.TaskID]int), mutex: make(map[mutexset.Pair]int)}
	idx := 0
	for _, t := range inst.Tasks {
		lo.starts[t.ID] = idx
		idx++
	}
	lo.makespan = idx
	idx++
	for _, p := range mset.Pairs() {
		lo.mutex[p] = idx
		lo.order = append(lo.order, p)
		idx++
	}
	return &branchAndBound{inst: inst, alloc: alloc, ti: ti, xi: xi, mset: mset, bigM: bigM, hierarchical: hierarchical, layout: lo}
}

type incumbent struct {
	starts    map[domain.TaskID]float64
	makespan  float64
	mutex     map[mutexset.Pair]bool
	objective float64
}

type bbNode struct {
	bounds mutexBounds
	values []float64
	obj    float64
	index  int
}

type bbHeap []*bbNode

func (h bbHeap) Len() int            { return len(h) }
func (h bbHeap) Less(i, j int) bool  { return h[i].obj < h[j].obj }
func (h bbHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *bbHeap) Push(x interface{}) { n := x.(*bbNode); n.index = len(*h); *h = append(*h, n) }
func (h *bbHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return x
}

// run explores the branch-and-bound tree until an optimal integral
// solution is confirmed, the frontier is exhausted (infeasible problem), or
// ctx is done. timedOut is true whenever ctx reports an error at the final
// check, including a run whose tree was fully explored just as ctx ended.
func (bb *branchAndBound) run(ctx context.Context) (best *incumbent, timedOut bool) {
	rootBounds := make(mutexBounds, len(bb.layout.order))
	for _, p := range bb.layout.order {
		rootBounds[p] = [2]float64{0, 1}
	}

	root, feasible := bb.solveNode(rootBounds)
	if !feasible {
		return nil, false
	}

	open := &bbHeap{root}
	heap.Init(open)

	for open.Len() > 0 {
		if ctx.Err() != nil {
			return best, true
		}

		node := heap.Pop(open).(*bbNode)
		if best != nil && node.obj >= best.objective-fractionalTolerance {
			continue // bound test: this subtree cannot beat the incumbent
		}

		branchPair, frac, isIntegral := bb.mostFractional(node)
		if isIntegral {
			cand := bb.extractIncumbent(node)
			if best == nil || cand.objective < best.objective {
				best = cand
			}
			continue
		}

		for _, fixTo := range [2]float64{0, 1} {
			childBounds := make(mutexBounds, len(node.bounds))
			for k, v := range node.bounds {
				childBounds[k] = v
			}
			childBounds[branchPair] = [2]float64{fixTo, fixTo}
			_ = frac
			if child, ok := bb.solveNode(childBounds); ok {
				heap.Push(open, child)
			}
		}
	}

	return best, ctx.Err() != nil
}

func (bb *branchAndBound) solveNode(bounds mutexBounds) (*bbNode, bool) {
	b := bb.buildLP(bounds)
	values, obj, err := b.solveRelaxation()
	if err != nil {
		return nil, false
	}
	return &bbNode{bounds: bounds, values: values, obj: obj}, true
}

// mostFractional returns the mutex pair farthest from an integral value, or
// isIntegral=true if every mutex variable in node.values is already within
// fractionalTolerance of 0 or 1.
func (bb *branchAndBound) mostFractional(node *bbNode) (pair mutexset.Pair, frac float64, isIntegral bool) {
	best := -1.0
	isIntegral = true
	for _, p := range bb.layout.order {
		v := node.values[bb.layout.mutex[p]]
		dist := v
		if v > 0.5 {
			dist = 1 - v
		}
		if dist > fractionalTolerance {
			isIntegral = false
			if dist > best {
				best = dist
				pair = p
				frac = v
			}
		}
	}
	return pair, frac, isIntegral
}

func (bb *branchAndBound) extractIncumbent(node *bbNode) *incumbent {
	starts := make(map[domain.TaskID]float64, len(bb.layout.starts))
	for t, idx := range bb.layout.starts {
		starts[t] = node.values[idx]
	}
	mutex := make(map[mutexset.Pair]bool, len(bb.layout.mutex))
	for p, idx := range bb.layout.mutex {
		mutex[p] = node.values[idx] > 0.5
	}
	return &incumbent{
		starts:    starts,
		makespan:  node.values[bb.layout.makespan],
		mutex:     mutex,
		objective: node.obj,
	}
}

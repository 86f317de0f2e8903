package milp

import (
	"fmt"

	"github.com/elektrokombinacija/itags-scheduler/internal/domain"
	"github.com/elektrokombinacija/itags-scheduler/internal/mutexset"
)

// PrecedenceEdge names one precedence-induced row of the LP, used as a key
// for the Benders cut's per-edge dual multiplier beta_ij.
type PrecedenceEdge struct{ From, To domain.TaskID }

// rowMap records which builder row index backs each named constraint of
// buildLP, so Subproblem.Solve (internal/milp/subproblem.go) can perturb a
// specific row's right-hand side to estimate its shadow price without
// hand-deriving a dual simplex.
type rowMap struct {
	makespan   map[domain.TaskID]int
	precedence map[PrecedenceEdge]int
	mutexA     map[mutexset.Pair]int
	mutexB     map[mutexset.Pair]int
}

// buildLP lowers one branch-and-bound node's mutex bounds into the
// standard-form LP described by SPEC_FULL.md §4.3: start-time variables
// s_i, a shared makespan variable M, and one relaxed mutex indicator per
// pair in bb.layout.order, tied together by precedence and big-M
// disjunctive mutex constraints.
func (bb *branchAndBound) buildLP(bounds mutexBounds) *builder {
	b, _ := bb.buildLPWithRows(bounds)
	return b
}

func (bb *branchAndBound) buildLPWithRows(bounds mutexBounds) (*builder, *rowMap) {
	b := newBuilder()
	rows := &rowMap{
		makespan:   make(map[domain.TaskID]int),
		precedence: make(map[PrecedenceEdge]int),
		mutexA:     make(map[mutexset.Pair]int),
		mutexB:     make(map[mutexset.Pair]int),
	}

	for _, t := range bb.inst.Tasks {
		b.addVar(fmt.Sprintf("s_%d", t.ID), bb.lowerBound(t.ID), posInf)
	}
	makespanIdx := b.addVar("M", 0, posInf)
	for _, p := range bb.layout.order {
		bnd := bounds[p]
		b.addVar(fmt.Sprintf("p_%d_%d", p.A, p.B), bnd[0], bnd[1])
	}

	b.setObjective(makespanIdx, 1)

	// The rows below are written over the real variables; the builder's rows
	// are over shifted variables (x - lo), so each row's rhs is moved by
	// sum(coef * lo) before it is added.
	addLE := func(coeffs map[int]float64, rhs float64) {
		for idx, coef := range coeffs {
			rhs -= coef * b.vars[idx].lo
		}
		b.addLE(coeffs, rhs)
	}

	// M >= s_i + d_i  =>  s_i - M <= -d_i
	for _, t := range bb.inst.Tasks {
		sIdx := bb.layout.starts[t.ID]
		addLE(map[int]float64{sIdx: 1, makespanIdx: -1}, -bb.duration(t.ID))
		rows.makespan[t.ID] = len(b.rows) - 1
	}

	// precedence: s_j - s_i >= d_i + x_ij  =>  s_i - s_j <= -(d_i + x_ij)
	if bb.inst.Plan != nil {
		for _, e := range bb.inst.Plan.DirectEdges() {
			si := bb.layout.starts[e.From]
			sj := bb.layout.starts[e.To]
			rhs := -(bb.duration(e.From) + bb.transition(e.From, e.To))
			addLE(map[int]float64{si: 1, sj: -1}, rhs)
			rows.precedence[PrecedenceEdge{From: e.From, To: e.To}] = len(b.rows) - 1
		}
	}

	// mutex disjunction: p=1 means A precedes B, p=0 means B precedes A.
	// s_B - s_A >= d_A + x_AB - M(1-p)   and   s_A - s_B >= d_B + x_BA - M*p
	for _, p := range bb.layout.order {
		pIdx := bb.layout.mutex[p]
		sA := bb.layout.starts[p.A]
		sB := bb.layout.starts[p.B]
		dA, dB := bb.duration(p.A), bb.duration(p.B)
		xAB, xBA := bb.transition(p.A, p.B), bb.transition(p.B, p.A)

		addLE(map[int]float64{sA: 1, sB: -1, pIdx: bb.bigM}, bb.bigM-dA-xAB)
		rows.mutexA[p] = len(b.rows) - 1
		addLE(map[int]float64{sB: 1, sA: -1, pIdx: -bb.bigM}, -dB-xBA)
		rows.mutexB[p] = len(b.rows) - 1
	}

	return b, rows
}

func (bb *branchAndBound) duration(t domain.TaskID) float64 {
	info := bb.ti.Get(t)
	if info == nil {
		return 0
	}
	return info.Duration
}

// lowerBound returns L_i, the task info layer's max-over-coalition
// initial-transition bound (SPEC_FULL.md §4.3's "s_i >= L_i"). s_i's LP
// bound is seeded with it directly rather than left at the LP's default
// zero lower bound, so infeasible-looking-cheap starts are excluded from
// every branch-and-bound node and Benders subproblem that shares buildLP.
func (bb *branchAndBound) lowerBound(t domain.TaskID) float64 {
	info := bb.ti.Get(t)
	if info == nil {
		return 0
	}
	return info.LowerBound()
}

func (bb *branchAndBound) transition(from, to domain.TaskID) float64 {
	txi := bb.xi.Get(from, to)
	if txi == nil {
		return 0
	}
	return txi.LowerBound()
}

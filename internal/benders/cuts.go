package benders

import (
	"github.com/elektrokombinacija/itags-scheduler/internal/domain"
	"github.com/elektrokombinacija/itags-scheduler/internal/milp"
	"github.com/elektrokombinacija/itags-scheduler/internal/mutexset"
	"github.com/elektrokombinacija/itags-scheduler/internal/taskinfo"
)

// OptimalityCut is one scenario's lazy optimality cut (SPEC_FULL.md §4.4):
// theta^q >= LowerBound, assembled from the subproblem's dual multipliers.
// This port's master (internal/benders/master.go) evaluates a fixed set of
// candidate orientations rather than running a true lazy-constraint
// branch-and-bound, so cuts are recorded for diagnostics only; candidates
// are ranked by their aggregate makespan, and cuts are not fed back into an
// integer master solver; see DESIGN.md.
type OptimalityCut struct {
	ScenarioID int
	LowerBound float64
}

// buildCut assembles the right-hand side of the optimality cut formula
// from a solved Subproblem's shadow prices. The cut has no L_i * eta_i
// term: L_i enters the LP as the start variable's lower bound rather than
// as a row, so no eta_i dual is estimated (see milp.SubproblemSolution's
// doc comment), and the cut omits the contribution of nonzero L_i.
func buildCut(scenarioID int, sol *milp.SubproblemSolution, ti *taskinfo.AllTasksInfo, xi *taskinfo.AllTransitionsInfo, bigM float64, fixed map[mutexset.Pair]bool) OptimalityCut {
	rhs := 0.0

	for taskID, eps := range sol.MakespanDual {
		if info := ti.Get(taskID); info != nil {
			rhs += info.Duration * eps
		}
	}

	for edge, beta := range sol.PrecedenceDual {
		d, x := 0.0, 0.0
		if info := ti.Get(edge.From); info != nil {
			d = info.Duration
		}
		if txi := xi.Get(edge.From, edge.To); txi != nil {
			x = txi.LowerBound()
		}
		rhs += (d + x) * beta
	}

	for pair, gamma := range sol.MutexDualA {
		dA, xAB := taskDurAndTrans(ti, xi, pair.A, pair.B)
		p := 0.0
		if fixed[pair] {
			p = 1
		}
		a := bigM * (1 - p)
		rhs += (dA + xAB - a) * gamma
	}

	for pair, delta := range sol.MutexDualB {
		dB, xBA := taskDurAndTrans(ti, xi, pair.B, pair.A)
		p := 0.0
		if fixed[pair] {
			p = 1
		}
		b := bigM * p
		rhs += (dB + xBA - b) * delta
	}

	return OptimalityCut{ScenarioID: scenarioID, LowerBound: rhs}
}

func taskDurAndTrans(ti *taskinfo.AllTasksInfo, xi *taskinfo.AllTransitionsInfo, task, next domain.TaskID) (float64, float64) {
	d := 0.0
	if info := ti.Get(task); info != nil {
		d = info.Duration
	}
	x := 0.0
	if txi := xi.Get(task, next); txi != nil {
		x = txi.LowerBound()
	}
	return d, x
}

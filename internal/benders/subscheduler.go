package benders

import (
	"context"

	"github.com/elektrokombinacija/itags-scheduler/internal/domain"
	"github.com/elektrokombinacija/itags-scheduler/internal/failure"
	"github.com/elektrokombinacija/itags-scheduler/internal/milp"
	"github.com/elektrokombinacija/itags-scheduler/internal/mutexset"
	"github.com/elektrokombinacija/itags-scheduler/internal/oracle"
	"github.com/elektrokombinacija/itags-scheduler/internal/scenario"
	"github.com/elektrokombinacija/itags-scheduler/internal/schedule"
	"github.com/elektrokombinacija/itags-scheduler/internal/taskinfo"
	"github.com/elektrokombinacija/itags-scheduler/internal/timekeeper"
)

// scenarioContext is everything a scenario's Subproblem LPs need, built
// once and reused across every candidate mutex orientation so per-scenario
// oracle queries are paid for exactly once (SPEC_FULL.md §4.4 "Each
// subproblem is structurally the deterministic scheduler parameterized by
// scenario q").
type scenarioContext struct {
	scenario  scenario.Scenario
	ti        *taskinfo.AllTasksInfo
	xi        *taskinfo.AllTransitionsInfo
	bigM      float64
	schedule  *schedule.Schedule // the scenario's own unconstrained-master optimum
	candidate map[mutexset.Pair]bool
}

// buildScenarioContext runs the full deterministic scheduler for one
// scenario (to get both a standalone makespan for selection and a
// strong candidate mutex orientation for the master) and separately
// materializes the task/transition info the Subproblem LPs need.
func buildScenarioContext(ctx context.Context, inst *domain.Instance, alloc domain.Allocation, base oracle.Oracle, s scenario.Scenario, mset *mutexset.Set, params milp.Params, tk *timekeeper.Timekeeper) (*scenarioContext, failure.Reason) {
	scaled := scenario.Wrap(base, s)

	det, rerr := milp.NewScheduler(scaled, params, tk).Solve(ctx, inst, alloc)
	if rerr != nil {
		return nil, rerr
	}

	ti, rerr := taskinfo.BuildAllTasksInfo(inst, alloc, scaled)
	if rerr != nil {
		return nil, rerr
	}
	pairs := milp.NeededPairs(inst, mset)
	xi, rerr := taskinfo.BuildTransitionInfo(inst, alloc, pairs, scaled)
	if rerr != nil {
		return nil, rerr
	}
	bigM := milp.WorstCaseMakespan(inst, ti, xi)

	candidate := make(map[mutexset.Pair]bool, len(det.PrecedenceSetByMutex))
	for _, e := range det.PrecedenceSetByMutex {
		if p, ok := normalizePair(e); ok {
			candidate[p] = e.From == p.A
		}
	}

	return &scenarioContext{scenario: s, ti: ti, xi: xi, bigM: bigM, schedule: det, candidate: candidate}, nil
}

func normalizePair(e domain.Edge) (mutexset.Pair, bool) {
	if e.From == e.To {
		return mutexset.Pair{}, false
	}
	if e.From < e.To {
		return mutexset.Pair{A: e.From, B: e.To}, true
	}
	return mutexset.Pair{A: e.To, B: e.From}, true
}

// evaluate solves this scenario's Subproblem under a candidate master
// orientation and returns both the primal makespan and the optimality cut
// assembled from its shadow prices.
func (sc *scenarioContext) evaluate(alloc domain.Allocation, inst *domain.Instance, mset *mutexset.Set, fixed map[mutexset.Pair]bool) (float64, OptimalityCut, error) {
	sp := milp.NewSubproblem(inst, alloc, sc.ti, sc.xi, mset, sc.bigM, fixed)
	sol, err := sp.Solve()
	if err != nil {
		return 0, OptimalityCut{}, err
	}
	cut := buildCut(sc.scenario.ID, sol, sc.ti, sc.xi, sc.bigM, fixed)
	return sol.Makespan, cut, nil
}

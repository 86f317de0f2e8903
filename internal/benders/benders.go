// Package benders implements the Stochastic Master + Subschedulers
// component (SPEC_FULL.md §4.4): Q sampled travel-time scenarios, a
// scenario selector choosing beta of them, per-scenario continuous LP
// subproblems parameterized by a candidate mutex orientation, and
// optimality cuts assembled from each subproblem's shadow prices.
package benders

import (
	"context"
	"math/rand"

	"github.com/elektrokombinacija/itags-scheduler/internal/domain"
	"github.com/elektrokombinacija/itags-scheduler/internal/failure"
	"github.com/elektrokombinacija/itags-scheduler/internal/milp"
	"github.com/elektrokombinacija/itags-scheduler/internal/mutexset"
	"github.com/elektrokombinacija/itags-scheduler/internal/oracle"
	"github.com/elektrokombinacija/itags-scheduler/internal/scenario"
	"github.com/elektrokombinacija/itags-scheduler/internal/schedule"
	"github.com/elektrokombinacija/itags-scheduler/internal/timekeeper"
)

// Params mirrors the stochastic half of the scheduler_parameters object
// (SPEC_FULL.md §6): number of sampled scenarios, how many of them the
// selector keeps, and how their makespans aggregate into a master
// objective.
type Params struct {
	NumScenarios int
	Beta         int
	Aggregation  AggregationMode
	MeanStd      [2]float64 // travel-time multiplier distribution (mean, std)
	Selector     scenario.Selector
	SchedulerParams milp.Params
	// DeadlineHint, if positive, requests a DeadlineRisk report against
	// that deadline in the Result.
	DeadlineHint float64
}

// DefaultParams returns a conservative default configuration: 8 sampled
// scenarios, 3 of them kept by uniform random selection, mean-aggregated.
func DefaultParams() Params {
	return Params{
		NumScenarios: 8,
		Beta:         3,
		Aggregation:  AggregateMean,
		MeanStd:      [2]float64{1, 0.25},
		SchedulerParams: milp.DefaultParams(),
	}
}

// Result is the stochastic schedule output (SPEC_FULL.md §4.4 "Outputs").
type Result struct {
	PerScenarioMakespan map[int]float64
	Aggregate           float64
	MutexOrientation    map[mutexset.Pair]bool
	PerScenarioSchedule map[int]*schedule.Schedule
	Cuts                []OptimalityCut
	Summary             MakespanSummary
	DeadlineRisk        *DeadlineRisk
}

// Solver runs the stochastic master/subscheduler split for one instance.
type Solver struct {
	Oracle oracle.Oracle
	Params Params
	TK     *timekeeper.Timekeeper
	rng    *rand.Rand
}

// New constructs a Solver. A nil rng seeds a fixed-seed source so repeated
// runs over the same instance are reproducible.
func New(orc oracle.Oracle, params Params, tk *timekeeper.Timekeeper, rng *rand.Rand) *Solver {
	if tk == nil {
		tk = timekeeper.New()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	if params.Selector == nil {
		params.Selector = scenario.NewUniformSelector(rng)
	}
	return &Solver{Oracle: orc, Params: params, TK: tk, rng: rng}
}

// Solve samples scenarios, evaluates each one's own deterministic optimum,
// selects the beta scenarios the aggregate objective will be judged
// against, evaluates every candidate mutex orientation those scenarios
// suggest, and returns the best one's stochastic result.
func (s *Solver) Solve(ctx context.Context, inst *domain.Instance, alloc domain.Allocation) (*Result, failure.Reason) {
	gen := scenario.NewGenerator(s.Params.MeanStd[0], s.Params.MeanStd[1], s.rng)
	scenarios := gen.Sample(s.Params.NumScenarios)

	mset := mutexset.Build(inst, alloc)

	contexts := make([]*scenarioContext, 0, len(scenarios))
	evaluated := make([]scenario.Evaluated, 0, len(scenarios))
	for _, sc := range scenarios {
		built, rerr := buildScenarioContext(ctx, inst, alloc, s.Oracle, sc, mset, s.Params.SchedulerParams, s.TK)
		if rerr != nil {
			continue // this scenario is infeasible under the base instance; skip it rather than fail the whole run
		}
		contexts = append(contexts, built)
		evaluated = append(evaluated, scenario.Evaluated{Scenario: sc, Makespan: built.schedule.Makespan})
	}
	if len(contexts) == 0 {
		return nil, failure.MilpInfeasible{Detail: "every sampled scenario was infeasible"}
	}

	selected := s.Params.Selector.Select(evaluated, s.Params.Beta)
	selectedIDs := make(map[int]bool, len(selected))
	for _, sc := range selected {
		selectedIDs[sc.ID] = true
	}
	keep := contexts[:0:0]
	for _, c := range contexts {
		if selectedIDs[c.scenario.ID] {
			keep = append(keep, c)
		}
	}
	if len(keep) == 0 {
		keep = contexts
	}

	best, err := pickOrientation(ctx, inst, alloc, mset, keep, s.Params.Aggregation)
	if err != nil {
		return nil, failure.MilpInfeasible{Detail: err.Error()}
	}

	makespans := make([]float64, 0, len(best.perScenario))
	for _, m := range best.perScenario {
		makespans = append(makespans, m)
	}

	result := &Result{
		PerScenarioMakespan: best.perScenario,
		Aggregate:           best.aggregate,
		MutexOrientation:    best.orientation,
		Cuts:                best.cuts,
		PerScenarioSchedule: make(map[int]*schedule.Schedule, len(contexts)),
		Summary:             summarizeMakespans(makespans),
	}
	for _, c := range contexts {
		result.PerScenarioSchedule[c.scenario.ID] = c.schedule
	}
	if s.Params.DeadlineHint > 0 {
		risk := deadlineRisk(makespans, s.Params.DeadlineHint)
		result.DeadlineRisk = &risk
	}
	return result, nil
}

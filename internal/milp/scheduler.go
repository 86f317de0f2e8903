package milp

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/elektrokombinacija/itags-scheduler/internal/domain"
	"github.com/elektrokombinacija/itags-scheduler/internal/failure"
	"github.com/elektrokombinacija/itags-scheduler/internal/mutexset"
	"github.com/elektrokombinacija/itags-scheduler/internal/oracle"
	"github.com/elektrokombinacija/itags-scheduler/internal/schedule"
	"github.com/elektrokombinacija/itags-scheduler/internal/taskinfo"
	"github.com/elektrokombinacija/itags-scheduler/internal/timekeeper"
)

// Params mirrors the scheduler_parameters object of SPEC_FULL.md §6.
type Params struct {
	Timeout                 time.Duration
	MilpTimeout             time.Duration
	Threads                 uint
	MipGap                  float64
	HeuristicTime           time.Duration
	Method                  int
	ReturnFeasibleOnTimeout bool
	UseHierarchicalObjective bool
}

// DefaultParams returns the documented defaults (SPEC_FULL.md §6).
func DefaultParams() Params {
	return Params{
		MipGap: -1,
		Method: -1,
	}
}

// Scheduler builds and iteratively re-solves the deterministic makespan
// MILP (SPEC_FULL.md §4.3).
type Scheduler struct {
	Oracle oracle.Oracle
	Params Params
	TK     *timekeeper.Timekeeper
}

// NewScheduler constructs a deterministic scheduler.
func NewScheduler(orc oracle.Oracle, params Params, tk *timekeeper.Timekeeper) *Scheduler {
	if tk == nil {
		tk = timekeeper.New()
	}
	return &Scheduler{Oracle: orc, Params: params, TK: tk}
}

// Solve builds the makespan MILP for (inst, alloc), solves it, and
// interleaves re-solves with oracle refinement until fixpoint (SPEC_FULL.md
// §4.3 "Iteration (lazy refinement)"). Returns a schedule snapshot or a
// typed failure.
func (s *Scheduler) Solve(ctx context.Context, inst *domain.Instance, alloc domain.Allocation) (*schedule.Schedule, failure.Reason) {
	start := time.Now()
	defer func() { s.TK.Add(timekeeper.BucketScheduling, time.Since(start)) }()

	if s.Params.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Params.Timeout)
		defer cancel()
	}

	tasksInfo, rerr := taskinfo.BuildAllTasksInfo(inst, alloc, s.Oracle)
	if rerr != nil {
		return nil, rerr
	}

	mset := mutexset.Build(inst, alloc)
	pairs := neededPairs(inst, mset)
	transInfo, rerr := taskinfo.BuildTransitionInfo(inst, alloc, pairs, s.Oracle)
	if rerr != nil {
		return nil, rerr
	}

	const maxIterations = 64
	var last *solveResult
	for iter := 0; iter < maxIterations; iter++ {
		res, milpErr := s.solveOnce(ctx, inst, alloc, tasksInfo, transInfo, mset)
		if milpErr != nil {
			return nil, milpErr
		}
		last = res

		dirty, rerr := s.refine(inst, alloc, tasksInfo, transInfo, res)
		if rerr != nil {
			return nil, rerr
		}
		if !dirty {
			break
		}
		if err := ctx.Err(); err != nil {
			break
		}
	}

	sched := s.buildSchedule(last, tasksInfo, mset)
	return sched, nil
}

type solveResult struct {
	starts      map[domain.TaskID]float64
	makespan    float64
	mutexValues map[mutexset.Pair]bool
	timedOut    bool
	hadIncumbent bool
}

// solveOnce builds one MILP from the current task/transition info and
// solves it with branch-and-bound over the mutex indicators.
func (s *Scheduler) solveOnce(ctx context.Context, inst *domain.Instance, alloc domain.Allocation, ti *taskinfo.AllTasksInfo, xi *taskinfo.AllTransitionsInfo, mset *mutexset.Set) (*solveResult, failure.Reason) {
	milpCtx := ctx
	if s.Params.MilpTimeout > 0 {
		var cancel context.CancelFunc
		milpCtx, cancel = context.WithTimeout(ctx, s.Params.MilpTimeout)
		defer cancel()
	}

	bigM := worstCaseMakespan(inst, ti, xi)

	bb := newBranchAndBound(inst, alloc, ti, xi, mset, bigM, s.Params.UseHierarchicalObjective)
	start := time.Now()
	incumbent, timedOut := bb.run(milpCtx)
	s.TK.Add(timekeeper.BucketMILP, time.Since(start))

	if incumbent == nil {
		if timedOut {
			return nil, failure.MilpTimeout{HadIncumbent: false}
		}
		return nil, failure.MilpInfeasible{Detail: "no integer-feasible mutex orientation found"}
	}

	if timedOut && !s.Params.ReturnFeasibleOnTimeout {
		return nil, failure.MilpTimeout{HadIncumbent: true}
	}

	return &solveResult{
		starts:      incumbent.starts,
		makespan:    incumbent.makespan,
		mutexValues: incumbent.mutex,
		timedOut:    timedOut,
		hadIncumbent: true,
	}, nil
}

// refine performs one pass of SPEC_FULL.md §4.3's lazy refinement: for each
// robot, walk its assigned tasks in realized-start order and query the
// oracle's authoritative value for any contribution that was still a
// heuristic. Returns whether any lower bound rose (the caller must
// re-solve).
func (s *Scheduler) refine(inst *domain.Instance, alloc domain.Allocation, ti *taskinfo.AllTasksInfo, xi *taskinfo.AllTransitionsInfo, last *solveResult) (bool, failure.Reason) {
	dirty := false

	for _, robot := range inst.Robots {
		tasks := robotTasksByStart(inst, alloc, robot.ID, last.starts)
		if len(tasks) == 0 {
			continue
		}

		first := tasks[0]
		info := ti.Get(first)
		if info != nil && info.StatusOf(robot.ID) == taskinfo.Heuristic {
			task := inst.TaskByID(first)
			raised, rerr := taskinfo.RefreshRobotContribution(info, task.Initial, robot.ID, s.Oracle)
			if rerr != nil {
				return false, rerr
			}
			dirty = dirty || raised
		}

		for i := 1; i < len(tasks); i++ {
			prev, next := tasks[i-1], tasks[i]
			txi := xi.Get(prev, next)
			if txi == nil || txi.StatusOf(robot.ID) != taskinfo.Heuristic {
				continue
			}
			prevTask := inst.TaskByID(prev)
			nextTask := inst.TaskByID(next)
			raised, rerr := taskinfo.RefreshTransitionContribution(txi, prevTask.Terminal, nextTask.Initial, robot.ID, s.Oracle)
			if rerr != nil {
				return false, rerr
			}
			dirty = dirty || raised
		}
	}
	return dirty, nil
}

func (s *Scheduler) buildSchedule(res *solveResult, ti *taskinfo.AllTasksInfo, mset *mutexset.Set) *schedule.Schedule {
	out := &schedule.Schedule{
		Timepoints:        make(map[domain.TaskID]schedule.Timepoint, len(res.starts)),
		Makespan:          res.makespan,
		FeasibleOnTimeout: res.timedOut,
	}
	for t, start := range res.starts {
		finish := res.makespan
		if info := ti.Get(t); info != nil {
			finish = start + info.Duration
		}
		out.Timepoints[t] = schedule.Timepoint{Start: start, Finish: finish}
	}
	for p, aPrecedesB := range res.mutexValues {
		mset.SetIndicator(p, aPrecedesB)
	}
	out.PrecedenceSetByMutex = mset.PrecedenceSetByMutex()
	return out
}

// robotTasksByStart returns the tasks assigned to robot ordered by their
// realized start time in the previous solve (SPEC_FULL.md §4.3 step 1).
// Tasks the robot hasn't been assigned yet a start for (should not occur
// once an incumbent exists) sort last.
func robotTasksByStart(inst *domain.Instance, alloc domain.Allocation, robot domain.RobotID, starts map[domain.TaskID]float64) []domain.TaskID {
	var out []domain.TaskID
	for _, task := range inst.Tasks {
		for _, r := range alloc.Coalition(task.ID) {
			if r == robot {
				out = append(out, task.ID)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		si, oki := starts[out[i]]
		sj, okj := starts[out[j]]
		if !oki {
			return false
		}
		if !okj {
			return true
		}
		return si < sj
	})
	return out
}

func neededPairs(inst *domain.Instance, mset *mutexset.Set) []taskinfo.PairKey {
	var pairs []taskinfo.PairKey
	if inst.Plan != nil {
		for _, e := range inst.Plan.DirectEdges() {
			pairs = append(pairs, taskinfo.PairKey{From: e.From, To: e.To})
		}
	}
	for _, p := range mset.Pairs() {
		pairs = append(pairs, taskinfo.PairKey{From: p.A, To: p.B}, taskinfo.PairKey{From: p.B, To: p.A})
	}
	return pairs
}

// worstCaseMakespan computes a valid big-M: twice the sum of every task's
// duration and lower bound plus every known transition's lower bound, and
// never less than 1. This
// is always at least as large as any feasible makespan for the current
// task/transition info, satisfying GLOSSARY "Big-M".
func worstCaseMakespan(inst *domain.Instance, ti *taskinfo.AllTasksInfo, xi *taskinfo.AllTransitionsInfo) float64 {
	total := 0.0
	for _, task := range inst.Tasks {
		info := ti.Get(task.ID)
		if info == nil {
			continue
		}
		total += info.Duration + info.LowerBound()
	}
	for _, txi := range xi.All() {
		total += txi.LowerBound()
	}
	return math.Max(total*2, 1)
}

package search

import (
	"context"
	"fmt"
	"time"

	"github.com/elektrokombinacija/itags-scheduler/internal/domain"
	"github.com/elektrokombinacija/itags-scheduler/internal/failure"
	"github.com/elektrokombinacija/itags-scheduler/internal/milp"
	"github.com/elektrokombinacija/itags-scheduler/internal/schedule"
	"github.com/elektrokombinacija/itags-scheduler/internal/timekeeper"
)

// Params mirrors the §6 "Search parameters" object.
type Params struct {
	HasTimeout      bool
	Timeout         time.Duration
	TimerName       string
	SavePrunedNodes bool
	SaveClosedNodes bool
	Alpha           float64 // convex-combination weight, f(n) = alpha*NAQ + (1-alpha)*NSQ
	Reverse         bool
	TraitPolicies   []domain.TraitPolicy
}

// DefaultParams returns a conservative default configuration.
func DefaultParams() Params {
	return Params{TimerName: "itags", Alpha: 0.5}
}

// Statistics is the §4.5/§6 search run counters.
type Statistics struct {
	NodesGenerated int
	NodesEvaluated int
	NodesExpanded  int
	NodesPruned    int
	NodesDeadend   int
}

// Result is a goal node's allocation and schedule, plus run statistics.
type Result struct {
	Allocation domain.Allocation
	Schedule   *schedule.Schedule
	Statistics Statistics
}

// Search runs ITAGS over one problem instance.
type Search struct {
	inst      *domain.Instance
	scheduler *milp.Scheduler
	tk        *timekeeper.Timekeeper
	mem       *failure.Memory
	params    Params

	best, worst float64
	tbl         *table
	stats       Statistics
}

// New constructs a Search. scheduler is reused across every node
// evaluation; mem accumulates pruning evidence across the run.
func New(inst *domain.Instance, scheduler *milp.Scheduler, tk *timekeeper.Timekeeper, params Params) *Search {
	if tk == nil {
		tk = timekeeper.New()
	}
	return &Search{
		inst:      inst,
		scheduler: scheduler,
		tk:        tk,
		mem:       failure.NewMemory(),
		params:    params,
		tbl:       newTable(),
	}
}

// Run executes the best-first search (SPEC_FULL.md §4.5).
func (s *Search) Run(ctx context.Context) (*Result, failure.Reason) {
	if s.params.HasTimeout && s.params.Timeout > 0 {
		s.tk.SetBudget(timekeeper.BucketSearch, s.params.Timeout)
	}
	start := time.Now()
	defer func() { s.tk.Add(timekeeper.BucketSearch, time.Since(start)) }()

	s.best, s.worst = computeBounds(ctx, s.inst, s.scheduler)

	base := s.baseAllocation()
	root := s.tbl.new(-1, cellFlip{}, false)
	s.tbl.allocOf[root.id] = base
	s.stats.NodesGenerated++

	_, rerr := s.evaluate(ctx, root.id, base)
	if rerr != nil {
		root.deadend = true
		s.stats.NodesDeadend++
		s.mem.Ingest(rerr)
	}
	s.stats.NodesEvaluated++

	open := newOpen()
	if !root.deadend {
		open.push(root.id, root.value)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, failure.MilpTimeout{HadIncumbent: false}
		}
		if s.tk.Expired(timekeeper.BucketSearch) {
			return nil, failure.MilpTimeout{HadIncumbent: false}
		}

		id, ok := open.pop()
		if !ok {
			return nil, failure.MilpInfeasible{Detail: "allocation search exhausted the open set"}
		}
		n := s.tbl.nodes[id]
		alloc := s.tbl.materialize(id, base)

		if s.isGoal(alloc) {
			sched, rerr := s.evaluate(ctx, id, alloc)
			if rerr != nil {
				s.mem.Ingest(rerr)
				s.stats.NodesDeadend++
				continue
			}
			return &Result{Allocation: alloc, Schedule: sched, Statistics: s.stats}, nil
		}

		s.stats.NodesExpanded++
		for _, child := range s.successors(n.id, alloc) {
			s.stats.NodesGenerated++

			childAlloc := s.tbl.materialize(child.id, base)
			if s.shouldPrune(alloc, child, childAlloc) {
				child.pruned = true
				s.stats.NodesPruned++
				continue
			}

			sched, rerr := s.evaluate(ctx, child.id, childAlloc)
			s.stats.NodesEvaluated++
			if rerr != nil {
				child.deadend = true
				s.stats.NodesDeadend++
				s.mem.Ingest(rerr)
				continue
			}
			_ = sched
			open.push(child.id, child.value)
		}
	}
}

func (s *Search) baseAllocation() domain.Allocation {
	if s.params.Reverse {
		return s.inst.NewFullAllocation()
	}
	return s.inst.NewEmptyAllocation()
}

// successors generates every one-bit-flip child: forward search sets a
// zero bit to one, reverse search clears a one bit (SPEC_FULL.md §4.5
// "Successor generation"). Children whose allocation duplicates any
// already-materialized node are skipped via the hash-based closed set.
func (s *Search) successors(parentID int, alloc domain.Allocation) []*nodeRecord {
	var out []*nodeRecord
	seen := make(map[[32]byte]bool)
	for id, a := range s.tbl.allocOf {
		_ = id
		seen[a.Hash()] = true
	}

	for t := 0; t < alloc.NumTasks(); t++ {
		for r := 0; r < alloc.NumRobots(); r++ {
			taskID, robotID := domain.TaskID(t), domain.RobotID(r)
			current := alloc.Get(taskID, robotID)
			var target bool
			if s.params.Reverse {
				if !current {
					continue
				}
				target = false
			} else {
				if current {
					continue
				}
				target = true
			}
			candidate := alloc.WithCell(taskID, robotID, target)
			if seen[candidate.Hash()] {
				continue
			}
			seen[candidate.Hash()] = true

			child := s.tbl.new(parentID, cellFlip{Task: taskID, Robot: robotID, Value: target}, true)
			out = append(out, child)
		}
	}
	return out
}

// isGoal reports whether every task's coalition is non-empty and its
// reduced trait vector dominates its desired-traits vector.
func (s *Search) isGoal(alloc domain.Allocation) bool {
	for _, task := range s.inst.Tasks {
		if !alloc.HasCoalition(task.ID) {
			return false
		}
		coalition := alloc.Coalition(task.ID)
		reduced := domain.ReduceTraits(s.inst.SpeciesOfCoalition(coalition), s.params.TraitPolicies)
		if !domain.DominatesElementwise(reduced, task.DesiredTraits) {
			return false
		}
	}
	return true
}

// shouldPrune applies the no-trait-improvement and previous-failure rules
// to a candidate child before it is paid for with a scheduler invocation.
func (s *Search) shouldPrune(parent domain.Allocation, child *nodeRecord, childAlloc domain.Allocation) bool {
	if !child.hasFlip {
		return false
	}
	flip := child.flip

	if flip.Value {
		robot := s.inst.RobotByID(flip.Robot)
		if robot != nil {
			if s.mem.ForbidsRobotTask(flip.Robot, flip.Task) {
				return true
			}
			if s.mem.ForbidsSpeciesTask(robot.Species, flip.Task) {
				return true
			}
			for _, t := range s.inst.Tasks {
				if t.ID == flip.Task {
					continue
				}
				if !childAlloc.Get(t.ID, flip.Robot) {
					continue
				}
				if s.mem.ForbidsRobotTaskPair(flip.Robot, flip.Task, t.ID) {
					return true
				}
				if s.mem.ForbidsSpeciesTaskPair(robot.Species, flip.Task, t.ID) {
					return true
				}
			}
		}

		// No-trait-improvement: adding a robot to a task whose coalition
		// already dominates its desired traits does not help.
		task := s.inst.TaskByID(flip.Task)
		if task != nil && len(task.DesiredTraits) > 0 {
			beforeReduced := domain.ReduceTraits(s.inst.SpeciesOfCoalition(parent.Coalition(flip.Task)), s.params.TraitPolicies)
			if domain.DominatesElementwise(beforeReduced, task.DesiredTraits) {
				return true
			}
		}
	}

	return false
}

// evaluate invokes the scheduler on a materialized allocation and, on
// success, sets n.value to f(n) = alpha*NAQ + (1-alpha)*NSQ.
func (s *Search) evaluate(ctx context.Context, nodeID int, alloc domain.Allocation) (*schedule.Schedule, failure.Reason) {
	n := s.tbl.nodes[nodeID]
	sched, rerr := s.scheduler.Solve(ctx, s.inst, alloc)
	if rerr != nil {
		return nil, rerr
	}
	naq := normalizedAllocationQuality(s.inst, alloc, s.params.TraitPolicies)
	nsq := normalizedScheduleQuality(sched.Makespan, s.best, s.worst)
	n.value = s.params.Alpha*naq + (1-s.params.Alpha)*nsq
	return sched, nil
}

// Statistics returns the run counters accumulated so far.
func (s *Search) Statistics() Statistics { return s.stats }

func (s *Search) String() string {
	return fmt.Sprintf("search(nodes=%d, evaluated=%d)", len(s.tbl.nodes), s.stats.NodesEvaluated)
}

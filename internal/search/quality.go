package search

import (
	"context"

	"github.com/elektrokombinacija/itags-scheduler/internal/domain"
	"github.com/elektrokombinacija/itags-scheduler/internal/milp"
)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// normalizedScheduleQuality is SPEC_FULL.md §4.5's NSQ: 0 is the
// best-possible makespan, 1 is the worst-possible.
func normalizedScheduleQuality(makespan, best, worst float64) float64 {
	if worst <= best {
		return 0
	}
	return clamp01((makespan - best) / (worst - best))
}

// normalizedAllocationQuality scores how far a candidate allocation is
// from satisfying every task's desired traits: 0 means every task's
// coalition already dominates its desired-traits vector, 1 means every
// task is maximally deficient. This is the allocation-side half of f(n);
// spec.md leaves its exact form open, so it is defined here the way the
// rest of this module treats trait reduction: per-task, per-dimension,
// relative to the desired vector.
func normalizedAllocationQuality(inst *domain.Instance, alloc domain.Allocation, policies []domain.TraitPolicy) float64 {
	if len(inst.Tasks) == 0 {
		return 0
	}
	total := 0.0
	scored := 0
	for _, task := range inst.Tasks {
		if len(task.DesiredTraits) == 0 {
			continue
		}
		scored++
		coalition := alloc.Coalition(task.ID)
		speciesOf := inst.SpeciesOfCoalition(coalition)
		reduced := domain.ReduceTraits(speciesOf, policies)

		deficiency, want := 0.0, 0.0
		for d, desired := range task.DesiredTraits {
			want += desired
			got := 0.0
			if d < len(reduced) {
				got = reduced[d]
			}
			if got < desired {
				deficiency += desired - got
			}
		}
		if want > 0 {
			total += deficiency / want
		}
	}
	if scored == 0 {
		return 0
	}
	return clamp01(total / float64(scored))
}

// computeBounds computes makespan_best (critical path of static durations under
// precedence only, ignoring coalitions and transitions entirely) and
// makespan_worst (the full allocation's actual scheduled makespan, a real
// upper bound since every robot is then available for every task).
func computeBounds(ctx context.Context, inst *domain.Instance, sched *milp.Scheduler) (best, worst float64) {
	best = criticalPathDuration(inst)

	full := inst.NewFullAllocation()
	result, rerr := sched.Solve(ctx, inst, full)
	if rerr != nil || result == nil {
		// Fall back to a safe, generous upper bound.
		worst = best*2 + 1
		return best, worst
	}
	worst = result.Makespan
	if worst <= best {
		worst = best + 1
	}
	return best, worst
}

// criticalPathDuration computes the longest path through the precedence
// DAG using only each task's static duration (SPEC_FULL.md §4.5
// "precomputed from... an empty allocation (all transitions zero)").
func criticalPathDuration(inst *domain.Instance) float64 {
	finish := make(map[domain.TaskID]float64, len(inst.Tasks))
	var visit func(domain.TaskID) float64
	visiting := make(map[domain.TaskID]bool)
	visit = func(t domain.TaskID) float64 {
		if f, ok := finish[t]; ok {
			return f
		}
		if visiting[t] {
			return 0 // cycle guarded against at Plan construction; defensive only
		}
		visiting[t] = true
		task := inst.TaskByID(t)
		start := 0.0
		if inst.Plan != nil {
			for _, pred := range inst.Tasks {
				if inst.Plan.Precedes(pred.ID, t) && isDirectPredecessor(inst, pred.ID, t) {
					if f := visit(pred.ID); f > start {
						start = f
					}
				}
			}
		}
		f := start
		if task != nil {
			f += task.StaticDuration
		}
		finish[t] = f
		return f
	}

	max := 0.0
	for _, task := range inst.Tasks {
		if f := visit(task.ID); f > max {
			max = f
		}
	}
	return max
}

func isDirectPredecessor(inst *domain.Instance, a, b domain.TaskID) bool {
	if inst.Plan == nil {
		return false
	}
	for _, e := range inst.Plan.DirectEdges() {
		if e.From == a && e.To == b {
			return true
		}
	}
	return false
}

// Package schedule defines the Schedule result type (SPEC_FULL.md §3
// "Schedule"). The deterministic scheduler that builds it lives in
// internal/milp.
package schedule

import "github.com/elektrokombinacija/itags-scheduler/internal/domain"

// Timepoint is a task's realized (start, finish) pair.
type Timepoint struct {
	Start, Finish float64
}

// Schedule is an immutable snapshot of a solved scheduling problem
// (SPEC_FULL.md §3 "Schedule").
type Schedule struct {
	Timepoints           map[domain.TaskID]Timepoint
	Makespan             float64
	PrecedenceSetByMutex []domain.Edge
	FeasibleOnTimeout    bool
}

// TasksSortedByStart returns the scheduled task IDs ordered by realized
// start time. Tasks with equal start times keep the map's iteration order,
// so their relative order is not defined.
func (s *Schedule) TasksSortedByStart() []domain.TaskID {
	ids := make([]domain.TaskID, 0, len(s.Timepoints))
	for id := range s.Timepoints {
		ids = append(ids, id)
	}
	// insertion sort is fine: N is the task count, typically small
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && s.Timepoints[ids[j-1]].Start > s.Timepoints[ids[j]].Start; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}

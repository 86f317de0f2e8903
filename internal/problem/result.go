package problem

import (
	"github.com/elektrokombinacija/itags-scheduler/internal/domain"
	"github.com/elektrokombinacija/itags-scheduler/internal/failure"
	"github.com/elektrokombinacija/itags-scheduler/internal/schedule"
)

// ScheduleResult is the §6 "schedule" output object.
type ScheduleResult struct {
	Makespan             float64     `json:"makespan"`
	Timepoints           [][2]float64 `json:"timepoints"`
	PrecedenceSetByMutex [][2]int    `json:"precedence_set_by_mutex"`
}

// Statistics is the §6 "statistics" output object (SPEC_FULL.md §4.7 /
// internal/search's run counters).
type Statistics struct {
	NodesGenerated int `json:"nodes_generated"`
	NodesEvaluated int `json:"nodes_evaluated"`
	NodesExpanded  int `json:"nodes_expanded"`
	NodesPruned    int `json:"nodes_pruned"`
	NodesDeadend   int `json:"nodes_deadend"`
}

// FailureResult is the §6 "failure" output object: the typed reason
// rendered to JSON as a discriminated {kind, detail} pair so a non-Go
// client can distinguish reasons without importing the failure package.
type FailureResult struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// Result is the §6 output document.
type Result struct {
	Success    bool           `json:"success"`
	Allocation [][]float64    `json:"allocation,omitempty"`
	Schedule   *ScheduleResult `json:"schedule,omitempty"`
	Statistics Statistics     `json:"statistics"`
	Failure    *FailureResult `json:"failure,omitempty"`
}

// NewSuccessResult renders a solved allocation+schedule into the output
// document shape.
func NewSuccessResult(alloc domain.Allocation, sched *schedule.Schedule, stats Statistics) *Result {
	timepoints := make([][2]float64, 0, len(sched.Timepoints))
	ids := sched.TasksSortedByStart()
	byID := make(map[domain.TaskID][2]float64, len(sched.Timepoints))
	for id, tp := range sched.Timepoints {
		byID[id] = [2]float64{tp.Start, tp.Finish}
	}
	maxID := domain.TaskID(0)
	for _, id := range ids {
		if id > maxID {
			maxID = id
		}
	}
	ordered := make([][2]float64, int(maxID)+1)
	for id, pair := range byID {
		ordered[int(id)] = pair
	}
	timepoints = ordered

	edges := make([][2]int, len(sched.PrecedenceSetByMutex))
	for i, e := range sched.PrecedenceSetByMutex {
		edges[i] = [2]int{int(e.From), int(e.To)}
	}

	return &Result{
		Success:    true,
		Allocation: alloc.ToFloatMatrix(),
		Schedule: &ScheduleResult{
			Makespan:             sched.Makespan,
			Timepoints:           timepoints,
			PrecedenceSetByMutex: edges,
		},
		Statistics: stats,
	}
}

// NewFailureResult renders a typed failure.Reason into the output document
// shape.
func NewFailureResult(reason failure.Reason, stats Statistics) *Result {
	return &Result{
		Success:    false,
		Statistics: stats,
		Failure: &FailureResult{
			Kind:   failureKind(reason),
			Detail: reason.Error(),
		},
	}
}

func failureKind(r failure.Reason) string {
	switch r.(type) {
	case failure.InitialTransitionFailure:
		return "initial_transition_failure"
	case failure.TransitionFailure:
		return "transition_failure"
	case failure.TaskDurationFailure:
		return "task_duration_failure"
	case failure.RobotTaskFailure:
		return "robot_task_failure"
	case failure.RobotTaskPairFailure:
		return "robot_task_pair_failure"
	case failure.SpeciesTaskFailure:
		return "species_task_failure"
	case failure.SpeciesTaskPairFailure:
		return "species_task_pair_failure"
	case failure.MilpInfeasible:
		return "milp_infeasible"
	case failure.MilpTimeout:
		return "milp_timeout"
	case failure.CompoundFailureReason:
		return "compound_failure"
	default:
		return "unknown"
	}
}

// Package taskinfo implements the Task/Transition Info Layer
// (SPEC_FULL.md §3 "Task info" / "Transition info", §4.2): per candidate
// allocation, materializes per-task durations and per-(task-pair, robot)
// transition lower bounds using the motion-duration oracle, tracking
// whether each value is authoritative or heuristic.
package taskinfo

import (
	"github.com/elektrokombinacija/itags-scheduler/internal/domain"
	"github.com/elektrokombinacija/itags-scheduler/internal/failure"
	"github.com/elektrokombinacija/itags-scheduler/internal/oracle"
)

// Status is the provenance of a per-robot contribution.
type Status int

const (
	None Status = iota
	Heuristic
	Authoritative
)

// TaskInfo holds the coalition-dependent duration and lower-bound start
// time for one task under one allocation. LowerBound is the max over the
// coalition of each robot's initial-transition contribution — the bug
// SPEC_FULL.md §9 flags in the original source (DmsAllTasksInfo returning
// duration() where lowerBound() was meant) has no analogue here since
// Duration is a plain field and L_i is read only through LowerBound().
type TaskInfo struct {
	Task         domain.TaskID
	Duration     float64
	lowerBound   float64
	contribution map[domain.RobotID]float64
	status       map[domain.RobotID]Status
}

// LowerBound returns L_i.
func (ti *TaskInfo) LowerBound() float64 { return ti.lowerBound }

// StatusOf returns the provenance of robot r's contribution to L_i.
func (ti *TaskInfo) StatusOf(r domain.RobotID) Status { return ti.status[r] }

func (ti *TaskInfo) recomputeLowerBound() {
	max := 0.0
	first := true
	for _, v := range ti.contribution {
		if first || v > max {
			max = v
			first = false
		}
	}
	ti.lowerBound = max
}

// AllTasksInfo is the per-task info for every task of one allocation.
type AllTasksInfo struct {
	byTask map[domain.TaskID]*TaskInfo
}

// Get returns the info for a task, or nil if unknown.
func (a *AllTasksInfo) Get(t domain.TaskID) *TaskInfo { return a.byTask[t] }

// BuildAllTasksInfo materializes duration and lower-bound info for every
// task given an allocation, per SPEC_FULL.md §3. Returns a typed failure if
// the oracle reports a task or a robot's initial transition is infeasible.
func BuildAllTasksInfo(inst *domain.Instance, alloc domain.Allocation, orc oracle.Oracle) (*AllTasksInfo, failure.Reason) {
	out := &AllTasksInfo{byTask: make(map[domain.TaskID]*TaskInfo, len(inst.Tasks))}

	for _, task := range inst.Tasks {
		coalition := alloc.Coalition(task.ID)
		ti := &TaskInfo{
			Task:         task.ID,
			contribution: make(map[domain.RobotID]float64, len(coalition)),
			status:       make(map[domain.RobotID]Status, len(coalition)),
		}

		d := orc.TaskDuration(task, coalition)
		if d < 0 {
			speciesIdx := domain.SpeciesIndex(-1)
			if len(coalition) > 0 {
				if r := inst.RobotByID(coalition[0]); r != nil {
					speciesIdx = r.Species
				}
			}
			return nil, failure.TaskDurationFailure{Species: speciesIdx, Task: task.ID}
		}
		ti.Duration = d

		for _, rid := range coalition {
			robot := inst.RobotByID(rid)
			if robot == nil {
				continue
			}
			memoized := orc.IsInitialMemoized(task.Initial, rid)
			v := orc.InitialTransitionDuration(task.Initial, rid)
			if v < 0 {
				return nil, failure.InitialTransitionFailure{Robot: rid, Task: task.ID}
			}
			ti.contribution[rid] = v
			if memoized {
				ti.status[rid] = Authoritative
			} else {
				ti.status[rid] = Heuristic
			}
		}
		ti.recomputeLowerBound()
		out.byTask[task.ID] = ti
	}
	return out, nil
}

// RefreshRobotContribution re-queries the authoritative initial-transition
// duration for (task, robot) when its current status is heuristic, updating
// LowerBound if the new value raises it. Returns (raised, reason): raised
// is true if the lower bound increased (the scheduler must re-solve);
// reason is non-nil if the oracle now reports infeasibility.
func RefreshRobotContribution(ti *TaskInfo, taskCfg domain.Configuration, robot domain.RobotID, orc oracle.Oracle) (bool, failure.Reason) {
	if ti.status[robot] == Authoritative {
		return false, nil
	}
	v := orc.InitialTransitionDuration(taskCfg, robot)
	if v < 0 {
		return false, failure.InitialTransitionFailure{Robot: robot, Task: ti.Task}
	}
	prev := ti.contribution[robot]
	ti.contribution[robot] = v
	ti.status[robot] = Authoritative
	ti.recomputeLowerBound()
	return v > prev, nil
}

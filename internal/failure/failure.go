// Package failure defines the scheduler/oracle failure taxonomy
// (SPEC_FULL.md §4.6) and the multimap index the ITAGS pruner queries
// against proposed allocations before invoking the scheduler.
package failure

import (
	"fmt"

	"github.com/elektrokombinacija/itags-scheduler/internal/domain"
)

// Reason is any typed scheduling/oracle failure. Errors are values, not
// exceptions (SPEC_FULL.md §7): every scheduling entry point returns either
// a schedule or a Reason.
type Reason interface {
	error
	isReason()
}

// InitialTransitionFailure: a robot cannot reach a task's initial
// configuration at all.
type InitialTransitionFailure struct {
	Robot domain.RobotID
	Task  domain.TaskID
}

func (f InitialTransitionFailure) Error() string {
	return fmt.Sprintf("robot %d cannot reach initial configuration of task %d", f.Robot, f.Task)
}
func (InitialTransitionFailure) isReason() {}

// TransitionFailure: no robot of a species can traverse between two tasks.
type TransitionFailure struct {
	Species               domain.SpeciesIndex
	Predecessor, Successor domain.TaskID
}

func (f TransitionFailure) Error() string {
	return fmt.Sprintf("species %d cannot transition from task %d to task %d", f.Species, f.Predecessor, f.Successor)
}
func (TransitionFailure) isReason() {}

// TaskDurationFailure: a species cannot execute a task at all.
type TaskDurationFailure struct {
	Species domain.SpeciesIndex
	Task    domain.TaskID
}

func (f TaskDurationFailure) Error() string {
	return fmt.Sprintf("species %d cannot execute task %d", f.Species, f.Task)
}
func (TaskDurationFailure) isReason() {}

// RobotTaskFailure is the aggregated (robot, task) form used by the pruner:
// this robot must never be assigned to this task.
type RobotTaskFailure struct {
	Robot domain.RobotID
	Task  domain.TaskID
}

func (f RobotTaskFailure) Error() string {
	return fmt.Sprintf("robot %d x task %d is infeasible", f.Robot, f.Task)
}
func (RobotTaskFailure) isReason() {}

// RobotTaskPairFailure: this robot must never perform both tasks (in either
// transition direction).
type RobotTaskPairFailure struct {
	Robot      domain.RobotID
	TaskA, TaskB domain.TaskID
}

func (f RobotTaskPairFailure) Error() string {
	return fmt.Sprintf("robot %d x task pair (%d,%d) is infeasible", f.Robot, f.TaskA, f.TaskB)
}
func (RobotTaskPairFailure) isReason() {}

// SpeciesTaskFailure: no robot of this species may ever be assigned to this
// task.
type SpeciesTaskFailure struct {
	Species domain.SpeciesIndex
	Task    domain.TaskID
}

func (f SpeciesTaskFailure) Error() string {
	return fmt.Sprintf("species %d x task %d is infeasible", f.Species, f.Task)
}
func (SpeciesTaskFailure) isReason() {}

// SpeciesTaskPairFailure: no robot of this species may ever perform both
// tasks.
type SpeciesTaskPairFailure struct {
	Species      domain.SpeciesIndex
	TaskA, TaskB domain.TaskID
}

func (f SpeciesTaskPairFailure) Error() string {
	return fmt.Sprintf("species %d x task pair (%d,%d) is infeasible", f.Species, f.TaskA, f.TaskB)
}
func (SpeciesTaskPairFailure) isReason() {}

// MilpInfeasible: the scheduling MILP has no feasible solution for this
// allocation.
type MilpInfeasible struct {
	Detail string
}

func (f MilpInfeasible) Error() string { return "milp infeasible: " + f.Detail }
func (MilpInfeasible) isReason()       {}

// MilpTimeout: the solver exhausted its time budget. HadIncumbent is true
// when a feasible (if not optimal) solution was found before the timeout.
type MilpTimeout struct {
	HadIncumbent bool
}

func (f MilpTimeout) Error() string {
	if f.HadIncumbent {
		return "milp timeout with incumbent"
	}
	return "milp timeout with no incumbent"
}
func (MilpTimeout) isReason() {}

// CompoundFailureReason aggregates multiple reasons, e.g. when several
// robots in a coalition independently fail a task. Flatten recurses through
// nested compounds so callers never need to special-case nesting depth,
// matching the recursive structure of the original source's
// compound_failure_reason.hpp (see SPEC_FULL.md "SUPPLEMENTED FEATURES").
type CompoundFailureReason struct {
	Reasons []Reason
}

func (f CompoundFailureReason) Error() string {
	s := "compound failure:"
	for _, r := range f.Flatten() {
		s += " [" + r.Error() + "]"
	}
	return s
}
func (CompoundFailureReason) isReason() {}

// Flatten returns the leaf (non-compound) reasons contained transitively.
func (f CompoundFailureReason) Flatten() []Reason {
	var out []Reason
	for _, r := range f.Reasons {
		if c, ok := r.(CompoundFailureReason); ok {
			out = append(out, c.Flatten()...)
		} else {
			out = append(out, r)
		}
	}
	return out
}

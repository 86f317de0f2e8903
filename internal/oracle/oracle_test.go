package oracle

import (
	"testing"

	"github.com/elektrokombinacija/itags-scheduler/internal/domain"
)

func newTestDefault() *Default {
	return NewDefault(
		func(robot domain.RobotID) float64 {
			if robot == 0 {
				return 2
			}
			return 0
		},
		func(robot domain.RobotID) domain.Configuration {
			return domain.Configuration{Pos: domain.Point{X: 0, Y: 0, Z: 0}}
		},
	)
}

func TestInitialTransitionDurationScalesBySpeed(t *testing.T) {
	d := newTestDefault()
	cfg := domain.Configuration{Pos: domain.Point{X: 4, Y: 0, Z: 0}}

	got := d.InitialTransitionDuration(cfg, 0)
	if got != 2 {
		t.Fatalf("expected duration 4/2=2, got %v", got)
	}
	if !d.IsInitialMemoized(cfg, 0) {
		t.Fatal("expected the queried pair to be memoized immediately")
	}
}

func TestInitialTransitionDurationReportsInfeasibleForZeroSpeed(t *testing.T) {
	d := newTestDefault()
	cfg := domain.Configuration{Pos: domain.Point{X: 1}}

	got := d.InitialTransitionDuration(cfg, 1)
	if got != Infeasible {
		t.Fatalf("expected Infeasible sentinel for zero-speed robot, got %v", got)
	}
}

func TestTaskDurationReturnsStaticDuration(t *testing.T) {
	d := newTestDefault()
	task := domain.Task{StaticDuration: 7.5}
	if got := d.TaskDuration(task, []domain.RobotID{0}); got != 7.5 {
		t.Fatalf("expected static duration passthrough, got %v", got)
	}
}

func TestTransitionDurationMemoizesAfterQuery(t *testing.T) {
	d := newTestDefault()
	a := domain.Configuration{Pos: domain.Point{X: 0}}
	b := domain.Configuration{Pos: domain.Point{X: 6}}

	if d.IsTransitionMemoized(a, b, 0) {
		t.Fatal("expected not memoized before first query")
	}
	got := d.TransitionDuration(a, b, 0)
	if got != 3 {
		t.Fatalf("expected 6/2=3, got %v", got)
	}
	if !d.IsTransitionMemoized(a, b, 0) {
		t.Fatal("expected memoized after query")
	}
}

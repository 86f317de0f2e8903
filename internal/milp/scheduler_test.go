package milp

import (
	"context"
	"testing"

	"github.com/elektrokombinacija/itags-scheduler/internal/domain"
	"github.com/elektrokombinacija/itags-scheduler/internal/oracle"
)

func chainInstance(t *testing.T) *domain.Instance {
	t.Helper()
	tasks := []domain.Task{
		{ID: 0, Name: "t0", Initial: domain.Configuration{Pos: domain.Point{X: 0}}, Terminal: domain.Configuration{Pos: domain.Point{X: 1}}, StaticDuration: 2},
		{ID: 1, Name: "t1", Initial: domain.Configuration{Pos: domain.Point{X: 1}}, Terminal: domain.Configuration{Pos: domain.Point{X: 2}}, StaticDuration: 3},
	}
	robots := []domain.Robot{
		{ID: 0, Name: "r0", Species: 0, Initial: domain.Configuration{Pos: domain.Point{X: 0}}},
	}
	species := []domain.Species{{Name: "ground", Speed: 1}}
	plan, err := domain.NewPlan([]domain.TaskID{0, 1}, []domain.Edge{{From: 0, To: 1}})
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}
	return &domain.Instance{Tasks: tasks, Robots: robots, Species: species, Plan: plan}
}

func fullAllocation(inst *domain.Instance) domain.Allocation {
	a := inst.NewEmptyAllocation()
	for _, task := range inst.Tasks {
		for _, robot := range inst.Robots {
			a = a.WithCell(task.ID, robot.ID, true)
		}
	}
	return a
}

func newTestOracle(inst *domain.Instance) oracle.Oracle {
	return oracle.NewDefault(
		func(robot domain.RobotID) float64 {
			s := inst.SpeciesOf(*inst.RobotByID(robot))
			if s == nil {
				return 0
			}
			return s.Speed
		},
		func(robot domain.RobotID) domain.Configuration {
			return inst.RobotByID(robot).Initial
		},
	)
}

func TestSchedulerSolveChain(t *testing.T) {
	inst := chainInstance(t)
	alloc := fullAllocation(inst)
	orc := newTestOracle(inst)

	sched := NewScheduler(orc, DefaultParams(), nil)
	out, rerr := sched.Solve(context.Background(), inst, alloc)
	if rerr != nil {
		t.Fatalf("Solve: %v", rerr)
	}
	if out == nil {
		t.Fatal("Solve returned nil schedule")
	}

	t0 := out.Timepoints[0]
	t1 := out.Timepoints[1]
	if t1.Start < t0.Finish-1e-6 {
		t.Fatalf("precedence violated: t1 starts at %v before t0 finishes at %v", t1.Start, t0.Finish)
	}
	if out.Makespan < t1.Finish-1e-6 {
		t.Fatalf("makespan %v smaller than last finish %v", out.Makespan, t1.Finish)
	}
}

func TestBranchAndBoundMutexPair(t *testing.T) {
	tasks := []domain.Task{
		{ID: 0, Name: "t0", Initial: domain.Configuration{Pos: domain.Point{X: 0}}, Terminal: domain.Configuration{Pos: domain.Point{X: 0}}, StaticDuration: 1},
		{ID: 1, Name: "t1", Initial: domain.Configuration{Pos: domain.Point{X: 0}}, Terminal: domain.Configuration{Pos: domain.Point{X: 0}}, StaticDuration: 1},
	}
	robots := []domain.Robot{{ID: 0, Name: "r0", Species: 0, Initial: domain.Configuration{Pos: domain.Point{X: 0}}}}
	species := []domain.Species{{Name: "ground", Speed: 1}}
	inst := &domain.Instance{Tasks: tasks, Robots: robots, Species: species}

	alloc := fullAllocation(inst)
	orc := newTestOracle(inst)

	sched := NewScheduler(orc, DefaultParams(), nil)
	out, rerr := sched.Solve(context.Background(), inst, alloc)
	if rerr != nil {
		t.Fatalf("Solve: %v", rerr)
	}

	t0, t1 := out.Timepoints[0], out.Timepoints[1]
	overlap := t0.Start < t1.Finish-1e-6 && t1.Start < t0.Finish-1e-6
	if overlap {
		t.Fatalf("mutex pair sharing robot 0 overlaps: t0=%+v t1=%+v", t0, t1)
	}
	if len(out.PrecedenceSetByMutex) != 1 {
		t.Fatalf("expected one mutex-resolved edge, got %d", len(out.PrecedenceSetByMutex))
	}
}

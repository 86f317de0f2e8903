package benders

import (
	"context"
	"math/rand"
	"testing"

	"github.com/elektrokombinacija/itags-scheduler/internal/domain"
	"github.com/elektrokombinacija/itags-scheduler/internal/mutexset"
	"github.com/elektrokombinacija/itags-scheduler/internal/oracle"
)

func twoTaskInstance(t *testing.T) *domain.Instance {
	t.Helper()
	tasks := []domain.Task{
		{ID: 0, Name: "t0", Initial: domain.Configuration{Pos: domain.Point{X: 0}}, Terminal: domain.Configuration{Pos: domain.Point{X: 1}}, StaticDuration: 2},
		{ID: 1, Name: "t1", Initial: domain.Configuration{Pos: domain.Point{X: 2}}, Terminal: domain.Configuration{Pos: domain.Point{X: 3}}, StaticDuration: 3},
	}
	robots := []domain.Robot{
		{ID: 0, Name: "r0", Species: 0, Initial: domain.Configuration{Pos: domain.Point{X: 0}}},
	}
	species := []domain.Species{{Name: "ground", Speed: 1}}
	return &domain.Instance{Tasks: tasks, Robots: robots, Species: species}
}

func fullAlloc(inst *domain.Instance) domain.Allocation {
	a := inst.NewEmptyAllocation()
	for _, task := range inst.Tasks {
		for _, robot := range inst.Robots {
			a = a.WithCell(task.ID, robot.ID, true)
		}
	}
	return a
}

func baseOracle(inst *domain.Instance) oracle.Oracle {
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

func TestSolverProducesAggregateAcrossScenarios(t *testing.T) {
	inst := twoTaskInstance(t)
	alloc := fullAlloc(inst)

	params := DefaultParams()
	params.NumScenarios = 4
	params.Beta = 2
	solver := New(baseOracle(inst), params, nil, rand.New(rand.NewSource(3)))

	result, rerr := solver.Solve(context.Background(), inst, alloc)
	if rerr != nil {
		t.Fatalf("Solve: %v", rerr)
	}
	if result == nil {
		t.Fatal("Solve returned nil result")
	}
	if len(result.PerScenarioMakespan) == 0 {
		t.Fatal("expected at least one per-scenario makespan")
	}
	if result.Aggregate <= 0 {
		t.Fatalf("expected positive aggregate makespan, got %v", result.Aggregate)
	}
}

func TestAggregateModes(t *testing.T) {
	values := []float64{10, 20, 30}
	if got := aggregate(AggregateMean, values); got != 20 {
		t.Fatalf("expected mean 20, got %v", got)
	}
	if got := aggregate(AggregateWorst, values); got != 30 {
		t.Fatalf("expected worst-case 30, got %v", got)
	}
}

func TestCandidateKeyIndependentOfInsertionOrder(t *testing.T) {
	a := map[mutexset.Pair]bool{{A: 0, B: 1}: true, {A: 1, B: 2}: false}
	b := map[mutexset.Pair]bool{{A: 1, B: 2}: false, {A: 0, B: 1}: true}
	if candidateKey(a) != candidateKey(b) {
		t.Fatalf("expected identical keys regardless of map build order, got %q vs %q", candidateKey(a), candidateKey(b))
	}
}

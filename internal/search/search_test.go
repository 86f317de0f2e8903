package search

import (
	"context"
	"testing"

	"github.com/elektrokombinacija/itags-scheduler/internal/domain"
	"github.com/elektrokombinacija/itags-scheduler/internal/milp"
	"github.com/elektrokombinacija/itags-scheduler/internal/oracle"
	"github.com/elektrokombinacija/itags-scheduler/internal/timekeeper"
)

func singleTaskInstance(t *testing.T) *domain.Instance {
	t.Helper()
	tasks := []domain.Task{
		{
			ID:             0,
			Name:           "t0",
			Initial:        domain.Configuration{Pos: domain.Point{X: 0}},
			Terminal:       domain.Configuration{Pos: domain.Point{X: 1}},
			StaticDuration: 2,
			DesiredTraits:  []float64{1},
		},
	}
	robots := []domain.Robot{
		{ID: 0, Name: "r0", Species: 0, Initial: domain.Configuration{Pos: domain.Point{X: 0}}},
		{ID: 1, Name: "r1", Species: 0, Initial: domain.Configuration{Pos: domain.Point{X: 0}}},
	}
	species := []domain.Species{{Name: "ground", Speed: 1, Traits: []float64{1}}}
	return &domain.Instance{Tasks: tasks, Robots: robots, Species: species}
}

func testOracle(inst *domain.Instance) oracle.Oracle {
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

func TestRunFindsGoalWithDominatingCoalition(t *testing.T) {
	inst := singleTaskInstance(t)
	sched := milp.NewScheduler(testOracle(inst), milp.DefaultParams(), nil)

	params := DefaultParams()
	params.TraitPolicies = []domain.TraitPolicy{domain.Capability}
	s := New(inst, sched, timekeeper.New(), params)

	result, rerr := s.Run(context.Background())
	if rerr != nil {
		t.Fatalf("Run: %v", rerr)
	}
	if result == nil {
		t.Fatal("Run returned nil result")
	}

	reduced := domain.ReduceTraits(inst.SpeciesOfCoalition(result.Allocation.Coalition(0)), params.TraitPolicies)
	if !domain.DominatesElementwise(reduced, inst.Tasks[0].DesiredTraits) {
		t.Fatalf("goal allocation %v does not dominate desired traits %v", reduced, inst.Tasks[0].DesiredTraits)
	}
	if result.Statistics.NodesGenerated == 0 {
		t.Fatal("expected at least one generated node")
	}
}

func TestShouldPruneSkipsAlreadyDominatingTask(t *testing.T) {
	inst := singleTaskInstance(t)
	sched := milp.NewScheduler(testOracle(inst), milp.DefaultParams(), nil)
	params := DefaultParams()
	params.TraitPolicies = []domain.TraitPolicy{domain.Capability}
	s := New(inst, sched, timekeeper.New(), params)

	parent := inst.NewEmptyAllocation().WithCell(0, 0, true)
	child := s.tbl.new(0, cellFlip{Task: 0, Robot: 1, Value: true}, true)
	childAlloc := parent.WithCell(0, 1, true)

	if !s.shouldPrune(parent, child, childAlloc) {
		t.Fatal("expected pruning of a redundant robot addition to an already-satisfied task")
	}
}

func TestSuccessorsSkipAlreadyAssignedCells(t *testing.T) {
	inst := singleTaskInstance(t)
	sched := milp.NewScheduler(testOracle(inst), milp.DefaultParams(), nil)
	s := New(inst, sched, timekeeper.New(), DefaultParams())

	root := s.tbl.new(-1, cellFlip{}, false)
	base := inst.NewEmptyAllocation().WithCell(0, 0, true)
	s.tbl.allocOf[root.id] = base

	children := s.successors(root.id, base)
	for _, c := range children {
		if c.flip.Robot == 0 {
			t.Fatal("successor generation re-flipped an already-assigned cell")
		}
	}
	if len(children) != 1 {
		t.Fatalf("expected exactly one successor (robot 1), got %d", len(children))
	}
}

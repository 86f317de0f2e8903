package search

import (
	"context"
	"testing"

	"github.com/elektrokombinacija/itags-scheduler/internal/domain"
	"github.com/elektrokombinacija/itags-scheduler/internal/milp"
	"github.com/elektrokombinacija/itags-scheduler/internal/oracle"
	"github.com/elektrokombinacija/itags-scheduler/internal/timekeeper"
)

// blockedInitialOracle reproduces SPEC_FULL.md §8 scenario 6: one robot's
// initial transition to one task's configuration is infeasible, everything
// else resolves through the ordinary euclidean/speed heuristic. Solving an
// allocation that assigns the blocked robot to the blocked task surfaces an
// InitialTransitionFailure, which Search.Run ingests into its failure
// memory so a later, unrelated candidate reusing that same (robot, task)
// pairing is pruned without a second scheduler invocation.
type blockedInitialOracle struct {
	*oracle.Default
	blockedRobot domain.RobotID
	blockedCfg   string
}

func (o *blockedInitialOracle) blocks(cfg domain.Configuration, robot domain.RobotID) bool {
	return robot == o.blockedRobot && cfg.Key() == o.blockedCfg
}

func (o *blockedInitialOracle) IsInitialMemoized(cfg domain.Configuration, robot domain.RobotID) bool {
	if o.blocks(cfg, robot) {
		return true
	}
	return o.Default.IsInitialMemoized(cfg, robot)
}

func (o *blockedInitialOracle) InitialTransitionDuration(cfg domain.Configuration, robot domain.RobotID) float64 {
	if o.blocks(cfg, robot) {
		return oracle.Infeasible
	}
	return o.Default.InitialTransitionDuration(cfg, robot)
}

func (o *blockedInitialOracle) InitialTransitionDurationHeuristic(cfg domain.Configuration, robot domain.RobotID) float64 {
	if o.blocks(cfg, robot) {
		return oracle.Infeasible
	}
	return o.Default.InitialTransitionDurationHeuristic(cfg, robot)
}

func twoTaskTwoRobotInstance() *domain.Instance {
	tasks := []domain.Task{
		{ID: 0, Name: "t0", Initial: domain.Configuration{Pos: domain.Point{X: 0}}, Terminal: domain.Configuration{Pos: domain.Point{X: 1}}, StaticDuration: 1},
		{ID: 1, Name: "t1", Initial: domain.Configuration{Pos: domain.Point{X: 2}}, Terminal: domain.Configuration{Pos: domain.Point{X: 3}}, StaticDuration: 1},
	}
	robots := []domain.Robot{
		{ID: 0, Name: "r0", Species: 0, Initial: domain.Configuration{Pos: domain.Point{X: 0}}},
		{ID: 1, Name: "r1", Species: 0, Initial: domain.Configuration{Pos: domain.Point{X: 2}}},
	}
	species := []domain.Species{{Name: "ground", Speed: 1}}
	return &domain.Instance{Tasks: tasks, Robots: robots, Species: species}
}

// TestRunPrunesRobotTaskAfterInitialTransitionFailure reproduces SPEC_FULL.md
// §8 scenario 6: once robot0 is discovered infeasible on task0, no later
// candidate assigning robot0 to task0 should reach the scheduler, and no
// goal allocation should ever contain that pairing.
func TestRunPrunesRobotTaskAfterInitialTransitionFailure(t *testing.T) {
	inst := twoTaskTwoRobotInstance()
	blocked := &blockedInitialOracle{
		Default:      oracle.NewDefault(testOracleSpeed(inst), testOracleInitial(inst)),
		blockedRobot: 0,
		blockedCfg:   inst.Tasks[0].Initial.Key(),
	}
	sched := milp.NewScheduler(blocked, milp.DefaultParams(), nil)
	s := New(inst, sched, timekeeper.New(), DefaultParams())

	result, rerr := s.Run(context.Background())
	if rerr != nil {
		t.Fatalf("Run: %v", rerr)
	}
	if result == nil {
		t.Fatal("Run returned nil result")
	}

	stats := result.Statistics
	if stats.NodesDeadend < 1 {
		t.Fatalf("expected at least one deadend node from the blocked (robot0, task0) pairing, got %d", stats.NodesDeadend)
	}
	if stats.NodesPruned < 1 {
		t.Fatalf("expected at least one pruned node reusing the blocked pairing, got %d", stats.NodesPruned)
	}

	if result.Allocation.Get(0, 0) {
		t.Fatal("goal allocation assigns the blocked robot to the blocked task")
	}
}

func testOracleSpeed(inst *domain.Instance) oracle.SpeedLookup {
	return func(robot domain.RobotID) float64 {
		s := inst.SpeciesOf(*inst.RobotByID(robot))
		if s == nil {
			return 0
		}
		return s.Speed
	}
}

func testOracleInitial(inst *domain.Instance) oracle.InitialConfigLookup {
	return func(robot domain.RobotID) domain.Configuration {
		return inst.RobotByID(robot).Initial
	}
}

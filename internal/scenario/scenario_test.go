package scenario

import (
	"math/rand"
	"testing"

	"github.com/elektrokombinacija/itags-scheduler/internal/domain"
	"github.com/elektrokombinacija/itags-scheduler/internal/oracle"
)

func TestGeneratorSamplesPositiveMultipliers(t *testing.T) {
	g := NewGenerator(1.0, 0.3, rand.New(rand.NewSource(7)))
	scenarios := g.Sample(20)
	if len(scenarios) != 20 {
		t.Fatalf("expected 20 scenarios, got %d", len(scenarios))
	}
	for _, s := range scenarios {
		if s.Multiplier <= 0 {
			t.Fatalf("scenario %d has non-positive multiplier %v", s.ID, s.Multiplier)
		}
	}
}

func TestTailSelectorPicksLargestMakespans(t *testing.T) {
	evaluated := []Evaluated{
		{Scenario: Scenario{ID: 0}, Makespan: 10},
		{Scenario: Scenario{ID: 1}, Makespan: 30},
		{Scenario: Scenario{ID: 2}, Makespan: 20},
	}
	picked := TailSelector{}.Select(evaluated, 2)
	if len(picked) != 2 || picked[0].ID != 1 || picked[1].ID != 2 {
		t.Fatalf("expected scenarios [1,2] in descending makespan order, got %+v", picked)
	}
}

func TestUniformSelectorReturnsAllWhenBetaExceedsCount(t *testing.T) {
	evaluated := []Evaluated{{Scenario: Scenario{ID: 0}, Makespan: 5}}
	picked := NewUniformSelector(rand.New(rand.NewSource(1))).Select(evaluated, 5)
	if len(picked) != 1 {
		t.Fatalf("expected 1 scenario, got %d", len(picked))
	}
}

type constOracle struct{}

func (constOracle) IsInitialMemoized(domain.Configuration, domain.RobotID) bool     { return true }
func (constOracle) InitialTransitionDuration(domain.Configuration, domain.RobotID) float64 {
	return 4
}
func (constOracle) InitialTransitionDurationHeuristic(domain.Configuration, domain.RobotID) float64 {
	return 4
}
func (constOracle) IsTransitionMemoized(_, _ domain.Configuration, _ domain.RobotID) bool {
	return true
}
func (constOracle) TransitionDuration(_, _ domain.Configuration, _ domain.RobotID) float64 {
	return 4
}
func (constOracle) TransitionDurationHeuristic(_, _ domain.Configuration, _ domain.RobotID) float64 {
	return 4
}
func (constOracle) TaskDuration(domain.Task, []domain.RobotID) float64 { return 2 }

func TestScaledOracleScalesTravelNotTaskDuration(t *testing.T) {
	wrapped := Wrap(constOracle{}, Scenario{Multiplier: 2.5})
	if got := wrapped.InitialTransitionDuration(domain.Configuration{}, 0); got != 10 {
		t.Fatalf("expected scaled travel duration 10, got %v", got)
	}
	if got := wrapped.TaskDuration(domain.Task{}, nil); got != 2 {
		t.Fatalf("expected unscaled task duration 2, got %v", got)
	}
}

func TestScaledOraclePreservesInfeasibleSentinel(t *testing.T) {
	base := &ScaledOracle{Base: constOracle{}, Multiplier: 3}
	if got := base.scale(oracle.Infeasible); got != oracle.Infeasible {
		t.Fatalf("expected infeasible sentinel preserved, got %v", got)
	}
}

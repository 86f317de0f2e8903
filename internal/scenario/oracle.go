package scenario

import (
	"github.com/elektrokombinacija/itags-scheduler/internal/domain"
	"github.com/elektrokombinacija/itags-scheduler/internal/oracle"
)

// ScaledOracle wraps a base oracle and scales every travel-duration query
// by a scenario's multiplier, leaving memoized/infeasible signaling and
// task durations untouched (§4.4 "Travel durations vary with q but static
// task durations are shared").
type ScaledOracle struct {
	Base       oracle.Oracle
	Multiplier float64
}

// Wrap returns an oracle.Oracle scoped to one scenario.
func Wrap(base oracle.Oracle, s Scenario) oracle.Oracle {
	return &ScaledOracle{Base: base, Multiplier: s.Multiplier}
}

func (o *ScaledOracle) scale(d float64) float64 {
	if d == oracle.Infeasible {
		return oracle.Infeasible
	}
	return d * o.Multiplier
}

func (o *ScaledOracle) IsInitialMemoized(cfg domain.Configuration, robot domain.RobotID) bool {
	return o.Base.IsInitialMemoized(cfg, robot)
}

func (o *ScaledOracle) InitialTransitionDuration(cfg domain.Configuration, robot domain.RobotID) float64 {
	return o.scale(o.Base.InitialTransitionDuration(cfg, robot))
}

func (o *ScaledOracle) InitialTransitionDurationHeuristic(cfg domain.Configuration, robot domain.RobotID) float64 {
	return o.scale(o.Base.InitialTransitionDurationHeuristic(cfg, robot))
}

func (o *ScaledOracle) IsTransitionMemoized(a, b domain.Configuration, robot domain.RobotID) bool {
	return o.Base.IsTransitionMemoized(a, b, robot)
}

func (o *ScaledOracle) TransitionDuration(a, b domain.Configuration, robot domain.RobotID) float64 {
	return o.scale(o.Base.TransitionDuration(a, b, robot))
}

func (o *ScaledOracle) TransitionDurationHeuristic(a, b domain.Configuration, robot domain.RobotID) float64 {
	return o.scale(o.Base.TransitionDurationHeuristic(a, b, robot))
}

// TaskDuration is intentionally unscaled: static task durations are
// shared across every scenario.
func (o *ScaledOracle) TaskDuration(task domain.Task, coalition []domain.RobotID) float64 {
	return o.Base.TaskDuration(task, coalition)
}

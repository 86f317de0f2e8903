package taskinfo

import (
	"github.com/elektrokombinacija/itags-scheduler/internal/domain"
	"github.com/elektrokombinacija/itags-scheduler/internal/failure"
	"github.com/elektrokombinacija/itags-scheduler/internal/oracle"
)

// PairKey identifies a directed task pair (SPEC_FULL.md §3 "Transition
// info (per directed task pair (i,j), per allocation)").
type PairKey struct {
	From, To domain.TaskID
}

// TransitionInfo holds the transition lower bound x_ij for one directed
// task pair under one allocation.
type TransitionInfo struct {
	From, To     domain.TaskID
	lowerBound   float64
	contribution map[domain.RobotID]float64
	status       map[domain.RobotID]Status
}

// LowerBound returns x_ij.
func (xi *TransitionInfo) LowerBound() float64 { return xi.lowerBound }

// StatusOf returns the provenance of robot r's contribution to x_ij.
func (xi *TransitionInfo) StatusOf(r domain.RobotID) Status { return xi.status[r] }

func (xi *TransitionInfo) recompute() {
	max := 0.0
	first := true
	for _, v := range xi.contribution {
		if first || v > max {
			max = v
			first = false
		}
	}
	xi.lowerBound = max
}

// AllTransitionsInfo is the per-directed-pair transition info for a set of
// requested pairs under one allocation.
type AllTransitionsInfo struct {
	byPair map[PairKey]*TransitionInfo
}

// Get returns the transition info for (from,to), or nil if not requested.
func (a *AllTransitionsInfo) Get(from, to domain.TaskID) *TransitionInfo {
	return a.byPair[PairKey{from, to}]
}

// All returns every computed transition info, keyed by directed pair.
func (a *AllTransitionsInfo) All() map[PairKey]*TransitionInfo {
	return a.byPair
}

// BuildTransitionInfo computes x_ij for every requested directed pair,
// maxing over each pair's transition coalition (SPEC_FULL.md §3). Callers
// pass exactly the pairs that matter for the scheduler being built:
// precedence edges need one direction, mutex pairs need both.
func BuildTransitionInfo(inst *domain.Instance, alloc domain.Allocation, pairs []PairKey, orc oracle.Oracle) (*AllTransitionsInfo, failure.Reason) {
	out := &AllTransitionsInfo{byPair: make(map[PairKey]*TransitionInfo, len(pairs))}

	for _, pk := range pairs {
		from := inst.TaskByID(pk.From)
		to := inst.TaskByID(pk.To)
		if from == nil || to == nil {
			continue
		}
		coalition := alloc.TransitionCoalition(pk.From, pk.To)
		xi := &TransitionInfo{
			From:         pk.From,
			To:           pk.To,
			contribution: make(map[domain.RobotID]float64, len(coalition)),
			status:       make(map[domain.RobotID]Status, len(coalition)),
		}
		for _, rid := range coalition {
			robot := inst.RobotByID(rid)
			if robot == nil {
				continue
			}
			memoized := orc.IsTransitionMemoized(from.Terminal, to.Initial, rid)
			v := orc.TransitionDuration(from.Terminal, to.Initial, rid)
			if v < 0 {
				return nil, failure.TransitionFailure{Species: robot.Species, Predecessor: pk.From, Successor: pk.To}
			}
			xi.contribution[rid] = v
			if memoized {
				xi.status[rid] = Authoritative
			} else {
				xi.status[rid] = Heuristic
			}
		}
		xi.recompute()
		out.byPair[PairKey{pk.From, pk.To}] = xi
	}
	return out, nil
}

// RefreshTransitionContribution re-queries the authoritative transition duration
// for (from,to,robot) when its status is heuristic. Mirrors
// taskinfo.RefreshRobotContribution for transitions.
func RefreshTransitionContribution(xi *TransitionInfo, fromCfg, toCfg domain.Configuration, robot domain.RobotID, orc oracle.Oracle) (bool, failure.Reason) {
	if xi.status[robot] == Authoritative {
		return false, nil
	}
	v := orc.TransitionDuration(fromCfg, toCfg, robot)
	if v < 0 {
		return false, failure.InitialTransitionFailure{Robot: robot, Task: xi.To}
	}
	prev := xi.contribution[robot]
	xi.contribution[robot] = v
	xi.status[robot] = Authoritative
	xi.recompute()
	return v > prev, nil
}

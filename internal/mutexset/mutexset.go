// Package mutexset implements the Mutex Indicator Set (SPEC_FULL.md §4.2,
// GLOSSARY "Mutex pair"): one binary ordering variable per pair of tasks
// whose assigned coalitions share at least one robot and which are not
// already precedence-ordered.
package mutexset

import "github.com/elektrokombinacija/itags-scheduler/internal/domain"

// Pair is an unordered mutex pair, always stored with A < B.
type Pair struct {
	A, B domain.TaskID
}

func newPair(i, j domain.TaskID) Pair {
	if i < j {
		return Pair{i, j}
	}
	return Pair{j, i}
}

// Set is the collection of mutex pairs for one allocation, each carrying a
// binary indicator variable with the convention p_{ij}=1 ⇔ i precedes j
// (i < j in Pair's normalized order).
type Set struct {
	pairs     []Pair
	indicator map[Pair]bool // realized value, filled in by the scheduler once solved
	resolved  map[Pair]bool
}

// Build enumerates all unordered task pairs whose coalitions overlap and
// which are not already precedence-ordered (directly or transitively).
func Build(inst *domain.Instance, alloc domain.Allocation) *Set {
	s := &Set{indicator: make(map[Pair]bool), resolved: make(map[Pair]bool)}
	tasks := inst.Tasks
	for i := 0; i < len(tasks); i++ {
		for j := i + 1; j < len(tasks); j++ {
			ti, tj := tasks[i].ID, tasks[j].ID
			if !alloc.SharesRobot(ti, tj) {
				continue
			}
			if inst.Plan != nil && inst.Plan.Ordered(ti, tj) {
				continue
			}
			s.pairs = append(s.pairs, newPair(ti, tj))
		}
	}
	return s
}

// Pairs returns all mutex pairs.
func (s *Set) Pairs() []Pair { return s.pairs }

// Len returns the number of mutex pairs (the number of binary MILP
// variables the scheduler must materialize).
func (s *Set) Len() int { return len(s.pairs) }

// SetIndicator records the realized orientation of a pair: true means A
// precedes B (p_{AB}=1), false means B precedes A.
func (s *Set) SetIndicator(p Pair, aPrecedesB bool) {
	s.indicator[p] = aPrecedesB
	s.resolved[p] = true
}

// Indicator returns the realized orientation, if resolved.
func (s *Set) Indicator(p Pair) (aPrecedesB bool, ok bool) {
	return s.indicator[p], s.resolved[p]
}

// PrecedenceSetByMutex returns the directed edges induced by resolved
// mutex indicators, the "precedence set by mutex resolution" artifact
// SPEC_FULL.md §4.2 specifies should be carried alongside the schedule.
func (s *Set) PrecedenceSetByMutex() []domain.Edge {
	out := make([]domain.Edge, 0, len(s.pairs))
	for _, p := range s.pairs {
		aPrecedesB, ok := s.indicator[p]
		if !ok {
			continue
		}
		if aPrecedesB {
			out = append(out, domain.Edge{From: p.A, To: p.B})
		} else {
			out = append(out, domain.Edge{From: p.B, To: p.A})
		}
	}
	return out
}

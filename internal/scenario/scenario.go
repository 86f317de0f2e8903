// Package scenario implements SPEC_FULL.md §4.4's "Scenario selection":
// sampling Q candidate travel-time scaling factors and choosing the beta
// whose makespans dominate a target tail for the stochastic Benders
// master/subscheduler split in internal/benders.
package scenario

import (
	"math/rand"
	"sort"

	"github.com/elektrokombinacija/itags-scheduler/internal/algo"
)

// Scenario is one sampled realization: Multiplier scales every oracle
// travel duration (static task durations are shared across scenarios per
// §4.4 "static task durations are shared").
type Scenario struct {
	ID         int
	Multiplier float64
}

// Generator samples scenarios from a LogNormal travel-time distribution,
// reusing the teacher's algo.LogNormalDist sampling rather than hand
// rolling a new random model.
type Generator struct {
	dist algo.LogNormalDist
	rng  *rand.Rand
}

// NewGenerator builds a Generator whose multipliers have the given mean
// and standard deviation (both must describe a positive multiplier, so a
// mean of 1 with modest std is the typical "travel time is usually as
// estimated, occasionally much worse" configuration).
func NewGenerator(mean, std float64, rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Generator{dist: algo.NewLogNormalFromMeanStd(mean, std), rng: rng}
}

// Sample draws n scenarios.
func (g *Generator) Sample(n int) []Scenario {
	out := make([]Scenario, n)
	for i := range out {
		out[i] = Scenario{ID: i, Multiplier: g.dist.Sample(g.rng)}
	}
	return out
}

// Evaluated pairs a scenario with its subproblem makespan, the input a
// Selector ranks.
type Evaluated struct {
	Scenario Scenario
	Makespan float64
}

// Selector chooses beta out of Q scenarios whose makespans dominate a
// target tail (§4.4 "choose β out of Q scenarios whose makespans dominate
// a target tail; uniform selection is acceptable. An optional learned
// selector may be substituted.").
type Selector interface {
	Select(evaluated []Evaluated, beta int) []Scenario
}

// UniformSelector selects beta scenarios uniformly at random, the
// documented default.
type UniformSelector struct {
	rng *rand.Rand
}

// NewUniformSelector builds a UniformSelector; a nil rng uses a
// fixed-seed source so selection is reproducible in tests.
func NewUniformSelector(rng *rand.Rand) *UniformSelector {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &UniformSelector{rng: rng}
}

func (u *UniformSelector) Select(evaluated []Evaluated, beta int) []Scenario {
	if beta >= len(evaluated) {
		out := make([]Scenario, len(evaluated))
		for i, e := range evaluated {
			out[i] = e.Scenario
		}
		return out
	}
	perm := u.rng.Perm(len(evaluated))
	out := make([]Scenario, beta)
	for i := 0; i < beta; i++ {
		out[i] = evaluated[perm[i]].Scenario
	}
	return out
}

// TailSelector picks the beta scenarios with the largest makespans, i.e.
// the worst-tail scenarios a CVaR-style aggregate would weight most.
type TailSelector struct{}

func (TailSelector) Select(evaluated []Evaluated, beta int) []Scenario {
	sorted := append([]Evaluated(nil), evaluated...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Makespan > sorted[j].Makespan })
	if beta > len(sorted) {
		beta = len(sorted)
	}
	out := make([]Scenario, beta)
	for i := 0; i < beta; i++ {
		out[i] = sorted[i].Scenario
	}
	return out
}

// LearnedSelector wraps a caller-supplied scoring function as the
// "optional learned selector" §4.4 allows in place of uniform/tail
// selection; a nil Score falls back to TailSelector so the engine always
// has a usable default.
type LearnedSelector struct {
	Score func(Evaluated) float64
}

func (l LearnedSelector) Select(evaluated []Evaluated, beta int) []Scenario {
	if l.Score == nil {
		return TailSelector{}.Select(evaluated, beta)
	}
	sorted := append([]Evaluated(nil), evaluated...)
	sort.Slice(sorted, func(i, j int) bool { return l.Score(sorted[i]) > l.Score(sorted[j]) })
	if beta > len(sorted) {
		beta = len(sorted)
	}
	out := make([]Scenario, beta)
	for i := 0; i < beta; i++ {
		out[i] = sorted[i].Scenario
	}
	return out
}

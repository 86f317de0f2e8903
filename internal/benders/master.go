package benders

import (
	"context"
	"fmt"
	"sort"

	"github.com/elektrokombinacija/itags-scheduler/internal/domain"
	"github.com/elektrokombinacija/itags-scheduler/internal/mutexset"
	"golang.org/x/sync/errgroup"
)

// AggregationMode selects how per-scenario makespans combine into the
// master's objective over the selected scenario set. AggregateMean (the
// default) averages the selected scenarios, which are a uniform random
// subset under the default selector; AggregateWorst takes their maximum.
type AggregationMode int

const (
	AggregateMean AggregationMode = iota
	AggregateWorst
)

func aggregate(mode AggregationMode, values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	switch mode {
	case AggregateWorst:
		max := values[0]
		for _, v := range values[1:] {
			if v > max {
				max = v
			}
		}
		return max
	default:
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values))
	}
}

// masterCandidate is one mutex orientation considered by the master, plus
// its evaluated per-scenario makespans and aggregate objective.
type masterCandidate struct {
	orientation    map[mutexset.Pair]bool
	perScenario    map[int]float64
	cuts           []OptimalityCut
	aggregate      float64
}

// pickOrientation evaluates every candidate orientation against every
// selected scenario's Subproblem (one errgroup.Group with one goroutine per
// candidate, so candidates are evaluated concurrently; each goroutine
// solves its candidate's per-scenario subproblems in sequence), then returns the
// candidate with the lowest aggregate objective. This replaces a true
// lazy-constraint integer master (which would need callback support
// gonum's simplex doesn't expose) with direct evaluation of the finitely
// many orientations the scenarios' own deterministic optima suggest; see
// DESIGN.md.
func pickOrientation(ctx context.Context, inst *domain.Instance, alloc domain.Allocation, mset *mutexset.Set, contexts []*scenarioContext, mode AggregationMode) (*masterCandidate, error) {
	candidates := uniqueCandidates(contexts)

	results := make([]*masterCandidate, len(candidates))
	g, _ := errgroup.WithContext(ctx)
	for i, cand := range candidates {
		i, cand := i, cand
		g.Go(func() error {
			mc := &masterCandidate{
				orientation: cand,
				perScenario: make(map[int]float64, len(contexts)),
			}
			values := make([]float64, 0, len(contexts))
			for _, sc := range contexts {
				makespan, cut, err := sc.evaluate(alloc, inst, mset, cand)
				if err != nil {
					return nil // infeasible orientation for this scenario: drop the candidate, not the whole run
				}
				mc.perScenario[sc.scenario.ID] = makespan
				mc.cuts = append(mc.cuts, cut)
				values = append(values, makespan)
			}
			mc.aggregate = aggregate(mode, values)
			results[i] = mc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var best *masterCandidate
	for _, mc := range results {
		if mc == nil {
			continue
		}
		if best == nil || mc.aggregate < best.aggregate {
			best = mc
		}
	}
	if best == nil {
		return nil, errNoFeasibleOrientation
	}
	return best, nil
}

var errNoFeasibleOrientation = errAggregate("no candidate mutex orientation was feasible for every selected scenario")

type errAggregate string

func (e errAggregate) Error() string { return string(e) }

func uniqueCandidates(contexts []*scenarioContext) []map[mutexset.Pair]bool {
	seen := make(map[string]bool)
	var out []map[mutexset.Pair]bool
	for _, sc := range contexts {
		key := candidateKey(sc.candidate)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, sc.candidate)
	}
	return out
}

// candidateKey returns a string independent of map iteration order so
// equal orientations dedupe regardless of which scenario produced them.
func candidateKey(c map[mutexset.Pair]bool) string {
	keys := make([]mutexset.Pair, 0, len(c))
	for p := range c {
		keys = append(keys, p)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].A != keys[j].A {
			return keys[i].A < keys[j].A
		}
		return keys[i].B < keys[j].B
	})
	key := ""
	for _, p := range keys {
		key += fmt.Sprintf("%d,%d:%t;", p.A, p.B, c[p])
	}
	return key
}

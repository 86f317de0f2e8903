// Command benchgen generates deterministic synthetic problem documents
// (SPEC_FULL.md §6) for benchmarking the allocation search and scheduler:
// a grid of task/robot positions, a random precedence DAG over tasks, and
// desired-trait vectors, a fraction of them scaled up by 1.8.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/elektrokombinacija/itags-scheduler/internal/problem"
)

// GenParams controls one generated instance.
type GenParams struct {
	Seed            int64
	NumRobots       int
	NumSpecies      int
	GridWidth       int
	GridHeight      int
	TaskCount       int
	TraitDims       int
	PrecedenceRatio float64 // fraction of tasks with a predecessor
	CoalitionRatio  float64 // fraction of tasks requiring more than one robot
}

func generate(p GenParams) *problem.Document {
	rng := rand.New(rand.NewSource(p.Seed))

	species := make([]problem.Species, p.NumSpecies)
	for i := range species {
		traits := make([]float64, p.TraitDims)
		for d := range traits {
			traits[d] = 0.5 + rng.Float64()
		}
		species[i] = problem.Species{
			Name:   fmt.Sprintf("species-%d", i),
			Traits: traits,
			Speed:  0.5 + rng.Float64()*1.5,
		}
	}

	robots := make([]problem.Robot, p.NumRobots)
	for i := range robots {
		robots[i] = problem.Robot{
			Name:    fmt.Sprintf("robot-%d", i),
			Species: rng.Intn(p.NumSpecies),
			InitialConfiguration: problem.Configuration{
				Pos: [3]float64{rng.Float64() * float64(p.GridWidth), rng.Float64() * float64(p.GridHeight), 0},
			},
		}
	}

	tasks := make([]problem.Task, p.TaskCount)
	for i := range tasks {
		traits := make([]float64, p.TraitDims)
		requireCoalition := rng.Float64() < p.CoalitionRatio
		for d := range traits {
			v := 0.3 + rng.Float64()*0.7
			if requireCoalition {
				v *= 1.8 // now in [0.54, 1.8); species traits are drawn from [0.5, 1.5), so this can exceed a single species' value
			}
			traits[d] = v
		}
		start := problem.Configuration{Pos: [3]float64{rng.Float64() * float64(p.GridWidth), rng.Float64() * float64(p.GridHeight), 0}}
		end := problem.Configuration{Pos: [3]float64{rng.Float64() * float64(p.GridWidth), rng.Float64() * float64(p.GridHeight), 0}}
		tasks[i] = problem.Task{
			Name:                  fmt.Sprintf("task-%d", i),
			Duration:              5 + rng.Float64()*25,
			DesiredTraits:         traits,
			InitialConfiguration:  start,
			TerminalConfiguration: end,
		}
	}

	var precedence []problem.PrecedenceConstraint
	for i := 1; i < p.TaskCount; i++ {
		if rng.Float64() < p.PrecedenceRatio {
			pred := rng.Intn(i) // always index < i, guaranteeing an acyclic order
			precedence = append(precedence, problem.PrecedenceConstraint{pred, i})
		}
	}

	return &problem.Document{
		Tasks:                 tasks,
		Robots:                robots,
		Species:               species,
		PrecedenceConstraints: precedence,
		ItagsParameters:       problem.ItagsParameters{ConfigType: problem.ItagsConfigDefault},
		SchedulerParameters:   problem.SchedulerParameters{ConfigType: problem.SchedulerConfigDeterministic},
	}
}

func main() {
	seed := flag.Int64("seed", 42, "random seed")
	numRobots := flag.Int("robots", 6, "number of robots")
	numSpecies := flag.Int("species", 2, "number of species")
	gridWidth := flag.Float64("width", 20, "grid width")
	gridHeight := flag.Float64("height", 20, "grid height")
	taskCount := flag.Int("tasks", 10, "number of tasks")
	traitDims := flag.Int("trait-dims", 2, "number of trait dimensions")
	precedenceRatio := flag.Float64("precedence-ratio", 0.3, "fraction of tasks given a predecessor")
	coalitionRatio := flag.Float64("coalition-ratio", 0.25, "fraction of tasks requiring a multi-robot coalition")
	outputDir := flag.String("output", "testdata", "output directory")
	scalingMode := flag.Bool("scaling", false, "generate a scaling suite (5, 10, 25, 50, 100 tasks)")

	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "error creating output directory: %v\n", err)
		os.Exit(1)
	}

	sizes := []int{*taskCount}
	if *scalingMode {
		sizes = []int{5, 10, 25, 50, 100}
	}

	for _, n := range sizes {
		gridSide := math.Ceil(math.Sqrt(float64(n)) * 4)
		params := GenParams{
			Seed:            *seed,
			NumRobots:       *numRobots,
			NumSpecies:      *numSpecies,
			GridWidth:       int(math.Max(gridSide, *gridWidth)),
			GridHeight:      int(math.Max(gridSide, *gridHeight)),
			TaskCount:       n,
			TraitDims:       *traitDims,
			PrecedenceRatio: *precedenceRatio,
			CoalitionRatio:  *coalitionRatio,
		}
		doc := generate(params)

		name := fmt.Sprintf("instance_%dtasks_%drobots_%d.json", n, *numRobots, *seed)
		path := filepath.Join(*outputDir, name)
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "error marshaling %s: %v\n", name, err)
			continue
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "error writing %s: %v\n", path, err)
			continue
		}
		fmt.Printf("generated: %s (%d tasks, %d robots, %d species)\n", path, n, *numRobots, *numSpecies)
	}
}

// Command benchrun loads generated problem documents and solves each one
// in-process, recording timing and result metrics to CSV. Unlike a CLI
// subprocess harness, it links the scheduler and search packages directly,
// since both are ordinary Go libraries with no external solver binary to
// shell out to.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/elektrokombinacija/itags-scheduler/internal/domain"
	"github.com/elektrokombinacija/itags-scheduler/internal/envpool"
	"github.com/elektrokombinacija/itags-scheduler/internal/milp"
	"github.com/elektrokombinacija/itags-scheduler/internal/oracle"
	"github.com/elektrokombinacija/itags-scheduler/internal/problem"
	"github.com/elektrokombinacija/itags-scheduler/internal/search"
)

// RunResult is one runOnce invocation's recorded metrics.
type RunResult struct {
	Timestamp      string
	CommitHash     string
	GoVersion      string
	OS             string
	Arch           string
	Instance       string
	NumTasks       int
	NumRobots      int
	RuntimeMs      float64
	Success        bool
	Makespan       float64
	NodesGenerated int
	NodesEvaluated int
	NodesExpanded  int
	NodesPruned    int
	NodesDeadend   int
	FailureKind    string
}

func getGitCommit() string {
	cmd := exec.Command("git", "rev-parse", "--short", "HEAD")
	output, err := cmd.Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(output))
}

func buildOracle(inst *domain.Instance) oracle.Oracle {
	return oracle.NewDefault(
		func(robot domain.RobotID) float64 {
			r := inst.RobotByID(robot)
			if r == nil {
				return 0
			}
			sp := inst.SpeciesOf(*r)
			if sp == nil {
				return 0
			}
			return sp.Speed
		},
		func(robot domain.RobotID) domain.Configuration {
			r := inst.RobotByID(robot)
			if r == nil {
				return domain.Configuration{}
			}
			return r.Initial
		},
	)
}

func runOnce(name string, doc *problem.Document, inst *domain.Instance, timeout time.Duration) *RunResult {
	result := &RunResult{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		CommitHash: getGitCommit(),
		GoVersion:  runtime.Version(),
		OS:         runtime.GOOS,
		Arch:       runtime.GOARCH,
		Instance:   name,
		NumTasks:   len(inst.Tasks),
		NumRobots:  len(inst.Robots),
	}

	tk := envpool.DefaultTimekeeper()
	orc := buildOracle(inst)
	scheduler := milp.NewScheduler(orc, milp.DefaultParams(), tk)

	sp := search.DefaultParams()
	sp.HasTimeout = true
	sp.Timeout = timeout
	sp.Reverse = doc.UseReverse

	sch := search.New(inst, scheduler, tk, sp)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	out, rerr := sch.Run(ctx)
	result.RuntimeMs = float64(time.Since(start).Microseconds()) / 1000.0

	stats := sch.Statistics()
	result.NodesGenerated = stats.NodesGenerated
	result.NodesEvaluated = stats.NodesEvaluated
	result.NodesExpanded = stats.NodesExpanded
	result.NodesPruned = stats.NodesPruned
	result.NodesDeadend = stats.NodesDeadend

	if rerr != nil {
		result.Success = false
		result.FailureKind = rerr.Error()
		return result
	}
	result.Success = true
	result.Makespan = out.Schedule.Makespan
	return result
}

func loadInstance(path string) (*problem.Document, *domain.Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	doc, fieldErrs, err := problem.Parse(data)
	if err != nil {
		return nil, nil, err
	}
	if len(fieldErrs) > 0 {
		return nil, nil, fmt.Errorf("%s: %v", path, fieldErrs)
	}
	inst, err := doc.ToInstance()
	if err != nil {
		return nil, nil, err
	}
	return doc, inst, nil
}

func writeCSV(results []*RunResult, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := []string{
		"timestamp", "commit_hash", "go_version", "os", "arch",
		"instance", "num_tasks", "num_robots", "runtime_ms", "success",
		"makespan", "nodes_generated", "nodes_evaluated", "nodes_expanded",
		"nodes_pruned", "nodes_deadend", "failure_kind",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			r.Timestamp, r.CommitHash, r.GoVersion, r.OS, r.Arch,
			r.Instance, strconv.Itoa(r.NumTasks), strconv.Itoa(r.NumRobots),
			strconv.FormatFloat(r.RuntimeMs, 'f', 3, 64), strconv.FormatBool(r.Success),
			strconv.FormatFloat(r.Makespan, 'f', 3, 64),
			strconv.Itoa(r.NodesGenerated), strconv.Itoa(r.NodesEvaluated),
			strconv.Itoa(r.NodesExpanded), strconv.Itoa(r.NodesPruned),
			strconv.Itoa(r.NodesDeadend), r.FailureKind,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(results []*RunResult) {
	var successes int
	var totalRuntime, totalMakespan float64
	for _, r := range results {
		if r.Success {
			successes++
			totalRuntime += r.RuntimeMs
			totalMakespan += r.Makespan
		}
	}
	fmt.Println("\n=== BENCHMARK SUMMARY ===")
	fmt.Printf("runs=%d successes=%d\n", len(results), successes)
	if successes > 0 {
		fmt.Printf("avg_runtime_ms=%.2f avg_makespan=%.2f\n", totalRuntime/float64(successes), totalMakespan/float64(successes))
	}
}

func main() {
	inputDir := flag.String("input", "testdata", "directory containing problem document JSON files")
	outputFile := flag.String("output", "evidence/benchmark_results.csv", "output CSV file")
	timeout := flag.Duration("timeout", 2*time.Minute, "timeout per instance")
	taskFilter := flag.Int("tasks", 0, "run only instances with this many tasks (0 = all)")
	verbose := flag.Bool("verbose", false, "verbose output")

	flag.Parse()

	if err := os.MkdirAll(filepath.Dir(*outputFile), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "error creating output directory: %v\n", err)
		os.Exit(1)
	}

	pattern := filepath.Join(*inputDir, "*.json")
	files, err := filepath.Glob(pattern)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error finding instance files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "no instance files found in %s\nrun benchgen first\n", *inputDir)
		os.Exit(1)
	}
	sort.Strings(files)

	var results []*RunResult
	for i, file := range files {
		doc, inst, err := loadInstance(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error loading %s: %v\n", file, err)
			continue
		}
		if *taskFilter > 0 && len(inst.Tasks) != *taskFilter {
			continue
		}

		name := filepath.Base(file)
		if *verbose {
			fmt.Printf("[%d/%d] %s ... ", i+1, len(files), name)
		}
		r := runOnce(name, doc, inst, *timeout)
		results = append(results, r)
		if *verbose {
			if r.Success {
				fmt.Printf("OK (%.2fms, makespan=%.2f)\n", r.RuntimeMs, r.Makespan)
			} else {
				fmt.Printf("FAILED (%s)\n", r.FailureKind)
			}
		}
	}

	if err := writeCSV(results, *outputFile); err != nil {
		fmt.Fprintf(os.Stderr, "error writing results: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nresults written to: %s\n", *outputFile)
	printSummary(results)
}

package httpapi

import (
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/elektrokombinacija/itags-scheduler/internal/benders"
	"github.com/elektrokombinacija/itags-scheduler/internal/domain"
	"github.com/elektrokombinacija/itags-scheduler/internal/metrics"
	"github.com/elektrokombinacija/itags-scheduler/internal/milp"
	"github.com/elektrokombinacija/itags-scheduler/internal/oracle"
	"github.com/elektrokombinacija/itags-scheduler/internal/problem"
	"github.com/elektrokombinacija/itags-scheduler/internal/search"
)

const maxBodyBytes = 16 << 20 // 16MiB; a pathological problem document should fail fast, not exhaust memory

// stochasticResult is the optional extra section handleSolve attaches to
// problem.Result when scheduler_parameters.config_type selects the
// stochastic or learned_selector scheduler: the deterministic ITAGS search
// still picks the allocation, and the stochastic master then scores that
// allocation's robustness across sampled travel-time scenarios
// (SPEC_FULL.md §4.4).
type stochasticResult struct {
	*problem.Result
	PerScenarioMakespan map[int]float64         `json:"per_scenario_makespan,omitempty"`
	AggregateMakespan   float64                 `json:"aggregate_makespan,omitempty"`
	MakespanSummary     benders.MakespanSummary `json:"makespan_summary"`
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	runID := uuid.New().String()
	w.Header().Set("X-Run-Id", runID)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read request body: "+err.Error())
		return
	}
	if len(body) > maxBodyBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "problem document exceeds size limit")
		return
	}

	doc, fieldErrs, err := problem.Parse(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(fieldErrs) > 0 {
		details := make([]string, len(fieldErrs))
		for i, fe := range fieldErrs {
			details[i] = fe.Error()
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"validation_errors": details})
		return
	}

	inst, err := doc.ToInstance()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	env, err := s.pool.Acquire(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "no MILP environment available: "+err.Error())
		return
	}
	defer s.pool.Release(env)

	orc := defaultOracle(inst)
	schedParams := toSchedulerParams(doc.SchedulerParameters)
	scheduler := milp.NewScheduler(orc, schedParams, s.tk)

	searchParams := toSearchParams(doc.ItagsParameters, inst)
	searchParams.Reverse = doc.UseReverse
	sch := search.New(inst, scheduler, s.tk, searchParams)

	ctx := r.Context()
	result, rerr := sch.Run(ctx)
	stats := toStatistics(sch.Statistics())
	reportSearchMetrics(stats)
	if rerr != nil {
		s.log.Info("solve failed", zap.String("run_id", runID), zap.Error(rerr))
		writeJSON(w, http.StatusOK, problem.NewFailureResult(rerr, stats))
		return
	}

	out := problem.NewSuccessResult(result.Allocation, result.Schedule, stats)

	if doc.SchedulerParameters.ConfigType == problem.SchedulerConfigStochastic ||
		doc.SchedulerParameters.ConfigType == problem.SchedulerConfigLearned {
		solver := benders.New(orc, toBendersParams(doc.SchedulerParameters, schedParams), s.tk, nil)
		bresult, brerr := solver.Solve(ctx, inst, result.Allocation)
		if brerr != nil {
			s.log.Warn("stochastic scoring failed", zap.String("run_id", runID), zap.Error(brerr))
			writeJSON(w, http.StatusOK, out)
			return
		}
		s.log.Info("solve succeeded", zap.String("run_id", runID), zap.Float64("aggregate_makespan", bresult.Aggregate))
		writeJSON(w, http.StatusOK, stochasticResult{
			Result:              out,
			PerScenarioMakespan: bresult.PerScenarioMakespan,
			AggregateMakespan:   bresult.Aggregate,
			MakespanSummary:     bresult.Summary,
		})
		return
	}

	s.log.Info("solve succeeded", zap.String("run_id", runID), zap.Float64("makespan", result.Schedule.Makespan))
	writeJSON(w, http.StatusOK, out)
}

func defaultOracle(inst *domain.Instance) oracle.Oracle {
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

func toSchedulerParams(p problem.SchedulerParameters) milp.Params {
	return milp.Params{
		Timeout:                  durationSeconds(p.Timeout),
		MilpTimeout:              durationSeconds(p.MilpTimeout),
		Threads:                  p.Threads,
		MipGap:                   p.MipGap,
		HeuristicTime:            durationSeconds(p.HeuristicTime),
		Method:                   p.Method,
		ReturnFeasibleOnTimeout:  p.ReturnFeasibleOnTimeout,
		UseHierarchicalObjective: p.UseHierarchicalObjective,
	}
}

func durationSeconds(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}

func toSearchParams(p problem.ItagsParameters, inst *domain.Instance) search.Params {
	sp := search.DefaultParams()
	sp.HasTimeout = p.HasTimeout
	sp.Timeout = durationSeconds(p.Timeout)
	if p.TimerName != "" {
		sp.TimerName = p.TimerName
	}
	sp.SavePrunedNodes = p.SavePrunedNodes
	sp.SaveClosedNodes = p.SaveClosedNodes
	sp.TraitPolicies = defaultTraitPolicies(inst)
	return sp
}

// defaultTraitPolicies reports every trait dimension as a Capability
// (min-across-coalition), the documented default reduction (SPEC_FULL.md
// §4.1), sized to the widest desired-traits/species-traits vector present.
func defaultTraitPolicies(inst *domain.Instance) []domain.TraitPolicy {
	n := 0
	for _, t := range inst.Tasks {
		if len(t.DesiredTraits) > n {
			n = len(t.DesiredTraits)
		}
	}
	for _, s := range inst.Species {
		if len(s.Traits) > n {
			n = len(s.Traits)
		}
	}
	policies := make([]domain.TraitPolicy, n)
	for i := range policies {
		policies[i] = domain.Capability
	}
	return policies
}

func toBendersParams(p problem.SchedulerParameters, schedParams milp.Params) benders.Params {
	bp := benders.DefaultParams()
	bp.SchedulerParams = schedParams
	if p.NumScenarios > 0 {
		bp.NumScenarios = int(p.NumScenarios)
	}
	if p.Beta > 0 {
		bp.Beta = int(p.Beta)
	}
	if p.Gamma > 0 {
		bp.MeanStd = [2]float64{1, p.Gamma}
	}
	return bp
}

// reportSearchMetrics publishes one solve's counters into the process-wide
// Prometheus collectors (SPEC_FULL.md §4.7); internal/search itself stays
// free of the prometheus import, the way internal/metrics documents.
func reportSearchMetrics(s problem.Statistics) {
	metrics.NodesGenerated.Add(float64(s.NodesGenerated))
	metrics.NodesEvaluated.Add(float64(s.NodesEvaluated))
	metrics.NodesExpanded.Add(float64(s.NodesExpanded))
	metrics.NodesPruned.Add(float64(s.NodesPruned))
	metrics.NodesDeadend.Add(float64(s.NodesDeadend))
}

func toStatistics(s search.Statistics) problem.Statistics {
	return problem.Statistics{
		NodesGenerated: s.NodesGenerated,
		NodesEvaluated: s.NodesEvaluated,
		NodesExpanded:  s.NodesExpanded,
		NodesPruned:    s.NodesPruned,
		NodesDeadend:   s.NodesDeadend,
	}
}

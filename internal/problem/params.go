package problem

import "fmt"

// FieldError is one structured validation failure: a field path plus the
// reason it is invalid or missing, mirroring the original's CLI11-based
// per-option diagnostics (SPEC_FULL.md "SUPPLEMENTED FEATURES") rather than
// a single opaque error.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Reason) }

// ItagsParameters is the §6 "Search parameters" object.
type ItagsParameters struct {
	ConfigType      string  `json:"config_type"`
	HasTimeout      bool    `json:"has_timeout"`
	Timeout         float64 `json:"timeout"`
	TimerName       string  `json:"timer_name"`
	SavePrunedNodes bool    `json:"save_pruned_nodes"`
	SaveClosedNodes bool    `json:"save_closed_nodes"`

	// Focal-A* variant only.
	W       float64 `json:"w,omitempty"`
	Rebuild bool    `json:"rebuild,omitempty"`
}

const (
	ItagsConfigDefault = "default"
	ItagsConfigFocal   = "focal_a_star"
)

func (p *ItagsParameters) applyDefaults() {
	if p.ConfigType == "" {
		p.ConfigType = ItagsConfigDefault
	}
	if p.TimerName == "" {
		p.TimerName = "itags"
	}
	if p.ConfigType == ItagsConfigFocal && p.W == 0 {
		p.W = 1.0
	}
}

func (p *ItagsParameters) validate() []FieldError {
	var errs []FieldError
	switch p.ConfigType {
	case ItagsConfigDefault, ItagsConfigFocal:
	default:
		errs = append(errs, FieldError{"itags_parameters.config_type", fmt.Sprintf("unknown config_type %q", p.ConfigType)})
	}
	if p.HasTimeout && p.Timeout <= 0 {
		errs = append(errs, FieldError{"itags_parameters.timeout", "must be > 0 when has_timeout is true"})
	}
	if p.ConfigType == ItagsConfigFocal && p.W < 1.0 {
		errs = append(errs, FieldError{"itags_parameters.w", "focal_a_star requires w >= 1.0"})
	}
	return errs
}

// SchedulerParameters is the §6 "Scheduler parameters" object. Deterministic
// and stochastic variants share the struct, discriminated by ConfigType;
// stochastic-only and learned-selector-only fields are simply unused by the
// deterministic path.
type SchedulerParameters struct {
	ConfigType              string  `json:"config_type"`
	Timeout                 float64 `json:"timeout"`
	MilpTimeout             float64 `json:"milp_timeout"`
	Threads                 uint    `json:"threads"`
	MipGap                  float64 `json:"mip_gap"`
	HeuristicTime           float64 `json:"heuristic_time"`
	Method                  int     `json:"method"`
	ReturnFeasibleOnTimeout bool    `json:"return_feasible_on_timeout"`
	UseHierarchicalObjective bool   `json:"use_hierarchical_objective"`

	// Stochastic-only.
	Gamma               float64 `json:"gamma,omitempty"`
	NumScenarios        uint    `json:"num_scenarios,omitempty"`
	UseSPRT             bool    `json:"use_sprt,omitempty"`
	DeltaPercentage     bool    `json:"delta_percentage,omitempty"`
	Delta               float64 `json:"delta,omitempty"`
	IndifferenceTolerance float64 `json:"indifference_tolerance,omitempty"`

	// Heuristic-approximation scenario selector.
	Beta uint `json:"beta,omitempty"`

	// Learned selector.
	ModelFilepath           string `json:"model_filepath,omitempty"`
	ModelParametersFilepath string `json:"model_parameters_filepath,omitempty"`
}

const (
	SchedulerConfigDeterministic = "deterministic"
	SchedulerConfigStochastic    = "stochastic"
	SchedulerConfigLearned       = "learned_selector"
)

func (p *SchedulerParameters) applyDefaults() {
	if p.ConfigType == "" {
		p.ConfigType = SchedulerConfigDeterministic
	}
	if p.MipGap == 0 {
		p.MipGap = -1
	}
	if p.HeuristicTime == 0 {
		p.HeuristicTime = -1
	}
	if p.Method == 0 {
		p.Method = -1
	}
}

func (p *SchedulerParameters) validate() []FieldError {
	var errs []FieldError
	switch p.ConfigType {
	case SchedulerConfigDeterministic, SchedulerConfigStochastic, SchedulerConfigLearned:
	default:
		errs = append(errs, FieldError{"scheduler_parameters.config_type", fmt.Sprintf("unknown config_type %q", p.ConfigType)})
	}
	if p.Timeout < 0 {
		errs = append(errs, FieldError{"scheduler_parameters.timeout", "must be >= 0"})
	}
	if p.MilpTimeout < 0 {
		errs = append(errs, FieldError{"scheduler_parameters.milp_timeout", "must be >= 0"})
	}
	if p.ConfigType == SchedulerConfigStochastic {
		if p.NumScenarios == 0 {
			errs = append(errs, FieldError{"scheduler_parameters.num_scenarios", "required and must be > 0 for config_type=stochastic"})
		}
		if p.Gamma < 0 || p.Gamma > 1 {
			errs = append(errs, FieldError{"scheduler_parameters.gamma", "must be in [0,1]"})
		}
	}
	if p.ConfigType == SchedulerConfigLearned && p.ModelFilepath == "" {
		errs = append(errs, FieldError{"scheduler_parameters.model_filepath", "required for config_type=learned_selector"})
	}
	return errs
}

package problem

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// documentShape is the coarse structural schema checked via jsonschema-go
// before the per-field validation below runs: every top-level array the
// engine depends on must be present, even if empty for tasks/robots would
// be caught again by the cross-reference checks. Per-config_type field
// rules (required/optional/defaults) are expressed in Go in params.go
// rather than as schema branches, since config_type selects which fields
// even apply and jsonschema-go's conditional subschemas would just
// reimplement the switch already in ItagsParameters.validate /
// SchedulerParameters.validate.
var documentShape = &jsonschema.Schema{
	Type:     "object",
	Required: []string{"tasks", "robots", "species", "itags_parameters", "scheduler_parameters"},
	Properties: map[string]*jsonschema.Schema{
		"tasks":                {Type: "array"},
		"robots":               {Type: "array"},
		"species":              {Type: "array"},
		"itags_parameters":     {Type: "object"},
		"scheduler_parameters": {Type: "object"},
	},
}

var resolvedDocumentShape *jsonschema.Resolved

func init() {
	resolved, err := documentShape.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("problem: invalid built-in document schema: %v", err))
	}
	resolvedDocumentShape = resolved
}

// Validate runs the jsonschema-go structural check, then the per-field
// diagnostics for both parameter objects and the precedence-constraint /
// species-index cross references. It never stops at the first error: every
// field problem found is reported, per the CLI11-style diagnostics this
// package adopts (SPEC_FULL.md "SUPPLEMENTED FEATURES").
func (d *Document) Validate() []FieldError {
	var errs []FieldError

	if err := resolvedDocumentShape.Validate(d); err != nil {
		errs = append(errs, FieldError{"", err.Error()})
	}

	errs = append(errs, d.ItagsParameters.validate()...)
	errs = append(errs, d.SchedulerParameters.validate()...)

	if len(d.Tasks) == 0 {
		errs = append(errs, FieldError{"tasks", "must contain at least one task"})
	}
	if len(d.Robots) == 0 {
		errs = append(errs, FieldError{"robots", "must contain at least one robot"})
	}
	if len(d.Species) == 0 {
		errs = append(errs, FieldError{"species", "must contain at least one species"})
	}

	for i, r := range d.Robots {
		if r.Species < 0 || r.Species >= len(d.Species) {
			errs = append(errs, FieldError{fmt.Sprintf("robots[%d].species", i), fmt.Sprintf("index %d out of range [0,%d)", r.Species, len(d.Species))})
		}
	}
	for i, s := range d.Species {
		if s.Speed <= 0 {
			errs = append(errs, FieldError{fmt.Sprintf("species[%d].speed", i), "must be > 0"})
		}
		if s.MotionPlannerIndex < 0 || s.MotionPlannerIndex >= len(d.MotionPlanners) {
			if len(d.MotionPlanners) > 0 {
				errs = append(errs, FieldError{fmt.Sprintf("species[%d].motion_planner_index", i), "out of range of motion_planners"})
			}
		}
	}
	for i, pc := range d.PrecedenceConstraints {
		if pc[0] < 0 || pc[0] >= len(d.Tasks) || pc[1] < 0 || pc[1] >= len(d.Tasks) {
			errs = append(errs, FieldError{fmt.Sprintf("precedence_constraints[%d]", i), "task index out of range"})
		}
	}

	return errs
}

// Package problem implements the JSON problem document described by
// SPEC_FULL.md §6: parsing it into the internal domain model, validating
// its typed parameter objects, and rendering a solved allocation/schedule
// back out as the matching result document.
package problem

import (
	"encoding/json"
	"fmt"

	"github.com/elektrokombinacija/itags-scheduler/internal/domain"
)

// Configuration mirrors domain.Configuration at the JSON boundary.
type Configuration struct {
	ID  string          `json:"id,omitempty"`
	Pos [3]float64      `json:"pos"`
	Raw json.RawMessage `json:"raw,omitempty"`
}

func (c Configuration) toDomain() domain.Configuration {
	return domain.Configuration{
		ID:  c.ID,
		Pos: domain.Point{X: c.Pos[0], Y: c.Pos[1], Z: c.Pos[2]},
		Raw: c.Raw,
	}
}

func fromDomainConfiguration(c domain.Configuration) Configuration {
	return Configuration{ID: c.ID, Pos: [3]float64{c.Pos.X, c.Pos.Y, c.Pos.Z}, Raw: c.Raw}
}

// Task is the §6 task document entry.
type Task struct {
	Name                      string          `json:"name"`
	Duration                  float64         `json:"duration"`
	DesiredTraits             []float64       `json:"desired_traits,omitempty"`
	LinearQualityCoefficients []float64       `json:"linear_quality_coefficients,omitempty"`
	InitialConfiguration      Configuration   `json:"initial_configuration"`
	TerminalConfiguration     Configuration   `json:"terminal_configuration"`
}

// Robot is the §6 robot document entry.
type Robot struct {
	Name                 string        `json:"name"`
	Species              int           `json:"species"`
	InitialConfiguration Configuration `json:"initial_configuration"`
}

// Species is the §6 species document entry.
type Species struct {
	Name               string    `json:"name"`
	Traits             []float64 `json:"traits,omitempty"`
	BoundingRadius     float64   `json:"bounding_radius"`
	Speed              float64   `json:"speed"`
	MotionPlannerIndex int       `json:"motion_planner_index"`
}

// MotionPlanner is passed through opaquely: the core never interprets it
// (SPEC_FULL.md "Motion-planner parameter pass-through").
type MotionPlanner = json.RawMessage

// PrecedenceConstraint is a [predecessor_index, successor_index] pair.
type PrecedenceConstraint [2]int

// Document is the top-level §6 problem document.
type Document struct {
	Tasks                 []Task                 `json:"tasks"`
	Robots                []Robot                `json:"robots"`
	Species               []Species              `json:"species"`
	MotionPlanners        []MotionPlanner        `json:"motion_planners,omitempty"`
	PrecedenceConstraints []PrecedenceConstraint `json:"precedence_constraints,omitempty"`
	ItagsParameters       ItagsParameters        `json:"itags_parameters"`
	SchedulerParameters   SchedulerParameters    `json:"scheduler_parameters"`
	PlanTaskIndices       []int                  `json:"plan_task_indices,omitempty"`
	UseReverse            bool                   `json:"use_reverse,omitempty"`
	BestSchedule          *float64               `json:"best_schedule,omitempty"`
	WorstSchedule         *float64               `json:"worst_schedule,omitempty"`
}

// Parse decodes and validates a problem document.
func Parse(data []byte) (*Document, []FieldError, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("problem: decode: %w", err)
	}
	doc.ItagsParameters.applyDefaults()
	doc.SchedulerParameters.applyDefaults()
	errs := doc.Validate()
	return &doc, errs, nil
}

// ToInstance converts a parsed, validated document into the internal
// domain model (SPEC_FULL.md §3).
func (d *Document) ToInstance() (*domain.Instance, error) {
	species := make([]domain.Species, len(d.Species))
	for i, s := range d.Species {
		species[i] = domain.Species{
			Name:               s.Name,
			Traits:             append([]float64(nil), s.Traits...),
			BoundingRadius:     s.BoundingRadius,
			Speed:              s.Speed,
			MotionPlannerIndex: s.MotionPlannerIndex,
		}
	}

	robots := make([]domain.Robot, len(d.Robots))
	for i, r := range d.Robots {
		if r.Species < 0 || r.Species >= len(species) {
			return nil, fmt.Errorf("problem: robot %d references unknown species %d", i, r.Species)
		}
		robots[i] = domain.Robot{
			ID:      domain.RobotID(i),
			Name:    r.Name,
			Species: domain.SpeciesIndex(r.Species),
			Initial: r.InitialConfiguration.toDomain(),
		}
	}

	tasks := make([]domain.Task, len(d.Tasks))
	for i, t := range d.Tasks {
		tasks[i] = domain.Task{
			ID:                        domain.TaskID(i),
			Name:                      t.Name,
			Initial:                   t.InitialConfiguration.toDomain(),
			Terminal:                  t.TerminalConfiguration.toDomain(),
			StaticDuration:            t.Duration,
			DesiredTraits:             append([]float64(nil), t.DesiredTraits...),
			LinearQualityCoefficients: append([]float64(nil), t.LinearQualityCoefficients...),
		}
	}

	taskIndices := make([]domain.TaskID, len(tasks))
	for i := range tasks {
		taskIndices[i] = domain.TaskID(i)
	}
	if len(d.PlanTaskIndices) > 0 {
		taskIndices = taskIndices[:0]
		for _, idx := range d.PlanTaskIndices {
			taskIndices = append(taskIndices, domain.TaskID(idx))
		}
	}

	edges := make([]domain.Edge, len(d.PrecedenceConstraints))
	for i, pc := range d.PrecedenceConstraints {
		edges[i] = domain.Edge{From: domain.TaskID(pc[0]), To: domain.TaskID(pc[1])}
	}

	plan, err := domain.NewPlan(taskIndices, edges)
	if err != nil {
		return nil, fmt.Errorf("problem: %w", err)
	}

	return &domain.Instance{Tasks: tasks, Robots: robots, Species: species, Plan: plan}, nil
}

// FromInstance renders a document back from the internal model, the
// inverse half of §8's round-trip property. Parameters and
// motion planners must be supplied by the caller since the domain model
// does not retain them.
func FromInstance(inst *domain.Instance, itags ItagsParameters, sched SchedulerParameters, motionPlanners []MotionPlanner) *Document {
	doc := &Document{
		ItagsParameters:     itags,
		SchedulerParameters: sched,
		MotionPlanners:      motionPlanners,
	}
	for _, t := range inst.Tasks {
		doc.Tasks = append(doc.Tasks, Task{
			Name:                      t.Name,
			Duration:                  t.StaticDuration,
			DesiredTraits:             t.DesiredTraits,
			LinearQualityCoefficients: t.LinearQualityCoefficients,
			InitialConfiguration:      fromDomainConfiguration(t.Initial),
			TerminalConfiguration:     fromDomainConfiguration(t.Terminal),
		})
	}
	for _, r := range inst.Robots {
		doc.Robots = append(doc.Robots, Robot{
			Name:                 r.Name,
			Species:              int(r.Species),
			InitialConfiguration: fromDomainConfiguration(r.Initial),
		})
	}
	for _, s := range inst.Species {
		doc.Species = append(doc.Species, Species{
			Name:               s.Name,
			Traits:             s.Traits,
			BoundingRadius:     s.BoundingRadius,
			Speed:              s.Speed,
			MotionPlannerIndex: s.MotionPlannerIndex,
		})
	}
	if inst.Plan != nil {
		for _, e := range inst.Plan.DirectEdges() {
			doc.PrecedenceConstraints = append(doc.PrecedenceConstraints, PrecedenceConstraint{int(e.From), int(e.To)})
		}
	}
	return doc
}

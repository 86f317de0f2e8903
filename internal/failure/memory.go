package failure

import "github.com/elektrokombinacija/itags-scheduler/internal/domain"

type taskPair struct{ A, B domain.TaskID }

func normalizedPair(a, b domain.TaskID) taskPair {
	if a <= b {
		return taskPair{a, b}
	}
	return taskPair{b, a}
}

// Memory indexes ingested failure reasons into the four multimaps
// SPEC_FULL.md §4.6 describes, so the search can prune a candidate
// allocation before paying for a full scheduler invocation.
type Memory struct {
	robotTask       map[domain.RobotID]map[domain.TaskID]bool
	robotTaskPair   map[domain.RobotID]map[taskPair]bool
	speciesTask     map[domain.SpeciesIndex]map[domain.TaskID]bool
	speciesTaskPair map[domain.SpeciesIndex]map[taskPair]bool
}

// NewMemory returns an empty failure memory.
func NewMemory() *Memory {
	return &Memory{
		robotTask:       make(map[domain.RobotID]map[domain.TaskID]bool),
		robotTaskPair:   make(map[domain.RobotID]map[taskPair]bool),
		speciesTask:     make(map[domain.SpeciesIndex]map[domain.TaskID]bool),
		speciesTaskPair: make(map[domain.SpeciesIndex]map[taskPair]bool),
	}
}

// Ingest records a failure reason (recursing through compounds) into the
// appropriate index.
func (m *Memory) Ingest(r Reason) {
	switch v := r.(type) {
	case CompoundFailureReason:
		for _, leaf := range v.Flatten() {
			m.Ingest(leaf)
		}
	case RobotTaskFailure:
		m.addRobotTask(v.Robot, v.Task)
	case RobotTaskPairFailure:
		m.addRobotTaskPair(v.Robot, v.TaskA, v.TaskB)
	case SpeciesTaskFailure:
		m.addSpeciesTask(v.Species, v.Task)
	case SpeciesTaskPairFailure:
		m.addSpeciesTaskPair(v.Species, v.TaskA, v.TaskB)
	case InitialTransitionFailure:
		m.addRobotTask(v.Robot, v.Task)
	case TaskDurationFailure:
		m.addSpeciesTask(v.Species, v.Task)
	case TransitionFailure:
		m.addSpeciesTaskPair(v.Species, v.Predecessor, v.Successor)
	}
}

func (m *Memory) addRobotTask(r domain.RobotID, t domain.TaskID) {
	if m.robotTask[r] == nil {
		m.robotTask[r] = make(map[domain.TaskID]bool)
	}
	m.robotTask[r][t] = true
}

func (m *Memory) addRobotTaskPair(r domain.RobotID, a, b domain.TaskID) {
	if m.robotTaskPair[r] == nil {
		m.robotTaskPair[r] = make(map[taskPair]bool)
	}
	m.robotTaskPair[r][normalizedPair(a, b)] = true
}

func (m *Memory) addSpeciesTask(s domain.SpeciesIndex, t domain.TaskID) {
	if m.speciesTask[s] == nil {
		m.speciesTask[s] = make(map[domain.TaskID]bool)
	}
	m.speciesTask[s][t] = true
}

func (m *Memory) addSpeciesTaskPair(s domain.SpeciesIndex, a, b domain.TaskID) {
	if m.speciesTaskPair[s] == nil {
		m.speciesTaskPair[s] = make(map[taskPair]bool)
	}
	m.speciesTaskPair[s][normalizedPair(a, b)] = true
}

// ForbidsRobotTask reports whether robot r is known to be infeasible on
// task t.
func (m *Memory) ForbidsRobotTask(r domain.RobotID, t domain.TaskID) bool {
	return m.robotTask[r][t]
}

// ForbidsSpeciesTask reports whether species s is known to be infeasible on
// task t.
func (m *Memory) ForbidsSpeciesTask(s domain.SpeciesIndex, t domain.TaskID) bool {
	return m.speciesTask[s][t]
}

// ForbidsRobotTaskPair reports whether robot r is known to be infeasible
// performing both a and b (in either transition direction), conditioned on
// r already being assigned to the other of the pair — the caller supplies
// that co-assignment evidence from the allocation matrix.
func (m *Memory) ForbidsRobotTaskPair(r domain.RobotID, a, b domain.TaskID) bool {
	return m.robotTaskPair[r][normalizedPair(a, b)]
}

// ForbidsSpeciesTaskPair is the species-level analogue of
// ForbidsRobotTaskPair.
func (m *Memory) ForbidsSpeciesTaskPair(s domain.SpeciesIndex, a, b domain.TaskID) bool {
	return m.speciesTaskPair[s][normalizedPair(a, b)]
}

package milp

import (
	"github.com/elektrokombinacija/itags-scheduler/internal/domain"
	"github.com/elektrokombinacija/itags-scheduler/internal/mutexset"
	"github.com/elektrokombinacija/itags-scheduler/internal/taskinfo"
)

// NeededPairs exposes neededPairs for internal/benders, which must build
// the same per-scenario AllTransitionsInfo the deterministic scheduler
// builds internally so its Subproblem LPs line up with
// taskinfo/mutexset's row layout.
func NeededPairs(inst *domain.Instance, mset *mutexset.Set) []taskinfo.PairKey {
	return neededPairs(inst, mset)
}

// WorstCaseMakespan exposes worstCaseMakespan so internal/benders can
// derive a valid big-M for each scenario's Subproblem the same way the
// deterministic scheduler derives one for its own branch-and-bound.
func WorstCaseMakespan(inst *domain.Instance, ti *taskinfo.AllTasksInfo, xi *taskinfo.AllTransitionsInfo) float64 {
	return worstCaseMakespan(inst, ti, xi)
}

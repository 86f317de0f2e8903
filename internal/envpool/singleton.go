package envpool

import (
	"sync"

	"github.com/elektrokombinacija/itags-scheduler/internal/timekeeper"
)

var (
	tkOnce sync.Once
	tk     *timekeeper.Timekeeper
)

// DefaultTimekeeper returns the process-wide timekeeper, creating it on
// first use. cmd/itagsctl calls this once at startup and threads the
// result into every Scheduler/search it constructs; callers that want an
// isolated timekeeper (tests, concurrent solve() calls that must not share
// buckets) should construct their own via timekeeper.New() instead.
func DefaultTimekeeper() *timekeeper.Timekeeper {
	tkOnce.Do(func() { tk = timekeeper.New() })
	return tk
}

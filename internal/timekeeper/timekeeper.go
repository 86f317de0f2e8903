// Package timekeeper implements the process-wide time accounting described
// in SPEC_FULL.md §4.7 and §5: a single logical timekeeper that partitions
// wall-clock into named buckets, mutex-guarded because the parallel Benders
// variant (§4.4, §5) may record against the same bucket from multiple
// goroutines.
package timekeeper

import (
	"sync"
	"time"
)

// Well-known bucket names.
const (
	BucketMotionPlanning = "motion-planning"
	BucketScheduling     = "scheduling"
	BucketHeuristic      = "heuristic"
	BucketMILP           = "milp"
	BucketSearch         = "search"
)

// Timekeeper accumulates elapsed time per named bucket and checks
// configured budgets against it. The zero value is not usable; use New.
type Timekeeper struct {
	mu      sync.Mutex
	elapsed map[string]time.Duration
	budgets map[string]time.Duration
}

// New returns an empty Timekeeper.
func New() *Timekeeper {
	return &Timekeeper{
		elapsed: make(map[string]time.Duration),
		budgets: make(map[string]time.Duration),
	}
}

// SetBudget configures the timeout budget for a named bucket. A zero or
// negative budget means "no timeout".
func (t *Timekeeper) SetBudget(bucket string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.budgets[bucket] = d
}

// Add accumulates elapsed time into a bucket.
func (t *Timekeeper) Add(bucket string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.elapsed[bucket] += d
}

// Elapsed returns the accumulated duration for a bucket.
func (t *Timekeeper) Elapsed(bucket string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed[bucket]
}

// Expired reports whether a bucket's accumulated time has reached its
// configured budget. A bucket with no budget never expires. This is the
// safe-point check referenced throughout §5 ("Timeouts are checked by
// reading the current accumulated value for the named bucket against a
// configured budget").
func (t *Timekeeper) Expired(bucket string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	budget, ok := t.budgets[bucket]
	if !ok || budget <= 0 {
		return false
	}
	return t.elapsed[bucket] >= budget
}

// Remaining returns how much budget is left for a bucket (0 once the
// budget is used up; the maximum time.Duration if the bucket has no
// positive budget).
func (t *Timekeeper) Remaining(bucket string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	budget, ok := t.budgets[bucket]
	if !ok || budget <= 0 {
		return time.Duration(1<<63 - 1)
	}
	rem := budget - t.elapsed[bucket]
	if rem < 0 {
		return 0
	}
	return rem
}

// Track records the wall-clock duration of fn into bucket and returns that
// duration. Typical use: `d := tk.Track(BucketMILP, func() { ... })`.
func (t *Timekeeper) Track(bucket string, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	t.Add(bucket, d)
	return d
}

// SubtractPure returns scheduling time with motion-planning time removed,
// per §4.7 "motion-planning time is subtracted from scheduling time when
// reporting 'pure' scheduling cost."
func (t *Timekeeper) SubtractPure() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	pure := t.elapsed[BucketScheduling] - t.elapsed[BucketMotionPlanning]
	if pure < 0 {
		return 0
	}
	return pure
}

package milp

import (
	"context"
	"math"
	"testing"

	"github.com/elektrokombinacija/itags-scheduler/internal/domain"
	"github.com/elektrokombinacija/itags-scheduler/internal/failure"
	"github.com/elektrokombinacija/itags-scheduler/internal/oracle"
)

// The fixtures below reproduce SPEC_FULL.md §8's worked numeric scenarios:
// the same task geometry, robot placement, and species speeds as the
// original total-order/branch/complex plan fixtures, carried over from
// original_source/tests/src/scheduling_setup.cpp. A task's duration there
// is the time to traverse its own initial->terminal configuration at the
// slowest speed in its coalition, plus a fixed per-task action cost;
// coalitionSpeedOracle below is the minimal oracle.Oracle that reproduces
// that model on top of the shared euclidean/speed heuristic.

func point2D(x, y float64) domain.Configuration {
	return domain.Configuration{Pos: domain.Point{X: x, Y: y}}
}

func distance2D(a, b domain.Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return math.Hypot(dx, dy)
}

// coalitionSpeedOracle extends the default euclidean/speed heuristic with a
// coalition-aware TaskDuration: travel time across the task's own
// initial->terminal configuration at the slowest assigned robot's speed,
// plus the task's fixed action cost (domain.Task.StaticDuration).
type coalitionSpeedOracle struct {
	*oracle.Default
	speedOf func(domain.RobotID) float64
}

func newCoalitionSpeedOracle(inst *domain.Instance) *coalitionSpeedOracle {
	speedOf := func(robot domain.RobotID) float64 {
		r := inst.RobotByID(robot)
		if r == nil {
			return 0
		}
		sp := inst.SpeciesOf(*r)
		if sp == nil {
			return 0
		}
		return sp.Speed
	}
	return &coalitionSpeedOracle{
		Default: oracle.NewDefault(speedOf, func(robot domain.RobotID) domain.Configuration {
			return inst.RobotByID(robot).Initial
		}),
		speedOf: speedOf,
	}
}

func (o *coalitionSpeedOracle) TaskDuration(task domain.Task, coalition []domain.RobotID) float64 {
	if len(coalition) == 0 {
		return task.StaticDuration
	}
	minSpeed := math.Inf(1)
	for _, r := range coalition {
		if sp := o.speedOf(r); sp < minSpeed {
			minSpeed = sp
		}
	}
	if minSpeed <= 0 {
		return oracle.Infeasible
	}
	return distance2D(task.Initial.Pos, task.Terminal.Pos)/minSpeed + task.StaticDuration
}

// totalOrderOrBranchTasks builds the three-task plan shared by the
// total-order and branch scenarios: t1 at (0,1), t2 at (1,1)->(1,2), t3 at
// (2,1)->(2,4), nominal action costs 1.0/2.0/1.0.
func totalOrderOrBranchTasks() []domain.Task {
	return []domain.Task{
		{ID: 0, Name: "t1", Initial: point2D(0, 1), Terminal: point2D(0, 1), StaticDuration: 1.0},
		{ID: 1, Name: "t2", Initial: point2D(1, 1), Terminal: point2D(1, 2), StaticDuration: 2.0},
		{ID: 2, Name: "t3", Initial: point2D(2, 1), Terminal: point2D(2, 4), StaticDuration: 1.0},
	}
}

func homogeneousRobots(n int) ([]domain.Robot, []domain.Species) {
	species := []domain.Species{{Name: "burger", Speed: 0.2, BoundingRadius: 0.2}}
	robots := make([]domain.Robot, n)
	for i := 0; i < n; i++ {
		robots[i] = domain.Robot{ID: domain.RobotID(i), Name: fmtRobotName(i), Species: 0, Initial: point2D(float64(i), 0)}
	}
	return robots, species
}

func fmtRobotName(i int) string {
	return "r" + string(rune('0'+i))
}

func identityAllocation(numTasks, numRobots int) domain.Allocation {
	a := domain.NewAllocation(numTasks, numRobots)
	n := numTasks
	if numRobots < n {
		n = numRobots
	}
	for i := 0; i < n; i++ {
		a = a.WithCell(domain.TaskID(i), domain.RobotID(i), true)
	}
	return a
}

func assertNear(t *testing.T, what string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol %.6f)", what, got, want, tol)
	}
}

// TestSchedulerTotalOrderIdentity reproduces SPEC_FULL.md §8 scenario 1.
func TestSchedulerTotalOrderIdentity(t *testing.T) {
	tasks := totalOrderOrBranchTasks()
	robots, species := homogeneousRobots(3)
	plan, err := domain.NewPlan([]domain.TaskID{0, 1, 2}, []domain.Edge{{From: 0, To: 1}, {From: 0, To: 2}, {From: 1, To: 2}})
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}
	inst := &domain.Instance{Tasks: tasks, Robots: robots, Species: species, Plan: plan}
	alloc := identityAllocation(3, 3)

	sched := NewScheduler(newCoalitionSpeedOracle(inst), DefaultParams(), nil)
	out, rerr := sched.Solve(context.Background(), inst, alloc)
	if rerr != nil {
		t.Fatalf("Solve: %v", rerr)
	}

	assertNear(t, "makespan", out.Makespan, 29.0, 1e-2)
	want := []struct{ start, finish float64 }{{5.0, 6.0}, {6.0, 13.0}, {13.0, 29.0}}
	for i, w := range want {
		tp := out.Timepoints[domain.TaskID(i)]
		assertNear(t, "t"+string(rune('1'+i))+" start", tp.Start, w.start, 1e-4)
		assertNear(t, "t"+string(rune('1'+i))+" finish", tp.Finish, w.finish, 1e-4)
	}
}

// TestSchedulerBranchIdentity reproduces SPEC_FULL.md §8 scenario 2.
func TestSchedulerBranchIdentity(t *testing.T) {
	tasks := totalOrderOrBranchTasks()
	robots, species := homogeneousRobots(3)
	plan, err := domain.NewPlan([]domain.TaskID{0, 1, 2}, []domain.Edge{{From: 0, To: 1}, {From: 0, To: 2}})
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}
	inst := &domain.Instance{Tasks: tasks, Robots: robots, Species: species, Plan: plan}
	alloc := identityAllocation(3, 3)

	sched := NewScheduler(newCoalitionSpeedOracle(inst), DefaultParams(), nil)
	out, rerr := sched.Solve(context.Background(), inst, alloc)
	if rerr != nil {
		t.Fatalf("Solve: %v", rerr)
	}

	assertNear(t, "makespan", out.Makespan, 22.0, 1e-2)
	want := []struct{ start, finish float64 }{{5.0, 6.0}, {6.0, 13.0}, {6.0, 22.0}}
	for i, w := range want {
		tp := out.Timepoints[domain.TaskID(i)]
		assertNear(t, "t"+string(rune('1'+i))+" start", tp.Start, w.start, 1e-4)
		assertNear(t, "t"+string(rune('1'+i))+" finish", tp.Finish, w.finish, 1e-4)
	}
}

// TestSchedulerBranchMultiTaskRobot reproduces SPEC_FULL.md §8 scenario 3:
// robot r0 performs both t1 and t3, so its own transition lower bound
// between them must be respected.
func TestSchedulerBranchMultiTaskRobot(t *testing.T) {
	tasks := totalOrderOrBranchTasks()
	robots, species := homogeneousRobots(2)
	plan, err := domain.NewPlan([]domain.TaskID{0, 1, 2}, []domain.Edge{{From: 0, To: 1}, {From: 0, To: 2}})
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}
	inst := &domain.Instance{Tasks: tasks, Robots: robots, Species: species, Plan: plan}

	alloc := domain.NewAllocation(3, 2)
	alloc = alloc.WithCell(0, 0, true) // t1 -> r0
	alloc = alloc.WithCell(1, 1, true) // t2 -> r1
	alloc = alloc.WithCell(2, 0, true) // t3 -> r0

	sched := NewScheduler(newCoalitionSpeedOracle(inst), DefaultParams(), nil)
	out, rerr := sched.Solve(context.Background(), inst, alloc)
	if rerr != nil {
		t.Fatalf("Solve: %v", rerr)
	}

	assertNear(t, "makespan", out.Makespan, 32.0, 1e-2)
	want := []struct{ start, finish float64 }{{5.0, 6.0}, {6.0, 13.0}, {16.0, 32.0}}
	for i, w := range want {
		tp := out.Timepoints[domain.TaskID(i)]
		assertNear(t, "t"+string(rune('1'+i))+" start", tp.Start, w.start, 1e-4)
		assertNear(t, "t"+string(rune('1'+i))+" finish", tp.Finish, w.finish, 1e-4)
	}
}

// complexPlanInstance builds the seven-task complex plan and its three
// heterogeneous robots (one burger, two waffle — waffle's nominal speed of
// 0.24 m/s, slower than its 0.32 bounding radius figure, is what the
// worked example's fractional timepoints key off of).
func complexPlanInstance() *domain.Instance {
	tasks := []domain.Task{
		{ID: 0, Name: "t1", Initial: point2D(0, 1), Terminal: point2D(0, 1), StaticDuration: 1.0},
		{ID: 1, Name: "t2", Initial: point2D(1, 1), Terminal: point2D(1, 2), StaticDuration: 2.0},
		{ID: 2, Name: "t3", Initial: point2D(2, 1), Terminal: point2D(2, 4), StaticDuration: 1.0},
		{ID: 3, Name: "t4", Initial: point2D(3, 3), Terminal: point2D(3, 3), StaticDuration: 2.0},
		{ID: 4, Name: "t5", Initial: point2D(2.5, 2.5), Terminal: point2D(1.7, 1.7), StaticDuration: 3.0},
		{ID: 5, Name: "t6", Initial: point2D(3.68, 3.0), Terminal: point2D(3.0, 2.5), StaticDuration: 1.5},
		{ID: 6, Name: "t7", Initial: point2D(10, 5), Terminal: point2D(7, 3.5), StaticDuration: 0.5},
	}
	species := []domain.Species{
		{Name: "burger", Speed: 0.2, BoundingRadius: 0.2},
		{Name: "waffle", Speed: 0.24, BoundingRadius: 0.32},
	}
	robots := []domain.Robot{
		{ID: 0, Name: "r0", Species: 1, Initial: point2D(0, 0)},
		{ID: 1, Name: "r1", Species: 0, Initial: point2D(1, 0)},
		{ID: 2, Name: "r2", Species: 1, Initial: point2D(2, 0)},
	}
	edges := []domain.Edge{
		{From: 0, To: 1}, {From: 0, To: 2}, {From: 0, To: 3}, {From: 0, To: 4},
		{From: 1, To: 3}, {From: 1, To: 4},
		{From: 2, To: 3}, {From: 2, To: 4},
		{From: 3, To: 4},
		{From: 5, To: 2}, {From: 5, To: 3}, {From: 5, To: 4}, {From: 5, To: 6},
	}
	plan, err := domain.NewPlan([]domain.TaskID{0, 1, 2, 3, 4, 5, 6}, edges)
	if err != nil {
		panic(err)
	}
	return &domain.Instance{Tasks: tasks, Robots: robots, Species: species, Plan: plan}
}

// TestSchedulerComplexHeterogeneous reproduces SPEC_FULL.md §8 scenario 4:
// the "complex2" allocation, where r0 performs three of its own tasks
// (t1, t3, t7) in an order that does not match task-index order — this is
// exactly the shape that requires refine's robotTasksByStart to sort by
// realized start time rather than task index.
func TestSchedulerComplexHeterogeneous(t *testing.T) {
	inst := complexPlanInstance()

	alloc := domain.NewAllocation(7, 3)
	for _, c := range []struct {
		task  domain.TaskID
		robot domain.RobotID
	}{
		{0, 0}, {6, 0}, {2, 0}, // r0: t1, t7, t3
		{1, 1}, {5, 1}, {3, 1}, // r1: t2, t6, t4
		{2, 2}, {4, 2}, // r2: t3, t5
	} {
		alloc = alloc.WithCell(c.task, c.robot, true)
	}

	sched := NewScheduler(newCoalitionSpeedOracle(inst), DefaultParams(), nil)
	out, rerr := sched.Solve(context.Background(), inst, alloc)
	if rerr != nil {
		t.Fatalf("Solve: %v", rerr)
	}

	assertNear(t, "makespan", out.Makespan, 87.4020, 1e-2)
	want := []struct{ start, finish float64 }{
		{4.1667, 5.1667},
		{38.3339, 45.3339},
		{25.8339, 39.3339},
		{56.5142, 58.5142},
		{58.5142, 66.2283},
		{20.1137, 25.8339},
		{72.9266, 87.4020},
	}
	for i, w := range want {
		tp := out.Timepoints[domain.TaskID(i)]
		assertNear(t, "task start", tp.Start, w.start, 1e-4)
		assertNear(t, "task finish", tp.Finish, w.finish, 1e-4)
	}
}

// countingTimeoutContext reports no error for the first errorAfter calls to
// Err(), then context.DeadlineExceeded forever after — a deterministic
// stand-in for a real wall-clock timeout that lets a test pin down exactly
// which branch-and-bound iteration a timeout lands on.
type countingTimeoutContext struct {
	context.Context
	calls      int
	errorAfter int
}

func (c *countingTimeoutContext) Err() error {
	c.calls++
	if c.calls > c.errorAfter {
		return context.DeadlineExceeded
	}
	return nil
}

// singleTaskSingleRobotInstance has no mutex pairs at all (one task), so
// branch-and-bound's root node is trivially integral: bb.run calls
// ctx.Err() exactly twice (once before popping the root, once in its final
// return), regardless of how fast the underlying LP solve actually is. A
// countingTimeoutContext that only starts erroring after the first of
// those two calls deterministically reproduces "the search completed with
// an incumbent, but ctx reported done by the time the run loop checked
// again" without depending on wall-clock timing or solver internals.
func singleTaskSingleRobotInstance() *domain.Instance {
	tasks := []domain.Task{
		{ID: 0, Name: "t0", Initial: point2D(0, 0), Terminal: point2D(0, 0), StaticDuration: 1},
	}
	robots := []domain.Robot{{ID: 0, Name: "r0", Species: 0, Initial: point2D(0, 0)}}
	species := []domain.Species{{Name: "ground", Speed: 1}}
	return &domain.Instance{Tasks: tasks, Robots: robots, Species: species}
}

// TestSchedulerReturnsIncumbentOnTimeout reproduces SPEC_FULL.md §8 scenario
// 5's return_feasible_on_timeout=true half: a MILP that times out after an
// incumbent has already been found must report that incumbent marked
// feasible-on-timeout, not fail outright.
func TestSchedulerReturnsIncumbentOnTimeout(t *testing.T) {
	inst := singleTaskSingleRobotInstance()
	alloc := fullAllocation(inst)

	params := DefaultParams()
	params.ReturnFeasibleOnTimeout = true
	sched := NewScheduler(newTestOracle(inst), params, nil)

	ctx := &countingTimeoutContext{Context: context.Background(), errorAfter: 1}
	out, rerr := sched.Solve(ctx, inst, alloc)
	if rerr != nil {
		t.Fatalf("Solve: %v", rerr)
	}
	if !out.FeasibleOnTimeout {
		t.Fatal("expected schedule to be marked feasible-on-timeout")
	}
}

// TestSchedulerFailsOnTimeoutWithoutFlag reproduces SPEC_FULL.md §8 scenario
// 5's return_feasible_on_timeout=false half: the same timeout must instead
// surface as a failure.
func TestSchedulerFailsOnTimeoutWithoutFlag(t *testing.T) {
	inst := singleTaskSingleRobotInstance()
	alloc := fullAllocation(inst)

	params := DefaultParams()
	params.ReturnFeasibleOnTimeout = false
	sched := NewScheduler(newTestOracle(inst), params, nil)

	ctx := &countingTimeoutContext{Context: context.Background(), errorAfter: 1}
	_, rerr := sched.Solve(ctx, inst, alloc)
	timeout, ok := rerr.(failure.MilpTimeout)
	if !ok {
		t.Fatalf("expected failure.MilpTimeout, got %T (%v)", rerr, rerr)
	}
	if !timeout.HadIncumbent {
		t.Fatal("expected the timeout to report an incumbent was found")
	}
}

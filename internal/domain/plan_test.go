package domain

import "testing"

func TestNewPlanClosureAndOrdering(t *testing.T) {
	// 0 -> 1 -> 3, 0 -> 2 -> 3 (diamond)
	edges := []Edge{{From: 0, To: 1}, {From: 1, To: 3}, {From: 0, To: 2}, {From: 2, To: 3}}
	plan, err := NewPlan([]TaskID{0, 1, 2, 3}, edges)
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}

	if !plan.Precedes(0, 3) {
		t.Error("expected 0 to transitively precede 3")
	}
	if plan.Precedes(1, 2) || plan.Precedes(2, 1) {
		t.Error("1 and 2 are unordered siblings, should not precede each other")
	}
	if !plan.Ordered(0, 1) {
		t.Error("0 and 1 are directly ordered")
	}
	if len(plan.DirectEdges()) != 4 {
		t.Errorf("expected 4 direct edges, got %d", len(plan.DirectEdges()))
	}
}

func TestNewPlanRejectsCycle(t *testing.T) {
	edges := []Edge{{From: 0, To: 1}, {From: 1, To: 0}}
	if _, err := NewPlan([]TaskID{0, 1}, edges); err == nil {
		t.Fatal("expected cycle to be rejected")
	}
}

func TestAllocationCoalitionAndHash(t *testing.T) {
	a := NewAllocation(2, 3)
	a = a.WithCell(0, 1, true)
	a = a.WithCell(1, 1, true)

	if got := a.Coalition(0); len(got) != 1 || got[0] != 1 {
		t.Errorf("Coalition(0) = %v, want [1]", got)
	}
	if !a.SharesRobot(0, 1) {
		t.Error("expected task 0 and 1 to share robot 1")
	}
	trans := a.TransitionCoalition(0, 1)
	if len(trans) != 1 || trans[0] != 1 {
		t.Errorf("TransitionCoalition(0,1) = %v, want [1]", trans)
	}

	b := NewAllocation(2, 3)
	if a.Equal(b) {
		t.Error("distinct allocations should not be equal")
	}
	if a.Hash() == b.Hash() {
		t.Error("distinct allocations should hash differently")
	}
}

func TestReduceTraitsAndDomination(t *testing.T) {
	species := []*Species{
		{Traits: []float64{1, 10}},
		{Traits: []float64{2, 5}},
	}
	reduced := ReduceTraits(species, []TraitPolicy{Capability, Capacity})
	if reduced[0] != 1 {
		t.Errorf("capability dim: want min 1, got %v", reduced[0])
	}
	if reduced[1] != 15 {
		t.Errorf("capacity dim: want sum 15, got %v", reduced[1])
	}

	if !DominatesElementwise(reduced, []float64{1, 15}) {
		t.Error("reduced should dominate its own value")
	}
	if DominatesElementwise(reduced, []float64{2, 0}) {
		t.Error("reduced should not dominate a higher capability requirement")
	}
}

func TestConfigurationKeyPrefersID(t *testing.T) {
	withID := Configuration{ID: "dock-1", Pos: Point{X: 1, Y: 2}}
	withoutID := Configuration{Pos: Point{X: 1, Y: 2}}
	if withID.Key() != "dock-1" {
		t.Errorf("Key() = %q, want dock-1", withID.Key())
	}
	if withoutID.Key() == withID.Key() {
		t.Error("configurations without an ID should key off position, not collide with an ID-bearing one")
	}
}

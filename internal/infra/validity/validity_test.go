package validity

import "testing"

func TestService_OverallValidIsConjunctionOfSelfChildrenUpstream(t *testing.T) {
	s := New()
	s.AddNode(1) // task
	s.AddNode(2) // child
	s.AddNode(3) // upstream
	s.SetChildren(1, []NodeID{2})
	s.SetUpstream(1, []NodeID{3})

	if !s.Overall(1) {
		t.Fatal("expected node 1 valid initially")
	}

	s.SetSelfValid(2, false)
	if s.Overall(1) {
		t.Fatal("node 1 should become invalid when its child goes invalid")
	}

	s.SetSelfValid(2, true)
	if !s.Overall(1) {
		t.Fatal("node 1 should recover once its child recovers")
	}

	s.SetSelfValid(3, false)
	if s.Overall(1) {
		t.Fatal("node 1 should become invalid when its upstream goes invalid")
	}
}

func TestService_CascadesThroughMultipleLevels(t *testing.T) {
	s := New()
	s.AddNode(1)
	s.AddNode(2)
	s.AddNode(3)
	s.SetUpstream(2, []NodeID{1})
	s.SetUpstream(3, []NodeID{2})

	changes := s.SetSelfValid(1, false)
	if len(changes) != 3 {
		t.Fatalf("changes = %v, want 3 (node 1, then 2, then 3)", changes)
	}
	if s.Overall(3) {
		t.Fatal("node 3 should be invalid transitively through node 2")
	}
}

func TestService_StructureChangeForcesInvalid(t *testing.T) {
	s := New()
	s.AddNode(1)
	s.ApplyStructureChange(1, 0)
	if s.Overall(1) {
		t.Fatal("structure change must force self_valid = false")
	}
}

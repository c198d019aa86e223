package statemachine

import "testing"

func TestMachine_SuccessfulTransitionRunsAllChains(t *testing.T) {
	m := New("Init", "Init", "Running", "Stopped")
	m.Allow("Init", "Running")

	var order []string
	m.OnTest("Init", "Running", Handler{Name: "test", Run: func(*Machine, string, string) bool {
		order = append(order, "test")
		return true
	}})
	m.OnPrepare("Init", "Running", Handler{Name: "prepare", Run: func(*Machine, string, string) bool {
		order = append(order, "prepare")
		return true
	}})
	m.OnCommit("Init", "Running", Handler{Name: "commit", Run: func(*Machine, string, string) bool {
		order = append(order, "commit")
		return true
	}})

	if got := m.DoTransition("Running"); got != Success {
		t.Fatalf("DoTransition = %v, want Success", got)
	}
	if m.Current() != "Running" {
		t.Fatalf("Current() = %q, want Running", m.Current())
	}
	want := []string{"test", "prepare", "commit"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestMachine_VetoCancelsTransition(t *testing.T) {
	m := New("Init", "Init", "Running")
	m.Allow("Init", "Running")

	committed := false
	m.OnTest("Init", "Running", Handler{Name: "guard", Run: func(*Machine, string, string) bool { return false }})
	m.OnCommit("Init", "Running", Handler{Name: "commit", Run: func(*Machine, string, string) bool {
		committed = true
		return true
	}})

	if got := m.DoTransition("Running"); got != Failure {
		t.Fatalf("DoTransition = %v, want Failure", got)
	}
	if m.Current() != "Init" {
		t.Fatalf("Current() = %q, want Init (vetoed transition must not move state)", m.Current())
	}
	if committed {
		t.Fatal("commit handler ran despite veto")
	}
	if len(m.Reasons()) != 1 {
		t.Fatalf("Reasons() = %v, want one entry", m.Reasons())
	}
}

func TestMachine_UndeclaredTransitionIsNotPermitted(t *testing.T) {
	m := New("Init", "Init", "Running", "Stopped")
	// Stopped is a declared state but Init->Stopped was never Allow()ed.
	if got := m.DoTransition("Stopped"); got != NotPermitted {
		t.Fatalf("DoTransition = %v, want NotPermitted", got)
	}
}

func TestMachine_UnknownStateIsNotPermitted(t *testing.T) {
	m := New("Init", "Init")
	if got := m.DoTransition("Nonexistent"); got != NotPermitted {
		t.Fatalf("DoTransition = %v, want NotPermitted", got)
	}
}

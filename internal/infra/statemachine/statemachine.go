// Package statemachine implements an enumerated lifecycle with gated,
// handler-chained, cancellable transitions (Component Design §4.2). Its
// chain-of-responsibility + mutex-guarded-struct shape follows the
// teacher's internal/infra/healing package (CircuitBreaker's state machine)
// and internal/infra/selfheal's IncidentState lifecycle enum.
package statemachine

import (
	"fmt"
	"sync"
)

// Result classifies the outcome of a requested transition.
type Result int

const (
	Success Result = iota
	Failure
	NotPermitted
)

func (r Result) String() string {
	switch r {
	case Success:
		return "Success"
	case Failure:
		return "Failure"
	case NotPermitted:
		return "NotPermitted"
	default:
		return "Unknown"
	}
}

// Handler is one link in a transition's test/prepare/commit chain. Test
// handlers may veto by returning false; prepare and commit handlers never
// veto, but their bool return is still recorded for diagnostics. Inlinable
// declares whether the handler may run while another transition on the
// same machine is already in progress (re-entrant follow-on transitions
// registered from a state-entry handler).
type Handler struct {
	Name      string
	Run       func(m *Machine, from, to string) bool
	Inlinable bool
}

// Machine is a named-state lifecycle with per-transition handler chains.
type Machine struct {
	mu      sync.Mutex
	current string
	states  map[string]bool
	allowed map[string]map[string]bool // from -> to -> allowed

	test    map[string][]Handler // keyed by "from->to"
	prepare map[string][]Handler
	commit  map[string][]Handler

	inProgress bool
	reasons    []string
}

// New returns a machine with the given declared states, starting in
// initial. Transitions are illegal until explicitly allowed via Allow.
func New(initial string, states ...string) *Machine {
	m := &Machine{
		current: initial,
		states:  make(map[string]bool, len(states)),
		allowed: make(map[string]map[string]bool),
		test:    make(map[string][]Handler),
		prepare: make(map[string][]Handler),
		commit:  make(map[string][]Handler),
	}
	for _, s := range states {
		m.states[s] = true
	}
	m.states[initial] = true
	return m
}

// Allow declares that a transition from -> to is legal.
func (m *Machine) Allow(from, to string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.allowed[from] == nil {
		m.allowed[from] = make(map[string]bool)
	}
	m.allowed[from][to] = true
}

func transitionKey(from, to string) string { return from + "->" + to }

// OnTest registers a veto-capable handler for the from->to transition.
func (m *Machine) OnTest(from, to string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := transitionKey(from, to)
	m.test[k] = append(m.test[k], h)
}

// OnPrepare registers a prepare-phase handler.
func (m *Machine) OnPrepare(from, to string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := transitionKey(from, to)
	m.prepare[k] = append(m.prepare[k], h)
}

// OnCommit registers a commit-phase handler.
func (m *Machine) OnCommit(from, to string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := transitionKey(from, to)
	m.commit[k] = append(m.commit[k], h)
}

// Current returns the machine's present state.
func (m *Machine) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// DoTransition attempts to move the machine from its current state to to.
// The test chain runs first, in registration order; any handler returning
// false cancels the transition (NotPermitted if no test handler ran and the
// transition itself was never declared allowed, Failure if a handler
// vetoed). Prepare then commit chains run only if every test handler
// passed.
func (m *Machine) DoTransition(to string) Result {
	m.mu.Lock()
	from := m.current
	if !m.states[to] {
		m.mu.Unlock()
		return NotPermitted
	}
	if allowedTo := m.allowed[from]; allowedTo == nil || !allowedTo[to] {
		m.mu.Unlock()
		return NotPermitted
	}
	if m.inProgress {
		m.mu.Unlock()
		return m.runInline(from, to)
	}
	m.inProgress = true
	m.reasons = nil
	m.mu.Unlock()

	k := transitionKey(from, to)
	for _, h := range m.test[k] {
		if !h.Run(m, from, to) {
			m.mu.Lock()
			m.reasons = append(m.reasons, fmt.Sprintf("vetoed by %s", h.Name))
			m.inProgress = false
			m.mu.Unlock()
			return Failure
		}
	}
	for _, h := range m.prepare[k] {
		h.Run(m, from, to)
	}

	m.mu.Lock()
	m.current = to
	m.mu.Unlock()

	for _, h := range m.commit[k] {
		h.Run(m, from, to)
	}

	m.mu.Lock()
	m.inProgress = false
	m.mu.Unlock()
	return Success
}

// runInline handles a transition requested by a handler while another
// transition on this machine is already in progress — legal only if every
// test handler on the new transition declares itself Inlinable.
func (m *Machine) runInline(from, to string) Result {
	k := transitionKey(from, to)
	for _, h := range m.test[k] {
		if !h.Inlinable {
			return NotPermitted
		}
		if !h.Run(m, from, to) {
			return Failure
		}
	}
	for _, h := range m.prepare[k] {
		h.Run(m, from, to)
	}
	m.mu.Lock()
	m.current = to
	m.mu.Unlock()
	for _, h := range m.commit[k] {
		h.Run(m, from, to)
	}
	return Success
}

// Reasons returns the veto reasons recorded by the most recent Failure.
func (m *Machine) Reasons() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.reasons...)
}

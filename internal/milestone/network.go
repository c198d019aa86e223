// Package milestone implements the milestone constraint network (Component
// Design §4.3): directed relationships between named time points that
// reactively reconcile dependent milestones whenever an independent one
// moves. Propagation is BFS over the relationship graph with window
// intersection and whole-transaction rollback on conflict, grounded on the
// arena-by-ID storage Design Notes §9 prescribes to avoid reference cycles
// between milestones and relationships.
package milestone

import (
	"fmt"
	"sync"

	"github.com/sagekernel/sagekernel/internal/domain"
	"github.com/sagekernel/sagekernel/internal/infra/metrics"
)

// ChangeEvent is delivered once per milestone actually moved by a
// successful MoveTo, carrying the value it held immediately before.
type ChangeEvent struct {
	Milestone domain.MilestoneID
	Previous  domain.Instant
	Current   domain.Instant
}

// Listener receives the batch of ChangeEvents from one MoveTo transaction.
type Listener func(events []ChangeEvent)

// Network owns the milestone and relationship arenas and performs
// constraint propagation.
type Network struct {
	mu sync.Mutex

	milestones    map[domain.MilestoneID]*domain.Milestone
	relationships map[domain.RelationshipID]*domain.Relationship
	nextMilestone domain.MilestoneID
	nextRel       domain.RelationshipID

	// independentOf[x] lists relationships where x is the independent
	// endpoint; dependentOf[x] lists relationships where x is the
	// dependent endpoint. Built incrementally on AddRelationship.
	independentOf map[domain.MilestoneID][]domain.RelationshipID
	dependentOf   map[domain.MilestoneID][]domain.RelationshipID

	listeners    []Listener
	propagating  bool
}

// New returns an empty milestone network.
func New() *Network {
	return &Network{
		milestones:    make(map[domain.MilestoneID]*domain.Milestone),
		relationships: make(map[domain.RelationshipID]*domain.Relationship),
		independentOf: make(map[domain.MilestoneID][]domain.RelationshipID),
		dependentOf:   make(map[domain.MilestoneID][]domain.RelationshipID),
	}
}

// AddMilestone registers a new, active milestone at the given instant.
func (n *Network) AddMilestone(name string, at domain.Instant) domain.MilestoneID {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextMilestone++
	id := n.nextMilestone
	n.milestones[id] = &domain.Milestone{ID: id, Name: name, Instant: at, Active: true}
	return id
}

// Milestone returns the current record for id.
func (n *Network) Milestone(id domain.MilestoneID) (domain.Milestone, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	m, ok := n.milestones[id]
	if !ok {
		return domain.Milestone{}, false
	}
	return *m, true
}

// Subscribe registers a listener invoked once per successful MoveTo with
// the batch of milestones it changed.
func (n *Network) Subscribe(l Listener) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, l)
}

// AddRelationship installs a directed constraint between dependent and
// independent. When withReciprocal is true its dual is installed too (per
// Component Design §4.3's table) and the two are cross-linked so
// propagation can temporarily suppress the dual while its partner drives.
// Pin relationships never get a reciprocal regardless of withReciprocal.
func (n *Network) AddRelationship(kind domain.RelKind, dependent, independent domain.MilestoneID, delta domain.Instant, withReciprocal bool) (domain.RelationshipID, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.propagating {
		return 0, fmt.Errorf("milestone: cannot add relationship during propagation")
	}
	if _, ok := n.milestones[dependent]; !ok {
		return 0, fmt.Errorf("milestone: unknown dependent %d", dependent)
	}
	if _, ok := n.milestones[independent]; !ok {
		return 0, fmt.Errorf("milestone: unknown independent %d", independent)
	}

	id := n.newRelLocked(kind, dependent, independent, delta)

	if withReciprocal && kind != domain.RelPin {
		recID := n.newRelLocked(kind.ReciprocalKind(), independent, dependent, -delta)
		n.relationships[id].Reciprocal = recID
		n.relationships[id].HasReciprocal = true
		n.relationships[recID].Reciprocal = id
		n.relationships[recID].HasReciprocal = true
	}
	return id, nil
}

func (n *Network) newRelLocked(kind domain.RelKind, dependent, independent domain.MilestoneID, delta domain.Instant) domain.RelationshipID {
	n.nextRel++
	id := n.nextRel
	rel := &domain.Relationship{
		ID: id, Kind: kind, Dependent: dependent, Independent: independent,
		Delta: delta, Enabled: true,
	}
	n.relationships[id] = rel
	n.independentOf[independent] = append(n.independentOf[independent], id)
	n.dependentOf[dependent] = append(n.dependentOf[dependent], id)
	if m, ok := n.milestones[dependent]; ok {
		m.Relationships = append(m.Relationships, id)
	}
	return id
}

// EnableRelationship toggles whether a relationship participates in
// propagation. Rejected while a MoveTo is in progress.
func (n *Network) EnableRelationship(id domain.RelationshipID, enabled bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.propagating {
		return fmt.Errorf("milestone: cannot change relationship state during propagation")
	}
	rel, ok := n.relationships[id]
	if !ok {
		return fmt.Errorf("milestone: unknown relationship %d", id)
	}
	rel.Enabled = enabled
	return nil
}

// reaction computes the admissible window for a dependent, given that its
// independent currently sits at indInstant, for one relationship.
func reaction(kind domain.RelKind, indInstant, delta domain.Instant) domain.Window {
	switch kind {
	case domain.RelLTE:
		return domain.Window{Min: domain.NegativeInfinity, Max: indInstant}
	case domain.RelGTE:
		return domain.Window{Min: indInstant, Max: domain.PositiveInfinity}
	case domain.RelEQ:
		pt := indInstant.Add(delta)
		return domain.Window{Min: pt, Max: pt}
	default: // RelPin has no dependent-side reaction
		return domain.UnboundedWindow()
	}
}

// windowFor intersects the Reaction window of every enabled, non-suppressed
// relationship in which dep is the dependent endpoint.
func (n *Network) windowFor(dep domain.MilestoneID, suppressed map[domain.RelationshipID]bool) domain.Window {
	w := domain.UnboundedWindow()
	for _, relID := range n.dependentOf[dep] {
		rel := n.relationships[relID]
		if !rel.Enabled || suppressed[relID] || rel.Kind == domain.RelPin {
			continue
		}
		ind := n.milestones[rel.Independent]
		w = w.Intersect(reaction(rel.Kind, ind.Instant, rel.Delta))
	}
	return w
}

// isPinned reports whether m carries an enabled Pin relationship naming
// itself as the immovable endpoint.
func (n *Network) isPinned(m domain.MilestoneID) bool {
	for _, relID := range n.independentOf[m] {
		rel := n.relationships[relID]
		if rel.Enabled && rel.Kind == domain.RelPin && rel.Independent == m {
			return true
		}
	}
	return false
}

// MoveTo installs newInstant on m and propagates the change across every
// enabled relationship reachable from m, intersecting windows and clamping
// dependents to the closest admissible point. If any relationship's window
// comes up empty, if propagation would have to move a pinned milestone, or
// if the direct move itself falls outside the window formed by m's own
// dependent-relationships, the entire transaction rolls back: every
// milestone touched is restored and no ChangeEvent fires.
func (n *Network) MoveTo(m domain.MilestoneID, newInstant domain.Instant) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.propagating {
		return fmt.Errorf("milestone: reentrant MoveTo")
	}
	target, ok := n.milestones[m]
	if !ok {
		return fmt.Errorf("milestone: unknown milestone %d", m)
	}
	if n.isPinned(m) && newInstant != target.Instant {
		return fmt.Errorf("milestone: %s is pinned, cannot move", target.Name)
	}

	n.propagating = true
	defer func() { n.propagating = false }()

	touched := map[domain.MilestoneID]domain.Instant{}
	suppressed := map[domain.RelationshipID]bool{}
	order := []domain.MilestoneID{}

	rollback := func() {
		for id, orig := range touched {
			n.milestones[id].Instant = orig
		}
	}

	touched[m] = target.Instant

	// m is about to drive every relationship in which it is the independent
	// endpoint; each such relationship's reciprocal (if any) has m as its
	// *dependent* endpoint and must be suppressed here exactly as it would
	// be once propagation reaches it below — otherwise the direct-move
	// check just below would constrain m by its own about-to-be-superseded
	// reciprocal strut, which only ever admits m's pre-move position and a
	// driver could never move at all.
	for _, relID := range n.independentOf[m] {
		rel := n.relationships[relID]
		if rel.Enabled && rel.HasReciprocal {
			suppressed[rel.Reciprocal] = true
		}
	}

	// The direct move is mandatory, not clamped: if it falls outside the
	// window formed by m's own dependent-relationships, that is a
	// violation (the caller asked for an instant propagation cannot honor).
	if w := n.windowFor(m, suppressed); w.Empty() || !w.Contains(newInstant) {
		metrics.MilestoneRollbacks.Inc()
		if w.Empty() {
			return fmt.Errorf("milestone: relationship window for %s is empty", target.Name)
		}
		return fmt.Errorf("milestone: %v would violate a relationship of %s", newInstant, target.Name)
	}
	target.Instant = newInstant
	order = append(order, m)

	queue := []domain.MilestoneID{m}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, relID := range n.independentOf[cur] {
			rel := n.relationships[relID]
			if !rel.Enabled || suppressed[relID] || rel.Kind == domain.RelPin {
				continue
			}
			dep := rel.Dependent
			depM := n.milestones[dep]

			w := n.windowFor(dep, suppressed)
			if w.Empty() {
				rollback()
				metrics.MilestoneRollbacks.Inc()
				return fmt.Errorf("milestone: relationship %d (%s) window is empty", relID, rel.Kind)
			}

			next := depM.Instant
			if !w.Contains(next) {
				switch {
				case next < w.Min:
					next = w.Min
				case next > w.Max:
					next = w.Max
				}
			}
			if next == depM.Instant {
				continue
			}
			if n.isPinned(dep) {
				rollback()
				metrics.MilestoneRollbacks.Inc()
				return fmt.Errorf("milestone: %s is pinned, cannot move", depM.Name)
			}
			if _, seen := touched[dep]; !seen {
				touched[dep] = depM.Instant
			}
			depM.Instant = next
			if rel.HasReciprocal {
				suppressed[rel.Reciprocal] = true
			}
			order = append(order, dep)
			queue = append(queue, dep)
		}
	}

	events := make([]ChangeEvent, 0, len(touched))
	for _, id := range order {
		prev, ok := touched[id]
		if !ok {
			continue
		}
		delete(touched, id) // dedup: each milestone reported once
		events = append(events, ChangeEvent{Milestone: id, Previous: prev, Current: n.milestones[id].Instant})
	}
	for _, l := range n.listeners {
		l(events)
	}
	metrics.MilestoneMoves.Inc()
	return nil
}

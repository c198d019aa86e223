// Package validity implements the per-node validity propagation described
// in Component Design §4.5: overall validity is the conjunction of a
// node's own state, its children's, and its upstream dependencies', and a
// change anywhere in that chain cascades to every dependent in topological
// order. The cascading-invalidation shape is grounded on the teacher's
// internal/infra/selfheal incident-state lifecycle, generalized from a
// single escalating incident to an arbitrary dependency graph.
package validity

import (
	"github.com/sagekernel/sagekernel/internal/domain"
	"github.com/sagekernel/sagekernel/internal/infra/metrics"
)

// NodeID identifies a validity-tracked object: a task, a port, or any
// other component that exposes self state, children, and upstream edges.
type NodeID uint64

// Change is one node's before/after overall validity, reported as part of
// a single transaction's aggregated notification.
type Change struct {
	Node NodeID
	Was  bool
	Now  bool
}

// Listener receives every Change produced by one SetSelfValid or
// ApplyStructureChange call, batched into a single notification.
type Listener func(changes []Change)

type node struct {
	id         NodeID
	selfValid  bool
	children   []NodeID
	upstream   []NodeID
	downstream []NodeID // reverse index: nodes that list this one as a child or upstream dependency
	overall    bool
}

// Service tracks validity for a set of nodes and propagates changes.
type Service struct {
	nodes     map[NodeID]*node
	listeners []Listener
}

// New returns an empty validity service.
func New() *Service {
	return &Service{nodes: make(map[NodeID]*node)}
}

// Subscribe registers a listener for aggregated validity-change batches.
func (s *Service) Subscribe(l Listener) {
	s.listeners = append(s.listeners, l)
}

// AddNode registers a node, initially self-valid, with no edges.
func (s *Service) AddNode(id NodeID) {
	if _, ok := s.nodes[id]; ok {
		return
	}
	s.nodes[id] = &node{id: id, selfValid: true, overall: true}
}

// SetChildren declares id's children, wiring the reverse (downstream)
// index so child changes cascade back up to id.
func (s *Service) SetChildren(id NodeID, children []NodeID) {
	n := s.nodes[id]
	n.children = children
	for _, c := range children {
		if cn, ok := s.nodes[c]; ok {
			cn.downstream = appendOnce(cn.downstream, id)
		}
	}
}

// SetUpstream declares id's upstream dependencies, wiring the reverse
// index so upstream changes cascade downstream to id.
func (s *Service) SetUpstream(id NodeID, upstream []NodeID) {
	n := s.nodes[id]
	n.upstream = upstream
	for _, u := range upstream {
		if un, ok := s.nodes[u]; ok {
			un.downstream = appendOnce(un.downstream, id)
		}
	}
}

func appendOnce(list []NodeID, id NodeID) []NodeID {
	for _, x := range list {
		if x == id {
			return list
		}
	}
	return append(list, id)
}

func (s *Service) computeOverall(id NodeID) bool {
	n, ok := s.nodes[id]
	if !ok {
		return true
	}
	if !n.selfValid {
		return false
	}
	for _, c := range n.children {
		if cn, ok := s.nodes[c]; ok && !cn.overall {
			return false
		}
	}
	for _, u := range n.upstream {
		if un, ok := s.nodes[u]; ok && !un.overall {
			return false
		}
	}
	return true
}

// Overall returns a node's current conjoined validity.
func (s *Service) Overall(id NodeID) bool {
	if n, ok := s.nodes[id]; ok {
		return n.overall
	}
	return true
}

// SetSelfValid updates a node's own validity flag and cascades the
// resulting overall-validity changes to every dependent, breadth-first. A
// dependent is reassessed again each time another of its prerequisites
// flips, so its final value reflects every prerequisite's settled value.
// Returns every node whose overall validity changed, in the order they
// were reassessed.
func (s *Service) SetSelfValid(id NodeID, valid bool) []Change {
	n, ok := s.nodes[id]
	if !ok {
		return nil
	}
	n.selfValid = valid
	changes := s.reassess(id)
	if len(changes) > 0 {
		for _, l := range s.listeners {
			l(changes)
		}
	}
	return changes
}

// ApplyStructureChange handles the structural mutations that Component
// Design §4.5 says can only ever invalidate a node: adding or removing a
// pre-edge, costart, or installing a new synchronizer all force
// self_valid = false regardless of the change's specifics.
func (s *Service) ApplyStructureChange(id NodeID, _ domain.StructureChange) []Change {
	return s.SetSelfValid(id, false)
}

// reassess recomputes overall validity for id and, breadth-first, for the
// downstream dependents of every node whose overall value actually flips,
// returning the full batch of changes. Within one call every flip goes the
// same direction, so each node flips at most once and the walk terminates.
func (s *Service) reassess(id NodeID) []Change {
	var changes []Change
	queue := []NodeID{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		n := s.nodes[cur]
		if n == nil {
			continue
		}
		was := n.overall
		now := s.computeOverall(cur)
		if now != was {
			n.overall = now
			changes = append(changes, Change{Node: cur, Was: was, Now: now})
			metrics.ValidityFlips.Inc()
			queue = append(queue, n.downstream...)
		}
	}
	return changes
}

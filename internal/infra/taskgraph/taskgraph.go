// Package taskgraph implements the edge/vertex task graph engine
// (Component Design §4.6): edges with pre/post vertices, costart/cofinish
// coupling, synchronizer rendezvous, and the edge-execution lifecycle
// driven through the executive's detachable events. Its reference-counted
// completion-tracking discipline is grounded on the teacher's
// internal/infra/engine pool (handle-must-be-released reentrancy
// guarding), generalized from an LRU cache handle to the
// edge-execution-completion-signaler (EECS) invariant.
package taskgraph

import (
	"fmt"

	"github.com/sagekernel/sagekernel/internal/domain"
	"github.com/sagekernel/sagekernel/internal/infra/executive"
	"github.com/sagekernel/sagekernel/internal/infra/metrics"
)

// LifecycleEvent names one of the four notification points in an edge's
// execution protocol (Component Design §4.6); the user callback runs
// between EdgeExecutionStarting and EdgeExecutionFinishing.
type LifecycleEvent int

const (
	EdgeStarting LifecycleEvent = iota
	EdgeExecutionStarting
	EdgeExecutionFinishing
	EdgeFinishing
)

func (e LifecycleEvent) String() string {
	switch e {
	case EdgeStarting:
		return "EdgeStarting"
	case EdgeExecutionStarting:
		return "EdgeExecutionStarting"
	case EdgeExecutionFinishing:
		return "EdgeExecutionFinishing"
	case EdgeFinishing:
		return "EdgeFinishing"
	default:
		return "Unknown"
	}
}

// LifecycleListener is notified of one edge passing one lifecycle point.
type LifecycleListener func(event LifecycleEvent, edge domain.EdgeID)

// TaskError records a user-callback failure, attached to the edge that
// raised it so it can be auto-cleared when the edge is removed.
type TaskError struct {
	Edge domain.EdgeID
	Err  error
}

type signalerKey struct {
	edge domain.EdgeID
	ctx  *domain.GraphContext
}

// Graph owns the edge/vertex arenas and drives edge execution through an
// executive.
type Graph struct {
	exec *executive.Executive

	vertices  map[domain.VertexID]*domain.Vertex
	edges     map[domain.EdgeID]*domain.Edge
	nextV     domain.VertexID
	nextE     domain.EdgeID
	nextSync  domain.SynchronizerID
	synchros  map[domain.SynchronizerID]*domain.Synchronizer

	processors map[domain.EdgeID]domain.TaskProcessor
	active     map[signalerKey]bool

	listeners []LifecycleListener
	errors    []TaskError
}

// New returns an empty graph driven by exec.
func New(exec *executive.Executive) *Graph {
	return &Graph{
		exec:       exec,
		vertices:   make(map[domain.VertexID]*domain.Vertex),
		edges:      make(map[domain.EdgeID]*domain.Edge),
		synchros:   make(map[domain.SynchronizerID]*domain.Synchronizer),
		processors: make(map[domain.EdgeID]domain.TaskProcessor),
		active:     make(map[signalerKey]bool),
	}
}

// Subscribe registers a lifecycle listener, invoked in registration order.
func (g *Graph) Subscribe(l LifecycleListener) { g.listeners = append(g.listeners, l) }

func (g *Graph) fire(event LifecycleEvent, edge domain.EdgeID) {
	for _, l := range g.listeners {
		l(event, edge)
	}
}

// AddVertex creates a join/fan-out point with the given role.
func (g *Graph) AddVertex(role domain.VertexRole) domain.VertexID {
	g.nextV++
	id := g.nextV
	g.vertices[id] = &domain.Vertex{ID: id, Role: role}
	return id
}

// AddEdge creates a task between pre and post vertices, wiring the
// vertices' in/out edge lists and initializing the post-vertex's TTL to
// count this edge among those it awaits.
func (g *Graph) AddEdge(name string, pre, post domain.VertexID, proc domain.TaskProcessor) domain.EdgeID {
	g.nextE++
	id := g.nextE
	g.edges[id] = &domain.Edge{ID: id, Name: name, Pre: pre, Post: post, SelfValid: true}
	g.processors[id] = proc

	preV := g.vertices[pre]
	preV.PostEdges = append(preV.PostEdges, id)
	postV := g.vertices[post]
	postV.PreEdges = append(postV.PreEdges, id)
	postV.TTL++
	return id
}

// AddCostart declares that b starts whenever a starts.
func (g *Graph) AddCostart(a, b domain.EdgeID) {
	g.edges[a].Costarts = append(g.edges[a].Costarts, b)
}

// AddCofinish declares that b is forced to completion whenever a completes.
func (g *Graph) AddCofinish(a, b domain.EdgeID) {
	g.edges[a].Cofinishes = append(g.edges[a].Cofinishes, b)
}

// NewSynchronizer registers a rendezvous group spanning edges. Callers
// consult Synchronizer via the returned ID to gate advancement until every
// member edge's vertex is ready (enforcement is left to callers composing
// the graph, matching the task's own pre/post vertex checks).
func (g *Graph) NewSynchronizer(edges []domain.EdgeID) domain.SynchronizerID {
	g.nextSync++
	id := g.nextSync
	g.synchros[id] = &domain.Synchronizer{ID: id, Edges: edges}
	for _, e := range edges {
		g.edges[e].Synchronizers = append(g.edges[e].Synchronizers, id)
	}
	return id
}

// Edge returns a copy of an edge's current record.
func (g *Graph) Edge(id domain.EdgeID) (domain.Edge, bool) {
	e, ok := g.edges[id]
	if !ok {
		return domain.Edge{}, false
	}
	return *e, true
}

// Errors returns every recorded task execution error, cleared of any whose
// edge has since been removed (Component Design §4.6's auto-clear rule).
func (g *Graph) Errors() []TaskError {
	out := make([]TaskError, 0, len(g.errors))
	live := g.errors[:0]
	for _, e := range g.errors {
		if _, ok := g.edges[e.Edge]; ok {
			out = append(out, e)
			live = append(live, e)
		}
	}
	g.errors = live
	return out
}

// RemoveEdge deletes an edge and clears any errors attached to it.
func (g *Graph) RemoveEdge(id domain.EdgeID) {
	delete(g.edges, id)
	delete(g.processors, id)
}

// StartEdge begins an edge's execution under ctx: it fires EdgeStarting,
// then schedules the user processor as a detachable event on the
// executive so it may suspend (e.g. to block on a resource acquisition)
// before calling back to signal completion. Starting an edge under a
// context where its previous run's completion signaler has not yet been
// consumed returns domain.ErrReentrantExecution and schedules nothing. The
// executive's run is not stopped, and the internal callers (costart
// propagation and vertex arrival) discard this error.
func (g *Graph) StartEdge(id domain.EdgeID, ctx *domain.GraphContext) error {
	edge, ok := g.edges[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	key := signalerKey{id, ctx}
	if g.active[key] {
		return fmt.Errorf("%w: edge %q", domain.ErrReentrantExecution, edge.Name)
	}
	g.active[key] = true
	g.fire(EdgeStarting, id)
	metrics.EdgesStarted.WithLabelValues(edge.Name).Inc()

	g.exec.RequestEvent(g.exec.Now(), 0, domain.Detachable, false, func(ctrl domain.EventController, gctx *domain.GraphContext, _ any) {
		g.runEdge(id, ctrl, gctx)
	}, nil)

	for _, co := range edge.Costarts {
		if !g.active[signalerKey{co, ctx}] {
			_ = g.StartEdge(co, ctx)
		}
	}
	return nil
}

func (g *Graph) runEdge(id domain.EdgeID, ctrl domain.EventController, ctx *domain.GraphContext) {
	g.fire(EdgeExecutionStarting, id)
	edge := g.edges[id]
	proc := g.processors[id]

	var selfValid bool
	func() {
		defer func() {
			if r := recover(); r != nil {
				g.errors = append(g.errors, TaskError{Edge: id, Err: fmt.Errorf("%v", r)})
				selfValid = false
			}
		}()
		if proc != nil {
			selfValid = proc(ctrl, ctx)
		} else {
			selfValid = true
		}
	}()
	if !selfValid {
		metrics.EdgesFailed.WithLabelValues(edge.Name).Inc()
	}

	g.SignalCompletion(id, ctx, selfValid)
}

// SignalCompletion consumes the completion signaler for (edge, ctx),
// records self-validity, propagates the post-vertex's arrival count, and
// forces every declared cofinish to completion alongside it. It reports
// domain.ErrSignalerConsumed if no signaler is outstanding — calling it
// twice for the same (edge, ctx) is always a bug, never a race, since
// detachable isolation guarantees only one coroutine's code runs at a
// time.
func (g *Graph) SignalCompletion(id domain.EdgeID, ctx *domain.GraphContext, selfValid bool) error {
	key := signalerKey{id, ctx}
	if !g.active[key] {
		return domain.ErrSignalerConsumed
	}
	delete(g.active, key)

	edge := g.edges[id]
	edge.SelfValid = selfValid
	g.fire(EdgeExecutionFinishing, id)

	g.arriveAtVertex(edge.Post, ctx)
	g.fire(EdgeFinishing, id)

	for _, cf := range edge.Cofinishes {
		if g.active[signalerKey{cf, ctx}] {
			_ = g.SignalCompletion(cf, ctx, true)
		}
	}
	return nil
}

// arriveAtVertex decrements a vertex's trigger-to-launch counter and, once
// every required inbound edge has arrived, starts every edge for which
// this vertex is the pre-vertex.
func (g *Graph) arriveAtVertex(id domain.VertexID, ctx *domain.GraphContext) {
	v := g.vertices[id]
	if v.TTL > 0 {
		v.TTL--
	}
	if v.TTL != 0 {
		return
	}
	for _, out := range v.PostEdges {
		_ = g.StartEdge(out, ctx)
	}
}

// RecordTiming folds an observed duration into an edge's PERT statistics,
// a no-op if the edge did not opt into timing tracking.
func (g *Graph) RecordTiming(id domain.EdgeID, d float64) {
	edge, ok := g.edges[id]
	if !ok || !edge.TracksTiming {
		return
	}
	edge.Timing.Update(d)
	metrics.EdgeDuration.WithLabelValues(edge.Name).Observe(d)
}

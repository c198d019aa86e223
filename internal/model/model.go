// Package model implements Model Composition (Component Design §4.9): the
// root object that binds an Executive, a lifecycle StateMachine, and the
// task/resource/port services into one runnable unit, the way the
// teacher's internal/daemon.Daemon binds config, services, and an
// HTTP/metrics surface into the running node.
package model

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/sagekernel/sagekernel/internal/domain"
	"github.com/sagekernel/sagekernel/internal/infra/executive"
	"github.com/sagekernel/sagekernel/internal/infra/ports"
	"github.com/sagekernel/sagekernel/internal/infra/resourcemgr"
	"github.com/sagekernel/sagekernel/internal/infra/statemachine"
	"github.com/sagekernel/sagekernel/internal/infra/taskgraph"
)

// Lifecycle state names (Component Design §4.9: Init → Running → Stopped →
// Finished, with Paused/Reset side-states).
const (
	StateInit     = "Init"
	StateRunning  = "Running"
	StatePaused   = "Paused"
	StateStopped  = "Stopped"
	StateFinished = "Finished"
	StateReset    = "Reset"
)

// Model is the runnable composition root: one Executive, one task Graph,
// one resource Manager, one port Manager, a lifecycle state machine, and
// the IModelObject/service registries a running simulation resolves
// against.
type Model struct {
	mu sync.Mutex

	Exec      *executive.Executive
	Tasks     *taskgraph.Graph
	Resources *resourcemgr.Manager
	Ports     *ports.Manager
	Machine   *statemachine.Machine

	// RunContext is the GraphContext every event dispatched for this
	// model's run executes under. New initializes it to a fresh context;
	// replace it before Start for a caller that wants per-run isolation
	// distinct from this Model's own bookkeeping.
	RunContext *domain.GraphContext

	objects  map[domain.Guid]domain.IModelObject
	services map[reflect.Type]any

	masterTasks []domain.EdgeID
	errors      []error
}

// New returns a Model in the Init state, with every transition Component
// Design §4.9 names pre-declared.
func New(sink domain.DiagnosticsSink) *Model {
	exec := executive.NewExecutive(sink)
	m := &Model{
		Exec:       exec,
		Tasks:      taskgraph.New(exec),
		Resources:  resourcemgr.New(exec),
		Ports:      ports.NewManager(),
		Machine:    statemachine.New(StateInit, StateRunning, StatePaused, StateStopped, StateFinished, StateReset),
		RunContext: domain.NewGraphContext(),
		objects:    make(map[domain.Guid]domain.IModelObject),
		services:   make(map[reflect.Type]any),
	}

	m.Machine.Allow(StateInit, StateRunning)
	m.Machine.Allow(StateRunning, StatePaused)
	m.Machine.Allow(StatePaused, StateRunning)
	m.Machine.Allow(StateRunning, StateStopped)
	m.Machine.Allow(StatePaused, StateStopped)
	m.Machine.Allow(StateStopped, StateFinished)
	m.Machine.Allow(StateStopped, StateReset)
	m.Machine.Allow(StateFinished, StateReset)
	m.Machine.Allow(StateReset, StateInit)

	m.Machine.OnCommit(StateInit, StateRunning, statemachine.Handler{
		Name: "activate-master-tasks",
		Run: func(_ *statemachine.Machine, _, _ string) bool {
			m.activateMasterTasks()
			return true
		},
	})
	m.Machine.OnCommit(StateReset, StateInit, statemachine.Handler{
		Name:      "clear-run-state",
		Inlinable: true,
		Run: func(_ *statemachine.Machine, _, _ string) bool {
			m.errors = nil
			return true
		},
	})

	return m
}

// RegisterObject adds an IModelObject under the caller-supplied Guid,
// failing with a wrapped domain.ErrDuplicateObject if that Guid is already
// registered.
func (m *Model) RegisterObject(id domain.Guid, obj domain.IModelObject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.objects[id]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateObject, obj.ObjectName())
	}
	m.objects[id] = obj
	return nil
}

// Object looks up a previously registered IModelObject by Guid.
func (m *Model) Object(id domain.Guid) (domain.IModelObject, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[id]
	return obj, ok
}

// RegisterService binds svc under the interface type T asks for. Resolve
// a service with model.ResolveService[T](m).
func RegisterService[T any](m *Model, svc T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	m.services[t] = svc
}

// ResolveService looks up a service registered under interface type T,
// reporting domain.ErrServiceNotFound if none was registered.
func ResolveService[T any](m *Model) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero T
	t := reflect.TypeOf((*T)(nil)).Elem()
	svc, ok := m.services[t]
	if !ok {
		return zero, domain.ErrServiceNotFound
	}
	return svc.(T), nil
}

// RegisterMasterTask declares an edge as a top-level task to start when
// the model transitions Init → Running, rather than one reached only by
// arriving at some other edge's post-vertex.
func (m *Model) RegisterMasterTask(edge domain.EdgeID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.masterTasks = append(m.masterTasks, edge)
}

func (m *Model) activateMasterTasks() {
	m.mu.Lock()
	tasks := append([]domain.EdgeID(nil), m.masterTasks...)
	m.mu.Unlock()
	for _, id := range tasks {
		if err := m.Tasks.StartEdge(id, m.RunContext); err != nil {
			m.recordError(err)
		}
	}
}

func (m *Model) recordError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, err)
}

// Errors returns every error recorded since the last Reset.
func (m *Model) Errors() []error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]error(nil), m.errors...)
}

// Start clears RunContext's volatile keys, transitions Init → Running,
// activating every registered master task, then drives the executive to
// completion.
func (m *Model) Start(ctx context.Context) error {
	m.RunContext.ClearVolatiles()
	if res := m.Machine.DoTransition(StateRunning); res != statemachine.Success {
		return fmt.Errorf("%w: Init -> Running (%s)", domain.ErrTransitionNotPermitted, res)
	}
	return m.Exec.Run(ctx, m.RunContext)
}

// Pause transitions Running → Paused. The executive itself keeps no
// notion of "paused" — callers stop calling Run/Step while paused and,
// after Resume, continue by calling m.Exec.Run(ctx, m.RunContext)
// directly; Start only succeeds from Init.
func (m *Model) Pause() error {
	if res := m.Machine.DoTransition(StatePaused); res != statemachine.Success {
		return fmt.Errorf("%w: Running -> Paused (%s)", domain.ErrTransitionNotPermitted, res)
	}
	return nil
}

// Resume transitions Paused → Running.
func (m *Model) Resume() error {
	if res := m.Machine.DoTransition(StateRunning); res != statemachine.Success {
		return fmt.Errorf("%w: Paused -> Running (%s)", domain.ErrTransitionNotPermitted, res)
	}
	return nil
}

// Stop transitions Running or Paused to Stopped.
func (m *Model) Stop() error {
	if res := m.Machine.DoTransition(StateStopped); res != statemachine.Success {
		return fmt.Errorf("%w: -> Stopped (%s)", domain.ErrTransitionNotPermitted, res)
	}
	return nil
}

// Finish transitions Stopped → Finished.
func (m *Model) Finish() error {
	if res := m.Machine.DoTransition(StateFinished); res != statemachine.Success {
		return fmt.Errorf("%w: Stopped -> Finished (%s)", domain.ErrTransitionNotPermitted, res)
	}
	return nil
}

// Reset returns a Stopped or Finished model to Init, clearing recorded
// errors, by way of the transient Reset state.
func (m *Model) Reset() error {
	if res := m.Machine.DoTransition(StateReset); res != statemachine.Success {
		return fmt.Errorf("%w: -> Reset (%s)", domain.ErrTransitionNotPermitted, res)
	}
	if res := m.Machine.DoTransition(StateInit); res != statemachine.Success {
		return fmt.Errorf("%w: Reset -> Init (%s)", domain.ErrTransitionNotPermitted, res)
	}
	return nil
}

package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Executive / causality errors
	ErrCausalityViolation = errors.New("event scheduled before the current virtual clock")
	ErrExecutiveFinished  = errors.New("executive has already finished")
	ErrExecutiveRunning   = errors.New("operation not permitted while executive is running")
	ErrEventNotFound      = errors.New("event key not found")
	ErrNoCurrentEvent     = errors.New("no detachable event is currently executing")

	// Milestone / time period errors
	ErrRelationshipViolated  = errors.New("milestone move violates an enabled relationship")
	ErrMilestonePinned       = errors.New("milestone is pinned and cannot move")
	ErrRelationshipDuringMove = errors.New("relationships cannot be added or removed during propagation")
	ErrTimePeriodAdjustment  = errors.New("time period adjustment mode forbids this assignment")

	// Task graph errors
	ErrReentrantExecution = errors.New("edge re-entered before its completion signaler was consumed")
	ErrSignalerConsumed   = errors.New("edge-execution-completion-signaler already consumed")
	ErrTaskNotFound       = errors.New("task not found in graph")

	// Resource manager errors
	ErrBlockingFromSynchronous = errors.New("blocking acquire requested from a non-detachable context")
	ErrResourceExhausted       = errors.New("resource pool exhausted")
	ErrReservationFailed       = errors.New("could not reserve all requested resources")
	ErrResourceNotFound        = errors.New("resource not found in manager")

	// State machine errors
	ErrTransitionNotPermitted = errors.New("transition not permitted from current state")
	ErrTransitionVetoed       = errors.New("transition vetoed by a test handler")

	// Port / connector errors
	ErrPortExists        = errors.New("a port with this guid is already registered")
	ErrPortNotFound      = errors.New("port not found")
	ErrConnectorOccupied = errors.New("output or input port already has a connector attached")
	ErrNoPutHandler      = errors.New("input port has no put handler")
	ErrNoTakeHandler     = errors.New("output port has no take handler")

	// Model composition errors
	ErrDuplicateObject    = errors.New("a model object with this guid is already registered")
	ErrDuplicateProcessor = errors.New("a task processor with this name is already registered")
	ErrServiceNotFound    = errors.New("no service registered for the requested interface")
)

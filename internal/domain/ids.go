// Package domain holds the pure data types shared by every simulation
// kernel component. Infrastructure (executive, milestone network, task
// graph, resource manager, ports) depends on these; domain depends on
// nothing but the standard library.
package domain

import "github.com/google/uuid"

// Guid uniquely identifies a model object, port, or registered service.
type Guid = uuid.UUID

// NewGuid mints a fresh identifier.
func NewGuid() Guid {
	return uuid.New()
}

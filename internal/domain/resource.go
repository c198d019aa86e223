package domain

// ResourceID indexes into the resource manager's pool arena.
type ResourceID uint64

// DischargePolicy governs what happens to a unit's allocation state when
// its holder releases it.
type DischargePolicy int

const (
	// DischargeReturnToPool restores the released amount to availability
	// immediately.
	DischargeReturnToPool DischargePolicy = iota
	// DischargeConsume removes the released amount permanently (a
	// consumable resource, e.g. fuel or budget).
	DischargeConsume
)

// Resource is a named pool of interchangeable capacity. Capacity may be
// replicated (Available tracks a single shared counter) independent of
// how many distinct requesters currently hold units of it.
type Resource struct {
	ID       ResourceID
	Name     string
	Capacity float64
	Available float64
	Policy   DischargePolicy
	Preemptable bool
}

// RequestID identifies one multi-resource acquisition request.
type RequestID uint64

// ResourceLine is one (resource, amount) pair within a ResourceRequest.
type ResourceLine struct {
	Resource ResourceID
	Amount   float64
}

// ResourceRequest bundles the lines that must be satisfied atomically:
// either every line's amount is reserved, or none is (Component Design
// §4.7's reserve-then-commit rule). Blocking requests may only originate
// from a Detachable event; Priority governs queue arbitration order when
// capacity is insufficient.
type ResourceRequest struct {
	ID       RequestID
	Lines    []ResourceLine
	Blocking bool
	Priority int
	Requester EventKey
}

// Allocation is the record of a committed request, used to release or
// partially discharge held units later.
type Allocation struct {
	Request ResourceRequest
	Held    map[ResourceID]float64
}

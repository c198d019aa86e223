package ports

// BufferPersistence governs how long a port manager's cached value survives
// (Component Design §4.8's "Port managers" paragraph).
type BufferPersistence int

const (
	// PersistNone recomputes (or discards) on every access; nothing is
	// cached between reads.
	PersistNone BufferPersistence = iota
	// PersistUntilRead caches a computed or written value until the next
	// read consumes it, then discards it.
	PersistUntilRead
	// PersistUntilWrite caches until the next write/invalidation replaces
	// it, surviving any number of reads in between.
	PersistUntilWrite
)

// WriteAction governs how an InputManager reacts to an incoming Put.
type WriteAction int

const (
	// WriteIgnore discards the written value; the manager carries no state.
	WriteIgnore WriteAction = iota
	// WriteStore remembers the value for later retrieval via Stored.
	WriteStore
	// WriteStoreAndInvalidate stores the value and additionally invalidates
	// every declared peer OutputManager (their next Value() recomputes).
	WriteStoreAndInvalidate
	// WritePush stores the value and eagerly recomputes every declared peer
	// immediately, rather than waiting for their next Value() call.
	WritePush
)

// ComputeFn lazily produces an output port's current value.
type ComputeFn func() any

// OutputManager wraps an output port with a lazily-evaluated compute
// function and a buffer-persistence policy, pushing invalidation to
// declared peer managers whenever its cached value is invalidated — "push
// all but the instigator" per Component Design §4.8.
type OutputManager struct {
	id          PortRefID
	persistence BufferPersistence
	compute     ComputeFn
	cached      any
	hasCached   bool
	peers       []*OutputManager
}

// PortRefID is an opaque handle an OutputManager reports itself by; callers
// typically pass a domain.PortID here.
type PortRefID uint64

// NewOutputManager returns a manager computing its value via compute,
// cached per persistence.
func NewOutputManager(id PortRefID, persistence BufferPersistence, compute ComputeFn) *OutputManager {
	return &OutputManager{id: id, persistence: persistence, compute: compute}
}

// AddPeer declares p as a dependent that should be invalidated whenever
// this manager's value changes, excluding whichever manager instigated the
// change in the first place (so a cycle of mutual peers can't infinite-loop).
func (om *OutputManager) AddPeer(p *OutputManager) { om.peers = append(om.peers, p) }

// Value returns the port's current value, computing it if nothing is
// cached. Under PersistNone the cache is never populated, so every call
// recomputes. Under PersistUntilRead the cache is cleared by this same
// call after being returned.
func (om *OutputManager) Value() any {
	if om.persistence != PersistNone && om.hasCached {
		v := om.cached
		if om.persistence == PersistUntilRead {
			om.hasCached = false
			om.cached = nil
		}
		return v
	}
	v := om.compute()
	if om.persistence == PersistUntilWrite {
		om.cached = v
		om.hasCached = true
	}
	return v
}

// Invalidate clears this manager's cache and recursively invalidates every
// peer except instigator, stopping cycles from re-entering the manager
// that triggered the invalidation.
func (om *OutputManager) Invalidate(instigator *OutputManager) {
	om.hasCached = false
	om.cached = nil
	for _, p := range om.peers {
		if p == instigator {
			continue
		}
		p.Invalidate(om)
	}
}

// InputManager wraps an input port with a buffer-persistence policy and a
// write action governing what a Put does besides delivering to the port's
// ordinary PutHandler.
type InputManager struct {
	id          PortRefID
	persistence BufferPersistence
	action      WriteAction
	stored      any
	hasStored   bool
	peers       []*OutputManager
}

// NewInputManager returns a manager applying action on every Put, pushing
// to peers per WriteStoreAndInvalidate/WritePush.
func NewInputManager(id PortRefID, persistence BufferPersistence, action WriteAction) *InputManager {
	return &InputManager{id: id, persistence: persistence, action: action}
}

// AddPeer declares an OutputManager that reacts to this input's writes.
func (im *InputManager) AddPeer(p *OutputManager) { im.peers = append(im.peers, p) }

// Write applies action to data. It returns nothing; afterwards Stored
// reports a value only under WriteStore or WriteStoreAndInvalidate with a
// persistence other than PersistNone (WriteIgnore and WritePush never
// retain a value of their own).
func (im *InputManager) Write(data any) {
	switch im.action {
	case WriteIgnore:
		return
	case WriteStore:
		im.store(data)
	case WriteStoreAndInvalidate:
		im.store(data)
		for _, p := range im.peers {
			p.Invalidate(nil)
		}
	case WritePush:
		for _, p := range im.peers {
			p.Invalidate(nil)
			p.Value() // eager recompute now rather than on next read
		}
	}
}

func (im *InputManager) store(data any) {
	if im.persistence == PersistNone {
		return
	}
	im.stored = data
	im.hasStored = true
	if im.persistence == PersistUntilRead {
		// consumed by the next Stored() call
	}
}

// Stored returns the last written value retained under WriteStore or
// WriteStoreAndInvalidate, clearing it first if persistence is
// PersistUntilRead.
func (im *InputManager) Stored() (any, bool) {
	if !im.hasStored {
		return nil, false
	}
	v := im.stored
	if im.persistence == PersistUntilRead {
		im.hasStored = false
		im.stored = nil
	}
	return v, true
}

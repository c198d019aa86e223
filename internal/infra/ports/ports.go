// Package ports implements the item-flow overlay (Component Design §4.8):
// input/output ports with put/take/peek handlers, one-to-one connectors,
// and a keyed PortSet container. Its content-addressed keyed-lookup shape
// is grounded on the teacher's internal/infra/registry Manager; port
// managers' buffer-persistence policy is a new addition this layer needed
// that the teacher's registry had no analogue for.
package ports

import "github.com/sagekernel/sagekernel/internal/domain"

// PutHandler is an input port's acceptance function.
type PutHandler func(data any) (accept bool)

// TakeHandler is an output port's production function. selector lets the
// taker request a specific item when the port's owner supports it.
type TakeHandler func(selector any) (data any, ok bool)

// PeekHandler is an output port's non-consumptive lookahead.
type PeekHandler func(selector any) (data any, ok bool)

// PortEvent names a port lifecycle/data notification.
type PortEvent int

const (
	PortDataAccepted PortEvent = iota
	PortDataRejected
	PortAdded
	PortRemoved
)

// Listener observes one PortEvent for one port.
type Listener func(event PortEvent, port domain.PortID)

// entry is the manager's bookkeeping for one registered port.
type entry struct {
	port    *domain.Port
	put     PutHandler
	take    TakeHandler
	peek    PeekHandler
}

// Manager owns a PortSet and the handlers attached to each port.
type Manager struct {
	set       *domain.PortSet
	entries   map[domain.PortID]*entry
	listeners []Listener
}

// NewManager returns an empty port manager.
func NewManager() *Manager {
	return &Manager{
		set:     domain.NewPortSet(),
		entries: make(map[domain.PortID]*entry),
	}
}

// Subscribe registers a listener, invoked for every port's events.
func (m *Manager) Subscribe(l Listener) { m.listeners = append(m.listeners, l) }

func (m *Manager) fire(event PortEvent, id domain.PortID) {
	for _, l := range m.listeners {
		l(event, id)
	}
}

// AddInput registers a new input port with the given put handler.
func (m *Manager) AddInput(name string, policy domain.BufferPolicy, put PutHandler) domain.PortID {
	id := m.set.Add(name, domain.PortInput, policy)
	p, _ := m.set.ByID(id)
	m.entries[id] = &entry{port: p, put: put}
	m.fire(PortAdded, id)
	return id
}

// AddOutput registers a new output port with the given take/peek handlers.
func (m *Manager) AddOutput(name string, policy domain.BufferPolicy, take TakeHandler, peek PeekHandler) domain.PortID {
	id := m.set.Add(name, domain.PortOutput, policy)
	p, _ := m.set.ByID(id)
	m.entries[id] = &entry{port: p, take: take, peek: peek}
	m.fire(PortAdded, id)
	return id
}

// Remove deregisters a port.
func (m *Manager) Remove(id domain.PortID) {
	delete(m.entries, id)
	m.fire(PortRemoved, id)
}

// Port returns a port's current record.
func (m *Manager) Port(id domain.PortID) (domain.Port, bool) {
	e, ok := m.entries[id]
	if !ok {
		return domain.Port{}, false
	}
	return *e.port, true
}

// Put delivers data to an input port. It fires PortDataAccepted or
// PortDataRejected according to the put handler's verdict, returning
// domain.ErrNoPutHandler if the port has none (e.g. it is an output port).
func (m *Manager) Put(id domain.PortID, data any) (bool, error) {
	e, ok := m.entries[id]
	if !ok {
		return false, domain.ErrPortNotFound
	}
	if e.put == nil {
		return false, domain.ErrNoPutHandler
	}
	accepted := e.put(data)
	if accepted {
		m.fire(PortDataAccepted, id)
	} else {
		m.fire(PortDataRejected, id)
	}
	return accepted, nil
}

// Take draws an item from an output port via its take handler, firing the
// same accepted/rejected events as Put.
func (m *Manager) Take(id domain.PortID, selector any) (any, bool, error) {
	e, ok := m.entries[id]
	if !ok {
		return nil, false, domain.ErrPortNotFound
	}
	if e.take == nil {
		return nil, false, domain.ErrNoTakeHandler
	}
	data, ok := e.take(selector)
	if ok {
		m.fire(PortDataAccepted, id)
	} else {
		m.fire(PortDataRejected, id)
	}
	return data, ok, nil
}

// Peek inspects an output port without consuming, returning false if the
// port declared no peek handler.
func (m *Manager) Peek(id domain.PortID, selector any) (any, bool) {
	e, ok := m.entries[id]
	if !ok || e.peek == nil {
		return nil, false
	}
	return e.peek(selector)
}

// NotifyDataAvailable lets an output port's owner signal that fresh data
// may now be pulled, without pushing the data itself — the port's
// connector (or any caller) decides whether to Take in response.
func (m *Manager) NotifyDataAvailable(id domain.PortID, l Listener) {
	l(PortDataAccepted, id)
}

// Connect installs a one-to-one connector between an output and an input
// port, failing if either end is already attached.
func (m *Manager) Connect(output, input domain.PortID) (domain.ConnectorID, error) {
	out, ok := m.entries[output]
	if !ok {
		return 0, domain.ErrPortNotFound
	}
	in, ok := m.entries[input]
	if !ok {
		return 0, domain.ErrPortNotFound
	}
	if out.port.HasAttached || in.port.HasAttached {
		return 0, domain.ErrConnectorOccupied
	}
	id := domain.ConnectorID(output)<<32 | domain.ConnectorID(input)
	out.port.HasAttached = true
	out.port.Attached = id
	in.port.HasAttached = true
	in.port.Attached = id
	return id, nil
}

// Disconnect removes a port's connector, applying its buffer policy:
// BufferDiscardOnDisconnect drops any buffered, unconsumed items.
func (m *Manager) Disconnect(id domain.PortID) {
	e, ok := m.entries[id]
	if !ok {
		return
	}
	e.port.HasAttached = false
	e.port.Attached = 0
	if e.port.Policy == domain.BufferDiscardOnDisconnect {
		e.port.Buffer = nil
	}
}

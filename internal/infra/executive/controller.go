package executive

import "github.com/sagekernel/sagekernel/internal/domain"

type yieldReason int

const (
	yieldUntilInstant yieldReason = iota
	yieldUntilResumed
)

type yieldRequest struct {
	reason yieldReason
	when   domain.Instant
}

// abortSignal unwinds a detachable coroutine's goroutine stack via panic
// so the callback's own defers still run. It is recovered only by the
// goroutine wrapper started in runDetachable.
type abortSignal struct{}

// Controller is the EventController handed to a detachable event's
// callback. Its suspend/resume pair lets exactly one coroutine's user code
// run at a time — the single-writer discipline Component Design §4.1 calls
// detachable isolation — by handing control back to the executive's
// dispatch goroutine on every suspend and only returning it on resume.
type Controller struct {
	key     domain.EventKey
	current domain.Instant

	yield  chan yieldRequest
	resume chan struct{}
	abort  chan struct{}
	done   chan struct{}

	aborted bool
}

func newController(key domain.EventKey, startAt domain.Instant) *Controller {
	return &Controller{
		key:     key,
		current: startAt,
		yield:   make(chan yieldRequest),
		resume:  make(chan struct{}),
		abort:   make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (c *Controller) SuspendFor(d domain.Instant) {
	c.suspend(yieldRequest{reason: yieldUntilInstant, when: c.current.Add(d)})
}

func (c *Controller) SuspendUntil(t domain.Instant) {
	c.suspend(yieldRequest{reason: yieldUntilInstant, when: t})
}

func (c *Controller) SuspendUntilResumed() {
	c.suspend(yieldRequest{reason: yieldUntilResumed})
}

func (c *Controller) suspend(req yieldRequest) {
	c.yield <- req
	select {
	case <-c.resume:
	case <-c.abort:
		panic(abortSignal{})
	}
}

// Resume is a no-op from inside the coroutine's own goroutine; a running
// detachable callback is, by construction, not suspended. It exists to
// satisfy domain.EventController for callers that hold a Controller handle
// from the outside (the executive wakes a parked coroutine through
// Executive.ResumeParked instead, see executive.go).
func (c *Controller) Resume() {}

// Abort requests that the coroutine unwind at its next suspend point.
func (c *Controller) Abort() {
	c.aborted = true
	select {
	case c.abort <- struct{}{}:
	default:
	}
}

func (c *Controller) Aborted() bool { return c.aborted }

func (c *Controller) Key() domain.EventKey { return c.key }

package domain

import "sync"

// ContextKey indexes into a GraphContext. Keys are typically object
// identities (a task or vertex Guid) scoped to one run of the graph.
type ContextKey string

// GraphContext is the per-run keyed map carrying state across event
// handlers for a single execution instance of a task graph (see
// Design Notes §9 — "volatile keys and graph contexts"). Keys marked
// volatile are removed in one pass by ClearVolatiles, which Model.Start
// calls on the model's RunContext before each run.
type GraphContext struct {
	mu       sync.Mutex
	values   map[ContextKey]any
	volatile map[ContextKey]bool
}

// NewGraphContext returns an empty context.
func NewGraphContext() *GraphContext {
	return &GraphContext{
		values:   make(map[ContextKey]any),
		volatile: make(map[ContextKey]bool),
	}
}

// Set stores a non-volatile value.
func (c *GraphContext) Set(key ContextKey, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = val
	delete(c.volatile, key)
}

// SetVolatile stores a value flagged for removal on the next ClearVolatiles.
func (c *GraphContext) SetVolatile(key ContextKey, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = val
	c.volatile[key] = true
}

// Get retrieves a value previously stored under key.
func (c *GraphContext) Get(key ContextKey) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

// Delete removes a key unconditionally.
func (c *GraphContext) Delete(key ContextKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	delete(c.volatile, key)
}

// ClearVolatiles empties every entry whose key was stored as volatile.
// A single pass, as Design Notes §9 prescribes.
func (c *GraphContext) ClearVolatiles() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.volatile {
		delete(c.values, k)
		delete(c.volatile, k)
	}
}

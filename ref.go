package formula

import "sync/atomic"

// EngineRef holds the current engine. Readers always see a complete engine;
// a reload builds a new one and swaps it in.
type EngineRef struct {
	p atomic.Pointer[Engine]
}

// NewEngineRef creates a reference holding e.
func NewEngineRef(e *Engine) *EngineRef {
	r := &EngineRef{}
	r.p.Store(e)
	return r
}

// Load returns the current engine.
func (r *EngineRef) Load() *Engine { return r.p.Load() }

// Swap installs e and returns the previous engine.
func (r *EngineRef) Swap(e *Engine) *Engine { return r.p.Swap(e) }

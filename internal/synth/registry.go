package synth

import "sync"

// Registry stores synthesized module text keyed by inline module id. One
// registry belongs to exactly one plugin instance; several instances in
// the same process never observe each other's entries. The host may call
// transform and load hooks from different goroutines, so access is
// serialized.
type Registry struct {
	mu      sync.Mutex
	modules map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]string)}
}

// Reset drops every entry. Called at build start.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules = make(map[string]string)
}

// Set records the synthesized text for id. Idempotent for identical
// inputs: content-addressed ids only ever map to one text.
func (r *Registry) Set(id, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[id] = text
}

// Get returns the synthesized text for id.
func (r *Registry) Get(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	text, ok := r.modules[id]
	return text, ok
}

// Len reports the number of stored modules.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.modules)
}

package form

import (
	"log/slog"
	"sync"

	"github.com/tbxark/apptagent/types"
)

// ValidatorFunc checks a normalized value and returns a failure reason, or
// empty when the value passes. Validators run after extraction, on top of the
// per-type rules the extractors already enforce.
type ValidatorFunc func(normalized string) string

// Registry resolves FieldSpec validator refs to validator functions.
type Registry struct {
	mu sync.RWMutex
	m  map[string]ValidatorFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{m: map[string]ValidatorFunc{}}
}

// Register binds a ref to a validator, replacing any previous binding.
func (r *Registry) Register(ref string, fn ValidatorFunc) {
	r.mu.Lock()
	r.m[ref] = fn
	r.mu.Unlock()
}

// Check runs the validator named by the spec's ref against a normalized
// value. An empty ref always passes; a ref with no registered validator is
// logged and passes, so a stale config cannot wedge the form.
func (r *Registry) Check(spec types.FieldSpec, normalized string) string {
	if spec.ValidatorRef == "" {
		return ""
	}
	r.mu.RLock()
	fn, ok := r.m[spec.ValidatorRef]
	r.mu.RUnlock()
	if !ok {
		slog.Warn("unknown validator ref", "field", spec.Name, "ref", spec.ValidatorRef)
		return ""
	}
	return fn(normalized)
}

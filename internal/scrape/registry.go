package scrape

import "fmt"

// Registry holds the closed, explicitly-registered set of adapters, split
// by pool. Fast adapters are keyless and cheap enough for in-request JIT
// fan-out. Fallback adapters are keyed and rate-limited; their order is
// the order they will be tried, so register them by priority.
type Registry struct {
	fast     []Adapter
	fallback []Adapter
	byName   map[string]Adapter
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Adapter)}
}

// RegisterFast adds an adapter to the JIT pool.
func (r *Registry) RegisterFast(a Adapter) {
	r.fast = append(r.fast, a)
	r.byName[a.Name()] = a
}

// RegisterFallback adds an adapter to the ordered fallback chain.
func (r *Registry) RegisterFallback(a Adapter) {
	r.fallback = append(r.fallback, a)
	r.byName[a.Name()] = a
}

// Fast returns the JIT adapter pool.
func (r *Registry) Fast() []Adapter { return r.fast }

// Fallback returns the fallback chain in priority order.
func (r *Registry) Fallback() []Adapter { return r.fallback }

// ByName resolves the adapter a ScheduleEntry names. Unknown sources are
// an error so a mistyped schedule row surfaces at dispatch, not silently.
func (r *Registry) ByName(name string) (Adapter, error) {
	a, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown source %q", name)
	}
	return a, nil
}

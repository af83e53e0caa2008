package registry

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/dispatch/pkg/domain"
)

// Config is what a target was configured with.
type Config struct {
	Events   domain.EventKind
	Behavior domain.Behavior
	Handlers []domain.Handler
}

type entry struct {
	cfg     Config
	claimed map[string]struct{}
}

// Registry is the side table mapping target identity to its handlers.
// Entries live as long as the registry; there is no teardown.
type Registry struct {
	mu      sync.RWMutex
	entries map[domain.Target]*entry
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[domain.Target]*entry),
	}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// Attach stores cfg for target, replacing any previous configuration.
func (r *Registry) Attach(target domain.Target, cfg Config) {
	cfg.Handlers = slices.Clone(cfg.Handlers)

	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[target]
	if !ok {
		e = &entry{claimed: make(map[string]struct{})}
		r.entries[target] = e
	}
	e.cfg = cfg
}

// Config returns the configuration of target.
func (r *Registry) Config(target domain.Target) (Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[target]
	if !ok {
		return Config{}, false
	}
	cfg := e.cfg
	cfg.Handlers = slices.Clone(cfg.Handlers)
	return cfg, true
}

// Dispatchers returns the handlers of target in registration order, or an
// empty slice if it was never configured.
func (r *Registry) Dispatchers(target domain.Target) []domain.Handler {
	cfg, ok := r.Config(target)
	if !ok || cfg.Handlers == nil {
		return []domain.Handler{}
	}
	return cfg.Handlers
}

// Claim marks key (an operation of target) as woven through this registry.
// It returns true only the first time.
func (r *Registry) Claim(target domain.Target, key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[target]
	if !ok {
		e = &entry{claimed: make(map[string]struct{})}
		r.entries[target] = e
	}
	if _, done := e.claimed[key]; done {
		return false
	}
	e.claimed[key] = struct{}{}
	return true
}

// Targets lists every configured target, sorted by name.
func (r *Registry) Targets() []domain.Target {
	r.mu.RLock()
	out := make([]domain.Target, 0, len(r.entries))
	for t := range r.entries {
		out = append(out, t)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.Target) int {
		return strings.Compare(a.TargetName(), b.TargetName())
	})
	return out
}

// Lookup finds a configured target by name.
func (r *Registry) Lookup(name string) (domain.Target, bool) {
	for _, t := range r.Targets() {
		if t.TargetName() == name {
			return t, true
		}
	}
	return nil, false
}

// Resolve turns entries into handlers. Named entries are looked up as
// attributes of target.
func Resolve(target domain.Target, entries []domain.HandlerEntry) ([]domain.Handler, error) {
	handlers := make([]domain.Handler, 0, len(entries))
	for _, h := range entries {
		if !h.IsNamed() {
			handlers = append(handlers, h.Handler())
			continue
		}

		v, ok := target.Attr(h.Name())
		if !ok {
			return nil, &domain.HandlerNotFoundError{Target: target.TargetName(), Name: h.Name()}
		}
		switch fn := v.(type) {
		case domain.Handler:
			handlers = append(handlers, fn)
		case func(context.Context, domain.Event) error:
			handlers = append(handlers, fn)
		default:
			return nil, &domain.HandlerTypeError{Target: target.TargetName(), Name: h.Name(), Value: v}
		}
	}
	return handlers, nil
}

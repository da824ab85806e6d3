package directive

import (
	"sort"
	"strings"
	"sync"
)

// Entry is a registered directive: its parsing spec and the handler that runs it.
type Entry[H any] struct {
	Name    string
	Spec    Spec
	Handler H
}

// Registry maps directive names to entries. Names are case-insensitive, the
// way docutils normalises them.
type Registry[H any] struct {
	mu      sync.RWMutex
	entries map[string]Entry[H]
}

// NewRegistry creates an empty directive registry.
func NewRegistry[H any]() *Registry[H] {
	return &Registry[H]{
		entries: make(map[string]Entry[H]),
	}
}

// Register adds or replaces the directive called name.
func (r *Registry[H]) Register(name string, spec Spec, h H) {
	key := normalize(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = Entry[H]{Name: key, Spec: spec, Handler: h}
}

// Alias registers an existing entry under another name. It reports false when
// target is unknown.
func (r *Registry[H]) Alias(alias, target string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[normalize(target)]
	if !ok {
		return false
	}
	r.entries[normalize(alias)] = e
	return true
}

// Lookup finds a directive by name.
func (r *Registry[H]) Lookup(name string) (Entry[H], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[normalize(name)]
	return e, ok
}

// Clone returns an independent copy; registrations on the copy do not affect r.
func (r *Registry[H]) Clone() *Registry[H] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := &Registry[H]{entries: make(map[string]Entry[H], len(r.entries))}
	for k, e := range r.entries {
		out.entries[k] = e
	}
	return out
}

// Names returns all registered names in lexical order.
func (r *Registry[H]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.entries))
	for k := range r.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered names.
func (r *Registry[H]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

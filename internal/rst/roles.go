package rst

import (
	"strings"
	"sync"
)

// RoleSet is the set of interpreted-text roles the parser accepts. Domain
// roles are stored qualified ("py:func"), generic roles bare ("emphasis").
type RoleSet struct {
	mu    sync.RWMutex
	names map[string]struct{}
}

func NewRoleSet(names ...string) *RoleSet {
	r := &RoleSet{names: make(map[string]struct{}, len(names))}
	r.Add(names...)
	return r
}

func (r *RoleSet) Add(names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range names {
		r.names[strings.ToLower(n)] = struct{}{}
	}
}

// AddDomain registers names qualified with domain.
func (r *RoleSet) AddDomain(domain string, names ...string) {
	q := make([]string, len(names))
	for i, n := range names {
		q[i] = domain + ":" + n
	}
	r.Add(q...)
}

func (r *RoleSet) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.names[strings.ToLower(name)]
	return ok
}

func (r *RoleSet) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

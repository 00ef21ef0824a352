package lexicon

import (
	"sort"
	"sync"
)

// Registry holds named lexicons in registration order.
type Registry struct {
	mu     sync.RWMutex
	names  []string
	byName map[string]*Lexicon
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Lexicon)}
}

// Register adds or replaces a lexicon. A replaced lexicon keeps its
// original position.
func (r *Registry) Register(name string, lex *Lexicon) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; !ok {
		r.names = append(r.names, name)
	}
	r.byName[name] = lex
}

// Unregister removes a lexicon and reports whether it was present.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; !ok {
		return false
	}
	delete(r.byName, name)
	for i, n := range r.names {
		if n == name {
			r.names = append(r.names[:i], r.names[i+1:]...)
			break
		}
	}
	return true
}

// Get returns a registered lexicon.
func (r *Registry) Get(name string) (*Lexicon, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lex, ok := r.byName[name]
	return lex, ok
}

// Names returns the registered names sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := append([]string(nil), r.names...)
	sort.Strings(names)
	return names
}

// Each calls fn for every lexicon in registration order until fn returns
// false.
func (r *Registry) Each(fn func(name string, lex *Lexicon) bool) {
	r.mu.RLock()
	names := append([]string(nil), r.names...)
	lexicons := make([]*Lexicon, len(names))
	for i, n := range names {
		lexicons[i] = r.byName[n]
	}
	r.mu.RUnlock()

	for i, n := range names {
		if !fn(n, lexicons[i]) {
			return
		}
	}
}

// Len returns the number of registered lexicons.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

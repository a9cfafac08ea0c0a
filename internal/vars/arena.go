package vars

import (
	"strings"
	"sync"
)

// Arena stores variables per scope, where a scope is a project or folder
// referenced by its stable id. Eviction is explicit (DropScope) instead of
// relying on object lifetime.
type Arena struct {
	mu     sync.RWMutex
	scopes map[string]map[string]string
}

func NewArena() *Arena {
	return &Arena{scopes: make(map[string]map[string]string)}
}

func (a *Arena) Set(scopeID, name, value string) {
	key := strings.ToLower(name)
	a.mu.Lock()
	defer a.mu.Unlock()
	scope, ok := a.scopes[scopeID]
	if !ok {
		scope = make(map[string]string)
		a.scopes[scopeID] = scope
	}
	scope[key] = value
}

func (a *Arena) Get(scopeID, name string) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	scope, ok := a.scopes[scopeID]
	if !ok {
		return "", false
	}
	value, ok := scope[strings.ToLower(name)]
	return value, ok
}

// Snapshot copies the scope's variables for safe read-only use.
func (a *Arena) Snapshot(scopeID string) map[string]string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	scope, ok := a.scopes[scopeID]
	if !ok {
		return nil
	}
	out := make(map[string]string, len(scope))
	for k, v := range scope {
		out[k] = v
	}
	return out
}

func (a *Arena) DropScope(scopeID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.scopes, scopeID)
}

// Bind returns a scope-bound view implementing the variables-store
// collaborator interface consumed by set-variable actions.
func (a *Arena) Bind(scopeID string) *ScopedStore {
	return &ScopedStore{arena: a, scope: scopeID}
}

type ScopedStore struct {
	arena *Arena
	scope string
}

func (s *ScopedStore) Set(name, value string) error {
	s.arena.Set(s.scope, name, value)
	return nil
}

func (s *ScopedStore) Get(name string) (string, bool) {
	return s.arena.Get(s.scope, name)
}

// Provider adapts the bound scope into the resolver chain.
func (s *ScopedStore) Provider() Provider {
	return scopeProvider{store: s}
}

type scopeProvider struct {
	store *ScopedStore
}

func (p scopeProvider) Resolve(name string) (string, bool) {
	return p.store.Get(name)
}

func (p scopeProvider) Label() string {
	return "scope:" + p.store.scope
}

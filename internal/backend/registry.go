package backend

import (
	"fmt"
	"sort"
	"sync"
)

// DefaultID is the backend used when no backend is configured.
const DefaultID = "find-owners"

var (
	registry = make(map[string]Backend)
	mu       sync.RWMutex
)

func Register(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[b.ID()]; exists {
		panic(fmt.Sprintf("backend %s already registered", b.ID()))
	}
	registry[b.ID()] = b
}

func List() []Backend {
	mu.RLock()
	defer mu.RUnlock()
	var backends []Backend
	for _, b := range registry {
		backends = append(backends, b)
	}
	sort.Slice(backends, func(i, j int) bool {
		return backends[i].ID() < backends[j].ID()
	})
	return backends
}

// Get returns the backend registered under the given ID.
func Get(id string) (Backend, error) {
	mu.RLock()
	defer mu.RUnlock()
	b, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("code owner backend %q not found", id)
	}
	return b, nil
}

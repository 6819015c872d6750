// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ring

import (
	"errors"
	"sort"
	"sync"
)

// Backing is the memory behind a ring arena.
type Backing interface {
	// Bytes returns the arena memory. Its length is at least the requested
	// size.
	Bytes() []byte

	// Close releases the memory. Bytes must not be used afterwards.
	Close() error
}

// BackingFactory allocates a backing of size bytes.
type BackingFactory func(size int) (Backing, error)

// Built-in backing names.
const (
	// BackingHeap allocates the arena on the Go heap.
	BackingHeap = "heap"

	// BackingMmap maps anonymous memory outside the Go heap. It is
	// registered only on platforms that support it.
	BackingMmap = "mmap"
)

// BackingEntry describes a registered backing store.
type BackingEntry struct {
	// Name is the unique identifier passed to WithBacking.
	Name string

	// Priority orders Best selection (higher = preferred).
	Priority int

	// Factory allocates backings.
	Factory BackingFactory

	// Available reports if the backing works on this system.
	Available func() bool
}

var globalRegistry = NewRegistry()

// Registry holds named backing stores.
//
//	func init() {
//	    ring.RegisterBacking("hugepages", 80, hugeFactory, hugeAvailable)
//	}
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*BackingEntry
}

// NewRegistry creates an empty registry.
// Most code should use the global registry via RegisterBacking.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*BackingEntry),
	}
}

// RegisterBacking adds a backing store to the global registry.
// If available is nil, the backing is assumed always available.
// Registering an existing name replaces the previous entry.
func RegisterBacking(name string, priority int, factory BackingFactory, available func() bool) {
	globalRegistry.Register(name, priority, factory, available)
}

// UnregisterBacking removes a backing store from the global registry.
func UnregisterBacking(name string) {
	globalRegistry.Unregister(name)
}

// Backings returns the available backing names, highest priority first.
func Backings() []string {
	return globalRegistry.Available()
}

// NewBacking allocates size bytes from the named backing store in the
// global registry. An empty name selects BackingHeap.
func NewBacking(name string, size int) (Backing, error) {
	if name == "" {
		name = BackingHeap
	}
	return globalRegistry.New(name, size)
}

// BestBacking returns the name of the highest priority available backing.
func BestBacking() (string, error) {
	return globalRegistry.Best()
}

// Register adds a backing store to this registry.
func (r *Registry) Register(name string, priority int, factory BackingFactory, available func() bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if available == nil {
		available = func() bool { return true }
	}
	r.entries[name] = &BackingEntry{
		Name:      name,
		Priority:  priority,
		Factory:   factory,
		Available: available,
	}
}

// Unregister removes a backing store from this registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, name)
}

// List returns all registered names sorted by priority.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedNames(false)
}

// Available returns the names of available backings sorted by priority.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedNames(true)
}

// Get returns a copy of the named entry.
func (r *Registry) Get(name string) (*BackingEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	entryCopy := *entry
	return &entryCopy, true
}

// Best returns the highest priority available backing name.
func (r *Registry) Best() (string, error) {
	names := r.Available()
	if len(names) == 0 {
		return "", ErrNoBackingAvailable
	}
	return names[0], nil
}

// New allocates size bytes from the named backing.
func (r *Registry) New(name string, size int) (Backing, error) {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &BackingNotFoundError{Name: name}
	}
	if !entry.Available() {
		return nil, &BackingUnavailableError{Name: name}
	}
	return entry.Factory(size)
}

// sortedNames must be called with the lock held.
func (r *Registry) sortedNames(onlyAvailable bool) []string {
	type ranked struct {
		name     string
		priority int
	}
	entries := make([]ranked, 0, len(r.entries))
	for name, e := range r.entries {
		if onlyAvailable && !e.Available() {
			continue
		}
		entries = append(entries, ranked{name: name, priority: e.Priority})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority > entries[j].priority
		}
		return entries[i].name < entries[j].name
	})

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names
}

// ErrNoBackingAvailable is returned when no backing store is registered or
// available on the current system.
var ErrNoBackingAvailable = errors.New("ring: no backing available")

// BackingNotFoundError indicates a named backing is not registered.
type BackingNotFoundError struct {
	Name string
}

func (e *BackingNotFoundError) Error() string {
	return "ring: backing not found: " + e.Name
}

// BackingUnavailableError indicates a backing exists but is not available.
type BackingUnavailableError struct {
	Name string
}

func (e *BackingUnavailableError) Error() string {
	return "ring: backing unavailable: " + e.Name
}

type heapBacking struct {
	b []byte
}

func (h *heapBacking) Bytes() []byte { return h.b }

func (h *heapBacking) Close() error {
	h.b = nil
	return nil
}

func newHeapBacking(size int) (Backing, error) {
	if size <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &heapBacking{b: make([]byte, size)}, nil
}

func init() {
	RegisterBacking(BackingHeap, 10, newHeapBacking, nil)
}

// Package registry keeps the set of configured server descriptors together
// with their most recent validation outcomes, and revalidates them in the
// background.
package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/acikit/go-aci-validator/internal/domain"
)

// Entry is one named server descriptor and its validation state.
type Entry struct {
	// Name is the unique name the descriptor was registered under.
	Name string `json:"name"`

	// Descriptor is the configured descriptor, after merging with defaults.
	Descriptor domain.ServerDescriptor `json:"descriptor"`

	// Outcome is the most recent validation outcome. Nil until the entry
	// has been validated once.
	Outcome *domain.ValidationOutcome `json:"outcome,omitempty"`

	// Details is the descriptor enriched with discovered ports, present
	// only after a successful validation.
	Details *domain.ServerDescriptor `json:"details,omitempty"`

	// ValidatedAt is when the entry was last validated.
	ValidatedAt time.Time `json:"validated_at,omitempty"`
}

// Store provides thread-safe storage for server entries. Reads return
// copies; entries are never handed out by reference.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]Entry),
	}
}

// Register adds a named descriptor. Registering an existing name replaces
// the descriptor and clears its validation state.
func (s *Store) Register(name string, sd domain.ServerDescriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[name] = Entry{Name: name, Descriptor: sd}
}

// Get returns the entry for name.
func (s *Store) Get(name string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[name]
	return entry, ok
}

// List returns all entries sorted by name.
func (s *Store) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// Names returns the registered names sorted alphabetically.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetOutcome records the result of validating name.
func (s *Store) SetOutcome(name string, outcome domain.ValidationOutcome, details *domain.ServerDescriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[name]
	if !ok {
		return fmt.Errorf("no server registered under %q", name)
	}

	entry.Outcome = &outcome
	entry.Details = details
	entry.ValidatedAt = time.Now()
	s.entries[name] = entry
	return nil
}

// Len returns the number of registered entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

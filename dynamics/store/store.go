// Package store persists pulse-mode simulation definitions keyed by a
// generated id, the same uuid-keyed, mutex-protected in-memory map
// shape internal/qservice's ProgramStore uses for circuit programs,
// generalized here to arbitrary definition values stored as any.
package store

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

type (
	// DefinitionStore persists a simulation definition and returns the
	// id it was saved under.
	DefinitionStore interface {
		Save(def any) (string, error)
		Get(id string) (any, error)
		Delete(id string)
	}

	definitionStore struct {
		defs map[string]any
		sync.RWMutex
	}
)

// New creates a new empty DefinitionStore.
func New() DefinitionStore {
	return &definitionStore{defs: make(map[string]any)}
}

// Save assigns a fresh id to def and stores it.
func (s *definitionStore) Save(def any) (string, error) {
	id := uuid.New().String()
	s.Lock()
	s.defs[id] = def
	s.Unlock()
	return id, nil
}

// Get returns the definition stored under id.
func (s *definitionStore) Get(id string) (any, error) {
	s.RLock()
	def, ok := s.defs[id]
	s.RUnlock()
	if !ok {
		return nil, fmt.Errorf("store: definition %s not found", id)
	}
	return def, nil
}

// Delete removes the definition stored under id, if any.
func (s *definitionStore) Delete(id string) {
	s.Lock()
	delete(s.defs, id)
	s.Unlock()
}

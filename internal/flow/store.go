package flow

import (
	"sync"
	"time"
)

type storeEntry struct {
	flow       *Flow
	lastActive time.Time
}

// Store holds one draft flow per visitor
type Store struct {
	mu      sync.Mutex
	backend DraftBackend
	sender  Sender
	flows   map[string]*storeEntry
	now     func() time.Time
}

// NewStore creates a store whose flows use backend and sender
func NewStore(backend DraftBackend, sender Sender) *Store {
	return &Store{
		backend: backend,
		sender:  sender,
		flows:   make(map[string]*storeEntry),
		now:     time.Now,
	}
}

// Get returns the visitor's flow, creating an empty one on first use
func (s *Store) Get(visitor string) *Flow {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.flows[visitor]
	if !ok {
		entry = &storeEntry{flow: New(s.backend, s.sender)}
		s.flows[visitor] = entry
	}
	entry.lastActive = s.now()
	return entry.flow
}

// Sweep forgets flows idle for longer than maxIdle
func (s *Store) Sweep(maxIdle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxIdle)
	removed := 0
	for visitor, entry := range s.flows {
		if entry.lastActive.Before(cutoff) {
			delete(s.flows, visitor)
			removed++
		}
	}
	return removed
}

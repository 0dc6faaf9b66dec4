package flow

import (
	"context"
	"errors"
	"sync"
	"time"

	"changekit/internal/models"

	"github.com/google/uuid"
)

// ErrHandoffNotFound is returned for unknown, expired or already taken handoffs
var ErrHandoffNotFound = errors.New("handoff not found")

// HandoffKind says which page a handoff is meant for
type HandoffKind string

const (
	HandoffFAQ    HandoffKind = "faq"
	HandoffReview HandoffKind = "review"
	HandoffGame   HandoffKind = "game"
	HandoffPlay   HandoffKind = "play"
)

// Handoff is a one-shot payload carried from one page to the next. It is
// a copy, consumed on first read.
type Handoff struct {
	Kind  HandoffKind  `json:"kind"`
	Owner string       `json:"owner"`
	Form  DraftForm    `json:"form"`
	Draft string       `json:"draft,omitempty"`
	Game  *models.Game `json:"game,omitempty"`
}

// HandoffStore keeps handoffs between two requests
type HandoffStore interface {
	// Put stores a handoff and returns its token
	Put(ctx context.Context, h Handoff) (string, error)
	// Take returns and deletes a handoff
	Take(ctx context.Context, token string) (*Handoff, error)
}

type memoryEntry struct {
	handoff   Handoff
	expiresAt time.Time
}

// MemoryHandoffStore keeps handoffs in process memory
type MemoryHandoffStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryHandoffStore creates an in-memory store whose handoffs expire after ttl
func NewMemoryHandoffStore(ttl time.Duration) *MemoryHandoffStore {
	return &MemoryHandoffStore{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryHandoffStore) Put(ctx context.Context, h Handoff) (string, error) {
	token := uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = memoryEntry{handoff: h, expiresAt: s.now().Add(s.ttl)}
	return token, nil
}

func (s *MemoryHandoffStore) Take(ctx context.Context, token string) (*Handoff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[token]
	if !ok {
		return nil, ErrHandoffNotFound
	}
	delete(s.entries, token)
	if s.now().After(entry.expiresAt) {
		return nil, ErrHandoffNotFound
	}
	h := entry.handoff
	return &h, nil
}

// Sweep drops expired handoffs and returns how many it removed
func (s *MemoryHandoffStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for token, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, token)
			removed++
		}
	}
	return removed
}

package game

import (
	"sync"
	"time"
)

// Registry holds the live sessions of the web server keyed by session id
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Controller
	now      func() time.Time
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Controller),
		now:      time.Now,
	}
}

// Add registers a loaded controller and returns its session id
func (r *Registry) Add(c *Controller) string {
	id := c.SessionID()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = c
	return id
}

// Get looks up a session
func (r *Registry) Get(id string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.sessions[id]
	return c, ok
}

// Remove closes and forgets a session
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	c, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		c.Close()
	}
}

// Sweep closes sessions idle for longer than maxIdle and returns how many it removed
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	var expired []*Controller
	for id, c := range r.sessions {
		if c.LastActive().Before(cutoff) {
			expired = append(expired, c)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, c := range expired {
		c.Close()
	}
	return len(expired)
}

// Len is the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// CloseAll closes every session, used on shutdown
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Controller)
	r.mu.Unlock()

	for _, c := range sessions {
		c.Close()
	}
}

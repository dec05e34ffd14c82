package cache

import (
	"sort"
	"sync"

	"github.com/gymjs/muscle-selector/internal/session"
)

// SessionCache maps session ids to live editor sessions.
type SessionCache struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
}

func NewSessionCache() *SessionCache {
	return &SessionCache{
		sessions: make(map[string]*session.Session),
	}
}

// Get retrieves a session by id
func (c *SessionCache) Get(id string) (*session.Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sessions[id]
	return s, ok
}

// Lookup is Get with session.ErrUnknownSession for missing ids.
func (c *SessionCache) Lookup(id string) (*session.Session, error) {
	if s, ok := c.Get(id); ok {
		return s, nil
	}
	return nil, session.ErrUnknownSession
}

// Add stores s under its own id
func (c *SessionCache) Add(s *session.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[s.ID()] = s
}

// Delete removes a session and reports whether it existed
func (c *SessionCache) Delete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.sessions[id]
	delete(c.sessions, id)
	return ok
}

func (c *SessionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

// IDs returns the registered ids in sorted order
func (c *SessionCache) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.sessions))
	for id := range c.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c *SessionCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions = make(map[string]*session.Session)
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}

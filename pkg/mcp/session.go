package mcp

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionState is the lifecycle state of an HTTP session.
type SessionState int

const (
	SessionCreated SessionState = iota
	SessionActive
	SessionExpired
	SessionTerminated
)

// Session is one HTTP-transport-level client handle, keyed by an opaque
// Mcp-Session-Id. Expiration is computed lazily from LastActivity rather
// than pushed eagerly, per spec.md §4.2.
type Session struct {
	ID         string
	CreatedAt  time.Time
	LastActivity time.Time
	ClientInfo *ClientInfo
	State      SessionState
	data       map[string]interface{}
}

// IsExpired reports whether the session has been idle longer than timeout.
func (s *Session) IsExpired(timeout time.Duration) bool {
	return time.Since(s.LastActivity) > timeout
}

func (s *Session) GetData(key string) (interface{}, bool) {
	v, ok := s.data[key]
	return v, ok
}

func (s *Session) SetData(key string, value interface{}) {
	if s.data == nil {
		s.data = make(map[string]interface{})
	}
	s.data[key] = value
}

// SessionStore holds every live session behind a single-writer/many-reader
// lock: list/lookup (reads) vastly outnumber create/touch/remove (writes).
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	timeout  time.Duration

	stopCleanup chan struct{}
}

// NewSessionStore constructs a store and starts its background cleanup
// loop, which runs cleanup_expired every 60 seconds per spec.md §4.2.
func NewSessionStore(timeout time.Duration) *SessionStore {
	s := &SessionStore{
		sessions:    make(map[string]*Session),
		timeout:     timeout,
		stopCleanup: make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Create mints a new session with a UUIDv4 id.
func (s *SessionStore) Create() *Session {
	now := time.Now()
	sess := &Session{
		ID:           uuid.New().String(),
		CreatedAt:    now,
		LastActivity: now,
		State:        SessionCreated,
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	count := len(s.sessions)
	s.mu.Unlock()
	SetActiveSessions(count)
	return sess
}

// Get looks up a session by id. A caller for whom freshness matters must
// check IsExpired itself: expiration is computed on read, not pushed.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Touch updates a session's LastActivity and marks it Active.
func (s *SessionStore) Touch(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	sess.LastActivity = time.Now()
	sess.State = SessionActive
	return true
}

// Remove deletes a session, returning whether it existed.
func (s *SessionStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	SetActiveSessions(len(s.sessions))
	return true
}

// Count returns the number of tracked sessions, expired or not.
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// CleanupExpired removes every session idle longer than the store's
// timeout and returns how many were removed.
func (s *SessionStore) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.IsExpired(s.timeout) {
			delete(s.sessions, id)
			removed++
		}
	}
	SetActiveSessions(len(s.sessions))
	return removed
}

func (s *SessionStore) cleanupLoop() {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.CleanupExpired()
		case <-s.stopCleanup:
			return
		}
	}
}

// Stop halts the background cleanup loop and clears all sessions.
func (s *SessionStore) Stop() {
	close(s.stopCleanup)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]*Session)
}

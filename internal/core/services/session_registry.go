package services

import "sync"

// SessionRegistry is the keyed collection of active sessions. Ids are unique
// and removed exactly once; a removed id is never resurrected because ids are
// never reused.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*StreamSession
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*StreamSession),
	}
}

// Add registers a session under its id.
func (r *SessionRegistry) Add(session *StreamSession) {
	r.mu.Lock()
	r.sessions[session.ID()] = session
	r.mu.Unlock()
}

// Get returns the session for the id, if registered.
func (r *SessionRegistry) Get(id string) (*StreamSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	return session, ok
}

// Remove unregisters and returns the session for the id. The second call for
// the same id reports false.
func (r *SessionRegistry) Remove(id string) (*StreamSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	return session, ok
}

// IDs snapshots the currently registered ids.
func (r *SessionRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of active sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

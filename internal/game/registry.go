package game

import (
	"sort"
	"sync"
)

// Registry is the only owner of the live session collection.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	limit    int
}

// NewRegistry caps the number of live sessions at limit; limit <= 0 means no
// cap.
func NewRegistry(limit int) *Registry {
	return &Registry{sessions: make(map[string]*Session), limit: limit}
}

func (r *Registry) Create(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.ID]; ok {
		return ErrSessionExists
	}
	if r.limit > 0 && len(r.sessions) >= r.limit {
		return ErrTooManySessions
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

package session

import (
	"sync"

	"github.com/google/uuid"
)

type scope struct {
	learnerID    int64
	collectionID int64
}

// Registry keeps at most one session per (learner, collection).
type Registry struct {
	mu       sync.Mutex
	sessions map[scope]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[scope]*Session)}
}

// Get returns the session registered for the learner and collection.
func (r *Registry) Get(learnerID, collectionID int64) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[scope{learnerID, collectionID}]
	return s, ok
}

// GetOrCreate returns the registered session, or registers the one built by create.
// create runs under the registry lock so two callers never both create.
func (r *Registry) GetOrCreate(learnerID, collectionID int64, create func() (*Session, error)) (*Session, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := scope{learnerID, collectionID}
	if s, ok := r.sessions[key]; ok {
		return s, false, nil
	}

	s, err := create()
	if err != nil {
		return nil, false, err
	}
	r.sessions[key] = s
	return s, true, nil
}

// Remove drops the session for the learner and collection if it is the given one.
func (r *Registry) Remove(learnerID, collectionID int64, id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := scope{learnerID, collectionID}
	if s, ok := r.sessions[key]; ok && s.ID() == id {
		delete(r.sessions, key)
	}
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

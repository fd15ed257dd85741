package memory

import (
	"sync"

	"bondrizz-funnel/internal/app"
)

// FlowRegistry is an in-memory implementation of app.SessionRepository.
type FlowRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewFlowRegistry() *FlowRegistry {
	return &FlowRegistry{
		sessions: make(map[string]*app.Session),
	}
}

func (r *FlowRegistry) Put(session *app.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID()] = session
}

func (r *FlowRegistry) Get(sessionID string) (*app.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[sessionID]
	return session, ok
}

func (r *FlowRegistry) Delete(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// Len reports the number of live sessions.
func (r *FlowRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

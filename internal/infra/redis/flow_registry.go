package redis

import (
	"context"
	"sync"
	"time"

	"bondrizz-funnel/internal/app"
	"github.com/redis/go-redis/v9"
)

// FlowRegistry is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Flows hold in-process state (timers, mutexes), so the sessions
//     themselves stay in a local map.
//   - Redis carries a liveness marker per session so other instances and
//     operators can count live funnels.
type FlowRegistry struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewFlowRegistry(client *redis.Client, ttl time.Duration) *FlowRegistry {
	return &FlowRegistry{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (r *FlowRegistry) Put(session *app.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID()] = session
	// best-effort liveness marker
	_ = r.client.Set(context.Background(), r.key(session.ID()), session.CreatedAt().Unix(), r.ttl).Err()
}

func (r *FlowRegistry) Get(sessionID string) (*app.Session, bool) {
	r.mu.RLock()
	session, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if ok && r.ttl > 0 {
		_ = r.client.Expire(context.Background(), r.key(sessionID), r.ttl).Err()
	}
	return session, ok
}

func (r *FlowRegistry) Delete(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	_ = r.client.Del(context.Background(), r.key(sessionID)).Err()
}

func (r *FlowRegistry) key(sessionID string) string {
	return "funnel:flow:" + sessionID
}

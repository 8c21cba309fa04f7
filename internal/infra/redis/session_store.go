package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"sales-competency-service/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Answers stay in the local session so scoring needs no round trip.
//   - Redis marks which attempts are live (and when their deadline is), so other
//     instances and operators can see in-flight attempts.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = session

	ttl := s.ttl
	if deadline := session.Deadline(); !deadline.IsZero() {
		if untilDeadline := time.Until(deadline); untilDeadline > ttl {
			ttl = untilDeadline
		}
	}
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(session.ID()), deadlineValue(session), ttl).Err()
}

func (s *SessionStore) Get(attemptID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[attemptID]
	return session, ok
}

func (s *SessionStore) Delete(attemptID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[attemptID]; !ok {
		return
	}
	delete(s.sessions, attemptID)
	_ = s.client.Del(context.Background(), s.key(attemptID)).Err()
}

func (s *SessionStore) key(attemptID string) string {
	return "attempt:session:" + attemptID
}

func deadlineValue(session *app.Session) string {
	if session.Deadline().IsZero() {
		return "untimed"
	}
	return session.Deadline().UTC().Format(time.RFC3339)
}

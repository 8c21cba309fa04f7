package memory

import (
	"context"
	"sync"

	"sales-competency-service/internal/domain"
)

// AttemptStore is the durable side of attempt persistence (Postgres in production).
type AttemptStore interface {
	InsertAttempt(ctx context.Context, attempt domain.Attempt) error
	LoadAttempt(ctx context.Context, attemptID string) (domain.Attempt, error)
}

// StaticAttemptStore keeps attempts in a map (useful for tests/demos and when no database is configured).
type StaticAttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]domain.Attempt
}

func NewStaticAttemptStore() *StaticAttemptStore {
	return &StaticAttemptStore{attempts: make(map[string]domain.Attempt)}
}

func (s *StaticAttemptStore) InsertAttempt(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attempts[attempt.ID]; ok {
		return domain.ErrAttemptExists
	}
	s.attempts[attempt.ID] = attempt
	return nil
}

func (s *StaticAttemptStore) LoadAttempt(_ context.Context, attemptID string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if attempt, ok := s.attempts[attemptID]; ok {
		return attempt, nil
	}
	return domain.Attempt{}, domain.ErrAttemptNotFound
}

package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"sales-competency-service/internal/domain"
)

// AttemptStore is the durable side of attempt persistence (e.g., Postgres).
type AttemptStore interface {
	InsertAttempt(ctx context.Context, attempt domain.Attempt) error
	LoadAttempt(ctx context.Context, attemptID string) (domain.Attempt, error)
}

// AttemptRepository caches attempts in Redis and falls back to the store on a miss.
// Attempts are stored as JSON under: attempt:{attemptID}
type AttemptRepository struct {
	client *redis.Client
	store  AttemptStore
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewAttemptRepository(client *redis.Client, store AttemptStore, ttl time.Duration) *AttemptRepository {
	return &AttemptRepository{
		client: client,
		store:  store,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SaveAttempt writes through to the store, then caches the attempt.
func (r *AttemptRepository) SaveAttempt(ctx context.Context, attempt domain.Attempt) error {
	if err := r.store.InsertAttempt(ctx, attempt); err != nil {
		return err
	}
	r.cache(ctx, attempt)
	return nil
}

func (r *AttemptRepository) GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	if attempt, ok := r.cached(ctx, attemptID); ok {
		return attempt, nil
	}

	result, err, _ := r.sf.Do(attemptID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if attempt, ok := r.cached(ctx, attemptID); ok {
			return attempt, nil
		}
		attempt, err := r.store.LoadAttempt(ctx, attemptID)
		if err != nil {
			return domain.Attempt{}, err
		}
		r.cache(ctx, attempt)
		return attempt, nil
	})
	if err != nil {
		return domain.Attempt{}, err
	}
	return result.(domain.Attempt), nil
}

func (r *AttemptRepository) cached(ctx context.Context, attemptID string) (domain.Attempt, bool) {
	raw, err := r.client.Get(ctx, r.key(attemptID)).Bytes()
	if err != nil {
		return domain.Attempt{}, false
	}
	var attempt domain.Attempt
	if err := json.Unmarshal(raw, &attempt); err != nil {
		slog.Warn("discarding unreadable cached attempt", "attempt", attemptID, "error", err)
		return domain.Attempt{}, false
	}
	return attempt, true
}

func (r *AttemptRepository) cache(ctx context.Context, attempt domain.Attempt) {
	ttl := r.ttlWithJitter()
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(attempt)
	if err != nil {
		slog.Warn("attempt not cached", "attempt", attempt.ID, "error", fmt.Errorf("marshal: %w", err))
		return
	}
	// best-effort; the store stays the source of truth
	_ = r.client.Set(ctx, r.key(attempt.ID), data, ttl).Err()
}

func (r *AttemptRepository) key(attemptID string) string {
	return "attempt:" + attemptID
}

func (r *AttemptRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

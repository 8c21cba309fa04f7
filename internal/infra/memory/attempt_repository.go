package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"sales-competency-service/internal/domain"
)

// AttemptRepository caches attempts with TTL so report pages do not hit the store on every render.
type AttemptRepository struct {
	store AttemptStore
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand
	rndMu sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedAttempt
}

type cachedAttempt struct {
	attempt   domain.Attempt
	expiresAt time.Time
}

func NewAttemptRepository(store AttemptStore, ttl time.Duration) *AttemptRepository {
	return &AttemptRepository{
		store: store,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]cachedAttempt),
	}
}

// SaveAttempt writes through to the store, then primes the cache.
func (r *AttemptRepository) SaveAttempt(ctx context.Context, attempt domain.Attempt) error {
	if err := r.store.InsertAttempt(ctx, attempt); err != nil {
		return err
	}
	r.put(attempt)
	return nil
}

func (r *AttemptRepository) GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	if attempt, ok := r.cached(attemptID); ok {
		return attempt, nil
	}

	result, err, _ := r.sf.Do(attemptID, func() (interface{}, error) {
		if attempt, ok := r.cached(attemptID); ok {
			return attempt, nil
		}
		attempt, err := r.store.LoadAttempt(ctx, attemptID)
		if err != nil {
			return domain.Attempt{}, err
		}
		r.put(attempt)
		return attempt, nil
	})
	if err != nil {
		return domain.Attempt{}, err
	}
	return result.(domain.Attempt), nil
}

func (r *AttemptRepository) cached(attemptID string) (domain.Attempt, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.cache[attemptID]; ok && entry.expiresAt.After(now) {
		return entry.attempt, true
	}
	return domain.Attempt{}, false
}

func (r *AttemptRepository) put(attempt domain.Attempt) {
	ttl := r.ttlWithJitter()
	if ttl <= 0 {
		return
	}
	r.mu.Lock()
	r.cache[attempt.ID] = cachedAttempt{attempt: attempt, expiresAt: r.clock().Add(ttl)}
	r.mu.Unlock()
}

func (r *AttemptRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"sales-competency-service/internal/domain"
	"sales-competency-service/internal/infra/memory"
)

func TestAttemptRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := &countingStore{AttemptStore: memory.NewStaticAttemptStore()}
	if err := store.InsertAttempt(context.Background(), sampleAttempt()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	repo := NewAttemptRepository(newClient(mr), store, time.Minute)

	got, err := repo.GetAttempt(context.Background(), "attempt-1")
	if err != nil {
		t.Fatalf("get attempt: %v", err)
	}
	if store.loads != 1 {
		t.Fatalf("expected store called once, got %d", store.loads)
	}
	if !mr.Exists("attempt:attempt-1") {
		t.Fatalf("expected attempt cached in redis")
	}

	// Second call should hit cache, store not incremented.
	again, _ := repo.GetAttempt(context.Background(), "attempt-1")
	if store.loads != 1 {
		t.Fatalf("expected cache hit, store loads=%d", store.loads)
	}
	if again.Result.TotalPercentage != got.Result.TotalPercentage || again.Result.CompetencyResults[0].Tier != domain.TierStrength {
		t.Fatalf("cached attempt differs: %+v", again)
	}
}

func TestAttemptRepositorySaveWritesThrough(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := &countingStore{AttemptStore: memory.NewStaticAttemptStore()}
	repo := NewAttemptRepository(newClient(mr), store, time.Minute)

	if err := repo.SaveAttempt(context.Background(), sampleAttempt()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.AttemptStore.LoadAttempt(context.Background(), "attempt-1"); err != nil {
		t.Fatalf("expected attempt in store: %v", err)
	}
	if ttl := mr.TTL("attempt:attempt-1"); ttl < time.Minute || ttl > time.Minute+6*time.Second {
		t.Fatalf("unexpected cache ttl %v", ttl)
	}
	if err := repo.SaveAttempt(context.Background(), sampleAttempt()); !errors.Is(err, domain.ErrAttemptExists) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestAttemptRepositoryIgnoresCorruptCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := &countingStore{AttemptStore: memory.NewStaticAttemptStore()}
	_ = store.InsertAttempt(context.Background(), sampleAttempt())
	if err := mr.Set("attempt:attempt-1", "{not json"); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	repo := NewAttemptRepository(newClient(mr), store, time.Minute)

	if _, err := repo.GetAttempt(context.Background(), "attempt-1"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if store.loads != 1 {
		t.Fatalf("expected fallback to store, loads=%d", store.loads)
	}
}

func TestAttemptRepositoryZeroTTLSkipsCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := &countingStore{AttemptStore: memory.NewStaticAttemptStore()}
	repo := NewAttemptRepository(newClient(mr), store, 0)

	if err := repo.SaveAttempt(context.Background(), sampleAttempt()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if mr.Exists("attempt:attempt-1") {
		t.Fatalf("expected no cache entry with a zero ttl")
	}
	for i := 0; i < 2; i++ {
		if _, err := repo.GetAttempt(context.Background(), "attempt-1"); err != nil {
			t.Fatalf("get attempt: %v", err)
		}
	}
	if store.loads != 2 {
		t.Fatalf("expected every read to reach the store, got %d loads", store.loads)
	}
}

type countingStore struct {
	memory.AttemptStore
	loads int
}

func (s *countingStore) LoadAttempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	s.loads++
	return s.AttemptStore.LoadAttempt(ctx, attemptID)
}

func sampleAttempt() domain.Attempt {
	return domain.Attempt{
		ID:           "attempt-1",
		RespondentID: "r1",
		Language:     domain.LanguageArabic,
		Answers: []domain.Answer{
			{QuestionID: "q1", CompetencyID: "mental_toughness", SelectedScore: 5},
		},
		Result: domain.AttemptResult{
			CompetencyResults: []domain.CompetencyResult{
				{CompetencyID: "mental_toughness", Score: 20, MaxScore: 25, Percentage: 80, Tier: domain.TierStrength},
			},
			TotalPercentage: 80,
			Tier:            domain.TierStrength,
		},
		SubmittedAt: time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC),
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}

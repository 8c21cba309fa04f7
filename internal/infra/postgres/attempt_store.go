package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"sales-competency-service/internal/domain"
)

// AttemptStore persists attempts as JSONB rows. The total percentage also lives in its
// own nullable column; rows written before it existed load with a total of -1.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) InsertAttempt(ctx context.Context, attempt domain.Attempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO attempts (id, respondent_id, language, total_percentage, data, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO NOTHING`,
		attempt.ID, attempt.RespondentID, string(attempt.Language), attempt.Result.TotalPercentage, data, attempt.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAttemptExists
	}
	return nil
}

func (s *AttemptStore) LoadAttempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	var (
		raw   []byte
		total *int32
	)
	err := s.pool.QueryRow(ctx, `SELECT data, total_percentage FROM attempts WHERE id=$1`, attemptID).Scan(&raw, &total)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("load attempt: %w", err)
	}
	var attempt domain.Attempt
	if err := json.Unmarshal(raw, &attempt); err != nil {
		return domain.Attempt{}, fmt.Errorf("unmarshal attempt: %w", err)
	}
	if total == nil {
		attempt.Result.TotalPercentage = -1
	} else {
		attempt.Result.TotalPercentage = int(*total)
	}
	return attempt, nil
}

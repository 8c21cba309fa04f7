package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"sales-competency-service/internal/competency"
	"sales-competency-service/internal/domain"
	"sales-competency-service/internal/recommendation"
	"sales-competency-service/internal/scoring"
)

// DefaultMaxRecommendations is how many recommendations a report shows per competency
// when neither the caller nor the configuration says otherwise.
const DefaultMaxRecommendations = 3

// SessionRepository abstracts where live attempt sessions are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(attemptID string) (*Session, bool)
	Delete(attemptID string)
}

// AttemptRepository persists submitted attempts (through a cache, Postgres, etc).
type AttemptRepository interface {
	SaveAttempt(ctx context.Context, attempt domain.Attempt) error
	GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error)
}

// Options tunes an AssessmentService; zero values pick sensible defaults.
type Options struct {
	TimeLimit          time.Duration
	MaxRecommendations int
	Clock              func() time.Time
	NewID              func() string
	Logger             *slog.Logger
}

// AssessmentService contains the assessment use cases: live attempts, submission,
// retrieval and reporting.
type AssessmentService struct {
	sessions  SessionRepository
	attempts  AttemptRepository
	engine    *scoring.Engine
	resolver  *recommendation.Resolver
	timeLimit time.Duration
	maxRecs   int
	now       func() time.Time
	newID     func() string
	logger    *slog.Logger
}

func NewAssessmentService(sessions SessionRepository, attempts AttemptRepository, engine *scoring.Engine, resolver *recommendation.Resolver, opts Options) *AssessmentService {
	s := &AssessmentService{
		sessions:  sessions,
		attempts:  attempts,
		engine:    engine,
		resolver:  resolver,
		timeLimit: opts.TimeLimit,
		maxRecs:   opts.MaxRecommendations,
		now:       opts.Clock,
		newID:     opts.NewID,
		logger:    opts.Logger,
	}
	if s.maxRecs <= 0 {
		s.maxRecs = DefaultMaxRecommendations
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Start opens a live attempt for a respondent.
func (s *AssessmentService) Start(_ context.Context, respondentID string, lang domain.Language) (*Session, error) {
	if err := checkRespondent(respondentID, lang); err != nil {
		return nil, err
	}
	var deadline time.Time
	if s.timeLimit > 0 {
		deadline = s.now().Add(s.timeLimit)
	}
	session := NewSession(s.newID(), respondentID, lang, deadline, s.now)
	s.sessions.Put(session)
	s.logger.Info("attempt started", "attempt", session.ID(), "respondent", respondentID, "deadline", deadline)
	return session, nil
}

// RecordAnswer buffers an answer on a live attempt and returns the number of answered questions.
func (s *AssessmentService) RecordAnswer(_ context.Context, attemptID string, answer domain.Answer) (int, error) {
	if strings.TrimSpace(answer.QuestionID) == "" {
		return 0, fmt.Errorf("%w: answer without question id", domain.ErrInvalidArgument)
	}
	session, ok := s.sessions.Get(attemptID)
	if !ok {
		return 0, domain.ErrSessionNotFound
	}
	return session.record(answer)
}

// Submit scores a live attempt and persists it. Submitting after the deadline still
// scores: unanswered questions simply earn nothing.
func (s *AssessmentService) Submit(ctx context.Context, attemptID string) (domain.Attempt, error) {
	session, ok := s.sessions.Get(attemptID)
	if !ok {
		return domain.Attempt{}, domain.ErrSessionNotFound
	}
	answers, timedOut, err := session.close()
	if err != nil {
		return domain.Attempt{}, err
	}

	attempt, err := s.finish(ctx, domain.Attempt{
		ID:           session.id,
		RespondentID: session.respondentID,
		Language:     session.lang,
		Answers:      answers,
		TimedOut:     timedOut,
		StartedAt:    session.startedAt,
	})
	if err != nil {
		// keep the session so the submission can be retried
		session.reopen()
		return domain.Attempt{}, err
	}
	s.sessions.Delete(attemptID)
	return attempt, nil
}

// Abandon discards a live attempt without scoring it.
func (s *AssessmentService) Abandon(_ context.Context, attemptID string) {
	if _, ok := s.sessions.Get(attemptID); !ok {
		return
	}
	s.sessions.Delete(attemptID)
	s.logger.Info("attempt discarded", "attempt", attemptID)
}

// SubmitAnswers scores and persists a complete answer list in one call.
func (s *AssessmentService) SubmitAnswers(ctx context.Context, respondentID string, lang domain.Language, answers []domain.Answer) (domain.Attempt, error) {
	if err := checkRespondent(respondentID, lang); err != nil {
		return domain.Attempt{}, err
	}
	deduped, err := dedupe(answers)
	if err != nil {
		return domain.Attempt{}, err
	}
	now := s.now()
	return s.finish(ctx, domain.Attempt{
		ID:           s.newID(),
		RespondentID: respondentID,
		Language:     lang,
		Answers:      deduped,
		StartedAt:    now,
	})
}

func (s *AssessmentService) finish(ctx context.Context, attempt domain.Attempt) (domain.Attempt, error) {
	attempt.Result = s.engine.Score(attempt.Answers)
	attempt.SubmittedAt = s.now()
	if err := s.attempts.SaveAttempt(ctx, attempt); err != nil {
		return domain.Attempt{}, fmt.Errorf("save attempt %s: %w", attempt.ID, err)
	}
	s.logger.Info("attempt scored",
		"attempt", attempt.ID,
		"respondent", attempt.RespondentID,
		"competencies", len(attempt.Result.CompetencyResults),
		"total", attempt.Result.TotalPercentage,
		"timedOut", attempt.TimedOut,
	)
	return attempt, nil
}

// GetAttempt loads a stored attempt, repairing results written by older versions.
func (s *AssessmentService) GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	attempt, err := s.attempts.GetAttempt(ctx, attemptID)
	if err != nil {
		return domain.Attempt{}, err
	}
	attempt.Result = s.engine.Reconstruct(attempt.Result)
	return attempt, nil
}

// Report renders an attempt for lang, keeping at most limit recommendations per
// competency (limit <= 0 uses the configured default).
func (s *AssessmentService) Report(ctx context.Context, attemptID string, lang domain.Language, limit int) (Report, error) {
	if !lang.Valid() {
		return Report{}, fmt.Errorf("%w: unsupported language %q", domain.ErrInvalidArgument, lang)
	}
	if limit <= 0 {
		limit = s.maxRecs
	}
	attempt, err := s.GetAttempt(ctx, attemptID)
	if err != nil {
		return Report{}, err
	}

	result := attempt.Result
	overall, err := s.resolver.Generic(result.Tier, lang)
	if err != nil {
		return Report{}, err
	}
	report := Report{
		AttemptID:       attempt.ID,
		RespondentID:    attempt.RespondentID,
		Language:        lang,
		TotalPercentage: result.TotalPercentage,
		Tier:            result.Tier,
		Recommendations: truncate(overall, limit),
		Competencies:    make([]CompetencyReport, 0, len(result.CompetencyResults)),
		Summary:         make(map[domain.Tier][]string, len(domain.Tiers)),
		TimedOut:        attempt.TimedOut,
		SubmittedAt:     attempt.SubmittedAt,
	}
	for _, tier := range domain.Tiers {
		report.Summary[tier] = []string{}
	}

	for _, r := range result.CompetencyResults {
		recs, err := s.resolver.Recommendations(r.CompetencyID, r.Tier, lang)
		if err != nil {
			return Report{}, err
		}
		cfg, _ := s.engine.Config(r.CompetencyID)
		report.Competencies = append(report.Competencies, CompetencyReport{
			CompetencyID:    r.CompetencyID,
			Name:            competency.DisplayName(r.CompetencyID, lang, cfg.Names),
			Score:           r.Score,
			MaxScore:        r.MaxScore,
			Percentage:      r.Percentage,
			Tier:            r.Tier,
			Recommendations: truncate(recs, limit),
		})
		report.Summary[r.Tier] = append(report.Summary[r.Tier], r.CompetencyID)
	}
	return report, nil
}

// Recommendations exposes the resolver to transports.
func (s *AssessmentService) Recommendations(competencyID string, tier domain.Tier, lang domain.Language) ([]string, error) {
	return s.resolver.Recommendations(competencyID, tier, lang)
}

func checkRespondent(respondentID string, lang domain.Language) error {
	if strings.TrimSpace(respondentID) == "" {
		return fmt.Errorf("%w: respondent id is required", domain.ErrInvalidArgument)
	}
	if !lang.Valid() {
		return fmt.Errorf("%w: unsupported language %q", domain.ErrInvalidArgument, lang)
	}
	return nil
}

// dedupe keeps the last answer per question at the position the question first appeared.
func dedupe(answers []domain.Answer) ([]domain.Answer, error) {
	out := make([]domain.Answer, 0, len(answers))
	index := make(map[string]int, len(answers))
	for _, a := range answers {
		if strings.TrimSpace(a.QuestionID) == "" {
			return nil, fmt.Errorf("%w: answer without question id", domain.ErrInvalidArgument)
		}
		if i, ok := index[a.QuestionID]; ok {
			out[i] = a
			continue
		}
		index[a.QuestionID] = len(out)
		out = append(out, a)
	}
	return out, nil
}

func truncate(list []string, limit int) []string {
	if len(list) > limit {
		return list[:limit]
	}
	return list
}

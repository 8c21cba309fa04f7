package app

import (
	"sync"
	"time"

	"sales-competency-service/internal/domain"
)

// Session buffers the answers of a live, possibly timed, attempt until submission.
type Session struct {
	id           string
	respondentID string
	lang         domain.Language
	startedAt    time.Time
	deadline     time.Time
	now          func() time.Time

	mu        sync.Mutex
	answers   []domain.Answer
	index     map[string]int
	submitted bool
}

// NewSession is exported for infrastructure layers that need to seed sessions.
// A zero deadline means the attempt is untimed.
func NewSession(id, respondentID string, lang domain.Language, deadline time.Time, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	return &Session{
		id:           id,
		respondentID: respondentID,
		lang:         lang,
		startedAt:    now(),
		deadline:     deadline,
		now:          now,
		index:        make(map[string]int),
	}
}

// ID returns the attempt id the session will be persisted under.
func (s *Session) ID() string { return s.id }

// Deadline returns the submission deadline, zero when untimed.
func (s *Session) Deadline() time.Time { return s.deadline }

// Answered reports how many distinct questions have an answer.
func (s *Session) Answered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.answers)
}

func (s *Session) expiredLocked() bool {
	return !s.deadline.IsZero() && !s.now().Before(s.deadline)
}

// record stores an answer; a repeated question replaces the earlier answer in place.
func (s *Session) record(answer domain.Answer) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted {
		return 0, domain.ErrSessionNotFound
	}
	if s.expiredLocked() {
		return 0, domain.ErrSessionExpired
	}
	if i, ok := s.index[answer.QuestionID]; ok {
		s.answers[i] = answer
	} else {
		s.index[answer.QuestionID] = len(s.answers)
		s.answers = append(s.answers, answer)
	}
	return len(s.answers), nil
}

func (s *Session) reopen() {
	s.mu.Lock()
	s.submitted = false
	s.mu.Unlock()
}

// close freezes the session and hands back its answers. It succeeds once.
func (s *Session) close() ([]domain.Answer, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitted {
		return nil, false, domain.ErrSessionNotFound
	}
	s.submitted = true
	answers := make([]domain.Answer, len(s.answers))
	copy(answers, s.answers)
	return answers, s.expiredLocked(), nil
}

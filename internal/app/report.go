package app

import (
	"time"

	"sales-competency-service/internal/domain"
)

// Report is the language-specific view of an attempt consumed by rendering surfaces.
type Report struct {
	AttemptID       string                   `json:"attemptId"`
	RespondentID    string                   `json:"respondentId"`
	Language        domain.Language          `json:"language"`
	TotalPercentage int                      `json:"totalPercentage"`
	Tier            domain.Tier              `json:"tier"`
	Recommendations []string                 `json:"recommendations"`
	Competencies    []CompetencyReport       `json:"competencies"`
	Summary         map[domain.Tier][]string `json:"summary"`
	TimedOut        bool                     `json:"timedOut"`
	SubmittedAt     time.Time                `json:"submittedAt"`
}

// CompetencyReport is one competency row of a report.
type CompetencyReport struct {
	CompetencyID    string      `json:"competencyId"`
	Name            string      `json:"name"`
	Score           int         `json:"score"`
	MaxScore        int         `json:"maxScore"`
	Percentage      int         `json:"percentage"`
	Tier            domain.Tier `json:"tier"`
	Recommendations []string    `json:"recommendations"`
}

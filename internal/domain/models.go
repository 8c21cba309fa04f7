package domain

import (
	"fmt"
	"strings"
	"time"
)

// Tier is the classification band for a competency or a whole attempt.
type Tier string

const (
	TierStrength    Tier = "Strength"
	TierOpportunity Tier = "Opportunity"
	TierThreat      Tier = "Threat"
	TierWeakness    Tier = "Weakness"
)

// Tiers lists every tier from highest to lowest band.
var Tiers = []Tier{TierStrength, TierOpportunity, TierThreat, TierWeakness}

// Valid reports whether t is one of the four known tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierStrength, TierOpportunity, TierThreat, TierWeakness:
		return true
	}
	return false
}

// ParseTier accepts a tier name in any letter case.
func ParseTier(raw string) (Tier, error) {
	for _, t := range Tiers {
		if strings.EqualFold(strings.TrimSpace(raw), string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown tier %q", ErrInvalidArgument, raw)
}

// Language is a report/recommendation language.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"
)

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	return l == LanguageEnglish || l == LanguageArabic
}

// ParseLanguage only accepts "en" and "ar"; callers must not rely on a default.
func ParseLanguage(raw string) (Language, error) {
	l := Language(raw)
	if !l.Valid() {
		return "", fmt.Errorf("%w: unsupported language %q", ErrInvalidArgument, raw)
	}
	return l, nil
}

// UnansweredScore is the SelectedScore sentinel for a question left without an answer.
const UnansweredScore = -1

// Answer is one respondent choice for one question.
type Answer struct {
	QuestionID    string `json:"questionId"`
	CompetencyID  string `json:"competencyId"`
	SelectedScore int    `json:"selectedScore"`
}

// CompetencyConfig is the static budget for one competency.
type CompetencyConfig struct {
	MaxScore int
	Names    map[Language]string
}

// CompetencyResult is the aggregated outcome for one competency within an attempt.
type CompetencyResult struct {
	CompetencyID string `json:"competencyId"`
	Score        int    `json:"score"`
	MaxScore     int    `json:"maxScore"`
	Percentage   int    `json:"percentage"`
	Tier         Tier   `json:"tier"`
}

// AttemptResult is the whole-assessment outcome.
type AttemptResult struct {
	CompetencyResults []CompetencyResult `json:"competencyResults"`
	TotalPercentage   int                `json:"totalPercentage"`
	Tier              Tier               `json:"tier"`
}

// Attempt is the persisted record of one completed assessment run.
type Attempt struct {
	ID           string        `json:"id"`
	RespondentID string        `json:"respondentId"`
	Language     Language      `json:"language"`
	Answers      []Answer      `json:"answers"`
	Result       AttemptResult `json:"result"`
	TimedOut     bool          `json:"timedOut"`
	StartedAt    time.Time     `json:"startedAt"`
	SubmittedAt  time.Time     `json:"submittedAt"`
}

package scoring

import (
	"log/slog"
	"math"

	"sales-competency-service/internal/domain"
)

// Normalizer resolves raw competency ids to canonical keys.
type Normalizer interface {
	Normalize(raw string) string
}

// Engine turns answers into per-competency and overall scores. It holds only read-only
// tables and may be shared across goroutines.
type Engine struct {
	normalizer Normalizer
	table      map[string]domain.CompetencyConfig
	rank       map[string]int
	logger     *slog.Logger
}

// NewEngine copies table and order; keys of both are normalized on the way in.
func NewEngine(normalizer Normalizer, table map[string]domain.CompetencyConfig, order []string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		normalizer: normalizer,
		table:      make(map[string]domain.CompetencyConfig, len(table)),
		rank:       make(map[string]int, len(order)),
		logger:     logger,
	}
	for key, cfg := range table {
		e.table[normalizer.Normalize(key)] = cfg
	}
	for _, key := range order {
		key = normalizer.Normalize(key)
		if _, ok := e.rank[key]; !ok {
			e.rank[key] = len(e.rank)
		}
	}
	return e
}

// Config returns the budget entry for a competency id, normalizing it first.
func (e *Engine) Config(competencyID string) (domain.CompetencyConfig, bool) {
	cfg, ok := e.table[e.normalizer.Normalize(competencyID)]
	return cfg, ok
}

// Score aggregates answers per competency. Unanswered items earn zero; competencies
// without a positive budget are left out of the result.
func (e *Engine) Score(answers []domain.Answer) domain.AttemptResult {
	sums := make(map[string]int)
	var seen []string
	for _, answer := range answers {
		key := e.normalizer.Normalize(answer.CompetencyID)
		if _, ok := sums[key]; !ok {
			seen = append(seen, key)
		}
		sums[key] += credit(answer.SelectedScore)
	}

	results := make([]domain.CompetencyResult, 0, len(seen))
	var totalScore, totalMax int
	for _, key := range seen {
		cfg, ok := e.table[key]
		if !ok {
			e.logger.Warn("dropping competency without configuration", "competency", key)
			continue
		}
		if cfg.MaxScore <= 0 {
			e.logger.Warn("dropping competency with invalid max score", "competency", key, "maxScore", cfg.MaxScore)
			continue
		}
		pct := Percentage(sums[key], cfg.MaxScore)
		results = append(results, domain.CompetencyResult{
			CompetencyID: key,
			Score:        sums[key],
			MaxScore:     cfg.MaxScore,
			Percentage:   pct,
			Tier:         Classify(pct),
		})
		totalScore += sums[key]
		totalMax += cfg.MaxScore
	}

	total := 0
	if totalMax > 0 {
		total = Percentage(totalScore, totalMax)
	}
	return domain.AttemptResult{
		CompetencyResults: e.order(results),
		TotalPercentage:   total,
		Tier:              Classify(total),
	}
}

// Reconstruct repairs a stored result: ids are normalized, percentages clamped, missing
// tiers re-derived and the report order re-applied. A stored total outside [0,100] is
// replaced by the average of the competency percentages.
func (e *Engine) Reconstruct(stored domain.AttemptResult) domain.AttemptResult {
	results := make([]domain.CompetencyResult, 0, len(stored.CompetencyResults))
	sum := 0
	for _, r := range stored.CompetencyResults {
		r.CompetencyID = e.normalizer.Normalize(r.CompetencyID)
		r.Percentage = clampInt(r.Percentage)
		if !r.Tier.Valid() {
			r.Tier = Classify(r.Percentage)
		}
		sum += r.Percentage
		results = append(results, r)
	}

	total := stored.TotalPercentage
	if total < 0 || total > 100 {
		total = 0
		if len(results) > 0 {
			total = roundClamp(float64(sum) / float64(len(results)))
		}
	}
	tier := stored.Tier
	if !tier.Valid() {
		tier = Classify(total)
	}
	return domain.AttemptResult{
		CompetencyResults: e.order(results),
		TotalPercentage:   total,
		Tier:              tier,
	}
}

// order puts canonical competencies first in canonical order and keeps everything else
// in the order it was encountered.
func (e *Engine) order(results []domain.CompetencyResult) []domain.CompetencyResult {
	ordered := make([]domain.CompetencyResult, 0, len(results))
	byRank := make([]*domain.CompetencyResult, len(e.rank))
	var rest []domain.CompetencyResult
	for i := range results {
		if rank, ok := e.rank[results[i].CompetencyID]; ok && byRank[rank] == nil {
			byRank[rank] = &results[i]
			continue
		}
		rest = append(rest, results[i])
	}
	for _, r := range byRank {
		if r != nil {
			ordered = append(ordered, *r)
		}
	}
	return append(ordered, rest...)
}

func credit(selected int) int {
	if selected < 0 {
		return 0
	}
	return selected
}

func roundClamp(pct float64) int {
	if math.IsNaN(pct) || pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return int(math.Round(pct))
}

func clampInt(pct int) int {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

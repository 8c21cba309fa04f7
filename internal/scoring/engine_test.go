package scoring

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"sales-competency-service/internal/competency"
	"sales-competency-service/internal/domain"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	catalog := competency.Default()
	return NewEngine(catalog.Normalizer(), catalog.Table(), catalog.Order(), discardLogger())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func answers(competencyID string, scores ...int) []domain.Answer {
	out := make([]domain.Answer, 0, len(scores))
	for i, s := range scores {
		out = append(out, domain.Answer{
			QuestionID:    competencyID + "-" + string(rune('a'+i)),
			CompetencyID:  competencyID,
			SelectedScore: s,
		})
	}
	return out
}

func TestScoreFullMarks(t *testing.T) {
	engine := newTestEngine(t)

	result := engine.Score(answers("mental_toughness", 5, 5, 5, 5, 5))
	if len(result.CompetencyResults) != 1 {
		t.Fatalf("expected 1 result, got %+v", result.CompetencyResults)
	}
	got := result.CompetencyResults[0]
	if got.Score != 25 || got.MaxScore != 25 || got.Percentage != 100 || got.Tier != domain.TierStrength {
		t.Fatalf("unexpected full-marks result %+v", got)
	}
	if result.TotalPercentage != 100 || result.Tier != domain.TierStrength {
		t.Fatalf("unexpected total %d/%s", result.TotalPercentage, result.Tier)
	}
}

func TestScoreUnansweredEarnsZero(t *testing.T) {
	engine := newTestEngine(t)

	result := engine.Score(answers("mental_toughness", -1, -1, -1, -1, -1))
	got := result.CompetencyResults[0]
	if got.Score != 0 || got.Percentage != 0 || got.Tier != domain.TierWeakness {
		t.Fatalf("unexpected zero-marks result %+v", got)
	}

	mixed := engine.Score(answers("mental_toughness", 5, -1, 3))
	if mixed.CompetencyResults[0].Score != 8 {
		t.Fatalf("unanswered item should contribute 0, got score %d", mixed.CompetencyResults[0].Score)
	}
}

func TestScoreTierBoundaries(t *testing.T) {
	n := competency.NewNormalizer(nil)
	engine := NewEngine(n, map[string]domain.CompetencyConfig{"x": {MaxScore: 100}}, []string{"x"}, discardLogger())

	cases := []struct {
		score int
		tier  domain.Tier
	}{
		{100, domain.TierStrength},
		{75, domain.TierStrength},
		{74, domain.TierOpportunity},
		{50, domain.TierOpportunity},
		{49, domain.TierThreat},
		{30, domain.TierThreat},
		{29, domain.TierWeakness},
		{0, domain.TierWeakness},
	}
	for _, tc := range cases {
		result := engine.Score(answers("x", tc.score))
		got := result.CompetencyResults[0]
		if got.Percentage != tc.score || got.Tier != tc.tier {
			t.Fatalf("score %d: got %d/%s, want %d/%s", tc.score, got.Percentage, got.Tier, tc.score, tc.tier)
		}
	}
}

func TestScoreMonotonicAndBounded(t *testing.T) {
	engine := newTestEngine(t)
	rank := map[domain.Tier]int{
		domain.TierWeakness:    0,
		domain.TierThreat:      1,
		domain.TierOpportunity: 2,
		domain.TierStrength:    3,
	}

	prevPct, prevRank := -1, -1
	for score := 0; score <= 40; score++ {
		result := engine.Score(answers("mental_toughness", score))
		got := result.CompetencyResults[0]
		if got.Percentage < 0 || got.Percentage > 100 {
			t.Fatalf("score %d: percentage %d out of bounds", score, got.Percentage)
		}
		if result.TotalPercentage < 0 || result.TotalPercentage > 100 {
			t.Fatalf("score %d: total %d out of bounds", score, result.TotalPercentage)
		}
		if got.Percentage < prevPct {
			t.Fatalf("score %d: percentage decreased %d -> %d", score, prevPct, got.Percentage)
		}
		r := rank[got.Tier]
		if r < prevRank || r > prevRank+1 && prevRank >= 0 {
			t.Fatalf("score %d: tier jumped from rank %d to %d", score, prevRank, r)
		}
		prevPct, prevRank = got.Percentage, r
	}
}

func TestScoreDropsUnknownCompetency(t *testing.T) {
	var logs bytes.Buffer
	catalog := competency.Default()
	engine := NewEngine(catalog.Normalizer(), catalog.Table(), catalog.Order(), slog.New(slog.NewTextHandler(&logs, nil)))

	input := append(answers("mental_toughness", 5, 5), answers("totally_unknown_xyz", 5, 5)...)
	result := engine.Score(input)
	if len(result.CompetencyResults) != 1 {
		t.Fatalf("expected unknown competency to be dropped, got %+v", result.CompetencyResults)
	}
	if got := result.CompetencyResults[0]; got.CompetencyID != "mental_toughness" || got.Score != 10 {
		t.Fatalf("unknown competency affected known one: %+v", got)
	}
	if result.TotalPercentage != 40 {
		t.Fatalf("unknown competency leaked into total: %d", result.TotalPercentage)
	}
	out := logs.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "competency=totally_unknown_xyz") {
		t.Fatalf("expected a warning naming the dropped competency, got %q", out)
	}
	if strings.Contains(out, "competency=mental_toughness") {
		t.Fatalf("known competency should not be reported: %q", out)
	}
}

func TestScoreNormalizesAliases(t *testing.T) {
	engine := newTestEngine(t)

	input := []domain.Answer{
		{QuestionID: "q1", CompetencyID: "destroying_objections", SelectedScore: 5},
		{QuestionID: "q2", CompetencyID: "Handling Objections", SelectedScore: 5},
		{QuestionID: "q3", CompetencyID: "التعامل مع الاعتراضات", SelectedScore: 5},
	}
	result := engine.Score(input)
	if len(result.CompetencyResults) != 1 {
		t.Fatalf("aliases should merge, got %+v", result.CompetencyResults)
	}
	got := result.CompetencyResults[0]
	if got.CompetencyID != "handling_objections" || got.Score != 15 || got.Percentage != 75 || got.Tier != domain.TierStrength {
		t.Fatalf("unexpected merged result %+v", got)
	}
}

func TestScoreTotalIsWeightedByBudget(t *testing.T) {
	engine := newTestEngine(t)

	// 25/25 and 0/15: weighted 25/40 = 62.5%, unweighted mean would be 50%.
	input := append(answers("mental_toughness", 25), answers("opening_conversations", 0)...)
	result := engine.Score(input)
	if result.TotalPercentage != 63 {
		t.Fatalf("total = %d, want 63", result.TotalPercentage)
	}
	if result.Tier != domain.TierOpportunity {
		t.Fatalf("overall tier = %s, want Opportunity", result.Tier)
	}
}

func TestScoreEmpty(t *testing.T) {
	engine := newTestEngine(t)

	result := engine.Score(nil)
	if len(result.CompetencyResults) != 0 || result.TotalPercentage != 0 {
		t.Fatalf("unexpected empty result %+v", result)
	}
	if result.Tier != domain.TierWeakness {
		t.Fatalf("empty attempt tier = %s", result.Tier)
	}
}

func TestScoreExcludesInvalidBudget(t *testing.T) {
	n := competency.NewNormalizer(nil)
	table := map[string]domain.CompetencyConfig{
		"good": {MaxScore: 10},
		"zero": {MaxScore: 0},
		"neg":  {MaxScore: -5},
	}
	engine := NewEngine(n, table, []string{"good", "zero", "neg"}, discardLogger())

	input := append(answers("zero", 3), answers("good", 5)...)
	input = append(input, answers("neg", 1)...)
	result := engine.Score(input)
	if len(result.CompetencyResults) != 1 || result.CompetencyResults[0].CompetencyID != "good" {
		t.Fatalf("expected only the budgeted competency, got %+v", result.CompetencyResults)
	}
	if result.TotalPercentage != 50 {
		t.Fatalf("total = %d, want 50", result.TotalPercentage)
	}
}

func TestScoreOrdering(t *testing.T) {
	catalog := competency.Default()
	table := catalog.Table()
	table["zeta"] = domain.CompetencyConfig{MaxScore: 10}
	table["negotiation"] = domain.CompetencyConfig{MaxScore: 10}
	engine := NewEngine(catalog.Normalizer(), table, catalog.Order(), discardLogger())

	var input []domain.Answer
	input = append(input, answers("zeta", 1)...)
	input = append(input, answers("closing_deals", 1)...)
	input = append(input, answers("negotiation", 1)...)
	input = append(input, answers("mental_toughness", 1)...)

	result := engine.Score(input)
	want := []string{"mental_toughness", "closing_deals", "zeta", "negotiation"}
	if len(result.CompetencyResults) != len(want) {
		t.Fatalf("unexpected results %+v", result.CompetencyResults)
	}
	for i, key := range want {
		if result.CompetencyResults[i].CompetencyID != key {
			t.Fatalf("position %d = %s, want %s", i, result.CompetencyResults[i].CompetencyID, key)
		}
	}
}

func TestReconstructKeepsValidStoredTotal(t *testing.T) {
	engine := newTestEngine(t)

	stored := domain.AttemptResult{
		CompetencyResults: []domain.CompetencyResult{
			{CompetencyID: "closing", Score: 10, MaxScore: 20, Percentage: 50},
			{CompetencyID: "Mental Toughness", Score: 25, MaxScore: 25, Percentage: 100, Tier: domain.TierStrength},
		},
		TotalPercentage: 70,
	}
	result := engine.Reconstruct(stored)
	if result.TotalPercentage != 70 || result.Tier != domain.TierOpportunity {
		t.Fatalf("stored total should be kept, got %d/%s", result.TotalPercentage, result.Tier)
	}
	if result.CompetencyResults[0].CompetencyID != "mental_toughness" || result.CompetencyResults[1].CompetencyID != "closing_deals" {
		t.Fatalf("unexpected order %+v", result.CompetencyResults)
	}
	if result.CompetencyResults[1].Tier != domain.TierOpportunity {
		t.Fatalf("missing tier not re-derived: %+v", result.CompetencyResults[1])
	}
}

func TestReconstructAveragesWhenTotalMissing(t *testing.T) {
	engine := newTestEngine(t)

	stored := domain.AttemptResult{
		CompetencyResults: []domain.CompetencyResult{
			{CompetencyID: "mental_toughness", Percentage: 100},
			{CompetencyID: "opening_conversations", Percentage: 0},
			{CompetencyID: "follow_up", Percentage: 150},
		},
		TotalPercentage: -1,
	}
	result := engine.Reconstruct(stored)
	// (100 + 0 + 100) / 3 = 66.67
	if result.TotalPercentage != 67 {
		t.Fatalf("total = %d, want 67", result.TotalPercentage)
	}
	if result.CompetencyResults[2].Percentage != 100 {
		t.Fatalf("stored percentage not clamped: %+v", result.CompetencyResults[2])
	}

	empty := engine.Reconstruct(domain.AttemptResult{TotalPercentage: -1})
	if empty.TotalPercentage != 0 || empty.Tier != domain.TierWeakness {
		t.Fatalf("unexpected empty reconstruction %+v", empty)
	}
}

func TestPercentageGuardsBudget(t *testing.T) {
	if got := Percentage(5, 0); got != 0 {
		t.Fatalf("Percentage with zero budget = %d", got)
	}
	if got := Percentage(30, 20); got != 100 {
		t.Fatalf("Percentage above budget = %d", got)
	}
	if got := Percentage(-5, 20); got != 0 {
		t.Fatalf("Percentage below zero = %d", got)
	}
}

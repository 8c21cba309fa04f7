package scoring

import "sales-competency-service/internal/domain"

// Lower bounds (inclusive) of each tier band.
const (
	StrengthThreshold    = 75
	OpportunityThreshold = 50
	ThreatThreshold      = 30
)

// Classify maps a percentage onto its tier. Bands rise Weakness -> Threat -> Opportunity -> Strength.
func Classify(percentage int) domain.Tier {
	switch {
	case percentage >= StrengthThreshold:
		return domain.TierStrength
	case percentage >= OpportunityThreshold:
		return domain.TierOpportunity
	case percentage >= ThreatThreshold:
		return domain.TierThreat
	default:
		return domain.TierWeakness
	}
}

// Percentage returns round(clamp(score/max*100, 0, 100)); a non-positive max yields 0.
func Percentage(score, maxScore int) int {
	if maxScore <= 0 {
		return 0
	}
	return roundClamp(float64(score) / float64(maxScore) * 100)
}

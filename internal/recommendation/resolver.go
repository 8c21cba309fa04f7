package recommendation

import (
	"fmt"

	"sales-competency-service/internal/domain"
)

// Normalizer resolves raw competency ids to canonical keys.
type Normalizer interface {
	Normalize(raw string) string
}

type entryKey struct {
	competency string
	tier       domain.Tier
}

// Resolver looks up guidance text for a (competency, tier, language) triple.
// It is immutable after construction.
type Resolver struct {
	normalizer Normalizer
	entries    map[entryKey]Localized
	generic    map[domain.Tier]Localized
}

// NewResolver indexes table under normalized competency keys. Every tier must have
// non-empty generic advice in both languages so lookups can always fall back.
func NewResolver(normalizer Normalizer, table Table) (*Resolver, error) {
	for _, tier := range domain.Tiers {
		text := table.Generic[tier]
		if len(text.EN) == 0 || len(text.AR) == 0 {
			return nil, fmt.Errorf("generic recommendations for %s must have en and ar entries", tier)
		}
	}

	r := &Resolver{
		normalizer: normalizer,
		entries:    make(map[entryKey]Localized),
		generic:    make(map[domain.Tier]Localized, len(table.Generic)),
	}
	for tier, text := range table.Generic {
		r.generic[tier] = text
	}
	for key, tiers := range table.Competencies {
		canonical := normalizer.Normalize(key)
		for tier, text := range tiers {
			r.entries[entryKey{competency: canonical, tier: tier}] = text
		}
	}
	return r, nil
}

// Recommendations returns the ordered guidance for a competency at a tier. Competencies
// without authored text get the generic advice for the tier. Callers own the returned slice.
func (r *Resolver) Recommendations(competencyID string, tier domain.Tier, lang domain.Language) ([]string, error) {
	if err := validate(tier, lang); err != nil {
		return nil, err
	}
	key := entryKey{competency: r.normalizer.Normalize(competencyID), tier: tier}
	if text, ok := r.entries[key]; ok {
		if list := text.lang(lang); len(list) > 0 {
			return clone(list), nil
		}
	}
	return clone(r.generic[tier].lang(lang)), nil
}

// Generic returns the competency-agnostic advice for a tier.
func (r *Resolver) Generic(tier domain.Tier, lang domain.Language) ([]string, error) {
	if err := validate(tier, lang); err != nil {
		return nil, err
	}
	return clone(r.generic[tier].lang(lang)), nil
}

func validate(tier domain.Tier, lang domain.Language) error {
	if !lang.Valid() {
		return fmt.Errorf("%w: unsupported language %q", domain.ErrInvalidArgument, lang)
	}
	if !tier.Valid() {
		return fmt.Errorf("%w: unknown tier %q", domain.ErrInvalidArgument, tier)
	}
	return nil
}

func clone(list []string) []string {
	out := make([]string, len(list))
	copy(out, list)
	return out
}

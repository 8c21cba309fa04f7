package competency

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalizer maps raw competency identifiers onto canonical keys.
// It is read-only after construction and safe for concurrent use.
type Normalizer struct {
	aliases map[string]string
}

// NewNormalizer builds a normalizer from an alias -> canonical key table.
// Every canonical key also resolves to itself, and every alias is reachable both
// verbatim and through its normalized form.
func NewNormalizer(aliases map[string]string) *Normalizer {
	n := &Normalizer{aliases: make(map[string]string, len(aliases)*2)}
	for alias, canonical := range aliases {
		n.aliases[canonical] = canonical
		n.aliases[trimmed(alias)] = canonical
		n.aliases[FormKey(alias)] = canonical
	}
	return n
}

// Normalize never fails: ids that match no alias come back in their normalized form.
func (n *Normalizer) Normalize(raw string) string {
	exact := trimmed(raw)
	if canonical, ok := n.aliases[exact]; ok {
		return canonical
	}
	key := FormKey(exact)
	if canonical, ok := n.aliases[key]; ok {
		return canonical
	}
	return key
}

// FormKey lowercases the id, joins whitespace runs with '_' and turns hyphens into '_'.
// The result is NFC.
func FormKey(raw string) string {
	// Casers are stateful, so one per call.
	lowered := cases.Lower(language.Und).String(trimmed(raw))
	joined := strings.Join(strings.Fields(lowered), "_")
	// lowercasing can leave a base letter and a combining mark that now compose
	return norm.NFC.String(strings.ReplaceAll(joined, "-", "_"))
}

func trimmed(raw string) string {
	return strings.TrimSpace(norm.NFC.String(raw))
}

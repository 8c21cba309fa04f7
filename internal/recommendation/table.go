package recommendation

import (
	_ "embed"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"sales-competency-service/internal/domain"
)

//go:embed recommendations.yaml
var defaultTableYAML []byte

// Localized holds the parallel English and Arabic guidance lists of one entry.
type Localized struct {
	EN []string `yaml:"en"`
	AR []string `yaml:"ar"`
}

func (l Localized) lang(lang domain.Language) []string {
	if lang == domain.LanguageArabic {
		return l.AR
	}
	return l.EN
}

// Table is the authored recommendation content: generic advice per tier plus
// competency-specific advice per (competency, tier).
type Table struct {
	Generic      map[domain.Tier]Localized
	Competencies map[string]map[domain.Tier]Localized
}

type tableFile struct {
	Generic      map[string]Localized            `yaml:"generic"`
	Competencies map[string]map[string]Localized `yaml:"competencies"`
}

// DefaultTable returns the content compiled into the binary.
func DefaultTable() Table {
	t, err := ParseTable(defaultTableYAML)
	if err != nil {
		panic(err)
	}
	return t
}

// LoadTable reads a recommendation file; an empty path selects the built-in content.
func LoadTable(path string) (Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, errors.Wrapf(err, "read recommendations %s", path)
	}
	return ParseTable(data)
}

// ParseTable decodes recommendation YAML. Tier keys are case-insensitive.
func ParseTable(data []byte) (Table, error) {
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Table{}, errors.Wrap(err, "parse recommendations")
	}

	generic, err := tierMap(file.Generic)
	if err != nil {
		return Table{}, errors.Wrap(err, "generic recommendations")
	}
	table := Table{
		Generic:      generic,
		Competencies: make(map[string]map[domain.Tier]Localized, len(file.Competencies)),
	}
	for key, tiers := range file.Competencies {
		byTier, err := tierMap(tiers)
		if err != nil {
			return Table{}, errors.Wrapf(err, "recommendations for %s", key)
		}
		table.Competencies[key] = byTier
	}
	return table, nil
}

func tierMap(raw map[string]Localized) (map[domain.Tier]Localized, error) {
	out := make(map[domain.Tier]Localized, len(raw))
	for name, text := range raw {
		tier, err := domain.ParseTier(name)
		if err != nil {
			return nil, err
		}
		out[tier] = text
	}
	return out, nil
}

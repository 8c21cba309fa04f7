package competency

import (
	_ "embed"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"sales-competency-service/internal/domain"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Definition is one competency entry of the catalog file.
type Definition struct {
	Key      string   `yaml:"key"`
	MaxScore int      `yaml:"maxScore"`
	Names    Names    `yaml:"names"`
	Aliases  []string `yaml:"aliases"`
}

// Names holds the localized display labels of a competency.
type Names struct {
	EN string `yaml:"en"`
	AR string `yaml:"ar"`
}

type catalogFile struct {
	Competencies []Definition `yaml:"competencies"`
}

// Catalog is the fixed business configuration of an assessment: which competencies exist,
// their report order, their max-score budget and every historical or localized alias.
type Catalog struct {
	defs       []Definition
	normalizer *Normalizer
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c, err := Parse(defaultCatalogYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads a catalog file; an empty path selects the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read competency catalog %s", path)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "parse competency catalog")
	}
	if len(file.Competencies) == 0 {
		return nil, errors.New("competency catalog is empty")
	}

	aliases := make(map[string]string)
	owner := make(map[string]string)
	seen := make(map[string]bool, len(file.Competencies))
	claim := func(form, key string) error {
		if prev, ok := owner[form]; ok && prev != key {
			return errors.Errorf("alias %q claimed by both %s and %s", form, prev, key)
		}
		owner[form] = key
		return nil
	}

	for _, def := range file.Competencies {
		if def.Key == "" {
			return nil, errors.New("competency with empty key")
		}
		if FormKey(def.Key) != def.Key {
			return nil, errors.Errorf("competency key %q is not in normalized form (want %q)", def.Key, FormKey(def.Key))
		}
		if seen[def.Key] {
			return nil, errors.Errorf("duplicate competency key %q", def.Key)
		}
		seen[def.Key] = true
		if err := claim(def.Key, def.Key); err != nil {
			return nil, err
		}
		aliases[def.Key] = def.Key
		for _, alias := range def.Aliases {
			if err := claim(FormKey(alias), def.Key); err != nil {
				return nil, err
			}
			if err := claim(trimmed(alias), def.Key); err != nil {
				return nil, err
			}
			aliases[alias] = def.Key
		}
	}

	return &Catalog{defs: file.Competencies, normalizer: NewNormalizer(aliases)}, nil
}

// Normalizer returns the normalizer backed by this catalog's alias table.
func (c *Catalog) Normalizer() *Normalizer {
	return c.normalizer
}

// Order lists canonical keys in report order.
func (c *Catalog) Order() []string {
	order := make([]string, 0, len(c.defs))
	for _, def := range c.defs {
		order = append(order, def.Key)
	}
	return order
}

// Table returns a fresh copy of the per-competency scoring configuration.
func (c *Catalog) Table() map[string]domain.CompetencyConfig {
	table := make(map[string]domain.CompetencyConfig, len(c.defs))
	for _, def := range c.defs {
		table[def.Key] = domain.CompetencyConfig{
			MaxScore: def.MaxScore,
			Names: map[domain.Language]string{
				domain.LanguageEnglish: def.Names.EN,
				domain.LanguageArabic:  def.Names.AR,
			},
		}
	}
	return table
}

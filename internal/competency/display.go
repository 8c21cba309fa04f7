package competency

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"sales-competency-service/internal/domain"
)

// DisplayName picks the configured label for lang, falling back to English and then to a
// title-cased rendering of the key.
func DisplayName(key string, lang domain.Language, names map[domain.Language]string) string {
	if name := names[lang]; name != "" {
		return name
	}
	if name := names[domain.LanguageEnglish]; name != "" {
		return name
	}
	return cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
}

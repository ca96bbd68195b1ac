// Package i18n resolves user-facing strings from a layered translation table
// and tracks the process-wide locale selection.
package i18n

import "strings"

// Locale is a supported UI language
type Locale string

// Supported locales
const (
	// LocaleEN is English, the default locale
	LocaleEN Locale = "en"
	// LocalePT is Portuguese
	LocalePT Locale = "pt"
	// LocaleES is Spanish
	LocaleES Locale = "es"
)

// DefaultLocale is used when no valid locale has been stored
const DefaultLocale = LocaleEN

// StorageKey is the durable storage key holding the selected locale
const StorageKey = "resumeMatcher_language"

// Locales returns the closed set of supported locales
func Locales() []Locale {
	return []Locale{LocaleEN, LocalePT, LocaleES}
}

// ParseLocale validates s against the supported set.
// Surrounding whitespace and case are ignored.
func ParseLocale(s string) (Locale, bool) {
	l := Locale(strings.ToLower(strings.TrimSpace(s)))
	switch l {
	case LocaleEN, LocalePT, LocaleES:
		return l, true
	default:
		return "", false
	}
}

// ParseLocales parses a comma-separated locale list, skipping duplicates.
// The second return value holds entries that are not supported locales.
func ParseLocales(s string) ([]Locale, []string) {
	var locales []Locale
	var invalid []string
	seen := make(map[Locale]bool)
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		l, ok := ParseLocale(part)
		if !ok {
			invalid = append(invalid, strings.TrimSpace(part))
			continue
		}
		if !seen[l] {
			seen[l] = true
			locales = append(locales, l)
		}
	}
	return locales, invalid
}

// String implements fmt.Stringer
func (l Locale) String() string {
	return string(l)
}

package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed locales/*.json
var localeFiles embed.FS

// Table maps each locale to its dictionary. Dictionary values are either
// strings (flat keys such as "hero.subtitle") or nested maps.
// A Table is immutable once built.
type Table struct {
	dicts map[Locale]map[string]any
}

// NewTable builds a table from in-memory dictionaries. The input maps are not copied
// and must not be modified afterwards.
func NewTable(dicts map[Locale]map[string]any) *Table {
	if dicts == nil {
		dicts = map[Locale]map[string]any{}
	}
	return &Table{dicts: dicts}
}

// LoadTable builds the table from the embedded locale files
func LoadTable() (*Table, error) {
	dicts := make(map[Locale]map[string]any, len(Locales()))
	for _, l := range Locales() {
		data, err := localeFiles.ReadFile("locales/" + string(l) + ".json")
		if err != nil {
			return nil, fmt.Errorf("failed to read locale %s: %w", l, err)
		}
		var dict map[string]any
		if err := json.Unmarshal(data, &dict); err != nil {
			return nil, fmt.Errorf("failed to parse locale %s: %w", l, err)
		}
		dicts[l] = dict
	}
	return NewTable(dicts), nil
}

// MustLoadTable is LoadTable for the embedded files, which are known to be valid
func MustLoadTable() *Table {
	t, err := LoadTable()
	if err != nil {
		panic(err)
	}
	return t
}

// lookup returns the translation for key, trying the flat entry first and the
// nested path second. Empty strings count as missing.
func (t *Table) lookup(locale Locale, key string) (string, bool) {
	dict, ok := t.dicts[locale]
	if !ok || key == "" {
		return "", false
	}

	if s, ok := dict[key].(string); ok && s != "" {
		return s, true
	}

	var node any = dict
	for _, segment := range strings.Split(key, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return "", false
		}
		node, ok = m[segment]
		if !ok {
			return "", false
		}
	}

	if s, ok := node.(string); ok && s != "" {
		return s, true
	}
	return "", false
}

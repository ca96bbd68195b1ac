package i18n

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
)

// Store is durable client storage for user preferences
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Resolver resolves translation keys and owns the current locale selection.
// The current locale has a single writer (SetLocale) and many readers.
type Resolver struct {
	table   *Table
	store   Store
	current atomic.Value // Locale
}

// NewResolver creates a resolver over table, seeding the current locale from store.
// Invalid, absent, or unreadable stored values silently fall back to DefaultLocale.
// store may be nil, in which case the selection is not persisted.
func NewResolver(ctx context.Context, table *Table, store Store) *Resolver {
	if table == nil {
		table = NewTable(nil)
	}
	r := &Resolver{table: table, store: store}
	r.current.Store(DefaultLocale)

	if store == nil {
		return r
	}

	value, found, err := store.Get(ctx, StorageKey)
	if err != nil {
		log.Printf("[i18n] failed to read stored locale, using %s: %v", DefaultLocale, err)
		return r
	}
	if !found {
		return r
	}
	if l, ok := ParseLocale(value); ok {
		r.current.Store(l)
	}
	return r
}

// Current returns the current locale
func (r *Resolver) Current() Locale {
	return r.current.Load().(Locale)
}

// SetLocale replaces the current locale and persists it.
// The in-memory selection changes even when persisting fails.
func (r *Resolver) SetLocale(ctx context.Context, locale Locale) error {
	l, ok := ParseLocale(string(locale))
	if !ok {
		return fmt.Errorf("unsupported locale %q", locale)
	}
	r.current.Store(l)

	if r.store == nil {
		return nil
	}
	if err := r.store.Set(ctx, StorageKey, string(l)); err != nil {
		log.Printf("[i18n] failed to persist locale %s: %v", l, err)
		return fmt.Errorf("failed to persist locale: %w", err)
	}
	return nil
}

// Resolve returns the translation of key for locale, or key itself when no
// translation exists. It never fails.
func (r *Resolver) Resolve(locale Locale, key string) string {
	if s, ok := r.table.lookup(locale, key); ok {
		return s
	}
	return key
}

// T resolves key against the current locale
func (r *Resolver) T(key string) string {
	return r.Resolve(r.Current(), key)
}

// Format resolves key and substitutes {name} placeholders from vars.
// Placeholders without a matching var are left untouched.
func (r *Resolver) Format(locale Locale, key string, vars map[string]any) string {
	text := r.Resolve(locale, key)
	if len(vars) == 0 || !strings.Contains(text, "{") {
		return text
	}

	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{"+name+"}", fmt.Sprint(value))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

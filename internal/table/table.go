// Package table turns the raw trigger→translations mapping dumped by the
// input method engine into a normalized, sorted translation table.
//
// Normalization is a pure function of its input. Given the same raw mapping
// it always yields the same Table, entry for entry.
package table

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// DecorationMarker is the prefix the engine puts in front of every trigger.
const DecorationMarker = '\\'

// Entry is one trigger and its translations.
type Entry struct {
	Key          string
	Translations []string
}

// Table is a normalized translation table.
//
// Keys are unique, non-empty, contain at least one non-whitespace
// character and are sorted in ascending byte order. Every translation list
// is non-empty, free of empty strings and free of duplicates.
type Table struct {
	entries []Entry
}

// Stats summarizes a Table the way the generator reports it.
type Stats struct {
	Total  int
	Single int
	Multi  int
}

// Normalize strips decoration from raw keys, drops unusable entries and
// sorts the rest.
//
// Raw keys are visited in sorted order. If two raw keys collapse to the
// same trigger once stripped, their translation lists are merged in that
// order.
func Normalize(raw map[string][]string) Table {
	merged := make(map[string][]string, len(raw))

	for _, rawKey := range slices.Sorted(maps.Keys(raw)) {
		translations := cleanTranslations(raw[rawKey])
		if rawKey == "" || len(translations) == 0 {
			continue
		}

		key := StripDecoration(rawKey)
		if IsBlank(key) {
			continue
		}

		merged[key] = appendDistinct(merged[key], translations...)
	}

	return fromCleanMap(merged)
}

// New builds a Table from already normalized data, such as a previously
// written artifact. Unlike Normalize it never rewrites keys; it rejects
// anything that violates the Table invariants.
func New(m map[string][]string) (Table, error) {
	for key, translations := range m {
		if IsBlank(key) {
			return Table{}, fmt.Errorf("table: blank key %q", key)
		}
		if len(translations) == 0 {
			return Table{}, fmt.Errorf("table: key %q has no translations", key)
		}
		seen := make(map[string]bool, len(translations))
		for _, tr := range translations {
			if tr == "" {
				return Table{}, fmt.Errorf("table: key %q has an empty translation", key)
			}
			if seen[tr] {
				return Table{}, fmt.Errorf("table: key %q repeats translation %q", key, tr)
			}
			seen[tr] = true
		}
	}
	return fromCleanMap(m), nil
}

func fromCleanMap(m map[string][]string) Table {
	entries := make([]Entry, 0, len(m))
	for key, translations := range m {
		entries = append(entries, Entry{Key: key, Translations: slices.Clone(translations)})
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		return cmp.Compare(a.Key, b.Key)
	})
	return Table{entries: entries}
}

// StripDecoration removes one leading DecorationMarker, if present.
func StripDecoration(key string) string {
	return strings.TrimPrefix(key, string(DecorationMarker))
}

// IsBlank reports whether key is empty or consists only of Unicode white
// space (which includes U+00A0 NO-BREAK SPACE). Such triggers can only be
// typed with the space key, which the editor integration reserves for
// finishing an abbreviation.
func IsBlank(key string) bool {
	return strings.TrimSpace(key) == ""
}

// IsTrivial reports whether s is a single printable ASCII character.
// Such a translation is reachable by typing the character directly.
func IsTrivial(s string) bool {
	return len(s) == 1 && s[0] >= 0x20 && s[0] <= 0x7e
}

// DropTrivial returns candidates without the trivial ones, preserving order.
func DropTrivial(candidates []string) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if !IsTrivial(c) {
			out = append(out, c)
		}
	}
	return out
}

func cleanTranslations(in []string) []string {
	var out []string
	for _, tr := range in {
		if tr == "" {
			continue
		}
		out = appendDistinct(out, tr)
	}
	return out
}

func appendDistinct(dst []string, values ...string) []string {
	for _, v := range values {
		if !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}

// Len returns the number of triggers.
func (t Table) Len() int {
	return len(t.entries)
}

// Entries returns the entries in key order. The slice is a copy.
func (t Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	for i, e := range t.entries {
		out[i] = Entry{Key: e.Key, Translations: slices.Clone(e.Translations)}
	}
	return out
}

// Keys returns the triggers in order.
func (t Table) Keys() []string {
	keys := make([]string, len(t.entries))
	for i, e := range t.entries {
		keys[i] = e.Key
	}
	return keys
}

// Lookup returns the translations for key.
func (t Table) Lookup(key string) ([]string, bool) {
	i, found := slices.BinarySearchFunc(t.entries, key, func(e Entry, k string) int {
		return cmp.Compare(e.Key, k)
	})
	if !found {
		return nil, false
	}
	return slices.Clone(t.entries[i].Translations), true
}

// Map returns the table as a plain map.
func (t Table) Map() map[string][]string {
	m := make(map[string][]string, len(t.entries))
	for _, e := range t.entries {
		m[e.Key] = slices.Clone(e.Translations)
	}
	return m
}

// Stats counts triggers with one and with several translations.
func (t Table) Stats() Stats {
	s := Stats{Total: len(t.entries)}
	for _, e := range t.entries {
		if len(e.Translations) == 1 {
			s.Single++
		} else {
			s.Multi++
		}
	}
	return s
}

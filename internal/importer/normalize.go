// Package importer turns raw CSV/XLSX sales exports into resolved line items
// ready for the ledger: it tokenizes rows, normalizes Spanish headers and
// product spellings, and fingerprints rows so repeated uploads are idempotent.
package importer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// StripAccents removes diacritics ("dirección" -> "direccion").
func StripAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeHeader lower-cases a raw header, strips accents and removes all
// whitespace, producing the form looked up in the header alias table.
func NormalizeHeader(raw string) string {
	lowered := strings.ToLower(StripAccents(raw))
	var b strings.Builder
	for _, r := range lowered {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeName produces the catalog lookup key for a product name:
// trimmed, lower-cased, accent-stripped, inner runs of whitespace collapsed.
func NormalizeName(raw string) string {
	lowered := strings.ToLower(StripAccents(strings.TrimSpace(raw)))
	return strings.Join(strings.Fields(lowered), " ")
}

// HeaderIndex maps canonical column keys to their position in the header row.
// When multiple raw headers normalize to the same canonical key, the first
// occurrence wins.
type HeaderIndex map[string]int

// NewHeaderIndex normalizes the raw headers and resolves them through the
// alias table.
func NewHeaderIndex(rawHeaders []string, aliases *Aliases) HeaderIndex {
	index := HeaderIndex{}
	for i, raw := range rawHeaders {
		key := NormalizeHeader(raw)
		canonical, ok := aliases.Headers[key]
		if !ok {
			continue
		}
		if _, seen := index[canonical]; seen {
			continue
		}
		index[canonical] = i
	}
	return index
}

// Get returns the cell under the canonical key, or "" when the column is
// absent or the row is short.
func (h HeaderIndex) Get(row []string, key string) string {
	i, ok := h[key]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Has reports whether the canonical column is present.
func (h HeaderIndex) Has(key string) bool {
	_, ok := h[key]
	return ok
}

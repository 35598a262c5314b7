package importer

import (
	"sort"
	"strings"

	"tour_sales_backend/internal/models"

	"github.com/shopspring/decimal"
)

// ProductResolver looks catalog tours up by normalized name, trying the
// spelling-variant table before giving up on a lookup.
type ProductResolver struct {
	byName     map[string]models.Tour
	aliases    map[string]string
	aliasOrder []string
}

// NewProductResolver builds a resolver over the current catalog.
func NewProductResolver(tours []models.Tour, productAliases map[string]string) *ProductResolver {
	r := &ProductResolver{
		byName:  make(map[string]models.Tour, len(tours)),
		aliases: productAliases,
	}
	for _, t := range tours {
		key := NormalizeName(t.Name)
		if _, seen := r.byName[key]; !seen {
			r.byName[key] = t
		}
	}
	// Sorted so that "first match wins" is deterministic across runs.
	for variant := range productAliases {
		r.aliasOrder = append(r.aliasOrder, variant)
	}
	sort.Strings(r.aliasOrder)
	return r
}

// Resolve returns the tour for a raw product name. Before failing it applies
// each known spelling-variant substitution to the normalized key; the first
// substitution producing a hit wins.
func (r *ProductResolver) Resolve(rawName string) (models.Tour, bool) {
	key := NormalizeName(rawName)
	if tour, ok := r.byName[key]; ok {
		return tour, true
	}
	for _, variant := range r.aliasOrder {
		if !strings.Contains(key, variant) {
			continue
		}
		patched := strings.Replace(key, variant, r.aliases[variant], 1)
		if tour, ok := r.byName[NormalizeName(patched)]; ok {
			return tour, true
		}
	}
	return models.Tour{}, false
}

// CellItem is one segment of a product cell: a name and, when the segment
// carries an embedded ": price" suffix, its price.
type CellItem struct {
	Name  string
	Price *decimal.Decimal
}

// ParseProductCell splits a product cell into its items. A single cell may
// encode several items as "Name: Price , Name2: Price2"; commas inside double
// quotes do not split.
func ParseProductCell(cell string) []CellItem {
	var items []CellItem
	for _, segment := range splitOutsideQuotes(cell, ',') {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		name, price := splitEmbeddedPrice(segment)
		items = append(items, CellItem{Name: name, Price: price})
	}
	return items
}

// splitEmbeddedPrice peels a trailing ": 700" style price off a segment. The
// split happens at the last colon whose suffix parses as a number, so product
// names containing colons stay intact.
func splitEmbeddedPrice(segment string) (string, *decimal.Decimal) {
	idx := strings.LastIndex(segment, ":")
	if idx < 0 {
		return segment, nil
	}
	price, err := ParseMoney(segment[idx+1:])
	if err != nil {
		return segment, nil
	}
	return strings.TrimSpace(segment[:idx]), &price
}

// ParseMoney parses a monetary cell, tolerating currency signs, spaces and
// thousands separators.
func ParseMoney(raw string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	return decimal.NewFromString(cleaned)
}

func splitOutsideQuotes(s string, sep rune) []string {
	var parts []string
	var current strings.Builder
	inQuotes := false
	for _, r := range s {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == sep && !inQuotes:
			parts = append(parts, current.String())
			current.Reset()
			continue
		}
		if r != '"' {
			current.WriteRune(r)
		}
	}
	parts = append(parts, current.String())
	return parts
}

package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"tour_sales_backend/internal/models"

	"github.com/shopspring/decimal"
)

// ResolvedLine is one catalog-resolved item of an import row.
type ResolvedLine struct {
	Tour     models.Tour
	Quantity int
	Total    decimal.Decimal
}

// ResolvedRow is a fully resolved import row: the lines it expands into plus
// the customer fields shared by all of them.
type ResolvedRow struct {
	Fingerprint     string
	Lines           []ResolvedLine
	CustomerName    string
	CustomerPhone   *string
	CustomerAddress *string
	SellerName      *string
	EntryDate       time.Time
	Deposit         *decimal.Decimal
	BalanceDue      *decimal.Decimal
	IsPaid          bool
}

// Spanish day-first export formats, tried in order.
var entryDateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
}

// ResolveRow turns one raw data row into resolved sale lines. Failures are
// row-scoped: the caller collects them and moves on to the next row.
func ResolveRow(index HeaderIndex, row Row, resolver *ProductResolver, now time.Time) (*ResolvedRow, error) {
	productCell := index.Get(row.Cells, ColProduct)
	if productCell == "" {
		return nil, fmt.Errorf("missing product")
	}
	totalCell := index.Get(row.Cells, ColTotal)
	if totalCell == "" {
		return nil, fmt.Errorf("missing total")
	}
	rowTotal, err := ParseMoney(totalCell)
	if err != nil {
		return nil, fmt.Errorf("invalid total %q", totalCell)
	}

	quantity := 1
	if raw := index.Get(row.Cells, ColQuantity); raw != "" {
		quantity, err = strconv.Atoi(raw)
		if err != nil || quantity <= 0 {
			return nil, fmt.Errorf("invalid quantity %q", raw)
		}
	}

	items := ParseProductCell(productCell)
	if len(items) == 0 {
		return nil, fmt.Errorf("missing product")
	}

	resolved := &ResolvedRow{
		CustomerName:    index.Get(row.Cells, ColName),
		CustomerPhone:   optionalCell(index, row, ColPhone),
		CustomerAddress: optionalCell(index, row, ColAddress),
		SellerName:      optionalCell(index, row, ColSeller),
		IsPaid:          parsePaid(index.Get(row.Cells, ColIsPaid)),
	}

	entryDate, canonicalDate := parseEntryDate(index.Get(row.Cells, ColEntryDate), now)
	resolved.EntryDate = entryDate

	for _, item := range items {
		tour, ok := resolver.Resolve(item.Name)
		if !ok {
			return nil, fmt.Errorf("unknown product %q", strings.TrimSpace(item.Name))
		}
		line := ResolvedLine{Tour: tour}
		if len(items) == 1 {
			line.Quantity = quantity
			if item.Price != nil {
				line.Total = *item.Price
			} else {
				line.Total = rowTotal
			}
		} else {
			// Multi-item rows expand to quantity-1 lines, each priced by its
			// own embedded price.
			line.Quantity = 1
			if item.Price == nil {
				return nil, fmt.Errorf("product %q has no price in multi-item row", strings.TrimSpace(item.Name))
			}
			line.Total = *item.Price
		}
		resolved.Lines = append(resolved.Lines, line)
	}

	if raw := index.Get(row.Cells, ColDeposit); raw != "" {
		deposit, err := ParseMoney(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid deposit %q", raw)
		}
		resolved.Deposit = &deposit
	}
	if raw := index.Get(row.Cells, ColBalanceDue); raw != "" {
		balance, err := ParseMoney(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid balance %q", raw)
		}
		resolved.BalanceDue = &balance
	}

	resolved.Fingerprint = Fingerprint(
		index.Get(row.Cells, ColPhone),
		canonicalDate,
		totalCell,
		productCell,
		resolved.CustomerName,
	)
	return resolved, nil
}

// parseEntryDate returns the parsed entry date (falling back to now) plus the
// canonical string used for fingerprinting: ISO when parseable, the raw
// trimmed cell otherwise, so the fingerprint stays deterministic either way.
func parseEntryDate(raw string, now time.Time) (time.Time, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now, ""
	}
	for _, format := range entryDateFormats {
		if t, err := time.Parse(format, raw); err == nil {
			return t, t.Format("2006-01-02")
		}
	}
	return now, raw
}

func parsePaid(raw string) bool {
	switch strings.ToLower(StripAccents(strings.TrimSpace(raw))) {
	case "si", "yes", "true", "1", "pagado", "paid":
		return true
	default:
		return false
	}
}

func optionalCell(index HeaderIndex, row Row, key string) *string {
	value := index.Get(row.Cells, key)
	if value == "" {
		return nil
	}
	return &value
}

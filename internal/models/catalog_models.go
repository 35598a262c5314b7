package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnlimitedStock marks a tour whose availability is never checked or decremented.
const UnlimitedStock = -1

// Tour represents a sellable catalog item (a tour or retail product).
type Tour struct {
	ID        int64           `json:"id" db:"id"`
	Name      string          `json:"name" db:"name" binding:"required"`
	Line      string          `json:"line" db:"line"` // category, e.g. "Tours", "Transfers"
	Price     decimal.Decimal `json:"price" db:"price"`
	Stock     int             `json:"stock" db:"stock"` // -1 = unlimited, >= 0 = units remaining
	Sold      int             `json:"sold" db:"sold"`   // cumulative units sold
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// Unlimited reports whether availability checks are skipped for this tour.
func (t *Tour) Unlimited() bool {
	return t.Stock == UnlimitedStock
}

// TourFilters defines the available filters for querying the catalog.
type TourFilters struct {
	Line     *string `form:"line"`
	Name     *string `form:"name"`
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}

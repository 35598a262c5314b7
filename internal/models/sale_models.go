package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchSource tags how a batch identifier was produced.
type BatchSource string

const (
	// BatchSourceGenerated marks batches created interactively; Value is a UUID.
	BatchSourceGenerated BatchSource = "generated"
	// BatchSourceImported marks batches created by the CSV import; Value is the
	// row fingerprint, which is what makes re-imports idempotent.
	BatchSourceImported BatchSource = "imported"
)

// BatchID identifies a batch of sale lines. It is stored as two columns
// (batch_id, batch_source) so imported batches can be looked up by fingerprint
// without parsing string prefixes.
type BatchID struct {
	Source BatchSource `json:"source"`
	Value  string      `json:"value"`
}

// NewGeneratedBatchID returns a fresh identifier for an interactively created batch.
func NewGeneratedBatchID() BatchID {
	return BatchID{Source: BatchSourceGenerated, Value: uuid.NewString()}
}

// ImportedBatchID returns the identifier for a batch derived from an import fingerprint.
func ImportedBatchID(fingerprint string) BatchID {
	return BatchID{Source: BatchSourceImported, Value: fingerprint}
}

// IsZero reports whether the identifier is unset.
func (b BatchID) IsZero() bool {
	return b.Value == ""
}

func (b BatchID) String() string {
	return string(b.Source) + ":" + b.Value
}

// SaleLine is one line item of a sale batch, tied 1:1 to a catalog tour.
// Customer fields are duplicated across all lines of a batch; the ledger
// service keeps them (and the void state) consistent.
type SaleLine struct {
	ID              int64            `json:"id" db:"id"`
	BatchID         BatchID          `json:"batch_id"`
	TourID          int64            `json:"tour_id" db:"tour_id" binding:"required"`
	Quantity        int              `json:"quantity" db:"quantity" binding:"required,gt=0"`
	Total           decimal.Decimal  `json:"total" db:"total"`
	Deposit         *decimal.Decimal `json:"deposit,omitempty" db:"deposit"`
	BalanceDue      *decimal.Decimal `json:"balance_due,omitempty" db:"balance_due"`
	CustomerName    string           `json:"customer_name" db:"customer_name"`
	CustomerPhone   *string          `json:"customer_phone,omitempty" db:"customer_phone"`
	CustomerAddress *string          `json:"customer_address,omitempty" db:"customer_address"`
	SellerName      *string          `json:"seller_name,omitempty" db:"seller_name"`
	EntryDate       time.Time        `json:"entry_date" db:"entry_date"`
	IsPaid          bool             `json:"is_paid" db:"is_paid"`
	VoidedAt        *time.Time       `json:"voided_at,omitempty" db:"voided_at"`
	VoidReason      *string          `json:"void_reason,omitempty" db:"void_reason"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
	Tour            *Tour            `json:"tour,omitempty"`
}

// Voided reports whether the line has been cancelled.
func (l *SaleLine) Voided() bool {
	return l.VoidedAt != nil
}

// Batch is the virtual aggregate of all sale lines sharing one BatchID.
// It is never stored as its own row; it is derived by grouping.
type Batch struct {
	ID    BatchID    `json:"id"`
	Lines []SaleLine `json:"lines"`
}

// Total is the sum of the line totals.
func (b *Batch) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range b.Lines {
		total = total.Add(l.Total)
	}
	return total
}

// Voided reports whether the batch is cancelled. Voiding is all-or-nothing
// across a batch, so any voided line means the whole batch is voided.
func (b *Batch) Voided() bool {
	for _, l := range b.Lines {
		if l.Voided() {
			return true
		}
	}
	return false
}

// SaleFilters defines the available filters for querying sale batches.
type SaleFilters struct {
	SellerName    *string `form:"seller_name"`
	IsPaid        *bool   `form:"is_paid"`
	Date          *string `form:"date"` // Expected format YYYY-MM-DD, matched against entry_date
	IncludeVoided bool    `form:"include_voided"`
	Page          int     `form:"page"`
	PageSize      int     `form:"page_size"`
}

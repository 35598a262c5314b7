package models

import "time"

// Movement types recorded against a tour's counters.
const (
	MovementSale        = "sale"
	MovementVoidRestore = "void_restore"
	MovementEditAdjust  = "edit_adjustment"
	MovementLineRemoval = "line_removal"
)

// StockMovement is the audit record of one counter change. It is written in
// the same transaction that moves the counters, so the trail can never
// disagree with the stock/sold pair.
type StockMovement struct {
	ID              int64     `json:"id" db:"id"`
	TourID          int64     `json:"tour_id" db:"tour_id"`
	BatchID         BatchID   `json:"batch_id"`
	MovementType    string    `json:"movement_type" db:"movement_type"`
	QuantityChanged int       `json:"quantity_changed" db:"quantity_changed"` // signed, in sold-counter terms
	Actor           string    `json:"actor" db:"actor"`
	Reason          *string   `json:"reason,omitempty" db:"reason"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	TourName        string    `json:"tour_name,omitempty"`
}

// MovementFilters defines the available filters for querying stock movements.
type MovementFilters struct {
	TourID       *int64  `form:"tour_id"`
	MovementType *string `form:"movement_type"`
	Page         int     `form:"page"`
	PageSize     int     `form:"page_size"`
}

package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Topics for sale lifecycle events.
const (
	TopicBatchCreated = "sale.batch_created"
	TopicBatchVoided  = "sale.batch_voided"
)

// Publisher emits domain events to an external broker. Publishing happens
// after the enclosing database transaction commits and is best effort; it is
// never part of ledger atomicity.
type Publisher interface {
	Publish(topic string, event any) error
}

// BatchCreated is emitted after a sale batch is committed.
type BatchCreated struct {
	BatchID      string          `json:"batch_id"`
	BatchSource  string          `json:"batch_source"`
	CustomerName string          `json:"customer_name"`
	SellerName   string          `json:"seller_name,omitempty"`
	Lines        int             `json:"lines"`
	Total        decimal.Decimal `json:"total"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// BatchVoided is emitted after a sale batch is voided.
type BatchVoided struct {
	BatchID     string    `json:"batch_id"`
	BatchSource string    `json:"batch_source"`
	Reason      string    `json:"reason,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NoopPublisher discards events. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(string, any) error { return nil }

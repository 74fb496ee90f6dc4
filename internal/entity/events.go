package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event represents a domain event.
type Event interface {
	EventType() string
}

// OrderComposed is emitted when both phases of an order composition succeed.
type OrderComposed struct {
	OrderID     string          `json:"order_id"`
	UserID      string          `json:"user_id"`
	ItemID      string          `json:"item_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ComposedAt  time.Time       `json:"composed_at"`
}

func (e OrderComposed) EventType() string { return "OrderComposed" }

// OrderOrphaned is emitted when the parent order was persisted but its item
// insert failed. The order stays in the store without items.
type OrderOrphaned struct {
	OrderID    string    `json:"order_id"`
	UserID     string    `json:"user_id"`
	ProductID  string    `json:"product_id"`
	Reason     string    `json:"reason"`
	OrphanedAt time.Time `json:"orphaned_at"`
}

func (e OrderOrphaned) EventType() string { return "OrderOrphaned" }

package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
)

// orderTransitions is the full legal transition table. Anything absent here
// is an invalid transition, no exceptions.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusCompleted, OrderStatusFailed, OrderStatusCancelled},
	OrderStatusCompleted: {OrderStatusRefunded},
}

// Order is a buyer's commitment to purchase a license at a snapshotted
// price. Amount and Currency are copied from the catalog at creation and
// never re-read afterwards.
type Order struct {
	OrderID         string
	BuyerID         string
	SellerID        string
	LicenseID       string
	Amount          decimal.Decimal
	Currency        string
	Status          OrderStatus
	ReferenceNumber string
	Notes           string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
	ExpiresAt       *time.Time
}

func (o Order) CanTransition(next OrderStatus) bool {
	for _, allowed := range orderTransitions[o.Status] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the order can never change state again.
func (o Order) IsTerminal() bool {
	return len(orderTransitions[o.Status]) == 0
}

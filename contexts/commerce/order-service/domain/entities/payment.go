package entities

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// Payment is one reconciliation attempt against an order. The ledger is
// append-only: a failed attempt is never edited, a retry is a new row.
// TransactionID is the caller's idempotency token, unique ledger-wide.
// GatewayResponse is stored verbatim and never parsed by the core.
type Payment struct {
	PaymentID       string
	OrderID         string
	Amount          decimal.Decimal
	Currency        string
	Method          string
	Status          PaymentStatus
	TransactionID   string
	GatewayResponse json.RawMessage
	CreatedAt       time.Time
	ProcessedAt     *time.Time
}

// Matches reports whether a retried attempt carries the same payload as
// this ledger row. A reused transaction id with a different payload is a
// conflict, not a replay.
func (p Payment) Matches(orderID string, amount decimal.Decimal, currency string, method string, succeeded bool) bool {
	if p.OrderID != orderID || !p.Amount.Equal(amount) || p.Currency != currency || p.Method != method {
		return false
	}
	if succeeded {
		// Cancelled marks a late success recorded after the order had
		// already settled; it is still the same gateway outcome.
		return p.Status == PaymentStatusCompleted || p.Status == PaymentStatusCancelled
	}
	return p.Status == PaymentStatusFailed
}

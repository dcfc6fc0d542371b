package ports

import (
	"context"
	"time"

	"keystone/contexts/commerce/order-service/domain/entities"
	"keystone/internal/shared/events"
)

// LicenseCatalog is the read-only price/terms source consulted at purchase
// time. The order service never writes through this port.
type LicenseCatalog interface {
	GetLicense(ctx context.Context, licenseID string) (entities.License, error)
}

// OrderEvent is an outbound integration payload persisted to the outbox in
// the same transaction as the state change it describes.
type OrderEvent struct {
	EventID      string
	EventType    string
	OrderID      string
	BuyerID      string
	SellerID     string
	LicenseID    string
	Amount       string
	Currency     string
	PartitionKey string
	OccurredAt   time.Time
}

// Envelope renders the event in the canonical cross-module shape that
// outbox rows persist and the relay publishes.
func (e OrderEvent) Envelope() events.Envelope {
	return events.Envelope{
		EventID:        e.EventID,
		EventType:      e.EventType,
		SourceService:  "commerce/order-service",
		OccurredAtUTC:  e.OccurredAt,
		CorrelationID:  e.OrderID,
		EntityType:     "order",
		EntityID:       e.OrderID,
		PayloadVersion: 1,
		Payload: map[string]string{
			"order_id":   e.OrderID,
			"buyer_id":   e.BuyerID,
			"seller_id":  e.SellerID,
			"license_id": e.LicenseID,
			"amount":     e.Amount,
			"currency":   e.Currency,
		},
	}
}

// OrderRepository owns order/payment persistence and the transaction
// boundaries for ledger writes.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order entities.Order) error
	GetOrder(ctx context.Context, orderID string) (entities.Order, error)
	ListOrdersByBuyer(ctx context.Context, buyerID string) ([]entities.Order, error)
	GetPaymentByTransactionID(ctx context.Context, transactionID string) (entities.Payment, bool, error)
	ListPaymentsByOrder(ctx context.Context, orderID string) ([]entities.Payment, error)
	// RecordPaymentOutcome must atomically persist the payment attempt,
	// apply the order mutation when order is non-nil (guarded by
	// expectedStatus), and append the outbox event when event is non-nil.
	RecordPaymentOutcome(ctx context.Context, payment entities.Payment, order *entities.Order, expectedStatus entities.OrderStatus, event *OrderEvent) error
	// TransitionOrder applies a guarded status change (cancel/refund path).
	TransitionOrder(ctx context.Context, order entities.Order, expectedStatus entities.OrderStatus, event *OrderEvent) error
}

// EntitlementClient is the cross-context port into the entitlement manager.
type EntitlementClient interface {
	GrantOrTopUp(ctx context.Context, userID string, licenseID string, projectID string, deploymentLimit int, durationDays int) error
	RevokeByKey(ctx context.Context, userID string, licenseID string, projectID string) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// OutboxMessage is a row ready to relay from the module outbox.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxRepository models worker-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

type EventEnvelope = events.Envelope

// EventPublisher publishes canonical envelopes to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

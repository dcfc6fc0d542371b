package commands

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	application "keystone/contexts/commerce/order-service/application"
	"keystone/contexts/commerce/order-service/domain/entities"
	domainerrors "keystone/contexts/commerce/order-service/domain/errors"
	"keystone/contexts/commerce/order-service/ports"
)

const (
	EventTypeOrderCompleted = "commerce.order.completed"
	EventTypeOrderRefunded  = "commerce.order.refunded"
)

type RecordPaymentCommand struct {
	OrderID         string
	Amount          decimal.Decimal
	Currency        string
	Method          string
	TransactionID   string
	GatewayResponse json.RawMessage
	// Succeeded carries the external gateway's pass/fail verdict; the
	// gateway call itself happens outside this core.
	Succeeded bool
}

type RecordPaymentResult struct {
	Payment  entities.Payment
	Order    entities.Order
	Replayed bool
}

type RecordPaymentUseCase struct {
	Orders       ports.OrderRepository
	Catalog      ports.LicenseCatalog
	Entitlements ports.EntitlementClient
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Logger       *slog.Logger
}

// Execute records one reconciliation attempt against an order and applies
// the resulting transition. The ledger is append-only and idempotent on
// TransactionID: an identical retry replays the stored row, a reused id
// with a different payload is rejected outright.
func (u RecordPaymentUseCase) Execute(ctx context.Context, cmd RecordPaymentCommand) (RecordPaymentResult, error) {
	logger := application.ResolveLogger(u.Logger)
	cmd.OrderID = strings.TrimSpace(cmd.OrderID)
	cmd.Currency = strings.ToUpper(strings.TrimSpace(cmd.Currency))
	cmd.Method = strings.TrimSpace(cmd.Method)
	cmd.TransactionID = strings.TrimSpace(cmd.TransactionID)
	if cmd.OrderID == "" || cmd.TransactionID == "" || cmd.Method == "" ||
		len(cmd.Currency) != 3 || cmd.Amount.IsNegative() {
		return RecordPaymentResult{}, domainerrors.ErrInvalidPaymentRequest
	}

	if existing, found, err := u.Orders.GetPaymentByTransactionID(ctx, cmd.TransactionID); err != nil {
		return RecordPaymentResult{}, err
	} else if found {
		return u.replay(ctx, logger, cmd, existing)
	}

	order, err := u.Orders.GetOrder(ctx, cmd.OrderID)
	if err != nil {
		return RecordPaymentResult{}, err
	}
	if !cmd.Amount.Equal(order.Amount) || cmd.Currency != order.Currency {
		logger.Warn("payment amount mismatch",
			"event", "payment_amount_mismatch",
			"module", "commerce/order-service",
			"layer", "application",
			"order_id", order.OrderID,
			"order_amount", order.Amount.String(),
			"order_currency", order.Currency,
			"payment_amount", cmd.Amount.String(),
			"payment_currency", cmd.Currency,
		)
		return RecordPaymentResult{}, domainerrors.ErrPaymentAmountMismatch
	}

	now := u.Clock.Now().UTC()
	paymentID, err := u.IDGen.NewID(ctx)
	if err != nil {
		return RecordPaymentResult{}, err
	}
	payment := entities.Payment{
		PaymentID:       paymentID,
		OrderID:         order.OrderID,
		Amount:          cmd.Amount,
		Currency:        cmd.Currency,
		Method:          cmd.Method,
		Status:          entities.PaymentStatusFailed,
		TransactionID:   cmd.TransactionID,
		GatewayResponse: cmd.GatewayResponse,
		CreatedAt:       now,
		ProcessedAt:     &now,
	}
	if cmd.Succeeded {
		payment.Status = entities.PaymentStatusCompleted
	}

	updated, event, license, err := u.applyOutcome(ctx, logger, order, cmd.Succeeded, now)
	if err != nil {
		return RecordPaymentResult{}, err
	}
	if cmd.Succeeded && updated == nil {
		// Late success against a settled order: the attempt stays in the
		// ledger verbatim, but only the payment that settled the order
		// may carry the completed status. Exactly one completed payment
		// sums to the order amount.
		payment.Status = entities.PaymentStatusCancelled
	}

	expected := order.Status
	if err := u.Orders.RecordPaymentOutcome(ctx, payment, updated, expected, event); err != nil {
		if errors.Is(err, domainerrors.ErrDuplicatePayment) {
			// Lost a race with a concurrent identical attempt; fall back to
			// the replay path so exactly one row and one transition survive.
			if existing, found, lookupErr := u.Orders.GetPaymentByTransactionID(ctx, cmd.TransactionID); lookupErr == nil && found {
				return u.replay(ctx, logger, cmd, existing)
			}
		}
		return RecordPaymentResult{}, err
	}

	result := RecordPaymentResult{Payment: payment, Order: order}
	if updated != nil {
		result.Order = *updated
	}

	if updated != nil && updated.Status == entities.OrderStatusCompleted {
		u.grantEntitlement(ctx, logger, *updated, license)
	}

	logger.Info("payment attempt recorded",
		"event", "payment_recorded",
		"module", "commerce/order-service",
		"layer", "application",
		"order_id", order.OrderID,
		"payment_id", payment.PaymentID,
		"transaction_id", payment.TransactionID,
		"payment_status", string(payment.Status),
		"order_status", string(result.Order.Status),
	)
	return result, nil
}

func (u RecordPaymentUseCase) replay(ctx context.Context, logger *slog.Logger, cmd RecordPaymentCommand, existing entities.Payment) (RecordPaymentResult, error) {
	if !existing.Matches(cmd.OrderID, cmd.Amount, cmd.Currency, cmd.Method, cmd.Succeeded) {
		logger.Warn("transaction id reused with different payload",
			"event", "payment_duplicate_conflict",
			"module", "commerce/order-service",
			"layer", "application",
			"transaction_id", cmd.TransactionID,
			"order_id", cmd.OrderID,
		)
		return RecordPaymentResult{}, domainerrors.ErrDuplicatePayment
	}
	order, err := u.Orders.GetOrder(ctx, existing.OrderID)
	if err != nil {
		return RecordPaymentResult{}, err
	}
	logger.Info("payment attempt replayed",
		"event", "payment_replayed",
		"module", "commerce/order-service",
		"layer", "application",
		"transaction_id", cmd.TransactionID,
		"payment_id", existing.PaymentID,
		"order_id", order.OrderID,
	)
	return RecordPaymentResult{Payment: existing, Order: order, Replayed: true}, nil
}

// applyOutcome computes the order mutation for one ledger outcome. It
// returns a nil order when the attempt must not touch order state.
func (u RecordPaymentUseCase) applyOutcome(ctx context.Context, logger *slog.Logger, order entities.Order, succeeded bool, now time.Time) (*entities.Order, *ports.OrderEvent, entities.License, error) {
	if succeeded {
		if order.Status != entities.OrderStatusPending {
			// Success against an already-settled order is an idempotent
			// no-op by contract.
			return nil, nil, entities.License{}, nil
		}
		license, err := u.Catalog.GetLicense(ctx, order.LicenseID)
		if err != nil {
			return nil, nil, entities.License{}, err
		}
		updated := order
		updated.Status = entities.OrderStatusCompleted
		updated.UpdatedAt = now
		updated.CompletedAt = &now
		if license.DurationDays > 0 {
			expires := now.AddDate(0, 0, license.DurationDays)
			updated.ExpiresAt = &expires
		}
		eventID, err := u.IDGen.NewID(ctx)
		if err != nil {
			return nil, nil, entities.License{}, err
		}
		event := &ports.OrderEvent{
			EventID:      eventID,
			EventType:    EventTypeOrderCompleted,
			OrderID:      order.OrderID,
			BuyerID:      order.BuyerID,
			SellerID:     order.SellerID,
			LicenseID:    order.LicenseID,
			Amount:       order.Amount.String(),
			Currency:     order.Currency,
			PartitionKey: order.OrderID,
			OccurredAt:   now,
		}
		return &updated, event, license, nil
	}

	if order.Status != entities.OrderStatusPending {
		logger.Warn("failed payment against settled order",
			"event", "payment_outcome_anomaly",
			"module", "commerce/order-service",
			"layer", "application",
			"order_id", order.OrderID,
			"order_status", string(order.Status),
		)
		return nil, nil, entities.License{}, nil
	}
	updated := order
	updated.Status = entities.OrderStatusFailed
	updated.UpdatedAt = now
	updated.IsActive = false
	return &updated, nil, entities.License{}, nil
}

// grantEntitlement runs after the ledger transaction committed. A failure
// here leaves the completed order authoritative; the outbox event is the
// reconciliation path, so the error is surfaced in logs, not to the buyer.
func (u RecordPaymentUseCase) grantEntitlement(ctx context.Context, logger *slog.Logger, order entities.Order, license entities.License) {
	if u.Entitlements == nil {
		return
	}
	err := u.Entitlements.GrantOrTopUp(ctx, order.BuyerID, order.LicenseID, license.ProjectID, license.DeploymentLimit, license.DurationDays)
	if err != nil {
		logger.Error("entitlement grant failed after order completion",
			"event", "order_entitlement_grant_failed",
			"module", "commerce/order-service",
			"layer", "application",
			"order_id", order.OrderID,
			"buyer_id", order.BuyerID,
			"license_id", order.LicenseID,
			"error", err.Error(),
		)
	}
}

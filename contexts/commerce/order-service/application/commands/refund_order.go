package commands

import (
	"context"
	"log/slog"
	"strings"

	application "keystone/contexts/commerce/order-service/application"
	"keystone/contexts/commerce/order-service/domain/entities"
	domainerrors "keystone/contexts/commerce/order-service/domain/errors"
	"keystone/contexts/commerce/order-service/ports"
)

type RefundOrderCommand struct {
	OrderID string
	ActorID string
}

type RefundOrderUseCase struct {
	Orders       ports.OrderRepository
	Catalog      ports.LicenseCatalog
	Entitlements ports.EntitlementClient
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Logger       *slog.Logger
}

// Execute refunds a completed order and revokes the entitlement the
// completion granted. Already-consumed deployments are not rolled back.
func (u RefundOrderUseCase) Execute(ctx context.Context, cmd RefundOrderCommand) (entities.Order, error) {
	logger := application.ResolveLogger(u.Logger)
	cmd.OrderID = strings.TrimSpace(cmd.OrderID)
	cmd.ActorID = strings.TrimSpace(cmd.ActorID)
	if cmd.OrderID == "" || cmd.ActorID == "" {
		return entities.Order{}, domainerrors.ErrInvalidOrderRequest
	}

	order, err := u.Orders.GetOrder(ctx, cmd.OrderID)
	if err != nil {
		return entities.Order{}, err
	}
	if !order.CanTransition(entities.OrderStatusRefunded) {
		return entities.Order{}, domainerrors.ErrInvalidTransition
	}

	now := u.Clock.Now().UTC()
	eventID, err := u.IDGen.NewID(ctx)
	if err != nil {
		return entities.Order{}, err
	}
	updated := order
	updated.Status = entities.OrderStatusRefunded
	updated.UpdatedAt = now
	updated.IsActive = false
	event := &ports.OrderEvent{
		EventID:      eventID,
		EventType:    EventTypeOrderRefunded,
		OrderID:      order.OrderID,
		BuyerID:      order.BuyerID,
		SellerID:     order.SellerID,
		LicenseID:    order.LicenseID,
		Amount:       order.Amount.String(),
		Currency:     order.Currency,
		PartitionKey: order.OrderID,
		OccurredAt:   now,
	}
	if err := u.Orders.TransitionOrder(ctx, updated, order.Status, event); err != nil {
		return entities.Order{}, err
	}

	u.revokeEntitlement(ctx, logger, updated)

	logger.Info("order refunded",
		"event", "order_refunded",
		"module", "commerce/order-service",
		"layer", "application",
		"order_id", order.OrderID,
		"actor_id", cmd.ActorID,
		"amount", order.Amount.String(),
		"currency", order.Currency,
	)
	return updated, nil
}

func (u RefundOrderUseCase) revokeEntitlement(ctx context.Context, logger *slog.Logger, order entities.Order) {
	if u.Entitlements == nil {
		return
	}
	projectID := ""
	if license, err := u.Catalog.GetLicense(ctx, order.LicenseID); err == nil {
		projectID = license.ProjectID
	}
	if err := u.Entitlements.RevokeByKey(ctx, order.BuyerID, order.LicenseID, projectID); err != nil {
		logger.Error("entitlement revoke failed after refund",
			"event", "order_entitlement_revoke_failed",
			"module", "commerce/order-service",
			"layer", "application",
			"order_id", order.OrderID,
			"buyer_id", order.BuyerID,
			"license_id", order.LicenseID,
			"error", err.Error(),
		)
	}
}

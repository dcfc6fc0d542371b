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

type CancelOrderCommand struct {
	OrderID string
	ActorID string
}

type CancelOrderUseCase struct {
	Orders ports.OrderRepository
	Clock  ports.Clock
	Logger *slog.Logger
}

// Execute cancels an order. Only pending orders can be cancelled.
func (u CancelOrderUseCase) Execute(ctx context.Context, cmd CancelOrderCommand) (entities.Order, error) {
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
	if !order.CanTransition(entities.OrderStatusCancelled) {
		return entities.Order{}, domainerrors.ErrInvalidTransition
	}

	now := u.Clock.Now().UTC()
	updated := order
	updated.Status = entities.OrderStatusCancelled
	updated.UpdatedAt = now
	updated.IsActive = false
	if err := u.Orders.TransitionOrder(ctx, updated, order.Status, nil); err != nil {
		return entities.Order{}, err
	}

	logger.Info("order cancelled",
		"event", "order_cancelled",
		"module", "commerce/order-service",
		"layer", "application",
		"order_id", order.OrderID,
		"actor_id", cmd.ActorID,
	)
	return updated, nil
}

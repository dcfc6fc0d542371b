package queries

import (
	"context"
	"log/slog"
	"strings"

	"keystone/contexts/commerce/order-service/domain/entities"
	domainerrors "keystone/contexts/commerce/order-service/domain/errors"
	"keystone/contexts/commerce/order-service/ports"
)

type GetOrderUseCase struct {
	Orders ports.OrderRepository
	Logger *slog.Logger
}

func (u GetOrderUseCase) Execute(ctx context.Context, orderID string) (entities.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return entities.Order{}, domainerrors.ErrInvalidOrderRequest
	}
	return u.Orders.GetOrder(ctx, orderID)
}

// GetOrderPaymentsUseCase returns the full attempt history for an order,
// newest first.
type GetOrderPaymentsUseCase struct {
	Orders ports.OrderRepository
	Logger *slog.Logger
}

func (u GetOrderPaymentsUseCase) Execute(ctx context.Context, orderID string) ([]entities.Payment, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, domainerrors.ErrInvalidOrderRequest
	}
	if _, err := u.Orders.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return u.Orders.ListPaymentsByOrder(ctx, orderID)
}

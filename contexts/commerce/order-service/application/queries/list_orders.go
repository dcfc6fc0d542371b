package queries

import (
	"context"
	"log/slog"
	"strings"

	"keystone/contexts/commerce/order-service/domain/entities"
	domainerrors "keystone/contexts/commerce/order-service/domain/errors"
	"keystone/contexts/commerce/order-service/ports"
)

type ListBuyerOrdersUseCase struct {
	Orders ports.OrderRepository
	Logger *slog.Logger
}

func (u ListBuyerOrdersUseCase) Execute(ctx context.Context, buyerID string) ([]entities.Order, error) {
	buyerID = strings.TrimSpace(buyerID)
	if buyerID == "" {
		return nil, domainerrors.ErrInvalidOrderRequest
	}
	return u.Orders.ListOrdersByBuyer(ctx, buyerID)
}

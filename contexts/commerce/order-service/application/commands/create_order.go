package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "keystone/contexts/commerce/order-service/application"
	"keystone/contexts/commerce/order-service/domain/entities"
	domainerrors "keystone/contexts/commerce/order-service/domain/errors"
	"keystone/contexts/commerce/order-service/ports"
)

type CreateOrderCommand struct {
	BuyerID   string
	LicenseID string
	Notes     string
}

type CreateOrderUseCase struct {
	Orders  ports.OrderRepository
	Catalog ports.LicenseCatalog
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

// Execute snapshots the license price/terms and opens a pending order.
// The snapshot is final: later catalog edits never touch existing orders.
func (u CreateOrderUseCase) Execute(ctx context.Context, cmd CreateOrderCommand) (entities.Order, error) {
	logger := application.ResolveLogger(u.Logger)
	cmd.BuyerID = strings.TrimSpace(cmd.BuyerID)
	cmd.LicenseID = strings.TrimSpace(cmd.LicenseID)
	if cmd.BuyerID == "" || cmd.LicenseID == "" {
		return entities.Order{}, domainerrors.ErrInvalidOrderRequest
	}

	license, err := u.Catalog.GetLicense(ctx, cmd.LicenseID)
	if err != nil {
		return entities.Order{}, err
	}
	if !license.IsPurchasable() {
		logger.Warn("order rejected for non-public license",
			"event", "order_create_license_not_purchasable",
			"module", "commerce/order-service",
			"layer", "application",
			"buyer_id", cmd.BuyerID,
			"license_id", cmd.LicenseID,
			"license_status", string(license.Status),
		)
		return entities.Order{}, domainerrors.ErrLicenseNotPurchasable
	}

	orderID, err := u.IDGen.NewID(ctx)
	if err != nil {
		return entities.Order{}, err
	}
	refSuffix, err := u.IDGen.NewID(ctx)
	if err != nil {
		return entities.Order{}, err
	}

	now := u.Clock.Now().UTC()
	order := entities.Order{
		OrderID:         orderID,
		BuyerID:         cmd.BuyerID,
		SellerID:        license.OwnerID,
		LicenseID:       license.LicenseID,
		Amount:          license.Price,
		Currency:        license.Currency,
		Status:          entities.OrderStatusPending,
		ReferenceNumber: referenceNumber(now, refSuffix),
		Notes:           strings.TrimSpace(cmd.Notes),
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := u.Orders.CreateOrder(ctx, order); err != nil {
		return entities.Order{}, err
	}

	logger.Info("order created",
		"event", "order_created",
		"module", "commerce/order-service",
		"layer", "application",
		"order_id", order.OrderID,
		"reference_number", order.ReferenceNumber,
		"buyer_id", order.BuyerID,
		"seller_id", order.SellerID,
		"license_id", order.LicenseID,
		"amount", order.Amount.String(),
		"currency", order.Currency,
	)
	return order, nil
}

// referenceNumber mints the human-facing unique order reference, e.g.
// ORD-20260901-9F2C41AB.
func referenceNumber(now time.Time, seed string) string {
	compact := strings.ToUpper(strings.ReplaceAll(seed, "-", ""))
	if len(compact) > 8 {
		compact = compact[:8]
	}
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), compact)
}

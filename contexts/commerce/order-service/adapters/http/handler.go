package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"keystone/contexts/commerce/order-service/application/commands"
	"keystone/contexts/commerce/order-service/application/queries"
	"keystone/contexts/commerce/order-service/domain/entities"
	domainerrors "keystone/contexts/commerce/order-service/domain/errors"
	httptransport "keystone/contexts/commerce/order-service/transport/http"
)

type Handler struct {
	CreateOrder   commands.CreateOrderUseCase
	RecordPayment commands.RecordPaymentUseCase
	CancelOrder   commands.CancelOrderUseCase
	RefundOrder   commands.RefundOrderUseCase
	GetOrder      queries.GetOrderUseCase
	GetPayments   queries.GetOrderPaymentsUseCase
	ListOrders    queries.ListBuyerOrdersUseCase
	Logger        *slog.Logger
}

func (h Handler) CreateOrderHandler(ctx context.Context, buyerID string, req httptransport.CreateOrderRequest) (httptransport.OrderResponse, error) {
	order, err := h.CreateOrder.Execute(ctx, commands.CreateOrderCommand{
		BuyerID:   buyerID,
		LicenseID: strings.TrimSpace(req.LicenseID),
		Notes:     req.Notes,
	})
	if err != nil {
		return httptransport.OrderResponse{}, err
	}
	return orderResponse(order), nil
}

func (h Handler) RecordPaymentHandler(ctx context.Context, req httptransport.RecordPaymentRequest) (httptransport.PaymentResponse, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		return httptransport.PaymentResponse{}, domainerrors.ErrInvalidPaymentRequest
	}
	result, err := h.RecordPayment.Execute(ctx, commands.RecordPaymentCommand{
		OrderID:         req.OrderID,
		Amount:          amount,
		Currency:        req.Currency,
		Method:          req.Method,
		TransactionID:   req.TransactionID,
		GatewayResponse: req.GatewayResponse,
		Succeeded:       req.Succeeded,
	})
	if err != nil {
		return httptransport.PaymentResponse{}, err
	}
	resp := httptransport.PaymentResponse{Status: "success", Timestamp: time.Now().UTC().Format(time.RFC3339)}
	resp.Data.Payment = paymentPayload(result.Payment)
	resp.Data.Order = orderPayload(result.Order)
	resp.Data.Replayed = result.Replayed
	return resp, nil
}

func (h Handler) CancelOrderHandler(ctx context.Context, actorID string, orderID string) (httptransport.OrderResponse, error) {
	order, err := h.CancelOrder.Execute(ctx, commands.CancelOrderCommand{OrderID: orderID, ActorID: actorID})
	if err != nil {
		return httptransport.OrderResponse{}, err
	}
	return orderResponse(order), nil
}

func (h Handler) RefundOrderHandler(ctx context.Context, actorID string, orderID string) (httptransport.OrderResponse, error) {
	order, err := h.RefundOrder.Execute(ctx, commands.RefundOrderCommand{OrderID: orderID, ActorID: actorID})
	if err != nil {
		return httptransport.OrderResponse{}, err
	}
	return orderResponse(order), nil
}

func (h Handler) GetOrderHandler(ctx context.Context, orderID string) (httptransport.OrderResponse, error) {
	order, err := h.GetOrder.Execute(ctx, orderID)
	if err != nil {
		return httptransport.OrderResponse{}, err
	}
	return orderResponse(order), nil
}

func (h Handler) ListPaymentsHandler(ctx context.Context, orderID string) (httptransport.PaymentListResponse, error) {
	payments, err := h.GetPayments.Execute(ctx, orderID)
	if err != nil {
		return httptransport.PaymentListResponse{}, err
	}
	resp := httptransport.PaymentListResponse{Status: "success", Timestamp: time.Now().UTC().Format(time.RFC3339)}
	resp.Data.Payments = make([]httptransport.PaymentPayload, 0, len(payments))
	for _, payment := range payments {
		resp.Data.Payments = append(resp.Data.Payments, paymentPayload(payment))
	}
	return resp, nil
}

func (h Handler) ListOrdersHandler(ctx context.Context, buyerID string) (httptransport.OrderListResponse, error) {
	orders, err := h.ListOrders.Execute(ctx, buyerID)
	if err != nil {
		return httptransport.OrderListResponse{}, err
	}
	resp := httptransport.OrderListResponse{Status: "success", Timestamp: time.Now().UTC().Format(time.RFC3339)}
	resp.Data.Orders = make([]httptransport.OrderPayload, 0, len(orders))
	for _, order := range orders {
		resp.Data.Orders = append(resp.Data.Orders, orderPayload(order))
	}
	return resp, nil
}

func orderResponse(order entities.Order) httptransport.OrderResponse {
	return httptransport.OrderResponse{
		Status:    "success",
		Data:      orderPayload(order),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func orderPayload(order entities.Order) httptransport.OrderPayload {
	payload := httptransport.OrderPayload{
		OrderID:         order.OrderID,
		BuyerID:         order.BuyerID,
		SellerID:        order.SellerID,
		LicenseID:       order.LicenseID,
		Amount:          order.Amount.String(),
		Currency:        order.Currency,
		OrderStatus:     string(order.Status),
		ReferenceNumber: order.ReferenceNumber,
		Notes:           order.Notes,
		IsActive:        order.IsActive,
		CreatedAt:       order.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       order.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if order.CompletedAt != nil {
		payload.CompletedAt = order.CompletedAt.UTC().Format(time.RFC3339)
	}
	if order.ExpiresAt != nil {
		payload.ExpiresAt = order.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return payload
}

func paymentPayload(payment entities.Payment) httptransport.PaymentPayload {
	payload := httptransport.PaymentPayload{
		PaymentID:     payment.PaymentID,
		OrderID:       payment.OrderID,
		Amount:        payment.Amount.String(),
		Currency:      payment.Currency,
		Method:        payment.Method,
		PaymentStatus: string(payment.Status),
		TransactionID: payment.TransactionID,
		CreatedAt:     payment.CreatedAt.UTC().Format(time.RFC3339),
	}
	if payment.ProcessedAt != nil {
		payload.ProcessedAt = payment.ProcessedAt.UTC().Format(time.RFC3339)
	}
	return payload
}

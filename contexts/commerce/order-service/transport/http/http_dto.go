package http

import "encoding/json"

type CreateOrderRequest struct {
	LicenseID string `json:"license_id"`
	Notes     string `json:"notes,omitempty"`
}

type RecordPaymentRequest struct {
	OrderID         string          `json:"order_id"`
	Amount          string          `json:"amount"`
	Currency        string          `json:"currency"`
	Method          string          `json:"method"`
	TransactionID   string          `json:"transaction_id"`
	GatewayResponse json.RawMessage `json:"gateway_response,omitempty"`
	Succeeded       bool            `json:"succeeded"`
}

type OrderPayload struct {
	OrderID         string `json:"order_id"`
	BuyerID         string `json:"buyer_id"`
	SellerID        string `json:"seller_id"`
	LicenseID       string `json:"license_id"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	OrderStatus     string `json:"order_status"`
	ReferenceNumber string `json:"reference_number"`
	Notes           string `json:"notes,omitempty"`
	IsActive        bool   `json:"is_active"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
	CompletedAt     string `json:"completed_at,omitempty"`
	ExpiresAt       string `json:"expires_at,omitempty"`
}

type PaymentPayload struct {
	PaymentID     string `json:"payment_id"`
	OrderID       string `json:"order_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Method        string `json:"method"`
	PaymentStatus string `json:"payment_status"`
	TransactionID string `json:"transaction_id"`
	CreatedAt     string `json:"created_at"`
	ProcessedAt   string `json:"processed_at,omitempty"`
}

type OrderResponse struct {
	Status    string       `json:"status"`
	Data      OrderPayload `json:"data"`
	Timestamp string       `json:"timestamp"`
}

type OrderListResponse struct {
	Status string `json:"status"`
	Data   struct {
		Orders []OrderPayload `json:"orders"`
	} `json:"data"`
	Timestamp string `json:"timestamp"`
}

type PaymentListResponse struct {
	Status string `json:"status"`
	Data   struct {
		Payments []PaymentPayload `json:"payments"`
	} `json:"data"`
	Timestamp string `json:"timestamp"`
}

type PaymentResponse struct {
	Status string `json:"status"`
	Data   struct {
		Payment  PaymentPayload `json:"payment"`
		Order    OrderPayload   `json:"order"`
		Replayed bool           `json:"replayed"`
	} `json:"data"`
	Timestamp string `json:"timestamp"`
}

package httpserver

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	entitlementhttp "keystone/contexts/commerce/entitlement-service/transport/http"
	orderhttp "keystone/contexts/commerce/order-service/transport/http"
	analyticshttp "keystone/contexts/commerce/sales-analytics/transport/http"
)

func TestCreateOrderRequiresUserHeader(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPost, "/api/v1/orders", "", orderhttp.CreateOrderRequest{LicenseID: "lic-1"}, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
	if code := decodeErrorCode(t, rr); code != "missing_user" {
		t.Fatalf("error code = %s, want missing_user", code)
	}
}

func TestCreateOrderUnknownLicense(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPost, "/api/v1/orders", "buyer-1", orderhttp.CreateOrderRequest{LicenseID: "lic-nope"}, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestOrderPaymentEntitlementFlow(t *testing.T) {
	server := newTestServer()

	var created orderhttp.OrderResponse
	rr := doJSON(t, server, http.MethodPost, "/api/v1/orders", "buyer-1", orderhttp.CreateOrderRequest{LicenseID: "lic-1"}, &created)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create order: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	orderID := created.Data.OrderID
	if created.Data.OrderStatus != "pending" || created.Data.Amount != "100" && created.Data.Amount != "100.00" {
		t.Fatalf("created order = %+v", created.Data)
	}

	var paid orderhttp.PaymentResponse
	rr = doJSON(t, server, http.MethodPost, "/api/v1/payments", "buyer-1", orderhttp.RecordPaymentRequest{
		OrderID:       orderID,
		Amount:        "100.00",
		Currency:      "USD",
		Method:        "card",
		TransactionID: "txn-1",
		Succeeded:     true,
	}, &paid)
	if rr.Code != http.StatusOK {
		t.Fatalf("record payment: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if paid.Data.Order.OrderStatus != "completed" || paid.Data.Payment.PaymentStatus != "completed" {
		t.Fatalf("payment result = %+v", paid.Data)
	}

	var list entitlementhttp.EntitlementListResponse
	rr = doJSON(t, server, http.MethodGet, "/api/v1/entitlements", "buyer-1", nil, &list)
	if rr.Code != http.StatusOK {
		t.Fatalf("list entitlements: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if len(list.Data.Entitlements) != 1 {
		t.Fatalf("entitlements = %d, want 1", len(list.Data.Entitlements))
	}
	granted := list.Data.Entitlements[0]
	if granted.DeploymentsAllowed != 2 || granted.EntitlementStatus != "active" {
		t.Fatalf("granted = %+v", granted)
	}

	var consumed entitlementhttp.ConsumeResponse
	rr = doJSON(t, server, http.MethodPost, "/api/v1/entitlements/"+granted.EntitlementID+"/consume", "buyer-1", nil, &consumed)
	if rr.Code != http.StatusOK {
		t.Fatalf("consume: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if consumed.Data.Remaining != 1 {
		t.Fatalf("remaining = %d, want 1", consumed.Data.Remaining)
	}

	var payments orderhttp.PaymentListResponse
	rr = doJSON(t, server, http.MethodGet, "/api/v1/orders/"+orderID+"/payments", "buyer-1", nil, &payments)
	if rr.Code != http.StatusOK {
		t.Fatalf("list payments: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if len(payments.Data.Payments) != 1 || payments.Data.Payments[0].TransactionID != "txn-1" {
		t.Fatalf("payments = %+v", payments.Data.Payments)
	}
}

func TestRecordPaymentAmountMismatchIsUnprocessable(t *testing.T) {
	server := newTestServer()

	var created orderhttp.OrderResponse
	doJSON(t, server, http.MethodPost, "/api/v1/orders", "buyer-1", orderhttp.CreateOrderRequest{LicenseID: "lic-1"}, &created)

	rr := doJSON(t, server, http.MethodPost, "/api/v1/payments", "buyer-1", orderhttp.RecordPaymentRequest{
		OrderID:       created.Data.OrderID,
		Amount:        "99.99",
		Currency:      "USD",
		Method:        "card",
		TransactionID: "txn-1",
		Succeeded:     true,
	}, nil)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rr.Code, rr.Body.String())
	}
	if code := decodeErrorCode(t, rr); code != "payment_amount_mismatch" {
		t.Fatalf("error code = %s, want payment_amount_mismatch", code)
	}
}

func TestCancelCompletedOrderConflicts(t *testing.T) {
	server := newTestServer()

	var created orderhttp.OrderResponse
	doJSON(t, server, http.MethodPost, "/api/v1/orders", "buyer-1", orderhttp.CreateOrderRequest{LicenseID: "lic-1"}, &created)
	doJSON(t, server, http.MethodPost, "/api/v1/payments", "buyer-1", orderhttp.RecordPaymentRequest{
		OrderID:       created.Data.OrderID,
		Amount:        "100.00",
		Currency:      "USD",
		Method:        "card",
		TransactionID: "txn-1",
		Succeeded:     true,
	}, nil)

	rr := doJSON(t, server, http.MethodPost, "/api/v1/orders/"+created.Data.OrderID+"/cancel", "buyer-1", nil, nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}
	if code := decodeErrorCode(t, rr); code != "invalid_transition" {
		t.Fatalf("error code = %s, want invalid_transition", code)
	}
}

func TestSalesSummaryReflectsCompletedOrders(t *testing.T) {
	server := newTestServer()

	var created orderhttp.OrderResponse
	doJSON(t, server, http.MethodPost, "/api/v1/orders", "buyer-1", orderhttp.CreateOrderRequest{LicenseID: "lic-1"}, &created)
	doJSON(t, server, http.MethodPost, "/api/v1/payments", "buyer-1", orderhttp.RecordPaymentRequest{
		OrderID:       created.Data.OrderID,
		Amount:        "100.00",
		Currency:      "USD",
		Method:        "card",
		TransactionID: "txn-1",
		Succeeded:     true,
	}, nil)

	now := time.Now().UTC()
	query := url.Values{}
	query.Set("start", now.Add(-time.Hour).Format(time.RFC3339))
	query.Set("end", now.Add(time.Hour).Format(time.RFC3339))

	var summary analyticshttp.SummaryResponse
	rr := doJSON(t, server, http.MethodGet, "/api/v1/sales/analytics?"+query.Encode(), "seller-1", nil, &summary)
	if rr.Code != http.StatusOK {
		t.Fatalf("summary: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if summary.Data.TotalOrders != 1 {
		t.Fatalf("total orders = %d, want 1", summary.Data.TotalOrders)
	}
	if summary.Data.TotalRevenue != "100" && summary.Data.TotalRevenue != "100.00" {
		t.Fatalf("total revenue = %s, want 100", summary.Data.TotalRevenue)
	}
}

func TestSalesTrendsAcceptsCamelCaseParams(t *testing.T) {
	server := newTestServer()

	var created orderhttp.OrderResponse
	doJSON(t, server, http.MethodPost, "/api/v1/orders", "buyer-1", orderhttp.CreateOrderRequest{LicenseID: "lic-1"}, &created)
	doJSON(t, server, http.MethodPost, "/api/v1/payments", "buyer-1", orderhttp.RecordPaymentRequest{
		OrderID:       created.Data.OrderID,
		Amount:        "100.00",
		Currency:      "USD",
		Method:        "card",
		TransactionID: "txn-camel",
		Succeeded:     true,
	}, nil)

	now := time.Now().UTC()
	query := url.Values{}
	query.Set("startDate", now.Add(-time.Hour).Format(time.RFC3339))
	query.Set("endDate", now.Add(time.Hour).Format(time.RFC3339))
	query.Set("groupBy", "week")

	var trends analyticshttp.TrendsResponse
	rr := doJSON(t, server, http.MethodGet, "/api/v1/sales/trends?"+query.Encode(), "seller-1", nil, &trends)
	if rr.Code != http.StatusOK {
		t.Fatalf("trends: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if trends.Data.Granularity != "week" {
		t.Fatalf("granularity = %s, want week", trends.Data.Granularity)
	}
	total := 0
	for _, point := range trends.Data.Points {
		total += point.OrderCount
	}
	if total != 1 {
		t.Fatalf("bucketed orders = %d, want 1", total)
	}
}

func TestSalesWindowValidation(t *testing.T) {
	server := newTestServer()
	target := fmt.Sprintf("/api/v1/sales/analytics?start=%s&end=%s", "2026-03-08", "2026-03-01")
	rr := doJSON(t, server, http.MethodGet, target, "seller-1", nil, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

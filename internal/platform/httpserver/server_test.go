package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	listingservice "keystone/contexts/catalog/listing-service"
	entitlementservice "keystone/contexts/commerce/entitlement-service"
	entitlementports "keystone/contexts/commerce/entitlement-service/ports"
	orderservice "keystone/contexts/commerce/order-service"
	ordermemory "keystone/contexts/commerce/order-service/adapters/memory"
	orderentities "keystone/contexts/commerce/order-service/domain/entities"
	salesanalytics "keystone/contexts/commerce/sales-analytics"
	analyticsports "keystone/contexts/commerce/sales-analytics/ports"
)

// entitlementClientStub routes the order context's entitlement calls to
// the in-process entitlement service, mirroring the bootstrap wiring.
type entitlementClientStub struct {
	module entitlementservice.Module
}

func (c entitlementClientStub) GrantOrTopUp(ctx context.Context, userID, licenseID, projectID string, deploymentLimit, durationDays int) error {
	_, err := c.module.Service.GrantOrTopUp(ctx, entitlementports.GrantInput{
		UserID:          userID,
		LicenseID:       licenseID,
		ProjectID:       projectID,
		DeploymentLimit: deploymentLimit,
		DurationDays:    durationDays,
	})
	return err
}

func (c entitlementClientStub) RevokeByKey(ctx context.Context, userID, licenseID, projectID string) error {
	_, err := c.module.Service.RevokeByKey(ctx, userID, licenseID, projectID)
	return err
}

type orderReaderStub struct {
	store *ordermemory.Store
}

func (r orderReaderStub) ListOrdersBySeller(ctx context.Context, sellerID string, start, end time.Time) ([]analyticsports.OrderRecord, error) {
	orders, err := r.store.ListOrdersBySeller(ctx, sellerID, start, end)
	if err != nil {
		return nil, err
	}
	records := make([]analyticsports.OrderRecord, 0, len(orders))
	for _, order := range orders {
		records = append(records, analyticsports.OrderRecord{
			OrderID:   order.OrderID,
			SellerID:  order.SellerID,
			LicenseID: order.LicenseID,
			Amount:    order.Amount,
			Currency:  order.Currency,
			Status:    string(order.Status),
			CreatedAt: order.CreatedAt,
		})
	}
	return records, nil
}

func newTestServer() *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	entitlements := entitlementservice.NewInMemoryModule(logger)
	orders := orderservice.NewInMemoryModule([]orderentities.License{
		{
			LicenseID:       "lic-1",
			OwnerID:         "seller-1",
			ProjectID:       "proj-1",
			Price:           decimal.RequireFromString("100.00"),
			Currency:        "USD",
			DeploymentLimit: 2,
			DurationDays:    30,
			Status:          orderentities.LicenseStatusPublic,
		},
	}, entitlementClientStub{module: entitlements}, logger)
	listings := listingservice.NewInMemoryModule(logger)
	analytics := salesanalytics.NewModule(salesanalytics.Dependencies{
		Orders: orderReaderStub{store: orders.Store},
		Logger: logger,
	})
	return New(orders, entitlements, listings, analytics, logger, ":0")
}

func doJSON(t *testing.T, server *Server, method, target, userID string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode request: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if out != nil && rr.Code < http.StatusBadRequest {
		if err := json.Unmarshal(rr.Body.Bytes(), out); err != nil {
			t.Fatalf("decode response %s: %v", rr.Body.String(), err)
		}
	}
	return rr
}

func decodeErrorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope errorEnvelope
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope %s: %v", rr.Body.String(), err)
	}
	return envelope.Error.Code
}

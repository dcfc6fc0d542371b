package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	listingservice "keystone/contexts/catalog/listing-service"
	entitlementservice "keystone/contexts/commerce/entitlement-service"
	orderservice "keystone/contexts/commerce/order-service"
	salesanalytics "keystone/contexts/commerce/sales-analytics"
)

type Server struct {
	mux          *http.ServeMux
	logger       *slog.Logger
	addr         string
	orders       orderservice.Module
	entitlements entitlementservice.Module
	listings     listingservice.Module
	analytics    salesanalytics.Module
}

func New(
	orders orderservice.Module,
	entitlements entitlementservice.Module,
	listings listingservice.Module,
	analytics salesanalytics.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:          http.NewServeMux(),
		logger:       logger,
		addr:         addr,
		orders:       orders,
		entitlements: entitlements,
		listings:     listings,
		analytics:    analytics,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the routing table for httptest-driven tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/v1/orders", s.handleCreateOrder)
	s.mux.HandleFunc("GET /api/v1/orders", s.handleListOrders)
	s.mux.HandleFunc("GET /api/v1/orders/{order_id}", s.handleGetOrder)
	s.mux.HandleFunc("GET /api/v1/orders/{order_id}/payments", s.handleListPayments)
	s.mux.HandleFunc("POST /api/v1/orders/{order_id}/cancel", s.handleCancelOrder)
	s.mux.HandleFunc("POST /api/v1/orders/{order_id}/refund", s.handleRefundOrder)
	s.mux.HandleFunc("POST /api/v1/payments", s.handleRecordPayment)

	s.mux.HandleFunc("POST /api/v1/entitlements", s.handleGrantEntitlement)
	s.mux.HandleFunc("GET /api/v1/entitlements", s.handleListEntitlements)
	s.mux.HandleFunc("GET /api/v1/entitlements/{entitlement_id}", s.handleGetEntitlement)
	s.mux.HandleFunc("POST /api/v1/entitlements/{entitlement_id}/consume", s.handleConsumeEntitlement)
	s.mux.HandleFunc("POST /api/v1/entitlements/{entitlement_id}/revoke", s.handleRevokeEntitlement)

	s.mux.HandleFunc("POST /api/v1/projects", s.handleCreateProject)
	s.mux.HandleFunc("GET /api/v1/projects", s.handleListProjects)
	s.mux.HandleFunc("GET /api/v1/projects/{project_id}", s.handleGetProject)
	s.mux.HandleFunc("POST /api/v1/projects/{project_id}/submit", s.handleSubmitForReview)
	s.mux.HandleFunc("PATCH /api/v1/projects/{project_id}/submit-changes", s.handleSubmitChanges)
	s.mux.HandleFunc("PATCH /api/v1/projects/{project_id}/moderate", s.handleModerateProject)
	s.mux.HandleFunc("GET /api/v1/projects/{project_id}/diff", s.handlePendingDiff)

	s.mux.HandleFunc("GET /api/v1/sales/analytics", s.handleSalesSummary)
	s.mux.HandleFunc("GET /api/v1/sales/trends", s.handleSalesTrends)
	s.mux.HandleFunc("GET /api/v1/sales/top-licenses", s.handleTopLicenses)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Status    string    `json:"status"`
	Error     errorBody `json:"error"`
	Timestamp string    `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, errorEnvelope{
		Status:    "error",
		Error:     errorBody{Code: code, Message: message},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// requireUser resolves the caller from the X-User-Id header. Identity
// is an explicit parameter; there is no ambient session state.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

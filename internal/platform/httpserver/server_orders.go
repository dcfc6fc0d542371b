package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	ordererrors "keystone/contexts/commerce/order-service/domain/errors"
	orderhttp "keystone/contexts/commerce/order-service/transport/http"
)

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req orderhttp.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.orders.Handler.CreateOrderHandler(r.Context(), buyerID, req)
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	buyerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.orders.Handler.ListOrdersHandler(r.Context(), buyerID)
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	resp, err := s.orders.Handler.GetOrderHandler(r.Context(), r.PathValue("order_id"))
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	resp, err := s.orders.Handler.ListPaymentsHandler(r.Context(), r.PathValue("order_id"))
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.orders.Handler.CancelOrderHandler(r.Context(), actorID, r.PathValue("order_id"))
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRefundOrder(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.orders.Handler.RefundOrderHandler(r.Context(), actorID, r.PathValue("order_id"))
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var req orderhttp.RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.orders.Handler.RecordPaymentHandler(r.Context(), req)
	if err != nil {
		writeOrderDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeOrderDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ordererrors.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, ordererrors.ErrLicenseNotFound):
		writeError(w, http.StatusNotFound, "license_not_found", err.Error())
	case errors.Is(err, ordererrors.ErrPaymentNotFound):
		writeError(w, http.StatusNotFound, "payment_not_found", err.Error())
	case errors.Is(err, ordererrors.ErrInvalidOrderRequest):
		writeError(w, http.StatusBadRequest, "invalid_order_request", err.Error())
	case errors.Is(err, ordererrors.ErrInvalidPaymentRequest):
		writeError(w, http.StatusBadRequest, "invalid_payment_request", err.Error())
	case errors.Is(err, ordererrors.ErrLicenseNotPurchasable):
		writeError(w, http.StatusConflict, "license_not_purchasable", err.Error())
	case errors.Is(err, ordererrors.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, ordererrors.ErrDuplicatePayment):
		writeError(w, http.StatusConflict, "duplicate_payment", err.Error())
	case errors.Is(err, ordererrors.ErrConcurrentOrderUpdate):
		writeError(w, http.StatusConflict, "concurrent_update", err.Error())
	case errors.Is(err, ordererrors.ErrPaymentAmountMismatch):
		writeError(w, http.StatusUnprocessableEntity, "payment_amount_mismatch", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

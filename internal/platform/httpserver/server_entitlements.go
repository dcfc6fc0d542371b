package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	entitlementerrors "keystone/contexts/commerce/entitlement-service/domain/errors"
	entitlementhttp "keystone/contexts/commerce/entitlement-service/transport/http"
)

func (s *Server) handleGrantEntitlement(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	var req entitlementhttp.GrantEntitlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.entitlements.Handler.GrantHandler(r.Context(), req)
	if err != nil {
		writeEntitlementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListEntitlements(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.entitlements.Handler.ListHandler(r.Context(), userID)
	if err != nil {
		writeEntitlementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetEntitlement(w http.ResponseWriter, r *http.Request) {
	resp, err := s.entitlements.Handler.GetHandler(r.Context(), r.PathValue("entitlement_id"))
	if err != nil {
		writeEntitlementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConsumeEntitlement(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	resp, err := s.entitlements.Handler.ConsumeHandler(r.Context(), r.PathValue("entitlement_id"))
	if err != nil {
		writeEntitlementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRevokeEntitlement(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	resp, err := s.entitlements.Handler.RevokeHandler(r.Context(), r.PathValue("entitlement_id"))
	if err != nil {
		writeEntitlementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeEntitlementDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entitlementerrors.ErrEntitlementNotFound):
		writeError(w, http.StatusNotFound, "entitlement_not_found", err.Error())
	case errors.Is(err, entitlementerrors.ErrInvalidEntitlementRequest):
		writeError(w, http.StatusBadRequest, "invalid_entitlement_request", err.Error())
	case errors.Is(err, entitlementerrors.ErrQuotaExceeded):
		writeError(w, http.StatusConflict, "quota_exceeded", err.Error())
	case errors.Is(err, entitlementerrors.ErrEntitlementExpired):
		writeError(w, http.StatusGone, "entitlement_expired", err.Error())
	case errors.Is(err, entitlementerrors.ErrEntitlementRevoked):
		writeError(w, http.StatusForbidden, "entitlement_revoked", err.Error())
	case errors.Is(err, entitlementerrors.ErrConcurrentEntitlementUpdate):
		writeError(w, http.StatusConflict, "concurrent_update", err.Error())
	case errors.Is(err, entitlementerrors.ErrDuplicateEntitlementKey):
		writeError(w, http.StatusConflict, "duplicate_entitlement", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

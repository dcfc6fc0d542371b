package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"keystone/contexts/commerce/entitlement-service/application"
	"keystone/contexts/commerce/entitlement-service/domain/entities"
	"keystone/contexts/commerce/entitlement-service/ports"
	httptransport "keystone/contexts/commerce/entitlement-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) GrantHandler(ctx context.Context, req httptransport.GrantEntitlementRequest) (httptransport.EntitlementResponse, error) {
	entitlement, err := h.Service.GrantOrTopUp(ctx, grantInput(req))
	if err != nil {
		return httptransport.EntitlementResponse{}, err
	}
	return entitlementResponse(entitlement), nil
}

func (h Handler) ConsumeHandler(ctx context.Context, entitlementID string) (httptransport.ConsumeResponse, error) {
	result, err := h.Service.Consume(ctx, entitlementID)
	if err != nil {
		return httptransport.ConsumeResponse{}, err
	}
	resp := httptransport.ConsumeResponse{Status: "success", Timestamp: time.Now().UTC().Format(time.RFC3339)}
	resp.Data.Entitlement = entitlementPayload(result.Entitlement)
	resp.Data.Remaining = result.Remaining
	resp.Data.Unlimited = result.Unlimited
	return resp, nil
}

func (h Handler) RevokeHandler(ctx context.Context, entitlementID string) (httptransport.EntitlementResponse, error) {
	entitlement, err := h.Service.Revoke(ctx, entitlementID)
	if err != nil {
		return httptransport.EntitlementResponse{}, err
	}
	return entitlementResponse(entitlement), nil
}

func (h Handler) GetHandler(ctx context.Context, entitlementID string) (httptransport.EntitlementResponse, error) {
	entitlement, err := h.Service.Get(ctx, entitlementID)
	if err != nil {
		return httptransport.EntitlementResponse{}, err
	}
	return entitlementResponse(entitlement), nil
}

func (h Handler) ListHandler(ctx context.Context, userID string) (httptransport.EntitlementListResponse, error) {
	entitlements, err := h.Service.ListByUser(ctx, userID)
	if err != nil {
		return httptransport.EntitlementListResponse{}, err
	}
	resp := httptransport.EntitlementListResponse{Status: "success", Timestamp: time.Now().UTC().Format(time.RFC3339)}
	resp.Data.Entitlements = make([]httptransport.EntitlementPayload, 0, len(entitlements))
	for _, entitlement := range entitlements {
		resp.Data.Entitlements = append(resp.Data.Entitlements, entitlementPayload(entitlement))
	}
	return resp, nil
}

func grantInput(req httptransport.GrantEntitlementRequest) ports.GrantInput {
	return ports.GrantInput{
		UserID:          strings.TrimSpace(req.UserID),
		LicenseID:       strings.TrimSpace(req.LicenseID),
		ProjectID:       strings.TrimSpace(req.ProjectID),
		DeploymentLimit: req.DeploymentLimit,
		DurationDays:    req.DurationDays,
	}
}

func entitlementResponse(entitlement entities.Entitlement) httptransport.EntitlementResponse {
	return httptransport.EntitlementResponse{
		Status:    "success",
		Data:      entitlementPayload(entitlement),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func entitlementPayload(entitlement entities.Entitlement) httptransport.EntitlementPayload {
	payload := httptransport.EntitlementPayload{
		EntitlementID:      entitlement.EntitlementID,
		UserID:             entitlement.UserID,
		LicenseID:          entitlement.LicenseID,
		ProjectID:          entitlement.ProjectID,
		DeploymentsUsed:    entitlement.DeploymentsUsed,
		DeploymentsAllowed: entitlement.DeploymentsAllowed,
		Remaining:          entitlement.Remaining(),
		EntitlementStatus:  string(entitlement.Status),
		CreatedAt:          entitlement.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          entitlement.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if entitlement.ExpiresAt != nil {
		payload.ExpiresAt = entitlement.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return payload
}

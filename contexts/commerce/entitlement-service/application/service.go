package application

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"keystone/contexts/commerce/entitlement-service/domain/entities"
	domainerrors "keystone/contexts/commerce/entitlement-service/domain/errors"
	"keystone/contexts/commerce/entitlement-service/ports"
)

// consumeRetries bounds the optimistic CAS loop. Contention on a single
// entitlement row is short-lived; anything beyond this is surfaced.
const consumeRetries = 5

type Service struct {
	Repo   ports.Repository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

// GrantOrTopUp creates the entitlement for (user, license, project) or
// stacks a repeat purchase onto it: capacity accumulates (unlimited is
// absorbing) and expiry extends from the later of now or the current
// expiry. A lapsed or revoked grant re-activates; consumed quota is never
// reset.
func (s Service) GrantOrTopUp(ctx context.Context, input ports.GrantInput) (entities.Entitlement, error) {
	logger := resolveLogger(s.Logger)
	input.UserID = strings.TrimSpace(input.UserID)
	input.LicenseID = strings.TrimSpace(input.LicenseID)
	input.ProjectID = strings.TrimSpace(input.ProjectID)
	if input.UserID == "" || input.LicenseID == "" || input.DeploymentLimit < 0 || input.DurationDays < 0 {
		return entities.Entitlement{}, domainerrors.ErrInvalidEntitlementRequest
	}

	now := s.now()
	existing, found, err := s.Repo.GetByKey(ctx, input.UserID, input.LicenseID, input.ProjectID)
	if err != nil {
		return entities.Entitlement{}, err
	}
	if !found {
		return s.create(ctx, logger, input, now)
	}

	updated := existing
	updated.Status = entities.EntitlementStatusActive
	updated.DeploymentsAllowed = stackCapacity(existing.DeploymentsAllowed, input.DeploymentLimit)
	updated.ExpiresAt = stackExpiry(existing.ExpiresAt, input.DurationDays, now)
	updated.UpdatedAt = now
	updated.Version = existing.Version + 1
	if err := s.Repo.UpdateGuarded(ctx, updated, existing.Version); err != nil {
		return entities.Entitlement{}, err
	}

	logger.Info("entitlement topped up",
		"event", "entitlement_topped_up",
		"module", "commerce/entitlement-service",
		"layer", "application",
		"entitlement_id", updated.EntitlementID,
		"user_id", updated.UserID,
		"license_id", updated.LicenseID,
		"deployments_allowed", updated.DeploymentsAllowed,
		"deployments_used", updated.DeploymentsUsed,
	)
	return updated, nil
}

func (s Service) create(ctx context.Context, logger *slog.Logger, input ports.GrantInput, now time.Time) (entities.Entitlement, error) {
	entitlementID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Entitlement{}, err
	}
	entitlement := entities.Entitlement{
		EntitlementID:      entitlementID,
		UserID:             input.UserID,
		LicenseID:          input.LicenseID,
		ProjectID:          input.ProjectID,
		DeploymentsUsed:    0,
		DeploymentsAllowed: input.DeploymentLimit,
		Status:             entities.EntitlementStatusActive,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if input.DurationDays > 0 {
		expires := now.AddDate(0, 0, input.DurationDays)
		entitlement.ExpiresAt = &expires
	}
	if err := s.Repo.Create(ctx, entitlement); err != nil {
		if errors.Is(err, domainerrors.ErrDuplicateEntitlementKey) {
			// Lost a create race; retry as a top-up against the winner.
			return s.GrantOrTopUp(ctx, input)
		}
		return entities.Entitlement{}, err
	}

	logger.Info("entitlement granted",
		"event", "entitlement_granted",
		"module", "commerce/entitlement-service",
		"layer", "application",
		"entitlement_id", entitlement.EntitlementID,
		"user_id", entitlement.UserID,
		"license_id", entitlement.LicenseID,
		"deployments_allowed", entitlement.DeploymentsAllowed,
	)
	return entitlement, nil
}

// Consume is the atomic check-and-increment: under any concurrent call
// pattern at most Remaining callers succeed. Expiry is evaluated here,
// lazily, and the row is marked expired as a side effect.
func (s Service) Consume(ctx context.Context, entitlementID string) (ports.ConsumeResult, error) {
	logger := resolveLogger(s.Logger)
	entitlementID = strings.TrimSpace(entitlementID)
	if entitlementID == "" {
		return ports.ConsumeResult{}, domainerrors.ErrInvalidEntitlementRequest
	}

	var lastErr error
	for attempt := 0; attempt < consumeRetries; attempt++ {
		entitlement, err := s.Repo.Get(ctx, entitlementID)
		if err != nil {
			return ports.ConsumeResult{}, err
		}
		now := s.now()

		switch entitlement.Status {
		case entities.EntitlementStatusRevoked:
			return ports.ConsumeResult{}, domainerrors.ErrEntitlementRevoked
		case entities.EntitlementStatusExpired:
			return ports.ConsumeResult{}, domainerrors.ErrEntitlementExpired
		}
		if entitlement.ExpiredAt(now) {
			expired := entitlement
			expired.Status = entities.EntitlementStatusExpired
			expired.UpdatedAt = now
			expired.Version = entitlement.Version + 1
			if err := s.Repo.UpdateGuarded(ctx, expired, entitlement.Version); err != nil &&
				!errors.Is(err, domainerrors.ErrConcurrentEntitlementUpdate) {
				return ports.ConsumeResult{}, err
			}
			return ports.ConsumeResult{}, domainerrors.ErrEntitlementExpired
		}
		if entitlement.QuotaExhausted() {
			return ports.ConsumeResult{}, domainerrors.ErrQuotaExceeded
		}

		updated := entitlement
		updated.DeploymentsUsed = entitlement.DeploymentsUsed + 1
		updated.UpdatedAt = now
		updated.Version = entitlement.Version + 1
		if err := s.Repo.UpdateGuarded(ctx, updated, entitlement.Version); err != nil {
			if errors.Is(err, domainerrors.ErrConcurrentEntitlementUpdate) {
				lastErr = err
				continue
			}
			return ports.ConsumeResult{}, err
		}

		logger.Info("deployment consumed",
			"event", "entitlement_consumed",
			"module", "commerce/entitlement-service",
			"layer", "application",
			"entitlement_id", updated.EntitlementID,
			"user_id", updated.UserID,
			"deployments_used", updated.DeploymentsUsed,
			"remaining", updated.Remaining(),
		)
		return ports.ConsumeResult{
			Entitlement: updated,
			Remaining:   updated.Remaining(),
			Unlimited:   updated.Unlimited(),
		}, nil
	}
	return ports.ConsumeResult{}, lastErr
}

// Revoke disables an entitlement. Prior consumption is not undone.
func (s Service) Revoke(ctx context.Context, entitlementID string) (entities.Entitlement, error) {
	entitlementID = strings.TrimSpace(entitlementID)
	if entitlementID == "" {
		return entities.Entitlement{}, domainerrors.ErrInvalidEntitlementRequest
	}
	entitlement, err := s.Repo.Get(ctx, entitlementID)
	if err != nil {
		return entities.Entitlement{}, err
	}
	return s.revoke(ctx, entitlement)
}

// RevokeByKey is the refund path: the order service knows the grant key,
// not the entitlement id.
func (s Service) RevokeByKey(ctx context.Context, userID string, licenseID string, projectID string) (entities.Entitlement, error) {
	userID = strings.TrimSpace(userID)
	licenseID = strings.TrimSpace(licenseID)
	if userID == "" || licenseID == "" {
		return entities.Entitlement{}, domainerrors.ErrInvalidEntitlementRequest
	}
	entitlement, found, err := s.Repo.GetByKey(ctx, userID, licenseID, strings.TrimSpace(projectID))
	if err != nil {
		return entities.Entitlement{}, err
	}
	if !found {
		return entities.Entitlement{}, domainerrors.ErrEntitlementNotFound
	}
	return s.revoke(ctx, entitlement)
}

func (s Service) revoke(ctx context.Context, entitlement entities.Entitlement) (entities.Entitlement, error) {
	logger := resolveLogger(s.Logger)
	if entitlement.Status == entities.EntitlementStatusRevoked {
		return entitlement, nil
	}
	now := s.now()
	updated := entitlement
	updated.Status = entities.EntitlementStatusRevoked
	updated.UpdatedAt = now
	updated.Version = entitlement.Version + 1
	if err := s.Repo.UpdateGuarded(ctx, updated, entitlement.Version); err != nil {
		return entities.Entitlement{}, err
	}
	logger.Info("entitlement revoked",
		"event", "entitlement_revoked",
		"module", "commerce/entitlement-service",
		"layer", "application",
		"entitlement_id", updated.EntitlementID,
		"user_id", updated.UserID,
		"license_id", updated.LicenseID,
	)
	return updated, nil
}

func (s Service) Get(ctx context.Context, entitlementID string) (entities.Entitlement, error) {
	entitlementID = strings.TrimSpace(entitlementID)
	if entitlementID == "" {
		return entities.Entitlement{}, domainerrors.ErrInvalidEntitlementRequest
	}
	return s.Repo.Get(ctx, entitlementID)
}

func (s Service) ListByUser(ctx context.Context, userID string) ([]entities.Entitlement, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domainerrors.ErrInvalidEntitlementRequest
	}
	return s.Repo.ListByUser(ctx, userID)
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

// stackCapacity accumulates purchased capacity; 0 is unlimited and
// unlimited absorbs everything it meets.
func stackCapacity(current int, added int) int {
	if current == 0 || added == 0 {
		return 0
	}
	return current + added
}

// stackExpiry extends the grant by durationDays from the later of now or
// the current expiry. Zero duration means the new terms are perpetual,
// which clears any finite remainder.
func stackExpiry(current *time.Time, durationDays int, now time.Time) *time.Time {
	if durationDays == 0 {
		return nil
	}
	base := now
	if current != nil && current.After(now) {
		base = *current
	}
	extended := base.AddDate(0, 0, durationDays)
	return &extended
}

package workers

import (
	"context"
	"log/slog"
	"time"

	"keystone/contexts/commerce/entitlement-service/ports"
)

// EntitlementExpirer sweeps active grants that crossed expires_at so
// reporting sees them as expired. Consumption never relies on this job:
// Consume re-checks expiry on every call.
type EntitlementExpirer struct {
	Repo   ports.Repository
	Clock  ports.Clock
	Logger *slog.Logger
}

func (e EntitlementExpirer) RunOnce(ctx context.Context) error {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now().UTC()
	if e.Clock != nil {
		now = e.Clock.Now().UTC()
	}

	expired, err := e.Repo.ExpireActive(ctx, now)
	if err != nil {
		logger.Error("entitlement expiry sweep failed",
			"event", "entitlement_expiry_failed",
			"module", "commerce/entitlement-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if expired > 0 {
		logger.Info("entitlement expiry sweep completed",
			"event", "entitlement_expiry_completed",
			"module", "commerce/entitlement-service",
			"layer", "worker",
			"expired_count", expired,
		)
	}
	return nil
}

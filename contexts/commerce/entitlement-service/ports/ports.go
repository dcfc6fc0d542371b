package ports

import (
	"context"
	"time"

	"keystone/contexts/commerce/entitlement-service/domain/entities"
)

// Repository owns entitlement persistence. Mutations go through
// UpdateGuarded, a compare-and-swap on Version: the application layer
// retries on ErrConcurrentEntitlementUpdate, which is what makes
// check-and-increment consumption atomic under concurrent callers.
type Repository interface {
	Create(ctx context.Context, entitlement entities.Entitlement) error
	Get(ctx context.Context, entitlementID string) (entities.Entitlement, error)
	GetByKey(ctx context.Context, userID string, licenseID string, projectID string) (entities.Entitlement, bool, error)
	ListByUser(ctx context.Context, userID string) ([]entities.Entitlement, error)
	// UpdateGuarded persists the row iff the stored Version still equals
	// expectedVersion; the stored row's Version becomes
	// entitlement.Version.
	UpdateGuarded(ctx context.Context, entitlement entities.Entitlement, expectedVersion int) error
	// ExpireActive flips visibly-lapsed active rows to expired, returning
	// the count. Reporting convenience only; consumption re-checks expiry.
	ExpireActive(ctx context.Context, now time.Time) (int, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type GrantInput struct {
	UserID          string
	LicenseID       string
	ProjectID       string
	DeploymentLimit int
	DurationDays    int
}

type ConsumeResult struct {
	Entitlement entities.Entitlement
	Remaining   int
	Unlimited   bool
}

package ports

import (
	"context"
	"time"

	"keystone/contexts/catalog/listing-service/domain/entities"
)

// Repository owns project persistence. UpdateGuarded is a
// compare-and-swap on Version; losing writers get
// ErrModerationConflict and must re-read.
type Repository interface {
	Create(ctx context.Context, project entities.Project) error
	Get(ctx context.Context, projectID string) (entities.Project, error)
	ListByOwner(ctx context.Context, ownerID string) ([]entities.Project, error)
	// UpdateGuarded persists the row iff the stored Version still equals
	// expectedVersion; the stored row's Version becomes project.Version.
	UpdateGuarded(ctx context.Context, project entities.Project, expectedVersion int) error
}

type IdempotencyRecord struct {
	Key         string
	RequestHash string
	Payload     []byte
	ExpiresAt   time.Time
}

// IdempotencyStore caches moderation decision payloads so a retried
// request replays the original outcome instead of re-moderating.
type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	Put(ctx context.Context, record IdempotencyRecord) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type CreateProjectInput struct {
	OwnerID     string
	Name        string
	Description string
	Repository  string
	PreviewURL  string
	Visibility  string
	TechStack   []string
	CategoryIDs []string
}

type SubmitChangesInput struct {
	ProjectID string
	OwnerID   string
	Changes   entities.ChangeSet
}

type ModerateInput struct {
	ProjectID       string
	ModeratorID     string
	Note            string
	Reason          string
	ExpectedVersion int
}

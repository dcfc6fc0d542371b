package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"keystone/contexts/catalog/listing-service/domain/entities"
	domainerrors "keystone/contexts/catalog/listing-service/domain/errors"
	"keystone/contexts/catalog/listing-service/ports"
)

// Store is the in-memory listing repository plus idempotency cache.
// A single mutex stands in for the transaction scope the postgres
// adapter gets from the database.
type Store struct {
	mu          sync.RWMutex
	projects    map[string]entities.Project
	idempotency map[string]ports.IdempotencyRecord
}

func NewStore() *Store {
	return &Store{
		projects:    make(map[string]entities.Project),
		idempotency: make(map[string]ports.IdempotencyRecord),
	}
}

func (s *Store) Create(_ context.Context, project entities.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[project.ProjectID] = cloneProject(project)
	return nil
}

func (s *Store) Get(_ context.Context, projectID string) (entities.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	project, ok := s.projects[projectID]
	if !ok {
		return entities.Project{}, domainerrors.ErrProjectNotFound
	}
	return cloneProject(project), nil
}

func (s *Store) ListByOwner(_ context.Context, ownerID string) ([]entities.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]entities.Project, 0)
	for _, project := range s.projects {
		if project.OwnerID == ownerID {
			result = append(result, cloneProject(project))
		}
	}
	return result, nil
}

func (s *Store) UpdateGuarded(_ context.Context, project entities.Project, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.projects[project.ProjectID]
	if !ok {
		return domainerrors.ErrProjectNotFound
	}
	if current.Version != expectedVersion {
		return domainerrors.ErrModerationConflict
	}
	s.projects[project.ProjectID] = cloneProject(project)
	return nil
}

// Idempotency exposes the cache side of the store under the port's
// method names, which would otherwise collide with the repository Get.
func (s *Store) Idempotency() ports.IdempotencyStore {
	return idempotencyView{store: s}
}

type idempotencyView struct {
	store *Store
}

func (v idempotencyView) Get(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	record, ok := v.store.idempotency[key]
	if !ok || now.After(record.ExpiresAt) {
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (v idempotencyView) Put(_ context.Context, record ports.IdempotencyRecord) error {
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	v.store.idempotency[record.Key] = record
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func cloneProject(project entities.Project) entities.Project {
	project.TechStack = append([]string(nil), project.TechStack...)
	project.CategoryIDs = append([]string(nil), project.CategoryIDs...)
	if project.PendingChanges != nil {
		changes := make(entities.ChangeSet, len(project.PendingChanges))
		for field, proposed := range project.PendingChanges {
			proposed.Set = append([]string(nil), proposed.Set...)
			changes[field] = proposed
		}
		project.PendingChanges = changes
	}
	if project.PendingChangesSubmittedAt != nil {
		at := *project.PendingChangesSubmittedAt
		project.PendingChangesSubmittedAt = &at
	}
	return project
}

var (
	_ ports.Repository       = (*Store)(nil)
	_ ports.Clock            = (*Store)(nil)
	_ ports.IDGenerator      = (*Store)(nil)
	_ ports.IdempotencyStore = idempotencyView{}
)

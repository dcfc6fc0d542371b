package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"keystone/contexts/commerce/entitlement-service/domain/entities"
	domainerrors "keystone/contexts/commerce/entitlement-service/domain/errors"
	"keystone/contexts/commerce/entitlement-service/ports"
)

type key struct {
	userID    string
	licenseID string
	projectID string
}

// Store is the in-memory entitlement repository. The mutex plus the
// Version compare inside UpdateGuarded give the same serialization the
// postgres adapter gets from its guarded UPDATE.
type Store struct {
	mu sync.RWMutex

	entitlements map[string]entities.Entitlement
	byKey        map[key]string
}

func NewStore() *Store {
	return &Store{
		entitlements: map[string]entities.Entitlement{},
		byKey:        map[key]string{},
	}
}

func (s *Store) Create(ctx context.Context, entitlement entities.Entitlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{entitlement.UserID, entitlement.LicenseID, entitlement.ProjectID}
	if _, exists := s.byKey[k]; exists {
		return domainerrors.ErrDuplicateEntitlementKey
	}
	s.entitlements[entitlement.EntitlementID] = entitlement
	s.byKey[k] = entitlement.EntitlementID
	return nil
}

func (s *Store) Get(ctx context.Context, entitlementID string) (entities.Entitlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entitlement, ok := s.entitlements[entitlementID]
	if !ok {
		return entities.Entitlement{}, domainerrors.ErrEntitlementNotFound
	}
	return entitlement, nil
}

func (s *Store) GetByKey(ctx context.Context, userID string, licenseID string, projectID string) (entities.Entitlement, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byKey[key{userID, licenseID, projectID}]
	if !ok {
		return entities.Entitlement{}, false, nil
	}
	return s.entitlements[id], true, nil
}

func (s *Store) ListByUser(ctx context.Context, userID string) ([]entities.Entitlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]entities.Entitlement, 0)
	for _, entitlement := range s.entitlements {
		if entitlement.UserID == userID {
			result = append(result, entitlement)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Store) UpdateGuarded(ctx context.Context, entitlement entities.Entitlement, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.entitlements[entitlement.EntitlementID]
	if !ok {
		return domainerrors.ErrEntitlementNotFound
	}
	if current.Version != expectedVersion {
		return domainerrors.ErrConcurrentEntitlementUpdate
	}
	s.entitlements[entitlement.EntitlementID] = entitlement
	return nil
}

func (s *Store) ExpireActive(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expired := 0
	for id, entitlement := range s.entitlements {
		if entitlement.Status != entities.EntitlementStatusActive || !entitlement.ExpiredAt(now) {
			continue
		}
		entitlement.Status = entities.EntitlementStatusExpired
		entitlement.UpdatedAt = now.UTC()
		entitlement.Version++
		s.entitlements[id] = entitlement
		expired++
	}
	return expired, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.Repository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)

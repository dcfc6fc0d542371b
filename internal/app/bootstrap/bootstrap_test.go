package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	entitlemententities "keystone/contexts/commerce/entitlement-service/domain/entities"
	entitlementworkers "keystone/contexts/commerce/entitlement-service/application/workers"
	ordermemory "keystone/contexts/commerce/order-service/adapters/memory"
	orderworkers "keystone/contexts/commerce/order-service/application/workers"
	"keystone/internal/platform/messaging"
)

// brokenEntitlementRepo fails every sweep, standing in for a database
// that is temporarily unreachable.
type brokenEntitlementRepo struct {
	mu    sync.Mutex
	calls int
}

func (r *brokenEntitlementRepo) Create(context.Context, entitlemententities.Entitlement) error {
	return errors.New("db down")
}

func (r *brokenEntitlementRepo) Get(context.Context, string) (entitlemententities.Entitlement, error) {
	return entitlemententities.Entitlement{}, errors.New("db down")
}

func (r *brokenEntitlementRepo) GetByKey(context.Context, string, string, string) (entitlemententities.Entitlement, bool, error) {
	return entitlemententities.Entitlement{}, false, errors.New("db down")
}

func (r *brokenEntitlementRepo) ListByUser(context.Context, string) ([]entitlemententities.Entitlement, error) {
	return nil, errors.New("db down")
}

func (r *brokenEntitlementRepo) UpdateGuarded(context.Context, entitlemententities.Entitlement, int) error {
	return errors.New("db down")
}

func (r *brokenEntitlementRepo) ExpireActive(context.Context, time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return 0, errors.New("db down")
}

func (r *brokenEntitlementRepo) sweeps() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestWorkerRunSurvivesJobFailures(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := &brokenEntitlementRepo{}
	store := ordermemory.NewStore(nil)

	worker := &WorkerApp{
		outboxRelay: orderworkers.OutboxRelay{
			Outbox:    store,
			Publisher: messaging.NewInProcessBus(logger),
			Clock:     store,
			BatchSize: 10,
			Logger:    logger,
		},
		expirer: entitlementworkers.EntitlementExpirer{
			Repo:   repo,
			Logger: logger,
		},
		pollInterval: time.Millisecond,
		logger:       logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := worker.Run(ctx); err != nil {
		t.Fatalf("run returned %v, want nil on context end", err)
	}
	if repo.sweeps() < 2 {
		t.Fatalf("sweeps = %d, want the loop to keep ticking past failures", repo.sweeps())
	}
}

package workers

import (
	"context"
	"testing"
	"time"

	"keystone/contexts/commerce/entitlement-service/adapters/memory"
	"keystone/contexts/commerce/entitlement-service/domain/entities"
)

type stubClock struct{ now time.Time }

func (c stubClock) Now() time.Time { return c.now }

func TestExpirerSweepsLapsedGrants(t *testing.T) {
	store := memory.NewStore()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	lapsed := base.Add(-time.Hour)
	future := base.Add(24 * time.Hour)

	seed := []entities.Entitlement{
		{EntitlementID: "ent-lapsed", UserID: "u1", LicenseID: "l1", Status: entities.EntitlementStatusActive, ExpiresAt: &lapsed, Version: 1},
		{EntitlementID: "ent-live", UserID: "u1", LicenseID: "l2", Status: entities.EntitlementStatusActive, ExpiresAt: &future, Version: 1},
		{EntitlementID: "ent-perpetual", UserID: "u1", LicenseID: "l3", Status: entities.EntitlementStatusActive, Version: 1},
	}
	for _, entitlement := range seed {
		if err := store.Create(context.Background(), entitlement); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	expirer := EntitlementExpirer{Repo: store, Clock: stubClock{now: base}}
	if err := expirer.RunOnce(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	got, err := store.Get(context.Background(), "ent-lapsed")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != entities.EntitlementStatusExpired {
		t.Fatalf("lapsed grant status = %s, want expired", got.Status)
	}
	for _, id := range []string{"ent-live", "ent-perpetual"} {
		got, err := store.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.Status != entities.EntitlementStatusActive {
			t.Fatalf("%s status = %s, want active", id, got.Status)
		}
	}
}

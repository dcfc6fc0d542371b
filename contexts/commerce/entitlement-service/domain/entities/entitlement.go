package entities

import "time"

type EntitlementStatus string

const (
	EntitlementStatusActive  EntitlementStatus = "active"
	EntitlementStatusExpired EntitlementStatus = "expired"
	EntitlementStatusRevoked EntitlementStatus = "revoked"
)

// Entitlement is a metered usage grant derived from completed orders for
// the same (user, license, project) key. DeploymentsAllowed 0 means
// unlimited; a nil ExpiresAt never expires. Version is the optimistic
// concurrency token guarding every mutation.
type Entitlement struct {
	EntitlementID      string
	UserID             string
	LicenseID          string
	ProjectID          string
	DeploymentsUsed    int
	DeploymentsAllowed int
	Status             EntitlementStatus
	ExpiresAt          *time.Time
	Version            int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (e Entitlement) Unlimited() bool {
	return e.DeploymentsAllowed == 0
}

// Remaining reports the unconsumed quota, -1 for unlimited grants.
func (e Entitlement) Remaining() int {
	if e.Unlimited() {
		return -1
	}
	remaining := e.DeploymentsAllowed - e.DeploymentsUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ExpiredAt reports whether the grant has lapsed at the given instant.
// Expiry is evaluated lazily here, never by a scheduler.
func (e Entitlement) ExpiredAt(now time.Time) bool {
	return e.ExpiresAt != nil && now.After(*e.ExpiresAt)
}

func (e Entitlement) QuotaExhausted() bool {
	return !e.Unlimited() && e.DeploymentsUsed >= e.DeploymentsAllowed
}

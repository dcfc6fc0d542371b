package entities

import (
	"github.com/shopspring/decimal"
)

type LicenseStatus string

const (
	LicenseStatusDraft    LicenseStatus = "draft"
	LicenseStatusPrivate  LicenseStatus = "private"
	LicenseStatusPublic   LicenseStatus = "public"
	LicenseStatusArchived LicenseStatus = "archived"
)

// License is the catalog view read at purchase time. The order service
// only ever reads licenses; ownership lives with the catalog.
// DeploymentLimit 0 means unlimited, DurationDays 0 means perpetual.
type License struct {
	LicenseID       string
	OwnerID         string
	ProjectID       string
	Price           decimal.Decimal
	Currency        string
	DeploymentLimit int
	DurationDays    int
	Features        []string
	Status          LicenseStatus
}

func (l License) IsPurchasable() bool {
	return l.Status == LicenseStatusPublic
}

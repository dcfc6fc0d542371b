package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// OrderRecord is the slice of an order the analytics projection needs.
type OrderRecord struct {
	OrderID   string
	SellerID  string
	LicenseID string
	Amount    decimal.Decimal
	Currency  string
	Status    string
	CreatedAt time.Time
}

// OrderReader is the read-only projection over the orders table. The
// window is [start, end) on CreatedAt.
type OrderReader interface {
	ListOrdersBySeller(ctx context.Context, sellerID string, start time.Time, end time.Time) ([]OrderRecord, error)
}

type Summary struct {
	TotalOrders       int
	StatusCounts      map[string]int
	TotalRevenue      decimal.Decimal
	PendingRevenue    decimal.Decimal
	AverageOrderValue decimal.Decimal
	ConversionRate    decimal.Decimal
}

type TrendPoint struct {
	BucketStart time.Time
	OrderCount  int
	Revenue     decimal.Decimal
}

type TopLicense struct {
	LicenseID  string
	OrderCount int
	Revenue    decimal.Decimal
}

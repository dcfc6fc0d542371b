package application

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	domainerrors "keystone/contexts/commerce/sales-analytics/domain/errors"
	"keystone/contexts/commerce/sales-analytics/ports"
)

type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

const statusCompleted = "completed"
const statusPending = "pending"

// Service aggregates a seller's orders into reporting views. Everything
// here is a pure read over ports.OrderReader; money stays decimal end
// to end.
type Service struct {
	Orders ports.OrderReader
	Logger *slog.Logger
}

// GetSummary reports status counts and revenue for [start, end).
// Averages and rates fall back to zero instead of dividing by zero.
func (s Service) GetSummary(ctx context.Context, sellerID string, start time.Time, end time.Time) (ports.Summary, error) {
	orders, err := s.list(ctx, sellerID, start, end)
	if err != nil {
		return ports.Summary{}, err
	}

	summary := ports.Summary{
		StatusCounts:      make(map[string]int),
		TotalRevenue:      decimal.Zero,
		PendingRevenue:    decimal.Zero,
		AverageOrderValue: decimal.Zero,
		ConversionRate:    decimal.Zero,
	}
	completed := 0
	for _, order := range orders {
		summary.TotalOrders++
		summary.StatusCounts[order.Status]++
		switch order.Status {
		case statusCompleted:
			completed++
			summary.TotalRevenue = summary.TotalRevenue.Add(order.Amount)
		case statusPending:
			summary.PendingRevenue = summary.PendingRevenue.Add(order.Amount)
		}
	}
	if completed > 0 {
		summary.AverageOrderValue = summary.TotalRevenue.Div(decimal.NewFromInt(int64(completed)))
	}
	if summary.TotalOrders > 0 {
		summary.ConversionRate = decimal.NewFromInt(int64(completed)).
			Div(decimal.NewFromInt(int64(summary.TotalOrders))).
			Mul(decimal.NewFromInt(100))
	}
	return summary, nil
}

// GetTrends buckets completed orders by CreatedAt truncated in UTC.
// Weeks start Monday, months on the 1st. Every bucket in the window is
// emitted, empty ones included, in ascending order.
func (s Service) GetTrends(ctx context.Context, sellerID string, start time.Time, end time.Time, granularity Granularity) ([]ports.TrendPoint, error) {
	if !validGranularity(granularity) {
		return nil, domainerrors.ErrInvalidAnalyticsRequest
	}
	orders, err := s.list(ctx, sellerID, start, end)
	if err != nil {
		return nil, err
	}

	// buckets indexes by position, not pointer: append reallocations
	// must not strand earlier entries.
	buckets := make(map[time.Time]int)
	points := make([]ports.TrendPoint, 0)
	for cursor := truncate(start.UTC(), granularity); cursor.Before(end.UTC()); cursor = advance(cursor, granularity) {
		buckets[cursor] = len(points)
		points = append(points, ports.TrendPoint{BucketStart: cursor, Revenue: decimal.Zero})
	}
	for _, order := range orders {
		if order.Status != statusCompleted {
			continue
		}
		i, ok := buckets[truncate(order.CreatedAt.UTC(), granularity)]
		if !ok {
			continue
		}
		points[i].OrderCount++
		points[i].Revenue = points[i].Revenue.Add(order.Amount)
	}
	return points, nil
}

// GetTopSelling ranks completed orders by license: revenue desc, order
// count desc, then license id asc, truncated to limit.
func (s Service) GetTopSelling(ctx context.Context, sellerID string, start time.Time, end time.Time, limit int) ([]ports.TopLicense, error) {
	if limit <= 0 {
		return nil, domainerrors.ErrInvalidAnalyticsRequest
	}
	orders, err := s.list(ctx, sellerID, start, end)
	if err != nil {
		return nil, err
	}

	byLicense := make(map[string]*ports.TopLicense)
	for _, order := range orders {
		if order.Status != statusCompleted {
			continue
		}
		entry, ok := byLicense[order.LicenseID]
		if !ok {
			entry = &ports.TopLicense{LicenseID: order.LicenseID, Revenue: decimal.Zero}
			byLicense[order.LicenseID] = entry
		}
		entry.OrderCount++
		entry.Revenue = entry.Revenue.Add(order.Amount)
	}

	ranked := make([]ports.TopLicense, 0, len(byLicense))
	for _, entry := range byLicense {
		ranked = append(ranked, *entry)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if !ranked[i].Revenue.Equal(ranked[j].Revenue) {
			return ranked[i].Revenue.GreaterThan(ranked[j].Revenue)
		}
		if ranked[i].OrderCount != ranked[j].OrderCount {
			return ranked[i].OrderCount > ranked[j].OrderCount
		}
		return ranked[i].LicenseID < ranked[j].LicenseID
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// PeriodOverPeriodChange is the percent delta between two period
// totals. A zero previous period reads as +100% growth when the current
// one is non-zero, and flat otherwise.
func PeriodOverPeriodChange(current decimal.Decimal, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		if current.GreaterThan(decimal.Zero) {
			return decimal.NewFromInt(100)
		}
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100))
}

func (s Service) list(ctx context.Context, sellerID string, start time.Time, end time.Time) ([]ports.OrderRecord, error) {
	sellerID = strings.TrimSpace(sellerID)
	if sellerID == "" || !start.Before(end) {
		return nil, domainerrors.ErrInvalidAnalyticsRequest
	}
	return s.Orders.ListOrdersBySeller(ctx, sellerID, start.UTC(), end.UTC())
}

func validGranularity(granularity Granularity) bool {
	switch granularity {
	case GranularityDay, GranularityWeek, GranularityMonth:
		return true
	}
	return false
}

func truncate(t time.Time, granularity Granularity) time.Time {
	switch granularity {
	case GranularityWeek:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		// time.Weekday puts Sunday at 0; shift so weeks start Monday.
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
}

func advance(t time.Time, granularity Granularity) time.Time {
	switch granularity {
	case GranularityWeek:
		return t.AddDate(0, 0, 7)
	case GranularityMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"keystone/contexts/commerce/sales-analytics/adapters/memory"
	domainerrors "keystone/contexts/commerce/sales-analytics/domain/errors"
	"keystone/contexts/commerce/sales-analytics/ports"
)

func seedOrders() []ports.OrderRecord {
	at := func(day int, hour int) time.Time {
		return time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC)
	}
	amount := func(v string) decimal.Decimal { return decimal.RequireFromString(v) }
	return []ports.OrderRecord{
		{OrderID: "o1", SellerID: "seller-1", LicenseID: "lic-a", Amount: amount("50.00"), Status: "completed", CreatedAt: at(2, 10)},
		{OrderID: "o2", SellerID: "seller-1", LicenseID: "lic-a", Amount: amount("50.00"), Status: "completed", CreatedAt: at(2, 15)},
		{OrderID: "o3", SellerID: "seller-1", LicenseID: "lic-b", Amount: amount("120.00"), Status: "completed", CreatedAt: at(4, 9)},
		{OrderID: "o4", SellerID: "seller-1", LicenseID: "lic-b", Amount: amount("120.00"), Status: "pending", CreatedAt: at(5, 9)},
		{OrderID: "o5", SellerID: "seller-1", LicenseID: "lic-c", Amount: amount("30.00"), Status: "failed", CreatedAt: at(5, 12)},
		{OrderID: "o6", SellerID: "seller-2", LicenseID: "lic-z", Amount: amount("900.00"), Status: "completed", CreatedAt: at(3, 8)},
	}
}

func newService() Service {
	return Service{Orders: memory.NewReader(seedOrders())}
}

func window() (time.Time, time.Time) {
	return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
}

func TestGetSummary(t *testing.T) {
	svc := newService()
	start, end := window()
	summary, err := svc.GetSummary(context.Background(), "seller-1", start, end)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.TotalOrders != 5 {
		t.Fatalf("total orders = %d, want 5", summary.TotalOrders)
	}
	if summary.StatusCounts["completed"] != 3 || summary.StatusCounts["pending"] != 1 || summary.StatusCounts["failed"] != 1 {
		t.Fatalf("unexpected status counts: %v", summary.StatusCounts)
	}
	if !summary.TotalRevenue.Equal(decimal.RequireFromString("220.00")) {
		t.Fatalf("total revenue = %s, want 220.00", summary.TotalRevenue)
	}
	if !summary.PendingRevenue.Equal(decimal.RequireFromString("120.00")) {
		t.Fatalf("pending revenue = %s, want 120.00", summary.PendingRevenue)
	}
	want := decimal.RequireFromString("220.00").Div(decimal.NewFromInt(3))
	if !summary.AverageOrderValue.Equal(want) {
		t.Fatalf("average order value = %s, want %s", summary.AverageOrderValue, want)
	}
	wantRate := decimal.NewFromInt(3).Div(decimal.NewFromInt(5)).Mul(decimal.NewFromInt(100))
	if !summary.ConversionRate.Equal(wantRate) {
		t.Fatalf("conversion rate = %s, want %s", summary.ConversionRate, wantRate)
	}
}

func TestGetSummaryNoOrders(t *testing.T) {
	svc := Service{Orders: memory.NewReader(nil)}
	start, end := window()
	summary, err := svc.GetSummary(context.Background(), "seller-1", start, end)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.TotalOrders != 0 {
		t.Fatalf("total orders = %d, want 0", summary.TotalOrders)
	}
	if !summary.AverageOrderValue.IsZero() || !summary.ConversionRate.IsZero() {
		t.Fatalf("expected zero averages, got %+v", summary)
	}
}

func TestGetTrendsDailyEmitsEmptyBuckets(t *testing.T) {
	svc := newService()
	start, end := window()
	points, err := svc.GetTrends(context.Background(), "seller-1", start, end, GranularityDay)
	if err != nil {
		t.Fatalf("trends failed: %v", err)
	}
	if len(points) != 7 {
		t.Fatalf("expected 7 daily buckets, got %d", len(points))
	}
	for i := 1; i < len(points); i++ {
		if !points[i-1].BucketStart.Before(points[i].BucketStart) {
			t.Fatalf("buckets not ascending at %d", i)
		}
	}
	// March 2: two completed orders. March 4: one. Everything else empty.
	byDay := make(map[int]ports.TrendPoint)
	for _, point := range points {
		byDay[point.BucketStart.Day()] = point
	}
	if byDay[2].OrderCount != 2 || !byDay[2].Revenue.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("march 2 bucket wrong: %+v", byDay[2])
	}
	if byDay[4].OrderCount != 1 {
		t.Fatalf("march 4 bucket wrong: %+v", byDay[4])
	}
	// Pending and failed orders never count toward trends.
	if byDay[5].OrderCount != 0 || !byDay[5].Revenue.IsZero() {
		t.Fatalf("march 5 bucket should be empty: %+v", byDay[5])
	}
}

func TestGetTrendsLongWindowKeepsEarlyBuckets(t *testing.T) {
	// Orders land in the first buckets of a window wide enough that the
	// bucket slice grows many times while being built; the early buckets
	// must still carry their counts after every growth.
	svc := newService()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	points, err := svc.GetTrends(context.Background(), "seller-1", start, end, GranularityDay)
	if err != nil {
		t.Fatalf("trends failed: %v", err)
	}
	if len(points) != 92 {
		t.Fatalf("expected 92 daily buckets, got %d", len(points))
	}
	if points[1].OrderCount != 2 || !points[1].Revenue.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("march 2 bucket wrong: %+v", points[1])
	}
	if points[3].OrderCount != 1 || !points[3].Revenue.Equal(decimal.RequireFromString("120.00")) {
		t.Fatalf("march 4 bucket wrong: %+v", points[3])
	}
	total := 0
	for _, point := range points {
		total += point.OrderCount
	}
	if total != 3 {
		t.Fatalf("total bucketed orders = %d, want 3", total)
	}
}

func TestGetTrendsWeeklyStartsMonday(t *testing.T) {
	svc := newService()
	// March 1 2026 is a Sunday; its week bucket starts Monday Feb 23.
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	points, err := svc.GetTrends(context.Background(), "seller-1", start, end, GranularityWeek)
	if err != nil {
		t.Fatalf("trends failed: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 weekly buckets, got %d", len(points))
	}
	if points[0].BucketStart.Weekday() != time.Monday {
		t.Fatalf("bucket starts on %s, want Monday", points[0].BucketStart.Weekday())
	}
	want := time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)
	if !points[0].BucketStart.Equal(want) {
		t.Fatalf("first bucket = %s, want %s", points[0].BucketStart, want)
	}
	// All completed orders land in the week of Monday March 2.
	if points[1].OrderCount != 3 {
		t.Fatalf("week of march 2 count = %d, want 3", points[1].OrderCount)
	}
}

func TestGetTrendsRejectsUnknownGranularity(t *testing.T) {
	svc := newService()
	start, end := window()
	if _, err := svc.GetTrends(context.Background(), "seller-1", start, end, Granularity("hour")); !errors.Is(err, domainerrors.ErrInvalidAnalyticsRequest) {
		t.Fatalf("expected invalid request, got %v", err)
	}
}

func TestGetTopSellingRanking(t *testing.T) {
	svc := newService()
	start, end := window()
	top, err := svc.GetTopSelling(context.Background(), "seller-1", start, end, 10)
	if err != nil {
		t.Fatalf("top selling failed: %v", err)
	}
	// lic-b: 120.00 revenue from one order; lic-a: 100.00 from two.
	if len(top) != 2 {
		t.Fatalf("expected 2 licenses, got %d", len(top))
	}
	if top[0].LicenseID != "lic-b" || top[1].LicenseID != "lic-a" {
		t.Fatalf("unexpected ranking: %+v", top)
	}
	if top[1].OrderCount != 2 {
		t.Fatalf("lic-a order count = %d, want 2", top[1].OrderCount)
	}

	truncated, err := svc.GetTopSelling(context.Background(), "seller-1", start, end, 1)
	if err != nil {
		t.Fatalf("top selling failed: %v", err)
	}
	if len(truncated) != 1 || truncated[0].LicenseID != "lic-b" {
		t.Fatalf("limit not applied: %+v", truncated)
	}
}

func TestGetTopSellingTieBreaksByLicenseID(t *testing.T) {
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	amount := decimal.RequireFromString("10.00")
	svc := Service{Orders: memory.NewReader([]ports.OrderRecord{
		{OrderID: "o1", SellerID: "seller-1", LicenseID: "lic-b", Amount: amount, Status: "completed", CreatedAt: at},
		{OrderID: "o2", SellerID: "seller-1", LicenseID: "lic-a", Amount: amount, Status: "completed", CreatedAt: at},
	})}
	start, end := window()
	top, err := svc.GetTopSelling(context.Background(), "seller-1", start, end, 2)
	if err != nil {
		t.Fatalf("top selling failed: %v", err)
	}
	if top[0].LicenseID != "lic-a" || top[1].LicenseID != "lic-b" {
		t.Fatalf("tie not broken by license id: %+v", top)
	}
}

func TestPeriodOverPeriodChange(t *testing.T) {
	cases := []struct {
		current  string
		previous string
		want     string
	}{
		{"150", "100", "50"},
		{"50", "100", "-50"},
		{"10", "0", "100"},
		{"0", "0", "0"},
	}
	for _, tc := range cases {
		got := PeriodOverPeriodChange(decimal.RequireFromString(tc.current), decimal.RequireFromString(tc.previous))
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("change(%s, %s) = %s, want %s", tc.current, tc.previous, got, tc.want)
		}
	}
}

func TestInvalidWindow(t *testing.T) {
	svc := newService()
	start, _ := window()
	if _, err := svc.GetSummary(context.Background(), "seller-1", start, start); !errors.Is(err, domainerrors.ErrInvalidAnalyticsRequest) {
		t.Fatalf("expected invalid request for empty window, got %v", err)
	}
}

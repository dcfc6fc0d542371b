package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"keystone/contexts/commerce/sales-analytics/application"
	httptransport "keystone/contexts/commerce/sales-analytics/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) SummaryHandler(ctx context.Context, sellerID string, start time.Time, end time.Time) (httptransport.SummaryResponse, error) {
	summary, err := h.Service.GetSummary(ctx, sellerID, start, end)
	if err != nil {
		return httptransport.SummaryResponse{}, err
	}
	resp := httptransport.SummaryResponse{Status: "success", Timestamp: time.Now().UTC().Format(time.RFC3339)}
	resp.Data.TotalOrders = summary.TotalOrders
	resp.Data.StatusCounts = summary.StatusCounts
	resp.Data.TotalRevenue = summary.TotalRevenue.String()
	resp.Data.PendingRevenue = summary.PendingRevenue.String()
	resp.Data.AverageOrderValue = summary.AverageOrderValue.String()
	resp.Data.ConversionRate = summary.ConversionRate.String()
	return resp, nil
}

func (h Handler) TrendsHandler(ctx context.Context, sellerID string, start time.Time, end time.Time, granularity application.Granularity) (httptransport.TrendsResponse, error) {
	points, err := h.Service.GetTrends(ctx, sellerID, start, end, granularity)
	if err != nil {
		return httptransport.TrendsResponse{}, err
	}
	resp := httptransport.TrendsResponse{Status: "success", Timestamp: time.Now().UTC().Format(time.RFC3339)}
	resp.Data.Granularity = string(granularity)
	resp.Data.Points = make([]httptransport.TrendPointPayload, 0, len(points))
	for _, point := range points {
		resp.Data.Points = append(resp.Data.Points, httptransport.TrendPointPayload{
			BucketStart: point.BucketStart.UTC().Format(time.RFC3339),
			OrderCount:  point.OrderCount,
			Revenue:     point.Revenue.String(),
		})
	}
	return resp, nil
}

func (h Handler) TopLicensesHandler(ctx context.Context, sellerID string, start time.Time, end time.Time, limit int) (httptransport.TopLicensesResponse, error) {
	licenses, err := h.Service.GetTopSelling(ctx, sellerID, start, end, limit)
	if err != nil {
		return httptransport.TopLicensesResponse{}, err
	}
	resp := httptransport.TopLicensesResponse{Status: "success", Timestamp: time.Now().UTC().Format(time.RFC3339)}
	resp.Data.Licenses = make([]httptransport.TopLicensePayload, 0, len(licenses))
	for _, license := range licenses {
		resp.Data.Licenses = append(resp.Data.Licenses, httptransport.TopLicensePayload{
			LicenseID:  license.LicenseID,
			OrderCount: license.OrderCount,
			Revenue:    license.Revenue.String(),
		})
	}
	return resp, nil
}

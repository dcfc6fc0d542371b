package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	analyticsapp "keystone/contexts/commerce/sales-analytics/application"
	analyticserrors "keystone/contexts/commerce/sales-analytics/domain/errors"
)

func (s *Server) handleSalesSummary(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	start, end, ok := parseWindow(w, r)
	if !ok {
		return
	}
	resp, err := s.analytics.Handler.SummaryHandler(r.Context(), sellerID, start, end)
	if err != nil {
		writeAnalyticsDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSalesTrends(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	start, end, ok := parseWindow(w, r)
	if !ok {
		return
	}
	granularity := analyticsapp.Granularity(queryValue(r, "granularity", "groupBy"))
	if granularity == "" {
		granularity = analyticsapp.GranularityDay
	}
	resp, err := s.analytics.Handler.TrendsHandler(r.Context(), sellerID, start, end, granularity)
	if err != nil {
		writeAnalyticsDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTopLicenses(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	start, end, ok := parseWindow(w, r)
	if !ok {
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}
	resp, err := s.analytics.Handler.TopLicensesHandler(r.Context(), sellerID, start, end, limit)
	if err != nil {
		writeAnalyticsDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseWindow reads the reporting window as RFC 3339 timestamps or bare
// dates. The window is [start, end). Both the short param names and the
// camelCase spellings are accepted.
func parseWindow(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	start, err := parseTimeParam(queryValue(r, "start", "startDate"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_start", "start must be RFC 3339 or YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	end, err := parseTimeParam(queryValue(r, "end", "endDate"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_end", "end must be RFC 3339 or YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// queryValue returns the first query parameter among names that is set.
func queryValue(r *http.Request, names ...string) string {
	query := r.URL.Query()
	for _, name := range names {
		if v := query.Get(name); v != "" {
			return v
		}
	}
	return ""
}

func parseTimeParam(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

func writeAnalyticsDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, analyticserrors.ErrInvalidAnalyticsRequest):
		writeError(w, http.StatusBadRequest, "invalid_analytics_request", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

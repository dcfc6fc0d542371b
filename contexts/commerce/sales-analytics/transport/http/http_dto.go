package http

type SummaryResponse struct {
	Status string `json:"status"`
	Data   struct {
		TotalOrders       int            `json:"total_orders"`
		StatusCounts      map[string]int `json:"status_counts"`
		TotalRevenue      string         `json:"total_revenue"`
		PendingRevenue    string         `json:"pending_revenue"`
		AverageOrderValue string         `json:"average_order_value"`
		ConversionRate    string         `json:"conversion_rate"`
	} `json:"data"`
	Timestamp string `json:"timestamp"`
}

type TrendPointPayload struct {
	BucketStart string `json:"bucket_start"`
	OrderCount  int    `json:"order_count"`
	Revenue     string `json:"revenue"`
}

type TrendsResponse struct {
	Status string `json:"status"`
	Data   struct {
		Granularity string              `json:"granularity"`
		Points      []TrendPointPayload `json:"points"`
	} `json:"data"`
	Timestamp string `json:"timestamp"`
}

type TopLicensePayload struct {
	LicenseID  string `json:"license_id"`
	OrderCount int    `json:"order_count"`
	Revenue    string `json:"revenue"`
}

type TopLicensesResponse struct {
	Status string `json:"status"`
	Data   struct {
		Licenses []TopLicensePayload `json:"licenses"`
	} `json:"data"`
	Timestamp string `json:"timestamp"`
}

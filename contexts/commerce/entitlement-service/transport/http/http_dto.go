package http

type GrantEntitlementRequest struct {
	UserID          string `json:"user_id"`
	LicenseID       string `json:"license_id"`
	ProjectID       string `json:"project_id"`
	DeploymentLimit int    `json:"deployment_limit"`
	DurationDays    int    `json:"duration_days"`
}

type EntitlementPayload struct {
	EntitlementID      string `json:"entitlement_id"`
	UserID             string `json:"user_id"`
	LicenseID          string `json:"license_id"`
	ProjectID          string `json:"project_id"`
	DeploymentsUsed    int    `json:"deployments_used"`
	DeploymentsAllowed int    `json:"deployments_allowed"`
	// Remaining is -1 when the entitlement is unlimited.
	Remaining         int    `json:"remaining"`
	EntitlementStatus string `json:"entitlement_status"`
	ExpiresAt         string `json:"expires_at,omitempty"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

type EntitlementResponse struct {
	Status    string             `json:"status"`
	Data      EntitlementPayload `json:"data"`
	Timestamp string             `json:"timestamp"`
}

type EntitlementListResponse struct {
	Status string `json:"status"`
	Data   struct {
		Entitlements []EntitlementPayload `json:"entitlements"`
	} `json:"data"`
	Timestamp string `json:"timestamp"`
}

type ConsumeResponse struct {
	Status string `json:"status"`
	Data   struct {
		Entitlement EntitlementPayload `json:"entitlement"`
		Remaining   int                `json:"remaining"`
		Unlimited   bool               `json:"unlimited"`
	} `json:"data"`
	Timestamp string `json:"timestamp"`
}

package http

import "encoding/json"

type CreateProjectRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Repository  string   `json:"repository,omitempty"`
	PreviewURL  string   `json:"preview_url,omitempty"`
	Visibility  string   `json:"visibility,omitempty"`
	TechStack   []string `json:"tech_stack,omitempty"`
	CategoryIDs []string `json:"category_ids,omitempty"`
}

// SubmitChangesRequest carries the sparse edit: present keys change the
// field, absent keys leave it alone. Scalar fields take JSON strings,
// tech_stack and category_ids take JSON string arrays.
type SubmitChangesRequest struct {
	Changes map[string]json.RawMessage `json:"changes"`
}

type ModerateRequest struct {
	Action          string `json:"action"`
	Note            string `json:"note,omitempty"`
	Reason          string `json:"reason,omitempty"`
	ExpectedVersion int    `json:"expected_version,omitempty"`
}

type ProposedValuePayload struct {
	Kind   string   `json:"kind"`
	Scalar string   `json:"scalar,omitempty"`
	Set    []string `json:"set,omitempty"`
}

type FieldChangePayload struct {
	Field    string               `json:"field"`
	Live     ProposedValuePayload `json:"live"`
	Proposed ProposedValuePayload `json:"proposed"`
}

type ProjectPayload struct {
	ProjectID                 string                          `json:"project_id"`
	OwnerID                   string                          `json:"owner_id"`
	Name                      string                          `json:"name"`
	Description               string                          `json:"description,omitempty"`
	Repository                string                          `json:"repository,omitempty"`
	PreviewURL                string                          `json:"preview_url,omitempty"`
	Visibility                string                          `json:"visibility"`
	TechStack                 []string                        `json:"tech_stack,omitempty"`
	CategoryIDs               []string                        `json:"category_ids,omitempty"`
	ModerationStatus          string                          `json:"moderation_status"`
	PendingChanges            map[string]ProposedValuePayload `json:"pending_changes,omitempty"`
	PendingChangesSubmittedAt string                          `json:"pending_changes_submitted_at,omitempty"`
	RejectionReason           string                          `json:"rejection_reason,omitempty"`
	PubliclyListable          bool                            `json:"publicly_listable"`
	Version                   int                             `json:"version"`
	CreatedAt                 string                          `json:"created_at"`
	UpdatedAt                 string                          `json:"updated_at"`
}

type ProjectResponse struct {
	Status    string         `json:"status"`
	Data      ProjectPayload `json:"data"`
	Timestamp string         `json:"timestamp"`
}

type ProjectListResponse struct {
	Status string `json:"status"`
	Data   struct {
		Projects []ProjectPayload `json:"projects"`
	} `json:"data"`
	Timestamp string `json:"timestamp"`
}

type DiffResponse struct {
	Status string `json:"status"`
	Data   struct {
		ProjectID string               `json:"project_id"`
		Version   int                  `json:"version"`
		Changes   []FieldChangePayload `json:"changes"`
	} `json:"data"`
	Timestamp string `json:"timestamp"`
}

package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	listinghttp "keystone/contexts/catalog/listing-service/transport/http"
)

func moderate(t *testing.T, server *Server, projectID, moderatorID, idempotencyKey string, req listinghttp.ModerateRequest, out any) *httptest.ResponseRecorder {
	t.Helper()
	encoded, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("encode moderate request: %v", err)
	}
	httpReq := httptest.NewRequest(http.MethodPatch, "/api/v1/projects/"+projectID+"/moderate", bytes.NewReader(encoded))
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-User-Id", moderatorID)
	if idempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", idempotencyKey)
	}
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, httpReq)
	if out != nil && rr.Code < http.StatusBadRequest {
		if err := json.Unmarshal(rr.Body.Bytes(), out); err != nil {
			t.Fatalf("decode moderate response %s: %v", rr.Body.String(), err)
		}
	}
	return rr
}

func approvedTestProject(t *testing.T, server *Server) string {
	t.Helper()
	var created listinghttp.ProjectResponse
	rr := doJSON(t, server, http.MethodPost, "/api/v1/projects", "owner-1", listinghttp.CreateProjectRequest{
		Name:       "Deploy Kit",
		Visibility: "public",
		TechStack:  []string{"go", "postgres"},
	}, &created)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create project: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	projectID := created.Data.ProjectID

	rr = doJSON(t, server, http.MethodPost, "/api/v1/projects/"+projectID+"/submit", "owner-1", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("submit: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var approved listinghttp.ProjectResponse
	rr = moderate(t, server, projectID, "mod-1", "idem-setup-"+projectID, listinghttp.ModerateRequest{Action: "approve"}, &approved)
	if rr.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if approved.Data.ModerationStatus != "approved" {
		t.Fatalf("moderation status = %s, want approved", approved.Data.ModerationStatus)
	}
	return projectID
}

func TestProjectDraftIsNotPubliclyListable(t *testing.T) {
	server := newTestServer()
	var created listinghttp.ProjectResponse
	rr := doJSON(t, server, http.MethodPost, "/api/v1/projects", "owner-1", listinghttp.CreateProjectRequest{Name: "Deploy Kit"}, &created)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	if created.Data.ModerationStatus != "draft" || created.Data.PubliclyListable {
		t.Fatalf("created = %+v, want unlisted draft", created.Data)
	}
}

func TestModerateRequiresIdempotencyKey(t *testing.T) {
	server := newTestServer()
	var created listinghttp.ProjectResponse
	doJSON(t, server, http.MethodPost, "/api/v1/projects", "owner-1", listinghttp.CreateProjectRequest{Name: "Deploy Kit"}, &created)
	doJSON(t, server, http.MethodPost, "/api/v1/projects/"+created.Data.ProjectID+"/submit", "owner-1", nil, nil)

	rr := moderate(t, server, created.Data.ProjectID, "mod-1", "", listinghttp.ModerateRequest{Action: "approve"}, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
	if code := decodeErrorCode(t, rr); code != "idempotency_key_required" {
		t.Fatalf("error code = %s, want idempotency_key_required", code)
	}
}

func TestStagedChangesApplyOnlyOnApproval(t *testing.T) {
	server := newTestServer()
	projectID := approvedTestProject(t, server)

	changes := listinghttp.SubmitChangesRequest{Changes: map[string]json.RawMessage{
		"name":       json.RawMessage(`"Deploy Kit Pro"`),
		"tech_stack": json.RawMessage(`["go","postgres","redis"]`),
	}}
	var staged listinghttp.ProjectResponse
	rr := doJSON(t, server, http.MethodPatch, "/api/v1/projects/"+projectID+"/submit-changes", "owner-1", changes, &staged)
	if rr.Code != http.StatusOK {
		t.Fatalf("submit changes: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if staged.Data.ModerationStatus != "changes_pending" {
		t.Fatalf("status = %s, want changes_pending", staged.Data.ModerationStatus)
	}
	// The live listing keeps serving the old values while review runs.
	if staged.Data.Name != "Deploy Kit" {
		t.Fatalf("live name = %s, want Deploy Kit", staged.Data.Name)
	}

	var diff listinghttp.DiffResponse
	rr = doJSON(t, server, http.MethodGet, "/api/v1/projects/"+projectID+"/diff", "mod-1", nil, &diff)
	if rr.Code != http.StatusOK {
		t.Fatalf("diff: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if len(diff.Data.Changes) != 2 {
		t.Fatalf("diff changes = %d, want 2", len(diff.Data.Changes))
	}

	var approved listinghttp.ProjectResponse
	rr = moderate(t, server, projectID, "mod-1", "idem-apply-1", listinghttp.ModerateRequest{Action: "approve"}, &approved)
	if rr.Code != http.StatusOK {
		t.Fatalf("approve changes: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if approved.Data.Name != "Deploy Kit Pro" {
		t.Fatalf("name = %s, want Deploy Kit Pro", approved.Data.Name)
	}
	if len(approved.Data.TechStack) != 3 {
		t.Fatalf("tech stack = %v, want 3 entries", approved.Data.TechStack)
	}
	if approved.Data.ModerationStatus != "approved" || len(approved.Data.PendingChanges) != 0 {
		t.Fatalf("approved = %+v, want cleared pending changes", approved.Data)
	}
}

func TestRejectingStagedChangesKeepsListingLive(t *testing.T) {
	server := newTestServer()
	projectID := approvedTestProject(t, server)

	changes := listinghttp.SubmitChangesRequest{Changes: map[string]json.RawMessage{
		"description": json.RawMessage(`"now with telemetry"`),
	}}
	doJSON(t, server, http.MethodPatch, "/api/v1/projects/"+projectID+"/submit-changes", "owner-1", changes, nil)

	var rejected listinghttp.ProjectResponse
	rr := moderate(t, server, projectID, "mod-1", "idem-reject-1", listinghttp.ModerateRequest{Action: "reject", Reason: "unreviewed telemetry"}, &rejected)
	if rr.Code != http.StatusOK {
		t.Fatalf("reject: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if rejected.Data.ModerationStatus != "approved" {
		t.Fatalf("status = %s, want approved (listing stays live)", rejected.Data.ModerationStatus)
	}
	if rejected.Data.Description != "" {
		t.Fatalf("description = %q, staged change must be discarded", rejected.Data.Description)
	}
	if rejected.Data.RejectionReason != "unreviewed telemetry" {
		t.Fatalf("rejection reason = %q", rejected.Data.RejectionReason)
	}
}

func TestModerateReplaySameKeyReturnsSameOutcome(t *testing.T) {
	server := newTestServer()
	var created listinghttp.ProjectResponse
	doJSON(t, server, http.MethodPost, "/api/v1/projects", "owner-1", listinghttp.CreateProjectRequest{Name: "Deploy Kit"}, &created)
	doJSON(t, server, http.MethodPost, "/api/v1/projects/"+created.Data.ProjectID+"/submit", "owner-1", nil, nil)

	var first listinghttp.ProjectResponse
	rr := moderate(t, server, created.Data.ProjectID, "mod-1", "idem-replay", listinghttp.ModerateRequest{Action: "approve"}, &first)
	if rr.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var replayed listinghttp.ProjectResponse
	rr = moderate(t, server, created.Data.ProjectID, "mod-1", "idem-replay", listinghttp.ModerateRequest{Action: "approve"}, &replayed)
	if rr.Code != http.StatusOK {
		t.Fatalf("replay: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if replayed.Data.Version != first.Data.Version {
		t.Fatalf("replay version = %d, want %d", replayed.Data.Version, first.Data.Version)
	}

	// Same key with a different payload is a conflict, not a replay.
	rr = moderate(t, server, created.Data.ProjectID, "mod-1", "idem-replay", listinghttp.ModerateRequest{Action: "reject", Reason: "late"}, nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}
	if code := decodeErrorCode(t, rr); code != "idempotency_conflict" {
		t.Fatalf("error code = %s, want idempotency_conflict", code)
	}
}

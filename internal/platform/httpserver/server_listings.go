package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	listingerrors "keystone/contexts/catalog/listing-service/domain/errors"
	listinghttp "keystone/contexts/catalog/listing-service/transport/http"
)

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req listinghttp.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.listings.Handler.CreateProjectHandler(r.Context(), ownerID, req)
	if err != nil {
		writeListingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.listings.Handler.ListProjectsHandler(r.Context(), ownerID)
	if err != nil {
		writeListingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	resp, err := s.listings.Handler.GetProjectHandler(r.Context(), r.PathValue("project_id"))
	if err != nil {
		writeListingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitForReview(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	resp, err := s.listings.Handler.SubmitForReviewHandler(r.Context(), ownerID, r.PathValue("project_id"))
	if err != nil {
		writeListingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitChanges(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req listinghttp.SubmitChangesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.listings.Handler.SubmitChangesHandler(r.Context(), ownerID, r.PathValue("project_id"), req)
	if err != nil {
		writeListingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleModerateProject(w http.ResponseWriter, r *http.Request) {
	moderatorID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req listinghttp.ModerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.listings.Handler.ModerateHandler(
		r.Context(),
		r.Header.Get("Idempotency-Key"),
		moderatorID,
		r.PathValue("project_id"),
		req,
	)
	if err != nil {
		writeListingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePendingDiff(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	resp, err := s.listings.Handler.PendingDiffHandler(r.Context(), r.PathValue("project_id"))
	if err != nil {
		writeListingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeListingDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, listingerrors.ErrProjectNotFound):
		writeError(w, http.StatusNotFound, "project_not_found", err.Error())
	case errors.Is(err, listingerrors.ErrInvalidProjectRequest):
		writeError(w, http.StatusBadRequest, "invalid_project_request", err.Error())
	case errors.Is(err, listingerrors.ErrInvalidChangeSet):
		writeError(w, http.StatusBadRequest, "invalid_change_set", err.Error())
	case errors.Is(err, listingerrors.ErrNotProjectOwner):
		writeError(w, http.StatusForbidden, "not_project_owner", err.Error())
	case errors.Is(err, listingerrors.ErrNotApprovedYet):
		writeError(w, http.StatusConflict, "not_approved_yet", err.Error())
	case errors.Is(err, listingerrors.ErrNothingToModerate):
		writeError(w, http.StatusConflict, "nothing_to_moderate", err.Error())
	case errors.Is(err, listingerrors.ErrModerationConflict):
		writeError(w, http.StatusConflict, "moderation_conflict", err.Error())
	case errors.Is(err, listingerrors.ErrIdempotencyKeyRequired):
		writeError(w, http.StatusBadRequest, "idempotency_key_required", err.Error())
	case errors.Is(err, listingerrors.ErrIdempotencyConflict):
		writeError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

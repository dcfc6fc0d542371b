package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"keystone/contexts/catalog/listing-service/application"
	"keystone/contexts/catalog/listing-service/domain/entities"
	domainerrors "keystone/contexts/catalog/listing-service/domain/errors"
	"keystone/contexts/catalog/listing-service/domain/services"
	"keystone/contexts/catalog/listing-service/ports"
	httptransport "keystone/contexts/catalog/listing-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) CreateProjectHandler(ctx context.Context, ownerID string, req httptransport.CreateProjectRequest) (httptransport.ProjectResponse, error) {
	project, err := h.Service.CreateProject(ctx, ports.CreateProjectInput{
		OwnerID:     ownerID,
		Name:        req.Name,
		Description: req.Description,
		Repository:  req.Repository,
		PreviewURL:  req.PreviewURL,
		Visibility:  req.Visibility,
		TechStack:   req.TechStack,
		CategoryIDs: req.CategoryIDs,
	})
	if err != nil {
		return httptransport.ProjectResponse{}, err
	}
	return projectResponse(project), nil
}

func (h Handler) SubmitForReviewHandler(ctx context.Context, ownerID string, projectID string) (httptransport.ProjectResponse, error) {
	project, err := h.Service.SubmitForReview(ctx, projectID, ownerID)
	if err != nil {
		return httptransport.ProjectResponse{}, err
	}
	return projectResponse(project), nil
}

func (h Handler) SubmitChangesHandler(ctx context.Context, ownerID string, projectID string, req httptransport.SubmitChangesRequest) (httptransport.ProjectResponse, error) {
	changes, err := decodeChangeSet(req.Changes)
	if err != nil {
		return httptransport.ProjectResponse{}, err
	}
	project, err := h.Service.SubmitChanges(ctx, ports.SubmitChangesInput{
		ProjectID: projectID,
		OwnerID:   ownerID,
		Changes:   changes,
	})
	if err != nil {
		return httptransport.ProjectResponse{}, err
	}
	return projectResponse(project), nil
}

func (h Handler) ModerateHandler(ctx context.Context, idempotencyKey string, moderatorID string, projectID string, req httptransport.ModerateRequest) (httptransport.ProjectResponse, error) {
	input := ports.ModerateInput{
		ProjectID:       projectID,
		ModeratorID:     moderatorID,
		Note:            req.Note,
		Reason:          req.Reason,
		ExpectedVersion: req.ExpectedVersion,
	}
	var (
		project entities.Project
		err     error
	)
	switch strings.TrimSpace(strings.ToLower(req.Action)) {
	case "approve":
		project, err = h.Service.Approve(ctx, idempotencyKey, input)
	case "reject":
		project, err = h.Service.Reject(ctx, idempotencyKey, input)
	default:
		return httptransport.ProjectResponse{}, domainerrors.ErrInvalidProjectRequest
	}
	if err != nil {
		return httptransport.ProjectResponse{}, err
	}
	return projectResponse(project), nil
}

func (h Handler) PendingDiffHandler(ctx context.Context, projectID string) (httptransport.DiffResponse, error) {
	project, changes, err := h.Service.PendingDiff(ctx, projectID)
	if err != nil {
		return httptransport.DiffResponse{}, err
	}
	resp := httptransport.DiffResponse{Status: "success", Timestamp: time.Now().UTC().Format(time.RFC3339)}
	resp.Data.ProjectID = project.ProjectID
	resp.Data.Version = project.Version
	resp.Data.Changes = make([]httptransport.FieldChangePayload, 0, len(changes))
	for _, change := range changes {
		resp.Data.Changes = append(resp.Data.Changes, fieldChangePayload(change))
	}
	return resp, nil
}

func (h Handler) GetProjectHandler(ctx context.Context, projectID string) (httptransport.ProjectResponse, error) {
	project, err := h.Service.GetProject(ctx, projectID)
	if err != nil {
		return httptransport.ProjectResponse{}, err
	}
	return projectResponse(project), nil
}

func (h Handler) ListProjectsHandler(ctx context.Context, ownerID string) (httptransport.ProjectListResponse, error) {
	projects, err := h.Service.ListByOwner(ctx, ownerID)
	if err != nil {
		return httptransport.ProjectListResponse{}, err
	}
	resp := httptransport.ProjectListResponse{Status: "success", Timestamp: time.Now().UTC().Format(time.RFC3339)}
	resp.Data.Projects = make([]httptransport.ProjectPayload, 0, len(projects))
	for _, project := range projects {
		resp.Data.Projects = append(resp.Data.Projects, projectPayload(project))
	}
	return resp, nil
}

// decodeChangeSet maps the wire shape onto the tagged variant: scalar
// fields take JSON strings, set fields take JSON string arrays. Anything
// else is an invalid change set.
func decodeChangeSet(raw map[string]json.RawMessage) (entities.ChangeSet, error) {
	if len(raw) == 0 {
		return nil, domainerrors.ErrInvalidChangeSet
	}
	changes := make(entities.ChangeSet, len(raw))
	for name, value := range raw {
		field := entities.Field(strings.TrimSpace(strings.ToLower(name)))
		kind, known := entities.FieldKind(field)
		if !known {
			return nil, domainerrors.ErrInvalidChangeSet
		}
		switch kind {
		case entities.ValueKindScalar:
			var scalar string
			if err := json.Unmarshal(value, &scalar); err != nil {
				return nil, domainerrors.ErrInvalidChangeSet
			}
			changes[field] = entities.ScalarValue(scalar)
		case entities.ValueKindSet:
			var set []string
			if err := json.Unmarshal(value, &set); err != nil {
				return nil, domainerrors.ErrInvalidChangeSet
			}
			if set == nil {
				set = []string{}
			}
			changes[field] = entities.SetValue(set)
		}
	}
	return changes, nil
}

func projectResponse(project entities.Project) httptransport.ProjectResponse {
	return httptransport.ProjectResponse{
		Status:    "success",
		Data:      projectPayload(project),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func projectPayload(project entities.Project) httptransport.ProjectPayload {
	payload := httptransport.ProjectPayload{
		ProjectID:        project.ProjectID,
		OwnerID:          project.OwnerID,
		Name:             project.Name,
		Description:      project.Description,
		Repository:       project.Repository,
		PreviewURL:       project.PreviewURL,
		Visibility:       string(project.Visibility),
		TechStack:        project.TechStack,
		CategoryIDs:      project.CategoryIDs,
		ModerationStatus: string(project.ModerationStatus),
		RejectionReason:  project.RejectionReason,
		PubliclyListable: project.PubliclyListable(),
		Version:          project.Version,
		CreatedAt:        project.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        project.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if len(project.PendingChanges) > 0 {
		payload.PendingChanges = make(map[string]httptransport.ProposedValuePayload, len(project.PendingChanges))
		for field, proposed := range project.PendingChanges {
			payload.PendingChanges[string(field)] = proposedValuePayload(proposed)
		}
	}
	if project.PendingChangesSubmittedAt != nil {
		payload.PendingChangesSubmittedAt = project.PendingChangesSubmittedAt.UTC().Format(time.RFC3339)
	}
	return payload
}

func fieldChangePayload(change services.FieldChange) httptransport.FieldChangePayload {
	return httptransport.FieldChangePayload{
		Field:    string(change.Field),
		Live:     proposedValuePayload(change.Live),
		Proposed: proposedValuePayload(change.Proposed),
	}
}

func proposedValuePayload(value entities.ProposedValue) httptransport.ProposedValuePayload {
	return httptransport.ProposedValuePayload{
		Kind:   string(value.Kind),
		Scalar: value.Scalar,
		Set:    value.Set,
	}
}

package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"keystone/contexts/catalog/listing-service/domain/entities"
	domainerrors "keystone/contexts/catalog/listing-service/domain/errors"
	"keystone/contexts/catalog/listing-service/domain/services"
	"keystone/contexts/catalog/listing-service/ports"
)

type Service struct {
	Repo           ports.Repository
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// CreateProject registers a new draft listing. Drafts are invisible to
// the marketplace until they pass moderation.
func (s Service) CreateProject(ctx context.Context, input ports.CreateProjectInput) (entities.Project, error) {
	logger := resolveLogger(s.Logger)
	input.OwnerID = strings.TrimSpace(input.OwnerID)
	input.Name = strings.TrimSpace(input.Name)
	input.Visibility = strings.TrimSpace(strings.ToLower(input.Visibility))
	if input.OwnerID == "" || input.Name == "" {
		return entities.Project{}, domainerrors.ErrInvalidProjectRequest
	}
	visibility := entities.VisibilityPrivate
	if input.Visibility != "" {
		parsed, ok := entities.ParseVisibility(input.Visibility)
		if !ok {
			return entities.Project{}, domainerrors.ErrInvalidProjectRequest
		}
		visibility = parsed
	}

	projectID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Project{}, err
	}
	now := s.now()
	project := entities.Project{
		ProjectID:        projectID,
		OwnerID:          input.OwnerID,
		Name:             input.Name,
		Description:      strings.TrimSpace(input.Description),
		Repository:       strings.TrimSpace(input.Repository),
		PreviewURL:       strings.TrimSpace(input.PreviewURL),
		Visibility:       visibility,
		TechStack:        append([]string(nil), input.TechStack...),
		CategoryIDs:      append([]string(nil), input.CategoryIDs...),
		ModerationStatus: entities.ModerationStatusDraft,
		Version:          1,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.Repo.Create(ctx, project); err != nil {
		return entities.Project{}, err
	}

	logger.Info("project created",
		"event", "project_created",
		"module", "catalog/listing-service",
		"layer", "application",
		"project_id", project.ProjectID,
		"owner_id", project.OwnerID,
		"visibility", string(project.Visibility),
	)
	return project, nil
}

// SubmitForReview moves a draft or rejected listing into the moderation
// queue. A resubmission clears the previous rejection reason.
func (s Service) SubmitForReview(ctx context.Context, projectID string, ownerID string) (entities.Project, error) {
	logger := resolveLogger(s.Logger)
	project, err := s.ownedProject(ctx, projectID, ownerID)
	if err != nil {
		return entities.Project{}, err
	}
	switch project.ModerationStatus {
	case entities.ModerationStatusDraft, entities.ModerationStatusRejected:
	default:
		return entities.Project{}, domainerrors.ErrInvalidProjectRequest
	}

	updated := project
	updated.ModerationStatus = entities.ModerationStatusPending
	updated.RejectionReason = ""
	updated.UpdatedAt = s.now()
	updated.Version = project.Version + 1
	if err := s.Repo.UpdateGuarded(ctx, updated, project.Version); err != nil {
		return entities.Project{}, err
	}

	logger.Info("project submitted for review",
		"event", "project_submitted",
		"module", "catalog/listing-service",
		"layer", "application",
		"project_id", updated.ProjectID,
		"owner_id", updated.OwnerID,
	)
	return updated, nil
}

// SubmitChanges stages a sparse edit against an approved listing. The
// live fields stay published untouched until a moderator approves the
// staged set.
func (s Service) SubmitChanges(ctx context.Context, input ports.SubmitChangesInput) (entities.Project, error) {
	logger := resolveLogger(s.Logger)
	if err := validateChangeSet(input.Changes); err != nil {
		return entities.Project{}, err
	}
	project, err := s.ownedProject(ctx, input.ProjectID, input.OwnerID)
	if err != nil {
		return entities.Project{}, err
	}
	if project.ModerationStatus != entities.ModerationStatusApproved {
		return entities.Project{}, domainerrors.ErrNotApprovedYet
	}

	now := s.now()
	updated := project
	updated.ModerationStatus = entities.ModerationStatusChangesPending
	updated.PendingChanges = input.Changes
	updated.PendingChangesSubmittedAt = &now
	updated.UpdatedAt = now
	updated.Version = project.Version + 1
	if err := s.Repo.UpdateGuarded(ctx, updated, project.Version); err != nil {
		return entities.Project{}, err
	}

	logger.Info("project changes staged",
		"event", "project_changes_staged",
		"module", "catalog/listing-service",
		"layer", "application",
		"project_id", updated.ProjectID,
		"owner_id", updated.OwnerID,
		"field_count", len(input.Changes),
	)
	return updated, nil
}

// PendingDiff is the moderator view of a staged edit: only the fields
// whose proposed value materially differs from the live one.
func (s Service) PendingDiff(ctx context.Context, projectID string) (entities.Project, []services.FieldChange, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return entities.Project{}, nil, domainerrors.ErrInvalidProjectRequest
	}
	project, err := s.Repo.Get(ctx, projectID)
	if err != nil {
		return entities.Project{}, nil, err
	}
	if project.ModerationStatus != entities.ModerationStatusChangesPending {
		return entities.Project{}, nil, domainerrors.ErrNothingToModerate
	}
	return project, services.Diff(project), nil
}

// Approve resolves whatever is awaiting moderation: an initial review
// goes live as-is, a staged edit is applied onto the live fields
// all-or-nothing. Retries replay through the idempotency store.
func (s Service) Approve(ctx context.Context, idempotencyKey string, input ports.ModerateInput) (entities.Project, error) {
	return s.moderate(ctx, idempotencyKey, input, "approved", s.applyApprove)
}

// Reject turns down whatever is awaiting moderation. For a staged edit
// the live listing stays approved and published; only the staged set is
// discarded.
func (s Service) Reject(ctx context.Context, idempotencyKey string, input ports.ModerateInput) (entities.Project, error) {
	input.Reason = strings.TrimSpace(input.Reason)
	if input.Reason == "" {
		return entities.Project{}, domainerrors.ErrInvalidProjectRequest
	}
	return s.moderate(ctx, idempotencyKey, input, "rejected", s.applyReject)
}

func (s Service) GetProject(ctx context.Context, projectID string) (entities.Project, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return entities.Project{}, domainerrors.ErrInvalidProjectRequest
	}
	return s.Repo.Get(ctx, projectID)
}

func (s Service) ListByOwner(ctx context.Context, ownerID string) ([]entities.Project, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, domainerrors.ErrInvalidProjectRequest
	}
	return s.Repo.ListByOwner(ctx, ownerID)
}

func (s Service) applyApprove(project entities.Project, input ports.ModerateInput, now time.Time) (entities.Project, error) {
	switch project.ModerationStatus {
	case entities.ModerationStatusPending:
	case entities.ModerationStatusChangesPending:
		project = services.ApplyChangeSet(project)
	default:
		return entities.Project{}, domainerrors.ErrNothingToModerate
	}
	project.ModerationStatus = entities.ModerationStatusApproved
	project.PendingChanges = nil
	project.PendingChangesSubmittedAt = nil
	project.RejectionReason = ""
	project.UpdatedAt = now
	return project, nil
}

func (s Service) applyReject(project entities.Project, input ports.ModerateInput, now time.Time) (entities.Project, error) {
	switch project.ModerationStatus {
	case entities.ModerationStatusPending:
		project.ModerationStatus = entities.ModerationStatusRejected
	case entities.ModerationStatusChangesPending:
		// The live listing was already approved; only the staged edit
		// is turned down.
		project.ModerationStatus = entities.ModerationStatusApproved
	default:
		return entities.Project{}, domainerrors.ErrNothingToModerate
	}
	project.PendingChanges = nil
	project.PendingChangesSubmittedAt = nil
	project.RejectionReason = input.Reason
	project.UpdatedAt = now
	return project, nil
}

func (s Service) moderate(
	ctx context.Context,
	idempotencyKey string,
	input ports.ModerateInput,
	action string,
	apply func(entities.Project, ports.ModerateInput, time.Time) (entities.Project, error),
) (entities.Project, error) {
	logger := resolveLogger(s.Logger)
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	input.ProjectID = strings.TrimSpace(input.ProjectID)
	input.ModeratorID = strings.TrimSpace(input.ModeratorID)
	input.Note = strings.TrimSpace(input.Note)
	input.Reason = strings.TrimSpace(input.Reason)
	if idempotencyKey == "" {
		return entities.Project{}, domainerrors.ErrIdempotencyKeyRequired
	}
	if input.ProjectID == "" || input.ModeratorID == "" {
		return entities.Project{}, domainerrors.ErrInvalidProjectRequest
	}

	requestHash := hashStrings(input.ModeratorID, input.ProjectID, action, input.Note, input.Reason,
		strconv.Itoa(input.ExpectedVersion))
	var output entities.Project
	err := s.runIdempotent(
		ctx,
		idempotencyKey,
		requestHash,
		func(raw []byte) error { return json.Unmarshal(raw, &output) },
		func() ([]byte, error) {
			project, err := s.Repo.Get(ctx, input.ProjectID)
			if err != nil {
				return nil, err
			}
			if input.ExpectedVersion != 0 && input.ExpectedVersion != project.Version {
				return nil, domainerrors.ErrModerationConflict
			}
			updated, err := apply(project, input, s.now())
			if err != nil {
				return nil, err
			}
			updated.Version = project.Version + 1
			if err := s.Repo.UpdateGuarded(ctx, updated, project.Version); err != nil {
				return nil, err
			}
			logger.Info("moderation decision recorded",
				"event", "project_moderated",
				"module", "catalog/listing-service",
				"layer", "application",
				"project_id", updated.ProjectID,
				"moderator_id", input.ModeratorID,
				"action", action,
				"moderation_status", string(updated.ModerationStatus),
			)
			return json.Marshal(updated)
		},
	)
	return output, err
}

func (s Service) ownedProject(ctx context.Context, projectID string, ownerID string) (entities.Project, error) {
	projectID = strings.TrimSpace(projectID)
	ownerID = strings.TrimSpace(ownerID)
	if projectID == "" || ownerID == "" {
		return entities.Project{}, domainerrors.ErrInvalidProjectRequest
	}
	project, err := s.Repo.Get(ctx, projectID)
	if err != nil {
		return entities.Project{}, err
	}
	if project.OwnerID != ownerID {
		return entities.Project{}, domainerrors.ErrNotProjectOwner
	}
	return project, nil
}

func validateChangeSet(changes entities.ChangeSet) error {
	if len(changes) == 0 {
		return domainerrors.ErrInvalidChangeSet
	}
	for field, proposed := range changes {
		kind, known := entities.FieldKind(field)
		if !known || proposed.Kind != kind {
			return domainerrors.ErrInvalidChangeSet
		}
		if field == entities.FieldVisibility {
			if _, ok := entities.ParseVisibility(strings.TrimSpace(strings.ToLower(proposed.Scalar))); !ok {
				return domainerrors.ErrInvalidChangeSet
			}
		}
	}
	return nil
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (s Service) idempotencyTTL() time.Duration {
	if s.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.IdempotencyTTL
}

func (s Service) runIdempotent(
	ctx context.Context,
	key string,
	requestHash string,
	decode func([]byte) error,
	exec func() ([]byte, error),
) error {
	now := s.now()
	record, found, err := s.Idempotency.Get(ctx, key, now)
	if err != nil {
		return err
	}
	if found {
		if record.RequestHash != requestHash {
			return domainerrors.ErrIdempotencyConflict
		}
		return decode(record.Payload)
	}
	payload, err := exec()
	if err != nil {
		return err
	}
	if err := s.Idempotency.Put(ctx, ports.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		Payload:     payload,
		ExpiresAt:   now.Add(s.idempotencyTTL()),
	}); err != nil {
		return err
	}
	return decode(payload)
}

func hashStrings(values ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(values, "|")))
	return hex.EncodeToString(sum[:])
}

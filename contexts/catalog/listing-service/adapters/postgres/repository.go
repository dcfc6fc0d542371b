package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"keystone/contexts/catalog/listing-service/domain/entities"
	domainerrors "keystone/contexts/catalog/listing-service/domain/errors"
	"keystone/contexts/catalog/listing-service/ports"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

func (r *Repository) Create(ctx context.Context, project entities.Project) error {
	row, err := modelFromEntity(project)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) Get(ctx context.Context, projectID string) (entities.Project, error) {
	var row projectModel
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Project{}, domainerrors.ErrProjectNotFound
		}
		return entities.Project{}, err
	}
	return row.toEntity()
}

func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]entities.Project, error) {
	var rows []projectModel
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]entities.Project, 0, len(rows))
	for _, row := range rows {
		project, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		result = append(result, project)
	}
	return result, nil
}

// UpdateGuarded is the version compare-and-swap behind moderation
// conflicts: a stale writer sees zero affected rows.
func (r *Repository) UpdateGuarded(ctx context.Context, project entities.Project, expectedVersion int) error {
	row, err := modelFromEntity(project)
	if err != nil {
		return err
	}
	updates := map[string]any{
		"name":              row.Name,
		"description":       row.Description,
		"repository":        row.Repository,
		"preview_url":       row.PreviewURL,
		"visibility":        row.Visibility,
		"tech_stack":        row.TechStack,
		"category_ids":      row.CategoryIDs,
		"moderation_status": row.ModerationStatus,
		"pending_changes":   row.PendingChanges,
		"rejection_reason":  row.RejectionReason,
		"version":           row.Version,
		"updated_at":        row.UpdatedAt,
	}
	if row.PendingChangesSubmittedAt != nil {
		updates["pending_changes_submitted_at"] = row.PendingChangesSubmittedAt
	} else {
		updates["pending_changes_submitted_at"] = nil
	}
	result := r.db.WithContext(ctx).
		Model(&projectModel{}).
		Where("project_id = ? AND version = ?", project.ProjectID, expectedVersion).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrModerationConflict
	}
	return nil
}

// UUIDGenerator implements ports.IDGenerator using RFC 4122 UUID v4 values.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

type projectModel struct {
	ProjectID                 string     `gorm:"column:project_id;primaryKey"`
	OwnerID                   string     `gorm:"column:owner_id;index"`
	Name                      string     `gorm:"column:name"`
	Description               string     `gorm:"column:description"`
	Repository                string     `gorm:"column:repository"`
	PreviewURL                string     `gorm:"column:preview_url"`
	Visibility                string     `gorm:"column:visibility"`
	TechStack                 string     `gorm:"column:tech_stack"`
	CategoryIDs               string     `gorm:"column:category_ids"`
	ModerationStatus          string     `gorm:"column:moderation_status;index"`
	PendingChanges            []byte     `gorm:"column:pending_changes;type:jsonb"`
	PendingChangesSubmittedAt *time.Time `gorm:"column:pending_changes_submitted_at"`
	RejectionReason           string     `gorm:"column:rejection_reason"`
	Version                   int        `gorm:"column:version"`
	CreatedAt                 time.Time  `gorm:"column:created_at"`
	UpdatedAt                 time.Time  `gorm:"column:updated_at"`
}

func (projectModel) TableName() string { return "projects" }

// Models lists the row types this adapter owns, for migration.
func Models() []any {
	return []any{&projectModel{}}
}

func modelFromEntity(project entities.Project) (projectModel, error) {
	techStack, err := marshalStrings(project.TechStack)
	if err != nil {
		return projectModel{}, err
	}
	categoryIDs, err := marshalStrings(project.CategoryIDs)
	if err != nil {
		return projectModel{}, err
	}
	var pendingChanges []byte
	if project.PendingChanges != nil {
		pendingChanges, err = json.Marshal(project.PendingChanges)
		if err != nil {
			return projectModel{}, err
		}
	}
	return projectModel{
		ProjectID:                 project.ProjectID,
		OwnerID:                   project.OwnerID,
		Name:                      project.Name,
		Description:               project.Description,
		Repository:                project.Repository,
		PreviewURL:                project.PreviewURL,
		Visibility:                string(project.Visibility),
		TechStack:                 techStack,
		CategoryIDs:               categoryIDs,
		ModerationStatus:          string(project.ModerationStatus),
		PendingChanges:            pendingChanges,
		PendingChangesSubmittedAt: project.PendingChangesSubmittedAt,
		RejectionReason:           project.RejectionReason,
		Version:                   project.Version,
		CreatedAt:                 project.CreatedAt.UTC(),
		UpdatedAt:                 project.UpdatedAt.UTC(),
	}, nil
}

func (m projectModel) toEntity() (entities.Project, error) {
	var techStack []string
	if m.TechStack != "" {
		if err := json.Unmarshal([]byte(m.TechStack), &techStack); err != nil {
			return entities.Project{}, err
		}
	}
	var categoryIDs []string
	if m.CategoryIDs != "" {
		if err := json.Unmarshal([]byte(m.CategoryIDs), &categoryIDs); err != nil {
			return entities.Project{}, err
		}
	}
	var pendingChanges entities.ChangeSet
	if len(m.PendingChanges) > 0 {
		if err := json.Unmarshal(m.PendingChanges, &pendingChanges); err != nil {
			return entities.Project{}, err
		}
	}
	return entities.Project{
		ProjectID:                 m.ProjectID,
		OwnerID:                   m.OwnerID,
		Name:                      m.Name,
		Description:               m.Description,
		Repository:                m.Repository,
		PreviewURL:                m.PreviewURL,
		Visibility:                entities.Visibility(m.Visibility),
		TechStack:                 techStack,
		CategoryIDs:               categoryIDs,
		ModerationStatus:          entities.ModerationStatus(m.ModerationStatus),
		PendingChanges:            pendingChanges,
		PendingChangesSubmittedAt: m.PendingChangesSubmittedAt,
		RejectionReason:           m.RejectionReason,
		Version:                   m.Version,
		CreatedAt:                 m.CreatedAt,
		UpdatedAt:                 m.UpdatedAt,
	}, nil
}

func marshalStrings(values []string) (string, error) {
	if len(values) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

var _ ports.Repository = (*Repository)(nil)

package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"keystone/contexts/commerce/entitlement-service/domain/entities"
	domainerrors "keystone/contexts/commerce/entitlement-service/domain/errors"
	"keystone/contexts/commerce/entitlement-service/ports"
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

func (r *Repository) Create(ctx context.Context, entitlement entities.Entitlement) error {
	row := modelFromEntity(entitlement)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicateEntitlementKey
		}
		return err
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, entitlementID string) (entities.Entitlement, error) {
	var row entitlementModel
	err := r.db.WithContext(ctx).Where("entitlement_id = ?", entitlementID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Entitlement{}, domainerrors.ErrEntitlementNotFound
		}
		return entities.Entitlement{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetByKey(ctx context.Context, userID string, licenseID string, projectID string) (entities.Entitlement, bool, error) {
	var row entitlementModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND license_id = ? AND project_id = ?", userID, licenseID, projectID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Entitlement{}, false, nil
		}
		return entities.Entitlement{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]entities.Entitlement, error) {
	var rows []entitlementModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]entities.Entitlement, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toEntity())
	}
	return result, nil
}

// UpdateGuarded is the version compare-and-swap behind atomic quota
// consumption: the losing writer of a concurrent pair sees zero affected
// rows and retries against fresh state.
func (r *Repository) UpdateGuarded(ctx context.Context, entitlement entities.Entitlement, expectedVersion int) error {
	updates := map[string]any{
		"deployments_used":    entitlement.DeploymentsUsed,
		"deployments_allowed": entitlement.DeploymentsAllowed,
		"status":              string(entitlement.Status),
		"version":             entitlement.Version,
		"updated_at":          entitlement.UpdatedAt.UTC(),
	}
	if entitlement.ExpiresAt != nil {
		updates["expires_at"] = entitlement.ExpiresAt.UTC()
	} else {
		updates["expires_at"] = nil
	}
	result := r.db.WithContext(ctx).
		Model(&entitlementModel{}).
		Where("entitlement_id = ? AND version = ?", entitlement.EntitlementID, expectedVersion).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConcurrentEntitlementUpdate
	}
	return nil
}

func (r *Repository) ExpireActive(ctx context.Context, now time.Time) (int, error) {
	result := r.db.WithContext(ctx).
		Model(&entitlementModel{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", string(entities.EntitlementStatusActive), now.UTC()).
		Updates(map[string]any{
			"status":     string(entities.EntitlementStatusExpired),
			"updated_at": now.UTC(),
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
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

type entitlementModel struct {
	EntitlementID      string     `gorm:"column:entitlement_id;primaryKey"`
	UserID             string     `gorm:"column:user_id;uniqueIndex:entitlements_grant_key"`
	LicenseID          string     `gorm:"column:license_id;uniqueIndex:entitlements_grant_key"`
	ProjectID          string     `gorm:"column:project_id;uniqueIndex:entitlements_grant_key"`
	DeploymentsUsed    int        `gorm:"column:deployments_used"`
	DeploymentsAllowed int        `gorm:"column:deployments_allowed"`
	Status             string     `gorm:"column:status"`
	ExpiresAt          *time.Time `gorm:"column:expires_at"`
	Version            int        `gorm:"column:version"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
}

func (entitlementModel) TableName() string { return "entitlements" }

// Models lists the row types this adapter owns, for migration.
func Models() []any {
	return []any{&entitlementModel{}}
}

func modelFromEntity(entitlement entities.Entitlement) entitlementModel {
	return entitlementModel{
		EntitlementID:      entitlement.EntitlementID,
		UserID:             entitlement.UserID,
		LicenseID:          entitlement.LicenseID,
		ProjectID:          entitlement.ProjectID,
		DeploymentsUsed:    entitlement.DeploymentsUsed,
		DeploymentsAllowed: entitlement.DeploymentsAllowed,
		Status:             string(entitlement.Status),
		ExpiresAt:          entitlement.ExpiresAt,
		Version:            entitlement.Version,
		CreatedAt:          entitlement.CreatedAt.UTC(),
		UpdatedAt:          entitlement.UpdatedAt.UTC(),
	}
}

func (m entitlementModel) toEntity() entities.Entitlement {
	return entities.Entitlement{
		EntitlementID:      m.EntitlementID,
		UserID:             m.UserID,
		LicenseID:          m.LicenseID,
		ProjectID:          m.ProjectID,
		DeploymentsUsed:    m.DeploymentsUsed,
		DeploymentsAllowed: m.DeploymentsAllowed,
		Status:             entities.EntitlementStatus(m.Status),
		ExpiresAt:          m.ExpiresAt,
		Version:            m.Version,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

var _ ports.Repository = (*Repository)(nil)

package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"keystone/contexts/commerce/order-service/domain/entities"
	domainerrors "keystone/contexts/commerce/order-service/domain/errors"
	"keystone/contexts/commerce/order-service/ports"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
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

func (r *Repository) GetLicense(ctx context.Context, licenseID string) (entities.License, error) {
	var row licenseModel
	err := r.db.WithContext(ctx).Where("license_id = ?", licenseID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.License{}, domainerrors.ErrLicenseNotFound
		}
		return entities.License{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) CreateOrder(ctx context.Context, order entities.Order) error {
	row := orderModelFromEntity(order)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrLedgerInvariantBroken
		}
		return err
	}
	return nil
}

func (r *Repository) GetOrder(ctx context.Context, orderID string) (entities.Order, error) {
	var row orderModel
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Order{}, domainerrors.ErrOrderNotFound
		}
		return entities.Order{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]entities.Order, error) {
	var rows []orderModel
	err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	orders := make([]entities.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, row.toEntity())
	}
	return orders, nil
}

func (r *Repository) GetPaymentByTransactionID(ctx context.Context, transactionID string) (entities.Payment, bool, error) {
	var row paymentModel
	err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Payment{}, false, nil
		}
		return entities.Payment{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListPaymentsByOrder(ctx context.Context, orderID string) ([]entities.Payment, error) {
	var rows []paymentModel
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	payments := make([]entities.Payment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, row.toEntity())
	}
	return payments, nil
}

// RecordPaymentOutcome writes the attempt, the guarded order update and the
// outbox row in one transaction. The unique index on transaction_id makes
// concurrent identical attempts collapse into exactly one ledger row.
func (r *Repository) RecordPaymentOutcome(ctx context.Context, payment entities.Payment, order *entities.Order, expectedStatus entities.OrderStatus, event *ports.OrderEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := paymentModelFromEntity(payment)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrDuplicatePayment
			}
			return err
		}
		if order != nil {
			if err := applyOrderUpdate(tx, *order, expectedStatus, domainerrors.ErrConcurrentOrderUpdate); err != nil {
				return err
			}
		}
		if event != nil {
			if err := appendOutbox(tx, *event); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) TransitionOrder(ctx context.Context, order entities.Order, expectedStatus entities.OrderStatus, event *ports.OrderEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := applyOrderUpdate(tx, order, expectedStatus, domainerrors.ErrInvalidTransition); err != nil {
			return err
		}
		if event != nil {
			if err := appendOutbox(tx, *event); err != nil {
				return err
			}
		}
		return nil
	})
}

// applyOrderUpdate is the status-guarded write shared by every transition.
// The guard is what serializes concurrent callers: whichever update loses
// the race sees zero affected rows.
func applyOrderUpdate(tx *gorm.DB, order entities.Order, expectedStatus entities.OrderStatus, conflictErr error) error {
	updates := map[string]any{
		"status":     string(order.Status),
		"is_active":  order.IsActive,
		"updated_at": order.UpdatedAt.UTC(),
	}
	if order.CompletedAt != nil {
		updates["completed_at"] = order.CompletedAt.UTC()
	}
	if order.ExpiresAt != nil {
		updates["expires_at"] = order.ExpiresAt.UTC()
	}
	result := tx.Model(&orderModel{}).
		Where("order_id = ? AND status = ?", order.OrderID, string(expectedStatus)).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return conflictErr
	}
	return nil
}

func appendOutbox(tx *gorm.DB, event ports.OrderEvent) error {
	payload, err := json.Marshal(event.Envelope())
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    event.OccurredAt.UTC(),
	}
	if err := tx.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrLedgerInvariantBroken
		}
		return err
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	messages := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt,
		})
	}
	return messages, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ? AND status = ?", outboxID, outboxStatusPending).
		Updates(map[string]any{"status": outboxStatusSent, "sent_at": sentAt.UTC()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrLedgerInvariantBroken
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

type orderModel struct {
	OrderID         string          `gorm:"column:order_id;primaryKey"`
	BuyerID         string          `gorm:"column:buyer_id"`
	SellerID        string          `gorm:"column:seller_id"`
	LicenseID       string          `gorm:"column:license_id"`
	Amount          decimal.Decimal `gorm:"column:amount;type:numeric(12,2)"`
	Currency        string          `gorm:"column:currency"`
	Status          string          `gorm:"column:status"`
	ReferenceNumber string          `gorm:"column:reference_number;uniqueIndex"`
	Notes           string          `gorm:"column:notes"`
	IsActive        bool            `gorm:"column:is_active"`
	CreatedAt       time.Time       `gorm:"column:created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at"`
	CompletedAt     *time.Time      `gorm:"column:completed_at"`
	ExpiresAt       *time.Time      `gorm:"column:expires_at"`
}

func (orderModel) TableName() string { return "orders" }

func orderModelFromEntity(order entities.Order) orderModel {
	return orderModel{
		OrderID:         order.OrderID,
		BuyerID:         order.BuyerID,
		SellerID:        order.SellerID,
		LicenseID:       order.LicenseID,
		Amount:          order.Amount,
		Currency:        order.Currency,
		Status:          string(order.Status),
		ReferenceNumber: order.ReferenceNumber,
		Notes:           order.Notes,
		IsActive:        order.IsActive,
		CreatedAt:       order.CreatedAt.UTC(),
		UpdatedAt:       order.UpdatedAt.UTC(),
		CompletedAt:     order.CompletedAt,
		ExpiresAt:       order.ExpiresAt,
	}
}

func (m orderModel) toEntity() entities.Order {
	return entities.Order{
		OrderID:         m.OrderID,
		BuyerID:         m.BuyerID,
		SellerID:        m.SellerID,
		LicenseID:       m.LicenseID,
		Amount:          m.Amount,
		Currency:        m.Currency,
		Status:          entities.OrderStatus(m.Status),
		ReferenceNumber: m.ReferenceNumber,
		Notes:           m.Notes,
		IsActive:        m.IsActive,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		CompletedAt:     m.CompletedAt,
		ExpiresAt:       m.ExpiresAt,
	}
}

type paymentModel struct {
	PaymentID       string          `gorm:"column:payment_id;primaryKey"`
	OrderID         string          `gorm:"column:order_id;index"`
	Amount          decimal.Decimal `gorm:"column:amount;type:numeric(12,2)"`
	Currency        string          `gorm:"column:currency"`
	Method          string          `gorm:"column:method"`
	Status          string          `gorm:"column:status"`
	TransactionID   string          `gorm:"column:transaction_id;uniqueIndex"`
	GatewayResponse json.RawMessage `gorm:"column:gateway_response;type:jsonb"`
	CreatedAt       time.Time       `gorm:"column:created_at"`
	ProcessedAt     *time.Time      `gorm:"column:processed_at"`
}

func (paymentModel) TableName() string { return "payments" }

func paymentModelFromEntity(payment entities.Payment) paymentModel {
	return paymentModel{
		PaymentID:       payment.PaymentID,
		OrderID:         payment.OrderID,
		Amount:          payment.Amount,
		Currency:        payment.Currency,
		Method:          payment.Method,
		Status:          string(payment.Status),
		TransactionID:   payment.TransactionID,
		GatewayResponse: payment.GatewayResponse,
		CreatedAt:       payment.CreatedAt.UTC(),
		ProcessedAt:     payment.ProcessedAt,
	}
}

func (m paymentModel) toEntity() entities.Payment {
	return entities.Payment{
		PaymentID:       m.PaymentID,
		OrderID:         m.OrderID,
		Amount:          m.Amount,
		Currency:        m.Currency,
		Method:          m.Method,
		Status:          entities.PaymentStatus(m.Status),
		TransactionID:   m.TransactionID,
		GatewayResponse: m.GatewayResponse,
		CreatedAt:       m.CreatedAt,
		ProcessedAt:     m.ProcessedAt,
	}
}

type licenseModel struct {
	LicenseID       string          `gorm:"column:license_id;primaryKey"`
	OwnerID         string          `gorm:"column:owner_id"`
	ProjectID       string          `gorm:"column:project_id"`
	Price           decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	Currency        string          `gorm:"column:currency"`
	DeploymentLimit int             `gorm:"column:deployment_limit"`
	DurationDays    int             `gorm:"column:duration_days"`
	Features        string          `gorm:"column:features"`
	Status          string          `gorm:"column:status"`
}

func (licenseModel) TableName() string { return "licenses" }

func (m licenseModel) toEntity() entities.License {
	var features []string
	if m.Features != "" {
		_ = json.Unmarshal([]byte(m.Features), &features)
	}
	return entities.License{
		LicenseID:       m.LicenseID,
		OwnerID:         m.OwnerID,
		ProjectID:       m.ProjectID,
		Price:           m.Price,
		Currency:        m.Currency,
		DeploymentLimit: m.DeploymentLimit,
		DurationDays:    m.DurationDays,
		Features:        features,
		Status:          entities.LicenseStatus(m.Status),
	}
}

type outboxModel struct {
	OutboxID     string          `gorm:"column:outbox_id;primaryKey"`
	EventType    string          `gorm:"column:event_type"`
	PartitionKey string          `gorm:"column:partition_key"`
	Payload      json.RawMessage `gorm:"column:payload;type:jsonb"`
	Status       string          `gorm:"column:status;index"`
	CreatedAt    time.Time       `gorm:"column:created_at"`
	SentAt       *time.Time      `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string { return "order_outbox" }

// Models lists the row types this adapter owns, for migration.
func Models() []any {
	return []any{&orderModel{}, &paymentModel{}, &licenseModel{}, &outboxModel{}}
}

var _ ports.OrderRepository = (*Repository)(nil)
var _ ports.LicenseCatalog = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)

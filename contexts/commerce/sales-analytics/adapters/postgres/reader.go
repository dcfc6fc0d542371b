package postgresadapter

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"keystone/contexts/commerce/sales-analytics/ports"
)

// Reader projects analytics queries straight off the orders table the
// order service writes.
type Reader struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewReader(db *gorm.DB, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{db: db, logger: logger}
}

func (r *Reader) ListOrdersBySeller(ctx context.Context, sellerID string, start time.Time, end time.Time) ([]ports.OrderRecord, error) {
	var rows []orderRow
	err := r.db.WithContext(ctx).
		Table("orders").
		Select("order_id", "seller_id", "license_id", "amount", "currency", "status", "created_at").
		Where("seller_id = ? AND created_at >= ? AND created_at < ?", sellerID, start, end).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make([]ports.OrderRecord, 0, len(rows))
	for _, row := range rows {
		result = append(result, ports.OrderRecord{
			OrderID:   row.OrderID,
			SellerID:  row.SellerID,
			LicenseID: row.LicenseID,
			Amount:    row.Amount,
			Currency:  row.Currency,
			Status:    row.Status,
			CreatedAt: row.CreatedAt,
		})
	}
	return result, nil
}

type orderRow struct {
	OrderID   string          `gorm:"column:order_id"`
	SellerID  string          `gorm:"column:seller_id"`
	LicenseID string          `gorm:"column:license_id"`
	Amount    decimal.Decimal `gorm:"column:amount"`
	Currency  string          `gorm:"column:currency"`
	Status    string          `gorm:"column:status"`
	CreatedAt time.Time       `gorm:"column:created_at"`
}

var _ ports.OrderReader = (*Reader)(nil)

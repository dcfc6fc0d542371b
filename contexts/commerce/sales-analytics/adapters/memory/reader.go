package memory

import (
	"context"
	"sync"
	"time"

	"keystone/contexts/commerce/sales-analytics/ports"
)

// Reader is the in-memory order projection used by tests and the
// in-memory bootstrap.
type Reader struct {
	mu     sync.RWMutex
	orders []ports.OrderRecord
}

func NewReader(seed []ports.OrderRecord) *Reader {
	return &Reader{orders: append([]ports.OrderRecord(nil), seed...)}
}

func (r *Reader) Put(record ports.OrderRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, record)
}

func (r *Reader) ListOrdersBySeller(_ context.Context, sellerID string, start time.Time, end time.Time) ([]ports.OrderRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]ports.OrderRecord, 0)
	for _, order := range r.orders {
		if order.SellerID != sellerID {
			continue
		}
		if order.CreatedAt.Before(start) || !order.CreatedAt.Before(end) {
			continue
		}
		result = append(result, order)
	}
	return result, nil
}

var _ ports.OrderReader = (*Reader)(nil)

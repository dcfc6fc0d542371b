package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"keystone/contexts/commerce/order-service/domain/entities"
	domainerrors "keystone/contexts/commerce/order-service/domain/errors"
	"keystone/contexts/commerce/order-service/ports"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
)

type outboxRow struct {
	message ports.OutboxMessage
	status  string
	seq     int
}

// Store is the in-memory adapter backing tests and the no-database
// developer bootstrap. One mutex covers orders, payments and outbox so
// ledger writes stay atomic exactly like the postgres transaction does.
type Store struct {
	mu sync.RWMutex

	orders       map[string]entities.Order
	payments     map[string]entities.Payment
	transactions map[string]string // transaction_id -> payment_id
	licenses     map[string]entities.License
	outbox       map[string]outboxRow
	seq          int
}

func NewStore(seedLicenses []entities.License) *Store {
	store := &Store{
		orders:       map[string]entities.Order{},
		payments:     map[string]entities.Payment{},
		transactions: map[string]string{},
		licenses:     map[string]entities.License{},
		outbox:       map[string]outboxRow{},
	}
	for _, license := range seedLicenses {
		store.licenses[license.LicenseID] = license
	}
	return store
}

func (s *Store) GetLicense(ctx context.Context, licenseID string) (entities.License, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	license, ok := s.licenses[licenseID]
	if !ok {
		return entities.License{}, domainerrors.ErrLicenseNotFound
	}
	return license, nil
}

// PutLicense seeds or replaces a catalog row. Test/bootstrap helper.
func (s *Store) PutLicense(license entities.License) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.licenses[license.LicenseID] = license
}

func (s *Store) CreateOrder(ctx context.Context, order entities.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[order.OrderID]; exists {
		return domainerrors.ErrLedgerInvariantBroken
	}
	s.orders[order.OrderID] = order
	return nil
}

func (s *Store) GetOrder(ctx context.Context, orderID string) (entities.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[orderID]
	if !ok {
		return entities.Order{}, domainerrors.ErrOrderNotFound
	}
	return order, nil
}

func (s *Store) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]entities.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	orders := make([]entities.Order, 0)
	for _, order := range s.orders {
		if order.BuyerID == buyerID {
			orders = append(orders, order)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

// ListOrdersBySeller returns the seller's orders created in [start, end),
// oldest first.
func (s *Store) ListOrdersBySeller(ctx context.Context, sellerID string, start, end time.Time) ([]entities.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	orders := make([]entities.Order, 0)
	for _, order := range s.orders {
		if order.SellerID != sellerID {
			continue
		}
		if order.CreatedAt.Before(start) || !order.CreatedAt.Before(end) {
			continue
		}
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
	return orders, nil
}

func (s *Store) GetPaymentByTransactionID(ctx context.Context, transactionID string) (entities.Payment, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paymentID, ok := s.transactions[transactionID]
	if !ok {
		return entities.Payment{}, false, nil
	}
	return s.payments[paymentID], true, nil
}

func (s *Store) ListPaymentsByOrder(ctx context.Context, orderID string) ([]entities.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payments := make([]entities.Payment, 0)
	for _, payment := range s.payments {
		if payment.OrderID == orderID {
			payments = append(payments, payment)
		}
	}
	sort.Slice(payments, func(i, j int) bool {
		return payments[i].CreatedAt.After(payments[j].CreatedAt)
	})
	return payments, nil
}

func (s *Store) RecordPaymentOutcome(ctx context.Context, payment entities.Payment, order *entities.Order, expectedStatus entities.OrderStatus, event *ports.OrderEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.transactions[payment.TransactionID]; exists {
		return domainerrors.ErrDuplicatePayment
	}
	if order != nil {
		current, ok := s.orders[order.OrderID]
		if !ok {
			return domainerrors.ErrOrderNotFound
		}
		if current.Status != expectedStatus {
			return domainerrors.ErrConcurrentOrderUpdate
		}
		s.orders[order.OrderID] = *order
	}
	s.payments[payment.PaymentID] = payment
	s.transactions[payment.TransactionID] = payment.PaymentID
	if event != nil {
		if err := s.appendOutboxLocked(*event); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) TransitionOrder(ctx context.Context, order entities.Order, expectedStatus entities.OrderStatus, event *ports.OrderEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.orders[order.OrderID]
	if !ok {
		return domainerrors.ErrOrderNotFound
	}
	if current.Status != expectedStatus {
		return domainerrors.ErrInvalidTransition
	}
	s.orders[order.OrderID] = order
	if event != nil {
		if err := s.appendOutboxLocked(*event); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) appendOutboxLocked(event ports.OrderEvent) error {
	payload, err := json.Marshal(event.Envelope())
	if err != nil {
		return err
	}
	s.seq++
	s.outbox[event.EventID] = outboxRow{
		message: ports.OutboxMessage{
			OutboxID:     event.EventID,
			EventType:    event.EventType,
			PartitionKey: event.PartitionKey,
			Payload:      payload,
			CreatedAt:    event.OccurredAt.UTC(),
		},
		status: outboxStatusPending,
		seq:    s.seq,
	}
	return nil
}

func (s *Store) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := make([]outboxRow, 0)
	for _, row := range s.outbox {
		if row.status == outboxStatusPending {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	messages := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, row.message)
	}
	return messages, nil
}

func (s *Store) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[outboxID]
	if !ok {
		return domainerrors.ErrLedgerInvariantBroken
	}
	row.status = outboxStatusSent
	s.outbox[outboxID] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.OrderRepository = (*Store)(nil)
var _ ports.LicenseCatalog = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)

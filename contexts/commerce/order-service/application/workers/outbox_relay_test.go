package workers

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"keystone/contexts/commerce/order-service/adapters/memory"
	"keystone/contexts/commerce/order-service/application/commands"
	"keystone/contexts/commerce/order-service/domain/entities"
	"keystone/internal/shared/events"
)

type capturingPublisher struct {
	mu        sync.Mutex
	published []events.Envelope
	topics    []string
	err       error
}

func (p *capturingPublisher) Publish(_ context.Context, topic string, event events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, event)
	p.topics = append(p.topics, topic)
	return nil
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	return memory.NewStore([]entities.License{{
		LicenseID:       "lic-1",
		OwnerID:         "seller-1",
		ProjectID:       "proj-1",
		Price:           decimal.RequireFromString("100.00"),
		Currency:        "USD",
		DeploymentLimit: 2,
		DurationDays:    30,
		Status:          entities.LicenseStatusPublic,
	}})
}

func completeOrder(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()
	create := commands.CreateOrderUseCase{Orders: store, Catalog: store, Clock: store, IDGen: store}
	order, err := create.Execute(ctx, commands.CreateOrderCommand{BuyerID: "buyer-1", LicenseID: "lic-1"})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	pay := commands.RecordPaymentUseCase{Orders: store, Catalog: store, Clock: store, IDGen: store}
	_, err = pay.Execute(ctx, commands.RecordPaymentCommand{
		OrderID:       order.OrderID,
		Amount:        decimal.RequireFromString("100.00"),
		Currency:      "USD",
		Method:        "card",
		TransactionID: "txn-" + order.OrderID,
		Succeeded:     true,
	})
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
}

func TestOutboxRelayDrainsPendingOnce(t *testing.T) {
	store := seededStore(t)
	completeOrder(t, store)
	completeOrder(t, store)

	publisher := &capturingPublisher{}
	relay := OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
		Clock:     store,
		Topic:     "commerce.orders",
		BatchSize: 10,
	}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(publisher.published) != 2 {
		t.Fatalf("published = %d, want 2", len(publisher.published))
	}
	for i, envelope := range publisher.published {
		if publisher.topics[i] != "commerce.orders" {
			t.Fatalf("topic = %s, want commerce.orders", publisher.topics[i])
		}
		if envelope.EventType != commands.EventTypeOrderCompleted {
			t.Fatalf("event type = %s, want %s", envelope.EventType, commands.EventTypeOrderCompleted)
		}
		if envelope.EntityID == "" {
			t.Fatal("envelope missing entity id")
		}
	}

	// Second run publishes nothing: the batch was acknowledged.
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(publisher.published) != 2 {
		t.Fatalf("published after drain = %d, want 2", len(publisher.published))
	}
}

func TestOutboxRelayKeepsRowsOnPublishFailure(t *testing.T) {
	store := seededStore(t)
	completeOrder(t, store)

	publisher := &capturingPublisher{err: errors.New("broker down")}
	relay := OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
		Clock:     store,
		BatchSize: 10,
	}

	if err := relay.RunOnce(context.Background()); err == nil {
		t.Fatal("expected publish error")
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want row retained for retry", len(pending))
	}

	// Recovery drains the retained row.
	publisher.err = nil
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("retry run: %v", err)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("published = %d, want 1", len(publisher.published))
	}
}

package orderservice

import (
	"log/slog"

	httpadapter "keystone/contexts/commerce/order-service/adapters/http"
	"keystone/contexts/commerce/order-service/adapters/memory"
	"keystone/contexts/commerce/order-service/application/commands"
	"keystone/contexts/commerce/order-service/application/queries"
	"keystone/contexts/commerce/order-service/domain/entities"
	"keystone/contexts/commerce/order-service/ports"
)

// Module is the composition surface for the order service. Runtime wiring
// consumes Handler; Store is exposed for tests/inspection when the
// in-memory bootstrap is used.
type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Orders       ports.OrderRepository
	Catalog      ports.LicenseCatalog
	Entitlements ports.EntitlementClient
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	Logger       *slog.Logger
}

// NewModule wires order use-cases against explicit ports.
func NewModule(deps Dependencies) Module {
	handler := httpadapter.Handler{
		CreateOrder: commands.CreateOrderUseCase{
			Orders:  deps.Orders,
			Catalog: deps.Catalog,
			Clock:   deps.Clock,
			IDGen:   deps.IDGenerator,
			Logger:  deps.Logger,
		},
		RecordPayment: commands.RecordPaymentUseCase{
			Orders:       deps.Orders,
			Catalog:      deps.Catalog,
			Entitlements: deps.Entitlements,
			Clock:        deps.Clock,
			IDGen:        deps.IDGenerator,
			Logger:       deps.Logger,
		},
		CancelOrder: commands.CancelOrderUseCase{
			Orders: deps.Orders,
			Clock:  deps.Clock,
			Logger: deps.Logger,
		},
		RefundOrder: commands.RefundOrderUseCase{
			Orders:       deps.Orders,
			Catalog:      deps.Catalog,
			Entitlements: deps.Entitlements,
			Clock:        deps.Clock,
			IDGen:        deps.IDGenerator,
			Logger:       deps.Logger,
		},
		GetOrder:    queries.GetOrderUseCase{Orders: deps.Orders, Logger: deps.Logger},
		GetPayments: queries.GetOrderPaymentsUseCase{Orders: deps.Orders, Logger: deps.Logger},
		ListOrders:  queries.ListBuyerOrdersUseCase{Orders: deps.Orders, Logger: deps.Logger},
		Logger:      deps.Logger,
	}
	return Module{Handler: handler}
}

// NewInMemoryModule wires the order service against the in-memory store.
// Developer/runtime bootstrap path when no database is configured.
func NewInMemoryModule(seedLicenses []entities.License, entitlements ports.EntitlementClient, logger *slog.Logger) Module {
	store := memory.NewStore(seedLicenses)
	module := NewModule(Dependencies{
		Orders:       store,
		Catalog:      store,
		Entitlements: entitlements,
		Clock:        store,
		IDGenerator:  store,
		Logger:       logger,
	})
	module.Store = store
	return module
}

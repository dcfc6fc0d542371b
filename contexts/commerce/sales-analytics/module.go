package salesanalytics

import (
	"log/slog"

	httpadapter "keystone/contexts/commerce/sales-analytics/adapters/http"
	"keystone/contexts/commerce/sales-analytics/adapters/memory"
	"keystone/contexts/commerce/sales-analytics/application"
	"keystone/contexts/commerce/sales-analytics/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Reader  *memory.Reader
}

type Dependencies struct {
	Orders ports.OrderReader
	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{Orders: deps.Orders, Logger: deps.Logger}
	return Module{
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
		Service: service,
	}
}

// NewInMemoryModule wires analytics against an in-memory order
// projection; the bootstrap feeds it from the order store.
func NewInMemoryModule(seed []ports.OrderRecord, logger *slog.Logger) Module {
	reader := memory.NewReader(seed)
	module := NewModule(Dependencies{Orders: reader, Logger: logger})
	module.Reader = reader
	return module
}

package entitlementservice

import (
	"log/slog"

	httpadapter "keystone/contexts/commerce/entitlement-service/adapters/http"
	"keystone/contexts/commerce/entitlement-service/adapters/memory"
	"keystone/contexts/commerce/entitlement-service/application"
	"keystone/contexts/commerce/entitlement-service/ports"
)

// Module is the composition surface for the entitlement service. Service
// is exposed alongside Handler because in-process callers (order
// completion, refunds) invoke it directly rather than over HTTP.
type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repo        ports.Repository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:   deps.Repo,
		Clock:  deps.Clock,
		IDGen:  deps.IDGenerator,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
		Service: service,
	}
}

// NewInMemoryModule wires the entitlement service against the in-memory
// store. Developer/runtime bootstrap path when no database is configured.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repo:        store,
		Clock:       store,
		IDGenerator: store,
		Logger:      logger,
	})
	module.Store = store
	return module
}

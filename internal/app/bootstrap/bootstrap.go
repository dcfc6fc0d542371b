package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	listingservice "keystone/contexts/catalog/listing-service"
	listingmemory "keystone/contexts/catalog/listing-service/adapters/memory"
	listingpg "keystone/contexts/catalog/listing-service/adapters/postgres"
	listingredis "keystone/contexts/catalog/listing-service/adapters/redis"
	listingports "keystone/contexts/catalog/listing-service/ports"
	entitlementservice "keystone/contexts/commerce/entitlement-service"
	entitlementpg "keystone/contexts/commerce/entitlement-service/adapters/postgres"
	entitlementworkers "keystone/contexts/commerce/entitlement-service/application/workers"
	entitlementports "keystone/contexts/commerce/entitlement-service/ports"
	orderservice "keystone/contexts/commerce/order-service"
	ordermemory "keystone/contexts/commerce/order-service/adapters/memory"
	orderpg "keystone/contexts/commerce/order-service/adapters/postgres"
	orderworkers "keystone/contexts/commerce/order-service/application/workers"
	orderentities "keystone/contexts/commerce/order-service/domain/entities"
	orderports "keystone/contexts/commerce/order-service/ports"
	salesanalytics "keystone/contexts/commerce/sales-analytics"
	analyticspg "keystone/contexts/commerce/sales-analytics/adapters/postgres"
	analyticsports "keystone/contexts/commerce/sales-analytics/ports"
	"keystone/internal/platform/cache"
	"keystone/internal/platform/config"
	"keystone/internal/platform/db"
	"keystone/internal/platform/httpserver"
	"keystone/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	redis    *redis.Client
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	publisher    *messaging.KafkaPublisher
	outboxRelay  orderworkers.OutboxRelay
	expirer      entitlementworkers.EntitlementExpirer
	pollInterval time.Duration
	logger       *slog.Logger
}

// entitlementClient adapts the entitlement application service to the
// order context's client port. Both contexts run in one process, so the
// call stays in-memory instead of going over HTTP.
type entitlementClient struct {
	grant  func(ctx context.Context, input entitlementports.GrantInput) error
	revoke func(ctx context.Context, userID, licenseID, projectID string) error
}

func (c entitlementClient) GrantOrTopUp(ctx context.Context, userID string, licenseID string, projectID string, deploymentLimit int, durationDays int) error {
	return c.grant(ctx, entitlementports.GrantInput{
		UserID:          userID,
		LicenseID:       licenseID,
		ProjectID:       projectID,
		DeploymentLimit: deploymentLimit,
		DurationDays:    durationDays,
	})
}

func (c entitlementClient) RevokeByKey(ctx context.Context, userID string, licenseID string, projectID string) error {
	return c.revoke(ctx, userID, licenseID, projectID)
}

var _ orderports.EntitlementClient = entitlementClient{}

func newEntitlementClient(module entitlementservice.Module) entitlementClient {
	return entitlementClient{
		grant: func(ctx context.Context, input entitlementports.GrantInput) error {
			_, err := module.Service.GrantOrTopUp(ctx, input)
			return err
		},
		revoke: func(ctx context.Context, userID, licenseID, projectID string) error {
			_, err := module.Service.RevokeByKey(ctx, userID, licenseID, projectID)
			return err
		},
	}
}

// orderReaderBridge projects the in-memory order store into the
// analytics read model.
type orderReaderBridge struct {
	store *ordermemory.Store
}

func (b orderReaderBridge) ListOrdersBySeller(ctx context.Context, sellerID string, start, end time.Time) ([]analyticsports.OrderRecord, error) {
	orders, err := b.store.ListOrdersBySeller(ctx, sellerID, start, end)
	if err != nil {
		return nil, err
	}
	records := make([]analyticsports.OrderRecord, 0, len(orders))
	for _, order := range orders {
		records = append(records, analyticsports.OrderRecord{
			OrderID:   order.OrderID,
			SellerID:  order.SellerID,
			LicenseID: order.LicenseID,
			Amount:    order.Amount,
			Currency:  order.Currency,
			Status:    string(order.Status),
			CreatedAt: order.CreatedAt,
		})
	}
	return records, nil
}

var _ analyticsports.OrderReader = orderReaderBridge{}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return buildInMemoryAPI(cfg, logger)
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(migrationModels()...); err != nil {
		_ = pg.Close()
		return nil, err
	}

	entitlementModule := entitlementservice.NewModule(entitlementservice.Dependencies{
		Repo:        entitlementpg.NewRepository(pg.DB, logger),
		Clock:       entitlementpg.SystemClock{},
		IDGenerator: entitlementpg.UUIDGenerator{},
		Logger:      logger,
	})

	orderRepo := orderpg.NewRepository(pg.DB, logger)
	orderModule := orderservice.NewModule(orderservice.Dependencies{
		Orders:       orderRepo,
		Catalog:      orderRepo,
		Entitlements: newEntitlementClient(entitlementModule),
		Clock:        orderpg.SystemClock{},
		IDGenerator:  orderpg.UUIDGenerator{},
		Logger:       logger,
	})

	var redisClient *redis.Client
	listingDeps := listingservice.Dependencies{
		Repo:        listingpg.NewRepository(pg.DB, logger),
		Clock:       listingpg.SystemClock{},
		IDGenerator: listingpg.UUIDGenerator{},
		Logger:      logger,
	}
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		redisClient, err = cache.Connect(context.Background(), cfg.RedisAddr)
		if err != nil {
			_ = pg.Close()
			return nil, err
		}
		listingDeps.Idempotency = listingredis.NewIdempotencyStore(redisClient)
	} else {
		// Single-instance fallback. Replays survive only as long as the
		// process; configure REDIS_ADDR when running more than one API.
		listingDeps.Idempotency = listingMemoryIdempotency()
	}
	listingModule := listingservice.NewModule(listingDeps)

	analyticsModule := salesanalytics.NewModule(salesanalytics.Dependencies{
		Orders: analyticspg.NewReader(pg.DB, logger),
		Logger: logger,
	})

	server := httpserver.New(orderModule, entitlementModule, listingModule, analyticsModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		redis:    redisClient,
		logger:   logger,
	}, nil
}

// buildInMemoryAPI wires every context against in-memory adapters.
// Developer path: no external dependencies, seeded demo licenses.
func buildInMemoryAPI(cfg config.Config, logger *slog.Logger) (*APIApp, error) {
	entitlementModule := entitlementservice.NewInMemoryModule(logger)
	orderModule := orderservice.NewInMemoryModule(demoLicenses(cfg.DefaultCurrency), newEntitlementClient(entitlementModule), logger)
	listingModule := listingservice.NewInMemoryModule(logger)
	analyticsModule := salesanalytics.NewModule(salesanalytics.Dependencies{
		Orders: orderReaderBridge{store: orderModule.Store},
		Logger: logger,
	})

	logger.Warn("running with in-memory adapters",
		"event", "bootstrap_in_memory",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)

	server := httpserver.New(orderModule, entitlementModule, listingModule, analyticsModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{server: server, logger: logger}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errMissingDSN
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	var publisher orderports.EventPublisher
	var kafkaPublisher *messaging.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err = messaging.NewKafkaPublisher(cfg.KafkaBrokers, logger)
		if err != nil {
			_ = pg.Close()
			return nil, err
		}
		publisher = kafkaPublisher
	} else {
		// Without brokers the relay still drains the outbox so rows do
		// not pile up; events stay inside this process.
		publisher = messaging.NewInProcessBus(logger)
	}

	orderRepo := orderpg.NewRepository(pg.DB, logger)
	entitlementRepo := entitlementpg.NewRepository(pg.DB, logger)

	pollInterval := time.Duration(cfg.WorkerPollSeconds) * time.Second
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}

	return &WorkerApp{
		postgres:  pg,
		publisher: kafkaPublisher,
		outboxRelay: orderworkers.OutboxRelay{
			Outbox:    orderRepo,
			Publisher: publisher,
			Clock:     orderpg.SystemClock{},
			Topic:     cfg.OrdersTopic,
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		expirer: entitlementworkers.EntitlementExpirer{
			Repo:   entitlementRepo,
			Clock:  entitlementpg.SystemClock{},
			Logger: logger,
		},
		pollInterval: pollInterval,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		// Transient failures (a database blip, a broker hiccup) must not
		// kill the process; the next tick retries.
		if err := w.expirer.RunOnce(ctx); err != nil {
			w.logger.Error("entitlement expiry run failed",
				"event", "bootstrap_worker_job_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"job", "entitlement_expirer",
				"error", err.Error(),
			)
		}
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			w.logger.Error("outbox relay run failed",
				"event", "bootstrap_worker_job_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"job", "outbox_relay",
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.publisher != nil {
		_ = w.publisher.Close()
	}
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

var errMissingDSN = errors.New("POSTGRES_DSN is required")

func listingMemoryIdempotency() listingports.IdempotencyStore {
	return listingmemory.NewStore().Idempotency()
}

func migrationModels() []any {
	var models []any
	models = append(models, orderpg.Models()...)
	models = append(models, entitlementpg.Models()...)
	models = append(models, listingpg.Models()...)
	return models
}

// demoLicenses backs the in-memory catalog so orders can be exercised
// without a database.
func demoLicenses(currency string) []orderentities.License {
	if strings.TrimSpace(currency) == "" {
		currency = "USD"
	}
	return []orderentities.License{
		{
			LicenseID:       "lic-starter",
			OwnerID:         "seller-demo",
			ProjectID:       "proj-demo",
			Price:           decimal.NewFromInt(49),
			Currency:        currency,
			DeploymentLimit: 1,
			DurationDays:    365,
			Features:        []string{"single-deployment"},
			Status:          orderentities.LicenseStatusPublic,
		},
		{
			LicenseID:       "lic-unlimited",
			OwnerID:         "seller-demo",
			ProjectID:       "proj-demo",
			Price:           decimal.NewFromInt(299),
			Currency:        currency,
			DeploymentLimit: 0,
			DurationDays:    0,
			Features:        []string{"unlimited-deployments", "perpetual"},
			Status:          orderentities.LicenseStatusPublic,
		},
	}
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}

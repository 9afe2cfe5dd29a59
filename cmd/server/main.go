package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	shippingapp "github.com/shipbridge/backend/internal/application/shipping"
	"github.com/shipbridge/backend/internal/domain/shipping"
	"github.com/shipbridge/backend/internal/infrastructure/cache"
	"github.com/shipbridge/backend/internal/infrastructure/carrier"
	"github.com/shipbridge/backend/internal/infrastructure/config"
	"github.com/shipbridge/backend/internal/infrastructure/erp"
	"github.com/shipbridge/backend/internal/infrastructure/logger"
	"github.com/shipbridge/backend/internal/infrastructure/notification"
	"github.com/shipbridge/backend/internal/infrastructure/persistence"
	"github.com/shipbridge/backend/internal/infrastructure/storage"
	"github.com/shipbridge/backend/internal/interfaces/http/handler"
	"github.com/shipbridge/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting shipment bridge",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories
	statusRepo := persistence.NewGormShipmentStatusRepository(db.DB)
	apiLogRepo := persistence.NewGormAPILogRepository(db.DB)

	// Inbound document store
	docStore, err := storage.NewS3DocumentStore(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize document store", zap.Error(err))
	}

	// Carrier API client
	carrierClient, err := carrier.NewShipEngineClient(&cfg.Carrier, carrier.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize carrier client", zap.Error(err))
	}

	// ERP adapter client, shared by report-back calls and the customs lookup
	erpClient, err := erp.NewEAdapterClient(&cfg.ErpAdapter, erp.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize ERP adapter client", zap.Error(err))
	}

	// Redis backs both delivery deduplication and the customs attribute
	// cache. When unavailable the service still runs: lookups go direct and
	// deduplication falls back to an in-process store.
	var idempotencyStore cache.IdempotencyStore
	var customsLookup shippingapp.ProductAttributeLookup = erp.NewCustomsLookup(erpClient)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	redisErr := redisClient.Ping(pingCtx).Err()
	cancelPing()
	if redisErr != nil {
		log.Warn("Redis unavailable, using in-process fallbacks", zap.Error(redisErr))
		_ = redisClient.Close()
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
	} else {
		idempotencyStore = cache.NewRedisIdempotencyStoreWithClient(redisClient, "")
		customsLookup = erp.NewCachedLookup(customsLookup, redisClient, erp.WithCacheLogger(log))
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Alerting: SNS when a topic is configured, logs otherwise
	var notifier shippingapp.Notifier
	if cfg.Notify.TopicARN != "" {
		notifier, err = notification.NewSNSNotifier(&cfg.Notify, notification.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize notifier", zap.Error(err))
		}
	} else {
		log.Warn("No notification topic configured, alerts go to the log only")
		notifier = notification.NewLogNotifier(log)
	}

	// Transformation pipeline
	builder := shippingapp.NewPayloadBuilder(shipFromAddress(&cfg.Carrier.ShipFrom), cfg.IsProduction())
	enricher := shippingapp.NewCustomsEnricher(customsLookup)
	processor := shippingapp.NewProcessor(
		docStore,
		builder,
		enricher,
		carrierClient,
		erpClient,
		statusRepo,
		apiLogRepo,
		notifier,
		log,
	)

	// HTTP surface
	engine := router.NewEngine(cfg, log)

	healthHandler := handler.NewHealthHandler(db, version)
	engine.GET("/health", healthHandler.Health)

	shipmentHandler := handler.NewShipmentHandler(processor, statusRepo, idempotencyStore, log)
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(shipmentHandler)
	r.Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// shipFromAddress maps the configured warehouse origin to the carrier
// address block stamped on every payload.
func shipFromAddress(cfg *config.ShipFromConfig) shipping.CarrierAddress {
	return shipping.CarrierAddress{
		Name:          cfg.Name,
		Phone:         cfg.Phone,
		AddressLine1:  cfg.AddressLine1,
		CityLocality:  cfg.CityLocality,
		StateProvince: cfg.State,
		PostalCode:    cfg.PostalCode,
		CountryCode:   cfg.CountryCode,
	}
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	costingapp "github.com/teploe-odealko/mp-flow-sub000/internal/application/costing"
	financeapp "github.com/teploe-odealko/mp-flow-sub000/internal/application/finance"
	reportapp "github.com/teploe-odealko/mp-flow-sub000/internal/application/report"
	"github.com/teploe-odealko/mp-flow-sub000/internal/domain/shared"
	"github.com/teploe-odealko/mp-flow-sub000/internal/infrastructure/cache"
	"github.com/teploe-odealko/mp-flow-sub000/internal/infrastructure/config"
	"github.com/teploe-odealko/mp-flow-sub000/internal/infrastructure/event"
	"github.com/teploe-odealko/mp-flow-sub000/internal/infrastructure/logger"
	"github.com/teploe-odealko/mp-flow-sub000/internal/infrastructure/persistence"
	"github.com/teploe-odealko/mp-flow-sub000/internal/interfaces/http/handler"
	"github.com/teploe-odealko/mp-flow-sub000/internal/interfaces/http/middleware"
	"github.com/teploe-odealko/mp-flow-sub000/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Inventory Costing Engine",
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

	// Initialize repositories
	receiptRepo := persistence.NewGormReceiptRepository(db.DB)
	lotRepo := persistence.NewGormLotRepository(db.DB)
	allocationRepo := persistence.NewGormAllocationRepository(db.DB)
	expenseFactRepo := persistence.NewGormExpenseFactRepository(db.DB)
	salesFactRepo := persistence.NewGormSalesFactRepository(db.DB)

	// Transaction scope binds receiving and allocation flows to a single
	// database transaction
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Initialize application services. Receiving and allocation share one
	// lock registry so unreceive and allocation serialize per product.
	stockLocks := costingapp.NewProductLockRegistry()
	receivingService := costingapp.NewReceivingService(receiptRepo, lotRepo, allocationRepo, txScope, stockLocks, log)
	allocationService := costingapp.NewAllocationService(lotRepo, allocationRepo, txScope, stockLocks, log)
	reconciliationService := costingapp.NewReconciliationService(lotRepo, allocationRepo, log)
	economicsService := reportapp.NewUnitEconomicsService(salesFactRepo, allocationRepo, expenseFactRepo, log)

	// Idempotency store deduplicates redelivered domain events
	var idempotencyStore shared.IdempotencyStore
	switch cfg.Event.IdempotencyStore {
	case "redis":
		store, err := cache.NewRedisIdempotencyStore(cfg.Redis.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal("Failed to connect to Redis for idempotency store", zap.Error(err))
		}
		idempotencyStore = store
		log.Info("Using Redis idempotency store", zap.String("addr", cfg.Redis.RedisAddr()))
	default:
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
		log.Info("Using in-memory idempotency store")
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Initialize event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)

	// Receipt received -> purchase expense fact
	receiptReceivedHandler := financeapp.NewReceiptReceivedHandler(expenseFactRepo, log)
	// Receipt unreceived -> reversal of the purchase expense fact
	receiptUnreceivedHandler := financeapp.NewReceiptUnreceivedHandler(expenseFactRepo, log)
	// Stock written off -> write-off expense fact
	stockWrittenOffHandler := financeapp.NewStockWrittenOffHandler(expenseFactRepo, log)

	wrappedHandlers := event.WrapHandlersWithIdempotency(
		[]shared.EventHandler{
			receiptReceivedHandler,
			receiptUnreceivedHandler,
			stockWrittenOffHandler,
		},
		idempotencyStore,
		log,
		event.WithIdempotencyConfig(shared.IdempotencyConfig{
			TTL:     cfg.Event.IdempotencyTTL,
			Enabled: true,
		}),
	)
	for _, h := range wrappedHandlers {
		eventBus.Subscribe(h)
	}

	log.Info("Event handlers registered",
		zap.Strings("receipt_received_events", receiptReceivedHandler.EventTypes()),
		zap.Strings("receipt_unreceived_events", receiptUnreceivedHandler.EventTypes()),
		zap.Strings("stock_written_off_events", stockWrittenOffHandler.EventTypes()),
	)

	// Start event bus
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Inject event bus into services that publish events
	receivingService.SetEventPublisher(eventBus)
	allocationService.SetEventPublisher(eventBus)

	// Initialize HTTP handlers
	receiptHandler := handler.NewReceiptHandler(receivingService)
	allocationHandler := handler.NewAllocationHandler(allocationService)
	reportHandler := handler.NewReportHandler(economicsService, reconciliationService)
	systemHandler := handler.NewSystemHandler(db)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	// Setup API routes
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(receiptHandler).
		Register(allocationHandler).
		Register(reportHandler).
		Register(systemHandler).
		Setup()

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

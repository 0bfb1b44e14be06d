package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/stampwise/stampwise-engine/pkg/config"
	"github.com/stampwise/stampwise-engine/pkg/database"
	"github.com/stampwise/stampwise-engine/pkg/handlers"
	"github.com/stampwise/stampwise-engine/pkg/logging"
	"github.com/stampwise/stampwise-engine/pkg/repositories"
	"github.com/stampwise/stampwise-engine/pkg/rules"
	"github.com/stampwise/stampwise-engine/pkg/services"
	"github.com/stampwise/stampwise-engine/pkg/services/workqueue"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.Database.Host = config.ResolveHostForDocker(cfg.Database.Host)

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.Float64("duplicate_threshold", cfg.Engine.DuplicateThreshold),
		zap.Int("max_concurrent_scans", cfg.Engine.MaxConcurrentScans))

	ctx := context.Background()

	// Migrations run on a plain database/sql handle; pgx pools do not expose
	// one.
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, cfg.Engine.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("Failed to close migration connection", zap.Error(err))
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
		MinConnections: cfg.Database.MinConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	entryRepo := repositories.NewTravelEntryRepository()
	recordRepo := repositories.NewEvidenceRecordRepository()
	groupRepo := repositories.NewDuplicateGroupRepository()

	// Background queue for duplicate scans
	queue := workqueue.New(logger,
		workqueue.WithStrategy(workqueue.NewThrottledStrategy(cfg.Engine.MaxConcurrentScans)))
	scopes := database.NewUserScopeProvider(db)

	// Services
	registry := rules.NewRegistry()
	entryService := services.NewTravelEntryService(entryRepo, logger)
	evidenceService := services.NewEvidenceService(recordRepo, logger)
	complianceService := services.NewComplianceService(entryRepo, registry, logger)
	duplicateService := services.NewDuplicateService(recordRepo, groupRepo, cfg.Engine.DuplicateThreshold, logger)
	insightService := services.NewInsightService(entryRepo, groupRepo, logger)

	// Handlers
	mux := http.NewServeMux()
	userMiddleware := handlers.UserMiddleware(database.WithUserContext(db, logger))

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewTravelEntryHandler(entryService, logger).RegisterRoutes(mux, userMiddleware)
	handlers.NewEvidenceHandler(evidenceService, logger).RegisterRoutes(mux, userMiddleware)
	handlers.NewComplianceHandler(complianceService, logger).RegisterRoutes(mux, userMiddleware)
	handlers.NewDuplicateHandler(duplicateService, queue, scopes, logger).RegisterRoutes(mux, userMiddleware)
	handlers.NewInsightHandler(insightService, logger).RegisterRoutes(mux, userMiddleware)

	server := &http.Server{
		Addr:              cfg.BindAddr + ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting stampwise-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))

		var serveErr error
		if cfg.TLSCertPath != "" && cfg.TLSKeyPath != "" {
			serveErr = server.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			serveErr = server.ListenAndServe()
		}
		if serveErr != nil && serveErr != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(serveErr))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	queue.Cancel()

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

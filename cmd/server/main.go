package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/acikit/go-aci-validator/internal/aci"
	"github.com/acikit/go-aci-validator/internal/api"
	"github.com/acikit/go-aci-validator/internal/registry"
	"github.com/acikit/go-aci-validator/internal/validator"
	"github.com/acikit/go-aci-validator/pkg/config"
	"github.com/acikit/go-aci-validator/pkg/logging"
	"github.com/acikit/go-aci-validator/pkg/middleware"
)

var (
	configFile = flag.String("config", "configs/config.yaml", "Path to configuration file")
	version    = "dev"
	buildTime  = "unknown"
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ACI Validator Server",
		zap.String("version", version),
		zap.String("build_time", buildTime),
	)

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Outbound clients for ACI and index port probing
	clientOpts := aci.ClientOptions{
		Timeout:            cfg.ACI.TimeoutDuration(),
		InsecureSkipVerify: cfg.ACI.InsecureSkipVerify,
	}
	executor := aci.NewClient(clientOpts, logger)
	indexClient := aci.NewIndexClient(clientOpts, logger)

	v := validator.New(executor, indexClient, logger)

	// Seed the registry from the configured servers
	store := registry.NewStore()
	registry.Seed(store, cfg.Servers, cfg.Defaults)
	logger.Info("Server registry seeded", zap.Int("servers", store.Len()))

	monitor := registry.NewMonitor(store, v,
		cfg.Monitor.IntervalDuration(), cfg.Monitor.TimeoutDuration(),
		logger)

	monitorCtx, cancelMonitor := context.WithCancel(context.Background())
	defer cancelMonitor()
	if cfg.Monitor.Interval > 0 {
		monitor.Start(monitorCtx)
		logger.Info("Background validation started",
			zap.Duration("interval", cfg.Monitor.IntervalDuration()))
	}

	// Generate admin token if not provided
	adminToken := cfg.Server.AdminToken
	if adminToken == "" {
		adminToken, err = middleware.GenerateAdminToken()
		if err != nil {
			logger.Fatal("Failed to generate admin token", zap.Error(err))
		}
		logger.Info("Generated admin API token (set ACIVALIDATOR_SERVER_ADMIN_TOKEN to use a fixed token)",
			zap.String("token", adminToken))
	}

	router := api.NewRouter(api.RouterConfig{AdminToken: adminToken}, store, monitor, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server listening", zap.String("address", cfg.Server.Address()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if cfg.Monitor.Interval > 0 {
		monitor.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

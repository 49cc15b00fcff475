package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	handlers "github.com/canxphung/DA_CNPM_242/health_service/internal/api/handler"
	"github.com/canxphung/DA_CNPM_242/health_service/internal/config"
	"github.com/canxphung/DA_CNPM_242/health_service/internal/health"
	"github.com/canxphung/DA_CNPM_242/health_service/internal/logging"
	"github.com/canxphung/DA_CNPM_242/health_service/internal/middleware"
	"github.com/canxphung/DA_CNPM_242/health_service/internal/repository"
	"github.com/canxphung/DA_CNPM_242/health_service/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logging.New(cfg.Logging)
	defer logger.Sync()

	logger.Info("Starting sensor health service",
		zap.String("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Driver),
		zap.String("timezone", cfg.Health.Timezone),
		zap.Int("sensors", len(cfg.Sensors)),
	)

	// Create Prometheus registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Open reading store
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	store, closeStore, err := repository.Open(startupCtx, cfg.Storage, cfg.Sensors, logger)
	cancelStartup()
	if err != nil {
		logger.Fatal("Failed to open reading store", zap.Error(err))
	}
	defer closeStore()

	engine, err := health.NewEngine(cfg.Health.Thresholds)
	if err != nil {
		logger.Fatal("Invalid health thresholds", zap.Error(err))
	}
	catalog := service.NewCatalog(cfg.Sensors, cfg.Health.Location, cfg.Health.MaxRangeDays)
	healthService := service.NewHealthService(store, engine, catalog, logger, registry)
	readingService := service.NewReadingService(store, catalog, logger)

	metricsMiddleware := middleware.NewMetricsMiddleware(registry)
	loggingMiddleware := middleware.NewLoggingMiddleware(logger)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.CORS.AllowedOrigins, logger)

	// Create router
	router := mux.NewRouter()
	router.Use(loggingMiddleware.LogRequest)
	router.Use(metricsMiddleware.CollectMetrics)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy"}`)
	}).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	apiV1 := router.PathPrefix("/api/v1").Subrouter()
	handlers.NewHealthHandler(healthService, logger).RegisterRoutes(apiV1)
	handlers.NewReadingsHandler(readingService, logger).RegisterRoutes(apiV1)

	// CORS wraps the router so preflight requests are answered before route matching
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      corsMiddleware.EnableCORS(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited properly")
}

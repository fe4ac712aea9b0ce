package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/claudian37/lax-flights-dashboard/internal/aggregate"
	"github.com/claudian37/lax-flights-dashboard/internal/client"
	"github.com/claudian37/lax-flights-dashboard/internal/config"
	httphandler "github.com/claudian37/lax-flights-dashboard/internal/http"
	"github.com/claudian37/lax-flights-dashboard/internal/observability"
	"github.com/claudian37/lax-flights-dashboard/internal/provider"
	"github.com/claudian37/lax-flights-dashboard/internal/store"
)

func main() {
	// Optional .env for local development (AIRLABS_API_KEY etc).
	_ = godotenv.Load()

	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}
	if cfg.SchedulesAPIKey == "" {
		logger.Warn("AIRLABS_API_KEY not set; a fetch will only succeed from cache")
	}

	schedulesClient, err := client.NewAirLabsClient(
		cfg.SchedulesAPIKey,
		cfg.SchedulesAPIBaseURL,
		cfg.SchedulesAPITimeout,
	)
	if err != nil {
		logger.Fatal("schedules client", zap.Error(err))
	}

	cacheStore := store.New(cfg.CacheDir)
	datasetProvider := provider.New(schedulesClient, cacheStore, cfg.AirportIATA, logger)

	// The load blocks startup until it resolves or falls back; with no
	// cache file and no API data there is nothing to render.
	loadCtx, loadCancel := context.WithTimeout(context.Background(), cfg.SchedulesAPITimeout+10*time.Second)
	dataset, err := datasetProvider.Dataset(loadCtx)
	loadCancel()
	if err != nil {
		logger.Fatal("load dataset", zap.String("airport", cfg.AirportIATA), zap.Error(err))
	}
	logger.Info("dataset ready",
		zap.String("airport", dataset.Airport),
		zap.Int("records", len(dataset.Records)),
		zap.Time("fetchTime", dataset.FetchTime),
		zap.Bool("stale", dataset.Stale))

	engine := aggregate.NewEngine(dataset)
	handler := httphandler.NewHandler(dataset, engine, logger)

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	router := mux.NewRouter()
	router.Use(httphandler.CorrelationIDMiddleware(logger))
	router.Use(httphandler.MetricsMiddleware)
	router.HandleFunc("/health", handler.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler())
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(httphandler.RateLimitMiddleware(limiter))
	apiRouter.Use(httphandler.TimeoutMiddleware(cfg.RequestTimeout))
	apiRouter.HandleFunc("/dataset", handler.GetDataset).Methods("GET")
	apiRouter.HandleFunc("/histogram", handler.GetHistogram).Methods("GET")
	apiRouter.HandleFunc("/terminals", handler.GetTerminals).Methods("GET")
	apiRouter.HandleFunc("/airlines", handler.GetAirlines).Methods("GET")

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/auditline/coverage/internal/api"
	"github.com/auditline/coverage/internal/cache"
	"github.com/auditline/coverage/internal/config"
	"github.com/auditline/coverage/internal/metrics"
	"github.com/auditline/coverage/internal/storage"
	"github.com/auditline/coverage/internal/websocket"
	"github.com/auditline/coverage/pkg/middleware"
)

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("office_hours", cfg.OfficeHours.Start.String()+"-"+cfg.OfficeHours.End.String()).
		Str("log_level", cfg.LogLevel).
		Msg("starting coverage audit server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Canonical call store: DynamoDB when configured, no-op otherwise
	var store storage.Store
	dynamoCfg := storage.LoadDynamoConfig()
	if dynamoCfg.Mode == storage.DynamoModeNone {
		log.Info().Msg("dynamodb disabled, rebuilds from stored calls unavailable")
		store = storage.NewNoopStore()
	} else {
		dynamoStore, err := storage.NewDynamoDBStore(ctx, dynamoCfg, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize DynamoDB store")
		}
		store = dynamoStore
	}

	// Hub pushing refreshed results to connected dashboards
	hub := websocket.NewHub(log.Logger)
	go hub.Run()
	wsHandler := websocket.NewHandler(hub, cfg, log.Logger)

	// Latest-parse cache backing office-hours recomputes
	resultCache := cache.NewResultCache()

	handler := api.NewHandler(store, resultCache, hub, cfg, log.Logger)

	// Create router
	r := chi.NewRouter()

	// Add middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	r.Get("/health", healthHandler)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/parse", handler.HandleParse)
		r.Post("/dates", handler.HandleDates)
		r.Post("/gaps", handler.HandleGaps)
		r.Post("/officehours", handler.HandleOfficeHours)
		r.Post("/results/rebuild", handler.HandleRebuild)
		r.Get("/agents/{agentName}/calls", handler.HandleAgentCalls)
		r.Post("/admin/truncate", handler.HandleTruncate)
	})

	r.Get("/ws", wsHandler.ServeHTTP)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	cancel()

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"coverage-audit"}`)
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/troop248/troopmail/internal/mail_delivery_service/repository/postgres"
	"github.com/troop248/troopmail/internal/outbox_api_service/middleware"
	outboxhttp "github.com/troop248/troopmail/internal/outbox_api_service/transport/http"
	"github.com/troop248/troopmail/internal/platform/config"
	"github.com/troop248/troopmail/internal/platform/database"
	"github.com/troop248/troopmail/internal/platform/logger"
	"github.com/troop248/troopmail/internal/platform/messagebroker"
)

const serviceName = "outbox_api_service"

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info("Outbox API service starting...", "port", cfg.OutboxAPIServicePort)

	dbPool, err := database.NewDBPool(context.Background(), cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	appLogger.Info("Successfully connected to PostgreSQL database")

	natsClient, err := messagebroker.NewNatsClient(cfg.NATSUrl, serviceName, appLogger)
	if err != nil {
		appLogger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	appLogger.Info("Successfully connected to NATS")

	outboxRepo := postgres.NewPgOutboxRepository(dbPool)
	outboxHandler := outboxhttp.NewOutboxHandler(natsClient, outboxRepo, appLogger)
	authMW := middleware.AuthMiddleware(cfg.JWTAccessSecret, cfg.ServiceAPIKeyHash, appLogger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(outboxhttp.PrometheusMetricsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "UP", "service": serviceName})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(pr chi.Router) {
		pr.Use(authMW)
		outboxHandler.RegisterRoutes(pr)
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.OutboxAPIServicePort),
		Handler: r,
	}

	go func() {
		appLogger.Info("Outbox API service listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	quitChan := make(chan os.Signal, 1)
	signal.Notify(quitChan, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quitChan
	appLogger.Info("Shutdown signal received", "signal", receivedSignal.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server graceful shutdown failed", "error", err)
	}
	appLogger.Info("Outbox API service shut down successfully.")
}

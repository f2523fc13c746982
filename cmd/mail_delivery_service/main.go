package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/troop248/troopmail/internal/mail_delivery_service/adapters/mailtransport"
	"github.com/troop248/troopmail/internal/mail_delivery_service/app"
	"github.com/troop248/troopmail/internal/mail_delivery_service/repository/postgres"
	"github.com/troop248/troopmail/internal/platform/config"
	"github.com/troop248/troopmail/internal/platform/database"
	"github.com/troop248/troopmail/internal/platform/logger"
	"github.com/troop248/troopmail/internal/platform/messagebroker"
)

const (
	serviceName           = "mail_delivery_service"
	natsMailJobSubject    = "mail.jobs.send"
	natsMailJobQueueGroup = "mail_delivery_workers"
)

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info("Mail delivery service starting...", "log_level", cfg.LogLevel)

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

	transport, err := mailtransport.NewSMTPTransport(mailtransport.SMTPConfig{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
	}, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize SMTP transport", "error", err)
		os.Exit(1)
	}

	outboxRepo := postgres.NewPgOutboxRepository(dbPool)
	accountDirectory := postgres.NewPgAccountDirectory(dbPool)
	auditRepo := postgres.NewPgAuditRepository(dbPool)

	resolver := app.NewAccountResolver(accountDirectory, appLogger)
	// The From header uses the fixed organizational mailbox; replies route to the
	// human sender via Reply-To.
	dispatcher := app.NewMailDispatcher(transport, cfg.SMTPFromName, cfg.SMTPUser, cfg.MailPartialDelivery, appLogger)
	recorder := app.NewStatusRecorder(outboxRepo, auditRepo, appLogger)

	jobTimeout := time.Duration(cfg.MailDispatchTimeoutSeconds) * time.Second
	mailAppService := app.NewMailDeliveryAppService(outboxRepo, resolver, dispatcher, recorder, natsClient, appLogger, jobTimeout)

	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	if err := mailAppService.StartConsumingJobs(appCtx, natsMailJobSubject, natsMailJobQueueGroup); err != nil {
		appLogger.Error("Failed to start NATS job consumer", "error", err)
		os.Exit(1)
	}
	appLogger.Info("NATS consumer started", "subject", natsMailJobSubject, "queue_group", natsMailJobQueueGroup)

	quitChan := make(chan os.Signal, 1)
	signal.Notify(quitChan, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quitChan
	appLogger.Info("Shutdown signal received", "signal", receivedSignal.String())

	cancelAppCtx()
	mailAppService.StopConsumingJobs()
	appLogger.Info("Mail delivery service shut down successfully.")
}

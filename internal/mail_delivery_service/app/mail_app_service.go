package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/troop248/troopmail/internal/core_mail/domain"
	"github.com/troop248/troopmail/internal/mail_delivery_service/repository"
	"github.com/troop248/troopmail/internal/platform/messagebroker"
)

// NATSJobPayload is the message published when an outbox record is created.
type NATSJobPayload struct {
	OutboxMessageID string `json:"outbox_message_id"`
}

// jobOutcomeSkipped labels runs that found nothing to do: the record was missing or
// another run already owned it.
const jobOutcomeSkipped = "skipped"

// MailDeliveryAppService orchestrates the mail delivery pipeline. It is the unit
// invoked once per outbox record and owns the catch-all failure boundary: a run
// always leaves the record in a terminal state and never propagates a failure to
// the messaging infrastructure.
type MailDeliveryAppService struct {
	outboxRepo repository.OutboxRepository
	resolver   *AccountResolver
	dispatcher *MailDispatcher
	recorder   *StatusRecorder
	natsClient *messagebroker.NatsClient
	logger     *slog.Logger
	jobTimeout time.Duration
	natsSub    *nats.Subscription
}

// NewMailDeliveryAppService creates a new MailDeliveryAppService.
func NewMailDeliveryAppService(
	outboxRepo repository.OutboxRepository,
	resolver *AccountResolver,
	dispatcher *MailDispatcher,
	recorder *StatusRecorder,
	natsClient *messagebroker.NatsClient,
	logger *slog.Logger,
	jobTimeout time.Duration,
) *MailDeliveryAppService {
	return &MailDeliveryAppService{
		outboxRepo: outboxRepo,
		resolver:   resolver,
		dispatcher: dispatcher,
		recorder:   recorder,
		natsClient: natsClient,
		logger:     logger.With("service", "mail_delivery_app"),
		jobTimeout: jobTimeout,
	}
}

// StartConsumingJobs subscribes to the NATS subject for mail jobs.
func (s *MailDeliveryAppService) StartConsumingJobs(ctx context.Context, subject, queueGroup string) error {
	if s.natsClient == nil {
		return errors.New("NATS client not initialized in MailDeliveryAppService")
	}
	s.logger.Info("Starting NATS job consumer", "subject", subject, "queue_group", queueGroup)

	msgHandler := func(msg *nats.Msg) {
		natsMailJobsReceivedCounter.WithLabelValues(msg.Subject).Inc()

		var job NATSJobPayload
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			s.logger.Error("Failed to unmarshal NATS job payload", "error", err, "data", string(msg.Data))
			return
		}
		if job.OutboxMessageID == "" {
			s.logger.Error("NATS job payload missing outbox_message_id", "data", string(msg.Data))
			return
		}

		jobCtx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()

		s.HandleJob(jobCtx, job.OutboxMessageID)
	}

	var err error
	s.natsSub, err = s.natsClient.Subscribe(ctx, subject, queueGroup, msgHandler)
	if err != nil {
		return fmt.Errorf("failed to subscribe to NATS subject '%s': %w", subject, err)
	}
	return nil
}

// StopConsumingJobs unsubscribes from NATS.
func (s *MailDeliveryAppService) StopConsumingJobs() {
	if s.natsSub != nil && s.natsSub.IsValid() {
		s.logger.Info("Unsubscribing from NATS job subject", "subject", s.natsSub.Subject)
		if err := s.natsSub.Unsubscribe(); err != nil {
			s.logger.Error("Failed to unsubscribe from NATS", "error", err, "subject", s.natsSub.Subject)
		}
	}
}

// HandleJob runs one pipeline pass for the given outbox record and records metrics
// for the outcome. It never returns an error: every failure path ends in a
// terminal status write instead.
func (s *MailDeliveryAppService) HandleJob(ctx context.Context, outboxID string) {
	start := time.Now()
	outcome := s.runPipeline(ctx, outboxID)
	mailJobsProcessedCounter.WithLabelValues(outcome).Inc()
	mailJobProcessingDurationHist.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}

func (s *MailDeliveryAppService) runPipeline(ctx context.Context, outboxID string) (outcome string) {
	logger := s.logger.With("outbox_message_id", outboxID)

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "Panic during mail pipeline run", "panic", r)
			s.writeError(ctx, logger, outboxID, fmt.Sprint(r), nil)
			outcome = string(domain.MessageStatusError)
		}
	}()

	msg, err := s.outboxRepo.GetByID(ctx, outboxID)
	if err != nil {
		if errors.Is(err, repository.ErrOutboxMessageNotFound) {
			logger.WarnContext(ctx, "Outbox message not found, skipping job")
			return jobOutcomeSkipped
		}
		logger.ErrorContext(ctx, "Failed to load outbox message", "error", err)
		s.writeError(ctx, logger, outboxID, err.Error(), nil)
		return string(domain.MessageStatusError)
	}

	// Idempotency guard: only one run may move the record out of "new". Ingress is
	// at-least-once, so a lost claim means another run is handling the record.
	claimed, err := s.outboxRepo.MarkProcessing(ctx, msg.ID, time.Now().UTC())
	if err != nil {
		logger.ErrorContext(ctx, "Failed to mark outbox message processing", "error", err)
		s.writeError(ctx, logger, outboxID, err.Error(), nil)
		return string(domain.MessageStatusError)
	}
	if !claimed {
		logger.WarnContext(ctx, "Outbox message already claimed or terminal, skipping job", "status", msg.Status)
		return jobOutcomeSkipped
	}

	if err := ValidateRequest(msg); err != nil {
		return s.finish(ctx, logger, msg.ID, err)
	}

	sender, err := s.resolver.ResolveSender(ctx, msg.FromUID)
	if err != nil {
		return s.finish(ctx, logger, msg.ID, err)
	}

	recipients, err := s.resolver.ResolveRecipients(ctx, msg.FromUID, msg.ToUIDs)
	if err != nil {
		return s.finish(ctx, logger, msg.ID, err)
	}

	if err := EvaluateSafetyPolicy(sender.IsAdult, recipients); err != nil {
		return s.finish(ctx, logger, msg.ID, err)
	}

	result, err := s.dispatcher.Dispatch(ctx, sender, recipients, msg.Subject, msg.Body)
	if err != nil {
		var deliveredCount *int
		if s.dispatcher.PartialDeliveryEnabled() {
			delivered := len(result.Confirmations)
			deliveredCount = &delivered
		}
		s.writeError(ctx, logger, msg.ID, err.Error(), deliveredCount)
		return string(domain.MessageStatusError)
	}

	if err := s.recorder.RecordSent(ctx, msg, sender.RoleType, result.Confirmations); err != nil {
		logger.ErrorContext(ctx, "Failed to record sent status", "error", err)
		s.writeError(ctx, logger, msg.ID, err.Error(), nil)
		return string(domain.MessageStatusError)
	}

	logger.InfoContext(ctx, "Mail delivered", "delivered_count", len(result.Confirmations), "sender_role_type", sender.RoleType)
	return string(domain.MessageStatusSent)
}

// finish maps a pipeline failure to its terminal write: rejections become the
// rejected status with their reason, everything else becomes error.
func (s *MailDeliveryAppService) finish(ctx context.Context, logger *slog.Logger, outboxID string, err error) string {
	if rej, ok := domain.AsRejection(err); ok {
		logger.InfoContext(ctx, "Mail request rejected", "reason", rej.Reason)
		if recErr := s.recorder.RecordRejected(ctx, outboxID, rej.Reason); recErr != nil {
			logger.ErrorContext(ctx, "Failed to record rejected status", "error", recErr)
			s.writeError(ctx, logger, outboxID, recErr.Error(), nil)
			return string(domain.MessageStatusError)
		}
		return string(domain.MessageStatusRejected)
	}

	logger.ErrorContext(ctx, "Mail pipeline run failed", "error", err)
	s.writeError(ctx, logger, outboxID, err.Error(), nil)
	return string(domain.MessageStatusError)
}

func (s *MailDeliveryAppService) writeError(ctx context.Context, logger *slog.Logger, outboxID, message string, deliveredCount *int) {
	if err := s.recorder.RecordError(ctx, outboxID, message, deliveredCount); err != nil {
		logger.ErrorContext(ctx, "Failed to record error status", "error", err)
	}
}

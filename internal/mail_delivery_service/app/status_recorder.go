package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/troop248/troopmail/internal/core_mail/domain"
	"github.com/troop248/troopmail/internal/mail_delivery_service/repository"
)

// StatusRecorder performs the single terminal write for a pipeline run and appends
// the audit entry on full send success.
type StatusRecorder struct {
	outboxRepo repository.OutboxRepository
	auditRepo  repository.AuditRepository
	logger     *slog.Logger
}

// NewStatusRecorder creates a new StatusRecorder.
func NewStatusRecorder(outboxRepo repository.OutboxRepository, auditRepo repository.AuditRepository, logger *slog.Logger) *StatusRecorder {
	return &StatusRecorder{
		outboxRepo: outboxRepo,
		auditRepo:  auditRepo,
		logger:     logger.With("component", "status_recorder"),
	}
}

// RecordRejected writes the rejected terminal status with the specific reason.
// No audit entry, no sent_at, no delivered_count.
func (s *StatusRecorder) RecordRejected(ctx context.Context, outboxID, reason string) error {
	return s.outboxRepo.MarkRejected(ctx, outboxID, reason)
}

// RecordSent writes the sent terminal status and appends one audit entry carrying
// the uids actually delivered to. An audit append failure after the terminal write
// is logged, not escalated: the terminal transition happens exactly once per run
// and is never overwritten.
func (s *StatusRecorder) RecordSent(ctx context.Context, msg *domain.OutboxMessage, senderRoleType string, confirmations []DeliveryConfirmation) error {
	sentAt := time.Now().UTC()
	if err := s.outboxRepo.MarkSent(ctx, msg.ID, sentAt, len(confirmations)); err != nil {
		return err
	}

	deliveredUIDs := make([]string, 0, len(confirmations))
	for _, c := range confirmations {
		deliveredUIDs = append(deliveredUIDs, c.UID)
	}
	entry := &domain.AuditEntry{
		OutboxID:       msg.ID,
		FromUID:        msg.FromUID,
		ToUIDs:         deliveredUIDs,
		DeliveredCount: len(confirmations),
		SenderRoleType: senderRoleType,
		CreatedAt:      sentAt,
	}
	if err := s.auditRepo.Append(ctx, entry); err != nil {
		s.logger.ErrorContext(ctx, "Failed to append audit entry after successful send", "error", err, "outbox_message_id", msg.ID)
	}
	return nil
}

// RecordError writes the error terminal status. deliveredCount is non-nil only when
// the hardened dispatch mode reports partial delivery.
func (s *StatusRecorder) RecordError(ctx context.Context, outboxID, errorMessage string, deliveredCount *int) error {
	if errorMessage == "" {
		errorMessage = "Unknown error"
	}
	return s.outboxRepo.MarkError(ctx, outboxID, errorMessage, deliveredCount)
}

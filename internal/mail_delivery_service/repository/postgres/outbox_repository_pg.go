package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/troop248/troopmail/internal/core_mail/domain"
	"github.com/troop248/troopmail/internal/mail_delivery_service/repository"
)

type pgOutboxRepository struct {
	db *pgxpool.Pool
}

// NewPgOutboxRepository creates an OutboxRepository backed by PostgreSQL.
func NewPgOutboxRepository(db *pgxpool.Pool) repository.OutboxRepository {
	return &pgOutboxRepository{db: db}
}

func (r *pgOutboxRepository) Create(ctx context.Context, msg *domain.OutboxMessage) (*domain.OutboxMessage, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	msg.CreatedAt = now
	msg.UpdatedAt = now
	if msg.Status == "" {
		msg.Status = domain.MessageStatusNew
	}

	query := `
		INSERT INTO mail_outbox (
			id, from_uid, to_uids, subject, body, status, error,
			processing_at, sent_at, delivered_count, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	`
	_, err := r.db.Exec(ctx, query,
		msg.ID, msg.FromUID, msg.ToUIDs, msg.Subject, msg.Body, msg.Status, msg.ErrorMessage,
		msg.ProcessingAt, msg.SentAt, msg.DeliveredCount, msg.CreatedAt, msg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *pgOutboxRepository) GetByID(ctx context.Context, id string) (*domain.OutboxMessage, error) {
	msg := &domain.OutboxMessage{}
	query := `
		SELECT id, from_uid, to_uids, subject, body, status, error,
		       processing_at, sent_at, delivered_count, created_at, updated_at
		FROM mail_outbox WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&msg.ID, &msg.FromUID, &msg.ToUIDs, &msg.Subject, &msg.Body, &msg.Status, &msg.ErrorMessage,
		&msg.ProcessingAt, &msg.SentAt, &msg.DeliveredCount, &msg.CreatedAt, &msg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrOutboxMessageNotFound
		}
		return nil, err
	}
	return msg, nil
}

// MarkProcessing is the idempotency guard: the transition only fires while the row
// is still "new", so a duplicate trigger for the same record no-ops.
func (r *pgOutboxRepository) MarkProcessing(ctx context.Context, id string, processingAt time.Time) (bool, error) {
	query := `
		UPDATE mail_outbox
		SET status = $2, processing_at = $3, updated_at = $4
		WHERE id = $1 AND status = $5
	`
	tag, err := r.db.Exec(ctx, query, id, domain.MessageStatusProcessing, processingAt, time.Now().UTC(), domain.MessageStatusNew)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *pgOutboxRepository) MarkRejected(ctx context.Context, id string, reason string) error {
	query := `
		UPDATE mail_outbox
		SET status = $2, error = $3, updated_at = $4
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, domain.MessageStatusRejected, reason, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrOutboxMessageNotFound
	}
	return nil
}

func (r *pgOutboxRepository) MarkSent(ctx context.Context, id string, sentAt time.Time, deliveredCount int) error {
	query := `
		UPDATE mail_outbox
		SET status = $2, sent_at = $3, delivered_count = $4, updated_at = $5
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, domain.MessageStatusSent, sentAt, deliveredCount, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrOutboxMessageNotFound
	}
	return nil
}

func (r *pgOutboxRepository) MarkError(ctx context.Context, id string, errorMessage string, deliveredCount *int) error {
	query := `
		UPDATE mail_outbox
		SET status = $2, error = $3, delivered_count = COALESCE($4, delivered_count), updated_at = $5
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, id, domain.MessageStatusError, errorMessage, deliveredCount, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrOutboxMessageNotFound
	}
	return nil
}

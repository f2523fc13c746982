package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/troop248/troopmail/internal/core_mail/domain"
	"github.com/troop248/troopmail/internal/mail_delivery_service/repository"
)

type pgAuditRepository struct {
	db *pgxpool.Pool
}

// NewPgAuditRepository creates an append-only AuditRepository backed by PostgreSQL.
func NewPgAuditRepository(db *pgxpool.Pool) repository.AuditRepository {
	return &pgAuditRepository{db: db}
}

func (r *pgAuditRepository) Append(ctx context.Context, entry *domain.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO mail_audit (id, outbox_id, from_uid, to_uids, delivered_count, sender_role_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		entry.ID, entry.OutboxID, entry.FromUID, entry.ToUIDs, entry.DeliveredCount, entry.SenderRoleType, entry.CreatedAt,
	)
	return err
}

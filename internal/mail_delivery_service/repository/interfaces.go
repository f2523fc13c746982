package repository

import (
	"context"
	"errors"
	"time"

	"github.com/troop248/troopmail/internal/core_mail/domain"
)

var (
	ErrOutboxMessageNotFound = errors.New("outbox message not found")
	ErrAccountNotFound       = errors.New("account not found")
)

// OutboxRepository defines persistence for outbox messages. Status writes are the
// only mutations this pipeline performs and they are strictly ordered within a run.
type OutboxRepository interface {
	Create(ctx context.Context, msg *domain.OutboxMessage) (*domain.OutboxMessage, error)
	GetByID(ctx context.Context, id string) (*domain.OutboxMessage, error)

	// MarkProcessing performs the guarded new -> processing transition. It returns
	// (false, nil) when the record is no longer in the "new" state, meaning another
	// run already owns it.
	MarkProcessing(ctx context.Context, id string, processingAt time.Time) (bool, error)

	// MarkRejected and MarkError write a terminal status with a reason; MarkSent
	// writes the success terminal status with sent_at and delivered_count.
	MarkRejected(ctx context.Context, id string, reason string) error
	MarkSent(ctx context.Context, id string, sentAt time.Time, deliveredCount int) error
	MarkError(ctx context.Context, id string, errorMessage string, deliveredCount *int) error
}

// AccountDirectory is the read-only view of the account-approval collaborator's
// records.
type AccountDirectory interface {
	GetByUID(ctx context.Context, uid string) (*domain.AccountRecord, error)
}

// AuditRepository appends audit entries after fully successful sends.
type AuditRepository interface {
	Append(ctx context.Context, entry *domain.AuditEntry) error
}

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/troop248/troopmail/internal/core_mail/domain"
	"github.com/troop248/troopmail/internal/mail_delivery_service/repository"
)

type pgAccountDirectory struct {
	db *pgxpool.Pool
}

// NewPgAccountDirectory creates a read-only AccountDirectory backed by the
// account_info table owned by the account-approval workflow.
func NewPgAccountDirectory(db *pgxpool.Pool) repository.AccountDirectory {
	return &pgAccountDirectory{db: db}
}

func (r *pgAccountDirectory) GetByUID(ctx context.Context, uid string) (*domain.AccountRecord, error) {
	rec := &domain.AccountRecord{}
	query := `
		SELECT uid, COALESCE(email, ''), COALESCE(full_name, ''), COALESCE(display_name, ''),
		       COALESCE(auth_role, ''), COALESCE(role_type, '')
		FROM account_info WHERE uid = $1
	`
	err := r.db.QueryRow(ctx, query, uid).Scan(
		&rec.UID, &rec.Email, &rec.FullName, &rec.DisplayName, &rec.AuthRole, &rec.RoleType,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrAccountNotFound
		}
		return nil, err
	}
	return rec, nil
}

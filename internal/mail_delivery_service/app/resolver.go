package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/troop248/troopmail/internal/core_mail/domain"
	"github.com/troop248/troopmail/internal/mail_delivery_service/repository"
)

// AccountResolver resolves sender and recipient identities against the account
// directory and filters them down to the eligible set.
type AccountResolver struct {
	directory repository.AccountDirectory
	logger    *slog.Logger
}

// NewAccountResolver creates a new AccountResolver.
func NewAccountResolver(directory repository.AccountDirectory, logger *slog.Logger) *AccountResolver {
	return &AccountResolver{
		directory: directory,
		logger:    logger.With("component", "account_resolver"),
	}
}

// ResolveSender loads the sender account and checks approval, role, and email.
// Rejections come back as domain.RejectionError; directory failures as plain errors.
func (r *AccountResolver) ResolveSender(ctx context.Context, fromUID string) (*domain.ResolvedSender, error) {
	rec, err := r.directory.GetByUID(ctx, fromUID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, domain.Reject(domain.ReasonSenderNotApproved)
		}
		return nil, fmt.Errorf("failed to resolve sender %s: %w", fromUID, err)
	}
	if !rec.IsApproved() {
		return nil, domain.Reject(domain.ReasonSenderNotApproved)
	}

	roleType := strings.TrimSpace(rec.RoleType)
	if roleType == "" {
		roleType = domain.RoleTypeScout
	}

	email := strings.TrimSpace(rec.Email)
	if email == "" {
		return nil, domain.Reject(domain.ReasonSenderEmailMissing)
	}

	return &domain.ResolvedSender{
		UID:      fromUID,
		Email:    email,
		Name:     domain.SenderName(rec),
		RoleType: roleType,
		IsAdult:  domain.IsAdultRole(roleType),
	}, nil
}

// ResolveRecipients walks toUIDs in submitted order and keeps every occurrence that
// survives filtering: blanks, the sender itself, unknown accounts, unapproved
// accounts, and accounts without an email are skipped silently. Duplicates are not
// deduplicated; each surviving occurrence is delivered independently.
func (r *AccountResolver) ResolveRecipients(ctx context.Context, fromUID string, toUIDs []string) ([]domain.EligibleRecipient, error) {
	var recipients []domain.EligibleRecipient
	for _, uid := range toUIDs {
		if strings.TrimSpace(uid) == "" {
			continue
		}
		if uid == fromUID {
			continue // do not email self
		}
		rec, err := r.directory.GetByUID(ctx, uid)
		if err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				r.logger.DebugContext(ctx, "Skipping unknown recipient", "uid", uid)
				continue
			}
			return nil, fmt.Errorf("failed to resolve recipient %s: %w", uid, err)
		}
		if !rec.IsApproved() {
			continue
		}
		email := strings.TrimSpace(rec.Email)
		if email == "" {
			continue
		}
		recipients = append(recipients, domain.EligibleRecipient{
			UID:      uid,
			Email:    email,
			RoleType: rec.RoleType,
			FullName: strings.TrimSpace(rec.FullName),
		})
	}

	if len(recipients) == 0 {
		return nil, domain.Reject(domain.ReasonNoEligibleRecipients)
	}
	return recipients, nil
}

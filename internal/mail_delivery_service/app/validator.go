package app

import (
	"strings"
	"unicode/utf8"

	"github.com/troop248/troopmail/internal/core_mail/domain"
)

// ValidateRequest performs structural validation of a raw outbox record. Checks run
// in order and the first failure wins. Pure: the coordinator owns the status write.
func ValidateRequest(msg *domain.OutboxMessage) error {
	if strings.TrimSpace(msg.FromUID) == "" {
		return domain.Reject(domain.ReasonMissingFromUID)
	}
	if len(msg.ToUIDs) < 1 || len(msg.ToUIDs) > domain.MaxRecipients {
		return domain.Reject(domain.ReasonRecipientCount)
	}
	if strings.TrimSpace(msg.Subject) == "" || utf8.RuneCountInString(msg.Subject) > domain.MaxSubjectLen {
		return domain.Reject(domain.ReasonSubjectRequired)
	}
	if strings.TrimSpace(msg.Body) == "" || utf8.RuneCountInString(msg.Body) > domain.MaxBodyLen {
		return domain.Reject(domain.ReasonBodyRequired)
	}
	return nil
}

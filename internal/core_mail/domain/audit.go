package domain

import "time"

// AuditEntry is the append-only record written after a fully successful send.
// It is never mutated or deleted by the pipeline.
type AuditEntry struct {
	ID             string    `json:"id"` // UUID
	OutboxID       string    `json:"outbox_id"`
	FromUID        string    `json:"from_uid"`
	ToUIDs         []string  `json:"to_uids"` // uids actually sent to, in dispatch order
	DeliveredCount int       `json:"delivered_count"`
	SenderRoleType string    `json:"sender_role_type"`
	CreatedAt      time.Time `json:"created_at"`
}

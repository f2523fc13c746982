package domain

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// MessageStatus defines the possible states of an outbox message.
// Transitions are one-directional: new -> processing -> {rejected | sent | error}.
type MessageStatus string

const (
	MessageStatusNew        MessageStatus = "new"
	MessageStatusProcessing MessageStatus = "processing"
	MessageStatusRejected   MessageStatus = "rejected"
	MessageStatusSent       MessageStatus = "sent"
	MessageStatusError      MessageStatus = "error"
)

// Value implements the driver.Valuer interface for MessageStatus.
func (ms MessageStatus) Value() (driver.Value, error) {
	return string(ms), nil
}

// Scan implements the sql.Scanner interface for MessageStatus.
func (ms *MessageStatus) Scan(value interface{}) error {
	strVal, ok := value.(string)
	if !ok {
		bytesVal, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("failed to scan MessageStatus: value is not string or []byte, it is %T", value)
		}
		strVal = string(bytesVal)
	}
	switch MessageStatus(strVal) {
	case MessageStatusNew, MessageStatusProcessing, MessageStatusRejected, MessageStatusSent, MessageStatusError:
		*ms = MessageStatus(strVal)
		return nil
	default:
		return fmt.Errorf("unknown MessageStatus value: %s", strVal)
	}
}

// IsTerminal reports whether the status is one of the three terminal states.
func (ms MessageStatus) IsTerminal() bool {
	return ms == MessageStatusRejected || ms == MessageStatusSent || ms == MessageStatusError
}

// OutboxMessage represents a pending request to deliver mail, created once by the
// submitting caller and then owned exclusively by the delivery pipeline for a
// single processing run.
type OutboxMessage struct {
	ID             string        `json:"id"` // UUID
	FromUID        string        `json:"from_uid"`
	ToUIDs         []string      `json:"to_uids"` // as submitted; not deduplicated
	Subject        string        `json:"subject"`
	Body           string        `json:"body"`
	Status         MessageStatus `json:"status"`
	ErrorMessage   *string       `json:"error_message,omitempty"` // set iff status is rejected or error
	ProcessingAt   *time.Time    `json:"processing_at,omitempty"`
	SentAt         *time.Time    `json:"sent_at,omitempty"`
	DeliveredCount *int          `json:"delivered_count,omitempty"` // set on sent (and on partial delivery in hardened mode)
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Structural bounds for outbox messages. The delivery pipeline is the
// authoritative enforcement point; the API applies them early for fast feedback.
const (
	MaxRecipients = 20
	MaxSubjectLen = 160
	MaxBodyLen    = 5000
)

package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/troop248/troopmail/internal/core_mail/domain"
)

func validMessage() *domain.OutboxMessage {
	return &domain.OutboxMessage{
		ID:      "msg-1",
		FromUID: "sender-uid",
		ToUIDs:  []string{"rcpt-1", "rcpt-2"},
		Subject: "Campout this weekend",
		Body:    "Bring rain gear.",
		Status:  domain.MessageStatusNew,
	}
}

func assertRejectedWith(t *testing.T, err error, reason string) {
	t.Helper()
	require.Error(t, err)
	rej, ok := domain.AsRejection(err)
	require.True(t, ok, "expected a rejection, got %v", err)
	assert.Equal(t, reason, rej.Reason)
}

func TestValidateRequest_Valid(t *testing.T) {
	assert.NoError(t, ValidateRequest(validMessage()))
}

func TestValidateRequest_MissingFromUID(t *testing.T) {
	msg := validMessage()
	msg.FromUID = "   "
	assertRejectedWith(t, ValidateRequest(msg), domain.ReasonMissingFromUID)
}

func TestValidateRequest_RecipientCount(t *testing.T) {
	msg := validMessage()
	msg.ToUIDs = nil
	assertRejectedWith(t, ValidateRequest(msg), domain.ReasonRecipientCount)

	msg = validMessage()
	msg.ToUIDs = make([]string, domain.MaxRecipients+1)
	assertRejectedWith(t, ValidateRequest(msg), domain.ReasonRecipientCount)

	msg = validMessage()
	msg.ToUIDs = make([]string, domain.MaxRecipients)
	assert.NoError(t, ValidateRequest(msg))
}

func TestValidateRequest_Subject(t *testing.T) {
	msg := validMessage()
	msg.Subject = " \t "
	assertRejectedWith(t, ValidateRequest(msg), domain.ReasonSubjectRequired)

	msg = validMessage()
	msg.Subject = strings.Repeat("x", domain.MaxSubjectLen+1)
	assertRejectedWith(t, ValidateRequest(msg), domain.ReasonSubjectRequired)

	// Length is measured in runes, not bytes.
	msg = validMessage()
	msg.Subject = strings.Repeat("é", domain.MaxSubjectLen)
	assert.NoError(t, ValidateRequest(msg))
}

func TestValidateRequest_Body(t *testing.T) {
	msg := validMessage()
	msg.Body = ""
	assertRejectedWith(t, ValidateRequest(msg), domain.ReasonBodyRequired)

	msg = validMessage()
	msg.Body = strings.Repeat("y", domain.MaxBodyLen+1)
	assertRejectedWith(t, ValidateRequest(msg), domain.ReasonBodyRequired)
}

func TestValidateRequest_FirstFailureWins(t *testing.T) {
	msg := validMessage()
	msg.FromUID = ""
	msg.Subject = ""
	assertRejectedWith(t, ValidateRequest(msg), domain.ReasonMissingFromUID)
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageStatus_IsTerminal(t *testing.T) {
	assert.False(t, MessageStatusNew.IsTerminal())
	assert.False(t, MessageStatusProcessing.IsTerminal())
	assert.True(t, MessageStatusRejected.IsTerminal())
	assert.True(t, MessageStatusSent.IsTerminal())
	assert.True(t, MessageStatusError.IsTerminal())
}

func TestMessageStatus_Scan(t *testing.T) {
	var ms MessageStatus
	require.NoError(t, ms.Scan("processing"))
	assert.Equal(t, MessageStatusProcessing, ms)

	require.NoError(t, ms.Scan([]byte("sent")))
	assert.Equal(t, MessageStatusSent, ms)

	assert.Error(t, ms.Scan("queued"))
	assert.Error(t, ms.Scan(42))
}

func TestAccountRecord_IsApproved(t *testing.T) {
	assert.True(t, (&AccountRecord{AuthRole: AuthRoleAdmin}).IsApproved())
	assert.True(t, (&AccountRecord{AuthRole: AuthRoleViewer}).IsApproved())
	assert.False(t, (&AccountRecord{AuthRole: ""}).IsApproved())
	assert.False(t, (&AccountRecord{AuthRole: "pending"}).IsApproved())
	assert.False(t, (*AccountRecord)(nil).IsApproved())
}

func TestSenderName_FallbackChain(t *testing.T) {
	rec := &AccountRecord{UID: "u1", Email: "e@example.org", FullName: "Full Name", DisplayName: "Display"}
	assert.Equal(t, "Full Name", SenderName(rec))

	rec.FullName = "  "
	assert.Equal(t, "Display", SenderName(rec))

	rec.DisplayName = ""
	assert.Equal(t, "e@example.org", SenderName(rec))

	rec.Email = ""
	assert.Equal(t, "u1", SenderName(rec))
}

func TestRejectionError(t *testing.T) {
	err := Reject(ReasonScoutRuleViolation)
	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, ReasonScoutRuleViolation, rej.Reason)
	assert.Equal(t, ReasonScoutRuleViolation, err.Error())

	_, ok = AsRejection(assert.AnError)
	assert.False(t, ok)
}

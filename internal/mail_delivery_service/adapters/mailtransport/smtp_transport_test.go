package mailtransport

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPConfig_Secure(t *testing.T) {
	assert.True(t, SMTPConfig{Port: 465}.Secure())
	assert.False(t, SMTPConfig{Port: 587}.Secure())
	assert.False(t, SMTPConfig{Port: 25}.Secure())
}

func TestNewSMTPTransport_RequiresCredentials(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := NewSMTPTransport(SMTPConfig{Host: "smtp.example.org", Port: 465}, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP credentials missing")

	tr, err := NewSMTPTransport(SMTPConfig{Host: "smtp.example.org", Port: 465, User: "u", Pass: "p"}, logger)
	require.NoError(t, err)
	assert.Equal(t, "smtp", tr.GetName())
}

func TestBuildMessage(t *testing.T) {
	msg := Message{
		From:    "Troop 248 Website <troop@example.org>",
		To:      "Parent One <p1@example.org>",
		ReplyTo: "Jane Doe <jane@example.org>",
		Subject: "Campout",
		Text:    "Bring rain gear.",
	}
	raw := buildMessage(msg, "<abc@smtp.example.org>")

	parts := strings.SplitN(raw, "\r\n\r\n", 2)
	require.Len(t, parts, 2)
	headers := strings.Split(parts[0], "\r\n")

	assert.Equal(t, "From: Troop 248 Website <troop@example.org>", headers[0])
	assert.Equal(t, "To: Parent One <p1@example.org>", headers[1])
	assert.Equal(t, "Reply-To: Jane Doe <jane@example.org>", headers[2])
	assert.Equal(t, "Subject: Campout", headers[3])
	assert.Equal(t, "Message-ID: <abc@smtp.example.org>", headers[4])
	assert.Contains(t, headers, "MIME-Version: 1.0")
	assert.Contains(t, headers, "Content-Type: text/plain; charset=UTF-8")
	assert.Equal(t, "Bring rain gear.", parts[1])
}

func TestExtractAddress(t *testing.T) {
	assert.Equal(t, "jane@example.org", extractAddress("Jane Doe <jane@example.org>"))
	assert.Equal(t, "jane@example.org", extractAddress("jane@example.org"))
	assert.Equal(t, "jane@example.org", extractAddress("  jane@example.org  "))
	assert.Equal(t, "jane@example.org", extractAddress("<jane@example.org>"))
	// Unbalanced bracket falls back to the raw trimmed value.
	assert.Equal(t, "Jane <jane@example.org", extractAddress("Jane <jane@example.org"))
}

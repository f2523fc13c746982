package mailtransport

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strings"

	"github.com/google/uuid"
)

// SMTPConfig carries the secret transport configuration.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
}

// Secure reports whether the implicit-TLS (SMTPS) mode applies.
func (c SMTPConfig) Secure() bool {
	return c.Port == 465
}

type smtpTransport struct {
	cfg    SMTPConfig
	logger *slog.Logger
}

// NewSMTPTransport creates a Transport that delivers over SMTP, using an implicit
// TLS connection when the configured port is 465 and plain SMTP otherwise.
func NewSMTPTransport(cfg SMTPConfig, logger *slog.Logger) (Transport, error) {
	if cfg.User == "" || cfg.Pass == "" {
		return nil, fmt.Errorf("SMTP credentials missing: set SMTP_USER and SMTP_PASS")
	}
	return &smtpTransport{cfg: cfg, logger: logger.With("transport", "smtp")}, nil
}

func (t *smtpTransport) GetName() string {
	return "smtp"
}

func (t *smtpTransport) Send(ctx context.Context, msg Message) (*SendResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), t.cfg.Host)
	raw := buildMessage(msg, messageID)
	addr := fmt.Sprintf("%s:%d", t.cfg.Host, t.cfg.Port)
	from := extractAddress(msg.From)
	to := extractAddress(msg.To)

	auth := smtp.PlainAuth("", t.cfg.User, t.cfg.Pass, t.cfg.Host)

	var err error
	if t.cfg.Secure() {
		err = t.sendTLS(ctx, addr, auth, from, to, raw)
	} else {
		err = smtp.SendMail(addr, auth, from, []string{to}, []byte(raw))
	}
	if err != nil {
		return nil, fmt.Errorf("smtp send to %s failed: %w", to, err)
	}

	t.logger.DebugContext(ctx, "Email accepted by SMTP server", "to", to, "message_id", messageID)
	return &SendResult{MessageID: messageID}, nil
}

func (t *smtpTransport) sendTLS(ctx context.Context, addr string, auth smtp.Auth, from, to, raw string) error {
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{},
		Config:    &tls.Config{ServerName: t.cfg.Host},
	}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial tls: %w", err)
	}

	c, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("new client: %w", err)
	}
	defer func() {
		_ = c.Close()
	}()

	if err := c.Auth(auth); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write([]byte(raw)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}
	return c.Quit()
}

func buildMessage(msg Message, messageID string) string {
	headers := []string{
		fmt.Sprintf("From: %s", msg.From),
		fmt.Sprintf("To: %s", msg.To),
		fmt.Sprintf("Reply-To: %s", msg.ReplyTo),
		fmt.Sprintf("Subject: %s", msg.Subject),
		fmt.Sprintf("Message-ID: %s", messageID),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
	}
	return strings.Join(headers, "\r\n") + "\r\n\r\n" + msg.Text
}

// extractAddress pulls the bare address out of a "Name <addr>" header value.
func extractAddress(header string) string {
	if i := strings.Index(header, "<"); i >= 0 {
		if j := strings.Index(header[i:], ">"); j > 0 {
			return strings.TrimSpace(header[i+1 : i+j])
		}
	}
	return strings.TrimSpace(header)
}

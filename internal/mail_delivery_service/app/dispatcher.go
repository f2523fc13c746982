package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/troop248/troopmail/internal/core_mail/domain"
	"github.com/troop248/troopmail/internal/mail_delivery_service/adapters/mailtransport"
)

// DeliveryConfirmation records one successful send.
type DeliveryConfirmation struct {
	UID       string
	Email     string
	MessageID string
}

// DispatchResult aggregates per-recipient outcomes of a dispatch phase.
type DispatchResult struct {
	Confirmations []DeliveryConfirmation
	Attempted     int
}

// MailDispatcher sends one discrete email per eligible recipient, sequentially and
// in resolved-list order. The From header is the fixed organizational mailbox; the
// Reply-To header routes replies to the human sender.
type MailDispatcher struct {
	transport       mailtransport.Transport
	fromName        string
	fromAddress     string
	partialDelivery bool
	logger          *slog.Logger
}

// NewMailDispatcher creates a new MailDispatcher. With partialDelivery false the
// first transport failure aborts the remaining sends; with it true every recipient
// gets an isolated attempt and failures are aggregated.
func NewMailDispatcher(transport mailtransport.Transport, fromName, fromAddress string, partialDelivery bool, logger *slog.Logger) *MailDispatcher {
	return &MailDispatcher{
		transport:       transport,
		fromName:        fromName,
		fromAddress:     fromAddress,
		partialDelivery: partialDelivery,
		logger:          logger.With("component", "mail_dispatcher"),
	}
}

// PartialDeliveryEnabled reports whether the hardened per-recipient mode is on.
func (d *MailDispatcher) PartialDeliveryEnabled() bool {
	return d.partialDelivery
}

// Dispatch composes and sends the message to each recipient. On failure it returns
// the confirmations gathered so far together with the error.
func (d *MailDispatcher) Dispatch(ctx context.Context, sender *domain.ResolvedSender, recipients []domain.EligibleRecipient, subject, body string) (*DispatchResult, error) {
	fromHeader := fmt.Sprintf("%s <%s>", d.fromName, d.fromAddress)
	replyToHeader := fmt.Sprintf("%s <%s>", sender.Name, sender.Email)
	text := composeBody(body, d.fromName, sender.Name, sender.Email)

	result := &DispatchResult{}
	var firstErr error
	for _, rcpt := range recipients {
		result.Attempted++

		to := rcpt.Email
		if rcpt.FullName != "" {
			to = fmt.Sprintf("%s <%s>", rcpt.FullName, rcpt.Email)
		}

		msg := mailtransport.Message{
			From:    fromHeader,
			To:      to,
			ReplyTo: replyToHeader,
			Subject: strings.TrimSpace(subject),
			Text:    text,
		}

		timer := prometheus.NewTimer(transportSendDurationHist.WithLabelValues(d.transport.GetName()))
		res, err := d.transport.Send(ctx, msg)
		timer.ObserveDuration()

		if err != nil {
			d.logger.ErrorContext(ctx, "Transport send failed", "error", err, "recipient_uid", rcpt.UID)
			if !d.partialDelivery {
				return result, err
			}
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		recipientsDeliveredCounter.Inc()
		result.Confirmations = append(result.Confirmations, DeliveryConfirmation{
			UID:       rcpt.UID,
			Email:     rcpt.Email,
			MessageID: res.MessageID,
		})
	}

	if firstErr != nil {
		return result, fmt.Errorf("delivered %d of %d recipients: %w", len(result.Confirmations), len(recipients), firstErr)
	}
	return result, nil
}

// composeBody appends the footer disclosing that replies go to the human sender.
func composeBody(body, orgName, senderName, senderEmail string) string {
	return strings.TrimSpace(body) +
		"\n\n—\nSent via " + orgName + "\n" +
		fmt.Sprintf("Replying will email: %s (%s)", senderName, senderEmail)
}

package mailtransport

import "context"

// Message is one fully composed email handed to the transport.
type Message struct {
	From    string // organizational mailbox, "Name <addr>" form
	To      string // recipient, "Name <addr>" or bare address
	ReplyTo string // the human sender, so replies bypass the organizational mailbox
	Subject string
	Text    string
}

// SendResult holds the outcome of a single accepted send.
type SendResult struct {
	MessageID string // the Message-ID header value assigned to the email
}

// Transport defines the interface for an email transport adapter.
type Transport interface {
	Send(ctx context.Context, msg Message) (*SendResult, error)
	GetName() string
}

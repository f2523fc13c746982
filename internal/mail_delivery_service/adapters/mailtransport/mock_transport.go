package mailtransport

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockTransport is a test implementation of Transport. It records every message it
// accepts and can be told to fail.
type MockTransport struct {
	logger         *slog.Logger
	FailSend       bool
	SimulatedDelay time.Duration

	mu   sync.Mutex
	sent []Message
}

// NewMockTransport creates a new MockTransport.
func NewMockTransport(logger *slog.Logger, failSend bool, delay time.Duration) *MockTransport {
	return &MockTransport{
		logger:         logger.With("transport", "mock"),
		FailSend:       failSend,
		SimulatedDelay: delay,
	}
}

func (t *MockTransport) Send(ctx context.Context, msg Message) (*SendResult, error) {
	if t.SimulatedDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(t.SimulatedDelay):
		}
	}

	if t.FailSend {
		t.logger.WarnContext(ctx, "MockTransport: simulated send failure", "to", msg.To)
		return nil, errors.New("mock transport simulated send failure")
	}

	t.mu.Lock()
	t.sent = append(t.sent, msg)
	t.mu.Unlock()

	messageID := "<mock-" + uuid.NewString() + "@localhost>"
	t.logger.InfoContext(ctx, "MockTransport: email sent (simulated)", "to", msg.To, "message_id", messageID)
	return &SendResult{MessageID: messageID}, nil
}

func (t *MockTransport) GetName() string {
	return "mock"
}

// Sent returns a copy of the accepted messages in send order.
func (t *MockTransport) Sent() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Message, len(t.sent))
	copy(out, t.sent)
	return out
}

package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/tasker-api/internal/platform/mail"
)

// MockMailer implements mail.Mailer and records sent messages.
type MockMailer struct {
	SendFn func(ctx context.Context, msg mail.Message) error

	mu   sync.Mutex
	sent []mail.Message
}

var _ mail.Mailer = (*MockMailer)(nil)

// Send implements mail.Mailer.
func (m *MockMailer) Send(ctx context.Context, msg mail.Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()

	if m.SendFn != nil {
		return m.SendFn(ctx, msg)
	}
	return nil
}

// Sent returns the messages passed to Send.
func (m *MockMailer) Sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

// Package mail sends transactional email. SendGridMailer delivers through the
// SendGrid v3 API; LogMailer only logs and is used when no API key is configured.
package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasker-api/internal/config"
	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is a plain-text email to a single recipient.
type Message struct {
	ToAddress string
	ToName    string
	Subject   string
	Text      string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// sender is the subset of *sendgrid.Client used by SendGridMailer.
type sender interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

// SendGridMailer delivers mail through SendGrid.
type SendGridMailer struct {
	client sender
	from   *sgmail.Email
	logger *slog.Logger
}

// NewSendGridMailer returns a mailer authenticated with apiKey.
func NewSendGridMailer(apiKey, fromAddress, fromName string, logger *slog.Logger) *SendGridMailer {
	return newSendGridMailer(sendgrid.NewSendClient(apiKey), fromAddress, fromName, logger)
}

func newSendGridMailer(client sender, fromAddress, fromName string, logger *slog.Logger) *SendGridMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SendGridMailer{
		client: client,
		from:   sgmail.NewEmail(fromName, fromAddress),
		logger: logger.With(slog.String("component", "sendgrid_mailer")),
	}
}

// Send implements Mailer.
// Any non-2xx response from the API is reported as an error.
func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	log := logger.FromContextOrDefault(ctx, m.logger)

	to := sgmail.NewEmail(msg.ToName, msg.ToAddress)
	email := sgmail.NewSingleEmail(m.from, msg.Subject, to, msg.Text, "")

	resp, err := m.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid rejected mail with status %d", resp.StatusCode)
	}

	log.Debug("mail sent",
		slog.String("subject", msg.Subject),
		slog.Int("status", resp.StatusCode))
	return nil
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer returns a mailer that only logs.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{logger: logger.With(slog.String("component", "log_mailer"))}
}

// Send implements Mailer.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	logger.FromContextOrDefault(ctx, m.logger).Info("mail delivery disabled, logging message",
		slog.String("to", msg.ToAddress),
		slog.String("subject", msg.Subject))
	return nil
}

// New returns a SendGridMailer when an API key is configured and a LogMailer otherwise.
func New(cfg config.MailConfig, logger *slog.Logger) Mailer {
	if cfg.SendGridAPIKey == "" {
		return NewLogMailer(logger)
	}
	return NewSendGridMailer(cfg.SendGridAPIKey, cfg.FromAddress, cfg.FromName, logger)
}

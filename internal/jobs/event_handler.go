package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasker-api/internal/events"
	"github.com/phrazzld/tasker-api/internal/platform/mail"
)

// MailEventHandler implements events.EventHandler by turning user lifecycle
// events into mail jobs.
type MailEventHandler struct {
	queue  QueueWriter
	mailer Mailer
	logger *slog.Logger
}

// NewMailEventHandler creates a handler that enqueues mail jobs on queue.
func NewMailEventHandler(queue QueueWriter, mailer Mailer, logger *slog.Logger) *MailEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MailEventHandler{
		queue:  queue,
		mailer: mailer,
		logger: logger.With(slog.String("component", "mail_event_handler")),
	}
}

// Ensure MailEventHandler implements events.EventHandler
var _ events.EventHandler = (*MailEventHandler)(nil)

// HandleEvent enqueues a welcome mail for user.registered and a cancellation
// mail for user.deleted. Other event types are ignored.
func (h *MailEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	var build func(name, email string) mail.Message
	switch event.Type {
	case events.TypeUserRegistered:
		build = mail.WelcomeMessage
	case events.TypeUserDeleted:
		build = mail.CancellationMessage
	default:
		h.logger.Debug("ignoring event with unsupported type",
			slog.String("event_type", event.Type),
			slog.String("event_id", event.ID.String()))
		return nil
	}

	var payload events.UserPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("failed to unmarshal payload",
			slog.String("error", err.Error()),
			slog.String("event_id", event.ID.String()))
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if payload.Email == "" {
		return fmt.Errorf("event %s has no recipient", event.ID)
	}

	job := NewMailJob(h.mailer, build(payload.Name, payload.Email))
	if err := h.queue.Enqueue(job); err != nil {
		h.logger.Error("failed to enqueue mail job",
			slog.String("error", err.Error()),
			slog.String("event_type", event.Type),
			slog.String("user_id", payload.UserID.String()))
		return fmt.Errorf("failed to enqueue mail job: %w", err)
	}

	h.logger.Debug("mail job enqueued",
		slog.String("job_id", job.ID().String()),
		slog.String("event_type", event.Type),
		slog.String("user_id", payload.UserID.String()))
	return nil
}

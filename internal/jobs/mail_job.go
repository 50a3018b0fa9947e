package jobs

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/platform/mail"
)

// JobTypeMail identifies jobs that deliver one email.
const JobTypeMail = "mail"

// Mailer delivers a single message. mail.SendGridMailer and mail.LogMailer implement it.
type Mailer interface {
	Send(ctx context.Context, msg mail.Message) error
}

// MailJob sends one message through a Mailer.
type MailJob struct {
	id      uuid.UUID
	message mail.Message
	mailer  Mailer
}

// NewMailJob creates a job that sends msg with mailer.
func NewMailJob(mailer Mailer, msg mail.Message) *MailJob {
	return &MailJob{
		id:      uuid.New(),
		message: msg,
		mailer:  mailer,
	}
}

// ID implements Job.
func (j *MailJob) ID() uuid.UUID { return j.id }

// Type implements Job.
func (j *MailJob) Type() string { return JobTypeMail }

// Message returns the message the job will send.
func (j *MailJob) Message() mail.Message { return j.message }

// Execute implements Job.
func (j *MailJob) Execute(ctx context.Context) error {
	return j.mailer.Send(ctx, j.message)
}

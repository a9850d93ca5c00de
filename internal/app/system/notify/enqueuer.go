// internal/app/system/notify/enqueuer.go
package notify

import (
	"context"

	outboxstore "github.com/openvolunteer/volunteerhub/internal/app/store/outbox"
	"github.com/openvolunteer/volunteerhub/internal/app/system/mailer"
	"github.com/openvolunteer/volunteerhub/internal/domain/models"
	"go.uber.org/zap"
)

// DateFormat is how event dates and deadlines are rendered in emails.
const DateFormat = "Jan 2, 2006"

// Enqueuer queues notifications for the delivery worker. Handlers call it
// after their business write commits; a queue failure is logged but never
// fails the request that triggered it.
type Enqueuer struct {
	outbox *outboxstore.Store
	log    *zap.Logger
}

// NewEnqueuer creates an Enqueuer over the outbox store.
func NewEnqueuer(outbox *outboxstore.Store, log *zap.Logger) *Enqueuer {
	return &Enqueuer{outbox: outbox, log: log}
}

// Enqueue queues one notification of a registered email type.
func (e *Enqueuer) Enqueue(ctx context.Context, emailType, recipient string, params mailer.Params) error {
	if !mailer.KnownType(emailType) {
		return mailer.ErrUnknownType
	}
	_, err := e.outbox.Enqueue(ctx, emailType, recipient, params)
	if err != nil {
		e.log.Error("failed to enqueue notification",
			zap.String("email_type", emailType),
			zap.String("recipient", recipient),
			zap.Error(err))
	}
	return err
}

// RegistrationSuccess queues the confirmation sent after an event signup.
func (e *Enqueuer) RegistrationSuccess(ctx context.Context, u *models.User, ev *models.Event) error {
	return e.Enqueue(ctx, mailer.TypeRegistrationSuccess, u.Email, mailer.Params{
		"name":       u.Name,
		"event_name": ev.Name,
		"event_date": ev.Date.Format(DateFormat),
		"location":   ev.Location,
	})
}

// TaskAssigned queues the notification sent when a task lands on a volunteer.
func (e *Enqueuer) TaskAssigned(ctx context.Context, u *models.User, ev *models.Event, task models.AssignedTask) error {
	p := mailer.Params{
		"name":       u.Name,
		"event_name": ev.Name,
		"task_name":  task.Name,
	}
	if task.Deadline != nil {
		p["deadline"] = task.Deadline.Format(DateFormat)
	}
	return e.Enqueue(ctx, mailer.TypeTaskAssigned, u.Email, p)
}

// TaskDeadlineReminder queues one overdue-task reminder.
func (e *Enqueuer) TaskDeadlineReminder(ctx context.Context, u *models.User, eventName string, task models.AssignedTask) error {
	p := mailer.Params{
		"name":       u.Name,
		"event_name": eventName,
		"task_name":  task.Name,
	}
	if task.Deadline != nil {
		p["deadline"] = task.Deadline.Format(DateFormat)
	}
	return e.Enqueue(ctx, mailer.TypeTaskDeadlineReminder, u.Email, p)
}

// NewEvent queues the announcement sent to a volunteer whose interests match
// a newly published event.
func (e *Enqueuer) NewEvent(ctx context.Context, u *models.User, ev *models.Event) error {
	return e.Enqueue(ctx, mailer.TypeNewEvent, u.Email, mailer.Params{
		"name":       u.Name,
		"event_name": ev.Name,
		"event_date": ev.Date.Format(DateFormat),
		"location":   ev.Location,
		"category":   ev.Category,
	})
}

// EventInvitation queues an invitation. The invite carries no subscription;
// the volunteer registers themselves if they accept.
func (e *Enqueuer) EventInvitation(ctx context.Context, name, email string, ev *models.Event) error {
	return e.Enqueue(ctx, mailer.TypeEventInvitation, email, mailer.Params{
		"name":       name,
		"event_name": ev.Name,
		"event_date": ev.Date.Format(DateFormat),
	})
}

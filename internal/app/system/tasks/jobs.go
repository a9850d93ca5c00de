// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	eventstore "github.com/openvolunteer/volunteerhub/internal/app/store/events"
	outboxstore "github.com/openvolunteer/volunteerhub/internal/app/store/outbox"
	userstore "github.com/openvolunteer/volunteerhub/internal/app/store/users"
	"github.com/openvolunteer/volunteerhub/internal/app/system/notify"
	"github.com/openvolunteer/volunteerhub/internal/app/system/timeouts"
	"github.com/openvolunteer/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Job names, stable for RunOnce and log filtering.
const (
	JobTaskReminders = "task-deadline-reminders"
	JobOutboxCleanup = "outbox-cleanup"
)

// NewTaskReminderJob builds the periodic sweep that emails every volunteer
// holding a pending task past its deadline. One reminder is queued per
// overdue task on every sweep; reminders repeat until the task is completed.
func NewTaskReminderJob(
	users *userstore.Store,
	events *eventstore.Store,
	enq *notify.Enqueuer,
	interval time.Duration,
	log *zap.Logger,
) Job {
	return Job{
		Name:       JobTaskReminders,
		Interval:   interval,
		RunAtStart: true,
		Run: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, timeouts.Batch)
			defer cancel()

			now := time.Now()
			overdue, err := users.OverdueTaskUsers(ctx, now)
			if err != nil {
				return err
			}

			// Event names are resolved once per sweep.
			names := make(map[primitive.ObjectID]string)
			queued := 0

			for i := range overdue {
				u := &overdue[i]
				for _, sub := range u.EventsSubscribed {
					eventName, ok := names[sub.EventID]
					if !ok {
						ev, err := events.GetByID(ctx, sub.EventID)
						if err != nil {
							// Deleted events keep their task entries; skip
							// reminders that can no longer name the event.
							names[sub.EventID] = ""
							continue
						}
						eventName = ev.Name
						names[sub.EventID] = eventName
					}
					if eventName == "" {
						continue
					}

					for _, task := range sub.AssignedTasks {
						if task.Status != models.TaskPending || task.Deadline == nil || !task.Deadline.Before(now) {
							continue
						}
						if err := enq.TaskDeadlineReminder(ctx, u, eventName, task); err != nil {
							log.Error("failed to queue task reminder",
								zap.String("volunteer", u.Email),
								zap.String("task", task.Name),
								zap.Error(err))
							continue
						}
						queued++
					}
				}
			}

			if queued > 0 {
				log.Info("task deadline reminders queued",
					zap.Int("count", queued),
					zap.Int("volunteers", len(overdue)))
			}
			return nil
		},
	}
}

// NewOutboxCleanupJob builds the retention job that prunes delivered and
// permanently failed outbox entries older than retention.
func NewOutboxCleanupJob(outbox *outboxstore.Store, retention time.Duration, log *zap.Logger) Job {
	return Job{
		Name:     JobOutboxCleanup,
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, timeouts.Batch)
			defer cancel()

			cutoff := time.Now().Add(-retention)
			deleted, err := outbox.DeleteCompletedBefore(ctx, cutoff)
			if err != nil {
				return err
			}
			if deleted > 0 {
				log.Info("pruned completed outbox entries",
					zap.Int64("count", deleted))
			}
			return nil
		},
	}
}

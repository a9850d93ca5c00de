package tasks

import (
	"testing"
	"time"

	eventstore "github.com/openvolunteer/volunteerhub/internal/app/store/events"
	outboxstore "github.com/openvolunteer/volunteerhub/internal/app/store/outbox"
	userstore "github.com/openvolunteer/volunteerhub/internal/app/store/users"
	"github.com/openvolunteer/volunteerhub/internal/app/system/mailer"
	"github.com/openvolunteer/volunteerhub/internal/app/system/notify"
	"github.com/openvolunteer/volunteerhub/internal/domain/models"
	"github.com/openvolunteer/volunteerhub/internal/testutil"
	"go.uber.org/zap"
)

func TestTaskReminderJob(t *testing.T) {
	db := testutil.SetupTestDB(t)
	users := userstore.New(db)
	events := eventstore.New(db)
	outbox := outboxstore.New(db)
	enq := notify.NewEnqueuer(outbox, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now().Add(-14 * 24 * time.Hour)
	ev, err := events.Create(ctx, models.Event{
		Name:              "Park Restoration",
		Category:          "environment",
		Date:              base.Add(72 * time.Hour),
		RegistrationStart: base,
		RegistrationEnd:   base.Add(48 * time.Hour),
		EventStart:        base.Add(72 * time.Hour),
		EventEnd:          base.Add(80 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Create(event) error = %v", err)
	}

	past := time.Now().Add(-24 * time.Hour)
	future := time.Now().Add(24 * time.Hour)

	u, err := users.Create(ctx, models.User{Name: "Late", Email: "late@example.com"})
	if err != nil {
		t.Fatalf("Create(user) error = %v", err)
	}
	if err := users.AssignTask(ctx, u.ID, ev.ID, models.AssignedTask{Name: "paint benches", Deadline: &past}); err != nil {
		t.Fatalf("AssignTask() error = %v", err)
	}
	if err := users.AssignTask(ctx, u.ID, ev.ID, models.AssignedTask{Name: "plant trees", Deadline: &future}); err != nil {
		t.Fatalf("AssignTask() error = %v", err)
	}

	job := NewTaskReminderJob(users, events, enq, time.Hour, zap.NewNop())
	if err := job.Run(ctx); err != nil {
		t.Fatalf("job.Run() error = %v", err)
	}

	queued, err := outbox.ListByRecipient(ctx, "late@example.com")
	if err != nil {
		t.Fatalf("ListByRecipient() error = %v", err)
	}
	if len(queued) != 1 {
		t.Fatalf("queued %d reminders, want 1 (only the overdue task)", len(queued))
	}
	if queued[0].EmailType != mailer.TypeTaskDeadlineReminder {
		t.Errorf("EmailType = %q, want %q", queued[0].EmailType, mailer.TypeTaskDeadlineReminder)
	}
	if queued[0].Params["task_name"] != "paint benches" {
		t.Errorf("task_name = %q, want %q", queued[0].Params["task_name"], "paint benches")
	}
	if queued[0].Params["event_name"] != "Park Restoration" {
		t.Errorf("event_name = %q, want %q", queued[0].Params["event_name"], "Park Restoration")
	}

	// A second sweep queues again: reminders repeat until the task completes.
	if err := job.Run(ctx); err != nil {
		t.Fatalf("job.Run() second error = %v", err)
	}
	queued, err = outbox.ListByRecipient(ctx, "late@example.com")
	if err != nil {
		t.Fatalf("ListByRecipient() error = %v", err)
	}
	if len(queued) != 2 {
		t.Errorf("queued %d reminders after second sweep, want 2", len(queued))
	}
}

func TestTaskReminderJob_SkipsDeletedEvents(t *testing.T) {
	db := testutil.SetupTestDB(t)
	users := userstore.New(db)
	events := eventstore.New(db)
	outbox := outboxstore.New(db)
	enq := notify.NewEnqueuer(outbox, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	base := time.Now().Add(-14 * 24 * time.Hour)
	ev, err := events.Create(ctx, models.Event{
		Name:              "Gone",
		Category:          "health",
		Date:              base.Add(72 * time.Hour),
		RegistrationStart: base,
		RegistrationEnd:   base.Add(48 * time.Hour),
		EventStart:        base.Add(72 * time.Hour),
		EventEnd:          base.Add(80 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Create(event) error = %v", err)
	}

	past := time.Now().Add(-24 * time.Hour)
	u, err := users.Create(ctx, models.User{Name: "Orphan", Email: "orphan@example.com"})
	if err != nil {
		t.Fatalf("Create(user) error = %v", err)
	}
	if err := users.AssignTask(ctx, u.ID, ev.ID, models.AssignedTask{Name: "stale", Deadline: &past}); err != nil {
		t.Fatalf("AssignTask() error = %v", err)
	}
	if err := events.Delete(ctx, ev.ID); err != nil {
		t.Fatalf("Delete(event) error = %v", err)
	}

	job := NewTaskReminderJob(users, events, enq, time.Hour, zap.NewNop())
	if err := job.Run(ctx); err != nil {
		t.Fatalf("job.Run() error = %v", err)
	}

	queued, err := outbox.ListByRecipient(ctx, "orphan@example.com")
	if err != nil {
		t.Fatalf("ListByRecipient() error = %v", err)
	}
	if len(queued) != 0 {
		t.Errorf("queued %d reminders for a deleted event, want 0", len(queued))
	}
}

func TestOutboxCleanupJob(t *testing.T) {
	db := testutil.SetupTestDB(t)
	outbox := outboxstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sent, err := outbox.Enqueue(ctx, mailer.TypeNewEvent, "done@example.com", nil)
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if _, err := outbox.ClaimNext(ctx, "w"); err != nil {
		t.Fatalf("ClaimNext() error = %v", err)
	}
	if err := outbox.MarkSent(ctx, sent.ID); err != nil {
		t.Fatalf("MarkSent() error = %v", err)
	}

	// Negative retention puts the cutoff in the future, so the freshly
	// delivered entry is already eligible.
	job := NewOutboxCleanupJob(outbox, -time.Minute, zap.NewNop())
	if err := job.Run(ctx); err != nil {
		t.Fatalf("job.Run() error = %v", err)
	}

	n, err := outbox.CountByStatus(ctx, outboxstore.StatusSent)
	if err != nil {
		t.Fatalf("CountByStatus() error = %v", err)
	}
	if n != 0 {
		t.Errorf("sent entries remaining = %d, want 0", n)
	}
}

// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	eventstore "github.com/openvolunteer/volunteerhub/internal/app/store/events"
	outboxstore "github.com/openvolunteer/volunteerhub/internal/app/store/outbox"
	userstore "github.com/openvolunteer/volunteerhub/internal/app/store/users"
	"github.com/openvolunteer/volunteerhub/internal/app/system/notify"
	"github.com/openvolunteer/volunteerhub/internal/app/system/tasks"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema/index setup are complete,
// but before the HTTP handler is built and requests are served.
//
// For this app it starts the two background components:
//   - the notification worker that drains the email outbox and delivers
//     messages over SMTP
//   - the task runner with the overdue-task reminder sweep and the outbox
//     cleanup job
//
// Returning a non-nil error will abort startup and prevent the server from
// starting.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	startNotifyWorker(appCfg, deps, logger)
	startTaskRunner(appCfg, deps, logger)
	return nil
}

// taskRunner and notifyWorker are package-level so Shutdown can stop them.
var (
	taskRunner   *tasks.Runner
	notifyWorker *notify.Worker
)

// startNotifyWorker starts the outbox delivery workers.
func startNotifyWorker(appCfg AppConfig, deps DBDeps, logger *zap.Logger) {
	outbox := outboxstore.New(deps.MongoDatabase)

	cfg := notify.DefaultWorkerConfig()
	if appCfg.OutboxPollInterval > 0 {
		cfg.PollInterval = appCfg.OutboxPollInterval
	}
	if appCfg.OutboxRetryDelay > 0 {
		cfg.RetryDelay = appCfg.OutboxRetryDelay
	}
	if appCfg.OutboxConcurrency > 0 {
		cfg.Concurrency = appCfg.OutboxConcurrency
	}

	notifyWorker = notify.NewWorker(outbox, deps.Mailer, cfg, logger)
	notifyWorker.Start()
}

// startTaskRunner initializes and starts the background task runner.
func startTaskRunner(appCfg AppConfig, deps DBDeps, logger *zap.Logger) {
	users := userstore.New(deps.MongoDatabase)
	events := eventstore.New(deps.MongoDatabase)
	outbox := outboxstore.New(deps.MongoDatabase)
	enq := notify.NewEnqueuer(outbox, logger)

	taskRunner = tasks.New(logger)

	// Email volunteers holding pending tasks past their deadline.
	taskRunner.Register(tasks.NewTaskReminderJob(users, events, enq, appCfg.ReminderInterval, logger))

	// Purge delivered outbox entries past the retention window.
	taskRunner.Register(tasks.NewOutboxCleanupJob(outbox, appCfg.OutboxRetention, logger))

	taskRunner.Start()
}

// internal/app/system/notify/worker.go
package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	outboxstore "github.com/openvolunteer/volunteerhub/internal/app/store/outbox"
	"github.com/openvolunteer/volunteerhub/internal/app/system/mailer"
	"go.uber.org/zap"
)

// Sender delivers one built email. *mailer.Mailer satisfies it.
type Sender interface {
	Send(email mailer.Email) error
}

// WorkerConfig holds delivery worker tuning.
type WorkerConfig struct {
	// PollInterval is how often each worker polls the outbox for entries.
	PollInterval time.Duration

	// RetryDelay is the base delay before retrying a failed delivery.
	// The actual delay is RetryDelay * attempts.
	RetryDelay time.Duration

	// Concurrency is the number of delivery goroutines.
	Concurrency int
}

// DefaultWorkerConfig returns the defaults used when config keys are unset.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		PollInterval: 5 * time.Second,
		RetryDelay:   time.Minute,
		Concurrency:  2,
	}
}

// Worker drains the outbox: it claims pending entries, renders them through
// the template registry, and hands them to the sender. Failed deliveries are
// retried with backoff until the entry exhausts its attempts.
type Worker struct {
	outbox *outboxstore.Store
	sender Sender
	cfg    WorkerConfig
	log    *zap.Logger

	workerID string
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	inFlight atomic.Int32
}

// NewWorker creates a delivery worker over the outbox store.
func NewWorker(outbox *outboxstore.Store, sender Sender, cfg WorkerConfig, log *zap.Logger) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultWorkerConfig().PollInterval
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultWorkerConfig().RetryDelay
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultWorkerConfig().Concurrency
	}
	return &Worker{
		outbox:   outbox,
		sender:   sender,
		cfg:      cfg,
		log:      log,
		workerID: uuid.New().String()[:8],
	}
}

// Start launches the delivery goroutines. Call Stop to shut down.
func (w *Worker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	for i := 0; i < w.cfg.Concurrency; i++ {
		w.wg.Add(1)
		go w.loop(ctx, i)
	}

	w.log.Info("notification worker started",
		zap.String("worker_id", w.workerID),
		zap.Int("concurrency", w.cfg.Concurrency),
		zap.Duration("poll_interval", w.cfg.PollInterval))
}

// Stop stops the worker and waits for in-flight deliveries within the
// context's deadline.
func (w *Worker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.log.Info("notification worker stopped gracefully")
		return nil
	case <-ctx.Done():
		w.log.Warn("notification worker shutdown timed out",
			zap.Int32("in_flight", w.inFlight.Load()))
		return ctx.Err()
	}
}

func (w *Worker) loop(ctx context.Context, n int) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Drain everything eligible before sleeping again.
			for w.deliverNext(ctx) {
				if ctx.Err() != nil {
					return
				}
			}
		}
	}
}

// deliverNext claims and delivers one entry. Returns false when the outbox
// had nothing eligible.
func (w *Worker) deliverNext(ctx context.Context) bool {
	claimCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	entry, err := w.outbox.ClaimNext(claimCtx, w.workerID)
	cancel()

	if err != nil {
		if ctx.Err() == nil {
			w.log.Error("failed to claim outbox entry", zap.Error(err))
		}
		return false
	}
	if entry == nil {
		return false
	}

	w.inFlight.Add(1)
	defer w.inFlight.Add(-1)

	start := time.Now()
	subject, text, html, err := mailer.Build(entry.EmailType, entry.Params)
	if err == nil {
		err = w.sender.Send(mailer.Email{
			To:       entry.Recipient,
			Subject:  subject,
			TextBody: text,
			HTMLBody: html,
		})
	}

	// Status writes use a background context so a shutdown mid-send still
	// records the outcome.
	markCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err != nil {
		w.log.Warn("notification delivery failed",
			zap.String("entry_id", entry.ID.Hex()),
			zap.String("email_type", entry.EmailType),
			zap.Int("attempt", entry.Attempts),
			zap.Int("max_attempts", entry.MaxAttempts),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		if failErr := w.outbox.Fail(markCtx, entry.ID, err.Error(), w.cfg.RetryDelay); failErr != nil {
			w.log.Error("failed to record delivery failure",
				zap.String("entry_id", entry.ID.Hex()),
				zap.Error(failErr))
		}
		return true
	}

	if err := w.outbox.MarkSent(markCtx, entry.ID); err != nil {
		w.log.Error("failed to mark entry sent",
			zap.String("entry_id", entry.ID.Hex()),
			zap.Error(err))
	}

	w.log.Info("notification delivered",
		zap.String("entry_id", entry.ID.Hex()),
		zap.String("email_type", entry.EmailType),
		zap.Duration("duration", time.Since(start)))
	return true
}

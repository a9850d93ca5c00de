// internal/app/system/tasks/runner.go
package tasks

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Job is one scheduled background task.
type Job struct {
	Name     string
	Interval time.Duration

	// RunAtStart fires the job once immediately when the runner starts,
	// before the first ticker interval elapses. The reminder sweep sets
	// this so a restart never skips a day.
	RunAtStart bool

	Run func(ctx context.Context) error
}

// Runner executes registered jobs on their intervals.
type Runner struct {
	log     *zap.Logger
	jobs    []Job
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	running atomic.Int32
	active  sync.Map // job name -> struct{}
}

// New creates a new task runner.
func New(log *zap.Logger) *Runner {
	return &Runner{log: log}
}

// Register adds a job. Must be called before Start.
func (r *Runner) Register(job Job) {
	r.jobs = append(r.jobs, job)
}

// Start launches one goroutine per registered job.
func (r *Runner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	for _, job := range r.jobs {
		r.wg.Add(1)
		go r.runJob(ctx, job)
	}

	r.log.Info("background task runner started",
		zap.Int("job_count", len(r.jobs)))
}

// Stop cancels all jobs and waits for them within the context's deadline.
func (r *Runner) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.log.Info("background task runner stopped gracefully")
		return nil
	case <-ctx.Done():
		var still []string
		r.active.Range(func(key, _ any) bool {
			still = append(still, key.(string))
			return true
		})
		r.log.Warn("background task runner shutdown timed out",
			zap.Strings("jobs_still_running", still),
			zap.Int32("running_count", r.running.Load()))
		return ctx.Err()
	}
}

// RunOnce executes the named job immediately. Used by tests and manual
// triggers; unknown names are a no-op.
func (r *Runner) RunOnce(ctx context.Context, name string) error {
	for _, job := range r.jobs {
		if job.Name == name {
			return job.Run(ctx)
		}
	}
	return nil
}

func (r *Runner) runJob(ctx context.Context, job Job) {
	defer r.wg.Done()

	if job.RunAtStart {
		r.execute(ctx, job)
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Debug("job stopped", zap.String("job", job.Name))
			return
		case <-ticker.C:
			r.execute(ctx, job)
		}
	}
}

func (r *Runner) execute(ctx context.Context, job Job) {
	r.running.Add(1)
	r.active.Store(job.Name, struct{}{})
	defer func() {
		r.running.Add(-1)
		r.active.Delete(job.Name)
	}()

	start := time.Now()
	r.log.Debug("job starting", zap.String("job", job.Name))

	if err := job.Run(ctx); err != nil {
		if ctx.Err() != nil {
			r.log.Debug("job cancelled during shutdown",
				zap.String("job", job.Name),
				zap.Duration("duration", time.Since(start)))
			return
		}
		r.log.Error("job failed",
			zap.String("job", job.Name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return
	}

	r.log.Debug("job completed",
		zap.String("job", job.Name),
		zap.Duration("duration", time.Since(start)))
}

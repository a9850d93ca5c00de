package tasks

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRunner_RunsOnInterval(t *testing.T) {
	r := New(zap.NewNop())

	var runs atomic.Int32
	r.Register(Job{
		Name:     "ticking",
		Interval: 20 * time.Millisecond,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	r.Start()
	time.Sleep(110 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if got := runs.Load(); got < 2 {
		t.Errorf("job ran %d times, want at least 2", got)
	}
}

func TestRunner_RunAtStart(t *testing.T) {
	r := New(zap.NewNop())

	var runs atomic.Int32
	r.Register(Job{
		Name:       "eager",
		Interval:   time.Hour, // the ticker never fires during the test
		RunAtStart: true,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	r.Start()
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if got := runs.Load(); got != 1 {
		t.Errorf("job ran %d times, want exactly 1 (the startup run)", got)
	}
}

func TestRunner_RunOnce(t *testing.T) {
	r := New(zap.NewNop())

	var runs atomic.Int32
	r.Register(Job{
		Name:     "manual",
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	ctx := context.Background()
	if err := r.RunOnce(ctx, "manual"); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if got := runs.Load(); got != 1 {
		t.Errorf("job ran %d times, want 1", got)
	}

	// Unknown names are a no-op.
	if err := r.RunOnce(ctx, "ghost"); err != nil {
		t.Errorf("RunOnce(unknown) error = %v, want nil", err)
	}
}

func TestRunner_StopWaitsForJobs(t *testing.T) {
	r := New(zap.NewNop())

	started := make(chan struct{})
	var finished atomic.Bool
	r.Register(Job{
		Name:       "slow",
		Interval:   time.Hour,
		RunAtStart: true,
		Run: func(ctx context.Context) error {
			close(started)
			time.Sleep(80 * time.Millisecond)
			finished.Store(true)
			return nil
		},
	})

	r.Start()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !finished.Load() {
		t.Error("Stop() returned before the in-flight job finished")
	}
}

package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestIntervalSchedulerRunsAndStops(t *testing.T) {
	s := NewIntervalScheduler(10 * time.Millisecond)

	var runs atomic.Int32
	err := s.Start(context.Background(), func(time.Time) { runs.Add(1) })
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.After(time.Second)
	for runs.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 2 runs, got %d", runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	// A tick already drawn before Stop may still finish; let it settle.
	time.Sleep(30 * time.Millisecond)
	stopped := runs.Load()

	time.Sleep(50 * time.Millisecond)
	if got := runs.Load(); got != stopped {
		t.Fatalf("job ran %d more times after Stop", got-stopped)
	}

	// Stop is safe to call again on an idle scheduler.
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}

func TestIntervalSchedulerIgnoresNilJob(t *testing.T) {
	s := NewIntervalScheduler(time.Millisecond)
	if err := s.Start(context.Background(), nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

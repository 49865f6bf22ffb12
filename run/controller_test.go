package run

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func drain(t *testing.T, r *Run) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case event, ok := <-r.Events():
			if !ok {
				return events
			}
			events = append(events, event)
		case <-timeout:
			t.Fatalf("feed never closed")
		}
	}
}

func TestStartRejectsSecondRun(t *testing.T) {
	ctrl := NewController(16, nil)
	release := make(chan struct{})

	first, err := ctrl.Start(func(ctx context.Context, feed *Feed) error {
		<-release
		return nil
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := ctrl.Start(func(ctx context.Context, feed *Feed) error { return nil }); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second start err = %v, want ErrAlreadyRunning", err)
	}

	close(release)
	first.Wait()

	if _, err := ctrl.Start(func(ctx context.Context, feed *Feed) error { return nil }); err != nil {
		t.Fatalf("start after finish: %v", err)
	}
}

func TestStopWhenIdle(t *testing.T) {
	ctrl := NewController(16, nil)
	if err := ctrl.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("stop err = %v, want ErrNotRunning", err)
	}
}

func TestRunCompletes(t *testing.T) {
	ctrl := NewController(16, nil)
	r, err := ctrl.Start(func(ctx context.Context, feed *Feed) error {
		feed.Infof("working")
		return nil
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	events := drain(t, r)
	last := events[len(events)-1]
	if !last.Final || last.Outcome != OutcomeCompleted {
		t.Fatalf("final event = %+v, want completed", last)
	}
	if outcome, done := r.Outcome(); !done || outcome != OutcomeCompleted {
		t.Fatalf("outcome = %q done=%v, want completed", outcome, done)
	}
	if status, _ := ctrl.Status(); status != StatusStopped {
		t.Fatalf("status = %q, want stopped", status)
	}
}

func TestRunFails(t *testing.T) {
	ctrl := NewController(16, nil)
	r, err := ctrl.Start(func(ctx context.Context, feed *Feed) error {
		return errors.New("boom")
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	events := drain(t, r)
	last := events[len(events)-1]
	if last.Outcome != OutcomeFailed || !strings.Contains(last.Message, "boom") {
		t.Fatalf("final event = %+v, want failed with cause", last)
	}
}

func TestStopCancelsRun(t *testing.T) {
	ctrl := NewController(16, nil)
	started := make(chan struct{})

	r, err := ctrl.Start(func(ctx context.Context, feed *Feed) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	<-started
	if err := ctrl.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	r.Wait()

	if outcome, done := r.Outcome(); !done || outcome != OutcomeStopped {
		t.Fatalf("outcome = %q done=%v, want stopped", outcome, done)
	}
	if status, _ := ctrl.Status(); status != StatusStopped {
		t.Fatalf("status = %q, want stopped after cancellation", status)
	}
}

func TestRunPanicBecomesFailure(t *testing.T) {
	ctrl := NewController(16, nil)
	r, err := ctrl.Start(func(ctx context.Context, feed *Feed) error {
		panic("unexpected condition")
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	events := drain(t, r)
	last := events[len(events)-1]
	if last.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %q, want failed", last.Outcome)
	}
	if !strings.Contains(last.Message, "unexpected condition") || !strings.Contains(last.Message, "goroutine") {
		t.Fatalf("panic message missing trace: %q", last.Message)
	}

	// The controller must be startable again after a panic.
	if _, err := ctrl.Start(func(ctx context.Context, feed *Feed) error { return nil }); err != nil {
		t.Fatalf("start after panic: %v", err)
	}
}

func TestCurrentKeepsLastRun(t *testing.T) {
	ctrl := NewController(16, nil)
	if ctrl.Current() != nil {
		t.Fatalf("current before any run should be nil")
	}

	r, err := ctrl.Start(func(ctx context.Context, feed *Feed) error { return nil })
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	r.Wait()

	if got := ctrl.Current(); got != r {
		t.Fatalf("current = %v, want the finished run", got)
	}
}

func TestFeedDropsWhenFull(t *testing.T) {
	// Buffer 2 leaves one slot for progress events; the other is
	// reserved for the sentinel.
	feed := NewFeed(2, nil)
	feed.Infof("one")
	feed.Infof("two")
	feed.Infof("three")
	if feed.Dropped() != 2 {
		t.Fatalf("dropped = %d, want 2", feed.Dropped())
	}
}

func TestFeedSentinelSurvivesFullBuffer(t *testing.T) {
	feed := NewFeed(2, nil)
	for i := 0; i < 10; i++ {
		feed.Infof("progress %d", i)
	}
	feed.finish(OutcomeCompleted, "done")

	var last Event
	for event := range feed.Events() {
		last = event
	}
	if !last.Final || last.Outcome != OutcomeCompleted {
		t.Fatalf("last event = %+v, want the completion sentinel", last)
	}
}

func TestFeedFinishIsIdempotent(t *testing.T) {
	feed := NewFeed(4, nil)
	feed.finish(OutcomeCompleted, "done")
	feed.finish(OutcomeFailed, "too late")

	if outcome, done := feed.Outcome(); !done || outcome != OutcomeCompleted {
		t.Fatalf("outcome = %q, want the first finish to win", outcome)
	}
	feed.Infof("ignored after finish")

	var count int
	for range feed.Events() {
		count++
	}
	if count != 1 {
		t.Fatalf("events after finish = %d, want just the sentinel", count)
	}
}

package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

var (
	// ErrAlreadyRunning is returned when a start request arrives while a
	// run is active. Requests are rejected, never queued.
	ErrAlreadyRunning = errors.New("run: already running")
	// ErrNotRunning is returned when a stop request arrives while idle.
	ErrNotRunning = errors.New("run: not running")
)

// Status is the externally visible controller state.
type Status string

const (
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
)

// Job is the body of a run. It must honor ctx at its cancellation
// checkpoints and return ctx.Err() when it unwinds after a stop.
type Job func(ctx context.Context, feed *Feed) error

// Run is one in-progress or finished run. It owns its cancellation and
// its feed; nothing about it is process-global.
type Run struct {
	ID string

	feed          *Feed
	cancel        context.CancelFunc
	stopRequested atomic.Bool
	done          chan struct{}
}

// Events exposes the run's progress feed.
func (r *Run) Events() <-chan Event {
	return r.feed.Events()
}

// Outcome reports the final outcome once the run has finished.
func (r *Run) Outcome() (Outcome, bool) {
	return r.feed.Outcome()
}

// Wait blocks until the run has finished.
func (r *Run) Wait() {
	<-r.done
}

// Controller guards the one-active-run invariant. Start performs the
// idle-to-running transition; Stop flips the active run's cooperative
// cancel; Status and Feed only read controller state.
type Controller struct {
	feedBuffer int
	logger     *slog.Logger

	mu     sync.Mutex
	active *Run
	last   *Run
}

// NewController builds a controller. logger, when non-nil, receives a
// mirror of every feed event.
func NewController(feedBuffer int, logger *slog.Logger) *Controller {
	return &Controller{feedBuffer: feedBuffer, logger: logger}
}

// Start begins job on a new run. It fails with ErrAlreadyRunning when a
// run is active.
func (c *Controller) Start(job Job) (*Run, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		return nil, ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Run{
		ID:     uuid.NewString(),
		feed:   NewFeed(c.feedBuffer, c.logger),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	c.active = r
	c.last = r

	go c.execute(ctx, r, job)
	return r, nil
}

// Stop requests cooperative cancellation of the active run.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return ErrNotRunning
	}
	c.active.stopRequested.Store(true)
	c.active.feed.Warnf("stop requested, finishing current step")
	c.active.cancel()
	return nil
}

// Status reports whether a run is in progress, and its ID when so.
func (c *Controller) Status() (Status, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		return StatusRunning, c.active.ID
	}
	return StatusStopped, ""
}

// Current returns the active run, or the most recently finished one
// when idle. It is nil until the first start.
func (c *Controller) Current() *Run {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		return c.active
	}
	return c.last
}

func (c *Controller) execute(ctx context.Context, r *Run, job Job) {
	defer close(r.done)
	defer r.cancel()
	defer func() {
		c.mu.Lock()
		c.active = nil
		c.mu.Unlock()
	}()
	defer func() {
		if rec := recover(); rec != nil {
			r.feed.finish(OutcomeFailed, fmt.Sprintf("run panicked: %v\n%s", rec, debug.Stack()))
		}
	}()

	err := job(ctx, r.feed)
	switch {
	case r.stopRequested.Load() || errors.Is(err, context.Canceled):
		r.feed.finish(OutcomeStopped, "run stopped by request")
	case err != nil:
		r.feed.finish(OutcomeFailed, fmt.Sprintf("run failed: %v", err))
	default:
		r.feed.finish(OutcomeCompleted, "run completed successfully")
	}
}

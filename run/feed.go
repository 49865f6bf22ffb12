// Package run owns run lifecycle: a controller guarding the single
// active run, cooperative cancellation, and the structured event feed a
// control shell subscribes to.
package run

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Outcome is the terminal state of a run.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeStopped   Outcome = "stopped"
	OutcomeFailed    Outcome = "failed"
)

// Event is one record on a run's progress feed. The final event carries
// Final=true and the run outcome; the channel is closed right after it.
type Event struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Final   bool      `json:"final,omitempty"`
	Outcome Outcome   `json:"outcome,omitempty"`
}

// Feed is an ordered sequence of events produced by exactly one run and
// consumed by at most one reader. Publishing never blocks the run: when
// no reader keeps up, progress events are dropped. The last buffer slot
// is reserved for the final sentinel, so the sentinel always reaches
// the channel before it is closed.
type Feed struct {
	ch     chan Event
	logger *slog.Logger

	mu       sync.Mutex
	finished bool
	outcome  Outcome
	dropped  int
}

// NewFeed builds a feed with the given channel buffer. logger, when
// non-nil, receives a mirror of every event.
func NewFeed(buffer int, logger *slog.Logger) *Feed {
	if buffer < 2 {
		buffer = 2
	}
	return &Feed{
		ch:     make(chan Event, buffer),
		logger: logger,
	}
}

// Events exposes the feed to its reader. The channel is closed after
// the final event.
func (f *Feed) Events() <-chan Event {
	return f.ch
}

// Infof publishes an info-level event.
func (f *Feed) Infof(format string, args ...any) {
	f.publish("info", fmt.Sprintf(format, args...))
}

// Warnf publishes a warn-level event.
func (f *Feed) Warnf(format string, args ...any) {
	f.publish("warn", fmt.Sprintf(format, args...))
}

// Errorf publishes an error-level event.
func (f *Feed) Errorf(format string, args ...any) {
	f.publish("error", fmt.Sprintf(format, args...))
}

// Outcome returns the final outcome once the feed has finished.
func (f *Feed) Outcome() (Outcome, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outcome, f.finished
}

// Dropped reports how many events were discarded because the buffer was
// full.
func (f *Feed) Dropped() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dropped
}

func (f *Feed) publish(level, message string) {
	f.mirror(level, message)

	event := Event{Time: time.Now(), Level: level, Message: message}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.finished {
		return
	}
	// Leave one slot for the sentinel. The lock excludes other
	// writers, and the reader only ever shrinks len.
	if len(f.ch) >= cap(f.ch)-1 {
		f.dropped++
		return
	}
	f.ch <- event
}

// finish publishes the final sentinel event and closes the channel.
// Safe to call once; later calls are ignored so every exit path of a
// run may attempt it.
func (f *Feed) finish(outcome Outcome, message string) {
	f.mirror("info", message)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.finished {
		return
	}
	f.finished = true
	f.outcome = outcome

	event := Event{
		Time:    time.Now(),
		Level:   "info",
		Message: message,
		Final:   true,
		Outcome: outcome,
	}
	if outcome == OutcomeFailed {
		event.Level = "error"
	}
	f.ch <- event
	close(f.ch)
}

func (f *Feed) mirror(level, message string) {
	if f.logger == nil {
		return
	}
	switch level {
	case "error":
		f.logger.Error(message)
	case "warn":
		f.logger.Warn(message)
	default:
		f.logger.Info(message)
	}
}

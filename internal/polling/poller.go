// Package polling watches a task until it reaches a terminal status.
package polling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mediacraft/internal/logging"
	"mediacraft/internal/tasks"
)

// ErrTooManyFailures is returned when consecutive poll failures exceed the
// configured cap.
var ErrTooManyFailures = errors.New("status polling failed too many times in a row")

const defaultInterval = 2 * time.Second

// Client is the slice of the API client the poller needs.
type Client interface {
	TaskStatus(ctx context.Context, taskID string) (*tasks.Task, error)
}

// Options tune the polling loop.
type Options struct {
	// Interval between poll attempts. Defaults to two seconds. The interval
	// is fixed; there is no backoff, matching the cadence users see in the
	// web front-end.
	Interval time.Duration
	// MaxConsecutiveFailures aborts the wait after this many poll errors in
	// a row. Zero means keep trying until the context is cancelled.
	MaxConsecutiveFailures int
}

// Update receives every successful status snapshot, including the terminal
// one. It runs on the polling goroutine.
type Update func(task *tasks.Task)

// Poller repeatedly fetches a task's status on a fixed interval.
type Poller struct {
	client Client
	opts   Options
	logger *slog.Logger
}

// New builds a poller.
func New(client Client, opts Options, logger *slog.Logger) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	return &Poller{
		client: client,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "polling"),
	}
}

// Wait polls the task until it reaches a terminal status and returns the
// final snapshot. The first poll happens immediately; subsequent polls are
// spaced by the configured interval with at most one request in flight.
// Poll errors are logged and retried on the next tick; only the context
// ending or the consecutive-failure cap stops the loop early.
func (p *Poller) Wait(ctx context.Context, taskID string, onUpdate Update) (*tasks.Task, error) {
	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	failures := 0
	for {
		task, err := p.client.TaskStatus(ctx, taskID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failures++
			p.logger.Warn("status poll failed",
				logging.String(logging.FieldTaskID, taskID),
				logging.Int("consecutive_failures", failures),
				logging.Error(err),
			)
			if p.opts.MaxConsecutiveFailures > 0 && failures >= p.opts.MaxConsecutiveFailures {
				return nil, fmt.Errorf("%w: %d attempts, last error: %v", ErrTooManyFailures, failures, err)
			}
		default:
			failures = 0
			if onUpdate != nil {
				onUpdate(task)
			}
			if task.IsTerminal() {
				p.logger.Info("task reached terminal status",
					logging.String(logging.FieldTaskID, taskID),
					logging.String("status", string(task.Status)),
				)
				return task, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

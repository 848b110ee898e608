package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PollFunc performs one poll. Returning done=true or a non-nil error ends the task.
type PollFunc func(ctx context.Context) (done bool, err error)

// TaskConfig configures a repeating poll task.
type TaskConfig struct {
	Name     string
	Interval time.Duration
	Logger   *zap.Logger
}

// Task runs a PollFunc on a fixed interval until it reports completion, fails,
// or is cancelled. The next poll is scheduled only after the previous one returns.
type Task struct {
	name     string
	interval time.Duration
	logger   *zap.Logger
	fn       PollFunc

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	err       error
	polls     int
	cancelled bool
}

// Start launches a task bound to ctx. Cancelling ctx has the same effect as Cancel.
func Start(ctx context.Context, fn PollFunc, cfg TaskConfig) *Task {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Name == "" {
		cfg.Name = "poll"
	}

	t := &Task{
		name:     cfg.Name,
		interval: cfg.Interval,
		logger:   cfg.Logger,
		fn:       fn,
		done:     make(chan struct{}),
	}
	t.ctx, t.cancel = context.WithCancel(ctx)

	go t.run()
	t.logger.Sugar().Debugw("poll task started", "task", t.name, "interval", t.interval)
	return t
}

// Cancel stops the task. Safe to call more than once and after completion.
func (t *Task) Cancel() {
	if t == nil {
		return
	}
	t.mu.Lock()
	select {
	case <-t.done:
	default:
		t.cancelled = true
	}
	t.mu.Unlock()
	t.cancel()
}

// Done is closed once the loop has exited and its timer has been released.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task exits and returns the error that stopped it, if any.
func (t *Task) Wait() error {
	<-t.done
	return t.Err()
}

// Err returns the poll error that stopped the task. Cancellation is not an error.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Polls reports how many polls have completed.
func (t *Task) Polls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.polls
}

// Cancelled reports whether the task was stopped by Cancel or its parent context.
func (t *Task) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Running reports whether the loop is still active.
func (t *Task) Running() bool {
	if t == nil {
		return false
	}
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

func (t *Task) run() {
	timer := time.NewTimer(t.interval)
	defer func() {
		timer.Stop()
		t.cancel()
		close(t.done)
	}()

	for {
		select {
		case <-t.ctx.Done():
			t.markCancelled()
			t.logger.Sugar().Debugw("poll task cancelled", "task", t.name, "polls", t.Polls())
			return
		case <-timer.C:
			finished, err := t.fn(t.ctx)

			t.mu.Lock()
			t.polls++
			t.mu.Unlock()

			if t.ctx.Err() != nil {
				t.markCancelled()
				return
			}
			if err != nil {
				t.mu.Lock()
				t.err = err
				t.mu.Unlock()
				t.logger.Sugar().Warnw("poll task stopped on error", "task", t.name, "error", err)
				return
			}
			if finished {
				t.logger.Sugar().Debugw("poll task finished", "task", t.name, "polls", t.Polls())
				return
			}
			timer.Reset(t.interval)
		}
	}
}

func (t *Task) markCancelled() {
	t.mu.Lock()
	t.cancelled = true
	t.mu.Unlock()
}

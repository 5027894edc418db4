// Package worker runs a Task on a fixed interval until it is shut down.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/token-sale/pkg/logger"
	"github.com/gaze-network/token-sale/pkg/logger/slogx"
)

const (
	// DefaultInterval is used when a worker is created with a non-positive interval.
	DefaultInterval = 15 * time.Second

	shutdownTimeout = 180 * time.Second
)

// ErrAlreadyStarted is returned by Run on a worker that is running or was shut down.
var ErrAlreadyStarted = errors.New("worker already started or shut down")

// Task is one unit of periodic work.
type Task interface {
	Name() string

	// Run is called once per tick. An error is logged and the next tick retries.
	Run(ctx context.Context) error

	// Shutdown is called once after the last Run.
	Shutdown(ctx context.Context) error
}

type Worker struct {
	Task     Task
	interval time.Duration

	started  atomic.Bool
	quitOnce sync.Once
	quit     chan struct{}
	done     chan struct{}
}

func New(task Task, interval time.Duration) *Worker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Worker{
		Task:     task,
		interval: interval,

		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (w *Worker) Shutdown() error {
	return w.ShutdownWithContext(context.Background())
}

func (w *Worker) ShutdownWithTimeout(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return w.ShutdownWithContext(ctx)
}

// ShutdownWithContext signals Run to stop and waits for it to return.
// A worker that was never run only shuts its task down.
func (w *Worker) ShutdownWithContext(ctx context.Context) (err error) {
	w.quitOnce.Do(func() {
		close(w.quit)
		if w.started.CompareAndSwap(false, true) {
			close(w.done)
			err = w.shutdownTask(ctx)
			return
		}
		select {
		case <-w.done:
		case <-time.After(shutdownTimeout):
			err = errors.Newf("worker shutdown timeout after %s", shutdownTimeout)
		case <-ctx.Done():
			err = errors.Wrap(ctx.Err(), "worker shutdown context canceled")
		}
	})
	return
}

func (w *Worker) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.WithStack(ErrAlreadyStarted)
	}
	defer close(w.done)

	ctx = logger.WithContext(ctx,
		slog.String("package", "worker"),
		slog.String("task", w.Task.Name()),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-w.quit:
			logger.InfoContext(ctx, "Got quit signal, stopping worker")
			return w.shutdownTask(ctx)
		case <-ctx.Done():
			return w.shutdownTask(context.WithoutCancel(ctx))
		case <-ticker.C:
			startAt := time.Now()
			if err := w.Task.Run(ctx); err != nil {
				logger.ErrorContext(ctx, "Worker task failed, retrying on next tick", slogx.Error(err))
				continue
			}
			logger.DebugContext(ctx, "Worker task done", slogx.Duration("duration", time.Since(startAt)))
		}
	}
}

func (w *Worker) shutdownTask(ctx context.Context) error {
	if err := w.Task.Shutdown(ctx); err != nil {
		logger.ErrorContext(ctx, "Failed to shutdown task", slogx.Error(err))
		return errors.Wrap(err, "task shutdown failed")
	}
	return nil
}

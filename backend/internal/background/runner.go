// Package background runs fire-and-forget tasks. Callers never block on a task; its
// failure is logged, counted and published on the runner's error channel.
package background

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "jobgraph/backend/pkg/errors"
	"jobgraph/backend/pkg/logger"
)

// Observer is told the outcome of every task
type Observer interface {
	ObserveTask(task string, err error)
}

// Task is a unit of background work
type Task func(ctx context.Context) error

// Runner tracks in-flight tasks so shutdown can drain them
type Runner struct {
	wg       sync.WaitGroup
	errs     chan error
	observer Observer
	logger   *zap.Logger
}

// NewRunner creates a runner whose error channel buffers up to buffer failures.
// Failures beyond that are logged and dropped from the channel.
func NewRunner(buffer int, observer Observer) *Runner {
	return &Runner{
		errs:     make(chan error, buffer),
		observer: observer,
		logger:   logger.Named("background"),
	}
}

// Errors is the failure channel; every error is an *errors.ErrBackgroundTask
func (r *Runner) Errors() <-chan error {
	return r.errs
}

// Go starts task detached from ctx's cancellation; ctx values are kept
func (r *Runner) Go(ctx context.Context, name string, task Task) {
	detached := context.WithoutCancel(ctx)
	taskID := uuid.NewString()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		err := r.run(detached, task)
		if r.observer != nil {
			r.observer.ObserveTask(name, err)
		}
		if err == nil {
			r.logger.Debug("Background task completed", zap.String("task", name), zap.String("task_id", taskID))
			return
		}

		wrapped := apperrors.NewBackgroundTask(name, err)
		r.logger.Error("Background task failed",
			zap.String("task", name),
			zap.String("task_id", taskID),
			zap.Error(err),
		)
		select {
		case r.errs <- wrapped:
		default:
			r.logger.Warn("Background error channel full, dropping error", zap.String("task", name))
		}
	}()
}

func (r *Runner) run(ctx context.Context, task Task) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return task(ctx)
}

// Wait blocks until every started task has finished
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Shutdown waits for in-flight tasks or until ctx is done
func (r *Runner) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("background tasks still running: %w", ctx.Err())
	}
}

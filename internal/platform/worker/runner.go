// Package worker runs fire-and-forget background tasks that outlive the
// request that submitted them.
package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

// Task is a unit of background work. A returned error is logged and dropped.
type Task func(ctx context.Context) error

// Runner executes tasks on their own goroutines. Each task gets a context
// that keeps the submitter's values but not its cancellation, bounded by the
// runner timeout. Errors and panics are logged, never propagated.
type Runner struct {
	wg      conc.WaitGroup
	timeout time.Duration
	logger  zerolog.Logger
}

func NewRunner(timeout time.Duration, logger zerolog.Logger) *Runner {
	return &Runner{timeout: timeout, logger: logger}
}

// Go submits task without waiting for it.
func (r *Runner) Go(ctx context.Context, name string, task Task) {
	detached := context.WithoutCancel(ctx)

	r.wg.Go(func() {
		ctx, cancel := context.WithTimeout(detached, r.timeout)
		defer cancel()

		logger := r.taskLogger(ctx, name)

		start := time.Now()
		var err error
		var pc panics.Catcher
		pc.Try(func() { err = task(ctx) })

		if rec := pc.Recovered(); rec != nil {
			logger.Error().Str("panic", rec.String()).Msg("background task panicked")
			return
		}
		if err != nil {
			logger.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("background task failed")
			return
		}
		logger.Debug().Dur("elapsed", time.Since(start)).Msg("background task finished")
	})
}

// Wait blocks until every submitted task has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Shutdown waits for in-flight tasks or until ctx is done.
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
		return ctx.Err()
	}
}

// taskLogger prefers the logger carried by ctx, which holds the request id
// of the submitting request.
func (r *Runner) taskLogger(ctx context.Context, name string) zerolog.Logger {
	base := r.logger
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		base = *l
	}
	return base.With().Str("task", name).Logger()
}

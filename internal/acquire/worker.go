package acquire

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/Darthmonkey/tunefetcherai/internal/fetch"
	ioutils "github.com/Darthmonkey/tunefetcherai/internal/io"
	"github.com/Darthmonkey/tunefetcherai/internal/model"
)

// Observer receives every fetch attempt as it starts and ends.
type Observer func(req model.TrackRequest, attempt model.FetchAttempt)

// Options configures a Worker.
type Options struct {
	// MaxRetries is the total number of attempts per track. Values below
	// one are treated as one.
	MaxRetries int

	// RetryDelay is the fixed pause between attempts.
	RetryDelay time.Duration

	// FailFastPermanent stops retrying once an attempt fails with an
	// error fetch.IsPermanent recognizes.
	FailFastPermanent bool

	Observer Observer
	Logger   *slog.Logger
}

// Worker acquires one track at a time with bounded retries.
//
// A Worker holds no per-track state and can be shared by every goroutine
// of every batch.
type Worker struct {
	fetcher fetch.Fetcher
	opts    Options
}

// NewWorker creates a Worker around fetcher.
func NewWorker(fetcher fetch.Fetcher, opts Options) *Worker {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}
	return &Worker{fetcher: fetcher, opts: opts}
}

// MaxRetries returns the configured attempt budget.
func (w *Worker) MaxRetries() int {
	return w.opts.MaxRetries
}

// Acquire fetches req into dest and always returns a terminal outcome.
//
// Success returns as soon as one attempt leaves a non-empty file at dest.
// Otherwise the worker waits RetryDelay and tries again until MaxRetries
// attempts have failed or ctx is done. A failed outcome never leaves a
// file at dest.
func (w *Worker) Acquire(ctx context.Context, req model.TrackRequest, dest string) model.TrackOutcome {
	var lastErr error
	attempts := 0

	for attempt := 1; attempt <= w.opts.MaxRetries; attempt++ {
		attempts = attempt
		w.observe(req, model.FetchAttempt{Number: attempt, MaxAttempts: w.opts.MaxRetries, Outcome: model.AttemptPending})

		err := w.try(ctx, req.SourceLocator, dest)
		if err == nil {
			w.observe(req, model.FetchAttempt{Number: attempt, MaxAttempts: w.opts.MaxRetries, Outcome: model.AttemptSucceeded})
			return model.Succeeded(req, dest, attempt)
		}

		lastErr = err
		w.discard(dest)
		w.observe(req, model.FetchAttempt{
			Number:      attempt,
			MaxAttempts: w.opts.MaxRetries,
			Outcome:     model.AttemptFailed,
			ErrorDetail: err.Error(),
		})
		w.log().Debug("fetch attempt failed",
			"track_id", req.ID, "attempt", attempt, "max_attempts", w.opts.MaxRetries, "error", err)

		if ctx.Err() != nil {
			break
		}
		if w.opts.FailFastPermanent && fetch.IsPermanent(err) {
			break
		}
		if attempt < w.opts.MaxRetries && !w.wait(ctx) {
			break
		}
	}

	return model.Failed(req, lastErr.Error(), attempts)
}

// try runs one fetch into an existing parent directory, turning panics and missing output into errors.
func (w *Worker) try(ctx context.Context, locator, dest string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetch panicked: %v", r)
		}
	}()

	if err := ioutils.EnsureDir(filepath.Dir(dest)); err != nil {
		return fmt.Errorf("prepare destination: %w", err)
	}
	if err := w.fetcher.Fetch(ctx, locator, dest); err != nil {
		return err
	}
	if err := ioutils.NonEmptyFile(dest); err != nil {
		return fmt.Errorf("%w: %v", fetch.ErrNoOutput, err)
	}
	return nil
}

// discard removes whatever a failed attempt may have left behind.
func (w *Worker) discard(dest string) {
	for _, p := range []string{dest, ioutils.PartPath(dest)} {
		if err := ioutils.RemoveIfExists(p); err != nil {
			w.log().Warn("failed to remove partial file", "path", p, "error", err)
		}
	}
}

// wait pauses for RetryDelay. It returns false if ctx ended first.
func (w *Worker) wait(ctx context.Context) bool {
	if w.opts.RetryDelay == 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(w.opts.RetryDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (w *Worker) observe(req model.TrackRequest, a model.FetchAttempt) {
	if w.opts.Observer != nil {
		w.opts.Observer(req, a)
	}
}

func (w *Worker) log() *slog.Logger {
	if w.opts.Logger != nil {
		return w.opts.Logger
	}
	return slog.Default()
}

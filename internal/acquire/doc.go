// Package acquire implements the per-track acquisition worker.
//
// A Worker turns one TrackRequest into exactly one TrackOutcome. It calls
// the configured fetch.Fetcher up to MaxRetries times with a fixed delay
// between attempts and never returns an error or panics; failures are
// reported as data in the outcome.
//
//	w := acquire.NewWorker(fetcher, acquire.Options{
//	    MaxRetries: 3,
//	    RetryDelay: 5 * time.Second,
//	})
//	outcome := w.Acquire(ctx, req, "/ws/job/Album/Intro.mp3")
package acquire

package fetch

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limit returns a Fetcher that lets at most n fetches run at once across
// every caller sharing it. Waiting for a slot honors ctx. n < 1 means 1.
func Limit(f Fetcher, n int64) Fetcher {
	if n < 1 {
		n = 1
	}
	return &limited{next: f, sem: semaphore.NewWeighted(n)}
}

type limited struct {
	next Fetcher
	sem  *semaphore.Weighted
}

func (l *limited) Fetch(ctx context.Context, locator, dest string) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer l.sem.Release(1)

	return l.next.Fetch(ctx, locator, dest)
}

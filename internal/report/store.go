package report

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Darthmonkey/tunefetcherai/internal/download"
)

// ErrStoreClosed is returned by Put after Close.
var ErrStoreClosed = errors.New("archive store is closed")

// ArchiveStore holds completed batches until their archive is retrieved.
//
// Each archive is registered under a random reference and can be taken
// exactly once. Whoever takes an entry owns its workspace and must
// release it. Archives never retrieved are released by Close.
type ArchiveStore struct {
	mu      sync.Mutex
	entries map[string]*download.BatchResult
	closed  bool
	logger  *slog.Logger
}

// NewArchiveStore creates an empty store.
func NewArchiveStore(logger *slog.Logger) *ArchiveStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArchiveStore{
		entries: make(map[string]*download.BatchResult),
		logger:  logger,
	}
}

// Put registers a completed batch and returns its reference.
func (s *ArchiveStore) Put(result *download.BatchResult) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrStoreClosed
	}
	ref := uuid.NewString()
	s.entries[ref] = result
	return ref, nil
}

// Take removes and returns the batch registered under ref.
func (s *ArchiveStore) Take(ref string) (*download.BatchResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, ok := s.entries[ref]
	if ok {
		delete(s.entries, ref)
	}
	return result, ok
}

// Peek returns the batch registered under ref without removing it.
func (s *ArchiveStore) Peek(ref string) (*download.BatchResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, ok := s.entries[ref]
	return result, ok
}

// Len returns the number of archives waiting for retrieval.
func (s *ArchiveStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close releases every archive still in the store. Later Puts fail.
func (s *ArchiveStore) Close() error {
	s.mu.Lock()
	pending := s.entries
	s.entries = make(map[string]*download.BatchResult)
	s.closed = true
	s.mu.Unlock()

	var errs []error
	for ref, result := range pending {
		if err := result.Release(); err != nil {
			s.logger.Warn("failed to release unretrieved archive", "ref", ref, "job_id", result.JobID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

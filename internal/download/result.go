package download

import (
	"sync"

	"github.com/Darthmonkey/tunefetcherai/internal/model"
)

// BatchStatus is the overall result of a batch.
type BatchStatus int

const (
	// StatusCompleted means at least one track succeeded and the archive
	// was written.
	StatusCompleted BatchStatus = iota

	// StatusAllFailed means no track succeeded; nothing was assembled.
	StatusAllFailed

	// StatusAssemblyFailed means tracks succeeded but the archive could
	// not be written.
	StatusAssemblyFailed
)

func (s BatchStatus) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusAllFailed:
		return "all_failed"
	case StatusAssemblyFailed:
		return "assembly_failed"
	default:
		return "unknown"
	}
}

// BatchResult is what RunBatch hands back once every track has a terminal
// outcome.
//
// For StatusCompleted the caller owns the job workspace, which holds the
// archive, and must call Release once the archive has been delivered. For
// the other statuses the workspace is already gone and Release is a no-op.
type BatchResult struct {
	JobID       string
	Status      BatchStatus
	GroupLabel  string
	ArchivePath string

	// Outcomes has one entry per request, in request order.
	Outcomes  []model.TrackOutcome
	Successes []model.TrackOutcome
	Failures  []model.TrackOutcome

	// Err is the *archive.AssemblyError for StatusAssemblyFailed.
	Err error

	once    sync.Once
	release func() error
	relErr  error
}

// Release frees the job workspace. It is safe to call more than once and
// from several goroutines; only the first call does any work.
func (r *BatchResult) Release() error {
	if r == nil {
		return nil
	}
	r.once.Do(func() {
		if r.release != nil {
			r.relErr = r.release()
		}
	})
	return r.relErr
}

// SingleResult is the outcome of FetchSingle.
//
// On success FilePath names the fetched file and FileName is the name the
// caller should present for it; Release must be called once the file has
// been streamed.
type SingleResult struct {
	Outcome  model.TrackOutcome
	FilePath string
	FileName string

	once    sync.Once
	release func() error
	relErr  error
}

// OK reports whether the track was fetched.
func (r *SingleResult) OK() bool {
	return r != nil && r.Outcome.OK()
}

// Release frees the workspace holding the file. Idempotent.
func (r *SingleResult) Release() error {
	if r == nil {
		return nil
	}
	r.once.Do(func() {
		if r.release != nil {
			r.relErr = r.release()
		}
	})
	return r.relErr
}

package model

import (
	"time"
)

// BatchJob is the state of one batch from arrival until its result has
// been handed to the caller.
//
// WorkspacePath is owned exclusively by the job. Outcomes holds one entry
// per request once every worker has finished; ArchivePath is set only when
// assembly succeeded.
type BatchJob struct {
	ID            string
	WorkspacePath string
	Requests      []TrackRequest
	Outcomes      []TrackOutcome
	ArchivePath   string
	CreatedAt     time.Time
}

// NewBatchJob creates a job for the given requests.
func NewBatchJob(id string, requests []TrackRequest) *BatchJob {
	return &BatchJob{
		ID:        id,
		Requests:  requests,
		CreatedAt: time.Now(),
	}
}

// Complete reports whether every request has a terminal outcome.
func (j *BatchJob) Complete() bool {
	return len(j.Outcomes) == len(j.Requests)
}

// GroupLabel returns the label shared by the job's requests, or the first
// non-empty one when they differ.
func (j *BatchJob) GroupLabel() string {
	for _, r := range j.Requests {
		if r.GroupLabel != "" {
			return r.GroupLabel
		}
	}
	return ""
}

// ValidateBatch rejects batches that must not allocate any resources:
// an empty request list, requests missing required fields, and duplicate
// ids.
func ValidateBatch(requests []TrackRequest) error {
	if len(requests) == 0 {
		return ErrEmptyBatch
	}
	seen := make(map[string]struct{}, len(requests))
	for _, r := range requests {
		if err := r.Validate(); err != nil {
			return err
		}
		if r.ID == "" {
			continue
		}
		if _, dup := seen[r.ID]; dup {
			return &ValidationError{Field: "id", TrackID: r.ID, Reason: "duplicate track id"}
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}

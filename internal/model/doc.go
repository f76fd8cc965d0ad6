// Package model defines the core data structures shared by the
// acquisition pipeline.
//
// # Requests and outcomes
//
// TrackRequest describes one track to fetch. Every request produces
// exactly one TrackOutcome:
//
//	ok := model.Succeeded(req, "/work/jobs/42/Album/Intro.mp3", 1)
//	bad := model.Failed(req, "HTTP 503", 3)
//	successes, failures := model.Partition([]model.TrackOutcome{ok, bad})
//
// # Batches
//
// BatchJob ties requests, outcomes and the job workspace together.
// ValidateBatch rejects batches before any storage is allocated:
//
//	if err := model.ValidateBatch(reqs); errors.Is(err, model.ErrValidation) {
//	    // 400 Bad Request
//	}
//
// # Paths
//
// PathAllocator derives one private destination per request:
//
//	alloc := model.NewPathAllocator(workspace, "mp3")
//	dest := alloc.Allocate(req) // <workspace>/<group>/<name>.mp3
package model

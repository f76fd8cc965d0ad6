package model

import (
	"encoding/json"
	"fmt"
)

// Status is the terminal state of one track.
type Status int

const (
	// StatusSuccess means the track file exists at LocalFilePath.
	StatusSuccess Status = iota

	// StatusFailed means every attempt failed; ErrorDetail says why.
	StatusFailed
)

// String returns "success" or "failed".
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// MarshalJSON encodes the status as its string form.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// TrackOutcome is the terminal result for one TrackRequest.
//
// Exactly one outcome is produced per request, by its acquisition worker,
// once a fetch succeeds or the retry budget is exhausted. LocalFilePath is
// set only for StatusSuccess and ErrorDetail only for StatusFailed; use
// Succeeded and Failed to build outcomes so the two stay exclusive.
type TrackOutcome struct {
	TrackID       string `json:"id"`
	DisplayName   string `json:"displayName"`
	GroupLabel    string `json:"groupLabel,omitempty"`
	Status        Status `json:"status"`
	LocalFilePath string `json:"-"`
	ErrorDetail   string `json:"error,omitempty"`
	Attempts      int    `json:"attempts"`
}

// Succeeded builds a success outcome for req.
func Succeeded(req TrackRequest, path string, attempts int) TrackOutcome {
	return TrackOutcome{
		TrackID:       req.ID,
		DisplayName:   req.DisplayName,
		GroupLabel:    req.GroupLabel,
		Status:        StatusSuccess,
		LocalFilePath: path,
		Attempts:      attempts,
	}
}

// Failed builds a failure outcome for req.
func Failed(req TrackRequest, detail string, attempts int) TrackOutcome {
	if detail == "" {
		detail = "unknown error"
	}
	return TrackOutcome{
		TrackID:     req.ID,
		DisplayName: req.DisplayName,
		GroupLabel:  req.GroupLabel,
		Status:      StatusFailed,
		ErrorDetail: detail,
		Attempts:    attempts,
	}
}

// OK reports whether the outcome is a success.
func (o TrackOutcome) OK() bool {
	return o.Status == StatusSuccess
}

// AttemptOutcome is the state of one fetch attempt.
type AttemptOutcome int

const (
	AttemptPending AttemptOutcome = iota
	AttemptSucceeded
	AttemptFailed
)

func (a AttemptOutcome) String() string {
	switch a {
	case AttemptPending:
		return "pending"
	case AttemptSucceeded:
		return "succeeded"
	case AttemptFailed:
		return "failed"
	default:
		return fmt.Sprintf("AttemptOutcome(%d)", int(a))
	}
}

// FetchAttempt records one try of the external fetch. It lives only as
// long as the worker that produced it.
type FetchAttempt struct {
	Number      int
	MaxAttempts int
	Outcome     AttemptOutcome
	ErrorDetail string
}

// Partition splits outcomes into successes and failures, keeping order.
func Partition(outcomes []TrackOutcome) (successes, failures []TrackOutcome) {
	for _, o := range outcomes {
		if o.OK() {
			successes = append(successes, o)
		} else {
			failures = append(failures, o)
		}
	}
	return successes, failures
}

// Package report converts batch and single-track results into the
// answers handed to HTTP callers.
//
// Completed archives are parked in an ArchiveStore under a random
// reference. The first retrieval streams the zip and frees the job
// workspace; later retrievals get 404. Close releases whatever was never
// collected.
package report

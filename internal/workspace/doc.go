// Package workspace manages per-job scratch directories.
//
// A workspace is allocated when a batch passes validation and released
// exactly once, either by the orchestrator on failure paths or by the
// reporter after the finished archive has been handed to the caller.
//
//	ws, _ := workspace.NewManager("/var/lib/tunefetch")
//	dir, err := ws.Allocate(jobID)
//	defer ws.Release(dir)
package workspace

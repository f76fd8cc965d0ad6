// Package download orchestrates batch and single-track acquisitions.
//
// The Manager validates a batch, allocates its workspace, runs one
// acquisition worker per track with bounded concurrency, waits for all of
// them, and packages whatever succeeded into a zip archive.
//
// # Basic Usage
//
//	mgr, err := download.NewManager(settings, download.Deps{
//	    Logger: logger,
//	    OnProgress: func(e download.ProgressEvent) {
//	        fmt.Println(e.Message)
//	    },
//	})
//
//	result, err := mgr.RunBatch(ctx, requests)
//	if err != nil {
//	    // validation or workspace allocation failed
//	}
//	defer result.Release()
//
//	switch result.Status {
//	case download.StatusCompleted:
//	    // result.ArchivePath holds the zip; result.Failures lists the rest
//	case download.StatusAllFailed:
//	    // nothing to deliver
//	case download.StatusAssemblyFailed:
//	    // result.Err is an *archive.AssemblyError
//	}
//
// # Concurrency
//
//   - MaxConcurrentTracks: workers running per batch
//   - MaxConcurrentFetches: external fetches running across all batches
//
// A failing track never cancels the others.
package download

// Package server exposes the download manager over HTTP.
//
// Routes:
//
//	POST /api/download              fetch one track, stream the audio file
//	POST /api/download-batch        fetch many tracks into one archive
//	GET  /api/archive/{ref}         retrieve an archive once
//	GET  /api/search?q=             resolve a query to a source locator
//	GET  /api/musicbrainz-search    look up a release's track list
//	GET  /healthz                   liveness
//	GET  /metrics                   Prometheus metrics
package server

package report

import (
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Darthmonkey/tunefetcherai/internal/download"
	"github.com/Darthmonkey/tunefetcherai/internal/model"
)

// DefaultArchiveName is used when a batch has no group label.
const DefaultArchiveName = "tracks"

// FailedTrack describes one track that could not be fetched.
type FailedTrack struct {
	DisplayName string `json:"displayName"`
	ID          string `json:"id"`
	Reason      string `json:"reason"`
}

// BatchPayload is the JSON answer to a batch request.
type BatchPayload struct {
	Success          bool          `json:"success"`
	JobID            string        `json:"jobId,omitempty"`
	Succeeded        int           `json:"succeeded"`
	FailedTracks     []FailedTrack `json:"failedTracks"`
	ArchiveReference string        `json:"archiveReference,omitempty"`
	Error            string        `json:"error,omitempty"`
}

// StatusCode returns the HTTP status matching the payload's result.
func (p BatchPayload) StatusCode() int {
	switch {
	case p.Success:
		return http.StatusOK
	case p.Error != "" && p.Succeeded > 0:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

// Reporter turns orchestrator results into caller-facing answers.
type Reporter struct {
	store  *ArchiveStore
	logger *slog.Logger
}

// NewReporter creates a reporter that registers archives in store.
func NewReporter(store *ArchiveStore, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{store: store, logger: logger}
}

// Store returns the archive store.
func (r *Reporter) Store() *ArchiveStore {
	return r.store
}

// Batch converts result into a payload. A completed archive is
// registered in the store; if that fails the workspace is released and
// the payload reports the error.
func (r *Reporter) Batch(result *download.BatchResult) BatchPayload {
	payload := BatchPayload{
		JobID:        result.JobID,
		Succeeded:    len(result.Successes),
		FailedTracks: failedTracks(result.Failures),
	}

	switch result.Status {
	case download.StatusCompleted:
		ref, err := r.store.Put(result)
		if err != nil {
			r.releaseQuietly(result)
			payload.Error = err.Error()
			return payload
		}
		payload.Success = true
		payload.ArchiveReference = ref
	case download.StatusAssemblyFailed:
		payload.Error = "failed to assemble archive"
		if result.Err != nil {
			payload.Error = result.Err.Error()
		}
	default:
		payload.Error = "all tracks failed to download"
	}
	return payload
}

func failedTracks(failures []model.TrackOutcome) []FailedTrack {
	out := make([]FailedTrack, 0, len(failures))
	for _, f := range failures {
		out = append(out, FailedTrack{DisplayName: f.DisplayName, ID: f.TrackID, Reason: f.ErrorDetail})
	}
	return out
}

// ServeArchive streams the archive registered under ref and releases its
// workspace afterwards. Unknown or already retrieved references get 404.
// HEAD requests describe the archive without consuming the reference.
func (r *Reporter) ServeArchive(w http.ResponseWriter, req *http.Request, ref string) {
	var (
		result *download.BatchResult
		ok     bool
	)
	if req.Method == http.MethodHead {
		result, ok = r.store.Peek(ref)
	} else {
		result, ok = r.store.Take(ref)
	}
	if !ok {
		http.Error(w, "archive not found", http.StatusNotFound)
		return
	}
	if req.Method != http.MethodHead {
		defer r.releaseQuietly(result)
	}

	name := result.GroupLabel
	if name == "" {
		name = DefaultArchiveName
	}
	r.serveFile(w, req, result.ArchivePath, model.SanitizeFileName(name)+".zip", "application/zip")
}

// ServeTrack streams a single fetched track and releases its workspace.
func (r *Reporter) ServeTrack(w http.ResponseWriter, req *http.Request, single *download.SingleResult) {
	defer r.releaseQuietly(single)

	ctype := mime.TypeByExtension(filepath.Ext(single.FileName))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	r.serveFile(w, req, single.FilePath, single.FileName, ctype)
}

func (r *Reporter) serveFile(w http.ResponseWriter, req *http.Request, path, name, ctype string) {
	f, err := os.Open(path)
	if err != nil {
		r.logger.Error("failed to open result file", "path", path, "error", err)
		http.Error(w, "failed to send file", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	if info, err := f.Stat(); err == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	}
	w.WriteHeader(http.StatusOK)

	if req.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, f); err != nil {
		r.logger.Warn("client aborted file transfer", "file", name, "error", err)
	}
}

type releaser interface {
	Release() error
}

func (r *Reporter) releaseQuietly(rel releaser) {
	if err := rel.Release(); err != nil {
		r.logger.Warn("failed to release workspace", "error", err)
	}
}

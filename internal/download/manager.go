package download

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Darthmonkey/tunefetcherai/internal/acquire"
	"github.com/Darthmonkey/tunefetcherai/internal/archive"
	"github.com/Darthmonkey/tunefetcherai/internal/audio"
	"github.com/Darthmonkey/tunefetcherai/internal/config"
	"github.com/Darthmonkey/tunefetcherai/internal/fetch"
	"github.com/Darthmonkey/tunefetcherai/internal/http"
	ioutils "github.com/Darthmonkey/tunefetcherai/internal/io"
	"github.com/Darthmonkey/tunefetcherai/internal/logger"
	"github.com/Darthmonkey/tunefetcherai/internal/metrics"
	"github.com/Darthmonkey/tunefetcherai/internal/model"
	"github.com/Darthmonkey/tunefetcherai/internal/workspace"
)

// Deps are the collaborators a Manager needs. Zero values get defaults
// built from the settings.
type Deps struct {
	// Fetcher performs the external fetch. Defaults to a Router over the
	// HTTP client and the configured extractor command.
	Fetcher fetch.Fetcher

	Workspaces *workspace.Manager
	HTTPClient *http.Client
	Metrics    *metrics.Collector
	Logger     *slog.Logger

	// OnProgress receives user-facing progress events. It is called from
	// worker goroutines and may be nil.
	OnProgress func(ProgressEvent)
}

// Manager coordinates batch and single-track acquisitions.
//
// A Manager is safe for concurrent use; every RunBatch call gets its own
// job id and workspace while sharing the worker and the global fetch gate.
type Manager struct {
	settings     *config.Settings
	workspaces   *workspace.Manager
	worker       *acquire.Worker
	assembler    *archive.Assembler
	tagger       *audio.Tagger
	playlist     *audio.PlaylistCreator
	httpClient   *http.Client
	imageService *ioutils.ImageService
	metrics      *metrics.Collector
	logger       *slog.Logger
	onProgress   func(ProgressEvent)

	activeBatches   int32
	totalTracks     int32
	finishedTracks  int32
	succeededTracks int32
	failedTracks    int32
}

// NewManager creates a new download Manager. Settings that fail
// Validate are rejected.
func NewManager(settings *config.Settings, deps Deps) (*Manager, error) {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	compression, err := archive.ParseCompression(settings.ArchiveCompression)
	if err != nil {
		return nil, err
	}

	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	client := deps.HTTPClient
	if client == nil {
		client = http.NewClient(http.WithUserAgent(settings.UserAgent))
	}

	ws := deps.Workspaces
	if ws == nil {
		ws, err = workspace.NewManager(settings.WorkspaceRoot)
		if err != nil {
			return nil, err
		}
	}

	fetcher := deps.Fetcher
	if fetcher == nil {
		fetcher = &fetch.Router{
			Direct:    fetch.NewHTTPFetcher(client),
			Extractor: fetch.NewCommandFetcher(settings.FetchCommand, settings.AudioFormat, settings.FetchArgs, log),
		}
	}
	fetcher = fetch.Limit(fetcher, int64(settings.MaxConcurrentFetches))

	m := &Manager{
		settings:     settings,
		workspaces:   ws,
		assembler:    archive.NewAssembler(compression, settings.ArchiveCompressionLevel, log),
		tagger:       audio.NewTagger(audio.DefaultTagConfig()),
		playlist:     audio.NewPlaylistCreator(audio.ParsePlaylistFormat(settings.PlaylistFormat), settings.M3UExtended),
		httpClient:   client,
		imageService: ioutils.NewImageService(),
		metrics:      deps.Metrics,
		logger:       log,
		onProgress:   deps.OnProgress,
	}
	m.worker = acquire.NewWorker(fetcher, acquire.Options{
		MaxRetries:        settings.MaxRetries,
		RetryDelay:        settings.RetryDelay(),
		FailFastPermanent: settings.FailFastPermanent,
		Observer:          m.observeAttempt,
		Logger:            log,
	})

	return m, nil
}

// Workspaces returns the workspace manager the Manager allocates from.
func (m *Manager) Workspaces() *workspace.Manager {
	return m.workspaces
}

// GetProgress returns live counters across every running batch.
func (m *Manager) GetProgress() (finished, total, failed int32) {
	return atomic.LoadInt32(&m.finishedTracks), atomic.LoadInt32(&m.totalTracks), atomic.LoadInt32(&m.failedTracks)
}

// ActiveBatches returns the number of batches currently running.
func (m *Manager) ActiveBatches() int32 {
	return atomic.LoadInt32(&m.activeBatches)
}

// RunBatch acquires every request concurrently and packages the
// successes into one archive.
//
// Validation failures return a *model.ValidationError before any
// workspace is allocated. Otherwise a result is always returned once every
// request has a terminal outcome; per-track failures are data, never
// errors. The returned error is non-nil only when the batch could not
// start (validation or workspace allocation).
func (m *Manager) RunBatch(ctx context.Context, requests []model.TrackRequest) (*BatchResult, error) {
	start := time.Now()
	if err := model.ValidateBatch(requests); err != nil {
		m.metrics.RecordBatch("invalid", time.Since(start))
		return nil, err
	}

	job := model.NewBatchJob(uuid.NewString(), withIDs(requests))
	ctx = logger.WithJobID(ctx, job.ID)
	log := logger.FromContext(ctx, m.logger)

	wsPath, err := m.allocate(job.ID)
	if err != nil {
		return nil, err
	}
	job.WorkspacePath = wsPath

	handedOff := false
	defer func() {
		if !handedOff {
			m.release(log, wsPath)
		}
	}()

	atomic.AddInt32(&m.activeBatches, 1)
	defer atomic.AddInt32(&m.activeBatches, -1)

	log.Info("batch started", "tracks", len(requests), "workspace", wsPath)
	m.progress(ProgressEvent{Message: fmt.Sprintf("Starting batch of %d tracks", len(requests)), Level: LevelInfo, JobID: job.ID})

	// The batch timeout bounds fetching only; tracks that made it still
	// get assembled.
	fetchCtx := ctx
	if timeout := m.settings.BatchTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	job.Outcomes = m.acquireAll(fetchCtx, job.ID, job.Requests, m.destinations(wsPath, job.Requests))
	successes, failures := model.Partition(job.Outcomes)

	result := &BatchResult{
		JobID:      job.ID,
		GroupLabel: job.GroupLabel(),
		Outcomes:   job.Outcomes,
		Successes:  successes,
		Failures:   failures,
	}

	if len(successes) == 0 {
		result.Status = StatusAllFailed
		log.Warn("batch failed: no track could be fetched", "failed", len(failures))
		m.progress(ProgressEvent{Message: "All tracks failed", Level: LevelError, JobID: job.ID})
		m.metrics.RecordBatch(result.Status.String(), time.Since(start))
		return result, nil
	}

	if m.settings.ModifyTags {
		m.tagAll(ctx, log, job)
	}

	archivePath := filepath.Join(wsPath, job.ID+".zip")
	asmStart := time.Now()
	if _, err := m.assembler.Assemble(ctx, archivePath, m.entries(successes)); err != nil {
		result.Status = StatusAssemblyFailed
		result.Err = err
		log.Error("archive assembly failed", "error", err)
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error creating archive: %v", err), Level: LevelError, JobID: job.ID})
		m.metrics.RecordBatch(result.Status.String(), time.Since(start))
		return result, nil
	}

	var size int64
	if info, err := os.Stat(archivePath); err == nil {
		size = info.Size()
	}
	m.metrics.RecordAssembly(time.Since(asmStart), size)

	job.ArchivePath = archivePath
	result.Status = StatusCompleted
	result.ArchivePath = archivePath
	result.release = func() error { return m.release(log, wsPath) }
	handedOff = true

	log.Info("batch completed", "succeeded", len(successes), "failed", len(failures), "archive_bytes", size)
	if len(failures) == 0 {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Successfully fetched all %d tracks", len(successes)), Level: LevelSuccess, JobID: job.ID})
	} else {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Finished batch, %d of %d tracks failed", len(failures), len(requests)), Level: LevelWarning, JobID: job.ID})
	}
	m.metrics.RecordBatch(result.Status.String(), time.Since(start))
	return result, nil
}

// FetchSingle acquires one track without building an archive.
//
// A failed fetch returns a result whose Outcome carries the reason; its
// workspace is already released. On success the caller streams FilePath
// and then calls Release.
func (m *Manager) FetchSingle(ctx context.Context, req model.TrackRequest) (*SingleResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	jobID := uuid.NewString()
	ctx = logger.WithJobID(ctx, jobID)
	log := logger.FromContext(ctx, m.logger)

	wsPath, err := m.allocate(jobID)
	if err != nil {
		return nil, err
	}
	handedOff := false
	defer func() {
		if !handedOff {
			m.release(log, wsPath)
		}
	}()

	dest := model.NewPathAllocator(wsPath, m.settings.AudioFormat).Allocate(req)
	outcome := m.acquireOne(ctx, jobID, req, dest)
	result := &SingleResult{Outcome: outcome}
	if !outcome.OK() {
		log.Warn("single track failed", "track", req.DisplayName, "error", outcome.ErrorDetail)
		return result, nil
	}

	if m.settings.ModifyTags && audio.Supports(dest) {
		artwork := m.artwork(ctx, log, map[string][]byte{}, req)
		if err := m.tagger.SaveTags(dest, audio.InfoFor(req), artwork); err != nil {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Error tagging %s: %v", req.DisplayName, err), Level: LevelWarning, JobID: jobID, TrackID: req.ID})
		}
	}

	result.FilePath = dest
	result.FileName = filepath.Base(dest)
	result.release = func() error { return m.release(log, wsPath) }
	handedOff = true
	return result, nil
}

// withIDs returns a copy of requests where every request has an id.
func withIDs(requests []model.TrackRequest) []model.TrackRequest {
	out := make([]model.TrackRequest, len(requests))
	copy(out, requests)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = uuid.NewString()
		}
	}
	return out
}

// destinations derives every request's private path before any worker
// starts.
func (m *Manager) destinations(wsPath string, requests []model.TrackRequest) []string {
	alloc := model.NewPathAllocator(wsPath, m.settings.AudioFormat)
	paths := make([]string, len(requests))
	for i, req := range requests {
		paths[i] = alloc.Allocate(req)
	}
	return paths
}

// acquireAll runs one worker per request and waits for all of them. A
// failing track never cancels its siblings.
func (m *Manager) acquireAll(ctx context.Context, jobID string, requests []model.TrackRequest, paths []string) []model.TrackOutcome {
	outcomes := make([]model.TrackOutcome, len(requests))
	atomic.AddInt32(&m.totalTracks, int32(len(requests)))

	var g errgroup.Group
	g.SetLimit(m.settings.MaxConcurrentTracks)

	for i, req := range requests {
		g.Go(func() error {
			outcomes[i] = m.acquireOne(ctx, jobID, req, paths[i])
			return nil // Continue with other tracks
		})
	}
	_ = g.Wait()

	return outcomes
}

func (m *Manager) acquireOne(ctx context.Context, jobID string, req model.TrackRequest, dest string) (outcome model.TrackOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = model.Failed(req, fmt.Sprintf("worker panicked: %v", r), 0)
			m.finish(jobID, outcome)
		}
	}()

	outcome = m.worker.Acquire(ctx, req, dest)
	m.finish(jobID, outcome)
	return outcome
}

func (m *Manager) finish(jobID string, o model.TrackOutcome) {
	atomic.AddInt32(&m.finishedTracks, 1)
	if o.OK() {
		atomic.AddInt32(&m.succeededTracks, 1)
		m.progress(ProgressEvent{Message: fmt.Sprintf("Fetched: %s", o.DisplayName), Level: LevelVerbose, JobID: jobID, TrackID: o.TrackID})
	} else {
		atomic.AddInt32(&m.failedTracks, 1)
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error fetching %s: %s", o.DisplayName, o.ErrorDetail), Level: LevelError, JobID: jobID, TrackID: o.TrackID})
	}
	m.metrics.RecordTrack(o.Status.String())
}

func (m *Manager) observeAttempt(req model.TrackRequest, a model.FetchAttempt) {
	switch a.Outcome {
	case model.AttemptSucceeded:
		m.metrics.RecordFetchAttempt(true)
	case model.AttemptFailed:
		m.metrics.RecordFetchAttempt(false)
		if a.Number < a.MaxAttempts {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Retry %d/%d for %s", a.Number, a.MaxAttempts, req.DisplayName), Level: LevelWarning, TrackID: req.ID})
		}
	case model.AttemptPending:
		m.progress(ProgressEvent{Message: fmt.Sprintf("Attempt %d/%d: %s", a.Number, a.MaxAttempts, req.DisplayName), Level: LevelVerbose, TrackID: req.ID})
	}
}

// tagAll writes ID3 tags to every successful MP3. Tagging problems are
// warnings and never fail a track.
func (m *Manager) tagAll(ctx context.Context, log *slog.Logger, job *model.BatchJob) {
	covers := make(map[string][]byte)
	for i, o := range job.Outcomes {
		if !o.OK() || !audio.Supports(o.LocalFilePath) {
			continue
		}
		req := job.Requests[i]
		if err := m.tagger.SaveTags(o.LocalFilePath, audio.InfoFor(req), m.artwork(ctx, log, covers, req)); err != nil {
			log.Warn("failed to tag track", "track", o.DisplayName, "error", err)
			m.progress(ProgressEvent{Message: fmt.Sprintf("Error tagging %s: %v", o.DisplayName, err), Level: LevelWarning, JobID: job.ID, TrackID: o.TrackID})
		}
	}
}

// artwork returns the prepared cover for req, downloading each URL once.
func (m *Manager) artwork(ctx context.Context, log *slog.Logger, cache map[string][]byte, req model.TrackRequest) []byte {
	if !m.settings.SaveCoverArtInTags || !req.HasArtwork() {
		return nil
	}
	if art, ok := cache[req.ArtworkURL]; ok {
		return art
	}

	art, err := m.httpClient.Get(ctx, req.ArtworkURL)
	if err == nil {
		maxSize := 0
		if m.settings.CoverArtInTagsResize {
			maxSize = m.settings.CoverArtMaxSize
		}
		art, err = m.imageService.Fit(ctx, art, maxSize)
	}
	if err != nil {
		log.Warn("failed to prepare artwork", "url", req.ArtworkURL, "error", err)
		art = nil
	}
	cache[req.ArtworkURL] = art
	return art
}

// entries lays out successful tracks by group, plus one playlist per
// group when enabled.
func (m *Manager) entries(successes []model.TrackOutcome) []archive.Entry {
	entries := make([]archive.Entry, 0, len(successes)+1)
	groups := make(map[string][]audio.PlaylistItem)
	var order []string

	for _, o := range successes {
		name := filepath.Base(o.LocalFilePath)
		entries = append(entries, archive.Entry{
			LocalPath:  o.LocalFilePath,
			GroupLabel: o.GroupLabel,
			EntryName:  name,
		})

		dir := model.GroupDir(o.GroupLabel)
		if _, seen := groups[dir]; !seen {
			order = append(order, dir)
		}
		groups[dir] = append(groups[dir], audio.PlaylistItem{FileName: name, Title: o.DisplayName})
	}

	if !m.settings.CreatePlaylist {
		return entries
	}

	ext := m.playlist.Format().Extension()
	for _, dir := range order {
		content := m.playlist.CreatePlaylist(dir, groups[dir])
		entries = append(entries, archive.Entry{
			GroupLabel: dir,
			EntryName:  dir + "." + ext,
			Data:       []byte(content),
		})
	}
	return entries
}

func (m *Manager) allocate(jobID string) (string, error) {
	path, err := m.workspaces.Allocate(jobID)
	if err != nil {
		return "", fmt.Errorf("allocate workspace: %w", err)
	}
	m.metrics.SetActiveWorkspaces(m.workspaces.Active())
	return path, nil
}

// release frees a workspace. Errors are logged and returned, never fatal.
func (m *Manager) release(log *slog.Logger, path string) error {
	err := m.workspaces.Release(path)
	if err != nil {
		log.Error("failed to release workspace", "workspace", path, "error", err)
	}
	m.metrics.SetActiveWorkspaces(m.workspaces.Active())
	return err
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}

// Summary formats a one-line description of a batch result.
func Summary(r *BatchResult) string {
	if r == nil {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d succeeded, %d failed", r.Status, len(r.Successes), len(r.Failures))
	if r.Err != nil {
		fmt.Fprintf(&sb, " (%v)", r.Err)
	}
	return sb.String()
}

package report

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Darthmonkey/tunefetcherai/internal/config"
	"github.com/Darthmonkey/tunefetcherai/internal/download"
	"github.com/Darthmonkey/tunefetcherai/internal/fetch"
	"github.com/Darthmonkey/tunefetcherai/internal/logger"
	"github.com/Darthmonkey/tunefetcherai/internal/model"
)

// okUnless writes a file for every locator except those in failing.
func okUnless(failing ...string) fetch.FetcherFunc {
	bad := make(map[string]bool)
	for _, l := range failing {
		bad[l] = true
	}
	return func(ctx context.Context, locator, dest string) error {
		if bad[locator] {
			return errors.New("extractor exited with status 1")
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return err
		}
		return os.WriteFile(dest, []byte("audio:"+locator), 0644)
	}
}

func newManager(t *testing.T, f fetch.Fetcher) *download.Manager {
	t.Helper()
	s := config.DefaultSettings()
	s.WorkspaceRoot = t.TempDir()
	s.RetryDelaySeconds = 0
	s.MaxRetries = 2
	s.ModifyTags = false
	m, err := download.NewManager(s, download.Deps{Fetcher: f, Logger: logger.Discard()})
	require.NoError(t, err)
	return m
}

func batch() []model.TrackRequest {
	return []model.TrackRequest{
		{ID: "1", DisplayName: "Come Together", SourceLocator: "https://example.com/a", GroupLabel: "Abbey Road"},
		{ID: "2", DisplayName: "Something", SourceLocator: "https://example.com/b", GroupLabel: "Abbey Road"},
	}
}

func TestBatchCompletedAndServeOnce(t *testing.T) {
	m := newManager(t, okUnless("https://example.com/b"))
	result, err := m.RunBatch(context.Background(), batch())
	require.NoError(t, err)

	rep := NewReporter(NewArchiveStore(logger.Discard()), logger.Discard())
	payload := rep.Batch(result)

	assert.True(t, payload.Success)
	assert.Equal(t, http.StatusOK, payload.StatusCode())
	assert.NotEmpty(t, payload.ArchiveReference)
	assert.Equal(t, 1, payload.Succeeded)
	require.Len(t, payload.FailedTracks, 1)
	assert.Equal(t, "2", payload.FailedTracks[0].ID)
	assert.Equal(t, "Something", payload.FailedTracks[0].DisplayName)
	assert.Contains(t, payload.FailedTracks[0].Reason, "status 1")
	assert.Equal(t, 1, rep.Store().Len())

	rec := httptest.NewRecorder()
	rep.ServeArchive(rec, httptest.NewRequest(http.MethodGet, "/api/archive/"+payload.ArchiveReference, nil), payload.ArchiveReference)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Abbey Road.zip"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "PK", rec.Body.String()[:2])

	_, err = os.Stat(result.ArchivePath)
	assert.True(t, os.IsNotExist(err), "workspace should be released after delivery")
	assert.Zero(t, m.Workspaces().Active())

	rec = httptest.NewRecorder()
	rep.ServeArchive(rec, httptest.NewRequest(http.MethodGet, "/", nil), payload.ArchiveReference)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeArchiveHeadKeepsReference(t *testing.T) {
	m := newManager(t, okUnless())
	result, err := m.RunBatch(context.Background(), batch())
	require.NoError(t, err)

	rep := NewReporter(NewArchiveStore(logger.Discard()), logger.Discard())
	ref := rep.Batch(result).ArchiveReference
	require.NotEmpty(t, ref)

	rec := httptest.NewRecorder()
	rep.ServeArchive(rec, httptest.NewRequest(http.MethodHead, "/", nil), ref)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Content-Length"))
	assert.Zero(t, rec.Body.Len())
	assert.FileExists(t, result.ArchivePath)
	assert.Equal(t, 1, rep.Store().Len())

	rec = httptest.NewRecorder()
	rep.ServeArchive(rec, httptest.NewRequest(http.MethodGet, "/", nil), ref)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PK", rec.Body.String()[:2])
	assert.Zero(t, rep.Store().Len())
}

func TestBatchAllFailed(t *testing.T) {
	m := newManager(t, okUnless("https://example.com/a", "https://example.com/b"))
	result, err := m.RunBatch(context.Background(), batch())
	require.NoError(t, err)

	rep := NewReporter(NewArchiveStore(nil), nil)
	payload := rep.Batch(result)

	assert.False(t, payload.Success)
	assert.Empty(t, payload.ArchiveReference)
	assert.Len(t, payload.FailedTracks, 2)
	assert.Equal(t, http.StatusBadGateway, payload.StatusCode())
	assert.Zero(t, rep.Store().Len())

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "archiveReference")
	assert.Contains(t, string(data), `"failedTracks":[`)
}

func TestBatchAssemblyFailedStatus(t *testing.T) {
	p := BatchPayload{Succeeded: 2, Error: "archive: disk full"}
	assert.Equal(t, http.StatusInternalServerError, p.StatusCode())
}

func TestBatchAfterStoreClosed(t *testing.T) {
	m := newManager(t, okUnless())
	result, err := m.RunBatch(context.Background(), batch())
	require.NoError(t, err)

	store := NewArchiveStore(logger.Discard())
	require.NoError(t, store.Close())

	payload := NewReporter(store, logger.Discard()).Batch(result)
	assert.False(t, payload.Success)
	assert.Equal(t, ErrStoreClosed.Error(), payload.Error)
	assert.Zero(t, m.Workspaces().Active())
}

func TestStoreCloseReleasesUnretrieved(t *testing.T) {
	m := newManager(t, okUnless())
	store := NewArchiveStore(logger.Discard())
	rep := NewReporter(store, logger.Discard())

	for i := 0; i < 3; i++ {
		result, err := m.RunBatch(context.Background(), batch())
		require.NoError(t, err)
		require.True(t, rep.Batch(result).Success)
	}
	assert.Equal(t, 3, m.Workspaces().Active())

	require.NoError(t, store.Close())
	assert.Zero(t, store.Len())
	assert.Zero(t, m.Workspaces().Active())

	_, err := store.Put(&download.BatchResult{})
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestServeArchiveDefaultName(t *testing.T) {
	m := newManager(t, okUnless())
	reqs := batch()
	for i := range reqs {
		reqs[i].GroupLabel = ""
	}
	result, err := m.RunBatch(context.Background(), reqs)
	require.NoError(t, err)

	rep := NewReporter(NewArchiveStore(logger.Discard()), logger.Discard())
	ref := rep.Batch(result).ArchiveReference

	rec := httptest.NewRecorder()
	rep.ServeArchive(rec, httptest.NewRequest(http.MethodGet, "/", nil), ref)
	assert.Equal(t, `attachment; filename=tracks.zip`, rec.Header().Get("Content-Disposition"))
}

func TestServeTrack(t *testing.T) {
	m := newManager(t, okUnless())
	single, err := m.FetchSingle(context.Background(), model.TrackRequest{DisplayName: "Come Together", SourceLocator: "https://example.com/a"})
	require.NoError(t, err)
	require.True(t, single.OK())

	rep := NewReporter(NewArchiveStore(logger.Discard()), logger.Discard())
	rec := httptest.NewRecorder()
	rep.ServeTrack(rec, httptest.NewRequest(http.MethodPost, "/api/download", nil), single)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio:https://example.com/a", rec.Body.String())
	assert.Equal(t, `attachment; filename="Come Together.mp3"`, rec.Header().Get("Content-Disposition"))
	assert.Zero(t, m.Workspaces().Active())
}

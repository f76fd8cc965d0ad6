package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Darthmonkey/tunefetcherai/internal/config"
	"github.com/Darthmonkey/tunefetcherai/internal/download"
	"github.com/Darthmonkey/tunefetcherai/internal/fetch"
	"github.com/Darthmonkey/tunefetcherai/internal/logger"
	"github.com/Darthmonkey/tunefetcherai/internal/model"
)

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestOptionToggles(t *testing.T) {
	m := NewModel(Options{OutputDir: "/music"})
	assert.False(t, m.playlist)
	assert.True(t, m.tags)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlV})

	assert.True(t, m.playlist)
	assert.False(t, m.tags)
	assert.True(t, m.verbose)

	view := m.View()
	assert.Contains(t, view, "[x] Create playlist")
	assert.Contains(t, view, "[ ] Write ID3 tags")
	assert.Contains(t, view, "/music")
}

func TestProgressLogsAreCapped(t *testing.T) {
	m := NewModel(Options{})
	m.state = StateFetching

	for i := 0; i < maxLogs+5; i++ {
		m = update(t, m, ProgressMsg{Event: download.ProgressEvent{Message: "line", Level: download.LevelInfo}})
	}
	assert.Len(t, m.logs, maxLogs)

	m = update(t, m, ProgressMsg{Event: download.ProgressEvent{Message: "hidden", Level: download.LevelVerbose}})
	assert.NotEqual(t, "hidden", m.logs[len(m.logs)-1].Message)
}

func TestBatchDoneStates(t *testing.T) {
	m := NewModel(Options{})
	m.state = StateFetching
	done := update(t, m, BatchDoneMsg{Status: download.StatusCompleted, Archive: "/music/Abbey Road.zip"})
	assert.Equal(t, StateComplete, done.state)
	assert.Contains(t, done.View(), "/music/Abbey Road.zip")

	failed := update(t, m, BatchDoneMsg{
		Status:   download.StatusAllFailed,
		Err:      errors.New("no archive written"),
		Failures: []model.TrackOutcome{{DisplayName: "Something", ErrorDetail: "unavailable"}},
	})
	assert.Equal(t, StateError, failed.state)
	assert.Contains(t, failed.View(), "Something: unavailable")

	reset := update(t, failed, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Equal(t, StateInput, reset.state)
	assert.Nil(t, reset.failures)
}

func TestInitializeRejectsBadFile(t *testing.T) {
	m := NewModel(Options{BatchFile: filepath.Join(t.TempDir(), "missing.yaml")})
	msg := m.initialize()()
	init, ok := msg.(InitDoneMsg)
	require.True(t, ok)
	assert.Error(t, init.Err)
}

func TestStartBatchSavesArchive(t *testing.T) {
	s := config.DefaultSettings()
	s.WorkspaceRoot = t.TempDir()
	s.RetryDelaySeconds = 0
	s.ModifyTags = false

	f := fetch.FetcherFunc(func(ctx context.Context, locator, dest string) error {
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return err
		}
		return os.WriteFile(dest, []byte("audio"), 0644)
	})
	manager, err := download.NewManager(s, download.Deps{Fetcher: f, Logger: logger.Discard()})
	require.NoError(t, err)

	outDir := t.TempDir()
	reqs := []model.TrackRequest{{ID: "1", DisplayName: "Come Together", SourceLocator: "https://example.com/a", GroupLabel: "Abbey Road"}}

	msg := startBatch(context.Background(), manager, reqs, outDir)()
	done, ok := msg.(BatchDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.Err)
	assert.Equal(t, filepath.Join(outDir, "Abbey Road.zip"), done.Archive)
	assert.FileExists(t, done.Archive)
	assert.Zero(t, manager.Workspaces().Active())
}

func TestGroups(t *testing.T) {
	got := groups([]model.TrackRequest{{GroupLabel: "A"}, {GroupLabel: "B"}, {GroupLabel: "A"}, {}})
	assert.Equal(t, []string{"A", "B", "tracks"}, got)
}

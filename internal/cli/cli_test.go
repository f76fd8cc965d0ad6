package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Darthmonkey/tunefetcherai/internal/download"
)

const ytPage = `<script>var ytInitialData = {"contents":{"twoColumnSearchResultsRenderer":{"primaryContents":{"sectionListRenderer":{"contents":[{"itemSectionRenderer":{"contents":[{"videoRenderer":{"videoId":"abc123"}}]}}]}}}}};</script>`

func upstreams(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/mb/release/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"releases":[{"id":"rel-1","title":"Abbey Road"}]}`))
	})
	mux.HandleFunc("/mb/release/rel-1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"rel-1","title":"Abbey Road","media":[{"tracks":[
			{"id":"t1","title":"Come Together","position":1,"length":259000},
			{"id":"t2","title":"Something","position":2,"length":182000}
		]}]}`))
	})
	mux.HandleFunc("/yt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(ytPage))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// fakeExtractor writes a shell script that honours the extractor's -o flag.
func fakeExtractor(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script extractor requires a POSIX shell")
	}
	script := `#!/bin/sh
out=""
loc=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-o" ]; then out="$2"; shift; else loc="$1"; fi
  shift
done
case "$loc" in *broken*) echo "ERROR: unavailable" >&2; exit 1;; esac
file=$(echo "$out" | sed 's/%(ext)s/mp3/')
printf 'audio' > "$file"
`
	path := filepath.Join(t.TempDir(), "fake-extractor")
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func writeConfig(t *testing.T, up *httptest.Server, extractor string) string {
	t.Helper()
	cfg := map[string]any{
		"workspace_root":      t.TempDir(),
		"retry_delay_seconds": 0,
		"max_retries":         1,
		"modify_tags":         false,
		"fetch_command":       extractor,
		"musicbrainz_url":     up.URL + "/mb",
		"youtube_search_url":  up.URL + "/yt",
	}
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := BuildCLI()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBuildCLI_HasSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range BuildCLI().Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "fetch", "batch", "search", "lookup"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestLoadSettings(t *testing.T) {
	s, err := LoadSettings("")
	require.NoError(t, err)
	assert.Equal(t, 3, s.MaxRetries)

	t.Setenv("TUNEFETCH_MAX_RETRIES", "0")
	_, err = LoadSettings("")
	assert.ErrorContains(t, err, "invalid config")
}

func TestSearchCommand(t *testing.T) {
	up := upstreams(t)
	cfg := writeConfig(t, up, "yt-dlp")

	out, err := run(t, "--config", cfg, "search", "The", "Beatles", "Come", "Together")
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123\n", out)
}

func TestLookupCommand(t *testing.T) {
	up := upstreams(t)
	cfg := writeConfig(t, up, "yt-dlp")

	out, err := run(t, "-c", cfg, "lookup", "--artist", "The Beatles", "--album", "Abbey Road")
	require.NoError(t, err)
	assert.Contains(t, out, "Abbey Road (2 tracks)")
	assert.Contains(t, out, " 1. The Beatles - Come Together [4:19]")
	assert.Contains(t, out, " 2. The Beatles - Something [3:02]")

	_, err = run(t, "-c", cfg, "lookup", "--artist", "The Beatles")
	assert.Error(t, err)
}

func TestFetchCommand(t *testing.T) {
	up := upstreams(t)
	cfg := writeConfig(t, up, fakeExtractor(t))
	outDir := t.TempDir()

	out, err := run(t, "-c", cfg, "fetch", "https://example.com/watch?v=1", "--name", "Come Together", "--out", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved")

	data, err := os.ReadFile(filepath.Join(outDir, "Come Together.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "audio", string(data))

	_, err = run(t, "-c", cfg, "fetch", "https://example.com/broken", "--out", outDir)
	assert.ErrorContains(t, err, "unavailable")
}

func TestBatchCommandFromFile(t *testing.T) {
	up := upstreams(t)
	cfg := writeConfig(t, up, fakeExtractor(t))
	outDir := t.TempDir()

	batch := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(batch, []byte(`group_label: Abbey Road
tracks:
  - id: "1"
    display_name: Come Together
    locator: https://example.com/watch?v=1
  - id: "2"
    display_name: Something
    locator: https://example.com/broken
`), 0644))

	out, err := run(t, "-c", cfg, "batch", batch, "--out", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✗ Something")
	assert.Contains(t, out, download.StatusCompleted.String())

	zr, err := zip.OpenReader(filepath.Join(outDir, "Abbey Road.zip"))
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 1)
	assert.Equal(t, "Abbey Road/Come Together.mp3", zr.File[0].Name)
}

func TestBatchCommandFromLookup(t *testing.T) {
	up := upstreams(t)
	cfg := writeConfig(t, up, fakeExtractor(t))
	outDir := t.TempDir()

	out, err := run(t, "-c", cfg, "batch", "--artist", "The Beatles", "--album", "Abbey Road", "--out", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, `Found "Abbey Road" with 2 tracks`)

	zr, err := zip.OpenReader(filepath.Join(outDir, "Abbey Road.zip"))
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"Abbey Road/Come Together.mp3", "Abbey Road/Something.mp3"}, names)
}

func TestBatchCommandAllFailed(t *testing.T) {
	up := upstreams(t)
	cfg := writeConfig(t, up, fakeExtractor(t))

	batch := filepath.Join(t.TempDir(), "batch.json")
	require.NoError(t, os.WriteFile(batch, []byte(`{"tracks":[{"id":"1","displayName":"A","locator":"https://example.com/broken"}]}`), 0644))

	_, err := run(t, "-c", cfg, "batch", batch)
	assert.ErrorIs(t, err, ErrBatchFailed)
	assert.True(t, strings.Contains(err.Error(), "all_failed"))
}

func TestBatchCommandRequiresInput(t *testing.T) {
	_, err := run(t, "batch")
	assert.Error(t, err)
}

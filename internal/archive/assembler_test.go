package archive

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTrack(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func readZip(t *testing.T, path string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	out := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		out[f.Name] = string(data)
	}
	return out
}

func TestAssemble(t *testing.T) {
	for _, c := range []Compression{Deflate, Store} {
		dir := t.TempDir()
		a := writeTrack(t, dir, "Abbey Road/Come Together.mp3", "track-a")
		c2 := writeTrack(t, dir, "Abbey Road/Something.mp3", "track-c")

		entries := []Entry{
			{LocalPath: a, GroupLabel: "Abbey Road"},
			{LocalPath: c2, GroupLabel: "Abbey Road"},
			{GroupLabel: "Abbey Road", EntryName: "Abbey Road.m3u", Data: []byte("#EXTM3U\n")},
		}
		out := filepath.Join(dir, "job.zip")

		path, err := NewAssembler(c, 5, nil).Assemble(context.Background(), out, entries)
		require.NoError(t, err)
		assert.Equal(t, out, path)
		assert.NoFileExists(t, out+".part")

		files := readZip(t, out)
		names := make([]string, 0, len(files))
		for n := range files {
			names = append(names, n)
		}
		sort.Strings(names)
		assert.Equal(t, []string{"Abbey Road/Abbey Road.m3u", "Abbey Road/Come Together.mp3", "Abbey Road/Something.mp3"}, names)
		assert.Equal(t, "track-a", files["Abbey Road/Come Together.mp3"])
	}
}

func TestAssemble_SanitizesEntryNames(t *testing.T) {
	dir := t.TempDir()
	src := writeTrack(t, dir, "a.mp3", "x")
	out := filepath.Join(dir, "job.zip")

	_, err := NewAssembler(Deflate, 5, nil).Assemble(context.Background(), out, []Entry{
		{LocalPath: src, GroupLabel: "../../etc", EntryName: "pass:wd.mp3"},
	})
	require.NoError(t, err)

	files := readZip(t, out)
	assert.Contains(t, files, ".._.._etc/pass_wd.mp3")
}

func TestAssemble_MissingFileIsAtomic(t *testing.T) {
	dir := t.TempDir()
	good := writeTrack(t, dir, "good.mp3", "ok")
	out := filepath.Join(dir, "job.zip")

	_, err := NewAssembler(Deflate, 5, nil).Assemble(context.Background(), out, []Entry{
		{LocalPath: good, GroupLabel: "G"},
		{LocalPath: filepath.Join(dir, "vanished.mp3"), GroupLabel: "G"},
	})

	var ae *AssemblyError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "G/vanished.mp3", ae.Entry)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NoFileExists(t, out)
	assert.NoFileExists(t, out+".part")
}

func TestAssemble_DuplicateEntry(t *testing.T) {
	dir := t.TempDir()
	a := writeTrack(t, dir, "x/a.mp3", "1")
	b := writeTrack(t, dir, "y/a.mp3", "2")
	out := filepath.Join(dir, "job.zip")

	_, err := NewAssembler(Store, 0, nil).Assemble(context.Background(), out, []Entry{
		{LocalPath: a, GroupLabel: "G"},
		{LocalPath: b, GroupLabel: "G"},
	})

	var ae *AssemblyError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "G/a.mp3", ae.Entry)
	assert.NoFileExists(t, out)
}

func TestAssemble_NoEntries(t *testing.T) {
	_, err := NewAssembler(Deflate, 5, nil).Assemble(context.Background(), filepath.Join(t.TempDir(), "z.zip"), nil)
	var ae *AssemblyError
	assert.ErrorAs(t, err, &ae)
}

func TestAssemble_Cancelled(t *testing.T) {
	dir := t.TempDir()
	src := writeTrack(t, dir, "a.mp3", "x")
	out := filepath.Join(dir, "job.zip")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAssembler(Deflate, 5, nil).Assemble(ctx, out, []Entry{{LocalPath: src}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, out)
	assert.NoFileExists(t, out+".part")
}

func TestParseCompression(t *testing.T) {
	c, err := ParseCompression("store")
	require.NoError(t, err)
	assert.Equal(t, Store, c)

	c, err = ParseCompression("")
	require.NoError(t, err)
	assert.Equal(t, Deflate, c)

	_, err = ParseCompression("lzma")
	assert.Error(t, err)
}

func TestEntry_Name(t *testing.T) {
	tests := []struct {
		entry Entry
		want  string
	}{
		{Entry{GroupLabel: "Abbey Road", EntryName: "Come Together.mp3"}, "Abbey Road/Come Together.mp3"},
		{Entry{LocalPath: "/ws/job/Live/Intro (2).mp3", GroupLabel: "Live"}, "Live/Intro (2).mp3"},
		{Entry{EntryName: "a.mp3"}, "untitled/a.mp3"},
	}

	for _, tt := range tests {
		if got := tt.entry.Name(); got != tt.want {
			t.Errorf("Name() = %q, want %q", got, tt.want)
		}
	}
}

package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	ioutils "github.com/Darthmonkey/tunefetcherai/internal/io"
)

// stderrTail bounds how much extractor output ends up in an error detail.
const stderrTail = 2048

// permanentMarkers are extractor messages that no retry can fix.
var permanentMarkers = []string{
	"Unsupported URL",
	"is not a valid URL",
	"Video unavailable",
	"Private video",
	"This video has been removed",
	"HTTP Error 404",
}

// CommandFetcher runs an external audio extractor (yt-dlp or youtube-dl).
//
// Each fetch writes into a private temporary directory next to dest and
// moves the produced file into place, so concurrent fetches never see
// each other's partial output.
//
// Example:
//
//	f := &CommandFetcher{Path: "yt-dlp", AudioFormat: "mp3"}
//	err := f.Fetch(ctx, "https://www.youtube.com/watch?v=45cYwDMibGo", "/ws/job/Abbey Road/Come Together.mp3")
type CommandFetcher struct {
	// Path is the extractor binary, looked up in PATH when not absolute.
	Path string

	// AudioFormat is passed to --audio-format.
	AudioFormat string

	// ExtraArgs are inserted before the locator.
	ExtraArgs []string

	Logger *slog.Logger
}

// NewCommandFetcher creates a CommandFetcher with default flags.
func NewCommandFetcher(path, audioFormat string, extraArgs []string, logger *slog.Logger) *CommandFetcher {
	if path == "" {
		path = "yt-dlp"
	}
	if audioFormat == "" {
		audioFormat = "mp3"
	}
	return &CommandFetcher{Path: path, AudioFormat: audioFormat, ExtraArgs: extraArgs, Logger: logger}
}

// Args returns the extractor arguments for one fetch.
func (f *CommandFetcher) Args(locator, outputTemplate string) []string {
	args := []string{
		"--extract-audio",
		"--audio-format", f.AudioFormat,
		"--no-playlist",
		"-o", outputTemplate,
	}
	args = append(args, f.ExtraArgs...)
	return append(args, locator)
}

// Fetch runs the extractor for locator and moves its output to dest.
func (f *CommandFetcher) Fetch(ctx context.Context, locator, dest string) error {
	if err := ioutils.EnsureDir(filepath.Dir(dest)); err != nil {
		return err
	}
	tmp, err := os.MkdirTemp(filepath.Dir(dest), ".fetch-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	stderr := &tailBuffer{limit: stderrTail}
	cmd := exec.CommandContext(ctx, f.Path, f.Args(locator, filepath.Join(tmp, "out.%(ext)s"))...)
	cmd.Dir = tmp
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return Permanent(fmt.Errorf("extractor %s not installed: %w", f.Path, err))
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		detail := strings.TrimSpace(stderr.String())
		wrapped := fmt.Errorf("%s: %w: %s", filepath.Base(f.Path), err, detail)
		if isPermanentOutput(detail) {
			return Permanent(wrapped)
		}
		return wrapped
	}

	out, err := f.output(tmp)
	if err != nil {
		return err
	}
	if f.Logger != nil {
		f.Logger.Debug("extractor finished", "locator", locator, "output", filepath.Base(out))
	}
	return ioutils.MoveFile(ctx, out, dest)
}

// output locates the finished file the extractor left in dir. Only a file
// in the configured audio format counts; anything else means conversion
// did not happen.
func (f *CommandFetcher) output(dir string) (string, error) {
	preferred := filepath.Join(dir, "out."+f.AudioFormat)
	if ioutils.NonEmptyFile(preferred) == nil {
		return preferred, nil
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "out.*"))
	for _, m := range matches {
		if strings.HasSuffix(m, ioutils.PartSuffix) || strings.HasSuffix(m, ".ytdl") {
			continue
		}
		if ioutils.NonEmptyFile(m) == nil {
			return "", fmt.Errorf("%w: got %s instead of %s", ErrNoOutput, filepath.Ext(m), f.AudioFormat)
		}
	}
	return "", ErrNoOutput
}

func isPermanentOutput(stderr string) bool {
	for _, marker := range permanentMarkers {
		if strings.Contains(stderr, marker) {
			return true
		}
	}
	return false
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	return string(b.buf)
}

package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	ioutils "github.com/Darthmonkey/tunefetcherai/internal/io"
	"github.com/Darthmonkey/tunefetcherai/internal/model"
)

// Compression selects how entries are stored in the container.
type Compression int

const (
	// Deflate compresses entries with flate.
	Deflate Compression = iota
	// Store writes entries uncompressed.
	Store
)

// ParseCompression maps a configuration value to a Compression.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "deflate":
		return Deflate, nil
	case "store":
		return Store, nil
	default:
		return Deflate, fmt.Errorf("unknown compression %q", s)
	}
}

// Entry is one file placed in the archive.
//
// LocalPath names a file on disk; Data holds in-memory content such as a
// playlist. Exactly one of the two is used, Data taking precedence.
type Entry struct {
	LocalPath  string
	GroupLabel string
	EntryName  string
	Data       []byte
}

// Name returns the entry's path inside the archive.
//
// Example:
//
//	Entry{GroupLabel: "Abbey Road", EntryName: "Come Together.mp3"}.Name()
//	// "Abbey Road/Come Together.mp3"
func (e Entry) Name() string {
	name := e.EntryName
	if name == "" {
		name = filepath.Base(e.LocalPath)
	}
	return path.Join(model.GroupDir(e.GroupLabel), model.SanitizeFileName(name))
}

// AssemblyError reports which entry made the archive unusable. Entry is
// empty when the failure happened while finalizing the container.
type AssemblyError struct {
	Entry string
	Err   error
}

func (e *AssemblyError) Error() string {
	if e.Entry == "" {
		return fmt.Sprintf("archive assembly failed: %v", e.Err)
	}
	return fmt.Sprintf("archive assembly failed at %s: %v", e.Entry, e.Err)
}

func (e *AssemblyError) Unwrap() error { return e.Err }

// Assembler packages successful tracks into one zip file.
type Assembler struct {
	compression Compression
	level       int
	logger      *slog.Logger
	now         func() time.Time
}

// NewAssembler creates an Assembler. level is the flate level used with
// Deflate (-2 to 9).
func NewAssembler(compression Compression, level int, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{compression: compression, level: level, logger: logger, now: time.Now}
}

// Assemble writes entries into a zip at outputPath and returns the path.
//
// The archive is built at outputPath+".part" and renamed into place only
// after the central directory has been written and synced. On any error
// the partial file is removed and an *AssemblyError is returned, so
// outputPath either holds a complete archive or does not exist.
func (a *Assembler) Assemble(ctx context.Context, outputPath string, entries []Entry) (string, error) {
	if len(entries) == 0 {
		return "", &AssemblyError{Err: fmt.Errorf("no entries")}
	}

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		name := e.Name()
		if _, dup := seen[name]; dup {
			return "", &AssemblyError{Entry: name, Err: fmt.Errorf("duplicate entry")}
		}
		seen[name] = struct{}{}
	}

	start := a.now()
	err := ioutils.WriteFileAtomic(ctx, outputPath, func(w io.Writer) error {
		return a.write(ctx, w, entries)
	})
	if err != nil {
		var ae *AssemblyError
		if !errors.As(err, &ae) {
			err = &AssemblyError{Err: err}
		}
		return "", err
	}

	a.logger.Debug("archive assembled",
		"path", outputPath, "entries", len(entries), "duration", a.now().Sub(start))
	return outputPath, nil
}

func (a *Assembler) write(ctx context.Context, w io.Writer, entries []Entry) error {
	zw := zip.NewWriter(w)
	if a.compression == Deflate {
		level := a.level
		zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(out, level)
		})
	}

	method := zip.Deflate
	if a.compression == Store {
		method = zip.Store
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return &AssemblyError{Entry: e.Name(), Err: err}
		}
		if err := a.add(zw, e, method); err != nil {
			return &AssemblyError{Entry: e.Name(), Err: err}
		}
	}

	if err := zw.Close(); err != nil {
		return &AssemblyError{Err: err}
	}
	return nil
}

func (a *Assembler) add(zw *zip.Writer, e Entry, method uint16) error {
	header := &zip.FileHeader{
		Name:     e.Name(),
		Method:   method,
		Modified: a.now(),
	}
	dst, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}

	if e.Data != nil {
		_, err = dst.Write(e.Data)
		return err
	}

	src, err := os.Open(e.LocalPath)
	if err != nil {
		return err
	}
	defer src.Close()

	_, err = io.Copy(dst, src)
	return err
}

package ioutils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// PartSuffix marks files that are still being written. A file carrying
// the suffix is never a finished track or archive.
const PartSuffix = ".part"

// PartPath returns the in-progress path used while writing path.
func PartPath(path string) string {
	return path + PartSuffix
}

// WriteFileAtomic writes the content produced by fill to path.
//
// The data goes to path+".part" first and is renamed into place only when
// fill and the final sync succeed, so readers see either the complete file
// or nothing. On failure the partial file is removed.
//
// Example:
//
//	err := WriteFileAtomic(ctx, "/ws/job/Album/Intro.mp3", func(w io.Writer) error {
//	    _, err := io.Copy(w, resp.Body)
//	    return err
//	})
func WriteFileAtomic(ctx context.Context, path string, fill func(w io.Writer) error) (err error) {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	part := PartPath(path)
	f, err := os.Create(part)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(part)
		}
	}()

	if err = fill(&ctxWriter{ctx: ctx, w: f}); err != nil {
		return err
	}
	if err = f.Sync(); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(part, path)
}

// ctxWriter stops long copies once ctx is done.
type ctxWriter struct {
	ctx context.Context
	w   io.Writer
}

func (c *ctxWriter) Write(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.w.Write(p)
}

// CopyFile copies a file from source to destination.
//
// The copy honors ctx between chunks and lands atomically through
// WriteFileAtomic, so an interrupted copy leaves no destination file.
//
// Example:
//
//	err := CopyFile(ctx, "/tmp/yt/abc.mp3", "/ws/job/Album/Intro.mp3")
func CopyFile(ctx context.Context, src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	return WriteFileAtomic(ctx, dst, func(w io.Writer) error {
		_, err := io.Copy(w, sourceFile)
		return err
	})
}

// MoveFile renames src to dst, falling back to copy and delete when the
// two paths live on different filesystems.
func MoveFile(ctx context.Context, src, dst string) error {
	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := CopyFile(ctx, src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

// WriteFile writes data to a file atomically.
//
// Example:
//
//	playlistContent := []byte("#EXTM3U\n...")
//	err := WriteFile(ctx, "/ws/job/Album/Album.m3u", playlistContent)
func WriteFile(ctx context.Context, path string, data []byte) error {
	return WriteFileAtomic(ctx, path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// NonEmptyFile reports whether path is a regular file with content.
func NonEmptyFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s is empty", path)
	}
	return nil
}

// RemoveIfExists deletes path, ignoring a missing file.
func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// Package ioutils provides file system and image processing utilities.
//
// This package contains functions for:
//   - Atomic file writes through a ".part" sibling
//   - File copying and cross-device moves
//   - Directory creation and cleanup helpers
//   - Cover art resizing and JPEG conversion
//
// # Atomic Writes
//
// Every finished file the service produces is written with
// WriteFileAtomic. A path without the ".part" suffix is therefore always
// complete:
//
//	err := ioutils.WriteFileAtomic(ctx, dest, func(w io.Writer) error {
//	    _, err := io.Copy(w, src)
//	    return err
//	})
//
// # Image Processing
//
//	svc := ioutils.NewImageService()
//	jpeg, _ := svc.Fit(ctx, pngData, 1000)
package ioutils

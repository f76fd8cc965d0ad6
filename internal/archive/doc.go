// Package archive packages acquired tracks into a single zip container.
//
// Entries are laid out as <group>/<file>, one folder per group label. The
// container is written through github.com/klauspost/compress/zip, with
// either flate compression or plain storage.
//
//	asm := archive.NewAssembler(archive.Deflate, 5, logger)
//	path, err := asm.Assemble(ctx, "/ws/job/job.zip", entries)
//	var ae *archive.AssemblyError
//	if errors.As(err, &ae) {
//	    // ae.Entry names the file that broke the archive
//	}
package archive

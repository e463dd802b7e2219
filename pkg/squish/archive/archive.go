// Package archive bundles already-optimized image files into a single zip.
// Entries are stored uncompressed: the inputs are compressed image data
// already, and re-deflating them costs time for negligible gain.
package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/jamesainslie/squish/pkg/squish/namegen"
	"github.com/jamesainslie/squish/pkg/squish/types"
)

// Pack writes entries into a zip archive at dest and returns dest.
//
// Entries are processed in input order. Each entry's in-archive name is
// its desired name resolved against the names already assigned earlier in
// the same call, so identical desired names come out as "a.png",
// "a (1).png", ... deterministically. An empty desired name defaults to
// the source's base name.
//
// Any unreadable source aborts the whole operation and removes the
// partial archive: a truncated zip must never look like a result.
func Pack(ctx context.Context, entries []types.ArchiveEntry, dest string) (string, error) {
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create archive %s: %w: %w", dest, types.ErrIO, err)
	}

	zw := zip.NewWriter(f)
	names := namegen.NewClaimSet()
	now := time.Now()

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return "", abort(f, zw, dest, err)
		}

		desired := entry.Name
		if desired == "" {
			desired = filepath.Base(entry.SourcePath)
		}
		name := names.Resolve(desired)

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Store,
			Modified: now,
		})
		if err != nil {
			return "", abort(f, zw, dest, fmt.Errorf("add %s: %w: %w", name, types.ErrIO, err))
		}

		if err := copyInto(w, entry.SourcePath); err != nil {
			return "", abort(f, zw, dest, err)
		}
	}

	if err := zw.Close(); err != nil {
		return "", abort(f, nil, dest, fmt.Errorf("finalize %s: %w: %w", dest, types.ErrIO, err))
	}
	if err := f.Close(); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("close %s: %w: %w", dest, types.ErrIO, err)
	}
	return dest, nil
}

// copyInto streams one source file into an open archive entry.
func copyInto(w io.Writer, src string) error {
	r, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", types.ErrNotFound, src)
		}
		return fmt.Errorf("read %s: %w: %w", src, types.ErrIO, err)
	}
	defer r.Close()

	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("store %s: %w: %w", src, types.ErrIO, err)
	}
	return nil
}

// abort tears down a failed pack and removes the partial archive.
func abort(f *os.File, zw *zip.Writer, dest string, err error) error {
	if zw != nil {
		zw.Close()
	}
	f.Close()
	os.Remove(dest)
	return err
}

package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"

	"github.com/jamesainslie/squish/pkg/squish/namegen"
	"github.com/jamesainslie/squish/pkg/squish/types"
)

// stagedName matches the "stem_<uuid>.ext" shape produced by stagePath.
var stagedName = regexp.MustCompile(`_[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.[A-Za-z0-9]+$`)

// IsStagedName reports whether a base filename looks like a pipeline
// staging file. Cleanup uses this so a user-configured scratch directory
// shared with other files is never swept of anything that is not ours.
func IsStagedName(base string) bool {
	return stagedName.MatchString(base)
}

// stagePath builds a collision-proof scratch path for a transform. The
// name embeds a fresh UUID, so concurrent transforms of the same source
// never contend and no coordination is needed. The extension is the
// target's: a staged conversion result is already correctly named in
// case the caller keeps it as-is.
func (p *Pipeline) stagePath(stem, srcExt string, target types.Format) string {
	ext := srcExt
	if target != types.FormatSame {
		ext = target.Ext()
	}
	name := fmt.Sprintf("%s_%s.%s", stem, uuid.NewString(), ext)
	return filepath.Join(p.scratch, name)
}

// commit finalizes a staged result according to the request:
//
//   - No overwrite: the staged file itself is the result; the caller
//     owns relocating or discarding it later.
//   - Overwrite, same format: replace the source in place. Copy then
//     delete, so a scratch directory on another volume still works.
//   - Overwrite, format conversion: the original is never deleted.
//     The result lands as "stem.newext" beside the source, with on-disk
//     collisions resolved by numbered suffixes.
func (p *Pipeline) commit(req types.TransformRequest, staged string, conversion bool, perm os.FileMode) (string, error) {
	if !req.Overwrite {
		return staged, nil
	}

	dir := filepath.Dir(req.SourcePath)

	var name string
	if conversion {
		stem, _ := splitName(filepath.Base(req.SourcePath))
		name = namegen.ResolveOnDisk(dir, stem+"."+req.Target.Ext(), "")
	} else {
		// Replacing in place: the source itself is the intended target,
		// not a collision.
		name = namegen.ResolveOnDisk(dir, filepath.Base(req.SourcePath), req.SourcePath)
	}
	finalPath := filepath.Join(dir, name)

	// On a failed copy the staged file is kept: it still holds the full
	// result, and for an in-place replace it may be the only intact copy.
	if err := copyFile(staged, finalPath, perm); err != nil {
		return "", err
	}
	if err := os.Remove(staged); err != nil {
		return "", fmt.Errorf("remove staged %s: %w: %w", staged, types.ErrIO, err)
	}
	return finalPath, nil
}

// copyFile copies src to dst, creating dst with perm when it does not
// exist and truncating it when it does.
func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w: %w", src, types.ErrIO, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create %s: %w: %w", dst, types.ErrIO, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s to %s: %w: %w", src, dst, types.ErrIO, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return fmt.Errorf("sync %s: %w: %w", dst, types.ErrIO, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w: %w", dst, types.ErrIO, err)
	}
	return nil
}

func removeQuiet(path string) {
	_ = os.Remove(path)
}

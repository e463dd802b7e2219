package archive

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/squish/pkg/squish/types"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readEntry(t *testing.T, zr *zip.Reader, i int) string {
	t.Helper()
	r, err := zr.File[i].Open()
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

func TestPackDuplicateNames(t *testing.T) {
	dir := t.TempDir()
	src1 := writeFile(t, dir, "one.png", "first")
	src2 := writeFile(t, dir, "two.png", "second")
	dest := filepath.Join(dir, "out.zip")

	entries := []types.ArchiveEntry{
		{SourcePath: src1, Name: "a.png"},
		{SourcePath: src2, Name: "a.png"},
	}

	got, err := Pack(context.Background(), entries, dest)
	require.NoError(t, err)
	assert.Equal(t, dest, got)

	zr, err := zip.OpenReader(dest)
	require.NoError(t, err)
	defer zr.Close()

	require.Len(t, zr.File, 2)
	assert.Equal(t, "a.png", zr.File[0].Name)
	assert.Equal(t, "a (1).png", zr.File[1].Name)
	assert.Equal(t, "first", readEntry(t, &zr.Reader, 0))
	assert.Equal(t, "second", readEntry(t, &zr.Reader, 1))
}

func TestPackUsesStoredCompression(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "img.png", "payload-bytes")
	dest := filepath.Join(dir, "out.zip")

	_, err := Pack(context.Background(), []types.ArchiveEntry{{SourcePath: src, Name: "img.png"}}, dest)
	require.NoError(t, err)

	zr, err := zip.OpenReader(dest)
	require.NoError(t, err)
	defer zr.Close()

	require.Len(t, zr.File, 1)
	assert.Equal(t, zip.Store, zr.File[0].Method)
	assert.Equal(t, uint64(len("payload-bytes")), zr.File[0].CompressedSize64)
}

func TestPackEmptyNameDefaultsToBase(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "fallback.jpg", "x")
	dest := filepath.Join(dir, "out.zip")

	_, err := Pack(context.Background(), []types.ArchiveEntry{{SourcePath: src}}, dest)
	require.NoError(t, err)

	zr, err := zip.OpenReader(dest)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 1)
	assert.Equal(t, "fallback.jpg", zr.File[0].Name)
}

func TestPackUnreadableSourceAborts(t *testing.T) {
	dir := t.TempDir()
	ok := writeFile(t, dir, "ok.png", "fine")
	dest := filepath.Join(dir, "out.zip")

	entries := []types.ArchiveEntry{
		{SourcePath: ok, Name: "ok.png"},
		{SourcePath: filepath.Join(dir, "missing.png"), Name: "missing.png"},
	}

	_, err := Pack(context.Background(), entries, dest)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNotFound)

	// No partial archive left behind.
	assert.NoFileExists(t, dest)
}

func TestPackDeterministicNaming(t *testing.T) {
	dir := t.TempDir()
	srcs := make([]types.ArchiveEntry, 4)
	for i := range srcs {
		srcs[i] = types.ArchiveEntry{
			SourcePath: writeFile(t, dir, filepath.Base(t.Name())+string(rune('a'+i))+".png", "c"),
			Name:       "same.png",
		}
	}

	names := func(dest string) []string {
		_, err := Pack(context.Background(), srcs, dest)
		require.NoError(t, err)
		zr, err := zip.OpenReader(dest)
		require.NoError(t, err)
		defer zr.Close()
		out := make([]string, len(zr.File))
		for i, f := range zr.File {
			out[i] = f.Name
		}
		return out
	}

	want := []string{"same.png", "same (1).png", "same (2).png", "same (3).png"}
	assert.Equal(t, want, names(filepath.Join(dir, "one.zip")))
	assert.Equal(t, want, names(filepath.Join(dir, "two.zip")))
}

func TestPackCancelled(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "a.png", "x")
	dest := filepath.Join(dir, "out.zip")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Pack(ctx, []types.ArchiveEntry{{SourcePath: src, Name: "a.png"}}, dest)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, dest)
}

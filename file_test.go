package pptxunlock

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func targetOf(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	e, ok := readBack(t, b).Lookup(TargetEntry)
	require.True(t, ok)
	return string(e.Data)
}

func TestPatchFile_InPlace(t *testing.T) {
	dir := t.TempDir()
	src := writeFixture(t, dir, "deck.pptx", protectedPPTX(t))

	res, err := PatchFile(context.Background(), src, "")
	require.NoError(t, err)
	assert.Equal(t, src, res.Source)
	assert.Equal(t, src, res.Destination)
	assert.Equal(t, 1, res.Removed)
	assert.Empty(t, res.Backup)
	assert.Nil(t, res.Output)
	assert.NotContains(t, targetOf(t, src), "modifyVerifier")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left next to the destination")
}

func TestPatchFile_NewDestination(t *testing.T) {
	dir := t.TempDir()
	orig := protectedPPTX(t)
	src := writeFixture(t, dir, "deck.pptx", orig)
	dst := filepath.Join(dir, "deck_no_password.pptx")

	res, err := PatchFile(context.Background(), src, dst)
	require.NoError(t, err)
	assert.Equal(t, dst, res.Destination)

	after, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, orig, after, "source is untouched")
	assert.NotContains(t, targetOf(t, dst), "modifyVerifier")
}

func TestPatchFile_KeepsPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX permissions")
	}
	dir := t.TempDir()
	src := writeFixture(t, dir, "deck.pptx", protectedPPTX(t))
	require.NoError(t, os.Chmod(src, 0o640))

	_, err := PatchFile(context.Background(), src, "")
	require.NoError(t, err)
	info, err := os.Stat(src)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestPatchFile_SourceNotFound(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.pptx")

	_, err := PatchFile(context.Background(), filepath.Join(dir, "missing.pptx"), dst)
	require.ErrorIs(t, err, ErrSourceNotFound)
	assert.NotErrorIs(t, err, ErrProcessing)
	assert.NoFileExists(t, dst)
}

func TestPatchFile_SourceIsDirectory(t *testing.T) {
	_, err := PatchFile(context.Background(), t.TempDir(), "")
	require.ErrorIs(t, err, ErrProcessing)
	assert.ErrorIs(t, err, ErrInvalidArchive)
}

func TestPatchFile_MissingEntryWritesNothing(t *testing.T) {
	dir := t.TempDir()
	src := writeFixture(t, dir, "deck.pptx", missingEntryPPTX(t))
	dst := filepath.Join(dir, "out.pptx")

	_, err := PatchFile(context.Background(), src, dst)
	require.ErrorIs(t, err, ErrMissingEntry)
	assert.NoFileExists(t, dst)
}

func TestPatchFile_FailureKeepsDestination(t *testing.T) {
	dir := t.TempDir()
	src := writeFixture(t, dir, "broken.pptx", []byte("not a zip"))
	dst := writeFixture(t, dir, "out.pptx", []byte("previous"))

	_, err := PatchFile(context.Background(), src, dst)
	require.ErrorIs(t, err, ErrProcessing)
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(got))
}

func TestPatchFile_NoVerifier(t *testing.T) {
	dir := t.TempDir()
	src := writeFixture(t, dir, "deck.pptx", unprotectedPPTX(t))

	res, err := PatchFile(context.Background(), src, "")
	require.NoError(t, err)
	assert.Zero(t, res.Removed)
	assert.Equal(t, unprotectedXML, targetOf(t, src))
}

func TestPatchFile_DryRun(t *testing.T) {
	dir := t.TempDir()
	orig := protectedPPTX(t)
	src := writeFixture(t, dir, "deck.pptx", orig)
	dst := filepath.Join(dir, "out.pptx")

	res, err := PatchFile(context.Background(), src, dst, WithDryRun(true), WithBackup(CompZSTD))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Removed)
	assert.NoFileExists(t, dst)
	assert.NoFileExists(t, dst+BackupSuffix)
}

func TestPatchFile_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	src := writeFixture(t, dir, "deck.pptx", protectedPPTX(t))
	dst := filepath.Join(dir, "out.pptx")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := PatchFile(ctx, src, dst)
	require.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ErrProcessing)
	assert.NoFileExists(t, dst)
}

func TestPatchFile_ScratchDirRemoved(t *testing.T) {
	var scratch string
	orig := mkdirTemp
	mkdirTemp = func(dir, pattern string) (string, error) {
		d, err := orig(dir, pattern)
		scratch = d
		return d, err
	}
	t.Cleanup(func() { mkdirTemp = orig })

	dir := t.TempDir()
	src := writeFixture(t, dir, "deck.pptx", protectedPPTX(t))
	_, err := PatchFile(context.Background(), src, "")
	require.NoError(t, err)
	require.NotEmpty(t, scratch)
	assert.NoDirExists(t, scratch)

	// Also on failure.
	scratch = ""
	bad := writeFixture(t, dir, "bad.pptx", missingEntryPPTX(t))
	_, err = PatchFile(context.Background(), bad, "")
	require.Error(t, err)
	require.NotEmpty(t, scratch)
	assert.NoDirExists(t, scratch)
}

func TestPatchFile_ScratchDirErrors(t *testing.T) {
	dir := t.TempDir()
	src := writeFixture(t, dir, "deck.pptx", protectedPPTX(t))

	origMk := mkdirTemp
	mkdirTemp = func(string, string) (string, error) { return "", io.ErrClosedPipe }
	_, err := PatchFile(context.Background(), src, "")
	mkdirTemp = origMk
	require.ErrorIs(t, err, ErrProcessing)
	assert.ErrorIs(t, err, io.ErrClosedPipe)

	origRm := removeAll
	var removed string
	removeAll = func(p string) error {
		removed = p
		_ = origRm(p)
		return io.ErrClosedPipe
	}
	t.Cleanup(func() { removeAll = origRm })
	_, err = PatchFile(context.Background(), src, "")
	assert.NoError(t, err, "cleanup failures are logged, not returned")
	assert.NotEmpty(t, removed)
}

func TestPatchFile_RenameFailureKeepsDestination(t *testing.T) {
	dir := t.TempDir()
	orig := protectedPPTX(t)
	src := writeFixture(t, dir, "deck.pptx", orig)

	origRename := rename
	rename = func(string, string) error { return io.ErrClosedPipe }
	t.Cleanup(func() { rename = origRename })

	_, err := PatchFile(context.Background(), src, "")
	require.ErrorIs(t, err, ErrProcessing)
	got, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, orig, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file is removed")
}

func TestPatchFile_BackupAndRestore(t *testing.T) {
	for _, comp := range []Compression{CompNone, CompZIP, CompZSTD, CompLZ4, CompBR} {
		t.Run(comp.String(), func(t *testing.T) {
			dir := t.TempDir()
			orig := protectedPPTX(t)
			src := writeFixture(t, dir, "deck.pptx", orig)

			res, err := PatchFile(context.Background(), src, "", WithBackup(comp))
			require.NoError(t, err)
			assert.Equal(t, src+BackupSuffix, res.Backup)
			assert.NotContains(t, targetOf(t, src), "modifyVerifier")

			require.NoError(t, Restore(context.Background(), res.Backup, ""))
			got, err := os.ReadFile(src)
			require.NoError(t, err)
			assert.Equal(t, orig, got)
		})
	}
}

func TestPatchFile_BackupKeptAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	orig := protectedPPTX(t)
	src := writeFixture(t, dir, "deck.pptx", orig)

	first, err := PatchFile(context.Background(), src, "", WithBackup(CompZSTD))
	require.NoError(t, err)
	kept, err := os.ReadFile(first.Backup)
	require.NoError(t, err)

	second, err := PatchFile(context.Background(), src, "", WithBackup(CompZSTD))
	require.NoError(t, err)
	assert.Equal(t, first.Backup, second.Backup)
	again, err := os.ReadFile(second.Backup)
	require.NoError(t, err)
	assert.Equal(t, kept, again, "the first backup is not replaced")

	require.NoError(t, Restore(context.Background(), second.Backup, ""))
	got, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, orig, got, "restore brings back the protected original")
}

func TestPatchFile_InPlaceThroughSymlink(t *testing.T) {
	dir := t.TempDir()
	orig := protectedPPTX(t)
	target := writeFixture(t, dir, "real.pptx", orig)
	link := filepath.Join(dir, "link.pptx")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	res, err := PatchFile(context.Background(), link, "", WithBackup(CompLZ4))
	require.NoError(t, err)
	assert.Equal(t, link, res.Destination)
	resolved, err := filepath.EvalSymlinks(target)
	require.NoError(t, err)
	assert.Equal(t, resolved+BackupSuffix, res.Backup)

	fi, err := os.Lstat(link)
	require.NoError(t, err)
	assert.NotZero(t, fi.Mode()&os.ModeSymlink, "link is kept")
	assert.NotContains(t, targetOf(t, target), "modifyVerifier")
	assert.NoFileExists(t, link+BackupSuffix)

	require.NoError(t, Restore(context.Background(), res.Backup, link))
	fi, err = os.Lstat(link)
	require.NoError(t, err)
	assert.NotZero(t, fi.Mode()&os.ModeSymlink, "restore keeps the link too")
	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, orig, got)
}

func TestPatchFile_BackupSkippedForNewDestination(t *testing.T) {
	dir := t.TempDir()
	src := writeFixture(t, dir, "deck.pptx", protectedPPTX(t))
	dst := filepath.Join(dir, "out.pptx")

	res, err := PatchFile(context.Background(), src, dst, WithBackup(CompLZ4))
	require.NoError(t, err)
	assert.Empty(t, res.Backup)
	assert.NoFileExists(t, dst+BackupSuffix)
}

func TestRestore_Errors(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	err := Restore(ctx, filepath.Join(dir, "deck.pptx"), "")
	assert.Error(t, err, "destination cannot be derived")

	err = Restore(ctx, filepath.Join(dir, "missing.pptx.bak"), "")
	assert.ErrorIs(t, err, ErrSourceNotFound)

	bad := writeFixture(t, dir, "bad.pptx.bak", []byte("garbage that is not a backup at all, long enough for a header............."))
	err = Restore(ctx, bad, "")
	assert.ErrorIs(t, err, ErrInvalidBackup)
	assert.NoFileExists(t, filepath.Join(dir, "bad.pptx"))

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	src := filepath.Join(dir, "deck.pptx")
	require.NoError(t, writeFileAtomic(src+BackupSuffix, 0o600, func(w io.Writer) error {
		return EncodeBackup(w, strings.NewReader("content"), CompNone)
	}))
	err = Restore(canceled, src+BackupSuffix, filepath.Join(dir, "restored"))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.NoFileExists(t, filepath.Join(dir, "restored"))
}

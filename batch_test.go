package pptxunlock

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batchFixtures(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFixture(t, dir, "a.pptx", protectedPPTX(t))
	writeFixture(t, dir, "b.pptx", missingEntryPPTX(t))
	writeFixture(t, dir, "c.pptx", unprotectedPPTX(t))
	writeFixture(t, dir, "notes.txt", []byte("ignored"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pptx"), 0o755))
	return dir
}

func TestBatch_OutputDir(t *testing.T) {
	in := batchFixtures(t)
	out := filepath.Join(t.TempDir(), "unlocked")

	report, err := Batch(context.Background(), BatchOptions{InputDir: in, OutputDir: out, Jobs: 2})
	require.NoError(t, err)
	require.Equal(t, 3, report.Total())
	assert.Equal(t, 2, report.Succeeded())
	assert.Equal(t, 1, report.Failed())

	a, b, c := report.Outcomes[0], report.Outcomes[1], report.Outcomes[2]
	assert.Equal(t, filepath.Join(in, "a.pptx"), a.Source)
	assert.Equal(t, filepath.Join(out, "a.pptx"), a.Destination)
	assert.True(t, a.OK())
	assert.Equal(t, 1, a.Removed)

	assert.False(t, b.OK())
	assert.ErrorIs(t, b.Err, ErrMissingEntry)
	assert.NoFileExists(t, b.Destination)

	assert.True(t, c.OK())
	assert.Zero(t, c.Removed)

	assert.NotContains(t, targetOf(t, a.Destination), "modifyVerifier")
	assert.FileExists(t, c.Destination)
	assert.Contains(t, targetOf(t, a.Source), "modifyVerifier", "inputs are untouched")
}

func TestBatch_InPlace(t *testing.T) {
	in := batchFixtures(t)

	report, err := Batch(context.Background(), BatchOptions{InputDir: in, Jobs: 4})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded())
	for _, o := range report.Outcomes {
		assert.Equal(t, o.Source, o.Destination)
	}
	assert.NotContains(t, targetOf(t, filepath.Join(in, "a.pptx")), "modifyVerifier")
}

func TestBatch_Pattern(t *testing.T) {
	in := batchFixtures(t)

	report, err := Batch(context.Background(), BatchOptions{InputDir: in, OutputDir: t.TempDir(), Pattern: "a.*"})
	require.NoError(t, err)
	require.Equal(t, 1, report.Total())
	assert.Equal(t, filepath.Join(in, "a.pptx"), report.Outcomes[0].Source)
}

func TestBatch_BackupPerFile(t *testing.T) {
	in := batchFixtures(t)

	report, err := Batch(context.Background(), BatchOptions{InputDir: in}, WithBackup(CompBR))
	require.NoError(t, err)
	a := report.Outcomes[0]
	require.True(t, a.OK())
	assert.Equal(t, a.Destination+BackupSuffix, a.Backup)
	assert.FileExists(t, a.Backup)
}

func TestBatch_NoMatches(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "readme.md", []byte("#"))

	report, err := Batch(context.Background(), BatchOptions{InputDir: dir})
	require.NoError(t, err)
	assert.Zero(t, report.Total())
	assert.Zero(t, report.Failed())
}

func TestBatch_InputErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Batch(context.Background(), BatchOptions{InputDir: filepath.Join(dir, "missing")})
	assert.ErrorIs(t, err, ErrSourceNotFound)

	file := writeFixture(t, dir, "a.pptx", protectedPPTX(t))
	_, err = Batch(context.Background(), BatchOptions{InputDir: file})
	assert.ErrorIs(t, err, ErrSourceNotFound)

	_, err = Batch(context.Background(), BatchOptions{InputDir: dir, Pattern: "["})
	assert.Error(t, err)

	_, err = Batch(context.Background(), BatchOptions{InputDir: dir, OutputDir: file})
	assert.Error(t, err, "output dir cannot be created over a file")
}

func TestBatch_CanceledContext(t *testing.T) {
	in := batchFixtures(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := Batch(ctx, BatchOptions{InputDir: in, OutputDir: t.TempDir()})
	require.NoError(t, err)
	require.Equal(t, 3, report.Total())
	for _, o := range report.Outcomes {
		assert.ErrorIs(t, o.Err, context.Canceled)
	}
}

func TestBatch_DryRunLeavesOutputDirAbsent(t *testing.T) {
	in := batchFixtures(t)
	out := filepath.Join(t.TempDir(), "unlocked")

	report, err := Batch(context.Background(), BatchOptions{InputDir: in, OutputDir: out}, WithDryRun(true))
	require.NoError(t, err)
	require.Equal(t, 3, report.Total())
	assert.Equal(t, 2, report.Succeeded())
	assert.NoDirExists(t, out)
	assert.Contains(t, targetOf(t, filepath.Join(in, "a.pptx")), "modifyVerifier")
}

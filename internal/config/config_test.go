package config

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logicossoftware/go-pptxunlock"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, path, err := Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, runtime.NumCPU(), cfg.Batch.Jobs)
	assert.Equal(t, pptxunlock.CompZSTD, cfg.BackupCompression())
	assert.Equal(t, pptxunlock.Limits{}, cfg.LibraryLimits())
}

func TestLoad_FileInConfigDir(t *testing.T) {
	dir := t.TempDir()
	want := writeConfig(t, dir, `
[batch]
pattern = "*.PPTX"
jobs = 2

[output]
suffix = "_open"

[backup]
enabled = true
compression = "lz4"

[limits]
max_entries = 100
max_entry_size = 2048
`)

	cfg, path, err := Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	require.NoError(t, err)
	assert.Equal(t, want, path)
	assert.Equal(t, "*.PPTX", cfg.Batch.Pattern)
	assert.Equal(t, 2, cfg.Batch.Jobs)
	assert.Equal(t, "_open", cfg.Output.Suffix)
	assert.True(t, cfg.Backup.Enabled)
	assert.Equal(t, pptxunlock.CompLZ4, cfg.BackupCompression())
	assert.Equal(t, -1, cfg.Deflate.Level, "unset keys keep defaults")
	assert.Equal(t, pptxunlock.Limits{MaxEntries: 100, MaxEntrySize: 2048}, cfg.LibraryLimits())
}

func TestLoad_ExplicitFile(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "[log]\nlevel = \"debug\"\n")

	cfg, got, err := Load(context.Background(), LoadOptions{ConfigFilePath: path})
	require.NoError(t, err)
	assert.Equal(t, path, got)
	assert.Equal(t, "debug", cfg.Log.Level)

	_, _, err = Load(context.Background(), LoadOptions{ConfigFilePath: filepath.Join(t.TempDir(), "nope.toml")})
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("PPTXUNLOCK_BATCH_JOBS", "3")
	t.Setenv("PPTXUNLOCK_BACKUP_COMPRESSION", "brotli")

	cfg, _, err := Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Batch.Jobs)
	assert.Equal(t, pptxunlock.CompBR, cfg.BackupCompression())
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"jobs":        "[batch]\njobs = 0\n",
		"pattern":     "[batch]\npattern = \"[\"\n",
		"compression": "[backup]\ncompression = \"gzip\"\n",
		"deflate":     "[deflate]\nlevel = 12\n",
		"limits":      "[limits]\nmax_entries = -1\n",
		"log level":   "[log]\nlevel = \"loud\"\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, body)
			_, _, err := Load(context.Background(), LoadOptions{ConfigDirPath: dir})
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "[batch\njobs = \n")
	_, _, err := Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	assert.Error(t, err)
}

func TestLoad_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfigTOML(t *testing.T) {
	b, err := DefaultConfig().TOML()
	require.NoError(t, err)
	s := string(b)
	assert.Contains(t, s, "[batch]")
	assert.Regexp(t, `pattern = ['"]\*\.pptx['"]`, s)
	assert.Regexp(t, `suffix = ['"]_no_password['"]`, s)
	assert.Regexp(t, `compression = ['"]zstd['"]`, s)
}

func TestDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	if runtime.GOOS == "windows" {
		t.Setenv("AppData", t.TempDir())
	}
	dir, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, AppName, filepath.Base(dir))
}

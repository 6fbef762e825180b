package pptxunlock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// BackupSuffix is appended to the destination path to name its backup.
const BackupSuffix = ".bak"

// Function variables for testing injection.
var (
	mkdirTemp = os.MkdirTemp
	removeAll = os.RemoveAll
	rename    = os.Rename
)

// PatchFile unlocks the package at src and writes the result to dst.
//
// An empty dst, or dst equal to src, overwrites src. Otherwise src is left
// untouched. All work happens on a copy inside a private scratch directory
// that is removed before PatchFile returns, whatever the outcome. dst is
// replaced atomically, so on failure it is either absent or holds its
// previous content.
//
// If dst is a symbolic link, the file it points to is written and the link
// is left in place.
//
// PatchFile returns ErrSourceNotFound if src does not exist and
// ErrMissingEntry if the package has no ppt/presentation.xml. Any other
// failure wraps ErrProcessing. Result.Output is not populated.
func PatchFile(ctx context.Context, src, dst string, opts ...Option) (*Result, error) {
	cfg := newConfig(opts)
	if dst == "" {
		dst = src
	}
	res, err := patchFile(ctx, src, dst, cfg)
	if err != nil {
		err = classify(err)
		cfg.logger.Error("patch failed", "source", src, "err", err)
		return nil, err
	}
	return res, nil
}

func patchFile(ctx context.Context, src, dst string, cfg config) (*Result, error) {
	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, src)
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidArchive, src)
	}
	cfg.logger.Info("processing", "source", src)

	scratch, err := mkdirTemp("", "pptxunlock-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() {
		if rmErr := removeAll(scratch); rmErr != nil {
			cfg.logger.Warn("failed to remove scratch dir", "dir", scratch, "err", rmErr)
		}
	}()

	work := filepath.Join(scratch, "source.zip")
	if err := copyFile(src, work); err != nil {
		return nil, fmt.Errorf("copy source: %w", err)
	}
	cfg.logger.Debug("copied source to scratch dir", "path", work)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pkg, err := readPackageFile(work, cfg.limits)
	if err != nil {
		return nil, err
	}
	cfg.logger.Debug("read package", "entries", len(pkg.Entries))
	removed, err := unlockPackage(pkg, cfg)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	built := filepath.Join(scratch, "patched.zip")
	if err := writePackageFile(built, pkg, cfg.deflateLevel); err != nil {
		return nil, fmt.Errorf("write package: %w", err)
	}
	cfg.logger.Debug("rebuilt package", "path", built)

	res := &Result{Source: src, Destination: dst, Removed: removed, Entries: pkg.Names()}
	target, err := resolveDestination(dst)
	if err != nil {
		return nil, err
	}
	if cfg.dryRun {
		cfg.logger.Info("dry run, destination not written", "destination", dst)
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	perm := info.Mode().Perm()
	if cfg.backup {
		backup, err := writeBackup(target, cfg)
		if err != nil {
			return nil, fmt.Errorf("write backup: %w", err)
		}
		res.Backup = backup
	}
	if di, err := os.Stat(target); err == nil {
		perm = di.Mode().Perm()
	}
	if err := writeFileAtomic(target, perm, func(w io.Writer) error {
		f, err := os.Open(built)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	}); err != nil {
		return nil, fmt.Errorf("write destination: %w", err)
	}
	cfg.logger.Info("saved", "destination", target, "removed", removed)
	return res, nil
}

// resolveDestination follows symbolic links so that the atomic rename
// replaces the linked file rather than the link. A missing dst is returned
// unchanged.
func resolveDestination(dst string) (string, error) {
	fi, err := os.Lstat(dst)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return dst, nil
		}
		return "", err
	}
	if fi.Mode()&fs.ModeSymlink == 0 {
		return dst, nil
	}
	return filepath.EvalSymlinks(dst)
}

// Restore decodes the backup at backupPath and writes the original bytes to
// dst. An empty dst restores next to the backup, dropping BackupSuffix.
func Restore(ctx context.Context, backupPath, dst string, opts ...Option) error {
	cfg := newConfig(opts)
	if dst == "" {
		if !strings.HasSuffix(backupPath, BackupSuffix) {
			return fmt.Errorf("cannot derive destination from %q: no %s suffix", backupPath, BackupSuffix)
		}
		dst = strings.TrimSuffix(backupPath, BackupSuffix)
	}
	f, err := os.Open(backupPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSourceNotFound, backupPath)
		}
		return err
	}
	defer f.Close()

	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := resolveDestination(dst)
	if err != nil {
		return err
	}
	perm := fs.FileMode(0o644)
	if di, err := os.Stat(target); err == nil {
		perm = di.Mode().Perm()
	}
	var n int64
	if err := writeFileAtomic(target, perm, func(w io.Writer) error {
		var err error
		n, err = decodeBackup(w, f, cfg.limits)
		return err
	}); err != nil {
		return err
	}
	cfg.logger.Info("restored", "backup", backupPath, "destination", target, "bytes", n)
	return nil
}

// writeBackup stores the current content of dst in dst+BackupSuffix and
// returns the backup path, or "" if dst does not exist yet. An existing
// backup is kept, since it holds content older than dst.
func writeBackup(dst string, cfg config) (string, error) {
	backup := dst + BackupSuffix
	if _, err := os.Lstat(backup); err == nil {
		cfg.logger.Info("kept existing backup", "path", backup)
		return backup, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	prev, err := os.Open(dst)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	defer prev.Close()
	if err := writeFileAtomic(backup, 0o600, func(w io.Writer) error {
		return EncodeBackup(w, prev, cfg.backupComp)
	}); err != nil {
		return "", err
	}
	cfg.logger.Info("wrote backup", "path", backup, "compression", cfg.backupComp)
	return backup, nil
}

func readPackageFile(name string, limits Limits) (*Package, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return readPackage(f, info.Size(), limits)
}

func writePackageFile(name string, pkg *Package, level int) error {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := writePackage(f, pkg, level); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeFileAtomic writes dst through a temporary sibling file that is
// renamed over dst only after write and Close succeed.
func writeFileAtomic(dst string, perm fs.FileMode, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()
	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := rename(tmpName, dst); err != nil {
		return err
	}
	committed = true
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

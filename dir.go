package pptxunlock

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// contentTypesEntry is the OPC content-types part. LoadDir puts it first.
const contentTypesEntry = "[Content_Types].xml"

// Extract writes the entries of p below dir, creating directories as needed.
// Entry names that are absolute or would escape dir are rejected with
// ErrInvalidArchive before anything is written for that entry.
func (p *Package) Extract(dir string) error {
	root, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	for _, e := range p.Entries {
		if err := validateEntryName(e.Name); err != nil {
			return fmt.Errorf("%w: entry %q: %v", ErrInvalidArchive, e.Name, err)
		}
		target := filepath.Join(root, filepath.FromSlash(strings.TrimSuffix(e.Name, "/")))
		rel, err := filepath.Rel(root, target)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return fmt.Errorf("%w: entry %q escapes %s", ErrInvalidArchive, e.Name, dir)
		}
		if e.IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(target, e.Data, 0o644); err != nil {
			return err
		}
		if !e.Modified.IsZero() {
			_ = os.Chtimes(target, e.Modified, e.Modified)
		}
	}
	return nil
}

// LoadDir builds a package from the regular files below dir. Names are
// relative to dir with forward slashes, in lexical order, except that
// [Content_Types].xml comes first when present. Directories do not become
// entries.
func LoadDir(dir string) (*Package, error) {
	pkg := &Package{}
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		e := Entry{Name: filepath.ToSlash(rel), Data: data, Modified: info.ModTime()}
		if e.Name == contentTypesEntry {
			pkg.Entries = append([]Entry{e}, pkg.Entries...)
		} else {
			pkg.Entries = append(pkg.Entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pkg, nil
}

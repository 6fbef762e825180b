package pptxunlock

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// DefaultPattern selects the files a batch run picks up.
const DefaultPattern = "*.pptx"

// BatchOptions selects the files of a batch run and where results go.
type BatchOptions struct {
	// InputDir is scanned (not recursively) for files matching Pattern.
	InputDir string
	// OutputDir receives one result per input, under the input's base name.
	// It is created if needed. Empty means every input is overwritten.
	OutputDir string
	// Pattern is a filepath.Match pattern applied to file names.
	// Defaults to DefaultPattern.
	Pattern string
	// Jobs bounds the number of files processed concurrently. Values below
	// one mean one.
	Jobs int
}

// FileOutcome is the result of one file of a batch run.
type FileOutcome struct {
	Source      string
	Destination string
	Backup      string
	Removed     int
	Err         error
}

// OK reports whether the file was patched.
func (o FileOutcome) OK() bool { return o.Err == nil }

// BatchReport lists per-file outcomes in discovery order.
type BatchReport struct {
	Outcomes []FileOutcome
}

func (r *BatchReport) Total() int { return len(r.Outcomes) }

func (r *BatchReport) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

func (r *BatchReport) Failed() int { return r.Total() - r.Succeeded() }

// Batch runs PatchFile for every file in opts.InputDir matching
// opts.Pattern.
//
// A failing file is recorded in its FileOutcome and does not stop the run.
// Batch itself only fails when the run cannot start: the input directory is
// missing (ErrSourceNotFound), the pattern is malformed, or the output
// directory cannot be created. No matching files yields an empty report.
// Under WithDryRun the output directory is not created.
func Batch(ctx context.Context, bo BatchOptions, opts ...Option) (*BatchReport, error) {
	cfg := newConfig(opts)

	info, err := os.Stat(bo.InputDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, bo.InputDir)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrSourceNotFound, bo.InputDir)
	}

	pattern := bo.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	files, err := discover(bo.InputDir, pattern)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		cfg.logger.Warn("no files matched", "dir", bo.InputDir, "pattern", pattern)
		return &BatchReport{}, nil
	}
	cfg.logger.Info("found files", "count", len(files), "dir", bo.InputDir)

	if bo.OutputDir != "" && !cfg.dryRun {
		if err := os.MkdirAll(bo.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	jobs := max(bo.Jobs, 1)
	report := &BatchReport{Outcomes: make([]FileOutcome, len(files))}
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, src := range files {
		dst := src
		if bo.OutputDir != "" {
			dst = filepath.Join(bo.OutputDir, filepath.Base(src))
		}
		g.Go(func() error {
			out := FileOutcome{Source: src, Destination: dst}
			if err := ctx.Err(); err != nil {
				out.Err = err
				report.Outcomes[i] = out
				return nil
			}
			res, err := PatchFile(ctx, src, dst, opts...)
			if err != nil {
				out.Err = err
			} else {
				out.Removed = res.Removed
				out.Backup = res.Backup
			}
			report.Outcomes[i] = out
			return nil
		})
	}
	_ = g.Wait()

	cfg.logger.Info("batch complete",
		"total", report.Total(),
		"succeeded", report.Succeeded(),
		"failed", report.Failed())
	return report, nil
}

// discover returns the regular files directly under dir whose names match
// pattern, sorted by name.
func discover(dir, pattern string) ([]string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		ok, _ := filepath.Match(pattern, de.Name())
		if ok {
			files = append(files, filepath.Join(dir, de.Name()))
		}
	}
	return files, nil
}

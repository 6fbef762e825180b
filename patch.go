package pptxunlock

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"
)

// verifierPattern matches a self-closing p:modifyVerifier element in any
// letter case, with attributes spread over any number of lines.
var verifierPattern = regexp.MustCompile(`(?is)<p:modifyVerifier[^>]*\s*/>`)

// Unlock removes every modifyVerifier element from text and reports how many
// were removed. Text without a verifier is returned unchanged.
func Unlock(text string) (string, int) {
	n := len(verifierPattern.FindAllStringIndex(text, -1))
	if n == 0 {
		return text, 0
	}
	return verifierPattern.ReplaceAllLiteralString(text, ""), n
}

// Patch unlocks the PPTX package in src and returns the rewritten package in
// Result.Output.
//
// Patch never modifies src. It returns ErrMissingEntry if the package has no
// ppt/presentation.xml; every other failure wraps ErrProcessing together with
// the underlying cause (ErrInvalidArchive, ErrInvalidEncoding,
// ErrLimitExceeded, ...). A package without a verifier is not an error.
func Patch(src []byte, opts ...Option) (*Result, error) {
	cfg := newConfig(opts)

	pkg, err := readPackage(bytes.NewReader(src), int64(len(src)), cfg.limits)
	if err != nil {
		return nil, classify(err)
	}
	removed, err := unlockPackage(pkg, cfg)
	if err != nil {
		return nil, classify(err)
	}
	var buf bytes.Buffer
	buf.Grow(len(src))
	if err := writePackage(&buf, pkg, cfg.deflateLevel); err != nil {
		return nil, classify(err)
	}
	return &Result{Output: buf.Bytes(), Removed: removed, Entries: pkg.Names()}, nil
}

// unlockPackage rewrites the target entry of pkg in place.
func unlockPackage(pkg *Package, cfg config) (int, error) {
	e, ok := pkg.Lookup(TargetEntry)
	if !ok || e.IsDir() {
		return 0, fmt.Errorf("%w: %s", ErrMissingEntry, TargetEntry)
	}
	cfg.logger.Debug("found target entry", "entry", TargetEntry, "bytes", len(e.Data))
	if !utf8.Valid(e.Data) {
		return 0, fmt.Errorf("%w: %s is not valid UTF-8", ErrInvalidEncoding, TargetEntry)
	}
	text, n := Unlock(string(e.Data))
	if n == 0 {
		cfg.logger.Warn("no modifyVerifier element found", "entry", TargetEntry)
		return 0, nil
	}
	e.Data = []byte(text)
	cfg.logger.Info("removed modifyVerifier", "count", n)
	return n, nil
}

// classify folds every failure that is not a missing source or a missing
// target entry into ErrProcessing, keeping the cause in the chain.
func classify(err error) error {
	switch {
	case err == nil,
		errors.Is(err, ErrSourceNotFound),
		errors.Is(err, ErrMissingEntry),
		errors.Is(err, ErrProcessing):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrProcessing, err)
	}
}

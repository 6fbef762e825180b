package pptxunlock

import "errors"

var (
	ErrSourceNotFound     = errors.New("pptxunlock: source not found")
	ErrMissingEntry       = errors.New("pptxunlock: missing required entry")
	ErrProcessing         = errors.New("pptxunlock: processing failed")
	ErrInvalidArchive     = errors.New("pptxunlock: invalid archive")
	ErrInvalidEncoding    = errors.New("pptxunlock: invalid text encoding")
	ErrLimitExceeded      = errors.New("pptxunlock: limit exceeded")
	ErrInvalidBackup      = errors.New("pptxunlock: invalid backup")
	ErrUnsupportedVersion = errors.New("pptxunlock: unsupported backup version")
)

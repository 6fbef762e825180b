package pptxunlock

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/flate"
)

type config struct {
	limits       Limits
	logger       *log.Logger
	deflateLevel int
	backup       bool
	backupComp   Compression
	dryRun       bool
}

type Option func(*config)

func newConfig(opts []Option) config {
	cfg := config{
		limits:       defaultLimits(),
		deflateLevel: flate.DefaultCompression,
		backupComp:   CompZSTD,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.limits = cfg.limits.withDefaults()
	if cfg.logger == nil {
		cfg.logger = log.New(io.Discard)
	}
	return cfg
}

// WithLimits bounds entry counts and sizes. Zero fields keep their defaults.
func WithLimits(l Limits) Option {
	return func(c *config) { c.limits = l }
}

// WithLogger routes progress messages to l. By default nothing is logged.
func WithLogger(l *log.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithDeflateLevel sets the compression level used for rewritten entries.
// Levels outside flate's range fall back to flate.DefaultCompression.
func WithDeflateLevel(level int) Option {
	return func(c *config) {
		if level < flate.HuffmanOnly || level > flate.BestCompression {
			level = flate.DefaultCompression
		}
		c.deflateLevel = level
	}
}

// WithBackup makes PatchFile keep the previous destination bytes in
// "<destination>.bak", compressed with comp.
func WithBackup(comp Compression) Option {
	return func(c *config) {
		c.backup = true
		c.backupComp = comp
	}
}

// WithDryRun makes PatchFile do all the work except writing the destination
// and the backup.
func WithDryRun(v bool) Option {
	return func(c *config) { c.dryRun = v }
}

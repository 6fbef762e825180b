// Package config loads pptxunlock settings from a TOML file and
// PPTXUNLOCK_* environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/logicossoftware/go-pptxunlock"
)

const (
	// AppName is the application name.
	AppName = "pptxunlock"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "toml"
	// EnvPrefix prefixes every environment override, e.g. PPTXUNLOCK_BATCH_JOBS.
	EnvPrefix = "PPTXUNLOCK"
)

var (
	// ErrConfigNotFound is returned when an explicitly requested config file does not exist.
	ErrConfigNotFound = errors.New("config file not found")
	// ErrInvalidConfig is returned when a loaded value is out of range.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// Config is the effective configuration.
	Config struct {
		Batch   BatchConfig   `mapstructure:"batch" toml:"batch"`
		Output  OutputConfig  `mapstructure:"output" toml:"output"`
		Backup  BackupConfig  `mapstructure:"backup" toml:"backup"`
		Deflate DeflateConfig `mapstructure:"deflate" toml:"deflate"`
		Limits  LimitsConfig  `mapstructure:"limits" toml:"limits"`
		Log     LogConfig     `mapstructure:"log" toml:"log"`
	}

	// BatchConfig controls directory runs.
	BatchConfig struct {
		Pattern string `mapstructure:"pattern" toml:"pattern"`
		Jobs    int    `mapstructure:"jobs" toml:"jobs"`
	}

	// OutputConfig controls derived output names.
	OutputConfig struct {
		// Suffix is appended to the file stem when a new file is requested
		// interactively without naming it.
		Suffix string `mapstructure:"suffix" toml:"suffix"`
	}

	// BackupConfig controls backups of overwritten files.
	BackupConfig struct {
		Enabled     bool   `mapstructure:"enabled" toml:"enabled"`
		Compression string `mapstructure:"compression" toml:"compression"`
	}

	// DeflateConfig controls recompression of package entries.
	DeflateConfig struct {
		Level int `mapstructure:"level" toml:"level"`
	}

	// LimitsConfig mirrors pptxunlock.Limits. Zero keeps the library default.
	LimitsConfig struct {
		MaxEntries   int    `mapstructure:"max_entries" toml:"max_entries"`
		MaxEntrySize uint64 `mapstructure:"max_entry_size" toml:"max_entry_size"`
		MaxTotalSize uint64 `mapstructure:"max_total_size" toml:"max_total_size"`
	}

	// LogConfig controls the CLI logger.
	LogConfig struct {
		Level string `mapstructure:"level" toml:"level"`
	}

	// LoadOptions selects where configuration is read from.
	LoadOptions struct {
		// ConfigFilePath, when set, is the only file read and must exist.
		ConfigFilePath string
		// ConfigDirPath overrides Dir() for the default config.toml lookup.
		ConfigDirPath string
	}
)

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Batch:   BatchConfig{Pattern: pptxunlock.DefaultPattern, Jobs: runtime.NumCPU()},
		Output:  OutputConfig{Suffix: "_no_password"},
		Backup:  BackupConfig{Enabled: false, Compression: pptxunlock.CompZSTD.String()},
		Deflate: DeflateConfig{Level: -1},
		Log:     LogConfig{Level: "info"},
	}
}

// Dir returns the pptxunlock configuration directory:
// $XDG_CONFIG_HOME/pptxunlock on Linux and the platform equivalent elsewhere.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(base, AppName), nil
}

// Load reads the configuration and returns it with the path of the file it
// came from ("" when only defaults and the environment applied).
func Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", fmt.Errorf("%w: %s", ErrConfigNotFound, opts.ConfigFilePath)
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		dir := opts.ConfigDirPath
		if dir == "" {
			d, err := Dir()
			if err != nil {
				return nil, "", err
			}
			dir = d
		}
		candidate := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
		if fileExists(candidate) {
			resolvedPath = candidate
		}
	}

	if resolvedPath != "" {
		v.SetConfigFile(resolvedPath)
		v.SetConfigType(ConfigFileExt)
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("read config %s: %w", resolvedPath, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, "", fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, resolvedPath, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("batch.pattern", d.Batch.Pattern)
	v.SetDefault("batch.jobs", d.Batch.Jobs)
	v.SetDefault("output.suffix", d.Output.Suffix)
	v.SetDefault("backup.enabled", d.Backup.Enabled)
	v.SetDefault("backup.compression", d.Backup.Compression)
	v.SetDefault("deflate.level", d.Deflate.Level)
	v.SetDefault("limits.max_entries", d.Limits.MaxEntries)
	v.SetDefault("limits.max_entry_size", d.Limits.MaxEntrySize)
	v.SetDefault("limits.max_total_size", d.Limits.MaxTotalSize)
	v.SetDefault("log.level", d.Log.Level)
}

// Validate checks value ranges and names.
func (c *Config) Validate() error {
	if _, err := filepath.Match(c.Batch.Pattern, ""); err != nil || c.Batch.Pattern == "" {
		return fmt.Errorf("%w: batch.pattern %q", ErrInvalidConfig, c.Batch.Pattern)
	}
	if c.Batch.Jobs < 1 {
		return fmt.Errorf("%w: batch.jobs must be at least 1, got %d", ErrInvalidConfig, c.Batch.Jobs)
	}
	if _, err := pptxunlock.ParseCompression(c.Backup.Compression); err != nil {
		return fmt.Errorf("%w: backup.compression: %v", ErrInvalidConfig, err)
	}
	if c.Deflate.Level < -2 || c.Deflate.Level > 9 {
		return fmt.Errorf("%w: deflate.level must be between -2 and 9, got %d", ErrInvalidConfig, c.Deflate.Level)
	}
	if c.Limits.MaxEntries < 0 {
		return fmt.Errorf("%w: limits.max_entries must not be negative", ErrInvalidConfig)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalidConfig, err)
	}
	return nil
}

// BackupCompression returns the parsed backup codec.
func (c *Config) BackupCompression() pptxunlock.Compression {
	comp, err := pptxunlock.ParseCompression(c.Backup.Compression)
	if err != nil {
		return pptxunlock.CompZSTD
	}
	return comp
}

// LibraryLimits converts the configured limits.
func (c *Config) LibraryLimits() pptxunlock.Limits {
	return pptxunlock.Limits{
		MaxEntries:   c.Limits.MaxEntries,
		MaxEntrySize: c.Limits.MaxEntrySize,
		MaxTotalSize: c.Limits.MaxTotalSize,
	}
}

// TOML renders the configuration as a TOML document.
func (c *Config) TOML() ([]byte, error) {
	return toml.Marshal(c)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

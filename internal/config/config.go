// Package config provides configuration types and defaults for aureacore.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spiralhouse/aureacore/internal/tracing"
)

// Config holds all configuration options for aureacore.
type Config struct {
	Source   SourceConfig   `mapstructure:"source"`
	Registry RegistryConfig `mapstructure:"registry"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Watcher  WatcherConfig  `mapstructure:"watcher"`
	Tracing  tracing.Config `mapstructure:"tracing"`
	Log      LogConfig      `mapstructure:"log"`
}

// SourceConfig locates the source of truth for service configurations.
type SourceConfig struct {
	// Dir is the checkout or plain directory holding the root document and
	// service configurations.
	Dir string `mapstructure:"dir"`

	// RepoURL is the git remote to clone on init. Empty means Dir is treated
	// as a plain directory and never pulled.
	RepoURL string `mapstructure:"repo_url"`

	// RootFile is the root document's path relative to Dir.
	// Default: "root.yaml"
	RootFile string `mapstructure:"root_file"`
}

// RegistryConfig tunes the in-memory registry.
type RegistryConfig struct {
	// SnapshotTTL is how long a snapshot counts as fresh before queries
	// report it stale. Staleness is advisory.
	// Default: 5m
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"`
}

// ArchiveConfig controls snapshot persistence for cold start.
type ArchiveConfig struct {
	// Enabled turns on snapshot archiving.
	// Default: true
	Enabled bool `mapstructure:"enabled"`

	// Path is the SQLite database file.
	// Default: ~/.aureacore/archive.db
	Path string `mapstructure:"path"`

	// Keep bounds how many archived snapshots are retained.
	// Default: 10
	Keep int `mapstructure:"keep"`
}

// WatcherConfig controls filesystem watching of the source directory.
type WatcherConfig struct {
	// Enabled turns on automatic re-sync when source files change.
	Enabled bool `mapstructure:"enabled"`

	// Debounce is how long to wait after the last filesystem event before
	// triggering a sync.
	// Default: 500ms
	Debounce time.Duration `mapstructure:"debounce"`
}

// LogConfig controls the debug log file.
type LogConfig struct {
	// Enabled turns on file logging.
	Enabled bool `mapstructure:"enabled"`

	// Path is the log file location.
	// Default: ~/.aureacore/debug.log
	Path string `mapstructure:"path"`

	// Level is the minimum level written: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `mapstructure:"level"`
}

// Defaults returns the configuration used when no file or flag overrides it.
func Defaults() Config {
	return Config{
		Source: SourceConfig{
			RootFile: "root.yaml",
		},
		Registry: RegistryConfig{
			SnapshotTTL: 5 * time.Minute,
		},
		Archive: ArchiveConfig{
			Enabled: true,
			Path:    DefaultArchivePath(),
			Keep:    10,
		},
		Watcher: WatcherConfig{
			Debounce: 500 * time.Millisecond,
		},
		Tracing: tracing.DefaultConfig(),
		Log: LogConfig{
			Path:  DefaultLogPath(),
			Level: "info",
		},
	}
}

// DefaultArchivePath returns the default snapshot archive location.
// Returns ~/.aureacore/archive.db or empty string if home dir unavailable.
func DefaultArchivePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".aureacore", "archive.db")
}

// DefaultLogPath returns the default debug log location.
// Returns ~/.aureacore/debug.log or empty string if home dir unavailable.
func DefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".aureacore", "debug.log")
}

// Validate checks the whole configuration for errors.
func Validate(cfg Config) error {
	if err := ValidateSource(cfg.Source); err != nil {
		return err
	}
	if err := ValidateRegistry(cfg.Registry); err != nil {
		return err
	}
	if err := ValidateArchive(cfg.Archive); err != nil {
		return err
	}
	if err := ValidateWatcher(cfg.Watcher); err != nil {
		return err
	}
	if err := ValidateTracing(cfg.Tracing); err != nil {
		return err
	}
	return ValidateLog(cfg.Log)
}

// ValidateSource checks the source configuration for errors.
// Dir may be empty: commands that need it fail with a clearer message.
func ValidateSource(source SourceConfig) error {
	if source.RootFile != "" && filepath.IsAbs(source.RootFile) {
		return fmt.Errorf("source.root_file must be relative to source.dir, got %q", source.RootFile)
	}
	return nil
}

// ValidateRegistry checks the registry configuration for errors.
func ValidateRegistry(reg RegistryConfig) error {
	if reg.SnapshotTTL < 0 {
		return fmt.Errorf("registry.snapshot_ttl must not be negative, got %v", reg.SnapshotTTL)
	}
	return nil
}

// ValidateArchive checks the archive configuration for errors.
func ValidateArchive(archive ArchiveConfig) error {
	if archive.Keep < 0 {
		return fmt.Errorf("archive.keep must not be negative, got %d", archive.Keep)
	}
	if archive.Enabled && archive.Path == "" {
		return fmt.Errorf("archive.path is required when archiving is enabled")
	}
	return nil
}

// ValidateWatcher checks the watcher configuration for errors.
func ValidateWatcher(watcher WatcherConfig) error {
	if watcher.Debounce < 0 {
		return fmt.Errorf("watcher.debounce must not be negative, got %v", watcher.Debounce)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(cfg tracing.Config) error {
	if cfg.SampleRate < 0.0 || cfg.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", cfg.SampleRate)
	}

	if cfg.Exporter != "" {
		switch cfg.Exporter {
		case "none", "file", "stdout", "otlp":
			// Valid
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", cfg.Exporter)
		}
	}

	if cfg.Enabled {
		if cfg.Exporter == "file" && cfg.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if cfg.Exporter == "otlp" && cfg.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

// ValidateLog checks the log configuration for errors.
func ValidateLog(logCfg LogConfig) error {
	if logCfg.Level != "" {
		switch logCfg.Level {
		case "debug", "info", "warn", "error":
			// Valid
		default:
			return fmt.Errorf("log.level must be \"debug\", \"info\", \"warn\", or \"error\", got %q", logCfg.Level)
		}
	}
	if logCfg.Enabled && logCfg.Path == "" {
		return fmt.Errorf("log.path is required when logging is enabled")
	}
	return nil
}

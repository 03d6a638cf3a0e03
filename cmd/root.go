package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	appcat "github.com/spiralhouse/aureacore/internal/application/catalog"
	"github.com/spiralhouse/aureacore/internal/config"
	"github.com/spiralhouse/aureacore/internal/git"
	"github.com/spiralhouse/aureacore/internal/infrastructure/sqlite"
	"github.com/spiralhouse/aureacore/internal/log"
	"github.com/spiralhouse/aureacore/internal/registry"
	"github.com/spiralhouse/aureacore/internal/source"
	"github.com/spiralhouse/aureacore/internal/tracing"
)

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:   "aureacore",
	Short: "Service catalog with dependency graph analysis",
	Long: `AureaCore tracks the services of a platform, their versions and their
dependencies, with a git repository as the source of truth. It answers
dependency queries from immutable catalog snapshots: startup order, cycle
detection, and failure impact analysis.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/aureacore/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false,
		"write debug logs")
	rootCmd.PersistentFlags().String("source", "",
		"source directory holding the root document (overrides config)")

	// Bind flags to viper
	_ = viper.BindPFlag("source.dir", rootCmd.PersistentFlags().Lookup("source"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("source.root_file", defaults.Source.RootFile)
	viper.SetDefault("registry.snapshot_ttl", defaults.Registry.SnapshotTTL)
	viper.SetDefault("archive.enabled", defaults.Archive.Enabled)
	viper.SetDefault("archive.keep", defaults.Archive.Keep)
	viper.SetDefault("watcher.debounce", defaults.Watcher.Debounce)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)
	viper.SetDefault("log.level", defaults.Log.Level)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .aureacore/config.yaml (current directory)
		// 2. ~/.config/aureacore/config.yaml (user config)
		if _, err := os.Stat(".aureacore/config.yaml"); err == nil {
			viper.SetConfigFile(".aureacore/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "aureacore"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	// Missing config file is fine: run on defaults.
	_ = viper.ReadInConfig()
	_ = viper.Unmarshal(&cfg)

	if cfg.Archive.Path == "" {
		cfg.Archive.Path = config.DefaultArchivePath()
	}
	if cfg.Log.Path == "" {
		cfg.Log.Path = config.DefaultLogPath()
	}
	if cfg.Tracing.FilePath == "" {
		cfg.Tracing.FilePath = filepath.Join(filepath.Dir(cfg.Log.Path), "traces.jsonl")
	}
}

// engine bundles the wired subsystems a command needs.
type engine struct {
	catalog  *appcat.CatalogService
	reg      *registry.Registry
	store    *source.ConfigStore
	loader   *source.Loader
	db       *sqlite.DB
	traces   *tracing.Provider
	cleanups []func()
}

// newEngine wires logging, tracing, the snapshot archive, the source loader
// and the registry from the loaded configuration. needSource makes a missing
// source.dir a hard error instead of running archive-only.
func newEngine(needSource bool) (*engine, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	e := &engine{}

	if debugFlag || os.Getenv("AUREACORE_DEBUG") != "" || cfg.Log.Enabled {
		cleanup, err := log.Init(cfg.Log.Path)
		if err != nil {
			return nil, fmt.Errorf("initializing logging: %w", err)
		}
		e.cleanups = append(e.cleanups, cleanup)
		if debugFlag {
			log.SetMinLevel(log.LevelDebug)
		} else {
			log.SetMinLevel(logLevel(cfg.Log.Level))
		}
	}

	traces, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}
	e.traces = traces
	e.cleanups = append(e.cleanups, func() {
		_ = traces.Shutdown(context.Background())
	})

	opts := registry.Options{
		SnapshotTTL: cfg.Registry.SnapshotTTL,
		Tracer:      traces.Tracer(),
		RootPath:    cfg.Source.RootFile,
		ArchiveKeep: cfg.Archive.Keep,
	}

	if cfg.Archive.Enabled {
		db, err := sqlite.NewDB(cfg.Archive.Path)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("opening snapshot archive: %w", err)
		}
		e.db = db
		opts.Archive = db.SnapshotArchive()
	}

	if cfg.Source.Dir != "" {
		store, err := source.NewConfigStore(cfg.Source.Dir)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("opening source directory: %w", err)
		}
		e.store = store
		e.loader = source.NewLoader(store)
		opts.Loader = e.loader
		opts.Git = git.NewRealExecutor(cfg.Source.Dir)
	} else if needSource {
		e.Close()
		return nil, fmt.Errorf("source.dir is not configured; set it in the config file or pass --source")
	}

	e.reg = registry.New(opts)
	e.catalog = appcat.NewCatalogService(e.reg)
	return e, nil
}

// load populates the catalog: a source sync when a source is configured,
// otherwise the newest archived snapshot.
func (e *engine) load(ctx context.Context) error {
	if e.loader != nil {
		if _, err := e.catalog.Sync(ctx); err != nil {
			return err
		}
		return nil
	}
	if err := e.catalog.Restore(ctx); err != nil {
		return fmt.Errorf("no source configured and no archived snapshot to serve: %w", err)
	}
	return nil
}

func (e *engine) Close() {
	if e.reg != nil {
		e.reg.Close()
	}
	if e.db != nil {
		_ = e.db.Close()
	}
	for i := len(e.cleanups) - 1; i >= 0; i-- {
		e.cleanups[i]()
	}
}

func logLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.LevelDebug
	case "warn":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}

// printJSON writes v to stdout, indented for reading and jq alike.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// adviseMeta surfaces staleness and degradation on stderr so stdout stays
// parseable.
func adviseMeta(meta appcat.Meta) {
	if meta.Stale {
		fmt.Fprintf(os.Stderr, "warning: snapshot is stale (generation %d, age %s)\n",
			meta.Generation, meta.Age.Round(time.Second))
	}
	if meta.Degraded {
		fmt.Fprintln(os.Stderr, "warning: source of truth unreachable, serving last good snapshot")
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spiralhouse/aureacore/internal/config"
	"github.com/spiralhouse/aureacore/internal/git"
	"github.com/spiralhouse/aureacore/internal/log"
	"github.com/spiralhouse/aureacore/internal/registry"
	"github.com/spiralhouse/aureacore/internal/watcher"
)

var (
	initRepoURL string
	initDir     string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default configuration",
	Long: `Write a commented default configuration to .aureacore/config.yaml in
the current directory. With --repo, also clone the service configuration
repository and point source.dir at the checkout.

Examples:
  aureacore init
  aureacore init --repo git@github.com:acme/services.git --dir ./services`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := filepath.Join(".aureacore", "config.yaml")
		if err := config.WriteDefaultConfig(configPath); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", configPath)

		if initRepoURL == "" {
			return nil
		}
		dir := initDir
		if dir == "" {
			dir = "services"
		}
		executor := git.NewRealExecutor(dir)
		if err := executor.Clone(cmd.Context(), initRepoURL); err != nil {
			if errors.Is(err, git.ErrPathAlreadyExists) {
				fmt.Fprintf(os.Stderr, "%s already exists, skipping clone\n", dir)
			} else {
				return fmt.Errorf("cloning %s: %w", initRepoURL, err)
			}
		} else {
			fmt.Fprintf(os.Stderr, "cloned %s into %s\n", initRepoURL, dir)
		}
		fmt.Fprintf(os.Stderr, "set source.dir to %q in %s to finish setup\n", dir, configPath)
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the catalog from the source of truth",
	Long: `Pull the configuration repository, reload every service document,
revalidate the catalog and publish a new snapshot. Prints the validation
summary as JSON and fails when any service failed validation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEngine(true)
		if err != nil {
			return err
		}
		defer e.Close()

		summary, err := e.catalog.Sync(cmd.Context())
		if err != nil {
			return err
		}

		health := e.catalog.Health(cmd.Context())
		if health.Degraded {
			fmt.Fprintln(os.Stderr, "warning: remote unreachable, synced from the local checkout")
		}
		if err := printJSON(summary); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "synced %d services at generation %d\n",
			summary.Total(), health.Generation)
		if !summary.IsSuccessful() {
			return fmt.Errorf("%d of %d services failed validation",
				len(summary.Failed), summary.Total())
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Sync continuously as the source directory changes",
	Long: `Run an initial sync, then watch the source directory and re-sync
whenever a configuration file changes. Stops on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEngine(true)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		summary, err := e.catalog.Sync(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "synced %d services, watching %s\n",
			summary.Total(), e.store.BaseDir())

		dirs := []string{e.store.BaseDir()}
		if root, err := e.loader.LoadRoot(cfg.Source.RootFile); err == nil && root.Global.ConfigDir != "" {
			dirs = append(dirs, filepath.Join(e.store.BaseDir(), root.Global.ConfigDir))
		}
		w, err := watcher.New(watcher.Config{Dirs: dirs, DebounceDur: cfg.Watcher.Debounce})
		if err != nil {
			return fmt.Errorf("starting watcher: %w", err)
		}
		events, err := w.Start()
		if err != nil {
			return fmt.Errorf("starting watcher: %w", err)
		}
		defer w.Stop()

		for {
			select {
			case <-ctx.Done():
				fmt.Fprintln(os.Stderr, "stopping")
				return nil
			case <-events:
				summary, err := e.catalog.Sync(ctx)
				switch {
				case errors.Is(err, registry.ErrSuperseded), errors.Is(err, registry.ErrRegistryBusy):
					// Another sync got there first; its snapshot covers this change.
					log.Debug(log.CatWatcher, "sync skipped", "reason", err.Error())
				case err != nil:
					fmt.Fprintf(os.Stderr, "sync failed: %v\n", err)
				default:
					health := e.catalog.Health(ctx)
					fmt.Fprintf(os.Stderr, "synced %d services at generation %d\n",
						summary.Total(), health.Generation)
				}
			}
		}
	},
}

func init() {
	initCmd.Flags().StringVar(&initRepoURL, "repo", "", "Configuration repository to clone")
	initCmd.Flags().StringVar(&initDir, "dir", "", "Directory to clone into (default: services)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(watchCmd)
}

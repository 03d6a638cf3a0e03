package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/spiralhouse/aureacore/internal/domain/catalog"
	"github.com/spiralhouse/aureacore/internal/source"
)

// serviceDTO is the JSON shape catalog commands print.
type serviceDTO struct {
	ID        string   `json:"id"`
	Namespace string   `json:"namespace,omitempty"`
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Type      string   `json:"service_type,omitempty"`
	State     string   `json:"state"`
	Message   string   `json:"message,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
	DependsOn []string `json:"depends_on,omitempty"`
}

func toServiceDTO(svc catalog.Service) serviceDTO {
	dto := serviceDTO{
		ID:        svc.ID(),
		Namespace: svc.Namespace,
		Name:      svc.Name,
		Version:   svc.Config.Version,
		Type:      string(svc.Config.ServiceType),
		State:     string(svc.Status.State),
		Message:   svc.Status.Message,
		Warnings:  svc.Status.Warnings,
	}
	for _, dep := range svc.Config.Dependencies {
		dto.DependsOn = append(dto.DependsOn, dep.Ref(svc.Namespace))
	}
	return dto
}

var (
	catNamespace string
	catState     string
)

var catalogListCmd = &cobra.Command{
	Use:   "catalog:list",
	Short: "List all catalog services",
	Long: `List every service in the catalog as JSON.

Use --namespace to filter by namespace and --state to filter by lifecycle
state (pending, configured, error).

Examples:
  # List all services
  aureacore catalog:list

  # Filter by namespace
  aureacore catalog:list --namespace platform

  # Only services that failed validation
  aureacore catalog:list --state error

  # Parse specific fields with jq
  aureacore catalog:list | jq '.[].id'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEngine(false)
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.load(cmd.Context()); err != nil {
			return err
		}

		services, meta := e.catalog.List(cmd.Context())
		adviseMeta(meta)

		dtos := make([]serviceDTO, 0, len(services))
		for _, svc := range services {
			if catNamespace != "" && svc.Namespace != catNamespace {
				continue
			}
			if catState != "" && string(svc.Status.State) != catState {
				continue
			}
			dtos = append(dtos, toServiceDTO(svc))
		}
		return printJSON(dtos)
	},
}

var catalogGetCmd = &cobra.Command{
	Use:   "catalog:get <id>",
	Short: "Show one service with its dependencies and dependents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEngine(false)
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.load(cmd.Context()); err != nil {
			return err
		}

		svc, meta, err := e.catalog.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		adviseMeta(meta)

		dependents, _, err := e.catalog.Dependents(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		return printJSON(struct {
			serviceDTO
			Dependents []string `json:"dependents,omitempty"`
		}{toServiceDTO(svc), dependents})
	},
}

var regConfigPath string

var catalogRegisterCmd = &cobra.Command{
	Use:   "catalog:register <file>",
	Short: "Register a service from a configuration document",
	Long: `Validate a service configuration document and register it, writing the
document into the source directory and adding it to the root document so the
registration survives the next sync.

Examples:
  aureacore catalog:register billing.yaml
  aureacore catalog:register billing.yaml --namespace payments`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading service document: %w", err)
		}
		var svcCfg catalog.ServiceConfig
		if err := yaml.Unmarshal(data, &svcCfg); err != nil {
			return fmt.Errorf("parsing service document: %w", err)
		}
		if svcCfg.SchemaVersion == "" {
			svcCfg.SchemaVersion = catalog.CurrentSchemaVersion
		}

		e, err := newEngine(true)
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.load(cmd.Context()); err != nil {
			return err
		}

		root, err := e.loader.LoadRoot(cfg.Source.RootFile)
		if err != nil {
			return fmt.Errorf("loading root document: %w", err)
		}

		namespace := catNamespace
		if namespace == "" {
			namespace = root.Global.DefaultNamespace
		}

		if err := e.catalog.Register(cmd.Context(), namespace, svcCfg); err != nil {
			return err
		}

		// Registration validated against the live catalog; persist it to the
		// source of truth.
		configPath := regConfigPath
		if configPath == "" {
			configPath = svcCfg.Name + ".yaml"
		}
		if err := e.store.Save(filepath.Join(root.Global.ConfigDir, configPath), data); err != nil {
			return fmt.Errorf("writing service document: %w", err)
		}
		ref := source.ServiceRef{Name: svcCfg.Name, ConfigPath: configPath}
		if namespace != root.Global.DefaultNamespace {
			ref.Namespace = namespace
		}
		root.Services = append(root.Services, ref)
		if err := e.loader.SaveRoot(cfg.Source.RootFile, root); err != nil {
			return fmt.Errorf("updating root document: %w", err)
		}

		svc, _, err := e.catalog.Get(cmd.Context(), catalog.QualifiedName(namespace, svcCfg.Name))
		if err != nil {
			return err
		}
		return printJSON(toServiceDTO(svc))
	},
}

var catalogRemoveCmd = &cobra.Command{
	Use:   "catalog:remove <id>",
	Short: "Remove a service from the catalog",
	Long: `Remove a service. Refused while other services still require it;
dependents that reach it only through optional declarations survive.

The service's entry is dropped from the root document so the removal
survives the next sync. The configuration document itself is left in place.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEngine(true)
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.load(cmd.Context()); err != nil {
			return err
		}

		if err := e.catalog.Remove(cmd.Context(), args[0]); err != nil {
			return err
		}

		root, err := e.loader.LoadRoot(cfg.Source.RootFile)
		if err != nil {
			return fmt.Errorf("loading root document: %w", err)
		}
		kept := root.Services[:0]
		for _, ref := range root.Services {
			if ref.Qualified(root.Global.DefaultNamespace) != args[0] {
				kept = append(kept, ref)
			}
		}
		root.Services = kept
		if err := e.loader.SaveRoot(cfg.Source.RootFile, root); err != nil {
			return fmt.Errorf("updating root document: %w", err)
		}

		fmt.Fprintf(os.Stderr, "removed %s\n", args[0])
		return nil
	},
}

var catalogRollbackCmd = &cobra.Command{
	Use:   "catalog:rollback",
	Short: "Undo the latest catalog change",
	Long: `Republish the previous snapshot as a new generation, undoing the
latest register, update, remove or sync. Only one step back is kept; a
second rollback redoes the change. Fails when only one generation has ever
been published.

Note: rollback changes what the catalog serves, not the source of truth.
A later sync reapplies whatever the source repository says.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEngine(false)
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.load(cmd.Context()); err != nil {
			return err
		}

		if err := e.catalog.Rollback(cmd.Context()); err != nil {
			return err
		}
		return printJSON(e.catalog.Health(cmd.Context()))
	},
}

var catalogValidateCmd = &cobra.Command{
	Use:   "catalog:validate [file]",
	Short: "Validate a service document or the whole catalog",
	Long: `With a file argument, validate that single service configuration
document and print its warnings.

Without arguments, sync the catalog from the source of truth and print the
validation summary; the command fails when any service failed validation.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return validateDocument(args[0])
		}

		e, err := newEngine(true)
		if err != nil {
			return err
		}
		defer e.Close()

		summary, err := e.catalog.Sync(cmd.Context())
		if err != nil {
			return err
		}
		if err := printJSON(summary); err != nil {
			return err
		}
		if !summary.IsSuccessful() {
			return fmt.Errorf("%d of %d services failed validation",
				len(summary.Failed), summary.Total())
		}
		return nil
	},
}

func validateDocument(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading service document: %w", err)
	}
	var svcCfg catalog.ServiceConfig
	if err := yaml.Unmarshal(data, &svcCfg); err != nil {
		return fmt.Errorf("parsing service document: %w", err)
	}
	if svcCfg.SchemaVersion == "" {
		svcCfg.SchemaVersion = catalog.CurrentSchemaVersion
	}

	warnings, err := svcCfg.Validate()
	for _, warning := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "%s is valid\n", path)
	return nil
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Report catalog health",
	Long: `Print the catalog's condition as JSON: snapshot generation and age,
service counts, services in error state, and whether the source of truth
was reachable on the last sync.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEngine(false)
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.load(cmd.Context()); err != nil {
			return err
		}

		return printJSON(e.catalog.Health(cmd.Context()))
	},
}

func init() {
	catalogListCmd.Flags().StringVarP(&catNamespace, "namespace", "n", "", "Filter by namespace")
	catalogListCmd.Flags().StringVar(&catState, "state", "", "Filter by state (pending, configured, error)")
	catalogRegisterCmd.Flags().StringVarP(&catNamespace, "namespace", "n", "", "Namespace for the new service (default: root document default)")
	catalogRegisterCmd.Flags().StringVar(&regConfigPath, "path", "", "Document path inside the config directory (default: <name>.yaml)")

	rootCmd.AddCommand(catalogListCmd)
	rootCmd.AddCommand(catalogGetCmd)
	rootCmd.AddCommand(catalogRegisterCmd)
	rootCmd.AddCommand(catalogRemoveCmd)
	rootCmd.AddCommand(catalogRollbackCmd)
	rootCmd.AddCommand(catalogValidateCmd)
	rootCmd.AddCommand(healthCmd)
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	appcat "github.com/spiralhouse/aureacore/internal/application/catalog"
)

var graphResolveCmd = &cobra.Command{
	Use:   "graph:resolve [id...]",
	Short: "Print services in dependency order",
	Long: `Print a topological ordering of the catalog as a JSON array:
dependencies always appear before their dependents. With service ids as
arguments, the ordering covers only those services and everything they
transitively depend on.

Examples:
  # Order the whole catalog
  aureacore graph:resolve

  # Everything platform/billing needs, in start order
  aureacore graph:resolve platform/billing`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEngine(false)
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.load(cmd.Context()); err != nil {
			return err
		}

		order, meta, err := e.catalog.ResolveOrder(cmd.Context(), args...)
		if err != nil {
			return err
		}
		adviseMeta(meta)
		return printJSON(order)
	},
}

var graphCyclesCmd = &cobra.Command{
	Use:   "graph:cycles",
	Short: "Detect dependency cycles",
	Long: `Report every dependency cycle in the catalog. The command exits
non-zero when any cycle exists, so it can gate CI.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEngine(false)
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.load(cmd.Context()); err != nil {
			return err
		}

		cycles, meta := e.catalog.Cycles(cmd.Context())
		adviseMeta(meta)

		rendered := make([]string, 0, len(cycles))
		for _, cycle := range cycles {
			rendered = append(rendered, cycle.String())
		}
		if err := printJSON(rendered); err != nil {
			return err
		}
		if len(cycles) > 0 {
			return fmt.Errorf("%d dependency cycle(s) detected", len(cycles))
		}
		return nil
	},
}

type impactDTO struct {
	Service  string   `json:"service"`
	Path     []string `json:"path"`
	Critical bool     `json:"critical"`
}

var graphImpactCmd = &cobra.Command{
	Use:   "graph:impact <id>",
	Short: "Show what a service failure would take down",
	Long: `List every service that transitively depends on the given one,
with a shortest dependency path from each and whether the exposure runs
entirely through required dependencies (critical) or crosses at least one
optional edge.

Examples:
  aureacore graph:impact platform/db

  # Only critical exposure
  aureacore graph:impact platform/db | jq '.[] | select(.critical)'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEngine(false)
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.load(cmd.Context()); err != nil {
			return err
		}

		impacts, meta, err := e.catalog.Impact(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		adviseMeta(meta)

		dtos := make([]impactDTO, 0, len(impacts))
		for _, impact := range impacts {
			dtos = append(dtos, impactDTO{
				Service:  impact.Service,
				Path:     impact.Path,
				Critical: impact.Critical,
			})
		}
		return printJSON(dtos)
	},
}

var depsReverse bool

var graphDepsCmd = &cobra.Command{
	Use:   "graph:deps <id>",
	Short: "List a service's direct dependencies",
	Long: `List the services the given one depends on directly. With
--reverse, list the services that depend on it instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEngine(false)
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.load(cmd.Context()); err != nil {
			return err
		}

		var (
			ids  []string
			meta appcat.Meta
		)
		if depsReverse {
			ids, meta, err = e.catalog.Dependents(cmd.Context(), args[0])
		} else {
			ids, meta, err = e.catalog.Dependencies(cmd.Context(), args[0])
		}
		if err != nil {
			return err
		}
		adviseMeta(meta)
		return printJSON(ids)
	},
}

func init() {
	graphDepsCmd.Flags().BoolVarP(&depsReverse, "reverse", "r", false, "List dependents instead of dependencies")

	rootCmd.AddCommand(graphResolveCmd)
	rootCmd.AddCommand(graphCyclesCmd)
	rootCmd.AddCommand(graphImpactCmd)
	rootCmd.AddCommand(graphDepsCmd)
}

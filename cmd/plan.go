// File: cmd/plan.go
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lumiralabs/berry/internal/observability"
	"github.com/lumiralabs/berry/internal/orchestrator"
)

var planCmd = &cobra.Command{
	Use:   "plan [app description]",
	Short: "Compile an app description into a project specification",
	Long:  "Extracts the product intent from the description and compiles it into a validated project specification, persisted under the specs directory for later `code`, `repair` and `db` runs.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pipeline, err := orchestrator.New(appCfg, observability.GetLogger())
		if err != nil {
			return err
		}
		defer pipeline.Close()

		spec, err := pipeline.Plan(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		fmt.Printf("Specification for %q compiled: %d pages, %d components, %d API routes, %d tables\n",
			spec.Name, len(spec.Pages), len(spec.Components), len(spec.APIRoutes), len(spec.Database))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
}

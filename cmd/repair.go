// File: cmd/repair.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumiralabs/berry/internal/observability"
	"github.com/lumiralabs/berry/internal/orchestrator"
)

var repairDir string

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Build the project and repair failures in place",
	Long:  "Loads the project from disk and runs the bounded verify/analyze/repair loop against it, leaving the tree in its last-repaired state if the budget runs out.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pipeline, err := orchestrator.New(appCfg, observability.GetLogger())
		if err != nil {
			return err
		}
		defer pipeline.Close()

		session, err := pipeline.Repair(cmd.Context(), repairDir)
		reportSession(session)
		if err != nil {
			return err
		}
		fmt.Println("Build verified")
		return nil
	},
}

func init() {
	repairCmd.Flags().StringVar(&repairDir, "dir", ".", "project directory")
	rootCmd.AddCommand(repairCmd)
}

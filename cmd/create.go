// File: cmd/create.go
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lumiralabs/berry/internal/observability"
	"github.com/lumiralabs/berry/internal/orchestrator"
)

var createDir string

var createCmd = &cobra.Command{
	Use:   "create [app description]",
	Short: "Plan, scaffold and generate an app in one run",
	Long:  "Runs the whole pipeline: compiles the specification from the description, clones the boilerplate template, generates the code, and builds and repairs until green.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pipeline, err := orchestrator.New(appCfg, observability.GetLogger())
		if err != nil {
			return err
		}
		defer pipeline.Close()

		ctx := cmd.Context()
		spec, err := pipeline.Plan(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}

		dir := createDir
		if dir == "" {
			dir = spec.Name
		}
		if err := pipeline.Scaffold(ctx, dir); err != nil {
			return err
		}

		session, err := pipeline.Generate(ctx, spec, dir)
		reportSession(session)
		if err != nil {
			return err
		}
		fmt.Printf("Project %q created in %s\n", spec.Name, dir)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createDir, "dir", "", "project directory (defaults to the project name)")
	rootCmd.AddCommand(createCmd)
}

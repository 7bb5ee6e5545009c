// File: cmd/status.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumiralabs/berry/internal/orchestrator"
	"github.com/lumiralabs/berry/internal/speccompiler"
)

var statusDir string

var statusCmd = &cobra.Command{
	Use:   "status <project-name>",
	Short: "Report the on-disk state of a project",
	Long:  "Checks which pipeline artifacts exist for the named project: the compiled spec, the scaffold, installed dependencies, backend credentials and database migrations. Makes no model calls.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		dir := statusDir
		if dir == "" {
			dir = name
		}

		specPath := speccompiler.SpecPath(appCfg.Specs.Dir, name)
		status := orchestrator.InspectProject(specPath, dir)

		fmt.Printf("Project %q (%s)\n", name, dir)
		fmt.Printf("  spec:         %s\n", presence(status.SpecPresent, specPath, "not compiled (run `berry plan`)"))
		fmt.Printf("  scaffold:     %s\n", presence(status.ScaffoldPresent, "present", "missing (run `berry new`)"))
		fmt.Printf("  dependencies: %s\n", presence(status.DependenciesInstalled, "installed", "not installed"))
		fmt.Printf("  env:          %s\n", presence(status.EnvConfigured, ".env.local written", "not configured (run `berry db setup`)"))
		fmt.Printf("  migrations:   %d\n", status.MigrationCount)
		return nil
	},
}

func presence(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}

func init() {
	statusCmd.Flags().StringVar(&statusDir, "dir", "", "project directory (defaults to the project name)")
	rootCmd.AddCommand(statusCmd)
}

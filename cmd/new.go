// File: cmd/new.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumiralabs/berry/internal/observability"
	"github.com/lumiralabs/berry/internal/scaffold"
)

var newCmd = &cobra.Command{
	Use:   "new [directory]",
	Short: "Create an empty project from the boilerplate template",
	Long:  "Clones the boilerplate template into the given directory, strips its history and initializes a fresh repository. No model calls are made.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager := scaffold.NewManager(appCfg.Scaffold.TemplateURL, observability.GetLogger())
		if err := manager.Clone(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Project scaffold created in %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newCmd)
}

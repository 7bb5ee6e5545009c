// File: cmd/code.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumiralabs/berry/api/schemas"
	"github.com/lumiralabs/berry/internal/observability"
	"github.com/lumiralabs/berry/internal/orchestrator"
)

var codeDir string

var codeCmd = &cobra.Command{
	Use:   "code [project name]",
	Short: "Generate the project's code from its compiled specification",
	Long:  "Synthesizes API routes, components and pages from the persisted specification, assembles them onto the project scaffold, then builds and repairs until the build is green or the attempt budget runs out.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pipeline, err := orchestrator.New(appCfg, observability.GetLogger())
		if err != nil {
			return err
		}
		defer pipeline.Close()

		spec, err := pipeline.LoadSpec(args[0])
		if err != nil {
			return err
		}

		session, err := pipeline.Generate(cmd.Context(), spec, codeDir)
		reportSession(session)
		if err != nil {
			return err
		}
		fmt.Printf("Project %q generated and verified in %s\n", spec.Name, codeDir)
		return nil
	},
}

// reportSession prints the repair outcome for terminal sessions.
func reportSession(session *schemas.RepairSession) {
	if session == nil {
		return
	}
	switch session.Status {
	case schemas.SessionSucceeded:
		if session.Attempts > 0 {
			fmt.Printf("Build repaired after %d attempt(s), %d file write(s)\n",
				session.Attempts, len(session.WriteActions()))
		}
	case schemas.SessionExhausted:
		fmt.Printf("Repair budget exhausted after %d attempt(s); the project is preserved for manual inspection\n",
			session.Attempts)
	}
}

func init() {
	codeCmd.Flags().StringVar(&codeDir, "dir", ".", "project directory")
	rootCmd.AddCommand(codeCmd)
}

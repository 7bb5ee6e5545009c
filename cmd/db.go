// File: cmd/db.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumiralabs/berry/internal/observability"
	"github.com/lumiralabs/berry/internal/orchestrator"
	"github.com/lumiralabs/berry/internal/supabase"
)

var dbDir string

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the project's Supabase backend",
}

var dbSetupCmd = &cobra.Command{
	Use:   "setup [project name]",
	Short: "Write credentials, generate the initial migration and push it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.GetLogger()
		pipeline, err := orchestrator.New(appCfg, logger)
		if err != nil {
			return err
		}
		defer pipeline.Close()

		spec, err := pipeline.LoadSpec(args[0])
		if err != nil {
			return err
		}

		agent := supabase.NewSetupAgent(pipeline.LLMClient(), appCfg.Supabase, logger)
		if err := agent.WriteEnv(dbDir); err != nil {
			return err
		}

		sql, err := agent.GenerateMigration(cmd.Context(), spec)
		if err != nil {
			return err
		}
		path, err := agent.WriteMigration(dbDir, sql)
		if err != nil {
			return err
		}
		fmt.Printf("Migration written to %s\n", path)

		if err := agent.Push(cmd.Context(), dbDir); err != nil {
			return err
		}
		fmt.Println("Database schema pushed")
		return nil
	},
}

var dbPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push pending migrations to the backend",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		agent := supabase.NewSetupAgent(nil, appCfg.Supabase, observability.GetLogger())
		if err := agent.Push(cmd.Context(), dbDir); err != nil {
			return err
		}
		fmt.Println("Database schema pushed")
		return nil
	},
}

func init() {
	dbCmd.PersistentFlags().StringVar(&dbDir, "dir", ".", "project directory")
	dbCmd.AddCommand(dbSetupCmd)
	dbCmd.AddCommand(dbPushCmd)
	rootCmd.AddCommand(dbCmd)
}

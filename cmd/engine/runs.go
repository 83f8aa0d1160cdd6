package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"resumerank-engine/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List, show and delete stored runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := loadApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := store.ListRuns(cmd.Context(), a.db.Pool, store.ListRunsOpts{Limit: limit})
		if err != nil {
			return err
		}
		if asJSON {
			if runs == nil {
				runs = []store.Run{}
			}
			return writeJSONTo(cmd.OutOrStdout(), runs)
		}
		printRuns(cmd.OutOrStdout(), runs)
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print the ranking of a stored run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := loadApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		run, err := store.GetRun(cmd.Context(), a.db.Pool, args[0])
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSONTo(cmd.OutOrStdout(), run)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "run %s  %s  source=%s\n\n", run.ID, run.CreatedAt.Local().Format("2006-01-02 15:04:05"), run.Source)
		printRanking(cmd.OutOrStdout(), run.Ranking)
		return nil
	},
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a stored run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		ok, err := store.DeleteRun(cmd.Context(), a.db.Pool, args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("run %s: %w", args[0], store.ErrNotFound)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

func init() {
	runsListCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	runsListCmd.Flags().Bool("json", false, "output runs as JSON")
	runsShowCmd.Flags().Bool("json", false, "output the run as JSON")

	runsCmd.AddCommand(runsListCmd, runsShowCmd, runsDeleteCmd)
	rootCmd.AddCommand(runsCmd)
}

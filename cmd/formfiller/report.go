package main

import (
	"fmt"

	"form-filler/internal/infrastructure/store/sqlite"
	"form-filler/internal/infrastructure/userinteraction"
	"form-filler/internal/usecase/batch"

	"github.com/spf13/cobra"
)

func newReportCmd(flags *rootFlags) *cobra.Command {
	var unknown int
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the report of a stored run (the latest by default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig(cmd)
			if err != nil {
				return err
			}
			db, err := sqlite.Open(cfg.Output.ResultsDB, nil)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			runID := flags.runID
			if runID == "" {
				if runID, err = db.LatestRun(ctx); err != nil {
					return err
				}
			}
			results, err := db.Results(ctx, runID)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				return fmt.Errorf("run %s has no results", runID)
			}

			defaults := batch.DefaultConfig()
			out := cmd.OutOrStdout()
			userinteraction.NewConsoleReporter(out).ShowReport(ctx, batch.BuildReport(runID, results, defaults.TopReasons))

			if unknown <= 0 {
				return nil
			}
			patterns, err := db.UnknownPatterns(ctx, unknown)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nUnknown patterns (%d):\n", len(patterns))
			for _, p := range patterns {
				fmt.Fprintf(out, "  %s %s %q\n", p.Timestamp.Format("2006-01-02 15:04:05"), p.ElementType, p.CombinedText)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&unknown, "unknown", 0, "also list the N most recent unknown patterns")
	return cmd
}

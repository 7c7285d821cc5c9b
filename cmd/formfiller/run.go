package main

import (
	"fmt"

	"form-filler/internal/domain/entity"
	"form-filler/internal/usecase/batch"

	"github.com/spf13/cobra"
)

func newRunCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run <url>",
		Short: "Process a single page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := args[0]
			if err := batch.ValidateURL(url); err != nil {
				return err
			}

			c, ctx, cancel, err := flags.container(cmd, "run_"+url)
			if err != nil {
				return err
			}
			defer cancel()
			defer c.Close()

			c.Logger.Info("Run started", "url", url, "run_id", c.Processor.RunID())
			results, _, err := c.Batch.Run(ctx, []string{url})
			if err != nil {
				return err
			}
			if len(results) == 1 && results[0].Outcome != entity.OutcomeSuccess {
				return fmt.Errorf("%s: %s", results[0].Outcome, results[0].Reason)
			}
			return nil
		},
	}
}

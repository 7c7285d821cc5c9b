package main

import (
	"fmt"
	"os"

	"form-filler/internal/usecase/batch"

	"github.com/spf13/cobra"
)

func newBatchCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "batch <csv>",
		Short: `Process every URL from the "Website URL" column of a CSV file`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open urls: %w", err)
			}
			urls, err := batch.ReadURLs(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if len(urls) == 0 {
				return fmt.Errorf("%s: no URLs", args[0])
			}

			c, ctx, cancel, err := flags.container(cmd, "batch")
			if err != nil {
				return err
			}
			defer cancel()
			defer c.Close()

			c.Logger.Info("Batch started", "file", args[0], "urls", len(urls), "run_id", c.Processor.RunID())
			_, report, err := c.Batch.Run(ctx, urls)
			if err != nil {
				c.Logger.Warn("Batch interrupted", "processed", report.Total, "error", err)
				return err
			}
			return nil
		},
	}
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"form-filler/internal/di"
	"form-filler/internal/infrastructure/config"
	"form-filler/internal/infrastructure/env"

	"github.com/spf13/cobra"
)

type rootFlags struct {
	configFile  string
	prefillFile string
	envDir      string
	runID       string
	headless    bool
	stealth     bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "formfiller",
		Short:         "Detects, fills and submits contact forms with a headless browser",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config", "c", "", "config file (default is ./config.yaml)")
	pf.StringVarP(&flags.prefillFile, "prefill", "p", "", "prefill data file, JSON or YAML (overrides prefill.file)")
	pf.StringVar(&flags.envDir, "env-dir", ".", "directory with .env files")
	pf.StringVar(&flags.runID, "run-id", "", "run identifier (default is a random UUID)")
	pf.BoolVar(&flags.headless, "headless", true, "run the browser headless (overrides browser.headless)")
	pf.BoolVar(&flags.stealth, "stealth", true, "enable fingerprint evasion (overrides browser.stealth)")

	root.AddCommand(newRunCmd(flags), newBatchCmd(flags), newReportCmd(flags))
	return root
}

// loadConfig applies explicitly set flags over the file and environment.
func (f *rootFlags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(f.configFile)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = f.headless
	}
	if cmd.Flags().Changed("stealth") {
		cfg.Browser.Stealth = f.stealth
	}
	return cfg, nil
}

// container builds the processing stack and a context cancelled on SIGINT
// or SIGTERM.
func (f *rootFlags) container(cmd *cobra.Command, name string) (*di.Container, context.Context, context.CancelFunc, error) {
	envService := env.NewEnvService(f.envDir, nil)

	cfg, err := f.loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	c, err := di.NewContainer(ctx, cfg, di.Options{
		Name:        name,
		RunID:       f.runID,
		PrefillFile: f.prefillFile,
		Env:         envService,
	})
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return c, ctx, cancel, nil
}

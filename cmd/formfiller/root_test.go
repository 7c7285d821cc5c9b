package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"form-filler/internal/domain/entity"
	"form-filler/internal/infrastructure/store/sqlite"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Commands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"run", "batch", "report"}, names)
	assert.NotNil(t, root.PersistentFlags().Lookup("prefill"))
}

func TestRunCmd_RejectsBadURL(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"run", "ftp://example.com"})

	err := root.Execute()
	assert.Error(t, err)
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	root := newRootCmd()
	require.NoError(t, root.ParseFlags([]string{"--headless=false"}))

	flags := &rootFlags{headless: false}
	cfg, err := flags.loadConfig(root)
	require.NoError(t, err)
	assert.False(t, cfg.Browser.Headless)
	assert.True(t, cfg.Browser.Stealth)
}

func TestReportCmd(t *testing.T) {
	color.NoColor = true
	dir := t.TempDir()
	t.Chdir(dir)
	dbPath := filepath.Join(dir, "results.db")
	t.Setenv("FORMFILLER_OUTPUT_RESULTS_DB", dbPath)

	db, err := sqlite.Open(dbPath, nil)
	require.NoError(t, err)
	ok := entity.NewPageResult("run-7", "https://a.test")
	ok.Outcome = entity.OutcomeSuccess
	ok.Timestamp = time.UnixMilli(1_700_000_000_000)
	bad := entity.NewPageResult("run-7", "https://b.test")
	bad.Reason = "could not find submit button"
	bad.Timestamp = ok.Timestamp.Add(time.Second)
	require.NoError(t, db.SaveResults(context.Background(), []entity.PageResult{ok, bad}))
	require.NoError(t, db.Close())

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"report"})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "Run:             run-7")
	assert.Contains(t, out.String(), "Successful:      1 (50.0%)")
	assert.Contains(t, out.String(), "1. could not find submit button (1)")
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.Equal(t, 50.0, cfg.OCR.MinConfidence)
	assert.True(t, cfg.OCR.LiveTrace)
	assert.Equal(t, 100, cfg.OCR.LiveTracePreviewChars)
	assert.True(t, cfg.Advanced.UseMiniLM)
	assert.True(t, cfg.Advanced.LogUnknownPatterns)
	assert.Equal(t, 70.0, cfg.Advanced.MinConfidence)
	assert.Equal(t, "all-MiniLM-L6-v2", cfg.Embedding.Model)
	assert.Equal(t, 10*time.Second, cfg.Embedding.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, 40, cfg.Vision.MinWidth)
	assert.Equal(t, 18, cfg.Vision.MinHeight)
	assert.Equal(t, 2*time.Second, cfg.Batch.Delay)
	assert.Equal(t, "form_submission_results.csv", cfg.Output.ResultsCSV)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
ocr:
  language: deu
  min_confidence: 65
advanced:
  use_minilm: false
browser:
  navigation_timeout: 45s
output:
  results_csv: out/results.csv
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("FORMFILLER_OCR_LANGUAGE", "fra")
	t.Setenv("FORMFILLER_BROWSER_HEADLESS", "false")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "fra", cfg.OCR.Language)
	assert.Equal(t, 65.0, cfg.OCR.MinConfidence)
	assert.False(t, cfg.Advanced.UseMiniLM)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 45*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, "out/results.csv", cfg.Output.ResultsCSV)
	assert.True(t, cfg.Browser.Stealth)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ocr:\n  min_confidence: 150\n"), 0o600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "ocr.min_confidence")
}

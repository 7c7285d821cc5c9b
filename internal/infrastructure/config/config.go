// Package config loads run settings from config.yaml with FORMFILLER_
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "FORMFILLER"

type Config struct {
	OCR       OCRConfig       `mapstructure:"ocr"`
	Advanced  AdvancedConfig  `mapstructure:"advanced"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Browser   BrowserConfig   `mapstructure:"browser"`
	Vision    VisionConfig    `mapstructure:"vision"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Output    OutputConfig    `mapstructure:"output"`
	Log       LogConfig       `mapstructure:"log"`
	Prefill   PrefillConfig   `mapstructure:"prefill"`
}

type OCRConfig struct {
	Language              string  `mapstructure:"language"`
	MinConfidence         float64 `mapstructure:"min_confidence"`
	LiveTrace             bool    `mapstructure:"live_trace"`
	LiveTracePreviewChars int     `mapstructure:"live_trace_preview_chars"`
}

type AdvancedConfig struct {
	UseMiniLM          bool    `mapstructure:"use_minilm"`
	LogUnknownPatterns bool    `mapstructure:"log_unknown_patterns"`
	MinConfidence      float64 `mapstructure:"min_confidence"`
}

type EmbeddingConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
	// APIKeyEnv names the environment variable holding the key.
	APIKeyEnv string `mapstructure:"api_key_env"`
}

type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless"`
	Stealth           bool          `mapstructure:"stealth"`
	NoSandbox         bool          `mapstructure:"no_sandbox"`
	Bin               string        `mapstructure:"bin"`
	Timeout           time.Duration `mapstructure:"timeout"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	ViewportWidth     int           `mapstructure:"viewport_width"`
	ViewportHeight    int           `mapstructure:"viewport_height"`
}

type VisionConfig struct {
	MinWidth  int `mapstructure:"min_width"`
	MinHeight int `mapstructure:"min_height"`
}

type BatchConfig struct {
	Delay time.Duration `mapstructure:"delay"`
}

type OutputConfig struct {
	ResultsCSV               string `mapstructure:"results_csv"`
	ResultsDB                string `mapstructure:"results_db"`
	LiveOCRDir               string `mapstructure:"live_ocr_dir"`
	AnnotatedScreenshotsDir  string `mapstructure:"annotated_screenshots_dir"`
	SaveAnnotatedScreenshots bool   `mapstructure:"save_annotated_screenshots"`
	ScreenshotsDir           string `mapstructure:"screenshots_dir"`
	UnknownPatternsLog       string `mapstructure:"unknown_patterns_log"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	File    string `mapstructure:"file"`
	Dir     string `mapstructure:"dir"`
	Console bool   `mapstructure:"console"`
}

type PrefillConfig struct {
	File string `mapstructure:"file"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.min_confidence", 50)
	v.SetDefault("ocr.live_trace", true)
	v.SetDefault("ocr.live_trace_preview_chars", 100)

	v.SetDefault("advanced.use_minilm", true)
	v.SetDefault("advanced.log_unknown_patterns", true)
	v.SetDefault("advanced.min_confidence", 70)

	v.SetDefault("embedding.endpoint", "")
	v.SetDefault("embedding.model", "all-MiniLM-L6-v2")
	v.SetDefault("embedding.timeout", "10s")
	v.SetDefault("embedding.api_key_env", "EMBEDDING_API_KEY")

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.stealth", true)
	v.SetDefault("browser.no_sandbox", true)
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.timeout", "5s")
	v.SetDefault("browser.navigation_timeout", "30s")
	v.SetDefault("browser.viewport_width", 1280)
	v.SetDefault("browser.viewport_height", 800)

	v.SetDefault("vision.min_width", 40)
	v.SetDefault("vision.min_height", 18)

	v.SetDefault("batch.delay", "2s")

	v.SetDefault("output.results_csv", "form_submission_results.csv")
	v.SetDefault("output.results_db", "form_results.db")
	v.SetDefault("output.live_ocr_dir", "live_ocr")
	v.SetDefault("output.annotated_screenshots_dir", "annotated_screenshots")
	v.SetDefault("output.save_annotated_screenshots", true)
	v.SetDefault("output.screenshots_dir", "screenshots")
	v.SetDefault("output.unknown_patterns_log", "unknown_patterns.jsonl")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.dir", "log")
	v.SetDefault("log.console", true)

	v.SetDefault("prefill.file", "prefill.yaml")
}

// Load reads path when it is non-empty, otherwise config.yaml from the
// working directory if present. A missing default file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.OCR.MinConfidence < 0 || c.OCR.MinConfidence > 100 {
		return fmt.Errorf("ocr.min_confidence must be within [0,100], got %v", c.OCR.MinConfidence)
	}
	if c.Advanced.MinConfidence < 0 || c.Advanced.MinConfidence > 100 {
		return fmt.Errorf("advanced.min_confidence must be within [0,100], got %v", c.Advanced.MinConfidence)
	}
	if c.Vision.MinWidth <= 0 || c.Vision.MinHeight <= 0 {
		return fmt.Errorf("vision.min_width and vision.min_height must be positive")
	}
	if c.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("browser.navigation_timeout must be positive")
	}
	return nil
}

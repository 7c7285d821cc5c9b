package di

import (
	"context"
	"errors"
	"fmt"
	"os"

	"form-filler/internal/application/port/output"
	"form-filler/internal/infrastructure/browser/rod"
	"form-filler/internal/infrastructure/config"
	"form-filler/internal/infrastructure/diagnostics"
	embedding "form-filler/internal/infrastructure/embedding/openai"
	"form-filler/internal/infrastructure/logger"
	"form-filler/internal/infrastructure/ocr/tesseract"
	prefillfile "form-filler/internal/infrastructure/prefill"
	"form-filler/internal/infrastructure/store"
	"form-filler/internal/infrastructure/store/csvresults"
	"form-filler/internal/infrastructure/store/sqlite"
	"form-filler/internal/infrastructure/userinteraction"
	"form-filler/internal/usecase/batch"
	"form-filler/internal/usecase/classifier"
	"form-filler/internal/usecase/evaluator"
	"form-filler/internal/usecase/filler"
	"form-filler/internal/usecase/fusion"
	"form-filler/internal/usecase/harvest"
	"form-filler/internal/usecase/ocrtext"
	"form-filler/internal/usecase/pipeline"
	"form-filler/internal/usecase/prefill"
	"form-filler/internal/usecase/submitter"
	"form-filler/internal/usecase/verifier"
	"form-filler/internal/usecase/vision"
)

type Container struct {
	Config    *config.Config
	Logger    output.LoggerPort
	Browser   output.BrowserPort
	Store     *sqlite.Store
	Processor *pipeline.Processor
	Batch     *batch.Runner

	ocr output.OCRPort
}

type Options struct {
	// Name labels the log file.
	Name  string
	RunID string
	// PrefillFile overrides prefill.file from the config.
	PrefillFile string
	Env         output.EnvPort
}

func NewContainer(ctx context.Context, cfg *config.Config, opts Options) (*Container, error) {
	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.File = cfg.Log.File
	logCfg.Dir = cfg.Log.Dir
	logCfg.Console = cfg.Log.Console
	log, err := logger.New(opts.Name, logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	c := &Container{Config: cfg, Logger: log}

	db, err := sqlite.Open(cfg.Output.ResultsDB, log.Named("store"))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to open results db: %w", err)
	}
	c.Store = db

	browserCfg := rod.DefaultConfig()
	browserCfg.Headless = cfg.Browser.Headless
	browserCfg.Stealth = cfg.Browser.Stealth
	browserCfg.NoSandbox = cfg.Browser.NoSandbox
	browserCfg.Bin = cfg.Browser.Bin
	browserCfg.Timeout = cfg.Browser.Timeout
	browserCfg.NavigationTimeout = cfg.Browser.NavigationTimeout
	browserCfg.ViewportWidth = cfg.Browser.ViewportWidth
	browserCfg.ViewportHeight = cfg.Browser.ViewportHeight
	browser, err := rod.NewBrowserAdapter(ctx, browserCfg, log.Named("browser"))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create browser: %w", err)
	}
	c.Browser = browser

	data, err := loadPrefill(opts.PrefillFile, cfg.Prefill.File, log)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.ocr = newOCR(cfg, log)
	embedder := newEmbedder(cfg, opts.Env, log)

	var patterns output.UnknownPatternSink
	if cfg.Advanced.LogUnknownPatterns {
		patterns = store.Patterns{diagnostics.NewUnknownLog(cfg.Output.UnknownPatternsLog), db}
	}

	clsCfg := classifier.DefaultConfig()
	clsCfg.Thresholds.MinConfidence = cfg.Advanced.MinConfidence
	clsCfg.UseSemantic = cfg.Advanced.UseMiniLM && embedder != nil
	clsCfg.LogUnknown = cfg.Advanced.LogUnknownPatterns

	visionCfg := vision.DefaultConfig()
	visionCfg.MinWidth = cfg.Vision.MinWidth
	visionCfg.MinHeight = cfg.Vision.MinHeight

	ocrCfg := ocrtext.DefaultConfig()
	ocrCfg.MinConfidence = cfg.OCR.MinConfidence

	pipeCfg := pipeline.DefaultConfig()
	pipeCfg.RunID = opts.RunID
	pipeCfg.LiveTrace = cfg.OCR.LiveTrace
	pipeCfg.PreviewChars = cfg.OCR.LiveTracePreviewChars
	pipeCfg.Annotate = cfg.Output.SaveAnnotatedScreenshots

	harvester := harvest.New(log.Named("harvest"))
	deps := pipeline.Deps{
		Browser:    browser,
		Detector:   vision.New(visionCfg, log.Named("vision")),
		OCR:        ocrtext.New(c.ocr, ocrCfg, log.Named("ocr")),
		Harvester:  harvester,
		Fuser:      fusion.New(harvester, fusion.DefaultConfig(), log.Named("fusion")),
		Classifier: classifier.New(clsCfg, embedder, patterns, log.Named("classifier")),
		Prefill:    prefill.NewResolver(data),
		Filler:     filler.New(filler.DefaultConfig(), log.Named("filler")),
		Verifier:   verifier.New(log.Named("verifier")),
		Submitter:  submitter.New(submitter.DefaultConfig(), log.Named("submitter")),
		Evaluator:  evaluator.New(evaluator.DefaultConfig(), log.Named("evaluator")),
		Shots:      diagnostics.NewScreenshotStore(cfg.Output.ScreenshotsDir),
		Logger:     log.Named("pipeline"),
	}
	if cfg.OCR.LiveTrace {
		deps.Traces = diagnostics.NewTraceWriter(cfg.Output.LiveOCRDir, log.Named("trace"))
	}
	if cfg.Output.SaveAnnotatedScreenshots {
		deps.Annotator = diagnostics.NewAnnotator(cfg.Output.AnnotatedScreenshotsDir, log.Named("annotate"))
	}
	c.Processor = pipeline.New(pipeCfg, deps)

	results := store.Results{csvresults.NewWriter(cfg.Output.ResultsCSV, log.Named("csv")), db}
	batchCfg := batch.DefaultConfig()
	batchCfg.RunID = c.Processor.RunID()
	batchCfg.Delay = cfg.Batch.Delay
	c.Batch = batch.New(c.Processor, results, userinteraction.NewConsoleReporter(nil), batchCfg, log.Named("batch"))

	return c, nil
}

func (c *Container) Close() {
	if c.Browser != nil {
		c.Browser.Close()
	}
	if c.ocr != nil {
		_ = c.ocr.Close()
	}
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}

func loadPrefill(override, configured string, log output.LoggerPort) (prefill.Data, error) {
	path := override
	if path == "" {
		path = configured
	}
	data, err := prefillfile.Load(path)
	if err == nil {
		log.Info("Prefill data loaded", "path", path, "keys", len(data))
		return data, nil
	}
	// явно указанный файл обязателен, файл из конфига нет
	if override == "" && errors.Is(err, os.ErrNotExist) {
		log.Warn("Prefill file not found, every field will miss its value", "path", path)
		return prefill.Data{}, nil
	}
	return nil, fmt.Errorf("failed to load prefill data: %w", err)
}

// newOCR returns nil when tesseract is unavailable; the extractor then
// runs without OCR text.
func newOCR(cfg *config.Config, log output.LoggerPort) output.OCRPort {
	ocrCfg := tesseract.DefaultConfig()
	ocrCfg.Language = cfg.OCR.Language
	engine, err := tesseract.New(ocrCfg, log.Named("tesseract"))
	if err != nil {
		log.Warn("OCR disabled", "error", err)
		return nil
	}
	return engine
}

func newEmbedder(cfg *config.Config, env output.EnvPort, log output.LoggerPort) output.EmbedderPort {
	if !cfg.Advanced.UseMiniLM || cfg.Embedding.Endpoint == "" {
		return nil
	}
	apiKey := ""
	if env != nil && cfg.Embedding.APIKeyEnv != "" {
		apiKey = env.Get(cfg.Embedding.APIKeyEnv)
	}
	embCfg := embedding.DefaultConfig(cfg.Embedding.Endpoint, apiKey)
	embCfg.Model = cfg.Embedding.Model
	embCfg.Timeout = cfg.Embedding.Timeout
	embCfg.Logger = log.Named("embedding")
	emb, err := embedding.NewEmbeddingAdapter(embCfg)
	if err != nil {
		log.Warn("Semantic classification disabled", "error", err)
		return nil
	}
	return emb
}

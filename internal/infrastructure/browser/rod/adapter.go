package rod

import (
	"context"
	"fmt"
	"time"

	"form-filler/internal/application/port/output"
	"form-filler/internal/infrastructure/browser/rodwrapper"

	"github.com/go-rod/rod/lib/proto"
)

var _ output.BrowserPort = (*BrowserAdapter)(nil)

const (
	defaultTimeout           = 5 * time.Second
	defaultNavigationTimeout = 30 * time.Second
	defaultOpenAttempts      = 2
)

type BrowserConfig struct {
	Headless          bool
	Stealth           bool
	NoSandbox         bool
	DevTools          bool
	Bin               string
	SlowMotion        time.Duration
	Timeout           time.Duration
	NavigationTimeout time.Duration
	OpenAttempts      int
	ViewportWidth     int
	ViewportHeight    int
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:          true,
		Stealth:           true,
		NoSandbox:         true,
		Timeout:           defaultTimeout,
		NavigationTimeout: defaultNavigationTimeout,
		OpenAttempts:      defaultOpenAttempts,
		ViewportWidth:     1280,
		ViewportHeight:    800,
	}
}

type BrowserAdapter struct {
	browser *rodwrapper.Browser
	cfg     BrowserConfig
	logger  output.LoggerPort
}

func NewBrowserAdapter(ctx context.Context, cfg BrowserConfig, logger output.LoggerPort) (*BrowserAdapter, error) {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = def.NavigationTimeout
	}
	if cfg.OpenAttempts <= 0 {
		cfg.OpenAttempts = def.OpenAttempts
	}
	if cfg.ViewportWidth <= 0 || cfg.ViewportHeight <= 0 {
		cfg.ViewportWidth, cfg.ViewportHeight = def.ViewportWidth, def.ViewportHeight
	}

	browser, err := rodwrapper.Launch(ctx, rodwrapper.LaunchConfig{
		Headless:   cfg.Headless,
		NoSandbox:  cfg.NoSandbox,
		DevTools:   cfg.DevTools,
		Bin:        cfg.Bin,
		SlowMotion: cfg.SlowMotion,
	})
	if err != nil {
		return nil, err
	}

	return &BrowserAdapter{browser: browser, cfg: cfg, logger: output.OrNop(logger)}, nil
}

// Open navigates a fresh page to url, retrying once on failure.
func (b *BrowserAdapter) Open(ctx context.Context, url string) (output.PagePort, error) {
	var lastErr error
	for attempt := 1; attempt <= b.cfg.OpenAttempts; attempt++ {
		page, err := b.open(ctx, url)
		if err == nil {
			return page, nil
		}
		lastErr = err
		b.logger.Warn("Page open failed", "url", url, "attempt", attempt, "error", err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("open %s: %w", url, lastErr)
}

func (b *BrowserAdapter) open(ctx context.Context, url string) (*Page, error) {
	rp, err := b.browser.NewPage(b.cfg.Stealth)
	if err != nil {
		return nil, err
	}

	err = rp.Context(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             b.cfg.ViewportWidth,
		Height:            b.cfg.ViewportHeight,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		_ = rp.Close()
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	nav := rp.Context(ctx).Timeout(b.cfg.NavigationTimeout)
	if err := nav.Navigate(url); err != nil {
		_ = rp.Close()
		return nil, fmt.Errorf("navigation failed: %w", err)
	}
	if err := nav.WaitLoad(); err != nil {
		b.logger.Debug("Load event not reached", "url", url, "error", err)
	}
	_ = rp.Context(ctx).WaitIdle(defaultTimeout)

	return newPage(rp, b.cfg.Timeout, b.logger), nil
}

func (b *BrowserAdapter) Close() {
	if b.browser != nil {
		b.browser.Close()
	}
}

package rodwrapper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

var ErrClosed = errors.New("browser is closed")

type LaunchConfig struct {
	Headless   bool
	NoSandbox  bool
	DevTools   bool
	Bin        string
	SlowMotion time.Duration
	Trace      bool
	// ProfileDir is passed as --user-data-dir when set.
	ProfileDir string
}

// Browser оборачивает *rod.Browser и корректно закрывает процесс
type Browser struct {
	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher // важно! чтобы корректно убить процесс Chrome
	closed   bool
}

// Launch запускает Chrome и подключается к нему по CDP
func Launch(ctx context.Context, cfg LaunchConfig) (*Browser, error) {
	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless).
		Devtools(cfg.DevTools).
		NoSandbox(cfg.NoSandbox).
		Delete("use-mock-keychain").
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-setuid-sandbox")
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	if cfg.ProfileDir != "" {
		l = l.UserDataDir(cfg.ProfileDir)
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().
		ControlURL(url).
		Trace(cfg.Trace).
		SlowMotion(cfg.SlowMotion)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &Browser{browser: browser, launcher: l}, nil
}

// NewPage открывает about:blank; с withStealth страница получает
// маскировку отпечатка до первой навигации
func (b *Browser) NewPage(withStealth bool) (*rod.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	if withStealth {
		p, err := stealth.Page(b.browser)
		if err != nil {
			return nil, fmt.Errorf("stealth page: %w", err)
		}
		return p, nil
	}
	p, err := b.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("new page: %w", err)
	}
	return p, nil
}

// Close закрывает браузер и процесс Chrome
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	if b.browser != nil {
		_ = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill() // убиваем процесс Chrome
		b.launcher.Cleanup()
	}
}

package rod

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"form-filler/internal/application/port/output"
	"form-filler/internal/domain/entity"
	"form-filler/internal/domain/geometry"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

var _ output.PagePort = (*Page)(nil)

const maxFrameDepth = 5

type Page struct {
	page    *rod.Page
	timeout time.Duration
	logger  output.LoggerPort

	mu     sync.Mutex
	frames []entity.Frame
	docs   []*rod.Page
}

func newPage(rp *rod.Page, timeout time.Duration, logger output.LoggerPort) *Page {
	return &Page{page: rp, timeout: timeout, logger: logger}
}

func (p *Page) scoped(ctx context.Context, rp *rod.Page) *rod.Page {
	return rp.Context(ctx).Timeout(p.timeout)
}

func (p *Page) URL() string {
	info, err := p.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

const iframeInfoJS = `() => {
	const r = this.getBoundingClientRect();
	return {
		x: r.x + (this.clientLeft || 0),
		y: r.y + (this.clientTop || 0),
		name: this.getAttribute('name') || this.id || '',
		src: this.src || '',
	};
}`

type iframeInfo struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Name string  `json:"name"`
	Src  string  `json:"src"`
}

// Frames walks iframes breadth first from the main document and records
// each frame's viewport offset in main-frame CSS pixels.
func (p *Page) Frames(ctx context.Context) ([]entity.Frame, error) {
	main := entity.Frame{Index: 0, Parent: -1, URL: p.URL(), Path: entity.MainFramePath}
	frames := []entity.Frame{main}
	docs := []*rod.Page{p.page}

	for i := 0; i < len(frames); i++ {
		if strings.Count(frames[i].Path, "/") >= maxFrameDepth {
			continue
		}
		iframes, err := p.scoped(ctx, docs[i]).Elements("iframe")
		if err != nil {
			if i == 0 {
				return nil, fmt.Errorf("list iframes: %w", err)
			}
			continue
		}
		for _, el := range iframes {
			var info iframeInfo
			res, err := el.Context(ctx).Timeout(p.timeout).Eval(iframeInfoJS)
			if err != nil || res.Value.Unmarshal(&info) != nil {
				continue
			}
			doc, err := el.Context(ctx).Timeout(p.timeout).Frame()
			if err != nil {
				p.logger.Debug("Iframe document unavailable", "src", info.Src, "error", err)
				continue
			}
			url := info.Src
			if res, err := doc.Context(ctx).Timeout(p.timeout).Eval(`() => location.href`); err == nil && res.Value.Str() != "" {
				url = res.Value.Str()
			}
			frames = append(frames, entity.Frame{
				Index:   len(frames),
				Parent:  i,
				URL:     url,
				Name:    info.Name,
				Path:    entity.ChildPath(frames[i].Path, info.Name),
				OffsetX: frames[i].OffsetX + info.X,
				OffsetY: frames[i].OffsetY + info.Y,
			})
			docs = append(docs, doc.Context(context.Background()))
		}
	}

	p.mu.Lock()
	p.frames, p.docs = frames, docs
	p.mu.Unlock()
	return append([]entity.Frame(nil), frames...), nil
}

// document returns the rod page a frame from the last Frames call maps to.
func (p *Page) document(ctx context.Context, frame entity.Frame) (*rod.Page, error) {
	if frame.IsMain() {
		return p.page, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if frame.Index < len(p.frames) && p.frames[frame.Index].Path == frame.Path {
		return p.docs[frame.Index], nil
	}
	for i, f := range p.frames {
		if f.Matches(frame.Key()) {
			return p.docs[i], nil
		}
	}
	return nil, fmt.Errorf("%s: %w", frame.Path, output.ErrFrameNotFound)
}

func (p *Page) Evaluate(ctx context.Context, frame entity.Frame, js string, args ...any) (json.RawMessage, error) {
	doc, err := p.document(ctx, frame)
	if err != nil {
		return nil, err
	}
	res, err := p.scoped(ctx, doc).Eval(js, args...)
	if err != nil {
		return nil, fmt.Errorf("eval in %s: %w", frame.Path, err)
	}
	return json.RawMessage(res.Value.JSON("", "")), nil
}

func (p *Page) Query(ctx context.Context, frame entity.Frame, css string) ([]output.ElementPort, error) {
	doc, err := p.document(ctx, frame)
	if err != nil {
		return nil, err
	}
	els, err := p.scoped(ctx, doc).Elements(css)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", css, err)
	}
	return wrapAll(els, p.timeout), nil
}

// deepQueryJS resolves a shadow host chain part by part.
const deepQueryJS = `(parts) => {
	let root = document;
	for (let i = 0; i < parts.length - 1; i++) {
		const host = root.querySelector(parts[i]);
		if (!host || !host.shadowRoot) return null;
		root = host.shadowRoot;
	}
	return root.querySelector(parts[parts.length - 1]);
}`

func (p *Page) Locate(ctx context.Context, key entity.FrameKey, selector, xpath string) (output.ElementPort, error) {
	doc, err := p.frameByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	scoped := p.scoped(ctx, doc)

	if entity.PiercesShadow(selector) {
		el, err := scoped.Sleeper(rod.NotFoundSleeper).ElementByJS(rod.Eval(deepQueryJS, entity.ShadowPath(selector)))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", selector, output.ErrElementNotFound)
		}
		return wrap(el, p.timeout), nil
	}
	if selector != "" {
		if els, err := scoped.Elements(selector); err == nil && len(els) > 0 {
			return wrap(els.First(), p.timeout), nil
		}
	}
	if xpath != "" {
		if els, err := scoped.ElementsX(xpath); err == nil && len(els) > 0 {
			return wrap(els.First(), p.timeout), nil
		}
	}
	return nil, output.ErrElementNotFound
}

func (p *Page) frameByKey(ctx context.Context, key entity.FrameKey) (*rod.Page, error) {
	if key.Path == "" || key.Path == entity.MainFramePath {
		return p.page, nil
	}
	p.mu.Lock()
	cached := len(p.frames) > 0
	p.mu.Unlock()
	if !cached {
		if _, err := p.Frames(ctx); err != nil {
			return nil, err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for i, f := range p.frames {
		if f.Matches(key) {
			return p.docs[i], nil
		}
	}
	return nil, fmt.Errorf("%s: %w", key.Path, output.ErrFrameNotFound)
}

func (p *Page) Screenshot(ctx context.Context, clip *geometry.Box) ([]byte, error) {
	req := &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng}
	full := true
	if clip != nil {
		full = false
		req.CaptureBeyondViewport = true
		req.Clip = &proto.PageViewport{X: clip.X, Y: clip.Y, Width: clip.W, Height: clip.H, Scale: 1}
	}
	data, err := p.page.Context(ctx).Timeout(4 * p.timeout).Screenshot(full, req)
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return data, nil
}

func (p *Page) WaitSettled(ctx context.Context, timeout time.Duration) error {
	if err := p.page.Context(ctx).Timeout(timeout).WaitLoad(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("wait load: %w", err)
	}
	if err := p.page.Context(ctx).WaitIdle(timeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("wait idle: %w", err)
	}
	return nil
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	html, err := p.scoped(ctx, p.page).HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

func (p *Page) Close() error {
	return p.page.Close()
}

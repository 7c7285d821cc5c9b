// Package fakebrowser provides in-memory PagePort and ElementPort
// implementations for use-case tests.
package fakebrowser

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"form-filler/internal/application/port/output"
	"form-filler/internal/domain/entity"
	"form-filler/internal/domain/geometry"
)

var (
	_ output.PagePort    = (*Page)(nil)
	_ output.ElementPort = (*Element)(nil)
	_ output.BrowserPort = (*Browser)(nil)
)

// EvalFunc answers Page.Evaluate. The returned value is JSON-encoded.
type EvalFunc func(frame entity.Frame, js string, args []any) (any, error)

type Page struct {
	mu sync.Mutex

	CurrentURL string
	FrameList  []entity.Frame
	Eval       EvalFunc

	// Elements is keyed by selector or XPath.
	Elements map[string]*Element
	// Queries maps a CSS query to its result set.
	Queries map[string][]*Element

	Shot        []byte
	ShotErr     error
	Clips       []*geometry.Box
	Markup      string
	SettleCount int
	Closed      bool
}

func NewPage(url string) *Page {
	return &Page{
		CurrentURL: url,
		FrameList:  []entity.Frame{{Index: 0, Parent: -1, URL: url, Path: entity.MainFramePath}},
		Elements:   map[string]*Element{},
		Queries:    map[string][]*Element{},
	}
}

// Add registers an element under every non-empty locator.
func (p *Page) Add(el *Element, locators ...string) *Element {
	el.page = p
	for _, l := range locators {
		if l != "" {
			p.Elements[l] = el
		}
	}
	return el
}

func (p *Page) On(css string, els ...*Element) {
	for _, el := range els {
		el.page = p
	}
	p.Queries[css] = append(p.Queries[css], els...)
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.CurrentURL
}

func (p *Page) SetURL(u string) {
	p.mu.Lock()
	p.CurrentURL = u
	p.mu.Unlock()
}

func (p *Page) Frames(ctx context.Context) ([]entity.Frame, error) {
	return append([]entity.Frame(nil), p.FrameList...), nil
}

func (p *Page) Evaluate(ctx context.Context, frame entity.Frame, js string, args ...any) (json.RawMessage, error) {
	if p.Eval == nil {
		return json.RawMessage("null"), nil
	}
	v, err := p.Eval(frame, js, args)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func (p *Page) Query(ctx context.Context, frame entity.Frame, css string) ([]output.ElementPort, error) {
	if !frame.IsMain() {
		return nil, nil
	}
	var out []output.ElementPort
	for _, el := range p.Queries[css] {
		out = append(out, el)
	}
	return out, nil
}

func (p *Page) Locate(ctx context.Context, key entity.FrameKey, selector, xpath string) (output.ElementPort, error) {
	if el, ok := p.Elements[selector]; ok && selector != "" {
		return el, nil
	}
	if el, ok := p.Elements[xpath]; ok && xpath != "" {
		return el, nil
	}
	return nil, output.ErrElementNotFound
}

func (p *Page) Screenshot(ctx context.Context, clip *geometry.Box) ([]byte, error) {
	p.Clips = append(p.Clips, clip)
	return p.Shot, p.ShotErr
}

func (p *Page) WaitSettled(ctx context.Context, timeout time.Duration) error {
	p.SettleCount++
	return nil
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	return p.Markup, nil
}

func (p *Page) Close() error {
	p.Closed = true
	return nil
}

// Element is a scriptable element double.
type Element struct {
	page *Page

	Tag      string
	Attrs    map[string]string
	Val      string
	Text     string
	Checked  bool
	Hidden   bool
	Editable bool
	Opts     []output.Option
	Children map[string][]*Element
	OnClick  func(p *Page)
	EvalFunc func(js string, args []any) (any, error)

	FailFill    bool
	FailType    bool
	FailClick   bool
	FailFocus   bool
	FailVisible bool
	FailScroll  bool
	ApplyTo     func(v string) string

	selected bool
	Calls    []string
}

func (e *Element) record(call string) { e.Calls = append(e.Calls, call) }

func (e *Element) Called(prefix string) bool {
	for _, c := range e.Calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

func (e *Element) ScrollIntoView(ctx context.Context) error {
	e.record("scroll")
	if e.FailScroll {
		return errFake
	}
	return nil
}

func (e *Element) WaitVisible(ctx context.Context, timeout time.Duration) error {
	e.record("wait")
	if e.Hidden || e.FailVisible {
		return errFake
	}
	return nil
}

func (e *Element) Visible(ctx context.Context) (bool, error) {
	return !e.Hidden, nil
}

func (e *Element) Click(ctx context.Context) error {
	e.record("click")
	if e.FailClick {
		return errFake
	}
	if e.Attrs != nil {
		if t := strings.ToLower(e.Attrs["type"]); t == "checkbox" || t == "radio" {
			e.Checked = !e.Checked
		}
	}
	if e.OnClick != nil && e.page != nil {
		e.OnClick(e.page)
	}
	return nil
}

func (e *Element) Focus(ctx context.Context) error {
	e.record("focus")
	if e.FailFocus {
		return errFake
	}
	return nil
}

func (e *Element) SelectAll(ctx context.Context) error {
	e.record("selectall")
	e.selected = true
	return nil
}

func (e *Element) Fill(ctx context.Context, value string) error {
	e.record("fill:" + value)
	if e.FailFill {
		return errFake
	}
	e.set(value)
	return nil
}

func (e *Element) Type(ctx context.Context, text string, delay time.Duration) error {
	e.record("type:" + text)
	if e.FailType {
		return errFake
	}
	if e.selected {
		e.selected = false
		e.set(text)
		return nil
	}
	e.set(e.current() + text)
	return nil
}

func (e *Element) Press(ctx context.Context, key string) error {
	e.record("press:" + key)
	if key == output.KeyBackspace {
		if e.selected {
			e.set("")
			e.selected = false
		} else if cur := e.current(); cur != "" {
			e.set(cur[:len(cur)-1])
		}
	}
	return nil
}

func (e *Element) SetChecked(ctx context.Context, checked bool) error {
	e.record("check")
	e.Checked = checked
	return nil
}

func (e *Element) Options(ctx context.Context) ([]output.Option, error) {
	return e.Opts, nil
}

func (e *Element) SelectOption(ctx context.Context, value string) error {
	e.record("select:" + value)
	for _, o := range e.Opts {
		if o.Value == value {
			e.Val = value
			return nil
		}
	}
	return errFake
}

func (e *Element) Value(ctx context.Context) (string, error) {
	return e.Val, nil
}

func (e *Element) SelectedText(ctx context.Context) (string, error) {
	for _, o := range e.Opts {
		if o.Value == e.Val {
			return o.Label, nil
		}
	}
	return "", nil
}

func (e *Element) InnerText(ctx context.Context) (string, error) {
	return e.Text, nil
}

func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	if name == "contenteditable" && e.Editable {
		return "true", true, nil
	}
	v, ok := e.Attrs[name]
	return v, ok, nil
}

func (e *Element) Eval(ctx context.Context, js string, args ...any) (json.RawMessage, error) {
	e.record("eval")
	if e.EvalFunc == nil {
		return json.RawMessage("null"), nil
	}
	v, err := e.EvalFunc(js, args)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

func (e *Element) Query(ctx context.Context, css string) ([]output.ElementPort, error) {
	var out []output.ElementPort
	for _, c := range e.Children[css] {
		c.page = e.page
		out = append(out, c)
	}
	return out, nil
}

// SetText sets inner text directly, as a script would.
func (e *Element) SetText(v string) { e.Text = v }

func (e *Element) current() string {
	if e.Editable {
		return e.Text
	}
	return e.Val
}

func (e *Element) set(v string) {
	if e.ApplyTo != nil {
		v = e.ApplyTo(v)
	}
	if e.Editable {
		e.Text = v
		return
	}
	e.Val = v
}

// Browser hands out a prepared page per URL.
type Browser struct {
	Pages   map[string]*Page
	OpenErr error
	Opened  []string
	Closed  bool
}

func (b *Browser) Open(ctx context.Context, url string) (output.PagePort, error) {
	b.Opened = append(b.Opened, url)
	if b.OpenErr != nil {
		return nil, b.OpenErr
	}
	if p, ok := b.Pages[url]; ok {
		return p, nil
	}
	return NewPage(url), nil
}

func (b *Browser) Close() { b.Closed = true }

type fakeError string

func (e fakeError) Error() string { return string(e) }

const errFake = fakeError("fake element failure")

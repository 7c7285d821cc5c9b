package output

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"form-filler/internal/domain/entity"
	"form-filler/internal/domain/geometry"
)

var (
	ErrElementNotFound = errors.New("element not found")
	ErrFrameNotFound   = errors.New("frame not found")
	ErrBrowserClosed   = errors.New("browser is closed")
)

// BrowserPort opens pages. Implementations own the browser process.
type BrowserPort interface {
	Open(ctx context.Context, url string) (PagePort, error)
	Close()
}

// PagePort is one navigated page together with its frame tree.
type PagePort interface {
	URL() string

	// Frames returns the frame tree in parent-before-child order, main first.
	Frames(ctx context.Context) ([]entity.Frame, error)

	// Evaluate runs a JS function expression in the given frame and returns
	// its JSON-encoded result.
	Evaluate(ctx context.Context, frame entity.Frame, js string, args ...any) (json.RawMessage, error)

	Query(ctx context.Context, frame entity.Frame, css string) ([]ElementPort, error)

	// Locate resolves a harvested element by selector first and XPath second
	// inside the frame identified by key. A selector holding a shadow host
	// chain (entity.ShadowPierce) is resolved through each shadow root. It
	// returns ErrElementNotFound when neither resolves.
	Locate(ctx context.Context, key entity.FrameKey, selector, xpath string) (ElementPort, error)

	// Screenshot captures PNG bytes. A nil clip captures the full page; a
	// non-nil clip is a document-CSS rectangle.
	Screenshot(ctx context.Context, clip *geometry.Box) ([]byte, error)

	WaitSettled(ctx context.Context, timeout time.Duration) error
	HTML(ctx context.Context) (string, error)
	Close() error
}

type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ElementPort is a live handle to one DOM element.
type ElementPort interface {
	ScrollIntoView(ctx context.Context) error
	WaitVisible(ctx context.Context, timeout time.Duration) error
	Visible(ctx context.Context) (bool, error)

	Click(ctx context.Context) error
	Focus(ctx context.Context) error
	SelectAll(ctx context.Context) error
	Fill(ctx context.Context, value string) error
	Type(ctx context.Context, text string, delay time.Duration) error
	Press(ctx context.Context, key string) error
	SetChecked(ctx context.Context, checked bool) error

	Options(ctx context.Context) ([]Option, error)
	SelectOption(ctx context.Context, value string) error

	Value(ctx context.Context) (string, error)
	SelectedText(ctx context.Context) (string, error)
	InnerText(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (string, bool, error)

	// Eval runs a JS function with `this` bound to the element.
	Eval(ctx context.Context, js string, args ...any) (json.RawMessage, error)
	Query(ctx context.Context, css string) ([]ElementPort, error)
}

// Key names accepted by ElementPort.Press.
const (
	KeyBackspace = "Backspace"
	KeyEnter     = "Enter"
	KeyTab       = "Tab"
)

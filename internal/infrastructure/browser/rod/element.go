package rod

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"form-filler/internal/application/port/output"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

var _ output.ElementPort = (*Element)(nil)

var errOptionNotFound = errors.New("option not found")

var keys = map[string]input.Key{
	output.KeyBackspace: input.Backspace,
	output.KeyEnter:     input.Enter,
	output.KeyTab:       input.Tab,
}

type Element struct {
	el      *rod.Element
	timeout time.Duration
}

func wrap(el *rod.Element, timeout time.Duration) *Element {
	return &Element{el: el, timeout: timeout}
}

func wrapAll(els rod.Elements, timeout time.Duration) []output.ElementPort {
	out := make([]output.ElementPort, 0, len(els))
	for _, el := range els {
		out = append(out, wrap(el, timeout))
	}
	return out
}

func (e *Element) scoped(ctx context.Context) *rod.Element {
	return e.el.Context(ctx).Timeout(e.timeout)
}

func (e *Element) ScrollIntoView(ctx context.Context) error {
	return e.scoped(ctx).ScrollIntoView()
}

func (e *Element) WaitVisible(ctx context.Context, timeout time.Duration) error {
	return e.el.Context(ctx).Timeout(timeout).WaitVisible()
}

func (e *Element) Visible(ctx context.Context) (bool, error) {
	return e.scoped(ctx).Visible()
}

func (e *Element) Click(ctx context.Context) error {
	if err := e.scoped(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

func (e *Element) Focus(ctx context.Context) error {
	return e.scoped(ctx).Focus()
}

func (e *Element) SelectAll(ctx context.Context) error {
	return e.scoped(ctx).SelectAllText()
}

func (e *Element) Fill(ctx context.Context, value string) error {
	el := e.scoped(ctx)
	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("input failed: %w", err)
	}
	return nil
}

// Type inserts text one rune at a time into the focused element.
func (e *Element) Type(ctx context.Context, text string, delay time.Duration) error {
	page := e.el.Page().Context(ctx)
	for _, r := range text {
		if err := page.InsertText(string(r)); err != nil {
			return fmt.Errorf("type failed: %w", err)
		}
		if delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return nil
}

func (e *Element) Press(ctx context.Context, key string) error {
	k, ok := keys[key]
	if !ok {
		return fmt.Errorf("unsupported key %q", key)
	}
	return e.scoped(ctx).Type(k)
}

func (e *Element) SetChecked(ctx context.Context, checked bool) error {
	el := e.scoped(ctx)
	prop, err := el.Property("checked")
	if err != nil {
		return fmt.Errorf("read checked: %w", err)
	}
	if prop.Bool() == checked {
		return nil
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

const optionsJS = `() => Array.from(this.options || []).map(o => ({label: (o.text || '').trim(), value: o.value}))`

func (e *Element) Options(ctx context.Context) ([]output.Option, error) {
	res, err := e.scoped(ctx).Eval(optionsJS)
	if err != nil {
		return nil, fmt.Errorf("read options: %w", err)
	}
	items := res.Value.Arr()
	opts := make([]output.Option, 0, len(items))
	for _, it := range items {
		opts = append(opts, optionOf(it))
	}
	return opts, nil
}

func optionOf(v gson.JSON) output.Option {
	return output.Option{Label: v.Get("label").Str(), Value: v.Get("value").Str()}
}

const selectOptionJS = `(value) => {
	const opt = Array.from(this.options || []).find(o => o.value === value);
	if (!opt) return false;
	this.value = value;
	this.dispatchEvent(new Event('input', {bubbles: true}));
	this.dispatchEvent(new Event('change', {bubbles: true}));
	return true;
}`

func (e *Element) SelectOption(ctx context.Context, value string) error {
	res, err := e.scoped(ctx).Eval(selectOptionJS, value)
	if err != nil {
		return fmt.Errorf("select option: %w", err)
	}
	if !res.Value.Bool() {
		return fmt.Errorf("%q: %w", value, errOptionNotFound)
	}
	return nil
}

func (e *Element) Value(ctx context.Context) (string, error) {
	prop, err := e.scoped(ctx).Property("value")
	if err != nil {
		return "", err
	}
	if prop.Nil() {
		return "", nil
	}
	return prop.Str(), nil
}

func (e *Element) SelectedText(ctx context.Context) (string, error) {
	res, err := e.scoped(ctx).Eval(`() => this.selectedIndex >= 0 && this.options ? this.options[this.selectedIndex].text : ''`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (e *Element) InnerText(ctx context.Context) (string, error) {
	return e.scoped(ctx).Text()
}

func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	v, err := e.scoped(ctx).Attribute(name)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (e *Element) Eval(ctx context.Context, js string, args ...any) (json.RawMessage, error) {
	res, err := e.scoped(ctx).Eval(js, args...)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(res.Value.JSON("", "")), nil
}

func (e *Element) Query(ctx context.Context, css string) ([]output.ElementPort, error) {
	els, err := e.scoped(ctx).Elements(css)
	if err != nil {
		return nil, err
	}
	return wrapAll(els, e.timeout), nil
}

// Package filler writes values into resolved form elements. Each element
// category has an ordered list of strategies; the first one that succeeds
// wins and failures are reported as false, never as errors.
package filler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"form-filler/internal/application/port/output"
	"form-filler/internal/domain/entity"
)

type Config struct {
	VisibleTimeout time.Duration
	TypeDelay      time.Duration
	MaskDelay      time.Duration
	EditableDelay  time.Duration
	// Settle is slept after a successful text fill, SettleShort after
	// toggles and selects.
	Settle      time.Duration
	SettleShort time.Duration
}

func DefaultConfig() Config {
	return Config{
		VisibleTimeout: 5 * time.Second,
		TypeDelay:      50 * time.Millisecond,
		MaskDelay:      40 * time.Millisecond,
		EditableDelay:  30 * time.Millisecond,
		Settle:         300 * time.Millisecond,
		SettleShort:    200 * time.Millisecond,
	}
}

type Category string

const (
	CategoryToggle   Category = "toggle"
	CategorySelect   Category = "select"
	CategoryEditable Category = "contenteditable"
	CategoryPhone    Category = "phone"
	CategoryDate     Category = "date"
	CategoryText     Category = "text"
)

// Strategy is one way of getting a value into an element.
type Strategy struct {
	Name string
	Run  func(ctx context.Context, el output.ElementPort, value string) error
}

type Filler struct {
	cfg        Config
	logger     output.LoggerPort
	strategies map[Category][]Strategy
}

func New(cfg Config, logger output.LoggerPort) *Filler {
	f := &Filler{cfg: cfg, logger: output.OrNop(logger)}
	f.strategies = map[Category][]Strategy{
		CategoryToggle: {
			{"check", f.toggle},
		},
		CategorySelect: {
			{"label", selectByLabel},
			{"value", selectByValue},
			{"substring", selectBySubstring},
		},
		CategoryEditable: {
			{"keyboard", f.typeEditable},
			{"inner_html", setInnerHTML},
		},
		CategoryPhone: {
			{"mask", f.typeMasked(FormatPhone)},
			{"digits", f.typeMasked(Digits)},
		},
		CategoryDate: {
			{"mask", f.typeMasked(FormatDate)},
			{"digits", f.typeMasked(Digits)},
		},
		CategoryText: {
			{"fill", fill},
			{"click_type", f.clickType},
			{"focus_type", f.focusType},
		},
	}
	return f
}

// Strategies returns the ordered strategy list of a category.
func (f *Filler) Strategies(c Category) []Strategy {
	return f.strategies[c]
}

// Fill locates el in its recorded frame and writes value into it.
func (f *Filler) Fill(ctx context.Context, page output.PagePort, el *entity.ResolvedElement, value string) (ok bool) {
	log := f.logger.WithFields(map[string]any{"selector": el.DOM.Selector, "field": el.ClassifiedAs})
	defer func() {
		if r := recover(); r != nil {
			log.Error("Fill panicked", "panic", fmt.Sprint(r))
			ok = false
		}
	}()

	handle, err := page.Locate(ctx, el.DOM.Frame, el.DOM.Selector, el.DOM.XPath)
	if err != nil {
		log.Debug("Fill target not found", "xpath", el.DOM.XPath, "error", err)
		return false
	}

	ScrollIntoView(ctx, handle)
	if err := handle.WaitVisible(ctx, f.cfg.VisibleTimeout); err != nil {
		log.Debug("Fill target not visible", "error", err)
		return false
	}

	cat := f.categorize(ctx, el, handle)
	if cat == CategoryText {
		clearText(ctx, handle)
	}

	for _, s := range f.strategies[cat] {
		if err := s.Run(ctx, handle, value); err != nil {
			log.Debug("Fill strategy failed", "category", cat, "strategy", s.Name, "error", err)
			continue
		}
		log.Debug("Fill strategy succeeded", "category", cat, "strategy", s.Name)
		f.settle(ctx, cat)
		return true
	}
	return false
}

func (f *Filler) categorize(ctx context.Context, el *entity.ResolvedElement, handle output.ElementPort) Category {
	attrType := el.DOM.Attributes.Type()
	switch {
	case attrType == "checkbox" || attrType == "radio":
		return CategoryToggle
	case strings.EqualFold(el.DOM.Tag, "select"):
		return CategorySelect
	case el.DOM.IsContentEditable() || liveEditable(ctx, handle):
		return CategoryEditable
	case attrType == "tel" || attrType == "phone":
		return CategoryPhone
	case attrType == "date":
		return CategoryDate
	}
	return CategoryText
}

func liveEditable(ctx context.Context, handle output.ElementPort) bool {
	v, ok, err := handle.Attribute(ctx, "contenteditable")
	if err == nil && ok && strings.EqualFold(v, "true") {
		return true
	}
	raw, err := handle.Eval(ctx, `() => !!this.isContentEditable`)
	return err == nil && string(raw) == "true"
}

func (f *Filler) settle(ctx context.Context, cat Category) {
	d := f.cfg.Settle
	if cat == CategoryToggle || cat == CategorySelect {
		d = f.cfg.SettleShort
	}
	sleep(ctx, d)
}

// ScrollIntoView scrolls natively and falls back to a script for nested
// overflow containers. Failures are ignored.
func ScrollIntoView(ctx context.Context, handle output.ElementPort) {
	if err := handle.ScrollIntoView(ctx); err == nil {
		return
	}
	_, _ = handle.Eval(ctx, `() => this.scrollIntoView({behavior: 'instant', block: 'center', inline: 'nearest'})`)
}

// clearText empties a text field. Some fields refuse; filling continues anyway.
func clearText(ctx context.Context, handle output.ElementPort) {
	if err := handle.SelectAll(ctx); err == nil {
		if err := handle.Press(ctx, output.KeyBackspace); err == nil {
			return
		}
	}
	_ = handle.Fill(ctx, "")
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

package filler

import (
	"context"
	"errors"
	"strings"

	"form-filler/internal/application/port/output"
)

var (
	errEmptyValue = errors.New("empty value")
	errNoOption   = errors.New("no matching option")
)

var truthy = map[string]bool{"1": true, "true": true, "yes": true, "on": true, "checked": true}

// toggle checks the box for truthy values and clicks it otherwise.
func (f *Filler) toggle(ctx context.Context, el output.ElementPort, value string) error {
	if truthy[strings.ToLower(strings.TrimSpace(value))] {
		return el.SetChecked(ctx, true)
	}
	return el.Click(ctx)
}

func selectByLabel(ctx context.Context, el output.ElementPort, value string) error {
	return selectWhere(ctx, el, value, func(o output.Option, target string) bool {
		return strings.TrimSpace(o.Label) == target
	})
}

func selectByValue(ctx context.Context, el output.ElementPort, value string) error {
	return selectWhere(ctx, el, value, func(o output.Option, target string) bool {
		return strings.TrimSpace(o.Value) == target
	})
}

// selectBySubstring picks the first option whose label or value contains
// the target, case-insensitively.
func selectBySubstring(ctx context.Context, el output.ElementPort, value string) error {
	return selectWhere(ctx, el, value, func(o output.Option, target string) bool {
		t := strings.ToLower(target)
		return strings.Contains(strings.ToLower(o.Label), t) || strings.Contains(strings.ToLower(o.Value), t)
	})
}

func selectWhere(ctx context.Context, el output.ElementPort, value string, match func(output.Option, string) bool) error {
	target := strings.TrimSpace(value)
	if target == "" {
		return errEmptyValue
	}
	opts, err := el.Options(ctx)
	if err != nil {
		return err
	}
	for _, o := range opts {
		if match(o, target) {
			v := o.Value
			if v == "" {
				v = o.Label
			}
			return el.SelectOption(ctx, v)
		}
	}
	return errNoOption
}

func (f *Filler) typeEditable(ctx context.Context, el output.ElementPort, value string) error {
	if err := el.Click(ctx); err != nil {
		return err
	}
	if err := el.SelectAll(ctx); err != nil {
		return err
	}
	if err := el.Press(ctx, output.KeyBackspace); err != nil {
		return err
	}
	return el.Type(ctx, value, f.cfg.EditableDelay)
}

func setInnerHTML(ctx context.Context, el output.ElementPort, value string) error {
	_, err := el.Eval(ctx, `(val) => {
		this.focus();
		this.innerHTML = val;
		this.dispatchEvent(new Event('input', {bubbles: true}));
	}`, value)
	return err
}

// typeMasked clears the field by keyboard and types the formatted value.
func (f *Filler) typeMasked(format func(string) string) func(context.Context, output.ElementPort, string) error {
	return func(ctx context.Context, el output.ElementPort, value string) error {
		text := format(value)
		if text == "" {
			return errEmptyValue
		}
		if err := el.Click(ctx); err != nil {
			return err
		}
		if err := el.SelectAll(ctx); err != nil {
			return err
		}
		if err := el.Press(ctx, output.KeyBackspace); err != nil {
			return err
		}
		return el.Type(ctx, text, f.cfg.MaskDelay)
	}
}

func fill(ctx context.Context, el output.ElementPort, value string) error {
	return el.Fill(ctx, value)
}

func (f *Filler) clickType(ctx context.Context, el output.ElementPort, value string) error {
	if err := el.Click(ctx); err != nil {
		return err
	}
	return el.Type(ctx, value, f.cfg.TypeDelay)
}

func (f *Filler) focusType(ctx context.Context, el output.ElementPort, value string) error {
	if err := el.Focus(ctx); err != nil {
		return err
	}
	return el.Type(ctx, value, f.cfg.TypeDelay)
}

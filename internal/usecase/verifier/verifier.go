// Package verifier reads filled values back from the page and compares
// them with what was written.
package verifier

import (
	"context"
	"regexp"
	"strings"

	"form-filler/internal/application/port/output"
	"form-filler/internal/domain/entity"
	"form-filler/internal/usecase/filler"
)

type Verifier struct {
	logger output.LoggerPort
}

func New(logger output.LoggerPort) *Verifier {
	return &Verifier{logger: output.OrNop(logger)}
}

// Verify resolves el the same way the filler does and reports whether its
// current value matches expected.
func (v *Verifier) Verify(ctx context.Context, page output.PagePort, el *entity.ResolvedElement, expected string) bool {
	handle, err := page.Locate(ctx, el.DOM.Frame, el.DOM.Selector, el.DOM.XPath)
	if err != nil {
		v.logger.Debug("Verify target not found", "selector", el.DOM.Selector, "error", err)
		return false
	}
	filler.ScrollIntoView(ctx, handle)

	actual := v.read(ctx, handle, strings.ToLower(el.DOM.Tag))
	ok := Match(actual, expected)
	if !ok {
		v.logger.Debug("Verification mismatch", "selector", el.DOM.Selector, "actual", clip(actual, 60), "expected", clip(expected, 60))
	}
	return ok
}

func (v *Verifier) read(ctx context.Context, handle output.ElementPort, tag string) string {
	var actual string
	if tag == "select" {
		if text, err := handle.SelectedText(ctx); err == nil {
			actual = text
		}
	}
	if actual == "" {
		if val, err := handle.Value(ctx); err == nil {
			actual = val
		}
	}
	if strings.TrimSpace(actual) == "" {
		if text, err := handle.InnerText(ctx); err == nil {
			actual = text
		}
	}
	return actual
}

var spaces = regexp.MustCompile(`\s+`)

func normalize(s string) string {
	return spaces.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}

// Match accepts masks, prefixes, maxlength clipping and
// phone formatting.
func Match(actual, expected string) bool {
	a, e := normalize(actual), normalize(expected)
	if e == "" {
		return true
	}
	if a == "" {
		return false
	}
	if a == e || strings.Contains(a, e) || strings.Contains(e, a) {
		return true
	}
	if len(a) >= 5 && strings.HasPrefix(e, a) {
		return true
	}
	if len(e) >= 5 && strings.HasPrefix(a, e) {
		return true
	}

	ad, ed := filler.Digits(a), filler.Digits(e)
	if len(ed) >= 7 && strings.Contains(ad, ed) {
		return true
	}
	return len(ad) >= 7 && strings.Contains(ed, ad)
}

func clip(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}

// Package submitter finds and clicks the submit control of a form and
// checks the page for a confirmation.
package submitter

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"form-filler/internal/application/port/output"
	"form-filler/internal/domain/entity"
	"form-filler/internal/usecase/evaluator"
)

type Config struct {
	// ClickSettle is waited for after a click.
	ClickSettle time.Duration
	// RecheckSettle is waited for before the second confirmation check.
	RecheckSettle time.Duration
	// FormButtonLimit caps the generic in-form button scan.
	FormButtonLimit int
}

func DefaultConfig() Config {
	return Config{ClickSettle: 2 * time.Second, RecheckSettle: 5 * time.Second, FormButtonLimit: 5}
}

var submitSelectors = []string{
	`input[type="submit"]`,
	`button[type="submit"]`,
	`input[type="image"][alt*="submit" i]`,
	`input[value*="submit" i]`,
	`input[value*="send" i]`,
}

// typed buttons count as submit controls only by their text
var textButtonWords = []string{"submit", "send"}

var actionLabels = []string{
	"Submit", "Send", "Get in Touch", "Contact Us", "Send Message", "Request Quote",
	"Apply", "Register", "Sign Up", "Subscribe", "Submit Form",
}

var formLabels = []string{"Submit", "Send", "Get in Touch", "Contact Us", "Send Message"}

var linkWords = []string{"submit", "send"}

var actionVerb = regexp.MustCompile(`(?i)submit|send|contact|apply|register`)

const roleButtonCSS = `button, [role="button"], input[type="submit"], input[type="button"]`

var successPhrases = []string{
	"thank you", "submitted successfully", "successfully submitted", "has been submitted",
	"sent successfully", "message sent", "we'll be in touch", "we will contact you",
	"form submitted",
}

type Submitter struct {
	cfg    Config
	logger output.LoggerPort
}

func New(cfg Config, logger output.LoggerPort) *Submitter {
	if cfg.FormButtonLimit <= 0 {
		cfg.FormButtonLimit = DefaultConfig().FormButtonLimit
	}
	return &Submitter{cfg: cfg, logger: output.OrNop(logger)}
}

type finder func(ctx context.Context, page output.PagePort, frame entity.Frame) output.ElementPort

// FindAndClick runs the locating strategies in order over every frame and
// clicks the first visible match.
func (s *Submitter) FindAndClick(ctx context.Context, page output.PagePort) bool {
	frames, err := page.Frames(ctx)
	if err != nil || len(frames) == 0 {
		frames = []entity.Frame{entity.MainFrame(nil)}
	}

	strategies := []struct {
		name string
		find finder
	}{
		{"submit_selector", s.bySelector},
		{"role_label", s.byRoleLabel},
		{"form_scoped", s.inFirstForm},
		{"form_buttons", s.formButtons},
	}

	for _, st := range strategies {
		for _, frame := range frames {
			el := st.find(ctx, page, frame)
			if el == nil {
				continue
			}
			if err := el.Click(ctx); err != nil {
				s.logger.Debug("Submit click failed", "strategy", st.name, "frame", frame.Path, "error", err)
				continue
			}
			s.logger.Info("Submit clicked", "strategy", st.name, "frame", frame.Path)
			_ = page.WaitSettled(ctx, s.cfg.ClickSettle)
			return true
		}
	}
	return false
}

func (s *Submitter) bySelector(ctx context.Context, page output.PagePort, frame entity.Frame) output.ElementPort {
	for _, css := range submitSelectors {
		if el := firstVisible(ctx, query(ctx, page, frame, css)); el != nil {
			return el
		}
	}
	for _, el := range query(ctx, page, frame, `button[type="button"]`) {
		text := strings.ToLower(innerText(ctx, el))
		for _, w := range textButtonWords {
			if strings.Contains(text, w) && visible(ctx, el) {
				return el
			}
		}
	}
	return nil
}

func (s *Submitter) byRoleLabel(ctx context.Context, page output.PagePort, frame entity.Frame) output.ElementPort {
	return matchLabels(ctx, query(ctx, page, frame, roleButtonCSS), actionLabels)
}

func (s *Submitter) inFirstForm(ctx context.Context, page output.PagePort, frame entity.Frame) output.ElementPort {
	forms := query(ctx, page, frame, "form")
	if len(forms) == 0 {
		return nil
	}
	form := forms[0]

	buttons, _ := form.Query(ctx, roleButtonCSS)
	if el := matchLabels(ctx, buttons, formLabels); el != nil {
		return el
	}

	links, _ := form.Query(ctx, "a")
	for _, w := range linkWords {
		for _, a := range links {
			if strings.Contains(strings.ToLower(innerText(ctx, a)), w) && visible(ctx, a) {
				return a
			}
		}
	}
	return nil
}

func (s *Submitter) formButtons(ctx context.Context, page output.PagePort, frame entity.Frame) output.ElementPort {
	els := query(ctx, page, frame, `form button, form input[type="submit"]`)
	if len(els) > s.cfg.FormButtonLimit {
		els = els[:s.cfg.FormButtonLimit]
	}
	for _, el := range els {
		if !visible(ctx, el) {
			continue
		}
		text := strings.TrimSpace(innerText(ctx, el))
		if text == "" {
			text, _, _ = el.Attribute(ctx, "value")
		}
		if actionVerb.MatchString(text) {
			return el
		}
	}
	return nil
}

// matchLabels tries labels in order and returns the first visible element
// whose accessible name contains the label.
func matchLabels(ctx context.Context, els []output.ElementPort, labels []string) output.ElementPort {
	if len(els) == 0 {
		return nil
	}
	names := make([]string, len(els))
	for i, el := range els {
		names[i] = strings.ToLower(accessibleName(ctx, el))
	}
	for _, label := range labels {
		l := strings.ToLower(label)
		for i, el := range els {
			if strings.Contains(names[i], l) && visible(ctx, el) {
				return el
			}
		}
	}
	return nil
}

func accessibleName(ctx context.Context, el output.ElementPort) string {
	if v, ok, err := el.Attribute(ctx, "aria-label"); err == nil && ok && strings.TrimSpace(v) != "" {
		return v
	}
	if t := strings.TrimSpace(innerText(ctx, el)); t != "" {
		return t
	}
	for _, attr := range []string{"value", "alt", "title"} {
		if v, ok, err := el.Attribute(ctx, attr); err == nil && ok && v != "" {
			return v
		}
	}
	return ""
}

// DOMSuccess looks for a confirmation on the page and in the URL, then
// waits for a pending navigation and looks again.
func (s *Submitter) DOMSuccess(ctx context.Context, page output.PagePort) bool {
	if s.confirmed(ctx, page) {
		return true
	}
	_ = page.WaitSettled(ctx, s.cfg.RecheckSettle)
	return s.confirmed(ctx, page)
}

func (s *Submitter) confirmed(ctx context.Context, page output.PagePort) bool {
	if s.phraseVisible(ctx, page) {
		return true
	}
	return evaluator.ConfirmationURL(page.URL())
}

const phraseJS = `(phrases) => {
	const text = ((document.body && document.body.innerText) || '').toLowerCase();
	return phrases.some(p => text.includes(p));
}`

func (s *Submitter) phraseVisible(ctx context.Context, page output.PagePort) bool {
	frames, err := page.Frames(ctx)
	if err != nil {
		return false
	}
	for _, f := range frames {
		raw, err := page.Evaluate(ctx, f, phraseJS, successPhrases)
		if err != nil {
			continue
		}
		var found bool
		if json.Unmarshal(raw, &found) == nil && found {
			s.logger.Debug("Confirmation text found", "frame", f.Path)
			return true
		}
	}
	return false
}

func query(ctx context.Context, page output.PagePort, frame entity.Frame, css string) []output.ElementPort {
	els, err := page.Query(ctx, frame, css)
	if err != nil {
		return nil
	}
	return els
}

func firstVisible(ctx context.Context, els []output.ElementPort) output.ElementPort {
	for _, el := range els {
		if visible(ctx, el) {
			return el
		}
	}
	return nil
}

func visible(ctx context.Context, el output.ElementPort) bool {
	ok, err := el.Visible(ctx)
	return err == nil && ok
}

func innerText(ctx context.Context, el output.ElementPort) string {
	t, err := el.InnerText(ctx)
	if err != nil {
		return ""
	}
	return t
}

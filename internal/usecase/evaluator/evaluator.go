// Package evaluator decides whether a submission went through by scoring
// weighted success and failure patterns against post-submit evidence.
package evaluator

import (
	"fmt"
	"regexp"
	"strings"

	"form-filler/internal/application/port/output"
	"form-filler/internal/domain/entity"
)

type Pattern struct {
	Label  string
	Re     *regexp.Regexp
	Weight int
}

func pattern(label, expr string, weight int) Pattern {
	return Pattern{Label: label, Re: regexp.MustCompile(`(?i)` + expr), Weight: weight}
}

func DefaultSuccessPatterns() []Pattern {
	return []Pattern{
		pattern("thank_you", `\bthank(s)?\s+you\b`, 3),
		pattern("thanks_for_contacting", `\bthanks?\s+for\s+(contacting|reaching out)\b`, 3),
		pattern("message_sent", `\bmessage\s+(has\s+been\s+)?(sent|submitted)\b`, 3),
		pattern("form_submitted", `\bform\s+(has\s+been\s+)?submitted\b`, 3),
		pattern("submission_received", `\b(submission|request)\s+(has\s+been\s+)?received\b`, 3),
		pattern("we_will_contact", `\bwe('ll| will)\s+(be in touch|contact you|reach out)\b`, 3),
		// ответы API и тестовых форм (httpbin)
		pattern("api_json", `application/json`, 2),
		pattern("api_form_payload", `"form"\s*:`, 2),
		pattern("submitted_word", `\bsubmitted\b`, 1),
	}
}

func DefaultFailurePatterns() []Pattern {
	return []Pattern{
		pattern("field_error", `\bone or more fields have an error\b`, 4),
		pattern("required_fields", `\brequired fields?\b`, 2),
		pattern("field_required", `\bthis field is required\b`, 3),
		pattern("invalid_input", `\binvalid\b`, 2),
		pattern("enter_valid_value", `\bplease\s+enter\s+(an?\s+)?valid\b`, 2),
		pattern("please_choose", `\bplease\s+choose\b`, 1),
		pattern("please_select", `\bplease\s+select\b`, 1),
		pattern("check_try_again", `\bplease check and try again\b`, 3),
		pattern("captcha", `\b(?:re)?captcha\b`, 4),
		pattern("verification_failed", `\bverification failed\b`, 3),
		pattern("something_wrong", `\bsomething went wrong\b`, 3),
	}
}

const (
	confirmationURLLabel = "confirmation_url"
	domConfirmationLabel = "dom_confirmation"
)

type Config struct {
	Threshold int
	// URLWeight is added to the success score when the URL looks like a
	// confirmation page.
	URLWeight int
	// DOMWeight is added to the success score for a DOM confirmation that
	// the URL did not already account for.
	DOMWeight int
	// Weights overrides pattern weights by label.
	Weights map[string]int
}

func DefaultConfig() Config {
	return Config{Threshold: 3, URLWeight: 3, DOMWeight: 3}
}

type Evaluator struct {
	cfg     Config
	success []Pattern
	failure []Pattern
	logger  output.LoggerPort
}

func New(cfg Config, logger output.LoggerPort) *Evaluator {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultConfig().Threshold
	}
	return &Evaluator{
		cfg:     cfg,
		success: reweigh(DefaultSuccessPatterns(), cfg.Weights),
		failure: reweigh(DefaultFailurePatterns(), cfg.Weights),
		logger:  output.OrNop(logger),
	}
}

func reweigh(ps []Pattern, weights map[string]int) []Pattern {
	for i := range ps {
		if w, ok := weights[ps[i].Label]; ok {
			ps[i].Weight = w
		}
	}
	return ps
}

// ConfirmationURL reports URLs that usually follow a successful submit.
func ConfirmationURL(u string) bool {
	lower := strings.ToLower(u)
	if strings.Contains(lower, "success") || strings.Contains(lower, "thank") {
		return true
	}
	// httpbin: /forms/post отправляет на /post
	return strings.Contains(u, "/post") && !strings.Contains(u, "forms")
}

// Evaluate scores both sides. When both clear the threshold the higher
// score wins and a tie goes to failure.
func (e *Evaluator) Evaluate(c entity.EvaluationCriteria) *entity.EvaluationResult {
	res := &entity.EvaluationResult{SuccessMatches: []string{}, FailureMatches: []string{}}

	for _, p := range e.success {
		if p.Re.MatchString(c.Text) {
			res.SuccessMatches = append(res.SuccessMatches, p.Label)
			res.SuccessScore += p.Weight
		}
	}
	switch {
	case c.URL != "" && ConfirmationURL(c.URL):
		res.SuccessMatches = append(res.SuccessMatches, confirmationURLLabel)
		res.SuccessScore += e.cfg.URLWeight
	case c.DOMConfirmed:
		res.SuccessMatches = append(res.SuccessMatches, domConfirmationLabel)
		res.SuccessScore += e.cfg.DOMWeight
	}
	for _, p := range e.failure {
		if p.Re.MatchString(c.Text) {
			res.FailureMatches = append(res.FailureMatches, p.Label)
			res.FailureScore += p.Weight
		}
	}

	th := e.cfg.Threshold
	switch {
	case res.SuccessScore >= th && res.FailureScore >= th:
		res.Failure = res.FailureScore >= res.SuccessScore
		res.Success = !res.Failure
	case res.SuccessScore >= th:
		res.Success = true
	case res.FailureScore >= th:
		res.Failure = true
	}

	res.Excerpt = fmt.Sprintf("conf=%.1f s_score=%d f_score=%d success=%s failure=%s text='%s'",
		c.TextConfidence,
		res.SuccessScore,
		res.FailureScore,
		listRepr(res.SuccessMatches, 3),
		listRepr(res.FailureMatches, 3),
		Clip(c.Text, 200),
	)
	res.SuccessMatches = head(res.SuccessMatches, 5)
	res.FailureMatches = head(res.FailureMatches, 5)

	e.logger.Debug("Submission evidence scored",
		"success_score", res.SuccessScore,
		"failure_score", res.FailureScore,
		"success", res.Success,
		"failure", res.Failure,
	)
	return res
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func listRepr(s []string, n int) string {
	s = head(s, n)
	quoted := make([]string, len(s))
	for i, v := range s {
		quoted[i] = "'" + v + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// Clip cuts s to n runes and marks the cut with an ellipsis.
func Clip(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}

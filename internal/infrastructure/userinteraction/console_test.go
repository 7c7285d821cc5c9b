package userinteraction

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"form-filler/internal/application/port/output"
	"form-filler/internal/domain/entity"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func init() {
	color.NoColor = true
}

func TestConsoleReporter_PageLines(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)
	ctx := context.Background()

	r.ShowPageStart(ctx, 2, 5, "https://example.com/contact")
	res := entity.NewPageResult("run", "https://example.com/contact")
	res.Outcome = entity.OutcomeSuccess
	res.Reason = "form submitted successfully"
	res.Counters = entity.Counters{ElementsSeen: 4, ElementsReady: 3, FieldsFilled: 3}
	res.ProcessingTime = 1500 * time.Millisecond
	r.ShowPageResult(ctx, res)

	out := buf.String()
	assert.Contains(t, out, "Страница 2/5")
	assert.Contains(t, out, "https://example.com/contact")
	assert.Contains(t, out, "✓ form submitted successfully")
	assert.Contains(t, out, "seen=4 ready=3 filled=3 captcha=false 1.5s")
	assert.NotContains(t, out, "issue=")
}

func TestConsoleReporter_Failure(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)

	res := entity.NewPageResult("run", "https://x.test")
	res.Reason = strings.Repeat("x", 300)
	res.Issue = entity.IssueCaptchaObstruction
	r.ShowPageResult(context.Background(), res)

	out := buf.String()
	assert.Contains(t, out, "Ошибка: "+strings.Repeat("x", 200)+"...")
	assert.Contains(t, out, "issue=captcha_obstruction")
}

func TestConsoleReporter_Report(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf)

	r.ShowReport(context.Background(), output.BatchReport{
		RunID: "r1", Total: 4, Successful: 1, Uncertain: 1, CaptchaPages: 2,
		AverageFields: 2.5, FillRate: 80, AverageSeconds: 3.25,
		TopReasons: []output.ReasonCount{{Reason: "could not find submit button", Count: 2}},
	})

	out := buf.String()
	assert.Contains(t, out, "Total pages:     4")
	assert.Contains(t, out, "Successful:      1 (25.0%)")
	assert.Contains(t, out, "Captcha pages:   2")
	assert.Contains(t, out, "Fill rate:       80.0%")
	assert.Contains(t, out, "Avg time:        3.3s")
	assert.Contains(t, out, "1. could not find submit button (2)")
}

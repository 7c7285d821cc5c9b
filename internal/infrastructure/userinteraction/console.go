package userinteraction

import (
	"context"
	"fmt"
	"io"
	"time"

	"form-filler/internal/application/port/output"
	"form-filler/internal/domain/entity"

	"github.com/fatih/color"
)

var _ output.ReporterPort = (*ConsoleReporter)(nil)

// ConsoleReporter печатает прогресс пакетного прогона в терминал.
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter пишет в w; nil означает color.Output (stdout с поддержкой цвета).
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	if w == nil {
		w = color.Output
	}
	return &ConsoleReporter{out: w}
}

func (r *ConsoleReporter) ShowPageStart(ctx context.Context, index, total int, url string) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintf(r.out, "\n━━━ Страница %d/%d ━━━\n", index, total)

	dim := color.New(color.Faint)
	dim.Fprintf(r.out, "   %s\n", truncate(url, 120))
}

func (r *ConsoleReporter) ShowPageResult(ctx context.Context, result entity.PageResult) {
	c := result.Counters
	switch result.Outcome {
	case entity.OutcomeSuccess:
		green := color.New(color.FgGreen)
		green.Fprintf(r.out, "✓ %s\n", result.Reason)
	case entity.OutcomeUncertain:
		yellow := color.New(color.FgYellow)
		yellow.Fprintf(r.out, "? %s\n", truncate(result.Reason, 200))
	default:
		red := color.New(color.FgRed)
		red.Fprint(r.out, "❌ Ошибка: ")
		dim := color.New(color.Faint)
		dim.Fprintln(r.out, truncate(result.Reason, 200))
	}

	dim := color.New(color.Faint)
	dim.Fprintf(r.out, "   seen=%d ready=%d filled=%d captcha=%t %.1fs\n",
		c.ElementsSeen, c.ElementsReady, c.FieldsFilled, result.CaptchaFound, result.ProcessingTime.Seconds())
	if result.Issue != "" && result.Issue != entity.IssueNone {
		dim.Fprintf(r.out, "   issue=%s\n", result.Issue)
	}
}

func (r *ConsoleReporter) ShowReport(ctx context.Context, report output.BatchReport) {
	bold := color.New(color.Bold)
	bold.Fprintln(r.out, "\n━━━ Итоги прогона ━━━")
	if report.RunID != "" {
		fmt.Fprintf(r.out, "Run:             %s\n", report.RunID)
	}
	fmt.Fprintf(r.out, "Total pages:     %d\n", report.Total)
	fmt.Fprintf(r.out, "Successful:      %d (%.1f%%)\n", report.Successful, report.SuccessRate())
	fmt.Fprintf(r.out, "Uncertain:       %d\n", report.Uncertain)
	fmt.Fprintf(r.out, "Captcha pages:   %d\n", report.CaptchaPages)
	fmt.Fprintf(r.out, "Avg fields:      %.1f\n", report.AverageFields)
	fmt.Fprintf(r.out, "Fill rate:       %.1f%%\n", report.FillRate)
	fmt.Fprintf(r.out, "Avg time:        %s\n", (time.Duration(report.AverageSeconds * float64(time.Second))).Round(100*time.Millisecond))

	if len(report.TopReasons) == 0 {
		return
	}
	yellow := color.New(color.FgYellow)
	yellow.Fprintln(r.out, "Top errors:")
	for i, rc := range report.TopReasons {
		fmt.Fprintf(r.out, "  %d. %s (%d)\n", i+1, truncate(rc.Reason, 100), rc.Count)
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

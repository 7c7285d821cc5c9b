// Package batch processes a list of pages one at a time and keeps the
// result store current after every page.
package batch

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"form-filler/internal/application/port/input"
	"form-filler/internal/application/port/output"
	"form-filler/internal/domain/entity"
)

var _ input.BatchRunner = (*Runner)(nil)

var ErrInvalidURL = errors.New("invalid url")

type Config struct {
	RunID string
	// Delay is waited for between two pages.
	Delay time.Duration
	// TopReasons caps the failure reasons listed in the report.
	TopReasons int
}

func DefaultConfig() Config {
	return Config{Delay: 2 * time.Second, TopReasons: 5}
}

type Runner struct {
	proc     input.PageProcessor
	store    output.ResultStore
	reporter output.ReporterPort
	cfg      Config
	logger   output.LoggerPort
}

// New returns a runner. store and reporter may be nil.
func New(proc input.PageProcessor, store output.ResultStore, reporter output.ReporterPort, cfg Config, logger output.LoggerPort) *Runner {
	if cfg.TopReasons <= 0 {
		cfg.TopReasons = DefaultConfig().TopReasons
	}
	return &Runner{proc: proc, store: store, reporter: reporter, cfg: cfg, logger: output.OrNop(logger)}
}

// Run stops at the first page boundary after ctx is cancelled and returns
// the pages finished so far together with ctx.Err().
func (r *Runner) Run(ctx context.Context, urls []string) ([]entity.PageResult, output.BatchReport, error) {
	total := len(urls)
	r.logger.Info("Starting batch processing", "urls", total, "run_id", r.cfg.RunID)

	var results []entity.PageResult
	for i, url := range urls {
		if ctx.Err() != nil {
			break
		}
		if err := ValidateURL(url); err != nil {
			r.logger.Warn("Skipping invalid URL", "url", url)
			continue
		}

		if r.reporter != nil {
			r.reporter.ShowPageStart(ctx, i+1, total, url)
		}
		res := r.proc.Process(ctx, url)
		results = append(results, res)
		r.save(ctx, results)
		if r.reporter != nil {
			r.reporter.ShowPageResult(ctx, res)
		}
		r.logger.Info("Progress", "done", i+1, "total", total)

		if i < total-1 {
			sleep(ctx, r.cfg.Delay)
		}
	}

	// flush even when interrupted
	r.save(context.WithoutCancel(ctx), results)

	report := BuildReport(r.cfg.RunID, results, r.cfg.TopReasons)
	if r.reporter != nil {
		r.reporter.ShowReport(ctx, report)
	}
	if err := ctx.Err(); err != nil {
		r.logger.Warn("Batch interrupted", "finished", len(results), "total", total)
		return results, report, err
	}
	r.logger.Info("Batch processing complete", "processed", len(results))
	return results, report, nil
}

func (r *Runner) save(ctx context.Context, results []entity.PageResult) {
	if r.store == nil || len(results) == 0 {
		return
	}
	if err := r.store.SaveResults(ctx, results); err != nil {
		r.logger.Error("Failed to save results", "error", err)
	}
}

// ValidateURL accepts absolute http and https URLs only.
func ValidateURL(u string) error {
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return ErrInvalidURL
	}
	return nil
}

// BuildReport aggregates results. Reasons of non-successful pages are
// ranked by count, first seen first on ties.
func BuildReport(runID string, results []entity.PageResult, topN int) output.BatchReport {
	rep := output.BatchReport{RunID: runID, Total: len(results), TopReasons: []output.ReasonCount{}}
	if len(results) == 0 {
		return rep
	}

	var ready, filled int
	var seconds float64
	counts := map[string]int{}
	var order []string

	for _, res := range results {
		switch res.Outcome {
		case entity.OutcomeSuccess:
			rep.Successful++
		case entity.OutcomeUncertain:
			rep.Uncertain++
		}
		if res.CaptchaFound {
			rep.CaptchaPages++
		}
		ready += res.Counters.ElementsReady
		filled += res.Counters.FieldsFilled
		seconds += res.ProcessingTime.Seconds()

		if res.Outcome != entity.OutcomeSuccess {
			if _, ok := counts[res.Reason]; !ok {
				order = append(order, res.Reason)
			}
			counts[res.Reason]++
		}
	}

	n := float64(len(results))
	rep.AverageFields = float64(ready) / n
	rep.AverageSeconds = seconds / n
	if ready > 0 {
		rep.FillRate = float64(filled) / float64(ready) * 100
	}

	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > topN {
		order = order[:topN]
	}
	for _, reason := range order {
		rep.TopReasons = append(rep.TopReasons, output.ReasonCount{Reason: reason, Count: counts[reason]})
	}
	return rep
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

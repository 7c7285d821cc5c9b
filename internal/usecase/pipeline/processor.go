// Package pipeline runs one page end to end: capture, detection, fusion,
// classification, fill with verification, dynamic rescan and submission.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"form-filler/internal/application/port/input"
	"form-filler/internal/application/port/output"
	"form-filler/internal/domain/entity"
	"form-filler/internal/usecase/classifier"
	"form-filler/internal/usecase/evaluator"
	"form-filler/internal/usecase/filler"
	"form-filler/internal/usecase/fusion"
	"form-filler/internal/usecase/harvest"
	"form-filler/internal/usecase/ocrtext"
	"form-filler/internal/usecase/prefill"
	"form-filler/internal/usecase/submitter"
	"form-filler/internal/usecase/verifier"
	"form-filler/internal/usecase/vision"

	"github.com/google/uuid"
)

var _ input.PageProcessor = (*Processor)(nil)

type Config struct {
	RunID string

	// OpenDelay is waited for after navigation before the first capture.
	OpenDelay time.Duration
	// RescanDelay separates the two field counts of the dynamic rescan.
	RescanDelay time.Duration
	// SubmitWait gives a redirect time to land after the submit click.
	SubmitWait time.Duration

	FormMinWidth     float64
	FormMinHeight    float64
	CaptchaSelectors []string

	// An element is skipped when both confidences are below these.
	LowClassConfidence int
	LowOCRConfidence   float64

	PreviewChars   int
	TraceTextChars int

	LiveTrace bool
	Annotate  bool
}

func DefaultConfig() Config {
	return Config{
		OpenDelay:     2 * time.Second,
		RescanDelay:   500 * time.Millisecond,
		SubmitWait:    3 * time.Second,
		FormMinWidth:  120,
		FormMinHeight: 80,
		CaptchaSelectors: []string{
			"iframe[src*='recaptcha']",
			"div[class*='captcha']",
			"div[class*='g-recaptcha']",
			"img[src*='captcha']",
		},
		LowClassConfidence: 40,
		LowOCRConfidence:   20,
		PreviewChars:       100,
		TraceTextChars:     500,
		LiveTrace:          true,
		Annotate:           true,
	}
}

// Deps are the collaborators of one processor. Traces, Shots and Annotator
// are optional.
type Deps struct {
	Browser    output.BrowserPort
	Detector   *vision.Detector
	OCR        *ocrtext.Extractor
	Harvester  *harvest.Harvester
	Fuser      *fusion.Fuser
	Classifier *classifier.Classifier
	Prefill    *prefill.Resolver
	Filler     *filler.Filler
	Verifier   *verifier.Verifier
	Submitter  *submitter.Submitter
	Evaluator  *evaluator.Evaluator

	Traces    output.TraceWriter
	Shots     output.ScreenshotStore
	Annotator output.Annotator
	Logger    output.LoggerPort
}

type Processor struct {
	cfg    Config
	deps   Deps
	logger output.LoggerPort
}

func New(cfg Config, deps Deps) *Processor {
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}
	return &Processor{cfg: cfg, deps: deps, logger: output.OrNop(deps.Logger)}
}

func (p *Processor) RunID() string {
	return p.cfg.RunID
}

// Process never fails as a whole: an error inside the page ends up as the
// result reason.
func (p *Processor) Process(ctx context.Context, url string) entity.PageResult {
	start := time.Now()
	res := entity.NewPageResult(p.cfg.RunID, url)
	run := &pageRun{
		p:     p,
		url:   url,
		res:   &res,
		trace: entity.NewLiveTrace(p.cfg.RunID, url),
		log:   p.logger.WithFields(map[string]any{"url": url, "run_id": p.cfg.RunID}),
	}

	run.log.Info("Processing page")
	if err := run.execute(ctx); err != nil {
		res.Reason = "error: " + truncate(err.Error(), 100)
		run.log.Error("Error processing page", "error", err)
	}

	res.ProcessingTime = time.Since(start)
	res.Issue, res.Summary = Diagnose(run.trace, res)
	run.trace.Issue, run.trace.Summary = res.Issue, res.Summary
	res.TracePath = run.writeTrace(ctx)

	run.log.Info("Page processed",
		"outcome", res.Outcome,
		"reason", res.Reason,
		"seconds", fmt.Sprintf("%.1f", res.ProcessingTime.Seconds()),
	)
	run.log.Info("Monitor", "issue", res.Issue, "summary", res.Summary)
	return res
}

type pageRun struct {
	p      *Processor
	url    string
	page   output.PagePort
	res    *entity.PageResult
	trace  *entity.LiveTrace
	log    output.LoggerPort
	filled int
}

func (r *pageRun) execute(ctx context.Context) error {
	d := r.p.deps
	page, err := d.Browser.Open(ctx, r.url)
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}
	r.page = page
	defer func() {
		if err := page.Close(); err != nil {
			r.log.Warn("Failed to close page cleanly", "error", err)
		}
	}()
	sleep(ctx, r.p.cfg.OpenDelay)

	if d.Harvester.HasCaptcha(ctx, page, r.p.cfg.CaptchaSelectors) {
		r.markCaptcha()
		r.log.Warn("Captcha detected, continuing until obstruction")
	}

	shot, err := r.snapshot(ctx, "")
	if err != nil {
		return err
	}
	r.trace.InitialScreenshot = shot.path
	r.trace.ScreenshotMode = shot.mode
	r.trace.ScreenshotOrigin = shot.capture.Origin
	r.trace.FormBox = shot.formBox

	elements := r.detect(ctx, shot)
	var ready []*entity.ResolvedElement
	for _, el := range elements {
		if r.triage(ctx, el, shot) {
			ready = append(ready, el)
		}
	}
	r.trace.AnnotatedScreenshot = r.annotate(shot, "annotated")

	r.res.Counters.ElementsSeen = len(r.trace.Fields)
	r.res.Counters.ElementsReady = len(ready)

	for _, el := range ready {
		r.fill(ctx, el)
	}

	seen := make(map[entity.ElementKey]bool, len(elements))
	for _, el := range elements {
		seen[el.Key()] = true
	}
	r.rescan(ctx, seen)
	r.res.Counters.FieldsFilled = r.filled

	if post, err := r.snapshot(ctx, "post_fill"); err != nil {
		r.log.Warn("Post-fill screenshot failed", "error", err)
	} else {
		r.trace.PostFillScreenshot = post.path
		r.trace.AnnotatedPostFill = r.annotate(post, "post_fill")
	}

	if r.filled == 0 {
		if r.res.CaptchaFound {
			r.res.Reason = "captcha obstructed interaction or no fillable fields found"
		} else {
			r.res.Reason = "no fillable fields found"
		}
		r.log.Info("No fillable fields")
		return nil
	}

	r.submit(ctx)
	return nil
}

func (r *pageRun) detect(ctx context.Context, shot *snapshot) []*entity.ResolvedElement {
	d := r.p.deps
	regions := d.Detector.Detect(shot.img)
	candidates, err := d.Harvester.Harvest(ctx, r.page, shot.capture)
	if err != nil {
		r.log.Warn("DOM harvest failed", "error", err)
	}
	return d.Fuser.Fuse(ctx, r.page, regions, candidates, shot.capture)
}

// record classifies el and appends its trace entry.
func (r *pageRun) record(ctx context.Context, el *entity.ResolvedElement, shot *snapshot, reason string) (entity.Classification, float64) {
	d := r.p.deps
	text, ocrConf := d.OCR.Region(ctx, shot.img, el.Box)
	cls := d.Classifier.Classify(ctx, classifier.Input{
		Text:       text,
		Tag:        el.DOM.Tag,
		Attributes: el.DOM.Attributes,
	})
	el.ClassifiedAs = cls.Type
	el.Confidence = cls.Confidence

	idx := len(r.trace.Fields)
	el.TraceIndex = idx
	r.trace.Fields = append(r.trace.Fields, entity.FieldTrace{
		Index:          idx,
		XPath:          el.DOM.XPath,
		Selector:       el.DOM.Selector,
		Tag:            el.DOM.Tag,
		Attributes:     el.DOM.Attributes,
		Box:            el.Box,
		Source:         el.Source,
		OCRText:        truncate(text, r.p.cfg.TraceTextChars),
		OCRConfidence:  ocrConf,
		ClassifiedAs:   cls.Type,
		Confidence:     cls.Confidence,
		Status:         entity.StatusClassified,
		Reason:         reason,
		ScreenshotPath: shot.path,
	})

	r.log.Info("Field classified",
		"idx", idx,
		"field", cls.Type,
		"stage", cls.Stage,
		"ocr_conf", fmt.Sprintf("%.1f", ocrConf),
		"class_conf", cls.Confidence,
		"text", evaluator.Clip(text, r.p.cfg.PreviewChars),
	)
	return cls, ocrConf
}

func (r *pageRun) mark(el *entity.ResolvedElement, status entity.FieldStatus, reason string) {
	if f := r.trace.Field(el.TraceIndex); f != nil {
		f.Status = status
		f.Reason = reason
	}
}

// triage runs the gates of the first pass and reports whether el has a
// value to fill.
func (r *pageRun) triage(ctx context.Context, el *entity.ResolvedElement, shot *snapshot) bool {
	cls, ocrConf := r.record(ctx, el, shot, "")
	where := locator(el)

	if cls.Confidence < r.p.cfg.LowClassConfidence && ocrConf < r.p.cfg.LowOCRConfidence {
		r.mark(el, entity.StatusSkipped, "low confidence")
		r.res.Counters.LowConfidenceSkips++
		r.log.Info("Skipping low-confidence element", "element", where, "field", cls.Type,
			"field_conf", cls.Confidence, "ocr_conf", fmt.Sprintf("%.1f", ocrConf))
		return false
	}

	if cls.Type == entity.FieldCaptcha {
		r.markCaptcha()
		r.mark(el, entity.StatusSkipped, "captcha field")
		r.log.Warn("Captcha field detected, skipping it", "element", where)
		return false
	}

	if classifier.ShouldSkip(cls.Type, el) {
		r.mark(el, entity.StatusSkipped, "non-fillable")
		r.res.Counters.NonFillableSkips++
		r.log.Info("Skipping non-fillable field", "field", cls.Type, "element", where)
		return false
	}

	value, ok := r.p.deps.Prefill.Resolve(cls.Type, el.DOM.Attributes)
	if !ok {
		r.mark(el, entity.StatusSkipped, "no prefill data")
		r.res.Counters.PrefillMissSkips++
		r.log.Info("No prefill data for field", "field", cls.Type, "element", where)
		return false
	}

	el.ResolvedValue = value
	r.mark(el, entity.StatusReadyToFill, "has prefill value")
	return true
}

func (r *pageRun) fill(ctx context.Context, el *entity.ResolvedElement) {
	if el.Exhausted() {
		return
	}
	d := r.p.deps
	r.res.Counters.FillAttempts++

	if !d.Filler.Fill(ctx, r.page, el, el.ResolvedValue) {
		el.MarkFailed()
		r.res.Counters.FillActionFailed++
		r.mark(el, entity.StatusFillFailed, "fill action failed")
		r.log.Warn("Fill action failed", "field", el.ClassifiedAs, "element", locator(el))
		return
	}
	if !d.Verifier.Verify(ctx, r.page, el, el.ResolvedValue) {
		el.MarkFailed()
		r.res.Counters.FillVerifyFailed++
		r.mark(el, entity.StatusFillFailed, "verification failed")
		r.log.Warn("Failed to fill field", "field", el.ClassifiedAs, "element", locator(el))
		return
	}

	r.filled++
	r.mark(el, entity.StatusFilled, "dom verification passed")
	r.log.Info("Field filled", "field", el.ClassifiedAs, "value", evaluator.Clip(el.ResolvedValue, 30))
}

// rescan looks for fields that appeared after the first fill pass and
// processes only identities not seen before.
func (r *pageRun) rescan(ctx context.Context, seen map[entity.ElementKey]bool) {
	d := r.p.deps
	before := d.Harvester.CountFields(ctx, r.page)
	sleep(ctx, r.p.cfg.RescanDelay)
	if d.Harvester.CountFields(ctx, r.page) <= before {
		return
	}

	shot, err := r.snapshot(ctx, "dynamic")
	if err != nil {
		r.log.Warn("Dynamic screenshot failed", "error", err)
		return
	}
	var fresh []*entity.ResolvedElement
	for _, el := range r.detect(ctx, shot) {
		if !seen[el.Key()] {
			fresh = append(fresh, el)
		}
	}
	if len(fresh) == 0 {
		return
	}
	r.log.Info("Detected dynamic fields", "count", len(fresh))

	for _, el := range fresh {
		cls, _ := r.record(ctx, el, shot, "dynamic field")
		if classifier.ShouldSkip(cls.Type, el) {
			r.mark(el, entity.StatusSkipped, "non-fillable dynamic field")
			r.res.Counters.NonFillableSkips++
			continue
		}
		value, ok := d.Prefill.Resolve(cls.Type, el.DOM.Attributes)
		if !ok {
			r.mark(el, entity.StatusSkipped, "no prefill data")
			r.res.Counters.PrefillMissSkips++
			continue
		}

		el.ResolvedValue = value
		r.mark(el, entity.StatusReadyToFill, "dynamic field")
		r.res.Counters.FillAttempts++
		if d.Filler.Fill(ctx, r.page, el, value) && d.Verifier.Verify(ctx, r.page, el, value) {
			r.filled++
			r.mark(el, entity.StatusFilled, "dynamic fill verified")
			continue
		}
		el.MarkFailed()
		r.mark(el, entity.StatusFillFailed, "dynamic fill failed")
		r.res.Counters.FillActionFailed++
	}
}

func (r *pageRun) submit(ctx context.Context) {
	d := r.p.deps
	sub := &r.trace.Submit
	sub.Attempted = true

	if !d.Submitter.FindAndClick(ctx, r.page) {
		if r.res.CaptchaFound {
			r.res.Reason = "captcha likely obstructed submit button"
		} else {
			r.res.Reason = "could not find submit button"
		}
		r.log.Warn("No submit button found")
		return
	}
	sub.Clicked = true
	sleep(ctx, r.p.cfg.SubmitWait)

	sub.DOMSuccess = d.Submitter.DOMSuccess(ctx, r.page)

	text, conf := r.submitEvidence(ctx)
	sub.CurrentURL = r.page.URL()
	verdict := d.Evaluator.Evaluate(entity.EvaluationCriteria{
		Text:           text,
		URL:            sub.CurrentURL,
		TextConfidence: conf,
		DOMConfirmed:   sub.DOMSuccess,
	})
	sub.OCRSuccess = verdict.Success
	sub.OCRFailure = verdict.Failure
	sub.Excerpt = verdict.Excerpt
	sub.SuccessMatches = verdict.SuccessMatches
	sub.FailureMatches = verdict.FailureMatches

	// решает только взвешенный вердикт, DOM учтён в нём как улика
	switch {
	case verdict.Success:
		r.res.Outcome = entity.OutcomeSuccess
		r.res.Reason = "form submitted successfully"
		r.log.Info("Successfully submitted")
	case verdict.Failure:
		r.res.Reason = rejectionReason(verdict.FailureMatches)
		r.log.Warn("Submission rejected", "matches", verdict.FailureMatches)
	default:
		r.res.Outcome = entity.OutcomeUncertain
		r.res.Reason = "submission attempted; OCR screenshot had no clear success/failure signal"
		r.log.Warn("Submission uncertain")
	}
}

// submitEvidence reads the post-submit page through OCR and falls back to
// the rendered DOM text when OCR yields nothing.
func (r *pageRun) submitEvidence(ctx context.Context) (string, float64) {
	shot, err := r.snapshot(ctx, "post_submit")
	if err != nil {
		r.log.Warn("Post-submit screenshot failed", "error", err)
	} else {
		r.trace.PostSubmitScreenshot = shot.path
		if text, conf := r.p.deps.OCR.Page(ctx, shot.img); text != "" {
			return text, conf
		}
	}

	html, err := r.page.HTML(ctx)
	if err != nil {
		r.log.Debug("Page HTML unavailable", "error", err)
		return "", 0
	}
	return evaluator.PageText(html, nil), 0
}

func rejectionReason(matches []string) string {
	for _, m := range matches {
		if m == "captcha" {
			return "captcha verification blocked submission"
		}
	}
	if len(matches) > 0 {
		return fmt.Sprintf("form submission failed validation checks (%s)", matches[0])
	}
	return "form submission failed validation checks"
}

func (r *pageRun) markCaptcha() {
	r.res.CaptchaFound = true
	r.trace.CaptchaFound = true
}

func (r *pageRun) writeTrace(ctx context.Context) string {
	if !r.p.cfg.LiveTrace || r.p.deps.Traces == nil {
		return ""
	}
	path, err := r.p.deps.Traces.WriteTrace(ctx, r.trace)
	if err != nil {
		r.log.Warn("Failed to write live trace", "error", err)
		return ""
	}
	r.log.Info("Live trace saved", "path", path)
	return path
}

func locator(el *entity.ResolvedElement) string {
	if el.DOM.XPath != "" {
		return el.DOM.XPath
	}
	if el.DOM.Selector != "" {
		return el.DOM.Selector
	}
	return "[no-xpath]"
}

func truncate(s string, n int) string {
	if r := []rune(s); n > 0 && len(r) > n {
		return string(r[:n])
	}
	return s
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

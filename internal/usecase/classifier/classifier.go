// Package classifier assigns a semantic field type to a resolved element.
// Stages run in order and the first one that answers wins.
package classifier

import (
	"context"
	"math"
	"regexp"
	"strings"
	"time"

	"form-filler/internal/application/port/output"
	"form-filler/internal/domain/entity"
	"form-filler/internal/domain/fuzzy"
)

// Thresholds are calibration inputs, not invariants.
type Thresholds struct {
	// MinConfidence is the fuzzy floor when the element has no attribute text.
	MinConfidence float64
	// AttributeFuzzyFloor caps the fuzzy floor when attribute text exists.
	AttributeFuzzyFloor float64
	FuzzyFallbackMin    float64
	SemanticMin         float64
	SemanticMaxConf     int
	SemanticMaxChars    int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MinConfidence:       70,
		AttributeFuzzyFloor: 60,
		FuzzyFallbackMin:    50,
		SemanticMin:         0.45,
		SemanticMaxConf:     95,
		SemanticMaxChars:    512,
	}
}

type Config struct {
	Thresholds  Thresholds
	UseSemantic bool
	LogUnknown  bool
}

func DefaultConfig() Config {
	return Config{Thresholds: DefaultThresholds(), UseSemantic: true, LogUnknown: true}
}

// Input is what the classifier sees of one element.
type Input struct {
	Text       string
	Tag        string
	Attributes entity.Attributes
}

// Stage is one step of the cascade.
type Stage struct {
	Name string
	Fn   func(ctx context.Context, f *Features) (entity.Classification, bool)
}

// Features are derived once per Classify call and shared by all stages.
type Features struct {
	Tag      string
	AttrType string
	// AttrRaw is the lowercased attribute blob, AttrBlob the same with
	// separators turned into spaces.
	AttrRaw  string
	AttrBlob string
	Combined string
	Tokens   map[string]bool
}

type Classifier struct {
	stages     []Stage
	th         Thresholds
	semantic   *semanticStage
	sink       output.UnknownPatternSink
	logUnknown bool
	logger     output.LoggerPort
}

func New(cfg Config, embedder output.EmbedderPort, sink output.UnknownPatternSink, logger output.LoggerPort) *Classifier {
	if cfg.Thresholds == (Thresholds{}) {
		cfg.Thresholds = DefaultThresholds()
	}
	c := &Classifier{
		th:         cfg.Thresholds,
		sink:       sink,
		logUnknown: cfg.LogUnknown,
		logger:     output.OrNop(logger),
	}
	if cfg.UseSemantic && embedder != nil {
		c.semantic = newSemanticStage(embedder, cfg.Thresholds, c.logger)
	}
	c.stages = []Stage{
		{"control", controlStage},
		{"captcha", captchaStage},
		{"html_type", htmlTypeStage},
		{"native_tag", nativeTagStage},
		{"attribute_keyword", keywordStage},
		{"fuzzy", c.fuzzyStage},
		{"token", tokenStage},
		{"semantic", c.semanticStage},
		{"fuzzy_fallback", c.fuzzyFallbackStage},
		{"tag_heuristic", tagHeuristicStage},
	}
	return c
}

// Stages exposes the cascade for inspection in tests.
func (c *Classifier) Stages() []Stage {
	return c.stages
}

func (c *Classifier) Classify(ctx context.Context, in Input) entity.Classification {
	f := Extract(in)
	for _, s := range c.stages {
		if res, ok := s.Fn(ctx, f); ok {
			res.Stage = s.Name
			return res
		}
	}
	c.recordUnknown(ctx, f, in)
	return entity.Unknown()
}

var separators = regexp.MustCompile(`[_\-./]+`)
var tokenSplit = regexp.MustCompile(`[_\-\s.]+`)

// blobKeys are joined in this order into the attribute blob.
var blobKeys = []string{
	entity.AttrName, entity.AttrID, entity.AttrPlaceholder, entity.AttrAriaLabel,
	entity.AttrLabelText, entity.AttrNearbyText, entity.AttrClass,
}

func Extract(in Input) *Features {
	attrs := make(map[string]string, len(in.Attributes))
	for k, v := range in.Attributes {
		if v != "" {
			attrs[strings.ToLower(k)] = strings.ToLower(v)
		}
	}

	parts := make([]string, len(blobKeys))
	for i, k := range blobKeys {
		parts[i] = attrs[k]
	}
	raw := strings.TrimSpace(strings.Join(parts, " "))
	blob := separators.ReplaceAllString(raw, " ")

	tokens := make(map[string]bool)
	for _, t := range tokenSplit.Split(raw, -1) {
		if t != "" {
			tokens[t] = true
		}
	}

	return &Features{
		Tag:      strings.ToLower(strings.TrimSpace(in.Tag)),
		AttrType: attrs[entity.AttrType],
		AttrRaw:  raw,
		AttrBlob: blob,
		Combined: strings.TrimSpace(blob + " " + strings.ToLower(in.Text)),
		Tokens:   tokens,
	}
}

func (f *Features) toggle() bool {
	return f.AttrType == "checkbox" || f.AttrType == "radio"
}

func hit(t entity.FieldType, conf int) (entity.Classification, bool) {
	return entity.Classification{Type: t, Confidence: conf}, true
}

func miss() (entity.Classification, bool) {
	return entity.Classification{}, false
}

func controlStage(_ context.Context, f *Features) (entity.Classification, bool) {
	if f.Tag == "button" {
		return hit(entity.FieldSubmit, 98)
	}
	return miss()
}

func captchaStage(_ context.Context, f *Features) (entity.Classification, bool) {
	for _, p := range captchaPatterns {
		if strings.Contains(f.Combined, p) {
			return hit(entity.FieldCaptcha, 100)
		}
	}
	return miss()
}

func htmlTypeStage(_ context.Context, f *Features) (entity.Classification, bool) {
	switch f.AttrType {
	case "email":
		return hit(entity.FieldEmail, 95)
	case "tel", "phone":
		return hit(entity.FieldPhone, 95)
	case "submit", "button", "reset":
		return hit(entity.FieldSubmit, 98)
	case "file", "image":
		return hit(entity.FieldFile, 98)
	case "search":
		return hit(entity.FieldSubject, 70)
	case "checkbox", "radio":
		return hit(entity.FieldChoice, 95)
	}
	return miss()
}

// nativeTagStage keeps option text inside a select from deciding the type.
func nativeTagStage(_ context.Context, f *Features) (entity.Classification, bool) {
	switch f.Tag {
	case "textarea":
		return hit(entity.FieldMessage, 95)
	case "select":
		return hit(entity.FieldDropdown, 95)
	}
	return miss()
}

func keywordStage(_ context.Context, f *Features) (entity.Classification, bool) {
	if strings.Contains(f.AttrBlob, "full name") ||
		(strings.Contains(f.AttrBlob, "your name") && !strings.Contains(f.AttrBlob, "first name")) {
		return hit(entity.FieldName, 92)
	}
	for _, set := range fieldPatterns {
		for _, p := range set.Patterns {
			if strings.Contains(f.AttrBlob, p) {
				return hit(set.Type, 90)
			}
		}
	}
	return miss()
}

func (c *Classifier) fuzzyStage(_ context.Context, f *Features) (entity.Classification, bool) {
	floor := c.th.MinConfidence
	if f.AttrRaw != "" {
		floor = math.Min(c.th.AttributeFuzzyFloor, c.th.MinConfidence)
	}
	return bestFuzzy(f, floor)
}

func (c *Classifier) fuzzyFallbackStage(_ context.Context, f *Features) (entity.Classification, bool) {
	return bestFuzzy(f, c.th.FuzzyFallbackMin)
}

// bestFuzzy keeps the first field type reaching the highest score.
func bestFuzzy(f *Features, floor float64) (entity.Classification, bool) {
	if f.Combined == "" || f.toggle() {
		return miss()
	}
	var best entity.FieldType
	var bestScore float64
	for _, set := range fieldPatterns {
		if set.Type == entity.FieldCaptcha || set.Type == entity.FieldChoice {
			continue
		}
		for _, p := range set.Patterns {
			score := fuzzy.Best(p, f.Combined)
			if score > bestScore && score >= floor {
				best, bestScore = set.Type, score
			}
		}
	}
	if best == "" {
		return miss()
	}
	return hit(best, int(math.Round(bestScore)))
}

// tokenStage catches compound identifiers such as customer_name.
func tokenStage(_ context.Context, f *Features) (entity.Classification, bool) {
	t := f.Tokens
	if t["name"] && !(t["first"] || t["last"] || t["surname"] || t["given"] || t["family"]) {
		return hit(entity.FieldName, 75)
	}
	switch {
	case t["email"] || t["mail"]:
		return hit(entity.FieldEmail, 80)
	case t["phone"] || t["tel"] || t["mobile"]:
		return hit(entity.FieldPhone, 80)
	case t["company"] || t["organization"] || t["business"]:
		return hit(entity.FieldCompany, 80)
	case t["message"] || t["comment"] || t["inquiry"] || t["details"]:
		return hit(entity.FieldMessage, 75)
	}
	return miss()
}

func (c *Classifier) semanticStage(ctx context.Context, f *Features) (entity.Classification, bool) {
	if c.semantic == nil || f.Combined == "" || f.toggle() {
		return miss()
	}
	return c.semantic.match(ctx, f.Combined)
}

func tagHeuristicStage(_ context.Context, f *Features) (entity.Classification, bool) {
	switch f.Tag {
	case "textarea":
		return hit(entity.FieldMessage, 60)
	case "select":
		return hit(entity.FieldDropdown, 70)
	}
	return miss()
}

func (c *Classifier) recordUnknown(ctx context.Context, f *Features, in Input) {
	if !c.logUnknown || c.sink == nil {
		return
	}
	text := []rune(f.Combined)
	if len(text) > 500 {
		text = text[:500]
	}
	p := entity.UnknownPattern{
		Timestamp:    time.Now(),
		CombinedText: string(text),
		Attributes:   in.Attributes.Truncated(200),
		ElementType:  f.Tag,
	}
	if err := c.sink.Record(ctx, p); err != nil {
		c.logger.Warn("Failed to record unknown pattern", "error", err)
		return
	}
	c.logger.Debug("Unknown pattern recorded", "text", clip(f.Combined, 80))
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var skipTypes = map[entity.FieldType]bool{
	entity.FieldCaptcha: true,
	entity.FieldButton:  true,
	entity.FieldSubmit:  true,
	entity.FieldFile:    true,
	entity.FieldChoice:  true,
}

// ShouldSkip is the gate applied after classification.
func ShouldSkip(ft entity.FieldType, el *entity.ResolvedElement) bool {
	if skipTypes[ft] {
		return true
	}
	attrType := el.DOM.Attributes.Type()
	if attrType == "checkbox" || attrType == "radio" {
		return true
	}
	switch strings.ToLower(el.DOM.Tag) {
	case "input", "textarea", "select":
	default:
		return true
	}
	if el.Exhausted() {
		return true
	}
	return attrType == "hidden"
}

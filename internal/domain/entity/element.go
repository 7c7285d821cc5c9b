package entity

import (
	"strings"

	"form-filler/internal/domain/geometry"
)

// Attribute bag keys.
const (
	AttrType        = "type"
	AttrName        = "name"
	AttrID          = "id"
	AttrClass       = "class"
	AttrPlaceholder = "placeholder"
	AttrAriaLabel   = "aria-label"
	AttrLabelText   = "label_text"
	AttrNearbyText  = "nearby_text"
)

type Attributes map[string]string

func (a Attributes) Get(key string) string {
	if a == nil {
		return ""
	}
	return a[key]
}

// Type returns the lowercased type attribute.
func (a Attributes) Type() string {
	return strings.ToLower(strings.TrimSpace(a.Get(AttrType)))
}

// Truncated returns a copy with every value cut to max runes.
func (a Attributes) Truncated(max int) Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		r := []rune(v)
		if len(r) > max {
			v = string(r[:max])
		}
		out[k] = v
	}
	return out
}

type Source string

const (
	SourceDOM       Source = "dom"
	SourceShadowDOM Source = "shadow_dom"
	SourceCV        Source = "cv"
)

type Shape string

const (
	ShapeInput    Shape = "input"
	ShapeButton   Shape = "button"
	ShapeTextarea Shape = "textarea"
)

// Region is one visual detection.
type Region struct {
	Box   geometry.Box `json:"box"`
	Shape Shape        `json:"shape"`
}

// DOMCandidate is a field-like element found in the DOM. Box is in
// screenshot pixels of the capture it was harvested against.
type DOMCandidate struct {
	Frame      FrameKey     `json:"frame"`
	Box        geometry.Box `json:"box"`
	Tag        string       `json:"tag"`
	Attributes Attributes   `json:"attributes"`
	Selector   string       `json:"selector"`
	XPath      string       `json:"xpath,omitempty"`
	Source     Source       `json:"source"`
}

// ShadowPierce joins the selectors of a shadow host chain. Each part is
// resolved inside the shadow root of the element matched by the previous one.
const ShadowPierce = " >>> "

// ShadowPath splits a selector into its shadow host chain. A plain selector
// yields a single part.
func ShadowPath(selector string) []string {
	return strings.Split(selector, ShadowPierce)
}

// PiercesShadow reports whether selector crosses at least one shadow root.
func PiercesShadow(selector string) bool {
	return strings.Contains(selector, ShadowPierce)
}

// HarvestKey deduplicates harvested candidates.
func (c DOMCandidate) HarvestKey() [4]string {
	return [4]string{c.Frame.URL, c.Frame.Name, c.Selector, c.XPath}
}

// ElementKey is the identity of a logical field across detection passes.
type ElementKey struct {
	FrameURL  string
	FrameName string
	Selector  string
	XPath     string
	Tag       string
}

func (c DOMCandidate) Key() ElementKey {
	return ElementKey{
		FrameURL:  c.Frame.URL,
		FrameName: c.Frame.Name,
		Selector:  c.Selector,
		XPath:     c.XPath,
		Tag:       c.Tag,
	}
}

func (c DOMCandidate) IsContentEditable() bool {
	return strings.EqualFold(c.Attributes.Get("contenteditable"), "true")
}

// DetectionKind tags which payload a Detection carries.
type DetectionKind string

const (
	DetectionCV     DetectionKind = "cv"
	DetectionDOM    DetectionKind = "dom"
	DetectionShadow DetectionKind = "shadow_dom"
)

// Detection is the tagged union fed to fusion: CV detections carry a Shape,
// DOM and shadow DOM detections carry a Candidate.
type Detection struct {
	Kind      DetectionKind
	Box       geometry.Box
	Shape     Shape
	Candidate *DOMCandidate
}

func CVDetection(r Region) Detection {
	return Detection{Kind: DetectionCV, Box: r.Box, Shape: r.Shape}
}

func DOMDetection(c DOMCandidate) Detection {
	kind := DetectionDOM
	if c.Source == SourceShadowDOM {
		kind = DetectionShadow
	}
	cc := c
	return Detection{Kind: kind, Box: c.Box, Candidate: &cc}
}

// MaxFailedAttempts is the failure count after which an element is skipped.
const MaxFailedAttempts = 2

// ResolvedElement is the unit processed by classification, fill and verify.
type ResolvedElement struct {
	Box            geometry.Box
	Source         Source
	DOM            DOMCandidate
	Shape          Shape
	FailedAttempts int

	ClassifiedAs  FieldType
	Confidence    int
	ResolvedValue string
	TraceIndex    int
}

func (e *ResolvedElement) Key() ElementKey {
	return e.DOM.Key()
}

func (e *ResolvedElement) Exhausted() bool {
	return e.FailedAttempts >= MaxFailedAttempts
}

func (e *ResolvedElement) MarkFailed() {
	e.FailedAttempts++
}

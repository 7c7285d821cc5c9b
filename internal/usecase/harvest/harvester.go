// Package harvest collects field-like DOM elements from every frame and
// open shadow root and maps their boxes into screenshot space.
package harvest

import (
	"context"
	"encoding/json"
	"fmt"

	"form-filler/internal/application/port/output"
	"form-filler/internal/domain/entity"
	"form-filler/internal/domain/geometry"
)

// Capture describes the screenshot that candidate boxes are mapped into.
type Capture struct {
	Transform geometry.Transform
	// Origin is the crop origin in absolute screenshot pixels.
	Origin geometry.Point
	Width  float64
	Height float64
}

type rawItem struct {
	X          float64           `json:"x"`
	Y          float64           `json:"y"`
	W          float64           `json:"w"`
	H          float64           `json:"h"`
	Tag        string            `json:"tag"`
	Attributes entity.Attributes `json:"attributes"`
	Selector   string            `json:"selector"`
	XPath      string            `json:"xpath"`
	Shadow     bool              `json:"shadow"`
}

type Harvester struct {
	logger output.LoggerPort
}

func New(logger output.LoggerPort) *Harvester {
	return &Harvester{logger: output.OrNop(logger)}
}

// ReadTransform reads scroll offsets and device pixel ratio of the main frame.
func (h *Harvester) ReadTransform(ctx context.Context, page output.PagePort) (geometry.Transform, error) {
	frames, err := page.Frames(ctx)
	if err != nil {
		return geometry.Transform{DPR: 1}, fmt.Errorf("list frames: %w", err)
	}
	raw, err := page.Evaluate(ctx, entity.MainFrame(frames), transformJS)
	if err != nil {
		return geometry.Transform{DPR: 1}, fmt.Errorf("read transform: %w", err)
	}
	var t geometry.Transform
	if err := json.Unmarshal(raw, &t); err != nil {
		return geometry.Transform{DPR: 1}, fmt.Errorf("decode transform: %w", err)
	}
	if t.DPR <= 0 {
		t.DPR = 1
	}
	return t, nil
}

// Harvest returns deduplicated candidates from all frames. A frame whose
// script fails is skipped.
func (h *Harvester) Harvest(ctx context.Context, page output.PagePort, capture Capture) ([]entity.DOMCandidate, error) {
	frames, err := page.Frames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}

	seen := make(map[[4]string]bool)
	var out []entity.DOMCandidate

	for _, frame := range frames {
		raw, err := page.Evaluate(ctx, frame, harvestJS)
		if err != nil {
			h.logger.Warn("Frame harvest failed", "frame", frame.Path, "url", frame.URL, "error", err)
			continue
		}
		var items []rawItem
		if err := json.Unmarshal(raw, &items); err != nil {
			h.logger.Warn("Frame harvest decode failed", "frame", frame.Path, "error", err)
			continue
		}

		for _, it := range items {
			if it.W < 8 || it.H < 8 {
				continue
			}
			vb := geometry.Box{X: it.X + frame.OffsetX, Y: it.Y + frame.OffsetY, W: it.W, H: it.H}
			sb := geometry.ViewportToScreenshot(vb, capture.Transform, capture.Origin)
			if !sb.OverlapsImage(capture.Width, capture.Height) {
				continue
			}

			cand := toCandidate(it, frame.Key())
			cand.Box = sb
			key := cand.HarvestKey()
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, cand)
		}
	}

	h.logger.Debug("DOM harvest finished", "frames", len(frames), "candidates", len(out))
	return out, nil
}

// ResolvePoint finds the element under the center of a screenshot box in
// the main frame. The point is passed in document coordinates, so lookups
// do not depend on the scroll position left by earlier ones.
func (h *Harvester) ResolvePoint(ctx context.Context, page output.PagePort, box geometry.Box, capture Capture) (*entity.DOMCandidate, error) {
	frames, err := page.Frames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	main := entity.MainFrame(frames)

	_, center := geometry.ScreenshotToViewport(box, capture.Transform, capture.Origin)
	px, py := center.X+capture.Transform.ScrollX, center.Y+capture.Transform.ScrollY
	raw, err := page.Evaluate(ctx, main, pointJS, px, py)
	if err != nil {
		return nil, fmt.Errorf("element from point: %w", err)
	}
	if isNull(raw) {
		return nil, output.ErrElementNotFound
	}
	var it rawItem
	if err := json.Unmarshal(raw, &it); err != nil {
		return nil, fmt.Errorf("decode point element: %w", err)
	}
	if it.Tag == "" {
		return nil, output.ErrElementNotFound
	}

	cand := toCandidate(it, main.Key())
	cand.Box = box
	return &cand, nil
}

// CountFields counts field-like elements across frames.
func (h *Harvester) CountFields(ctx context.Context, page output.PagePort) int {
	frames, err := page.Frames(ctx)
	if err != nil {
		return 0
	}
	total := 0
	for _, f := range frames {
		raw, err := page.Evaluate(ctx, f, countFieldsJS)
		if err != nil {
			continue
		}
		var n int
		if json.Unmarshal(raw, &n) == nil {
			total += n
		}
	}
	return total
}

// PrimaryForm returns the viewport rect of the largest visible main-frame
// form of at least minW×minH CSS pixels.
func (h *Harvester) PrimaryForm(ctx context.Context, page output.PagePort, minW, minH float64) (*geometry.Box, error) {
	frames, err := page.Frames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	raw, err := page.Evaluate(ctx, entity.MainFrame(frames), primaryFormJS, minW, minH)
	if err != nil {
		return nil, fmt.Errorf("primary form: %w", err)
	}
	if isNull(raw) {
		return nil, nil
	}
	var b geometry.Box
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("decode form rect: %w", err)
	}
	return &b, nil
}

// HasCaptcha reports whether any selector matches a rendered element in
// the main frame.
func (h *Harvester) HasCaptcha(ctx context.Context, page output.PagePort, selectors []string) bool {
	frames, err := page.Frames(ctx)
	if err != nil {
		return false
	}
	raw, err := page.Evaluate(ctx, entity.MainFrame(frames), captchaProbeJS, selectors)
	if err != nil {
		return false
	}
	var found bool
	return json.Unmarshal(raw, &found) == nil && found
}

func toCandidate(it rawItem, frame entity.FrameKey) entity.DOMCandidate {
	attrs := it.Attributes
	if attrs == nil {
		attrs = entity.Attributes{}
	}
	src := entity.SourceDOM
	if it.Shadow {
		src = entity.SourceShadowDOM
	}
	return entity.DOMCandidate{
		Frame:      frame,
		Tag:        it.Tag,
		Attributes: attrs,
		Selector:   it.Selector,
		XPath:      it.XPath,
		Source:     src,
	}
}

func isNull(raw json.RawMessage) bool {
	s := string(raw)
	return s == "" || s == "null" || s == "undefined"
}

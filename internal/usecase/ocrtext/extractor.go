// Package ocrtext reads text around a region of a screenshot through the
// injected OCR engine.
package ocrtext

import (
	"context"
	"errors"
	"image"
	"strings"

	"form-filler/internal/application/port/output"
	"form-filler/internal/domain/geometry"

	"github.com/disintegration/imaging"
)

type Config struct {
	MinConfidence float64
	ContextMargin int
}

func DefaultConfig() Config {
	return Config{MinConfidence: 50, ContextMargin: 50}
}

type Extractor struct {
	ocr      output.OCRPort
	cfg      Config
	logger   output.LoggerPort
	disabled bool
}

// New returns an extractor. A nil engine yields empty text for every call.
func New(ocr output.OCRPort, cfg Config, logger output.LoggerPort) *Extractor {
	return &Extractor{ocr: ocr, cfg: cfg, logger: output.OrNop(logger), disabled: ocr == nil}
}

func (e *Extractor) Available() bool {
	return !e.disabled
}

// Region returns lowercased text from box expanded by the context margin
// and the mean confidence of the accepted words.
func (e *Extractor) Region(ctx context.Context, img image.Image, box geometry.Box) (string, float64) {
	return e.extract(ctx, img, box, e.cfg.ContextMargin)
}

// Page reads the whole image.
func (e *Extractor) Page(ctx context.Context, img image.Image) (string, float64) {
	if img == nil {
		return "", 0
	}
	b := img.Bounds()
	return e.extract(ctx, img, geometry.Box{X: float64(b.Min.X), Y: float64(b.Min.Y), W: float64(b.Dx()), H: float64(b.Dy())}, 0)
}

func (e *Extractor) extract(ctx context.Context, img image.Image, box geometry.Box, margin int) (string, float64) {
	if e.disabled || img == nil {
		return "", 0
	}

	roi := crop(img, box, margin)
	if roi.Empty() {
		return "", 0
	}
	prepared := binarize(imaging.Crop(img, roi))

	words, err := e.ocr.Words(ctx, prepared)
	if err != nil {
		if errors.Is(err, output.ErrUnavailable) {
			e.disabled = true
			e.logger.Warn("OCR engine unavailable, continuing without OCR", "error", err)
		} else {
			e.logger.Warn("OCR failed for region", "error", err)
		}
		return "", 0
	}

	var texts []string
	var sum float64
	for _, w := range words {
		text := strings.TrimSpace(w.Text)
		if text == "" || w.Confidence <= e.cfg.MinConfidence {
			continue
		}
		texts = append(texts, text)
		sum += w.Confidence
	}
	if len(texts) == 0 {
		return "", 0
	}
	return strings.ToLower(strings.Join(texts, " ")), sum / float64(len(texts))
}

func crop(img image.Image, box geometry.Box, margin int) image.Rectangle {
	r := image.Rect(
		int(box.X)-margin,
		int(box.Y)-margin,
		int(box.X)+int(box.W)+margin,
		int(box.Y)+int(box.H)+margin,
	)
	return r.Intersect(img.Bounds())
}

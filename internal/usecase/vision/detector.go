// Package vision finds rectangular input-like regions in a screenshot
// without looking at the DOM.
package vision

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"sort"

	"form-filler/internal/application/port/output"
	"form-filler/internal/domain/entity"
	"form-filler/internal/domain/geometry"

	"github.com/disintegration/imaging"
)

type Config struct {
	BlurSigma       float64
	LowThreshold    float64
	HighThreshold   float64
	KernelWidth     int
	KernelHeight    int
	CloseIterations int

	MinWidth  int
	MinHeight int
	MinArea   float64

	TextareaMinHeight float64
	ButtonMaxAspect   float64
	ButtonMinHeight   float64

	IoUThreshold float64
}

func DefaultConfig() Config {
	return Config{
		// sigma OpenCV derives for a 5x5 kernel
		BlurSigma:         1.1,
		LowThreshold:      40,
		HighThreshold:     130,
		KernelWidth:       5,
		KernelHeight:      3,
		CloseIterations:   2,
		MinWidth:          40,
		MinHeight:         18,
		MinArea:           900,
		TextareaMinHeight: 70,
		ButtonMaxAspect:   1.8,
		ButtonMinHeight:   28,
		IoUThreshold:      0.45,
	}
}

type Detector struct {
	cfg    Config
	logger output.LoggerPort
}

func New(cfg Config, logger output.LoggerPort) *Detector {
	def := DefaultConfig()
	if cfg.MinWidth <= 0 {
		cfg.MinWidth = def.MinWidth
	}
	if cfg.MinHeight <= 0 {
		cfg.MinHeight = def.MinHeight
	}
	if cfg.KernelWidth <= 0 || cfg.KernelHeight <= 0 {
		cfg.KernelWidth, cfg.KernelHeight = def.KernelWidth, def.KernelHeight
	}
	if cfg.IoUThreshold <= 0 {
		cfg.IoUThreshold = def.IoUThreshold
	}
	return &Detector{cfg: cfg, logger: output.OrNop(logger)}
}

// DetectBytes decodes an encoded screenshot. Unreadable input yields no regions.
func (d *Detector) DetectBytes(data []byte) []entity.Region {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		d.logger.Warn("Screenshot decode failed", "error", err)
		return nil
	}
	return d.Detect(img)
}

// Detect returns candidate regions in descending area order after
// overlap suppression.
func (d *Detector) Detect(img image.Image) []entity.Region {
	if img == nil || img.Bounds().Empty() {
		return nil
	}

	gray := imaging.Grayscale(img)
	if d.cfg.BlurSigma > 0 {
		gray = imaging.Blur(gray, d.cfg.BlurSigma)
	}

	lum := newPlane(gray)
	edges := canny(lum, d.cfg.LowThreshold, d.cfg.HighThreshold)
	closed := closeMask(edges, d.cfg.KernelWidth, d.cfg.KernelHeight, d.cfg.CloseIterations)

	var boxes []geometry.Box
	for _, r := range components(closed) {
		w, h := r.Dx(), r.Dy()
		if w < d.cfg.MinWidth || h < d.cfg.MinHeight {
			continue
		}
		if float64(w*h) < d.cfg.MinArea {
			continue
		}
		boxes = append(boxes, geometry.Box{X: float64(r.Min.X), Y: float64(r.Min.Y), W: float64(w), H: float64(h)})
	}
	boxes = external(boxes)

	regions := make([]entity.Region, 0, len(boxes))
	for _, idx := range geometry.Suppress(boxes, d.cfg.IoUThreshold) {
		regions = append(regions, entity.Region{Box: boxes[idx], Shape: d.shape(boxes[idx])})
	}

	d.logger.Debug("Visual detection finished", "regions", len(regions))
	return regions
}

func (d *Detector) shape(b geometry.Box) entity.Shape {
	aspect := b.W / math.Max(1, b.H)
	switch {
	case b.H >= d.cfg.TextareaMinHeight:
		return entity.ShapeTextarea
	case aspect < d.cfg.ButtonMaxAspect && b.H >= d.cfg.ButtonMinHeight:
		return entity.ShapeButton
	default:
		return entity.ShapeInput
	}
}

// external drops boxes nested inside another box, keeping outermost outlines.
func external(boxes []geometry.Box) []geometry.Box {
	sort.SliceStable(boxes, func(i, j int) bool { return boxes[i].Area() > boxes[j].Area() })

	out := make([]geometry.Box, 0, len(boxes))
	for _, b := range boxes {
		nested := false
		for _, o := range out {
			if o != b && o.Contains(b) {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, b)
		}
	}
	return out
}

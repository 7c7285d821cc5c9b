package diagnostics

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"strings"

	"form-filler/internal/application/port/output"
	"form-filler/internal/domain/entity"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var _ output.Annotator = (*Annotator)(nil)

var (
	colorFilled = color.NRGBA{R: 60, G: 180, B: 75, A: 255}
	colorFailed = color.NRGBA{R: 255, A: 255}
	colorReady  = color.NRGBA{R: 255, G: 200, A: 255}
	colorOther  = color.NRGBA{R: 180, G: 180, B: 180, A: 255}
)

// Annotator draws field boxes and labels over a capture.
type Annotator struct {
	dir    string
	logger output.LoggerPort
}

func NewAnnotator(dir string, logger output.LoggerPort) *Annotator {
	return &Annotator{dir: dir, logger: output.OrNop(logger)}
}

func StatusColor(s entity.FieldStatus) color.NRGBA {
	switch s {
	case entity.StatusFilled:
		return colorFilled
	case entity.StatusFillFailed:
		return colorFailed
	case entity.StatusReadyToFill:
		return colorReady
	default:
		return colorOther
	}
}

func Label(f entity.FieldTrace) string {
	return fmt.Sprintf("OCR idx=%d %s c=%d ocr=%.0f src=%s",
		f.Index, f.ClassifiedAs, f.Confidence, f.OCRConfidence, f.Source)
}

// Annotate writes {shot base}_{suffix}.png into the annotator directory.
func (a *Annotator) Annotate(src image.Image, fields []entity.FieldTrace, shotPath, suffix string) (string, error) {
	img := Render(src, fields)

	if err := os.MkdirAll(a.dir, 0755); err != nil {
		return "", fmt.Errorf("create annotation dir: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(shotPath), filepath.Ext(shotPath))
	path := filepath.Join(a.dir, fmt.Sprintf("%s_%s.png", base, suffix))
	if err := imaging.Save(img, path); err != nil {
		return "", fmt.Errorf("save annotation: %w", err)
	}
	a.logger.Debug("Detection overlay saved", "path", path, "fields", len(fields))
	return path, nil
}

// Render returns a copy of src with the overlay drawn.
func Render(src image.Image, fields []entity.FieldTrace) *image.NRGBA {
	img := imaging.Clone(src)
	for _, f := range fields {
		x, y, w, h := int(f.Box.X), int(f.Box.Y), int(f.Box.W), int(f.Box.H)
		if w <= 0 || h <= 0 {
			continue
		}
		c := StatusColor(f.Status)
		rect(img, image.Rect(x, y, x+w, y+h), 2, c)

		d := font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(c),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(x, max(14, y-6)),
		}
		d.DrawString(Label(f))
	}
	return img
}

func rect(img draw.Image, r image.Rectangle, thickness int, c color.Color) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	u := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness),
		image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y),
		image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(img, e.Intersect(r), u, image.Point{}, draw.Src)
	}
}

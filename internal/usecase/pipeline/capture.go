package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"

	"form-filler/internal/domain/geometry"
	"form-filler/internal/usecase/harvest"

	"github.com/disintegration/imaging"
)

const (
	modeForm = "form"
	modeFull = "full"
)

type snapshot struct {
	img     image.Image
	capture harvest.Capture
	mode    string
	formBox *geometry.Box
	path    string
}

// snapshot captures the largest visible form when there is one and the
// full page otherwise. The crop origin keeps DOM boxes aligned with the
// cropped image.
func (r *pageRun) snapshot(ctx context.Context, stage string) (*snapshot, error) {
	d := r.p.deps
	t, err := d.Harvester.ReadTransform(ctx, r.page)
	if err != nil {
		r.log.Debug("Transform read failed", "error", err)
	}

	shot := &snapshot{mode: modeFull}
	var data []byte

	form, err := d.Harvester.PrimaryForm(ctx, r.page, r.p.cfg.FormMinWidth, r.p.cfg.FormMinHeight)
	if err != nil {
		r.log.Warn("Primary form detection failed", "error", err)
	}
	if form != nil {
		clip := geometry.Box{X: form.X + t.ScrollX, Y: form.Y + t.ScrollY, W: form.W, H: form.H}
		data, err = r.page.Screenshot(ctx, &clip)
		if err != nil {
			r.log.Warn("Form screenshot failed, falling back to full page", "error", err)
			data = nil
		} else {
			dpr := t.DPR
			if dpr <= 0 {
				dpr = 1
			}
			shot.mode = modeForm
			shot.formBox = form
			shot.capture.Origin = geometry.Point{X: math.Trunc(clip.X * dpr), Y: math.Trunc(clip.Y * dpr)}
		}
	}

	if data == nil {
		data, err = r.page.Screenshot(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("capture screenshot: %w", err)
		}
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	b := img.Bounds()
	shot.img = img
	shot.capture.Transform = t
	shot.capture.Width = float64(b.Dx())
	shot.capture.Height = float64(b.Dy())

	if d.Shots != nil {
		path, err := d.Shots.Save(r.url, stage, data)
		if err != nil {
			r.log.Warn("Failed to save screenshot", "stage", stage, "error", err)
		} else {
			shot.path = path
		}
	}
	return shot, nil
}

func (r *pageRun) annotate(shot *snapshot, suffix string) string {
	d := r.p.deps
	if !r.p.cfg.Annotate || d.Annotator == nil || shot.path == "" {
		return ""
	}
	path, err := d.Annotator.Annotate(shot.img, r.trace.Fields, shot.path, suffix)
	if err != nil {
		r.log.Warn("Failed to save overlay", "error", err)
		return ""
	}
	r.log.Info("Saved detection overlay", "path", path)
	return path
}

package output

import (
	"context"
	"image"

	"form-filler/internal/domain/entity"
)

// UnknownPatternSink receives diagnostic records for unclassified elements.
type UnknownPatternSink interface {
	Record(ctx context.Context, p entity.UnknownPattern) error
}

// TraceWriter persists live traces and returns where they were written.
type TraceWriter interface {
	WriteTrace(ctx context.Context, trace *entity.LiveTrace) (string, error)
}

// Annotator renders field statuses over a screenshot saved at shotPath and
// returns the path of the overlay.
type Annotator interface {
	Annotate(src image.Image, fields []entity.FieldTrace, shotPath, suffix string) (string, error)
}

// ScreenshotStore saves capture bytes under a stage name.
type ScreenshotStore interface {
	Save(url, stage string, png []byte) (string, error)
}

// ResultStore persists page results.
type ResultStore interface {
	SaveResults(ctx context.Context, results []entity.PageResult) error
}

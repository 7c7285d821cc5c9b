package output

import (
	"context"
	"errors"
	"image"

	"form-filler/internal/domain/entity"
)

// ErrUnavailable marks a collaborator (OCR engine, embedding service) that
// cannot serve this run. Callers disable the dependent stage once.
var ErrUnavailable = errors.New("collaborator unavailable")

type OCRPort interface {
	Words(ctx context.Context, img image.Image) ([]entity.Word, error)
	Close() error
}

// EmbedderPort turns texts into vectors of equal dimension.
type EmbedderPort interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

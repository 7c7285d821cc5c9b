package input

import (
	"context"

	"form-filler/internal/application/port/output"
	"form-filler/internal/domain/entity"
)

// BatchRunner processes a list of pages and returns everything it finished,
// including partial results when ctx is cancelled.
type BatchRunner interface {
	Run(ctx context.Context, urls []string) ([]entity.PageResult, output.BatchReport, error)
}

package input

import (
	"context"

	"form-filler/internal/domain/entity"
)

// PageProcessor detects, fills and submits the form on one page.
type PageProcessor interface {
	Process(ctx context.Context, url string) entity.PageResult
}

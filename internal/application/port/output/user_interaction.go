package output

import (
	"context"

	"form-filler/internal/domain/entity"
)

// BatchReport aggregates a run over many pages. AverageFields is the mean
// number of fields ready to fill per page; FillRate is filled over ready
// fields across the run, in percent.
type BatchReport struct {
	RunID          string
	Total          int
	Successful     int
	Uncertain      int
	CaptchaPages   int
	AverageFields  float64
	FillRate       float64
	AverageSeconds float64
	TopReasons     []ReasonCount
}

type ReasonCount struct {
	Reason string
	Count  int
}

func (r BatchReport) SuccessRate() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Successful) / float64(r.Total) * 100
}

type ReporterPort interface {
	ShowPageStart(ctx context.Context, index, total int, url string)
	ShowPageResult(ctx context.Context, result entity.PageResult)
	ShowReport(ctx context.Context, report BatchReport)
}

// Package store combines result and pattern sinks.
package store

import (
	"context"
	"errors"

	"form-filler/internal/application/port/output"
	"form-filler/internal/domain/entity"
)

var (
	_ output.ResultStore        = Results(nil)
	_ output.UnknownPatternSink = Patterns(nil)
)

// Results saves into every store and joins their errors.
type Results []output.ResultStore

func (rs Results) SaveResults(ctx context.Context, results []entity.PageResult) error {
	var errs []error
	for _, s := range rs {
		if err := s.SaveResults(ctx, results); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Patterns []output.UnknownPatternSink

func (ps Patterns) Record(ctx context.Context, p entity.UnknownPattern) error {
	var errs []error
	for _, s := range ps {
		if err := s.Record(ctx, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

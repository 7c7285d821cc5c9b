// Package fusion merges visual regions and DOM candidates into one
// deduplicated element list.
package fusion

import (
	"context"
	"errors"

	"form-filler/internal/application/port/output"
	"form-filler/internal/domain/entity"
	"form-filler/internal/domain/geometry"
	"form-filler/internal/usecase/harvest"
)

// PointResolver maps a screenshot box to the element under its center.
type PointResolver interface {
	ResolvePoint(ctx context.Context, page output.PagePort, box geometry.Box, capture harvest.Capture) (*entity.DOMCandidate, error)
}

type Config struct {
	IoUThreshold float64
	// RowTolerance groups boxes into one reading row, in screenshot pixels.
	RowTolerance float64
}

func DefaultConfig() Config {
	return Config{IoUThreshold: 0.3, RowTolerance: 12}
}

type Fuser struct {
	resolver PointResolver
	cfg      Config
	logger   output.LoggerPort
}

func New(resolver PointResolver, cfg Config, logger output.LoggerPort) *Fuser {
	if cfg.IoUThreshold <= 0 {
		cfg.IoUThreshold = DefaultConfig().IoUThreshold
	}
	return &Fuser{resolver: resolver, cfg: cfg, logger: output.OrNop(logger)}
}

// Fuse suppresses overlapping detections across both sources, resolves the
// surviving CV boxes through the point fallback and drops identity
// duplicates. The result is in reading order.
func (f *Fuser) Fuse(ctx context.Context, page output.PagePort, regions []entity.Region, candidates []entity.DOMCandidate, capture harvest.Capture) []*entity.ResolvedElement {
	detections := make([]entity.Detection, 0, len(regions)+len(candidates))
	for _, r := range regions {
		detections = append(detections, entity.CVDetection(r))
	}
	for _, c := range candidates {
		detections = append(detections, entity.DOMDetection(c))
	}
	if len(detections) == 0 {
		return nil
	}

	boxes := make([]geometry.Box, len(detections))
	for i, d := range detections {
		boxes[i] = d.Box
	}
	keep := geometry.Suppress(boxes, f.cfg.IoUThreshold)
	geometry.ReadingOrder(boxes, keep, f.cfg.RowTolerance)

	seen := make(map[entity.ElementKey]bool)
	var out []*entity.ResolvedElement
	unresolved := 0

	for _, idx := range keep {
		det := detections[idx]
		el := &entity.ResolvedElement{Box: det.Box, Shape: det.Shape, TraceIndex: -1}

		switch det.Kind {
		case entity.DetectionCV:
			if f.resolver == nil {
				unresolved++
				continue
			}
			cand, err := f.resolver.ResolvePoint(ctx, page, det.Box, capture)
			if err != nil {
				if !errors.Is(err, output.ErrElementNotFound) {
					f.logger.Debug("Point lookup failed", "box", det.Box, "error", err)
				}
				unresolved++
				continue
			}
			el.DOM = *cand
			el.Source = entity.SourceCV
		default:
			el.DOM = *det.Candidate
			el.Source = det.Candidate.Source
		}

		key := el.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, el)
	}

	f.logger.Debug("Detections fused",
		"cv", len(regions),
		"dom", len(candidates),
		"kept", len(keep),
		"unresolved", unresolved,
		"elements", len(out),
	)
	return out
}

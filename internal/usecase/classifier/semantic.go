package classifier

import (
	"context"
	"errors"
	"math"
	"strings"

	"form-filler/internal/application/port/output"
	"form-filler/internal/domain/entity"
)

// semanticStage compares the element text with canonical field
// descriptions in embedding space. The description vectors are computed on
// first use and cached; any failure to build them disables the stage.
type semanticStage struct {
	embedder output.EmbedderPort
	th       Thresholds
	logger   output.LoggerPort

	refs     [][]float32
	disabled bool
}

func newSemanticStage(embedder output.EmbedderPort, th Thresholds, logger output.LoggerPort) *semanticStage {
	return &semanticStage{embedder: embedder, th: th, logger: logger}
}

func (s *semanticStage) ready(ctx context.Context) bool {
	if s.disabled {
		return false
	}
	if s.refs != nil {
		return true
	}
	texts := make([]string, len(descriptions))
	for i, d := range descriptions {
		texts[i] = d.Text
	}
	vecs, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil || len(vecs) != len(texts) {
		s.disabled = true
		s.logger.Warn("Semantic classification disabled", "model", s.embedder.Model(), "error", err)
		return false
	}
	s.refs = vecs
	s.logger.Info("Semantic descriptions embedded", "model", s.embedder.Model(), "types", len(vecs))
	return true
}

func (s *semanticStage) match(ctx context.Context, text string) (entity.Classification, bool) {
	text = strings.TrimSpace(text)
	if text == "" || !s.ready(ctx) {
		return miss()
	}
	if r := []rune(text); s.th.SemanticMaxChars > 0 && len(r) > s.th.SemanticMaxChars {
		text = string(r[:s.th.SemanticMaxChars])
	}

	vecs, err := s.embedder.EmbedBatch(ctx, []string{text})
	if err != nil || len(vecs) != 1 {
		if errors.Is(err, output.ErrUnavailable) {
			s.disabled = true
			s.logger.Warn("Embedding service unavailable, semantic stage off", "error", err)
		} else {
			s.logger.Debug("Semantic classification failed", "error", err)
		}
		return miss()
	}

	bestIdx, bestSim := -1, math.Inf(-1)
	for i, ref := range s.refs {
		if sim := cosine(ref, vecs[0]); sim > bestSim {
			bestIdx, bestSim = i, sim
		}
	}
	if bestIdx < 0 || bestSim < s.th.SemanticMin {
		return miss()
	}
	conf := int(math.Round(bestSim * 100))
	if conf > s.th.SemanticMaxConf {
		conf = s.th.SemanticMaxConf
	}
	return hit(descriptions[bestIdx].Type, conf)
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return dot / (math.Sqrt(na)*math.Sqrt(nb) + 1e-9)
}

package diagnostics

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"form-filler/internal/application/port/output"
	"form-filler/internal/domain/entity"
)

var _ output.TraceWriter = (*TraceWriter)(nil)

type TraceWriter struct {
	dir    string
	now    func() time.Time
	logger output.LoggerPort
}

func NewTraceWriter(dir string, logger output.LoggerPort) *TraceWriter {
	return &TraceWriter{dir: dir, now: time.Now, logger: output.OrNop(logger)}
}

func (w *TraceWriter) WriteTrace(ctx context.Context, trace *entity.LiveTrace) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("create trace dir: %w", err)
	}
	data, err := json.MarshalIndent(trace, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode trace: %w", err)
	}
	path := filepath.Join(w.dir, fmt.Sprintf("%s_%s.json", stamp(w.now()), traceName(trace.URL)))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write trace: %w", err)
	}
	w.logger.Info("Live trace saved", "path", path)
	return path, nil
}

package diagnostics

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"form-filler/internal/application/port/output"
	"form-filler/internal/domain/entity"
)

var _ output.UnknownPatternSink = (*UnknownLog)(nil)

// UnknownLog appends one JSON object per line.
type UnknownLog struct {
	mu   sync.Mutex
	path string
}

func NewUnknownLog(path string) *UnknownLog {
	return &UnknownLog{path: path}
}

func (l *UnknownLog) Record(ctx context.Context, p entity.UnknownPattern) error {
	line, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode unknown pattern: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("create unknown log dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open unknown log: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append unknown pattern: %w", err)
	}
	return nil
}

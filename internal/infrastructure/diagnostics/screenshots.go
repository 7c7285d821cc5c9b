package diagnostics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"form-filler/internal/application/port/output"
)

var _ output.ScreenshotStore = (*ScreenshotStore)(nil)

type ScreenshotStore struct {
	dir string
	now func() time.Time
}

func NewScreenshotStore(dir string) *ScreenshotStore {
	return &ScreenshotStore{dir: dir, now: time.Now}
}

// Save writes {ts}_{site}[_{stage}].png.
func (s *ScreenshotStore) Save(url, stage string, png []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}
	suffix := ""
	if stage != "" {
		suffix = "_" + stage
	}
	path := filepath.Join(s.dir, fmt.Sprintf("%s_%s%s.png", stamp(s.now()), SiteName(url), suffix))
	if err := os.WriteFile(path, png, 0644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	return path, nil
}

// Package csvresults keeps a URL-keyed results table on disk.
package csvresults

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"form-filler/internal/application/port/output"
	"form-filler/internal/domain/entity"
)

var _ output.ResultStore = (*Writer)(nil)

var header = []string{"URL", "Submission", "Reason"}

type row struct {
	url, submission, reason string
}

// Writer upserts rows by URL. Existing order is kept, new URLs go last.
type Writer struct {
	mu     sync.Mutex
	path   string
	logger output.LoggerPort
}

func NewWriter(path string, logger output.LoggerPort) *Writer {
	return &Writer{path: path, logger: output.OrNop(logger)}
}

func (w *Writer) Path() string { return w.path }

func (w *Writer) SaveResults(ctx context.Context, results []entity.PageResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rows, err := w.read()
	if err != nil {
		return err
	}
	index := make(map[string]int, len(rows))
	for i, r := range rows {
		index[r.url] = i
	}

	for _, res := range results {
		url := strings.TrimSpace(res.URL)
		if url == "" {
			continue
		}
		sub := string(res.Outcome)
		if sub == "" {
			sub = string(entity.OutcomeUnsuccessful)
		}
		r := row{url: url, submission: sub, reason: res.Reason}
		if i, ok := index[url]; ok {
			rows[i] = r
			continue
		}
		index[url] = len(rows)
		rows = append(rows, r)
	}

	if err := w.write(rows); err != nil {
		return err
	}
	w.logger.Debug("Results saved", "path", w.path, "rows", len(rows))
	return nil
}

// read accepts the legacy "Submission status" and "reason" headers.
func (w *Writer) read() ([]row, error) {
	f, err := os.Open(w.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open results: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	head, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read results header: %w", err)
	}
	col := func(names ...string) int {
		for _, n := range names {
			for i, h := range head {
				if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) == n {
					return i
				}
			}
		}
		return -1
	}
	urlCol := col("URL")
	subCol := col("Submission", "Submission status")
	reasonCol := col("Reason", "reason")
	if urlCol < 0 {
		return nil, fmt.Errorf("results %s: no URL column", w.path)
	}

	var rows []row
	seen := map[string]bool{}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read results: %w", err)
		}
		url := strings.TrimSpace(field(rec, urlCol))
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true
		sub := field(rec, subCol)
		if sub == "" {
			sub = string(entity.OutcomeUnsuccessful)
		}
		rows = append(rows, row{url: url, submission: sub, reason: field(rec, reasonCol)})
	}
	return rows, nil
}

func (w *Writer) write(rows []row) error {
	if dir := filepath.Dir(w.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create results dir: %w", err)
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(w.path), ".results-*.csv")
	if err != nil {
		return fmt.Errorf("create results: %w", err)
	}
	defer os.Remove(tmp.Name())

	cw := csv.NewWriter(tmp)
	_ = cw.Write(header)
	for _, r := range rows {
		_ = cw.Write([]string{r.url, r.submission, r.reason})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("write results: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return fmt.Errorf("replace results: %w", err)
	}
	return nil
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

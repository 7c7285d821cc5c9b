// Package tesseract adapts libtesseract (through gosseract) to OCRPort.
// Building it needs the tesseract and leptonica development headers.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"
	"sync"

	"form-filler/internal/application/port/output"
	"form-filler/internal/domain/entity"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

var _ output.OCRPort = (*Engine)(nil)

type Config struct {
	Language string
	// PageSegMode 11 is sparse text, which suits form screenshots.
	PageSegMode gosseract.PageSegMode
}

func DefaultConfig() Config {
	return Config{Language: "eng", PageSegMode: gosseract.PSM_SPARSE_TEXT}
}

// Engine serializes calls: a gosseract client is not safe for concurrent use.
type Engine struct {
	mu     sync.Mutex
	client *gosseract.Client
	logger output.LoggerPort
}

// New returns ErrUnavailable when tesseract or its language data is missing.
func New(cfg Config, logger output.LoggerPort) (*Engine, error) {
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	client := gosseract.NewClient()
	if err := client.SetLanguage(strings.Split(cfg.Language, "+")...); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("tesseract language %q: %w", cfg.Language, output.ErrUnavailable)
	}
	if cfg.PageSegMode != 0 {
		if err := client.SetPageSegMode(cfg.PageSegMode); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("tesseract psm: %w", output.ErrUnavailable)
		}
	}

	// tesseract инициализируется лениво, поэтому проверяем на пустой картинке
	if err := probe(client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("tesseract init: %v: %w", err, output.ErrUnavailable)
	}

	logger = output.OrNop(logger)
	logger.Debug("Tesseract ready", "version", gosseract.Version(), "language", cfg.Language)
	return &Engine{client: client, logger: logger}, nil
}

func (e *Engine) Words(ctx context.Context, img image.Image) ([]entity.Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode ocr input: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil, output.ErrUnavailable
	}
	if err := e.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("tesseract image: %w", err)
	}
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("tesseract recognize: %w", err)
	}
	return toWords(boxes), nil
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	return err
}

func probe(client *gosseract.Client) error {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.New(8, 8, image.White), imaging.PNG); err != nil {
		return err
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return err
	}
	_, err := client.Text()
	return err
}

func toWords(boxes []gosseract.BoundingBox) []entity.Word {
	out := make([]entity.Word, 0, len(boxes))
	for _, b := range boxes {
		w := strings.TrimSpace(b.Word)
		if w == "" {
			continue
		}
		out = append(out, entity.Word{Text: w, Confidence: b.Confidence})
	}
	return out
}

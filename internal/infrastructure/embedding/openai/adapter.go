// Package openai talks to an OpenAI-compatible /v1/embeddings endpoint,
// such as a local server hosting all-MiniLM-L6-v2.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"form-filler/internal/application/port/output"

	"github.com/sashabaranov/go-openai"
)

var _ output.EmbedderPort = (*EmbeddingAdapter)(nil)

var ErrNoEndpoint = errors.New("embedding endpoint not configured")

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	Logger  output.LoggerPort
}

func DefaultConfig(baseURL, apiKey string) Config {
	return Config{
		APIKey:  apiKey,
		Model:   "all-MiniLM-L6-v2",
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

type EmbeddingAdapter struct {
	client *openai.Client
	model  string
	logger output.LoggerPort
}

type loggingTransport struct {
	base   http.RoundTripper
	logger output.LoggerPort
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.logger.Debug("HTTP Request failed", "method", req.Method, "url", req.URL.String(), "error", err)
		return nil, err
	}
	t.logger.Debug("HTTP Response",
		"url", req.URL.String(),
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

func NewEmbeddingAdapter(cfg Config) (*EmbeddingAdapter, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: %w", ErrNoEndpoint, output.ErrUnavailable)
	}
	if cfg.Model == "" {
		cfg.Model = "all-MiniLM-L6-v2"
	}
	logger := output.OrNop(cfg.Logger)

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = cfg.BaseURL
	config.HTTPClient = &http.Client{
		Timeout:   cfg.Timeout,
		Transport: &loggingTransport{base: http.DefaultTransport, logger: logger},
	}

	return &EmbeddingAdapter{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
		logger: logger,
	}, nil
}

func (a *EmbeddingAdapter) Model() string { return a.model }

// EmbedBatch returns one vector per text in input order.
func (a *EmbeddingAdapter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(a.model),
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings: got %d vectors for %d texts", len(resp.Data), len(texts))
	}

	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	out := make([][]float32, len(data))
	dim := len(data[0].Embedding)
	for i, d := range data {
		if len(d.Embedding) != dim || dim == 0 {
			return nil, fmt.Errorf("embeddings: inconsistent dimension at %d", i)
		}
		out[i] = d.Embedding
	}
	a.logger.Debug("Embeddings created", "model", a.model, "texts", len(texts), "dim", dim)
	return out, nil
}

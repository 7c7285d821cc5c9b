// Package prefill reads the values a run types into forms.
package prefill

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"form-filler/internal/usecase/prefill"

	"gopkg.in/yaml.v3"
)

var ErrNotFlat = errors.New("prefill values must be scalars")

// Load reads a JSON or YAML document of field type or alias to value.
func Load(path string) (prefill.Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open prefill %s: %w", path, err)
	}
	defer f.Close()

	data, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("prefill %s: %w", path, err)
	}
	return data, nil
}

// Decode parses one mapping. JSON is accepted as YAML flow syntax.
func Decode(r io.Reader) (prefill.Data, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimPrefix(raw, []byte("\ufeff"))

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	out := make(prefill.Data, len(doc))
	for k, v := range doc {
		switch val := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = strings.TrimSpace(val)
		case bool, int, int64, uint64, float64:
			out[k] = fmt.Sprint(val)
		default:
			return nil, fmt.Errorf("%s: %w", k, ErrNotFlat)
		}
	}
	return out, nil
}

package diagnostics

import (
	"bufio"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"form-filler/internal/domain/entity"
	"form-filler/internal/domain/geometry"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixed0 = time.Date(2026, 5, 6, 7, 8, 9, 123456000, time.UTC)

func TestSiteName(t *testing.T) {
	tests := []struct {
		url, want string
	}{
		{"https://www.Example.com/contact?x=1", "www_example_com"},
		{"HTTP://shop.test:8080/a", "shop_test"},
		{"  ", "site"},
		{"https://", "site"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SiteName(tt.url), tt.url)
	}
}

func TestTraceName(t *testing.T) {
	assert.Equal(t, "https_example_com_contact", traceName("https://example.com/contact/"))
	assert.Equal(t, "url", traceName("///"))
	assert.Len(t, traceName("https://"+strings.Repeat("a", 200)), 80)
}

func TestTraceWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "live")
	w := NewTraceWriter(dir, nil)
	w.now = func() time.Time { return fixed0 }

	trace := entity.NewLiveTrace("run-1", "https://example.com/contact")
	path, err := w.WriteTrace(context.Background(), trace)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20260506_070809_123456_https_example_com_contact.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "run-1", got["run_id"])
	assert.Equal(t, "full", got["screenshot_mode"])
}

func TestScreenshotStore(t *testing.T) {
	dir := t.TempDir()
	s := NewScreenshotStore(dir)
	s.now = func() time.Time { return fixed0 }

	path, err := s.Save("https://example.com/x", "post_fill", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20260506_070809_123456_example_com_post_fill.png"), path)

	path, err = s.Save("https://example.com/x", "", []byte("png"))
	require.NoError(t, err)
	assert.Equal(t, "20260506_070809_123456_example_com.png", filepath.Base(path))
}

func TestAnnotator(t *testing.T) {
	dir := t.TempDir()
	a := NewAnnotator(dir, nil)
	src := imaging.New(200, 100, color.White)

	fields := []entity.FieldTrace{
		{Index: 0, Box: geometry.Box{X: 10, Y: 30, W: 80, H: 20}, Status: entity.StatusFilled, ClassifiedAs: entity.FieldEmail, Source: entity.SourceDOM},
		{Index: 1, Box: geometry.Box{X: 100, Y: 60, W: 50, H: 20}, Status: entity.StatusFillFailed},
		{Index: 2, Box: geometry.Box{}, Status: entity.StatusReadyToFill},
	}
	path, err := a.Annotate(src, fields, "/shots/20260506_site.png", "annotated")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20260506_site_annotated.png"), path)

	out, err := imaging.Open(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 200, 100), out.Bounds())

	img := Render(src, fields)
	assert.Equal(t, colorFilled, img.NRGBAAt(10, 40))
	assert.Equal(t, colorFailed, img.NRGBAAt(100, 70))
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, img.NRGBAAt(50, 40))
	// исходник не меняется
	assert.Equal(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, src.NRGBAAt(10, 40))
}

func TestStatusColorAndLabel(t *testing.T) {
	assert.Equal(t, colorReady, StatusColor(entity.StatusReadyToFill))
	assert.Equal(t, colorOther, StatusColor(entity.StatusSkipped))

	label := Label(entity.FieldTrace{Index: 3, ClassifiedAs: entity.FieldPhone, Confidence: 88, OCRConfidence: 61.6, Source: entity.SourceDOM})
	assert.Equal(t, "OCR idx=3 phone c=88 ocr=62 src="+string(entity.SourceDOM), label)
}

func TestUnknownLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "unknown.jsonl")
	l := NewUnknownLog(path)

	for _, text := range []string{"fax", "pronoun"} {
		require.NoError(t, l.Record(context.Background(), entity.UnknownPattern{
			Timestamp: fixed0, CombinedText: text, ElementType: "input",
		}))
	}

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	var texts []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var p entity.UnknownPattern
		require.NoError(t, json.Unmarshal(sc.Bytes(), &p))
		texts = append(texts, p.CombinedText)
	}
	assert.Equal(t, []string{"fax", "pronoun"}, texts)
}

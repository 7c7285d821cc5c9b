package rod

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"form-filler/internal/domain/entity"
	"form-filler/internal/domain/geometry"
	"form-filler/internal/usecase/filler"
	"form-filler/internal/usecase/harvest"
	"form-filler/internal/usecase/verifier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ShadowHTML = `<!DOCTYPE html>
<html>
<body>
	<input class="light" name="email" />
	<contact-card></contact-card>
	<script>
		customElements.define('inner-box', class extends HTMLElement {
			connectedCallback() {
				this.attachShadow({mode: 'open'}).innerHTML = '<input name="phone" style="width: 200px" />';
			}
		});
		customElements.define('contact-card', class extends HTMLElement {
			connectedCallback() {
				this.attachShadow({mode: 'open'}).innerHTML =
					'<label>Email <input name="email" style="width: 200px" /></label><inner-box></inner-box>';
			}
		});
	</script>
</body>
</html>`

const TallHTML = `<!DOCTYPE html>
<html>
<body style="margin: 0; height: 3200px;">
	<input id="company" name="company" style="position: absolute; top: 1500px; left: 20px; width: 200px; height: 30px;" />
	<input id="phone" name="phone" style="position: absolute; top: 2500px; left: 20px; width: 200px; height: 30px;" />
</body>
</html>`

func serveFixture(t *testing.T, body string) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server.URL
}

func viewportCapture(t *testing.T, page *Page) harvest.Capture {
	t.Helper()
	tr, err := harvest.New(nil).ReadTransform(context.Background(), page)
	require.NoError(t, err)
	return harvest.Capture{Transform: tr, Width: 1280 * tr.DPR, Height: 800 * tr.DPR}
}

func TestBrowserAdapter_ShadowFields(t *testing.T) {
	url := serveFixture(t, ShadowHTML)
	page := open(t, newAdapter(t), url).(*Page)
	ctx := context.Background()
	require.NoError(t, page.WaitSettled(ctx, 2*time.Second))

	cands, err := harvest.New(nil).Harvest(ctx, page, viewportCapture(t, page))
	require.NoError(t, err)

	shadow := map[string]entity.DOMCandidate{}
	for _, c := range cands {
		if c.Source == entity.SourceShadowDOM {
			shadow[c.Attributes.Get("name")] = c
		}
	}
	require.Contains(t, shadow, "email")
	require.Contains(t, shadow, "phone")
	assert.Len(t, entity.ShadowPath(shadow["email"].Selector), 2)
	assert.Len(t, entity.ShadowPath(shadow["phone"].Selector), 3)

	fill := filler.New(filler.DefaultConfig(), nil)
	verify := verifier.New(nil)
	for name, value := range map[string]string{"email": "jane@example.com", "phone": "5551234567"} {
		el := &entity.ResolvedElement{DOM: shadow[name], Source: entity.SourceShadowDOM, Box: shadow[name].Box}
		require.True(t, fill.Fill(ctx, page, el, value), name)
		assert.True(t, verify.Verify(ctx, page, el, value), name)
	}

	// the light DOM field with the same name is left alone
	raw, err := page.Evaluate(ctx, entity.MainFrame(nil), `() => document.querySelector('input.light').value`)
	require.NoError(t, err)
	assert.JSONEq(t, `""`, string(raw))
}

func TestBrowserAdapter_LocateShadowMissing(t *testing.T) {
	url := serveFixture(t, ShadowHTML)
	page := open(t, newAdapter(t), url)
	ctx := context.Background()

	_, err := page.Locate(ctx, entity.FrameKey{Path: entity.MainFramePath}, `contact-card >>> input[name="missing"]`, "")
	assert.Error(t, err)
	_, err = page.Locate(ctx, entity.FrameKey{Path: entity.MainFramePath}, `no-such-host >>> input`, "")
	assert.Error(t, err)
}

func TestBrowserAdapter_ResolvePointKeepsScroll(t *testing.T) {
	url := serveFixture(t, TallHTML)
	page := open(t, newAdapter(t), url).(*Page)
	ctx := context.Background()
	h := harvest.New(nil)
	capture := viewportCapture(t, page)
	dpr := capture.Transform.DPR

	for _, tt := range []struct {
		id  string
		top float64
	}{{"company", 1500}, {"phone", 2500}} {
		box := geometry.Box{X: 20 * dpr, Y: tt.top * dpr, W: 200 * dpr, H: 30 * dpr}
		cand, err := h.ResolvePoint(ctx, page, box, capture)
		require.NoError(t, err, tt.id)
		assert.Equal(t, "#"+tt.id, cand.Selector)

		tr, err := h.ReadTransform(ctx, page)
		require.NoError(t, err)
		assert.Zero(t, tr.ScrollY, "scroll restored after %s", tt.id)
	}
}

func TestBrowserAdapter_ScreenshotFullPage(t *testing.T) {
	url := serveFixture(t, TallHTML)
	page := open(t, newAdapter(t), url)

	data, err := page.Screenshot(context.Background(), nil)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	// document pixels, not just the 800px viewport
	assert.GreaterOrEqual(t, img.Bounds().Dy(), 3200)
}

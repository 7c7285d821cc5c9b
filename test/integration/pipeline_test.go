package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"form-filler/internal/domain/entity"
	"form-filler/internal/infrastructure/browser/rod"
	"form-filler/internal/usecase/classifier"
	"form-filler/internal/usecase/evaluator"
	"form-filler/internal/usecase/filler"
	"form-filler/internal/usecase/fusion"
	"form-filler/internal/usecase/harvest"
	"form-filler/internal/usecase/ocrtext"
	"form-filler/internal/usecase/pipeline"
	"form-filler/internal/usecase/prefill"
	"form-filler/internal/usecase/submitter"
	"form-filler/internal/usecase/verifier"
	"form-filler/internal/usecase/vision"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contactPage = `<!DOCTYPE html>
<html>
<head><title>Contact</title></head>
<body style="font-family: sans-serif;">
	<form method="post" action="/thanks" style="width: 480px; padding: 20px;">
		<label for="email">Email</label><br>
		<input id="email" type="email" name="email" style="width: 300px; height: 28px;"><br>
		<input type="hidden" name="contact_email" value="">
		<label for="message">Message</label><br>
		<textarea id="message" name="message" style="width: 300px; height: 90px;"></textarea><br>
		<button type="submit">Send</button>
	</form>
</body>
</html>`

type submission struct {
	mu     sync.Mutex
	fields map[string]string
}

func server(t *testing.T) (*httptest.Server, *submission) {
	t.Helper()
	sub := &submission{}
	mux := http.NewServeMux()
	mux.HandleFunc("/contact", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, contactPage)
	})
	mux.HandleFunc("/thanks", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		sub.mu.Lock()
		sub.fields = map[string]string{"email": r.PostFormValue("email"), "message": r.PostFormValue("message")}
		sub.mu.Unlock()
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><h1>Thank you for contacting us!</h1><p>We will get back to you soon.</p></body></html>`)
	})
	s := httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s, sub
}

func TestPipeline_ContactForm(t *testing.T) {
	if testing.Short() {
		t.Skip("browser tests are skipped in short mode")
	}
	ctx := context.Background()
	s, sub := server(t)

	bcfg := rod.DefaultConfig()
	bcfg.Stealth = false
	browser, err := rod.NewBrowserAdapter(ctx, bcfg, nil)
	if err != nil {
		t.Skipf("browser unavailable: %v", err)
	}
	defer browser.Close()

	h := harvest.New(nil)
	clsCfg := classifier.DefaultConfig()
	clsCfg.UseSemantic = false
	clsCfg.LogUnknown = false

	subCfg := submitter.DefaultConfig()
	subCfg.ClickSettle = time.Second
	subCfg.RecheckSettle = time.Second

	cfg := pipeline.DefaultConfig()
	cfg.OpenDelay = 300 * time.Millisecond
	cfg.RescanDelay = 100 * time.Millisecond
	cfg.SubmitWait = time.Second
	cfg.LiveTrace = false
	cfg.Annotate = false

	proc := pipeline.New(cfg, pipeline.Deps{
		Browser:    browser,
		Detector:   vision.New(vision.DefaultConfig(), nil),
		OCR:        ocrtext.New(nil, ocrtext.DefaultConfig(), nil),
		Harvester:  h,
		Fuser:      fusion.New(h, fusion.DefaultConfig(), nil),
		Classifier: classifier.New(clsCfg, nil, nil, nil),
		Prefill: prefill.NewResolver(prefill.Data{
			"email":   "jane@example.com",
			"message": "Hello from the integration test",
		}),
		Filler:    filler.New(filler.DefaultConfig(), nil),
		Verifier:  verifier.New(nil),
		Submitter: submitter.New(subCfg, nil),
		Evaluator: evaluator.New(evaluator.DefaultConfig(), nil),
	})

	res := proc.Process(ctx, s.URL+"/contact")

	assert.Equal(t, entity.OutcomeSuccess, res.Outcome, res.Reason)
	assert.GreaterOrEqual(t, res.Counters.FieldsFilled, 2)
	assert.False(t, res.CaptchaFound)

	sub.mu.Lock()
	defer sub.mu.Unlock()
	require.NotNil(t, sub.fields, "form was not posted")
	assert.Equal(t, "jane@example.com", sub.fields["email"])
	assert.Equal(t, "Hello from the integration test", sub.fields["message"])
}

func TestPipeline_Unreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("browser tests are skipped in short mode")
	}
	ctx := context.Background()
	bcfg := rod.DefaultConfig()
	bcfg.Stealth = false
	bcfg.NavigationTimeout = 3 * time.Second
	browser, err := rod.NewBrowserAdapter(ctx, bcfg, nil)
	if err != nil {
		t.Skipf("browser unavailable: %v", err)
	}
	defer browser.Close()

	cfg := pipeline.DefaultConfig()
	cfg.LiveTrace = false
	proc := pipeline.New(cfg, pipeline.Deps{Browser: browser})

	res := proc.Process(ctx, "http://127.0.0.1:1/contact")

	assert.Equal(t, entity.OutcomeUnsuccessful, res.Outcome)
	assert.Contains(t, res.Reason, "error: open page")
}

package classifier

import (
	"context"
	"errors"
	"testing"

	"form-filler/internal/application/port/output"
	"form-filler/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	records []entity.UnknownPattern
	err     error
}

func (m *memorySink) Record(ctx context.Context, p entity.UnknownPattern) error {
	m.records = append(m.records, p)
	return m.err
}

// fakeEmbedder returns one-hot vectors for the descriptions and a fixed
// query vector.
type fakeEmbedder struct {
	query []float32
	err   error
	calls int
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(texts) == len(descriptions) {
		out := make([][]float32, len(texts))
		for i := range texts {
			v := make([]float32, len(descriptions))
			v[i] = 1
			out[i] = v
		}
		return out, nil
	}
	return [][]float32{f.query}, nil
}

func (f *fakeEmbedder) Model() string { return "fake-minilm" }

func classify(t *testing.T, c *Classifier, text, tag string, attrs entity.Attributes) entity.Classification {
	t.Helper()
	return c.Classify(context.Background(), Input{Text: text, Tag: tag, Attributes: attrs})
}

func TestClassify_Cascade(t *testing.T) {
	c := New(DefaultConfig(), nil, nil, nil)

	tests := []struct {
		name  string
		text  string
		tag   string
		attrs entity.Attributes
		want  entity.FieldType
		conf  int
		stage string
	}{
		{"button tag", "", "button", entity.Attributes{"type": "text"}, entity.FieldSubmit, 98, "control"},
		{"captcha beats type", "", "input", entity.Attributes{"type": "email", "placeholder": "Enter CAPTCHA"}, entity.FieldCaptcha, 100, "captcha"},
		{"captcha in ocr text", "type the security code", "input", nil, entity.FieldCaptcha, 100, "captcha"},
		{"email type", "please verify your address", "input", entity.Attributes{"type": "email"}, entity.FieldEmail, 95, "html_type"},
		{"tel type", "", "input", entity.Attributes{"type": "tel"}, entity.FieldPhone, 95, "html_type"},
		{"search type", "", "input", entity.Attributes{"type": "search"}, entity.FieldSubject, 70, "html_type"},
		{"checkbox", "", "input", entity.Attributes{"type": "checkbox", "name": "email_optin"}, entity.FieldChoice, 95, "html_type"},
		{"file", "", "input", entity.Attributes{"type": "file"}, entity.FieldFile, 98, "html_type"},
		{"textarea", "", "textarea", entity.Attributes{"name": "email"}, entity.FieldMessage, 95, "native_tag"},
		{"select ignores option text", "email", "select", entity.Attributes{"nearby_text": "How did you hear? Email Google"}, entity.FieldDropdown, 95, "native_tag"},
		{"full name", "", "input", entity.Attributes{"placeholder": "Your Full Name"}, entity.FieldName, 92, "attribute_keyword"},
		{"your name", "", "input", entity.Attributes{"placeholder": "Your name"}, entity.FieldName, 92, "attribute_keyword"},
		{"first name", "", "input", entity.Attributes{"name": "first_name"}, entity.FieldFirstName, 90, "attribute_keyword"},
		{"last name", "", "input", entity.Attributes{"id": "lastname"}, entity.FieldLastName, 90, "attribute_keyword"},
		{"email keyword", "", "input", entity.Attributes{"name": "contact-email", "type": "text"}, entity.FieldEmail, 90, "attribute_keyword"},
		{"company keyword", "", "input", entity.Attributes{"label_text": "Organization"}, entity.FieldCompany, 90, "attribute_keyword"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(t, c, tt.text, tt.tag, tt.attrs)
			assert.Equal(t, tt.want, got.Type)
			assert.Equal(t, tt.conf, got.Confidence)
			assert.Equal(t, tt.stage, got.Stage)
		})
	}
}

func TestClassify_FuzzyFromOCRText(t *testing.T) {
	c := New(DefaultConfig(), nil, nil, nil)

	got := classify(t, c, "telephone", "input", nil)

	assert.Equal(t, entity.FieldPhone, got.Type)
	assert.Equal(t, 100, got.Confidence)
	assert.Equal(t, "fuzzy", got.Stage)
}

func TestClassify_Deterministic(t *testing.T) {
	c := New(DefaultConfig(), nil, nil, nil)
	attrs := entity.Attributes{"class": "form-control wide", "nearby_text": "Your phone"}

	first := classify(t, c, "phone", "input", attrs)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, classify(t, c, "phone", "input", attrs))
	}
}

func TestTokenStage(t *testing.T) {
	tests := []struct {
		raw  string
		want entity.FieldType
	}{
		{"customer_name", entity.FieldName},
		{"contact.mail", entity.FieldEmail},
		{"user-mobile", entity.FieldPhone},
		{"org_business", entity.FieldCompany},
		{"more_details", entity.FieldMessage},
	}
	for _, tt := range tests {
		got, ok := tokenStage(context.Background(), Extract(Input{Attributes: entity.Attributes{"name": tt.raw}}))
		require.True(t, ok, tt.raw)
		assert.Equal(t, tt.want, got.Type, tt.raw)
	}

	_, ok := tokenStage(context.Background(), Extract(Input{Attributes: entity.Attributes{"name": "last_name"}}))
	assert.False(t, ok)
}

func TestExtract(t *testing.T) {
	f := Extract(Input{
		Text: "Your E-Mail",
		Tag:  "INPUT",
		Attributes: entity.Attributes{
			"name":  "contact_email",
			"class": "wpcf7-form.control",
			"type":  "Email",
			"id":    "",
		},
	})

	assert.Equal(t, "input", f.Tag)
	assert.Equal(t, "email", f.AttrType)
	assert.Equal(t, "contact_email      wpcf7-form.control", f.AttrRaw)
	assert.Equal(t, "contact email      wpcf7 form control your e-mail", f.Combined)
	assert.True(t, f.Tokens["wpcf7"])
}

func TestClassify_UnknownRecorded(t *testing.T) {
	sink := &memorySink{}
	c := New(DefaultConfig(), nil, sink, nil)

	got := classify(t, c, "", "input", entity.Attributes{"type": "text"})

	assert.Equal(t, entity.Unknown(), got)
	require.Len(t, sink.records, 1)
	assert.Equal(t, "input", sink.records[0].ElementType)
	assert.Equal(t, "text", sink.records[0].Attributes["type"])
}

func TestClassify_SinkFailureIsNotFatal(t *testing.T) {
	sink := &memorySink{err: errors.New("disk full")}
	c := New(DefaultConfig(), nil, sink, nil)

	got := classify(t, c, "", "div", nil)
	assert.Equal(t, entity.FieldUnknown, got.Type)
}

func TestClassify_UnknownLoggingDisabled(t *testing.T) {
	sink := &memorySink{}
	cfg := DefaultConfig()
	cfg.LogUnknown = false
	c := New(cfg, nil, sink, nil)

	classify(t, c, "", "input", nil)
	assert.Empty(t, sink.records)
}

func TestClassify_TextareaIgnoresText(t *testing.T) {
	c := New(DefaultConfig(), nil, nil, nil)
	got := classify(t, c, "zzqx", "textarea", nil)
	assert.Equal(t, "native_tag", got.Stage)
}

func TestSemanticStage(t *testing.T) {
	emailIdx := -1
	for i, d := range descriptions {
		if d.Type == entity.FieldEmail {
			emailIdx = i
		}
	}
	require.GreaterOrEqual(t, emailIdx, 0)

	query := make([]float32, len(descriptions))
	query[emailIdx] = 0.9
	query[0] = 0.1
	emb := &fakeEmbedder{query: query}
	c := New(DefaultConfig(), emb, nil, nil)

	got := classify(t, c, "zzqx", "input", nil)
	assert.Equal(t, entity.FieldEmail, got.Type)
	assert.Equal(t, 95, got.Confidence)
	assert.Equal(t, "semantic", got.Stage)

	classify(t, c, "zzqx", "input", nil)
	assert.Equal(t, 3, emb.calls, "descriptions are embedded once")
}

func TestSemanticStage_BelowThreshold(t *testing.T) {
	query := make([]float32, len(descriptions))
	for i := range query {
		query[i] = 1
	}
	c := New(DefaultConfig(), &fakeEmbedder{query: query}, nil, nil)

	got := classify(t, c, "zzqx", "input", nil)
	assert.Equal(t, entity.FieldUnknown, got.Type)
}

func TestSemanticStage_DisabledAfterFailure(t *testing.T) {
	emb := &fakeEmbedder{err: output.ErrUnavailable}
	c := New(DefaultConfig(), emb, nil, nil)

	classify(t, c, "zzqx", "input", nil)
	classify(t, c, "zzqx", "input", nil)

	assert.Equal(t, 1, emb.calls)
}

func TestSemanticStage_SkippedWhenConfiguredOff(t *testing.T) {
	emb := &fakeEmbedder{}
	cfg := DefaultConfig()
	cfg.UseSemantic = false
	c := New(cfg, emb, nil, nil)

	classify(t, c, "zzqx", "input", nil)
	assert.Zero(t, emb.calls)
}

func TestShouldSkip(t *testing.T) {
	el := func(tag string, attrs entity.Attributes, failed int) *entity.ResolvedElement {
		return &entity.ResolvedElement{
			DOM:            entity.DOMCandidate{Tag: tag, Attributes: attrs},
			FailedAttempts: failed,
		}
	}

	tests := []struct {
		name string
		ft   entity.FieldType
		el   *entity.ResolvedElement
		want bool
	}{
		{"email input", entity.FieldEmail, el("input", entity.Attributes{"type": "email"}, 0), false},
		{"textarea", entity.FieldMessage, el("textarea", nil, 1), false},
		{"captcha", entity.FieldCaptcha, el("input", nil, 0), true},
		{"submit", entity.FieldSubmit, el("input", nil, 0), true},
		{"button type", entity.FieldButton, el("input", nil, 0), true},
		{"file", entity.FieldFile, el("input", nil, 0), true},
		{"choice", entity.FieldChoice, el("input", nil, 0), true},
		{"radio attr", entity.FieldName, el("input", entity.Attributes{"type": "radio"}, 0), true},
		{"div", entity.FieldName, el("div", nil, 0), true},
		{"exhausted", entity.FieldName, el("input", nil, 2), true},
		{"hidden", entity.FieldEmail, el("input", entity.Attributes{"type": "hidden"}, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldSkip(tt.ft, tt.el))
		})
	}
}

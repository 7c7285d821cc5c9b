package filler

import (
	"context"
	"testing"
	"time"

	"form-filler/internal/application/port/output"
	"form-filler/internal/domain/entity"
	"form-filler/internal/testutil/fakebrowser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{VisibleTimeout: time.Second}
}

func setup(tag string, attrs map[string]string, el *fakebrowser.Element) (*fakebrowser.Page, *entity.ResolvedElement) {
	page := fakebrowser.NewPage("https://example.test/contact")
	el.Tag = tag
	el.Attrs = attrs
	page.Add(el, "#target")
	resolved := &entity.ResolvedElement{
		DOM: entity.DOMCandidate{
			Frame:      entity.FrameKey{URL: page.CurrentURL, Path: entity.MainFramePath},
			Tag:        tag,
			Attributes: entity.Attributes(attrs),
			Selector:   "#target",
		},
	}
	return page, resolved
}

func TestFill_PhoneMask(t *testing.T) {
	el := &fakebrowser.Element{}
	page, res := setup("input", map[string]string{"type": "tel"}, el)

	ok := New(testConfig(), nil).Fill(context.Background(), page, res, "5551234567")

	require.True(t, ok)
	assert.True(t, el.Called("type:(555) 123-4567"))
	assert.Equal(t, "(555) 123-4567", el.Val)
}

func TestFill_DateMask(t *testing.T) {
	el := &fakebrowser.Element{}
	page, res := setup("input", map[string]string{"type": "date"}, el)

	require.True(t, New(testConfig(), nil).Fill(context.Background(), page, res, "15.01.2024"))
	assert.Equal(t, "15/01/2024", el.Val)
}

func TestFill_TextReplacesExisting(t *testing.T) {
	el := &fakebrowser.Element{Val: "old"}
	page, res := setup("input", map[string]string{"type": "text"}, el)

	require.True(t, New(testConfig(), nil).Fill(context.Background(), page, res, "Jane"))
	assert.Equal(t, "Jane", el.Val)
	assert.True(t, el.Called("fill:Jane"))
}

func TestFill_TextFallsBackToTyping(t *testing.T) {
	el := &fakebrowser.Element{FailFill: true}
	page, res := setup("textarea", nil, el)

	require.True(t, New(testConfig(), nil).Fill(context.Background(), page, res, "hi"))
	assert.True(t, el.Called("click"))
	assert.Equal(t, "hi", el.Val)
}

func TestFill_AllStrategiesFail(t *testing.T) {
	el := &fakebrowser.Element{FailFill: true, FailType: true}
	page, res := setup("input", nil, el)

	assert.False(t, New(testConfig(), nil).Fill(context.Background(), page, res, "x"))
	assert.True(t, el.Called("focus"))
}

func TestFill_NotFound(t *testing.T) {
	page := fakebrowser.NewPage("https://example.test")
	res := &entity.ResolvedElement{DOM: entity.DOMCandidate{Tag: "input", Selector: "#gone", XPath: "//input[9]"}}

	assert.False(t, New(testConfig(), nil).Fill(context.Background(), page, res, "x"))
}

func TestFill_NotVisible(t *testing.T) {
	el := &fakebrowser.Element{Hidden: true}
	page, res := setup("input", nil, el)

	assert.False(t, New(testConfig(), nil).Fill(context.Background(), page, res, "x"))
	assert.False(t, el.Called("fill"))
}

func TestFill_ScrollFallback(t *testing.T) {
	el := &fakebrowser.Element{FailScroll: true}
	page, res := setup("input", nil, el)

	require.True(t, New(testConfig(), nil).Fill(context.Background(), page, res, "x"))
	assert.True(t, el.Called("eval"))
}

func TestFill_Select(t *testing.T) {
	opts := []output.Option{
		{Label: "Select...", Value: ""},
		{Label: "Canada", Value: "CA"},
		{Label: "United States", Value: "US"},
	}

	tests := []struct {
		value string
		want  string
		ok    bool
	}{
		{"Canada", "CA", true},
		{"US", "US", true},
		{"us", "US", true},
		{"united", "US", true},
		{"Mexico", "", false},
		{"  ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			el := &fakebrowser.Element{Opts: opts}
			page, res := setup("select", nil, el)

			ok := New(testConfig(), nil).Fill(context.Background(), page, res, tt.value)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, el.Val)
		})
	}
}

func TestFill_Checkbox(t *testing.T) {
	el := &fakebrowser.Element{}
	page, res := setup("input", map[string]string{"type": "checkbox"}, el)

	require.True(t, New(testConfig(), nil).Fill(context.Background(), page, res, "Yes"))
	assert.True(t, el.Checked)
	assert.True(t, el.Called("check"))
}

func TestFill_ContentEditable(t *testing.T) {
	el := &fakebrowser.Element{Editable: true, Text: "placeholder"}
	page, res := setup("div", map[string]string{"contenteditable": "true"}, el)

	require.True(t, New(testConfig(), nil).Fill(context.Background(), page, res, "hello"))
	assert.Equal(t, "hello", el.Text)
}

func TestFill_ContentEditableInnerHTMLFallback(t *testing.T) {
	el := &fakebrowser.Element{Editable: true, FailType: true}
	el.EvalFunc = func(js string, args []any) (any, error) {
		if len(args) == 1 {
			el.SetText(args[0].(string))
		}
		return nil, nil
	}
	page, res := setup("div", map[string]string{"contenteditable": "true"}, el)

	require.True(t, New(testConfig(), nil).Fill(context.Background(), page, res, "hello"))
	assert.Equal(t, "hello", el.Text)
}

func TestStrategyOrder(t *testing.T) {
	f := New(testConfig(), nil)

	names := func(c Category) []string {
		var out []string
		for _, s := range f.Strategies(c) {
			out = append(out, s.Name)
		}
		return out
	}

	assert.Equal(t, []string{"fill", "click_type", "focus_type"}, names(CategoryText))
	assert.Equal(t, []string{"mask", "digits"}, names(CategoryPhone))
	assert.Equal(t, []string{"label", "value", "substring"}, names(CategorySelect))
	assert.Equal(t, []string{"keyboard", "inner_html"}, names(CategoryEditable))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "(555) 123-4567", FormatPhone("5551234567"))
	assert.Equal(t, "(555) 123-4567", FormatPhone("+1 555 123 4567"))
	assert.Equal(t, "12345", FormatPhone("123-45"))
	assert.Equal(t, "15/01/2024", FormatDate("15-01-2024"))
	assert.Equal(t, "1501", FormatDate("15/01"))
	assert.Equal(t, "", Digits("abc"))
}

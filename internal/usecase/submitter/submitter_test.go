package submitter

import (
	"context"
	"strings"
	"testing"

	"form-filler/internal/domain/entity"
	"form-filler/internal/testutil/fakebrowser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubmitter() *Submitter {
	return New(DefaultConfig(), nil)
}

func TestFindAndClick_SubmitInput(t *testing.T) {
	page := fakebrowser.NewPage("https://example.test/contact")
	hidden := &fakebrowser.Element{Tag: "input", Hidden: true}
	btn := &fakebrowser.Element{Tag: "input", Attrs: map[string]string{"type": "submit"}}
	page.On(`input[type="submit"]`, hidden, btn)

	require.True(t, newSubmitter().FindAndClick(context.Background(), page))
	assert.False(t, hidden.Called("click"))
	assert.True(t, btn.Called("click"))
	assert.Equal(t, 1, page.SettleCount)
}

func TestFindAndClick_TypedButtonByText(t *testing.T) {
	page := fakebrowser.NewPage("https://example.test")
	other := &fakebrowser.Element{Tag: "button", Text: "Open menu"}
	send := &fakebrowser.Element{Tag: "button", Text: "Send"}
	page.On(`button[type="button"]`, other, send)

	require.True(t, newSubmitter().FindAndClick(context.Background(), page))
	assert.True(t, send.Called("click"))
	assert.False(t, other.Called("click"))
}

func TestFindAndClick_RoleLabelOrder(t *testing.T) {
	page := fakebrowser.NewPage("https://example.test")
	subscribe := &fakebrowser.Element{Tag: "div", Text: "Subscribe"}
	quote := &fakebrowser.Element{Tag: "div", Attrs: map[string]string{"aria-label": "Request a Quote now"}}
	contact := &fakebrowser.Element{Tag: "button", Text: "CONTACT US"}
	page.On(roleButtonCSS, subscribe, quote, contact)

	require.True(t, newSubmitter().FindAndClick(context.Background(), page))
	// "Contact Us" precedes "Subscribe" in the label list
	assert.True(t, contact.Called("click"))
	assert.False(t, subscribe.Called("click"))
}

func TestFindAndClick_LinkInsideForm(t *testing.T) {
	page := fakebrowser.NewPage("https://example.test")
	link := &fakebrowser.Element{Tag: "a", Text: "Send it"}
	form := &fakebrowser.Element{Tag: "form", Children: map[string][]*fakebrowser.Element{
		"a": {{Tag: "a", Text: "Privacy"}, link},
	}}
	page.On("form", form)

	require.True(t, newSubmitter().FindAndClick(context.Background(), page))
	assert.True(t, link.Called("click"))
}

func TestFindAndClick_FormButtonLimit(t *testing.T) {
	page := fakebrowser.NewPage("https://example.test")
	var els []*fakebrowser.Element
	for i := 0; i < 5; i++ {
		els = append(els, &fakebrowser.Element{Tag: "button", Text: "Next"})
	}
	late := &fakebrowser.Element{Tag: "button", Text: "Apply"}
	page.On(`form button, form input[type="submit"]`, append(els, late)...)

	assert.False(t, newSubmitter().FindAndClick(context.Background(), page))
	assert.False(t, late.Called("click"))
}

func TestFindAndClick_ValueAttributeInForm(t *testing.T) {
	page := fakebrowser.NewPage("https://example.test")
	btn := &fakebrowser.Element{Tag: "input", Attrs: map[string]string{"value": "Register now"}}
	page.On(`form button, form input[type="submit"]`, btn)

	assert.True(t, newSubmitter().FindAndClick(context.Background(), page))
}

func TestFindAndClick_ClickFailureTriesNext(t *testing.T) {
	page := fakebrowser.NewPage("https://example.test")
	broken := &fakebrowser.Element{Tag: "input", FailClick: true}
	page.On(`input[type="submit"]`, broken)
	fallback := &fakebrowser.Element{Tag: "button", Text: "Submit"}
	page.On(roleButtonCSS, fallback)

	require.True(t, newSubmitter().FindAndClick(context.Background(), page))
	assert.True(t, fallback.Called("click"))
}

func TestFindAndClick_Nothing(t *testing.T) {
	page := fakebrowser.NewPage("https://example.test")
	assert.False(t, newSubmitter().FindAndClick(context.Background(), page))
	assert.Zero(t, page.SettleCount)
}

func TestDOMSuccess_Phrase(t *testing.T) {
	page := fakebrowser.NewPage("https://example.test/contact")
	page.Eval = func(frame entity.Frame, js string, args []any) (any, error) {
		phrases := args[0].([]string)
		body := "thanks! we'll be in touch shortly"
		for _, p := range phrases {
			if strings.Contains(body, p) {
				return true, nil
			}
		}
		return false, nil
	}

	assert.True(t, newSubmitter().DOMSuccess(context.Background(), page))
	assert.Zero(t, page.SettleCount)
}

func TestDOMSuccess_URLAfterRecheck(t *testing.T) {
	page := fakebrowser.NewPage("https://example.test/contact")
	page.Eval = func(frame entity.Frame, js string, args []any) (any, error) {
		// navigation lands during the settle wait
		if page.SettleCount > 0 {
			page.CurrentURL = "https://example.test/thank-you"
		}
		return false, nil
	}

	assert.True(t, newSubmitter().DOMSuccess(context.Background(), page))
	assert.Equal(t, 1, page.SettleCount)
}

func TestDOMSuccess_IgnoresSiteChrome(t *testing.T) {
	page := fakebrowser.NewPage("https://example.test/contact")
	page.Eval = func(frame entity.Frame, js string, args []any) (any, error) {
		body := "home | success stories | blog this field is required."
		for _, p := range args[0].([]string) {
			if strings.Contains(body, p) {
				return true, nil
			}
		}
		return false, nil
	}

	assert.False(t, newSubmitter().DOMSuccess(context.Background(), page))
}

func TestDOMSuccess_None(t *testing.T) {
	page := fakebrowser.NewPage("https://example.test/contact")
	page.Eval = func(frame entity.Frame, js string, args []any) (any, error) {
		return false, nil
	}

	assert.False(t, newSubmitter().DOMSuccess(context.Background(), page))
}

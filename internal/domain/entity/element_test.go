package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShadowPath(t *testing.T) {
	tests := []struct {
		selector string
		parts    []string
		pierces  bool
	}{
		{`#email`, []string{"#email"}, false},
		{`contact-card >>> input[name="email"]`, []string{"contact-card", `input[name="email"]`}, true},
		{`#app >>> div:nth-of-type(2) > x-box >>> #phone`, []string{"#app", "div:nth-of-type(2) > x-box", "#phone"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			assert.Equal(t, tt.parts, ShadowPath(tt.selector))
			assert.Equal(t, tt.pierces, PiercesShadow(tt.selector))
		})
	}
}

package prefill

import (
	"testing"

	"form-filler/internal/domain/entity"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	r := NewResolver(Data{
		"email":        "jane@example.com",
		"full_name":    "Jane Q Doe",
		"Topic":        "Partnership",
		"comments":     "Hello there",
		"Company Name": "Acme",
		"Country":      "Canada",
		"phone":        "",

		"Where did you hear about us": "Search",
	})

	tests := []struct {
		name   string
		ft     entity.FieldType
		attrs  entity.Attributes
		want   string
		wantOK bool
	}{
		{"direct", entity.FieldEmail, nil, "jane@example.com", true},
		{"empty counts as missing", entity.FieldPhone, nil, "", false},
		{"normalized alias", entity.FieldSubject, nil, "Partnership", true},
		{"raw alias", entity.FieldMessage, nil, "Hello there", true},
		{"company normalized", entity.FieldCompany, nil, "Acme", true},
		{"full name", entity.FieldName, nil, "Jane Q Doe", true},
		{"first from full", entity.FieldFirstName, nil, "Jane", true},
		{"last from full", entity.FieldLastName, nil, "Doe", true},
		{"country dropdown", entity.FieldDropdown, entity.Attributes{"label_text": "Country / Region"}, "Canada", true},
		{"referral dropdown", entity.FieldDropdown, entity.Attributes{"name": "lead_source"}, "Search", true},
		{"other dropdown", entity.FieldDropdown, entity.Attributes{"name": "budget"}, "", false},
		{"first hint", entity.FieldUnknown, entity.Attributes{"placeholder": "First"}, "Jane", true},
		{"surname hint", entity.FieldUnknown, entity.Attributes{"id": "surname"}, "Doe", true},
		{"no data", entity.FieldUnknown, entity.Attributes{"name": "website"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.ft, tt.attrs)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_NameComposition(t *testing.T) {
	r := NewResolver(Data{"first_name": "Jane", "last_name": "Doe"})

	got, ok := r.Resolve(entity.FieldName, nil)
	assert.True(t, ok)
	assert.Equal(t, "Jane Doe", got)

	r = NewResolver(Data{"full_name": "Cher"})
	_, ok = r.Resolve(entity.FieldLastName, nil)
	assert.False(t, ok)

	got, ok = r.Resolve(entity.FieldUnknown, entity.Attributes{"name": "lastname"})
	assert.True(t, ok)
	assert.Equal(t, "Cher", got)
}

// Package prefill maps a classified field type to the value it should be
// filled with.
package prefill

import (
	"regexp"
	"strings"

	"form-filler/internal/domain/entity"
)

// Data is the user-supplied prefill mapping: field type or alias to value.
type Data map[string]string

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

func normalize(k string) string {
	return nonAlnum.ReplaceAllString(strings.ToLower(strings.TrimSpace(k)), "")
}

// aliases are tried in order after the direct field type key.
var aliases = map[entity.FieldType][]string{
	entity.FieldSubject: {"subject", "topic", "title"},
	entity.FieldMessage: {"message", "comment", "comments"},
	entity.FieldCompany: {"company", "company_name"},
}

type Resolver struct {
	data Data
	norm map[string]string
}

func NewResolver(data Data) *Resolver {
	norm := make(map[string]string, len(data))
	for k, v := range data {
		if v == "" {
			continue
		}
		norm[normalize(k)] = v
	}
	return &Resolver{data: data, norm: norm}
}

// lookup tries the raw keys first, then their normalized forms. Empty
// values count as missing.
func (r *Resolver) lookup(keys ...string) (string, bool) {
	for _, k := range keys {
		if v := r.data[k]; v != "" {
			return v, true
		}
	}
	for _, k := range keys {
		if v := r.norm[normalize(k)]; v != "" {
			return v, true
		}
	}
	return "", false
}

// Resolve returns the value for a field, using attributes to pick among
// dropdown topics and to split names.
func (r *Resolver) Resolve(ft entity.FieldType, attrs entity.Attributes) (string, bool) {
	if v := r.data[string(ft)]; v != "" {
		return v, true
	}
	if keys, ok := aliases[ft]; ok {
		return r.lookup(keys...)
	}
	if ft == entity.FieldDropdown {
		return r.dropdown(attrs)
	}

	full := strings.TrimSpace(r.data["full_name"])
	first := strings.TrimSpace(r.data["first_name"])
	last := strings.TrimSpace(r.data["last_name"])
	parts := strings.Fields(full)

	switch ft {
	case entity.FieldName:
		if full != "" {
			return full, true
		}
		if first != "" || last != "" {
			return strings.TrimSpace(first + " " + last), true
		}
		return "", false
	case entity.FieldFirstName:
		if first != "" {
			return first, true
		}
		if len(parts) > 0 {
			return parts[0], true
		}
		return "", false
	case entity.FieldLastName:
		if last != "" {
			return last, true
		}
		if len(parts) > 1 {
			return parts[len(parts)-1], true
		}
		return "", false
	}

	// name-ish fields classified as something else still get first/last
	// values when their attributes say so
	hint := blob(attrs, entity.AttrName, entity.AttrID, entity.AttrPlaceholder, entity.AttrAriaLabel)
	if strings.Contains(hint, "first") && (first != "" || full != "") {
		if first != "" {
			return first, true
		}
		return parts[0], true
	}
	if (strings.Contains(hint, "last") || strings.Contains(hint, "surname")) && (last != "" || full != "") {
		if last != "" {
			return last, true
		}
		if len(parts) > 1 {
			return parts[len(parts)-1], true
		}
		return full, true
	}
	return "", false
}

func (r *Resolver) dropdown(attrs entity.Attributes) (string, bool) {
	hint := blob(attrs,
		entity.AttrName, entity.AttrID, entity.AttrPlaceholder,
		entity.AttrAriaLabel, entity.AttrLabelText, entity.AttrNearbyText,
	)
	switch {
	case containsAny(hint, "country", "nation"):
		return r.lookup("country", "Country")
	case containsAny(hint, "hear", "source", "referral"):
		return r.lookup("where_did_you_hear_about_us", "Where did you hear about us")
	}
	return "", false
}

func blob(attrs entity.Attributes, keys ...string) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, strings.ToLower(attrs.Get(k)))
	}
	return strings.Join(parts, " ")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

package filler

import (
	"strings"
	"unicode"
)

// Digits strips everything but ASCII digits.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatPhone renders the last ten digits as (DDD) DDD-DDDD. Shorter
// numbers are returned as bare digits.
func FormatPhone(s string) string {
	d := Digits(s)
	if len(d) < 10 {
		return d
	}
	d = d[len(d)-10:]
	return "(" + d[:3] + ") " + d[3:6] + "-" + d[6:]
}

// FormatDate renders the first eight digits as DD/MM/YYYY. Shorter input
// is returned as bare digits.
func FormatDate(s string) string {
	d := Digits(s)
	if len(d) < 8 {
		return d
	}
	return d[:2] + "/" + d[2:4] + "/" + d[4:8]
}
